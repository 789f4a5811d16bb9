package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/facundomartinezvidal/biblioteca-uade/internal/config"
	"github.com/facundomartinezvidal/biblioteca-uade/internal/domain"
	apperrors "github.com/facundomartinezvidal/biblioteca-uade/pkg/errors"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	backofficeName   = "backoffice"
	parameterPath    = "/parametros"
	parameterKey     = "parametros:all"
	defaultCacheTTL  = 60 * time.Second
	defaultHTTPLimit = 10 * time.Second
)

// ParameterClient reads sanction and fine definitions from the Backoffice.
// Upstream offers no filtering, so every lookup works over the full active set,
// which is cached in redis for a short TTL.
type ParameterClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      redis.Cmdable
	ttl        time.Duration
	tracer     trace.Tracer
}

// NewParameterClient builds the client. A nil cache disables caching.
func NewParameterClient(cfg config.BackofficeConfig, cache redis.Cmdable) *ParameterClient {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultHTTPLimit
	}
	ttl := cfg.ParameterCacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	return &ParameterClient{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    newLimiter(cfg.RateLimit, cfg.RateBurst),
		cache:      cache,
		ttl:        ttl,
		tracer:     otel.Tracer("biblioteca/clients/backoffice"),
	}
}

func newLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// GetAll returns every active parameter.
func (c *ParameterClient) GetAll(ctx context.Context) ([]domain.Parameter, error) {
	if params, ok := c.fromCache(ctx); ok {
		return params, nil
	}

	params, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}

	c.store(ctx, params)
	return params, nil
}

// GetByName returns the active parameter with the given name.
func (c *ParameterClient) GetByName(ctx context.Context, name string) (*domain.Parameter, error) {
	params, err := c.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	for i := range params {
		if strings.EqualFold(strings.TrimSpace(params[i].Name), strings.TrimSpace(name)) {
			return &params[i], nil
		}
	}

	return nil, apperrors.WrapSanctionNotFound(name)
}

// GetByType returns the active parameters of the given type.
func (c *ParameterClient) GetByType(ctx context.Context, typ string) ([]domain.Parameter, error) {
	params, err := c.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]domain.Parameter, 0, len(params))
	for _, p := range params {
		if strings.EqualFold(p.Type, typ) {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

// Invalidate drops the cached parameter list.
func (c *ParameterClient) Invalidate(ctx context.Context) error {
	if c.cache == nil {
		return nil
	}
	if err := c.cache.Del(ctx, parameterKey).Err(); err != nil {
		return apperrors.WrapCacheError(err)
	}
	return nil
}

func (c *ParameterClient) fromCache(ctx context.Context) ([]domain.Parameter, bool) {
	if c.cache == nil {
		return nil, false
	}

	raw, err := c.cache.Get(ctx, parameterKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.WarnContext(ctx, "parameter cache read failed", "error", err)
		}
		return nil, false
	}

	var params []domain.Parameter
	if err := json.Unmarshal(raw, &params); err != nil {
		slog.WarnContext(ctx, "parameter cache entry unreadable", "error", err)
		return nil, false
	}
	return params, true
}

func (c *ParameterClient) store(ctx context.Context, params []domain.Parameter) {
	if c.cache == nil {
		return
	}

	raw, err := json.Marshal(params)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, parameterKey, raw, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "parameter cache write failed", "error", err)
	}
}

func (c *ParameterClient) fetch(ctx context.Context) ([]domain.Parameter, error) {
	ctx, span := c.tracer.Start(ctx, "backoffice.get_parametros",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("http.url", c.baseURL+parameterPath)),
	)
	defer span.End()

	params, err := c.doFetch(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("parameters.active", len(params)))
	return params, nil
}

func (c *ParameterClient) doFetch(ctx context.Context) ([]domain.Parameter, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperrors.WrapDependencyUnavailable(backofficeName, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+parameterPath, nil)
	if err != nil {
		return nil, apperrors.WrapDependencyUnavailable(backofficeName, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.WrapDependencyUnavailable(backofficeName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.WrapDependencyUnavailable(backofficeName,
			fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	var raw []rawParameter
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, apperrors.WrapMalformedResponse(backofficeName, err.Error())
	}

	return parseParameters(raw)
}

// rawParameter is the Backoffice wire shape. Fields are loosely typed so the
// boundary check can report exactly what is wrong.
type rawParameter struct {
	ID            json.RawMessage `json:"id"`
	Nombre        *string         `json:"nombre"`
	Tipo          *string         `json:"tipo"`
	ValorNumerico json.RawMessage `json:"valor_numerico"`
	ValorTexto    *string         `json:"valor_texto"`
	Status        *bool           `json:"status"`
}

func parseParameters(raw []rawParameter) ([]domain.Parameter, error) {
	params := make([]domain.Parameter, 0, len(raw))

	for i, r := range raw {
		p, err := r.toDomain()
		if err != nil {
			return nil, apperrors.WrapMalformedResponse(backofficeName, fmt.Sprintf("parametro[%d]: %s", i, err))
		}
		if !p.Active {
			continue
		}
		params = append(params, *p)
	}

	return params, nil
}

func (r rawParameter) toDomain() (*domain.Parameter, error) {
	id, err := parseID(r.ID)
	if err != nil {
		return nil, err
	}
	if r.Nombre == nil || strings.TrimSpace(*r.Nombre) == "" {
		return nil, errors.New("nombre is required")
	}
	if r.Status == nil {
		return nil, errors.New("status must be a boolean")
	}

	p := &domain.Parameter{
		ID:        id,
		Name:      strings.TrimSpace(*r.Nombre),
		TextValue: r.ValorTexto,
		Active:    *r.Status,
	}
	if r.Tipo != nil {
		p.Type = *r.Tipo
	}

	if len(r.ValorNumerico) > 0 && !bytes.Equal(r.ValorNumerico, []byte("null")) {
		var amount decimal.NullDecimal
		if err := json.Unmarshal(r.ValorNumerico, &amount); err != nil {
			return nil, fmt.Errorf("valor_numerico is not numeric: %w", err)
		}
		p.NumericValue = amount
	}

	return p, nil
}

// parseID accepts both string and numeric ids.
func parseID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", errors.New("id is required")
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("id: %w", err)
		}
		if strings.TrimSpace(s) == "" {
			return "", errors.New("id is required")
		}
		return s, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("id must be a string or number: %w", err)
	}
	return n.String(), nil
}
