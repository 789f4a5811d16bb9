package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/facundomartinezvidal/biblioteca-uade/internal/config"
	"github.com/facundomartinezvidal/biblioteca-uade/internal/domain"
	apperrors "github.com/facundomartinezvidal/biblioteca-uade/pkg/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const brokerName = "broker"

var errNotRouted = errors.New("message was not routed to any queue")

// BrokerClient publishes envelopes through the RabbitMQ management HTTP API.
type BrokerClient struct {
	baseURL    string
	user       string
	password   string
	vhost      string
	exchange   string
	httpClient *http.Client
	limiter    *rate.Limiter
	tracer     trace.Tracer
}

func NewBrokerClient(cfg config.BrokerConfig, backoffice config.BackofficeConfig) *BrokerClient {
	timeout := backoffice.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultHTTPLimit
	}
	vhost := cfg.VHost
	if vhost == "" {
		vhost = "/"
	}

	return &BrokerClient{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		user:       cfg.User,
		password:   cfg.Password,
		vhost:      vhost,
		exchange:   cfg.Exchange,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    newLimiter(backoffice.RateLimit, backoffice.RateBurst),
		tracer:     otel.Tracer("biblioteca/clients/broker"),
	}
}

type publishRequest struct {
	Properties      map[string]interface{} `json:"properties"`
	RoutingKey      string                 `json:"routing_key"`
	Payload         string                 `json:"payload"`
	PayloadEncoding string                 `json:"payload_encoding"`
}

type publishResponse struct {
	Routed bool `json:"routed"`
}

// Publish delivers one envelope to the sanctions exchange under routingKey.
func (c *BrokerClient) Publish(ctx context.Context, routingKey string, envelope domain.Envelope) error {
	ctx, span := c.tracer.Start(ctx, "broker.publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.destination", c.exchange),
			attribute.String("messaging.routing_key", routingKey),
			attribute.String("messaging.message_id", envelope.EventID),
		),
	)
	defer span.End()

	if err := c.publish(ctx, routingKey, envelope); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (c *BrokerClient) publish(ctx context.Context, routingKey string, envelope domain.Envelope) error {
	if c.baseURL == "" {
		return apperrors.WrapDependencyUnavailable(brokerName, errors.New("BROKER_URL is not configured"))
	}

	message, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	body, err := json.Marshal(publishRequest{
		Properties: map[string]interface{}{
			"content_type":  "application/json",
			"delivery_mode": 2,
			"message_id":    envelope.EventID,
			"type":          envelope.EventType,
		},
		RoutingKey:      routingKey,
		Payload:         string(message),
		PayloadEncoding: "string",
	})
	if err != nil {
		return fmt.Errorf("marshal publish request: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return apperrors.WrapDependencyUnavailable(brokerName, err)
	}

	endpoint := fmt.Sprintf("%s/api/exchanges/%s/%s/publish",
		c.baseURL, url.PathEscape(c.vhost), url.PathEscape(c.exchange))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return apperrors.WrapDependencyUnavailable(brokerName, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.user, c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.WrapDependencyUnavailable(brokerName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperrors.WrapDependencyUnavailable(brokerName,
			fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	var result publishResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return apperrors.WrapMalformedResponse(brokerName, err.Error())
	}
	if !result.Routed {
		return apperrors.WrapDependencyUnavailable(brokerName, errNotRouted)
	}

	return nil
}
