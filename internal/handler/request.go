package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/facundomartinezvidal/biblioteca-uade/internal/domain"
	"github.com/facundomartinezvidal/biblioteca-uade/internal/middleware"
	"github.com/facundomartinezvidal/biblioteca-uade/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
// It writes the 400 response itself and reports whether the handler may go on.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst interface{}) bool {
	if err := jsonDecode(r.Body, dst); err != nil {
		response.BadRequest(w, "Invalid JSON payload", err)
		return false
	}

	if err := v.Struct(dst); err != nil {
		response.BadRequest(w, "Validation failed", validationError(err))
		return false
	}
	return true
}

func jsonDecode(body io.Reader, dst interface{}) error {
	return json.NewDecoder(body).Decode(dst)
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field()+" failed on "+fe.Tag())
	}
	return errors.New(strings.Join(fields, "; "))
}

// pathUUID parses the named route variable. It writes the 400 response on
// failure.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		response.BadRequest(w, "Invalid "+name, err)
		return uuid.Nil, false
	}
	return id, true
}

// paginationFromQuery reads page and page_size. Missing or malformed values
// fall back to the defaults.
func paginationFromQuery(r *http.Request) domain.PaginationParams {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	params := domain.PaginationParams{Page: page, PageSize: pageSize}
	params.Validate()
	return params
}

func currentUser(w http.ResponseWriter, r *http.Request) (*domain.AuthUser, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "User not found")
		return nil, false
	}
	return user, true
}
