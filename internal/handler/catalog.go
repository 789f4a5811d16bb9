package handler

import (
	"net/http"

	"github.com/facundomartinezvidal/biblioteca-uade/internal/domain"
	"github.com/facundomartinezvidal/biblioteca-uade/pkg/response"

	"github.com/go-playground/validator/v10"
)

type CatalogHandler struct {
	service   CatalogManager
	validator *validator.Validate
}

func NewCatalogHandler(service CatalogManager) *CatalogHandler {
	return &CatalogHandler{
		service:   service,
		validator: validator.New(),
	}
}

// ListBooks searches the catalog by title or author (?search=) and status.
func (h *CatalogHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.service.ListBooks(r.Context(), q.Get("search"), domain.BookStatus(q.Get("status")), paginationFromQuery(r))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, page)
}

func (h *CatalogHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathUUID(w, r, "bookId")
	if !ok {
		return
	}

	book, err := h.service.GetBook(r.Context(), bookID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, book)
}

func (h *CatalogHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateBookRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	book, err := h.service.CreateBook(r.Context(), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, book)
}

func (h *CatalogHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	favorites, err := h.service.ListFavorites(r.Context(), user.ID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, favorites)
}

func (h *CatalogHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	bookID, ok := pathUUID(w, r, "bookId")
	if !ok {
		return
	}

	if err := h.service.AddFavorite(r.Context(), user.ID, bookID); err != nil {
		response.FromError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	bookID, ok := pathUUID(w, r, "bookId")
	if !ok {
		return
	}

	if err := h.service.RemoveFavorite(r.Context(), user.ID, bookID); err != nil {
		response.FromError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
