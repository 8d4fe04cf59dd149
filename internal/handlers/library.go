package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/luminalib/luminalib-backend/internal/logger"
	"github.com/luminalib/luminalib-backend/internal/services"
)

type LibraryHandler struct {
	log     *logger.Logger
	library services.LibraryService
}

func NewLibraryHandler(baseLog *logger.Logger, library services.LibraryService) *LibraryHandler {
	return &LibraryHandler{
		log:     baseLog.With("handler", "LibraryHandler"),
		library: library,
	}
}

func parseUserAndBook(c *gin.Context, bookParam string) (uuid.UUID, uuid.UUID, bool) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
		return uuid.Nil, uuid.Nil, false
	}
	bookID, err := uuid.Parse(bookParam)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_book_id", err)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, bookID, true
}

type borrowRequest struct {
	BookID string `json:"book_id" binding:"required"`
}

// POST /api/users/:user_id/borrows
func (h *LibraryHandler) Borrow(c *gin.Context) {
	var req borrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	userID, bookID, ok := parseUserAndBook(c, req.BookID)
	if !ok {
		return
	}
	borrow, err := h.library.BorrowBook(c.Request.Context(), userID, bookID)
	if err != nil {
		RespondError(c, http.StatusConflict, "borrow_failed", err)
		return
	}
	RespondCreated(c, borrow)
}

// POST /api/users/:user_id/books/:book_id/return
func (h *LibraryHandler) Return(c *gin.Context) {
	userID, bookID, ok := parseUserAndBook(c, c.Param("book_id"))
	if !ok {
		return
	}
	borrow, err := h.library.ReturnBook(c.Request.Context(), userID, bookID)
	if err != nil {
		RespondError(c, http.StatusConflict, "return_failed", err)
		return
	}
	RespondOK(c, borrow)
}

type reviewRequest struct {
	Rating     int    `json:"rating" binding:"required"`
	ReviewText string `json:"review_text"`
}

// POST /api/users/:user_id/books/:book_id/reviews
func (h *LibraryHandler) Review(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	userID, bookID, ok := parseUserAndBook(c, c.Param("book_id"))
	if !ok {
		return
	}
	review, err := h.library.SubmitReview(c.Request.Context(), userID, bookID, req.Rating, req.ReviewText)
	if err != nil {
		RespondError(c, http.StatusConflict, "review_failed", err)
		return
	}
	RespondCreated(c, review)
}
