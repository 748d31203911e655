package http

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"academy-api/internal/domain"
	"academy-api/internal/repository"
)

// Limite de subida para PDFs.
const maxBookSize = 50 << 20

// BookHandler mantiene dependencias para endpoints de libros.
type BookHandler struct {
	logger    *zap.Logger
	books     repository.BookRepository
	uploadDir string
}

// NewBookHandler crea una instancia de BookHandler con dependencias necesarias.
func NewBookHandler(logger *zap.Logger, books repository.BookRepository, uploadDir string) *BookHandler {
	return &BookHandler{
		logger:    logger,
		books:     books,
		uploadDir: uploadDir,
	}
}

// Upload maneja POST /api/books (tutor/admin). Los libros de tutores
// quedan pendientes de aprobacion; los de admin se aprueban solos.
func (h *BookHandler) Upload(c *gin.Context) {
	identity, ok := GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	title := c.PostForm("title")
	author := c.PostForm("author")
	subject := c.PostForm("subject")
	if title == "" || author == "" || subject == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title, author and subject required"})
		return
	}
	if !domain.ValidBookSubject(subject) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown subject"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file uploaded"})
		return
	}
	if file.Size > maxBookSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file exceeds 50MB limit"})
		return
	}
	if file.Header.Get("Content-Type") != "application/pdf" && filepath.Ext(file.Filename) != ".pdf" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only PDF files are allowed"})
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		h.logger.Error("create upload dir failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store file"})
		return
	}
	storedName := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), filepath.Base(file.Filename))
	storedPath := filepath.Join(h.uploadDir, storedName)
	if err := c.SaveUploadedFile(file, storedPath); err != nil {
		h.logger.Error("save upload failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store file"})
		return
	}

	book := domain.Book{
		ID:          uuid.NewString(),
		Title:       title,
		Author:      author,
		Subject:     subject,
		Description: c.PostForm("description"),
		FilePath:    storedPath,
		FileName:    storedName,
		FileSize:    file.Size,
		MimeType:    "application/pdf",
		UploadedBy:  identity.ID,
		Approved:    identity.Role == domain.RoleAdmin,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.books.Create(c.Request.Context(), book); err != nil {
		h.logger.Error("create book failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not upload book"})
		return
	}

	if !book.Approved {
		h.logger.Info("book awaiting approval",
			zap.String("book_id", book.ID),
			zap.String("uploaded_by", identity.ID),
		)
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Book uploaded successfully",
		"book":     book.ID,
		"approved": book.Approved,
	})
}

// List maneja GET /api/books con filtros y paginacion.
func (h *BookHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	approved := c.DefaultQuery("approved", "true") == "true"

	books, total, err := h.books.List(c.Request.Context(), repository.BookFilter{
		Subject:  c.Query("subject"),
		Search:   c.Query("search"),
		Approved: approved,
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		h.logger.Error("list books failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch books"})
		return
	}
	if limit <= 0 {
		limit = 10
	}
	pages := (total + limit - 1) / limit

	c.JSON(http.StatusOK, gin.H{
		"books": books,
		"pagination": gin.H{
			"current": page,
			"pages":   pages,
			"total":   total,
		},
	})
}

// Approve maneja POST /api/books/:id/approve (solo admin).
func (h *BookHandler) Approve(c *gin.Context) {
	identity, ok := GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	var req struct {
		Approved     bool   `json:"approved"`
		RejectReason string `json:"rejectReason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	id := c.Param("id")
	if _, err := h.books.GetByID(c.Request.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "book not found"})
			return
		}
		h.logger.Error("load book failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update book"})
		return
	}

	reason := ""
	if !req.Approved {
		reason = req.RejectReason
	}
	if err := h.books.SetApproval(c.Request.Context(), id, req.Approved, identity.ID, reason); err != nil {
		h.logger.Error("approve book failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update book"})
		return
	}

	verb := "rejected"
	if req.Approved {
		verb = "approved"
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Book %s successfully", verb)})
}

// Delete maneja DELETE /api/books/:id (admin o quien subio el libro).
func (h *BookHandler) Delete(c *gin.Context) {
	identity, ok := GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	id := c.Param("id")
	book, err := h.books.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "book not found"})
			return
		}
		h.logger.Error("load book failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete book"})
		return
	}
	if identity.Role != domain.RoleAdmin && book.UploadedBy != identity.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return
	}

	if err := os.Remove(book.FilePath); err != nil && !os.IsNotExist(err) {
		h.logger.Warn("delete book file failed", zap.Error(err), zap.String("path", book.FilePath))
	}
	if err := h.books.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("delete book failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete book"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Book deleted successfully"})
}
