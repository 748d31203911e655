package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"academy-api/internal/domain"
	"academy-api/internal/repository"
)

// LectureHandler mantiene dependencias para endpoints de lecciones.
type LectureHandler struct {
	logger   *zap.Logger
	lectures repository.LectureRepository
}

// NewLectureHandler crea una instancia de LectureHandler con dependencias necesarias.
func NewLectureHandler(logger *zap.Logger, lectures repository.LectureRepository) *LectureHandler {
	return &LectureHandler{
		logger:   logger,
		lectures: lectures,
	}
}

type lectureRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	Subject     string   `json:"subject" binding:"required"`
	Topic       string   `json:"topic" binding:"required"`
	ContentType string   `json:"contentType" binding:"required"`
	ContentURL  string   `json:"contentUrl"`
	Duration    int      `json:"duration"`
	Level       string   `json:"level"`
	IsPublished bool     `json:"isPublished"`
	Tags        []string `json:"tags"`
}

func (r lectureRequest) validate() error {
	if !domain.ValidBookSubject(r.Subject) {
		return errors.New("unknown subject")
	}
	if !domain.ValidLectureContentType(r.ContentType) {
		return errors.New("unknown content type")
	}
	return nil
}

// Create maneja POST /api/lectures (tutor/admin).
func (h *LectureHandler) Create(c *gin.Context) {
	identity, ok := GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	var req lectureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid lecture request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "title, subject, topic and contentType required"})
		return
	}
	if err := req.validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now().UTC()
	lecture := domain.Lecture{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Subject:     req.Subject,
		Topic:       req.Topic,
		TutorID:     identity.ID,
		ContentType: req.ContentType,
		ContentURL:  req.ContentURL,
		Duration:    req.Duration,
		Level:       req.Level,
		IsPublished: req.IsPublished,
		Tags:        req.Tags,
		CreatedAt:   now,
	}
	if lecture.Level == "" {
		lecture.Level = "intermediate"
	}
	if lecture.Tags == nil {
		lecture.Tags = []string{}
	}
	if lecture.IsPublished {
		lecture.PublishedAt = &now
	}

	if err := h.lectures.Create(c.Request.Context(), lecture); err != nil {
		h.logger.Error("create lecture failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create lecture"})
		return
	}
	c.JSON(http.StatusCreated, lecture)
}

// List maneja GET /api/lectures.
func (h *LectureHandler) List(c *gin.Context) {
	lectures, err := h.lectures.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list lectures failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch lectures"})
		return
	}
	if lectures == nil {
		lectures = []domain.Lecture{}
	}
	c.JSON(http.StatusOK, lectures)
}

// Get maneja GET /api/lectures/:id.
func (h *LectureHandler) Get(c *gin.Context) {
	lecture, err := h.lectures.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "lecture not found"})
			return
		}
		h.logger.Error("get lecture failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch lecture"})
		return
	}
	c.JSON(http.StatusOK, lecture)
}

// Update maneja PUT /api/lectures/:id (tutor/admin). El primer paso a
// publicado fija published_at.
func (h *LectureHandler) Update(c *gin.Context) {
	var req lectureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid lecture request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "title, subject, topic and contentType required"})
		return
	}
	if err := req.validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lecture, err := h.lectures.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "lecture not found"})
			return
		}
		h.logger.Error("get lecture failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update lecture"})
		return
	}

	lecture.Title = req.Title
	lecture.Description = req.Description
	lecture.Subject = req.Subject
	lecture.Topic = req.Topic
	lecture.ContentType = req.ContentType
	lecture.ContentURL = req.ContentURL
	lecture.Duration = req.Duration
	if req.Level != "" {
		lecture.Level = req.Level
	}
	if req.Tags != nil {
		lecture.Tags = req.Tags
	}
	if req.IsPublished && !lecture.IsPublished {
		now := time.Now().UTC()
		lecture.PublishedAt = &now
	}
	lecture.IsPublished = req.IsPublished

	if err := h.lectures.Update(c.Request.Context(), lecture); err != nil {
		h.logger.Error("update lecture failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update lecture"})
		return
	}
	c.JSON(http.StatusOK, lecture)
}

// Delete maneja DELETE /api/lectures/:id (solo admin).
func (h *LectureHandler) Delete(c *gin.Context) {
	if err := h.lectures.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "lecture not found"})
			return
		}
		h.logger.Error("delete lecture failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete lecture"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Lecture deleted"})
}
