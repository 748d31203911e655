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

// GroupHandler mantiene dependencias para endpoints de grupos de estudio.
type GroupHandler struct {
	logger *zap.Logger
	groups repository.GroupRepository
}

// NewGroupHandler crea una instancia de GroupHandler con dependencias necesarias.
func NewGroupHandler(logger *zap.Logger, groups repository.GroupRepository) *GroupHandler {
	return &GroupHandler{
		logger: logger,
		groups: groups,
	}
}

// Create maneja POST /api/groups (tutor/admin). El creador entra como
// miembro y admin del grupo.
func (h *GroupHandler) Create(c *gin.Context) {
	identity, ok := GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	var req struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
		Subject     string `json:"subject" binding:"required"`
		Type        string `json:"type"`
		MaxMembers  int    `json:"maxMembers"`
		IsPrivate   bool   `json:"isPrivate"`
		JoinCode    string `json:"joinCode"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid group request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and subject required"})
		return
	}
	if !domain.ValidGroupSubject(req.Subject) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown subject"})
		return
	}
	if req.Type == "" {
		req.Type = domain.GroupTypeStudy
	}
	if !domain.ValidGroupType(req.Type) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown group type"})
		return
	}
	if req.MaxMembers <= 0 {
		req.MaxMembers = 50
	}

	group := domain.Group{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Subject:     req.Subject,
		Type:        req.Type,
		CreatorID:   identity.ID,
		Members:     []string{identity.ID},
		Admins:      []string{identity.ID},
		MaxMembers:  req.MaxMembers,
		IsPrivate:   req.IsPrivate,
		JoinCode:    req.JoinCode,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.groups.Create(c.Request.Context(), group); err != nil {
		if errors.Is(err, repository.ErrDuplicateGroupName) {
			c.JSON(http.StatusConflict, gin.H{"error": "group name already taken"})
			return
		}
		h.logger.Error("create group failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create group"})
		return
	}
	c.JSON(http.StatusCreated, group)
}

// List maneja GET /api/groups.
func (h *GroupHandler) List(c *gin.Context) {
	groups, err := h.groups.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list groups failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch groups"})
		return
	}
	if groups == nil {
		groups = []domain.Group{}
	}
	c.JSON(http.StatusOK, groups)
}

// Get maneja GET /api/groups/:id.
func (h *GroupHandler) Get(c *gin.Context) {
	group, err := h.groups.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
			return
		}
		h.logger.Error("get group failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch group"})
		return
	}
	c.JSON(http.StatusOK, group)
}

// Update maneja PUT /api/groups/:id (tutor/admin).
func (h *GroupHandler) Update(c *gin.Context) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Subject     string `json:"subject"`
		Type        string `json:"type"`
		MaxMembers  int    `json:"maxMembers"`
		IsPrivate   *bool  `json:"isPrivate"`
		JoinCode    string `json:"joinCode"`
		IsActive    *bool  `json:"isActive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid group request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	group, err := h.groups.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
			return
		}
		h.logger.Error("get group failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update group"})
		return
	}

	if req.Name != "" {
		group.Name = req.Name
	}
	if req.Description != "" {
		group.Description = req.Description
	}
	if req.Subject != "" {
		if !domain.ValidGroupSubject(req.Subject) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown subject"})
			return
		}
		group.Subject = req.Subject
	}
	if req.Type != "" {
		if !domain.ValidGroupType(req.Type) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown group type"})
			return
		}
		group.Type = req.Type
	}
	if req.MaxMembers > 0 {
		group.MaxMembers = req.MaxMembers
	}
	if req.IsPrivate != nil {
		group.IsPrivate = *req.IsPrivate
	}
	if req.JoinCode != "" {
		group.JoinCode = req.JoinCode
	}
	if req.IsActive != nil {
		group.IsActive = *req.IsActive
	}

	if err := h.groups.Update(c.Request.Context(), group); err != nil {
		if errors.Is(err, repository.ErrDuplicateGroupName) {
			c.JSON(http.StatusConflict, gin.H{"error": "group name already taken"})
			return
		}
		h.logger.Error("update group failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update group"})
		return
	}
	c.JSON(http.StatusOK, group)
}

// Join maneja POST /api/groups/:id/join.
func (h *GroupHandler) Join(c *gin.Context) {
	identity, ok := GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	var req struct {
		JoinCode string `json:"joinCode"`
	}
	// Body opcional: solo los grupos privados requieren joinCode.
	_ = c.ShouldBindJSON(&req)

	group, err := h.groups.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
			return
		}
		h.logger.Error("get group failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not join group"})
		return
	}

	if !group.IsActive {
		c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
		return
	}
	if group.IsMember(identity.ID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "already a member"})
		return
	}
	if len(group.Members) >= group.MaxMembers {
		c.JSON(http.StatusBadRequest, gin.H{"error": "group is full"})
		return
	}
	if group.IsPrivate && group.JoinCode != req.JoinCode {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid join code"})
		return
	}

	if err := h.groups.AddMember(c.Request.Context(), group.ID, identity.ID); err != nil {
		h.logger.Error("join group failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not join group"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Joined group successfully"})
}

// Delete maneja DELETE /api/groups/:id (solo admin).
func (h *GroupHandler) Delete(c *gin.Context) {
	if err := h.groups.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
			return
		}
		h.logger.Error("delete group failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete group"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Group deleted successfully"})
}
