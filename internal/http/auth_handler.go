package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"academy-api/internal/repository"
	"academy-api/internal/service"
)

// AuthHandler mantiene dependencias para los endpoints de auth.
type AuthHandler struct {
	logger   *zap.Logger
	authServ *service.AuthService
	jwtServ  *service.JWTService
}

// NewAuthHandler crea una instancia de AuthHandler con dependencias necesarias.
func NewAuthHandler(logger *zap.Logger, authServ *service.AuthService, jwtServ *service.JWTService) *AuthHandler {
	return &AuthHandler{
		logger:   logger,
		authServ: authServ,
		jwtServ:  jwtServ,
	}
}

// Register maneja POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		FullName        string `json:"fullName" binding:"required"`
		Email           string `json:"email" binding:"required,email"`
		Password        string `json:"password" binding:"required"`
		ConfirmPassword string `json:"confirmPassword" binding:"required"`
		Role            string `json:"role" binding:"required"`
		Phone           string `json:"phone"`
		Gender          string `json:"gender"`
		DOB             string `json:"dob"`
		School          string `json:"school"`
		ClassLevel      string `json:"classLevel"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid register request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "required fields: fullName, email, password, confirmPassword, role"})
		return
	}

	dob, err := parseDate(req.DOB)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dob"})
		return
	}

	_, emailSent, err := h.authServ.Register(c.Request.Context(), service.RegisterInput{
		FullName:        req.FullName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Role:            req.Role,
		Phone:           req.Phone,
		Gender:          req.Gender,
		DOB:             dob,
		School:          req.School,
		ClassLevel:      req.ClassLevel,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		case isValidationError(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("register failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not register"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Registration successful. Please check your email for the verification code.",
		"emailSent": emailSent,
	})
}

// Login maneja POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password required"})
		return
	}

	user, err := h.authServ.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		case errors.Is(err, service.ErrNotVerified):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Please verify your email first."})
		default:
			h.logger.Error("login failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not login"})
		}
		return
	}

	token, err := h.jwtServ.GenerateAccessToken(user)
	if err != nil {
		h.logger.Error("jwt issue failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// VerifyEmail maneja GET /api/auth/verify-email?token=...
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
		return
	}

	alreadyVerified, err := h.authServ.VerifyByToken(c.Request.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, service.ErrJWTInvalid), errors.Is(err, service.ErrJWTExpired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired token"})
		default:
			h.logger.Error("verify email failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not verify email"})
		}
		return
	}

	if alreadyVerified {
		c.JSON(http.StatusOK, gin.H{"message": "Account already verified."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email verified successfully."})
}

// VerifyCode maneja POST /api/auth/verify-code.
func (h *AuthHandler) VerifyCode(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
		Code  string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid verify code request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and code required"})
		return
	}

	alreadyVerified, err := h.authServ.VerifyCode(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCodeInvalid):
			c.JSON(http.StatusNotFound, gin.H{"error": "invalid code"})
		case errors.Is(err, service.ErrCodeExpired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Verification code expired. Please request a new one."})
		default:
			h.logger.Error("verify code failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not verify code"})
		}
		return
	}

	if alreadyVerified {
		c.JSON(http.StatusOK, gin.H{"message": "Account already verified."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email verified successfully."})
}

// ResendCode maneja POST /api/auth/resend-code.
func (h *AuthHandler) ResendCode(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid resend code request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "email required"})
		return
	}

	emailSent, err := h.authServ.ResendCode(c.Request.Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, service.ErrAlreadyVerified):
			c.JSON(http.StatusBadRequest, gin.H{"error": "account already verified"})
		case errors.Is(err, service.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
		default:
			h.logger.Error("resend code failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not resend code"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Verification code resent. Please check your email.",
		"emailSent": emailSent,
	})
}

// Me maneja GET /api/auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	identity, ok := GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	user, err := h.authServ.GetUser(c.Request.Context(), identity.ID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.logger.Error("me failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateProfile maneja POST /api/auth/profile.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	identity, ok := GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	var req struct {
		FullName       string   `json:"fullName"`
		Gender         string   `json:"gender"`
		DOB            string   `json:"dob"`
		Phone          string   `json:"phone"`
		Address        string   `json:"address"`
		GuardianName   string   `json:"guardianName"`
		GuardianPhone  string   `json:"guardianPhone"`
		School         string   `json:"school"`
		ClassLevel     string   `json:"classLevel"`
		Subjects       []string `json:"subjects"`
		Bio            string   `json:"bio"`
		ProfilePicture string   `json:"profilePicture"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid profile request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	dob, err := parseDate(req.DOB)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dob"})
		return
	}

	user, err := h.authServ.UpdateProfile(c.Request.Context(), identity.ID, service.ProfileInput{
		FullName:       req.FullName,
		Gender:         req.Gender,
		DOB:            dob,
		Phone:          req.Phone,
		Address:        req.Address,
		GuardianName:   req.GuardianName,
		GuardianPhone:  req.GuardianPhone,
		School:         req.School,
		ClassLevel:     req.ClassLevel,
		Subjects:       req.Subjects,
		Bio:            req.Bio,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.logger.Error("update profile failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update profile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully.", "user": user})
}

// Logout maneja POST /api/auth/logout revocando el jti del token.
func (h *AuthHandler) Logout(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	if err := h.jwtServ.RevokeAccessToken(token); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully."})
}

// isValidationError agrupa los errores que el usuario puede corregir.
func isValidationError(err error) bool {
	return errors.Is(err, service.ErrInvalidEmail) ||
		errors.Is(err, service.ErrInvalidRole) ||
		errors.Is(err, service.ErrPasswordMismatch) ||
		errors.Is(err, service.ErrPasswordTooShort) ||
		errors.Is(err, service.ErrPasswordNoLower) ||
		errors.Is(err, service.ErrPasswordNoUpper) ||
		errors.Is(err, service.ErrPasswordNoDigit) ||
		errors.Is(err, service.ErrPasswordNoSymbol)
}

// parseDate acepta fechas en formato date-only o RFC3339.
func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
