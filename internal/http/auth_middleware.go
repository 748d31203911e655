package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"academy-api/internal/domain"
	"academy-api/internal/repository"
	"academy-api/internal/service"
)

const identityKey = "auth_identity"

// Identity es el contexto de identidad que el middleware expone a los
// handlers protegidos.
type Identity struct {
	ID   string
	Role domain.Role
}

// AuthMiddleware valida el bearer token y recarga el usuario desde el
// store vivo: un usuario borrado o des-verificado queda fuera aunque su
// token siga vigente.
func AuthMiddleware(jwtSvc *service.JWTService, users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtSvc == nil || users == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
			c.Abort()
			return
		}

		token, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		claims, err := jwtSvc.ParseAccessToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		user, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found or not verified"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load user"})
			}
			c.Abort()
			return
		}
		if !user.Verified {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found or not verified"})
			c.Abort()
			return
		}

		c.Set(identityKey, Identity{ID: user.ID, Role: user.Role})
		c.Next()
	}
}

// RequireRole corta con 403 si la identidad resuelta no tiene uno de los
// roles requeridos. Debe ir despues de AuthMiddleware.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}
		for _, role := range roles {
			if identity.Role == role {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		c.Abort()
	}
}

// GetIdentity obtiene la identidad autenticada desde el contexto.
func GetIdentity(c *gin.Context) (Identity, bool) {
	val, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	identity, ok := val.(Identity)
	return identity, ok
}

func bearerToken(c *gin.Context) (string, bool) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[len("Bearer "):])
	return token, token != ""
}
