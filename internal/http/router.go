package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"academy-api/internal/domain"
	"academy-api/internal/repository"
	"academy-api/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	jwtSvc *service.JWTService,
	users repository.UserRepository,
	authH *AuthHandler,
	bookH *BookHandler,
	lectureH *LectureHandler,
	groupH *GroupHandler,
	uploadDir string,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y CORS.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), corsMiddleware())

	authMW := AuthMiddleware(jwtSvc, users)
	tutorOrAdmin := RequireRole(domain.RoleTutor, domain.RoleAdmin)
	adminOnly := RequireRole(domain.RoleAdmin)

	api := r.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := api.Group("/auth")
	auth.POST("/register", authH.Register)
	auth.POST("/login", authH.Login)
	auth.GET("/verify-email", authH.VerifyEmail)
	auth.POST("/verify-code", authH.VerifyCode)
	auth.POST("/resend-code", authH.ResendCode)
	auth.GET("/me", authMW, authH.Me)
	auth.POST("/profile", authMW, authH.UpdateProfile)
	auth.POST("/logout", authMW, authH.Logout)

	books := api.Group("/books")
	books.GET("", authMW, bookH.List)
	books.POST("", authMW, tutorOrAdmin, bookH.Upload)
	books.POST("/:id/approve", authMW, adminOnly, bookH.Approve)
	books.DELETE("/:id", authMW, bookH.Delete)

	lectures := api.Group("/lectures")
	lectures.GET("", lectureH.List)
	lectures.GET("/:id", lectureH.Get)
	lectures.POST("", authMW, tutorOrAdmin, lectureH.Create)
	lectures.PUT("/:id", authMW, tutorOrAdmin, lectureH.Update)
	lectures.DELETE("/:id", authMW, adminOnly, lectureH.Delete)

	groups := api.Group("/groups")
	groups.GET("", groupH.List)
	groups.GET("/:id", groupH.Get)
	groups.POST("", authMW, tutorOrAdmin, groupH.Create)
	groups.PUT("/:id", authMW, tutorOrAdmin, groupH.Update)
	groups.DELETE("/:id", authMW, adminOnly, groupH.Delete)
	groups.POST("/:id/join", authMW, groupH.Join)

	// Archivos de libros subidos.
	r.Static("/books", uploadDir)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// corsMiddleware habilita CORS para cualquier origen.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
