package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/furnihome/furnihome-backend/internal/errordata"
	"github.com/furnihome/furnihome-backend/internal/logger"
	"github.com/furnihome/furnihome-backend/internal/repos"
	"github.com/furnihome/furnihome-backend/internal/requestdata"
	"github.com/furnihome/furnihome-backend/internal/services"
)

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
	roleRepo    repos.RoleRepo
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService, roleRepo repos.RoleRepo) *AuthMiddleware {
	middlewareLogger := log.With("middleware", "AuthMiddleware")
	return &AuthMiddleware{log: middlewareLogger, authService: authService, roleRepo: roleRepo}
}

// RequireAuth rejects requests without a live access token.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !am.authenticate(c, true) {
			return
		}
		c.Next()
	}
}

// OptionalAuth attaches the caller when a valid token is present and lets
// anonymous requests through.
func (am *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		am.authenticate(c, false)
		c.Next()
	}
}

func (am *AuthMiddleware) authenticate(c *gin.Context, required bool) bool {
	tokenString := extractToken(c)
	if tokenString == "" {
		if required {
			abortWithError(c, errordata.ErrUnauthorized)
		}
		return !required
	}
	ctx, err := am.authService.SetContextFromToken(c.Request.Context(), tokenString)
	if err != nil {
		if errordata.CodeOf(err) != errordata.CodeUnauthorized {
			am.log.Error("Token lookup failed", "error", err)
			abortWithError(c, err)
			return false
		}
		if required {
			am.log.Debug("Rejected access token", "error", err)
			abortWithError(c, errordata.ErrUnauthorized)
			return false
		}
		return true
	}
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		if required {
			abortWithError(c, errordata.ErrUnauthorized)
			return false
		}
		return true
	}
	c.Request = c.Request.WithContext(ctx)
	return true
}

// RequirePermission authenticates and then checks the caller's role for
// permission, matched by name or permission type.
func (am *AuthMiddleware) RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !am.authenticate(c, true) {
			return
		}
		ctx := c.Request.Context()
		rd := requestdata.GetRequestData(ctx)
		if rd.RoleID == uuid.Nil {
			abortWithError(c, errordata.ErrForbidden)
			return
		}
		roles, err := am.roleRepo.GetByIDs(ctx, nil, []uuid.UUID{rd.RoleID})
		if err != nil {
			am.log.Error("Failed to load role", "roleID", rd.RoleID, "error", err)
			abortWithError(c, err)
			return
		}
		if len(roles) == 0 {
			abortWithError(c, errordata.ErrForbidden)
			return
		}
		for _, pm := range roles[0].Permissions {
			if pm.Name == permission || pm.PermissionType == permission {
				c.Next()
				return
			}
		}
		am.log.Info("Permission denied", "userID", rd.UserID, "permission", permission)
		abortWithError(c, errordata.ErrForbidden)
	}
}

// extractToken reads a Bearer header, falling back to ?token= for
// websocket clients that cannot set headers.
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return c.Query("token")
}

func abortWithError(c *gin.Context, err error) {
	var appErr *errordata.AppError
	if !errors.As(err, &appErr) || appErr.Code == errordata.CodeInternal {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"code":    errordata.CodeInternal,
			"message": "internal server error",
		}})
		return
	}
	status := http.StatusUnauthorized
	if appErr.Code == errordata.CodeForbidden {
		status = http.StatusForbidden
	}
	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"code": appErr.Code, "message": appErr.Message}})
}
