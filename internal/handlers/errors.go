package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/furnihome/furnihome-backend/internal/errordata"
	"github.com/furnihome/furnihome-backend/internal/types"
)

// statusFor maps an error code to its HTTP status.
func statusFor(code string) int {
	switch code {
	case errordata.CodeNotFound:
		return http.StatusNotFound
	case errordata.CodeBlocked, errordata.CodeMaxAttemptsReached:
		return http.StatusTooManyRequests
	case errordata.CodeEmailTaken, errordata.CodeConflict:
		return http.StatusConflict
	case errordata.CodeInvalidCredentials, errordata.CodeUnauthorized:
		return http.StatusUnauthorized
	case errordata.CodeAccountNotVerified, errordata.CodeForbidden:
		return http.StatusForbidden
	case errordata.CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// respondError writes {"error": {code, message, field}}. Errors outside the
// taxonomy are attached to the gin context for logging and reported as a
// generic internal error.
func respondError(c *gin.Context, err error) {
	var appErr *errordata.AppError
	if !errors.As(err, &appErr) || appErr.Code == errordata.CodeInternal {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"code":    errordata.CodeInternal,
			"message": "internal server error",
		}})
		return
	}
	body := gin.H{"code": appErr.Code, "message": appErr.Message}
	if appErr.Field != "" {
		body["field"] = appErr.Field
	}
	c.AbortWithStatusJSON(statusFor(appErr.Code), gin.H{"error": body})
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var appErr *errordata.AppError
		if errors.As(err, &appErr) {
			respondError(c, appErr)
			return false
		}
		respondError(c, errordata.NewValidation("", "invalid request body"))
		return false
	}
	return true
}

// pageFromQuery reads page and page_size. Non-numeric values are rejected.
func pageFromQuery(c *gin.Context) (types.Page, bool) {
	number, ok := intQuery(c, "page", 1)
	if !ok {
		return types.Page{}, false
	}
	size, ok := intQuery(c, "page_size", types.DefaultPageSize)
	if !ok {
		return types.Page{}, false
	}
	return types.NewPage(number, size), true
}

func intQuery(c *gin.Context, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		respondError(c, errordata.NewValidation(key, key+" must be an integer"))
		return 0, false
	}
	return v, true
}

func floatQuery(c *gin.Context, key string) (*float64, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		respondError(c, errordata.NewValidation(key, key+" must be a number"))
		return nil, false
	}
	return &v, true
}
