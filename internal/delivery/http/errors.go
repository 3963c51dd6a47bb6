package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/RavenLB/E-commerce/internal/entity"
)

var statusByCode = map[entity.Code]int{
	entity.CodeValidation:        http.StatusBadRequest,
	entity.CodeInsufficientStock: http.StatusBadRequest,
	entity.CodeEmptyCart:         http.StatusBadRequest,
	entity.CodeProductMissing:    http.StatusBadRequest,
	entity.CodeInvalidTransition: http.StatusBadRequest,
	entity.CodeUnauthorized:      http.StatusUnauthorized,
	entity.CodeForbidden:         http.StatusForbidden,
	entity.CodeNotFound:          http.StatusNotFound,
	entity.CodeConflict:          http.StatusConflict,
	entity.CodePaymentFailed:     http.StatusBadGateway,
}

// respondError writes err as a JSON body and aborts the chain. Only
// *entity.Error messages reach the caller; anything else is logged and
// answered with a generic 500.
func respondError(c *gin.Context, err error) {
	var e *entity.Error
	status, ok := 0, errors.As(err, &e)
	if ok {
		status, ok = statusByCode[e.Code]
	}
	if !ok {
		slog.Error("Unexpected error", "method", c.Request.Method, "path", c.Request.URL.Path, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "An unexpected error occurred"})
		return
	}

	body := gin.H{"message": e.Message}
	if len(e.Fields) > 0 {
		body["errors"] = e.Fields
	}
	c.AbortWithStatusJSON(status, body)
}

// bindJSON decodes the request body into dst and answers 400 when it is not
// valid JSON.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, &entity.Error{Code: entity.CodeValidation, Message: "Invalid JSON body"})
		return false
	}
	return true
}

// pathID parses a positive numeric path parameter. Anything else names a
// resource that cannot exist, so it is answered with notFound.
func pathID(c *gin.Context, name string, notFound error) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, notFound)
		return 0, false
	}
	return id, true
}
