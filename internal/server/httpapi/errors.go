package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/gin-gonic/gin"
)

var errMissingBearer = errors.New("missing bearer token")

type errorMapping struct {
	err    error
	status int
}

// Order matters: the first sentinel found in the chain wins.
var errorTable = []errorMapping{
	{common.ErrValidation, http.StatusBadRequest},
	{common.ErrDuplicateIdentity, http.StatusBadRequest},
	{common.ErrDuplicateProduct, http.StatusBadRequest},
	{common.ErrWrongTokenKind, http.StatusBadRequest},
	{errMissingBearer, http.StatusUnauthorized},
	{common.ErrInvalidCredentials, http.StatusUnauthorized},
	{common.ErrTokenExpired, http.StatusUnauthorized},
	{common.ErrTokenInvalid, http.StatusUnauthorized},
	{common.ErrForbidden, http.StatusForbidden},
	{common.ErrNotFound, http.StatusNotFound},
}

// statusFor maps a service error to its HTTP status and client message.
// Validation errors keep their detail; other known errors are reduced to the
// sentinel text; everything else becomes a bare 500.
func statusFor(err error) (int, string) {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			if m.err == common.ErrValidation {
				return m.status, err.Error()
			}
			return m.status, m.err.Error()
		}
	}
	return http.StatusInternalServerError, "internal server error"
}

func (s *Server) writeError(c *gin.Context, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error(c.Request.Context(), "request failed",
			"request_id", c.GetString(requestIDKey),
			"path", c.FullPath(),
			"error", err.Error(),
		)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
