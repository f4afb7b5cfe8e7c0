package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"groupmanager/internal/apperror"
	"groupmanager/internal/metrics"
	"groupmanager/internal/middleware"
	"groupmanager/internal/policy"
	"groupmanager/internal/validation"
	"groupmanager/pkg/logger"
	"groupmanager/pkg/response"
)

// respondError maps the error taxonomy onto status codes. Anything it does
// not recognise is logged and answered with a generic 500.
func respondError(c *gin.Context, err error) {
	var (
		ve *apperror.ValidationError
		nf *apperror.NotFoundError
		ce *apperror.ConflictError
		ue *apperror.UnauthenticatedError
	)

	switch {
	case errors.As(err, &ve):
		metrics.ValidationFailuresTotal.WithLabelValues(c.FullPath()).Inc()
		c.JSON(http.StatusUnprocessableEntity, response.FieldErrors(ve.Errors))
	case policy.IsUnauthorized(err):
		c.JSON(http.StatusForbidden, response.Error(policy.UnauthorizedMessage))
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, response.Error(nf.Error()))
	case errors.As(err, &ce):
		c.JSON(http.StatusConflict, response.Error(ce.Error()))
	case errors.As(err, &ue):
		c.JSON(http.StatusUnauthorized, response.Error(ue.Message))
	default:
		log := logger.Get()
		log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
		c.JSON(http.StatusInternalServerError, response.Error("internal server error"))
	}
}

// bindJSON binds the body into obj and answers 422 on a malformed payload.
func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		respondError(c, validation.FromBindError(err))
		return false
	}
	return true
}

// principal returns the authenticated caller, answering 401 when the route
// was mounted without RequireAuth.
func principal(c *gin.Context) (policy.Principal, bool) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Token de acesso não informado."))
	}
	return p, ok
}
