package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"groupmanager/internal/apperror"
	"groupmanager/internal/metrics"
	"groupmanager/internal/middleware"
	"groupmanager/internal/service"
	"groupmanager/pkg/response"
)

// AuthHandler serves login, logout and the current-user endpoint.
type AuthHandler struct {
	authService   service.AuthService
	requireAuth   gin.HandlerFunc
	loginLimit    gin.HandlerFunc
	tokenTTL      time.Duration
	secureCookies bool
}

// AuthOptions carries the middleware and cookie settings of AuthHandler.
type AuthOptions struct {
	RequireAuth   gin.HandlerFunc
	LoginLimit    gin.HandlerFunc // optional
	TokenTTL      time.Duration
	SecureCookies bool
}

func NewAuthHandler(authService service.AuthService, opts AuthOptions) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		requireAuth:   opts.RequireAuth,
		loginLimit:    opts.LoginLimit,
		tokenTTL:      opts.TokenTTL,
		secureCookies: opts.SecureCookies,
	}
}

// RegisterRoutes binds the public login route and the authenticated ones.
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	login := []gin.HandlerFunc{h.Login}
	if h.loginLimit != nil {
		login = append([]gin.HandlerFunc{h.loginLimit}, login...)
	}
	router.POST("/login", login...)
	router.POST("/logout", h.requireAuth, h.Logout)
	router.GET("/me", h.requireAuth, h.Me)
}

// Login handles POST /api/login
// @Summary      Login user
// @Description  Authenticates by e-mail and password, returning a JWT and setting it as an HttpOnly cookie
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest  true  "Login Credentials"
// @Success      200      {object}  response.Response{data=service.TokenResponse}
// @Failure      401      {object}  response.ErrorBody
// @Failure      422      {object}  response.ErrorBody
// @Failure      429      {object}  response.ErrorBody
// @Router       /api/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		var ue *apperror.UnauthenticatedError
		if errors.As(err, &ue) {
			metrics.LoginAttemptsTotal.WithLabelValues("invalid").Inc()
		}
		respondError(c, err)
		return
	}
	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()

	middleware.SetTokenCookie(c, res.Token, h.tokenTTL, h.secureCookies)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// Logout handles POST /api/logout
// @Summary      Logout
// @Description  Revokes the current token and clears the auth cookie
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      401  {object}  response.ErrorBody
// @Router       /api/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(service.MsgInvalidToken))
		return
	}
	if err := h.authService.Logout(c.Request.Context(), claims); err != nil {
		respondError(c, err)
		return
	}

	middleware.ClearTokenCookie(c, h.secureCookies)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Logout realizado com sucesso."))
}

// Me handles GET /api/me
// @Summary      Get current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.UserResponse}
// @Failure      401  {object}  response.ErrorBody
// @Failure      404  {object}  response.ErrorBody
// @Router       /api/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	user, err := h.authService.Me(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}
