package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"groupmanager/internal/service"
	"groupmanager/pkg/pagination"
	"groupmanager/pkg/response"
)

type UserHandler struct {
	userService service.UserService
}

// NewUserHandler sets up the routing dependencies for User endpoints
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// RegisterRoutes binds the endpoints to an authenticated RouterGroup
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.POST("", h.CreateUser)
		users.GET("/:id", h.GetUser)
		users.PUT("/:id", h.UpdateUser)
		users.DELETE("/:id", h.DeleteUser)
		users.PATCH("/restore/:id", h.RestoreUser)
	}
}

// ListUsers handles GET /api/users
// @Summary      List users
// @Description  Paginated list of users, optionally filtered by name, e-mail and type_user_id
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        name          query     string  false  "Name contains"
// @Param        email         query     string  false  "E-mail contains"
// @Param        type_user_id  query     int     false  "Role key (1-5)"
// @Param        page          query     int     false  "Page number (default 1)"
// @Param        limit         query     int     false  "Items per page (default 20)"
// @Success      200  {object}  response.Response{data=[]service.UserResponse}
// @Failure      401  {object}  response.ErrorBody
// @Failure      403  {object}  response.ErrorBody
// @Router       /api/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	params := pagination.Parse(c)
	typeUserID, _ := strconv.ParseUint(c.Query("type_user_id"), 10, 32)

	users, total, err := h.userService.ListUsers(c.Request.Context(), p, service.UserListQuery{
		Name:       c.Query("name"),
		Email:      c.Query("email"),
		TypeUserID: uint(typeUserID),
		Page:       params.Page,
		Limit:      params.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, users, params.Page, params.Limit, total))
}

// GetUser handles GET /api/users/:id
// @Summary      Get user by ID
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  response.Response{data=service.UserResponse}
// @Failure      404  {object}  response.ErrorBody
// @Router       /api/users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	user, err := h.userService.GetUser(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// CreateUser handles POST /api/users. The body is validated field by field
// so it is bound to a map rather than a struct.
// @Summary      Create a new user
// @Description  Without a password a temporary one is generated and e-mailed to the user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      object  true  "name, email, type_user_id, password (optional)"
// @Success      201      {object}  response.Response{data=service.UserResponse}
// @Failure      403      {object}  response.ErrorBody
// @Failure      422      {object}  response.ErrorBody
// @Router       /api/users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var payload map[string]interface{}
	if !bindJSON(c, &payload) {
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), p, payload)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, user))
}

// UpdateUser handles PUT /api/users/:id
// @Summary      Update user
// @Description  Users may only update themselves; type_user_id cannot be changed
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string  true  "User ID"
// @Param        payload  body      object  true  "name, email, password (all optional)"
// @Success      200      {object}  response.Response{data=service.UserResponse}
// @Failure      403      {object}  response.ErrorBody
// @Failure      404      {object}  response.ErrorBody
// @Failure      422      {object}  response.ErrorBody
// @Router       /api/users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var payload map[string]interface{}
	if !bindJSON(c, &payload) {
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), p, c.Param("id"), payload)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// DeleteUser handles DELETE /api/users/:id
// @Summary      Delete user
// @Description  Soft deletes a user
// @Tags         users
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      204
// @Failure      403  {object}  response.ErrorBody
// @Failure      404  {object}  response.ErrorBody
// @Router       /api/users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if err := h.userService.DeleteUser(c.Request.Context(), p, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RestoreUser handles PATCH /api/users/restore/:id
// @Summary      Restore user
// @Description  Restores a soft-deleted user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  response.Response{data=service.UserResponse}
// @Failure      403  {object}  response.ErrorBody
// @Failure      404  {object}  response.ErrorBody
// @Router       /api/users/restore/{id} [patch]
func (h *UserHandler) RestoreUser(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	user, err := h.userService.RestoreUser(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}
