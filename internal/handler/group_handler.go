package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"groupmanager/internal/service"
	"groupmanager/pkg/pagination"
	"groupmanager/pkg/response"
)

type GroupHandler struct {
	groupService service.GroupService
}

func NewGroupHandler(groupService service.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

// RegisterRoutes binds the group endpoints to an authenticated RouterGroup
func (h *GroupHandler) RegisterRoutes(router *gin.RouterGroup) {
	groups := router.Group("/group")
	{
		groups.GET("", h.ListGroups)
		groups.POST("", h.CreateGroup)
		groups.GET("/:id", h.GetGroup)
		groups.PUT("/:id", h.UpdateGroup)
		groups.DELETE("/:id", h.DeleteGroup)
	}
}

// ListGroups handles GET /api/group
// @Summary      List groups
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        creator_user_id  query     string  false  "Creator user ID"
// @Param        status           query     string  false  "EM ANDAMENTO or FINALIZADO"
// @Param        page             query     int     false  "Page number (default 1)"
// @Param        limit            query     int     false  "Items per page (default 20)"
// @Success      200  {object}  response.Response{data=[]service.GroupResponse}
// @Failure      403  {object}  response.ErrorBody
// @Router       /api/group [get]
func (h *GroupHandler) ListGroups(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	params := pagination.Parse(c)

	groups, total, err := h.groupService.ListGroups(c.Request.Context(), p, service.GroupListQuery{
		CreatorUserID: c.Query("creator_user_id"),
		Status:        c.Query("status"),
		Page:          params.Page,
		Limit:         params.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, groups, params.Page, params.Limit, total))
}

// GetGroup handles GET /api/group/:id
// @Summary      Get group
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Group ID"
// @Success      200  {object}  response.Response{data=service.GroupResponse}
// @Failure      404  {object}  response.ErrorBody
// @Router       /api/group/{id} [get]
func (h *GroupHandler) GetGroup(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	group, err := h.groupService.GetGroup(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, group))
}

// CreateGroup handles POST /api/group
// @Summary      Create group
// @Description  Managers only. A representative e-mail that matches no user receives a registration e-mail
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.GroupRequest  true  "Group"
// @Success      201      {object}  response.Response{data=service.GroupResponse}
// @Failure      403      {object}  response.ErrorBody
// @Failure      422      {object}  response.ErrorBody
// @Router       /api/group [post]
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req service.GroupRequest
	if !bindJSON(c, &req) {
		return
	}

	group, err := h.groupService.CreateGroup(c.Request.Context(), p, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, group))
}

// UpdateGroup handles PUT /api/group/:id
// @Summary      Update group
// @Description  Only the manager who created the group
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                true  "Group ID"
// @Param        payload  body      service.GroupRequest  true  "Group"
// @Success      200      {object}  response.Response{data=service.GroupResponse}
// @Failure      403      {object}  response.ErrorBody
// @Failure      404      {object}  response.ErrorBody
// @Failure      422      {object}  response.ErrorBody
// @Router       /api/group/{id} [put]
func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req service.GroupRequest
	if !bindJSON(c, &req) {
		return
	}

	group, err := h.groupService.UpdateGroup(c.Request.Context(), p, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, group))
}

// DeleteGroup handles DELETE /api/group/:id
// @Summary      Delete group
// @Tags         groups
// @Security     BearerAuth
// @Param        id   path      string  true  "Group ID"
// @Success      204
// @Failure      403  {object}  response.ErrorBody
// @Failure      404  {object}  response.ErrorBody
// @Router       /api/group/{id} [delete]
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if err := h.groupService.DeleteGroup(c.Request.Context(), p, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
