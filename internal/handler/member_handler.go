package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"groupmanager/internal/service"
	"groupmanager/pkg/pagination"
	"groupmanager/pkg/response"
)

type MemberHandler struct {
	memberService service.MemberService
}

func NewMemberHandler(memberService service.MemberService) *MemberHandler {
	return &MemberHandler{memberService: memberService}
}

// RegisterRoutes nests the member endpoints under /group/:id
func (h *MemberHandler) RegisterRoutes(router *gin.RouterGroup) {
	members := router.Group("/group/:id/members")
	{
		members.GET("", h.ListMembers)
		members.POST("", h.CreateMembers)
		members.PUT("/:memberId", h.UpdateMember)
		members.DELETE("/:memberId", h.DeleteMember)
	}
}

// ListMembers handles GET /api/group/:id/members
// @Summary      List members of a group
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string  true   "Group ID"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Items per page (default 20)"
// @Success      200  {object}  response.Response{data=[]service.MemberResponse}
// @Failure      404  {object}  response.ErrorBody
// @Router       /api/group/{id}/members [get]
func (h *MemberHandler) ListMembers(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	params := pagination.Parse(c)

	members, total, err := h.memberService.ListMembers(c.Request.Context(), p, c.Param("id"), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, members, params.Page, params.Limit, total))
}

// CreateMembers handles POST /api/group/:id/members
// @Summary      Add members to a group
// @Description  All-or-nothing batch. Unregistered e-mails receive a registration e-mail
// @Tags         members
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true  "Group ID"
// @Param        payload  body      service.CreateMembersRequest  true  "Members"
// @Success      201      {object}  response.Response{data=[]service.MemberResponse}
// @Failure      403      {object}  response.ErrorBody
// @Failure      404      {object}  response.ErrorBody
// @Failure      422      {object}  response.ErrorBody
// @Router       /api/group/{id}/members [post]
func (h *MemberHandler) CreateMembers(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req service.CreateMembersRequest
	if !bindJSON(c, &req) {
		return
	}

	members, err := h.memberService.CreateMembers(c.Request.Context(), p, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, members))
}

// UpdateMember handles PUT /api/group/:id/members/:memberId
// @Summary      Edit a member
// @Description  Only role, phone, entry_date and departure_date can change
// @Tags         members
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id        path      string                       true  "Group ID"
// @Param        memberId  path      string                       true  "Member ID"
// @Param        payload   body      service.UpdateMemberRequest  true  "Fields"
// @Success      200       {object}  response.Response{data=service.MemberResponse}
// @Failure      403       {object}  response.ErrorBody
// @Failure      404       {object}  response.ErrorBody
// @Failure      422       {object}  response.ErrorBody
// @Router       /api/group/{id}/members/{memberId} [put]
func (h *MemberHandler) UpdateMember(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req service.UpdateMemberRequest
	if !bindJSON(c, &req) {
		return
	}

	member, err := h.memberService.UpdateMember(c.Request.Context(), p, c.Param("id"), c.Param("memberId"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, member))
}

// DeleteMember handles DELETE /api/group/:id/members/:memberId
// @Summary      Remove a member from a group
// @Tags         members
// @Security     BearerAuth
// @Param        id        path  string  true  "Group ID"
// @Param        memberId  path  string  true  "Member ID"
// @Success      204
// @Failure      403  {object}  response.ErrorBody
// @Failure      404  {object}  response.ErrorBody
// @Router       /api/group/{id}/members/{memberId} [delete]
func (h *MemberHandler) DeleteMember(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if err := h.memberService.DeleteMember(c.Request.Context(), p, c.Param("id"), c.Param("memberId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
