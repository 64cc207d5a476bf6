package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/daycare-sub-backend/internal/auth"
	"github.com/nekogravitycat/daycare-sub-backend/internal/organization"
	"github.com/nekogravitycat/daycare-sub-backend/internal/pkg/request"
	"github.com/nekogravitycat/daycare-sub-backend/internal/pkg/response"
)

type OrganizationHandler struct {
	service organization.Service
}

func NewHandler(service organization.Service) *OrganizationHandler {
	return &OrganizationHandler{service: service}
}

// List retrieves the organizations visible to the caller.
// Platform admins see every organization; others see their memberships.
func (h *OrganizationHandler) List(c *gin.Context) {
	var req ListOrganizationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}
	req.Normalize()

	filter := organization.OrganizationFilter{
		Page:     req.Page,
		PageSize: req.PageSize,
	}

	orgs, total, err := h.service.ListForUser(c.Request.Context(), auth.GetUserID(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]OrganizationResponse, len(orgs))
	for i, o := range orgs {
		items[i] = NewOrganizationResponse(o)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

// Get retrieves one organization the caller belongs to, along with the
// caller's role in it.
func (h *OrganizationHandler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	ctx := c.Request.Context()
	role, err := h.service.RequireMember(ctx, req.ID, auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	org, err := h.service.GetByID(ctx, req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, OrganizationDetailResponse{
		OrganizationResponse: NewOrganizationResponse(org),
		MyRole:               string(role),
	})
}

// ListMembers lists the members of an organization.
// Access Control: admins, managers and platform admins.
func (h *OrganizationHandler) ListMembers(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var req ListMembersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}
	req.Normalize()

	ctx := c.Request.Context()
	if _, err := h.service.RequireManager(ctx, uri.ID, auth.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}

	filter := organization.MemberFilter{
		Role:     organization.Role(req.Role),
		Page:     req.Page,
		PageSize: req.PageSize,
	}

	members, total, err := h.service.ListMembers(ctx, uri.ID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]MemberResponse, len(members))
	for i, m := range members {
		items[i] = NewMemberResponse(m)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}
