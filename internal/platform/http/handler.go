package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/daycare-sub-backend/internal/auth"
	"github.com/nekogravitycat/daycare-sub-backend/internal/organization"
	orgHttp "github.com/nekogravitycat/daycare-sub-backend/internal/organization/http"
	"github.com/nekogravitycat/daycare-sub-backend/internal/pkg/response"
	"github.com/nekogravitycat/daycare-sub-backend/internal/platform"
)

type PlatformHandler struct {
	service platform.Service
}

func NewHandler(service platform.Service) *PlatformHandler {
	return &PlatformHandler{service: service}
}

// CreateOrganization creates an organization with the caller as its admin.
// Access Control: Platform Admin only.
func (h *PlatformHandler) CreateOrganization(c *gin.Context) {
	var req CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid JSON body")
		return
	}

	org, err := h.service.CreateOrganization(c.Request.Context(), auth.GetUserID(c), req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, CreateOrganizationResponse{
		OK:           true,
		Organization: OrganizationBrief{ID: org.ID, Name: org.Name},
	})
}

// Invite provisions a member and emails them an invite link.
// Access Control: Platform Admin only.
func (h *PlatformHandler) Invite(c *gin.Context) {
	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid JSON body")
		return
	}

	userID, err := h.service.Invite(c.Request.Context(), platform.InviteRequest{
		Email:          req.Email,
		OrganizationID: req.OrganizationID,
		Role:           req.Role,
		RedirectTo:     req.RedirectTo,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, InviteResponse{OK: true, InvitedUserID: userID})
}

// ListOrganizations lists every organization.
// Access Control: Platform Admin only.
func (h *PlatformHandler) ListOrganizations(c *gin.Context) {
	var req ListOrganizationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}
	req.Normalize()

	orgs, total, err := h.service.ListOrganizations(c.Request.Context(), organization.OrganizationFilter{
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]orgHttp.OrganizationResponse, len(orgs))
	for i, o := range orgs {
		items[i] = orgHttp.NewOrganizationResponse(o)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}
