package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appprovisioning "github.com/sitesync/agent/internal/application/provisioning"
	"github.com/sitesync/agent/internal/interfaces/http/dto"
	"github.com/sitesync/agent/internal/interfaces/http/middleware"
)

// MembershipHandler exposes project membership operations over HTTP
type MembershipHandler struct {
	BaseHandler
	membership *appprovisioning.MembershipService
	log        *zap.Logger
}

// NewMembershipHandler creates a new MembershipHandler
func NewMembershipHandler(membership *appprovisioning.MembershipService, log *zap.Logger) *MembershipHandler {
	return &MembershipHandler{
		membership: membership,
		log:        log.Named("http.membership"),
	}
}

// RegisterRoutes registers membership routes
func (h *MembershipHandler) RegisterRoutes(rg *gin.RouterGroup) {
	users := rg.Group("/resources/:id/users")
	{
		users.GET("", h.List)
		users.POST("", h.Add)
		users.POST("/remove", h.Remove)
	}
}

// Add grants the default role to the listed users on a resource
func (h *MembershipHandler) Add(c *gin.Context) {
	var req dto.MembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	backendID := c.Param("id")
	added, err := h.membership.AddUsers(c.Request.Context(), backendID, req.Usernames)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.MembershipResponse{BackendID: backendID, Usernames: added})
}

// Remove revokes all roles the listed users hold on a resource
func (h *MembershipHandler) Remove(c *gin.Context) {
	var req dto.MembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	backendID := c.Param("id")
	removed, err := h.membership.RemoveUsers(c.Request.Context(), backendID, req.Usernames)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.MembershipResponse{BackendID: backendID, Usernames: removed})
}

// List returns the usernames holding any role on a resource
func (h *MembershipHandler) List(c *gin.Context) {
	backendID := c.Param("id")
	usernames, err := h.membership.ListResourceUsers(c.Request.Context(), backendID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.MembershipResponse{BackendID: backendID, Usernames: usernames})
}
