package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appprovisioning "github.com/sitesync/agent/internal/application/provisioning"
	"github.com/sitesync/agent/internal/domain/provisioning"
	"github.com/sitesync/agent/internal/interfaces/http/dto"
	"github.com/sitesync/agent/internal/interfaces/http/middleware"
)

// ResourceHandler exposes the resource lifecycle over HTTP
type ResourceHandler struct {
	BaseHandler
	resources *appprovisioning.ResourceService
	log       *zap.Logger
}

// NewResourceHandler creates a new ResourceHandler
func NewResourceHandler(resources *appprovisioning.ResourceService, log *zap.Logger) *ResourceHandler {
	return &ResourceHandler{
		resources: resources,
		log:       log.Named("http.resource"),
	}
}

// RegisterRoutes registers resource lifecycle routes
func (h *ResourceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	resources := rg.Group("/resources")
	{
		resources.POST("", h.Create)
		resources.DELETE("", h.Delete)
		resources.POST("/:id/enable", h.Enable)
		resources.POST("/:id/disable", h.Disable)
		resources.POST("/:id/pause", h.Pause)
		resources.POST("/:id/downscale", h.Downscale)
		resources.POST("/:id/restore", h.Restore)
		resources.GET("/:id/metadata", h.Metadata)
	}
	rg.GET("/components", h.Components)
}

// Create provisions a project for the given resource
func (h *ResourceHandler) Create(c *gin.Context) {
	var req dto.CreateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	backendID, err := h.resources.CreateResource(c.Request.Context(), provisioning.ResourceInput{
		ExternalID:  req.ExternalID,
		Name:        req.Name,
		BackendID:   req.BackendID,
		Description: req.Description,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, dto.ResourceResponse{BackendID: backendID})
}

// Delete removes the project backing a resource
func (h *ResourceHandler) Delete(c *gin.Context) {
	var req dto.DeleteResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	err := h.resources.DeleteResource(c.Request.Context(), provisioning.ResourceInput{
		ExternalID: req.ExternalID,
		BackendID:  req.BackendID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Enable re-enables a disabled project
func (h *ResourceHandler) Enable(c *gin.Context) {
	h.setState(c, h.resources.EnableResource)
}

// Disable disables a project without deleting it
func (h *ResourceHandler) Disable(c *gin.Context) {
	h.setState(c, h.resources.DisableResource)
}

// Pause suspends a resource
func (h *ResourceHandler) Pause(c *gin.Context) {
	h.setState(c, h.resources.PauseResource)
}

// Downscale reduces a resource to its minimal footprint
func (h *ResourceHandler) Downscale(c *gin.Context) {
	h.setState(c, h.resources.DownscaleResource)
}

// Restore reverses a pause or downscale
func (h *ResourceHandler) Restore(c *gin.Context) {
	h.setState(c, h.resources.RestoreResource)
}

func (h *ResourceHandler) setState(c *gin.Context, op func(ctx context.Context, backendID string) (bool, error)) {
	backendID := c.Param("id")

	applied, err := op(c.Request.Context(), backendID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.ResourceStateResponse{BackendID: backendID, Applied: applied})
}

// Metadata returns backend metadata for a resource
func (h *ResourceHandler) Metadata(c *gin.Context) {
	backendID := c.Param("id")
	meta := h.resources.GetResourceMetadata(c.Request.Context(), backendID)
	h.Success(c, dto.ResourceMetadataResponse{BackendID: backendID, Metadata: meta})
}

// Components lists the accounting components the agent serves
func (h *ResourceHandler) Components(c *gin.Context) {
	h.Success(c, dto.ComponentsResponse{Components: h.resources.ListComponents()})
}
