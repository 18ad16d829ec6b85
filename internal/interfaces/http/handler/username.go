package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appprovisioning "github.com/sitesync/agent/internal/application/provisioning"
	"github.com/sitesync/agent/internal/interfaces/http/dto"
	"github.com/sitesync/agent/internal/interfaces/http/middleware"
)

// UsernameHandler exposes username derivation and lookup over HTTP
type UsernameHandler struct {
	BaseHandler
	usernames *appprovisioning.UsernameService
	log       *zap.Logger
}

// NewUsernameHandler creates a new UsernameHandler
func NewUsernameHandler(usernames *appprovisioning.UsernameService, log *zap.Logger) *UsernameHandler {
	return &UsernameHandler{
		usernames: usernames,
		log:       log.Named("http.username"),
	}
}

// RegisterRoutes registers username routes
func (h *UsernameHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/usernames")
	{
		group.POST("/generate", h.Generate)
		group.GET("/lookup", h.Lookup)
	}
}

// Generate derives a username from an email address
func (h *UsernameHandler) Generate(c *gin.Context) {
	var req dto.GenerateUsernameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	username, err := h.usernames.GenerateUsername(req.Email)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.UsernameResponse{Email: req.Email, Username: username})
}

// Lookup finds an existing identity account by email.
// An absent account yields an empty username, not a 404.
func (h *UsernameHandler) Lookup(c *gin.Context) {
	email := c.Query("email")

	username, err := h.usernames.LookupUsername(c.Request.Context(), email)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.UsernameResponse{Email: email, Username: username})
}
