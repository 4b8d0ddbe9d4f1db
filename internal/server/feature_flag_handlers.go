package server

import (
	"freebies/internal/featureflags"

	"github.com/gofiber/fiber/v2"
)

// FeatureFlagsResponse is the configured rules and their outcome for the caller.
type FeatureFlagsResponse struct {
	Raw       map[string]string `json:"raw"`
	Evaluated map[string]bool   `json:"evaluated"`
	Known     []string          `json:"known"`
}

// GetFeatureFlags godoc
// @Summary Feature flags evaluated for the caller
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} FeatureFlagsResponse
// @Router /admin/feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	resp := FeatureFlagsResponse{
		Raw:       map[string]string{},
		Evaluated: map[string]bool{},
		Known:     featureflags.Known,
	}
	if s.featureFlags != nil {
		resp.Raw = s.featureFlags.Raw()
		resp.Evaluated = s.featureFlags.Snapshot(currentUserID(c))
	}
	return c.JSON(resp)
}
