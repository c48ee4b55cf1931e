package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"crewbox/inbox"
	"crewbox/utils"
)

// LabelHandler serves the per-account label catalog
type LabelHandler struct {
	catalog *inbox.Catalog
	logger  *utils.Logger
}

// NewLabelHandler creates a label handler
func NewLabelHandler(catalog *inbox.Catalog, logger *utils.Logger) *LabelHandler {
	return &LabelHandler{catalog: catalog, logger: logger}
}

// HandleListLabels returns the acting user's label catalog
func (h *LabelHandler) HandleListLabels(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}

	labels, err := h.catalog.Labels(c.Context(), user.ID)
	if err != nil {
		return gatewayError("Failed to load labels", err)
	}

	return c.JSON(fiber.Map{"success": true, "labels": labels})
}

type createLabelRequest struct {
	AccountEmail string `json:"account_email"`
	Name         string `json:"name"`
}

// HandleCreateLabel creates a user label on one connected account
func (h *LabelHandler) HandleCreateLabel(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}

	var req createLabelRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequestError("Invalid request", err)
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.AccountEmail == "" {
		return utils.BadRequestError("Label name and account are required", nil)
	}

	label, err := h.catalog.Create(c.Context(), user.ID, req.AccountEmail, req.Name)
	if err != nil {
		return gatewayError("Failed to create label", err)
	}

	return c.Status(201).JSON(fiber.Map{"success": true, "label": label})
}
