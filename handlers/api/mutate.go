package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"crewbox/gateway"
	"crewbox/inbox"
	"crewbox/models"
	"crewbox/utils"
)

// MutateHandler serves the optimistic mutation endpoints. Every endpoint
// returns the updated record immediately with the affected field pending;
// confirmation arrives over the event stream.
type MutateHandler struct {
	engine *inbox.Engine
	logger *utils.Logger
}

// NewMutateHandler creates a mutation handler
func NewMutateHandler(engine *inbox.Engine, logger *utils.Logger) *MutateHandler {
	return &MutateHandler{engine: engine, logger: logger}
}

type readRequest struct {
	Read bool `json:"read"`
}

// HandleSetRead toggles a record's read flag
func (h *MutateHandler) HandleSetRead(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}

	var req readRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequestError("Invalid request", err)
	}

	rec, err := h.engine.SetRead(c.Params("id"), req.Read, user.ID)
	if err != nil {
		return mutationError(err)
	}

	return c.JSON(fiber.Map{"success": true, "record": rec})
}

type starRequest struct {
	Starred bool `json:"starred"`
}

// HandleSetStarred toggles a record's star
func (h *MutateHandler) HandleSetStarred(c *fiber.Ctx) error {
	if _, err := CurrentUser(c); err != nil {
		return err
	}

	var req starRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequestError("Invalid request", err)
	}

	rec, err := h.engine.SetStarred(c.Params("id"), req.Starred)
	if err != nil {
		return mutationError(err)
	}

	return c.JSON(fiber.Map{"success": true, "record": rec})
}

// HandleUpdateLabels applies a label add/remove delta
func (h *MutateHandler) HandleUpdateLabels(c *fiber.Ctx) error {
	if _, err := CurrentUser(c); err != nil {
		return err
	}

	var delta models.LabelDelta
	if err := c.BodyParser(&delta); err != nil {
		return utils.BadRequestError("Invalid request", err)
	}

	rec, err := h.engine.ApplyLabelDelta(c.Params("id"), delta)
	if err != nil {
		return mutationError(err)
	}

	return c.JSON(fiber.Map{"success": true, "record": rec})
}

// HandleUpdateMetadata changes priority, thread status and/or owner
func (h *MutateHandler) HandleUpdateMetadata(c *fiber.Ctx) error {
	if _, err := CurrentUser(c); err != nil {
		return err
	}

	var changes gateway.MetadataChanges
	if err := c.BodyParser(&changes); err != nil {
		return utils.BadRequestError("Invalid request", err)
	}

	rec, err := h.engine.UpdateMetadata(c.Params("id"), changes)
	if err != nil {
		return mutationError(err)
	}

	return c.JSON(fiber.Map{"success": true, "record": rec})
}

type retryRequest struct {
	Field string `json:"field"`
}

// HandleRetry re-dispatches a failed mutation for one field
func (h *MutateHandler) HandleRetry(c *fiber.Ctx) error {
	if _, err := CurrentUser(c); err != nil {
		return err
	}

	var req retryRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequestError("Invalid request", err)
	}

	var field models.SyncField
	switch req.Field {
	case string(models.FieldRead), string(models.FieldStarred),
		string(models.FieldLabels), string(models.FieldMetadata):
		field = models.SyncField(req.Field)
	default:
		return utils.BadRequestError("Unknown sync field", nil)
	}

	rec, err := h.engine.Retry(c.Params("id"), field)
	if err != nil {
		return mutationError(err)
	}

	return c.JSON(fiber.Map{"success": true, "record": rec})
}

// mutationError maps engine errors onto HTTP responses. Validation failures
// surface immediately here; transport failures never reach this path — they
// land asynchronously as failed sync status.
func mutationError(err error) *utils.AppError {
	switch {
	case errors.Is(err, inbox.ErrRecordNotFound):
		return utils.NotFoundError("Email not found", err)
	case errors.Is(err, inbox.ErrNothingToRetry):
		return utils.BadRequestError("Nothing to retry for this field", err)
	default:
		return utils.BadRequestError("Invalid mutation", err)
	}
}
