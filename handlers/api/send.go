package api

import (
	"github.com/gofiber/fiber/v2"

	"crewbox/gateway"
	"crewbox/utils"
)

// SendHandler passes composed mail through to the gateway. Sends are
// fire-and-forget relative to the reconciliation engine: a failure surfaces
// as a transient error here, never as sync status.
type SendHandler struct {
	gw     gateway.MailGateway
	logger *utils.Logger
}

// NewSendHandler creates a send handler
func NewSendHandler(gw gateway.MailGateway, logger *utils.Logger) *SendHandler {
	return &SendHandler{gw: gw, logger: logger}
}

// HandleSend sends a new email from one of the connected accounts
func (h *SendHandler) HandleSend(c *fiber.Ctx) error {
	if _, err := CurrentUser(c); err != nil {
		return err
	}

	var req gateway.SendRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequestError("Invalid request", err)
	}
	if len(req.To) == 0 || req.AccountEmail == "" {
		return utils.BadRequestError("Recipient and sending account are required", nil)
	}

	if err := h.gw.SendEmail(c.Context(), req); err != nil {
		return gatewayError("Failed to send email", err)
	}

	return c.JSON(fiber.Map{"success": true})
}

// HandleReply replies within an existing conversation
func (h *SendHandler) HandleReply(c *fiber.Ctx) error {
	if _, err := CurrentUser(c); err != nil {
		return err
	}

	var req gateway.ReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequestError("Invalid request", err)
	}
	req.EmailID = c.Params("id")
	if req.Body == "" {
		return utils.BadRequestError("Reply body is required", nil)
	}

	if err := h.gw.ReplyEmail(c.Context(), req); err != nil {
		return gatewayError("Failed to send reply", err)
	}

	return c.JSON(fiber.Map{"success": true})
}

// HandleForward forwards an existing record
func (h *SendHandler) HandleForward(c *fiber.Ctx) error {
	if _, err := CurrentUser(c); err != nil {
		return err
	}

	var req gateway.ForwardRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequestError("Invalid request", err)
	}
	req.EmailID = c.Params("id")
	if len(req.To) == 0 {
		return utils.BadRequestError("Recipient is required", nil)
	}

	if err := h.gw.ForwardEmail(c.Context(), req); err != nil {
		return gatewayError("Failed to forward email", err)
	}

	return c.JSON(fiber.Map{"success": true})
}
