package api

import (
	"github.com/gofiber/fiber/v2"

	"crewbox/gateway"
	"crewbox/utils"
)

// AccountHandler serves the connected mailbox accounts
type AccountHandler struct {
	gw     gateway.MailGateway
	logger *utils.Logger
}

// NewAccountHandler creates an account handler
func NewAccountHandler(gw gateway.MailGateway, logger *utils.Logger) *AccountHandler {
	return &AccountHandler{gw: gw, logger: logger}
}

// HandleListAccounts lists connected accounts, deduplicated on the
// (email, owner) pair, with ownership computed against the acting user.
func (h *AccountHandler) HandleListAccounts(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}

	accounts, err := h.gw.ListConnectedAccounts(c.Context(), user.ID)
	if err != nil {
		return gatewayError("Failed to load accounts", err)
	}

	seen := make(map[string]bool, len(accounts))
	deduped := accounts[:0]
	for _, acc := range accounts {
		key := acc.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		acc.IsOwn = acc.OwnerID == user.ID
		deduped = append(deduped, acc)
	}

	return c.JSON(fiber.Map{"success": true, "accounts": deduped})
}

type disconnectRequest struct {
	AccountEmail string `json:"account_email"`
}

// HandleDisconnectAccount disconnects one of the acting user's own accounts
func (h *AccountHandler) HandleDisconnectAccount(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}

	var req disconnectRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequestError("Invalid request", err)
	}
	if req.AccountEmail == "" {
		return utils.BadRequestError("Account email is required", nil)
	}

	accounts, err := h.gw.ListConnectedAccounts(c.Context(), user.ID)
	if err != nil {
		return gatewayError("Failed to load accounts", err)
	}

	owned := false
	for _, acc := range accounts {
		if acc.Email == req.AccountEmail && acc.OwnerID == user.ID {
			owned = true
			break
		}
	}
	if !owned {
		return utils.ForbiddenError("Only the account owner may disconnect it", nil)
	}

	if err := h.gw.DisconnectAccount(c.Context(), user.ID, req.AccountEmail); err != nil {
		return gatewayError("Failed to disconnect account", err)
	}

	h.logger.Info("Account %s disconnected by %s", req.AccountEmail, user.ID)
	return c.JSON(fiber.Map{"success": true})
}
