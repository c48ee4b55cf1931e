package api

import (
	"github.com/gofiber/fiber/v2"

	"crewbox/gateway"
	"crewbox/models"
	"crewbox/utils"
)

// CurrentUser extracts the acting user set by the auth middleware
func CurrentUser(c *fiber.Ctx) (models.DirectoryUser, error) {
	id, _ := c.Locals("userID").(string)
	if id == "" {
		return models.DirectoryUser{}, utils.UnauthorizedError("User not authenticated", nil)
	}
	name, _ := c.Locals("userName").(string)
	email, _ := c.Locals("userEmail").(string)
	return models.DirectoryUser{ID: id, Name: name, Email: email}, nil
}

// CurrentRole returns the acting user's role, defaulting to "member"
func CurrentRole(c *fiber.Ctx) string {
	role, _ := c.Locals("userRole").(string)
	if role == "" {
		role = "member"
	}
	return role
}

// gatewayError maps the gateway error taxonomy onto HTTP responses for
// direct user actions.
func gatewayError(message string, err error) *utils.AppError {
	switch {
	case gateway.IsValidation(err):
		return utils.BadRequestError(message, err)
	case gateway.IsNotFound(err):
		return utils.NotFoundError(message, err)
	default:
		return utils.BadGatewayError(message, err)
	}
}

// parseFilters reads the listing filter set from query parameters
func parseFilters(c *fiber.Ctx) models.Filters {
	filters := models.Filters{
		AccountEmail: c.Query("account"),
		Status:       c.Query("status"),
		Priority:     c.Query("priority"),
		Owner:        c.Query("owner"),
		Label:        c.Query("label"),
		Query:        c.Query("q"),
	}
	if unread := c.Query("unread"); unread != "" {
		v := unread == "true" || unread == "1"
		filters.Unread = &v
	}
	return filters
}
