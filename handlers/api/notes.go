package api

import (
	"github.com/gofiber/fiber/v2"

	"crewbox/notes"
	"crewbox/utils"
)

// NoteHandler serves internal discussion notes and mention notifications
type NoteHandler struct {
	service *notes.Service
	logger  *utils.Logger
}

// NewNoteHandler creates a note handler
func NewNoteHandler(service *notes.Service, logger *utils.Logger) *NoteHandler {
	return &NoteHandler{service: service, logger: logger}
}

type createNoteRequest struct {
	Message string `json:"message"`
	Image   string `json:"image,omitempty"`
}

// HandleCreateNote adds a note to an email record and dispatches mention
// notifications.
func (h *NoteHandler) HandleCreateNote(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}

	var req createNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequestError("Invalid request", err)
	}

	note, err := h.service.Create(c.Context(), c.Params("id"), user, req.Message, req.Image)
	if err != nil {
		return utils.BadRequestError("Failed to create note", err)
	}

	return c.Status(201).JSON(fiber.Map{"success": true, "note": note})
}

// HandleListNotes returns an email record's notes, newest first
func (h *NoteHandler) HandleListNotes(c *fiber.Ctx) error {
	if _, err := CurrentUser(c); err != nil {
		return err
	}

	list, err := h.service.List(c.Params("id"))
	if err != nil {
		return utils.InternalServerError("Failed to load notes", err)
	}

	return c.JSON(fiber.Map{"success": true, "notes": list})
}

// HandleDeleteNote deletes a note; only its author or an admin may
func (h *NoteHandler) HandleDeleteNote(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Params("id"), c.Params("noteId"), user.ID, CurrentRole(c)); err != nil {
		return utils.ForbiddenError("Failed to delete note", err)
	}

	return c.JSON(fiber.Map{"success": true})
}

// HandleListNotifications returns the acting user's mention notifications
func (h *NoteHandler) HandleListNotifications(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}

	list, err := h.service.Notifications(user.ID)
	if err != nil {
		return utils.InternalServerError("Failed to load notifications", err)
	}

	return c.JSON(fiber.Map{"success": true, "notifications": list})
}

// HandleMarkNotificationSeen marks one notification as seen
func (h *NoteHandler) HandleMarkNotificationSeen(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}

	if err := h.service.MarkNotificationSeen(user.ID, c.Params("id")); err != nil {
		return utils.NotFoundError("Notification not found", err)
	}

	return c.JSON(fiber.Map{"success": true})
}
