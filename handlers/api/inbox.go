package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/html"

	"crewbox/gateway"
	"crewbox/inbox"
	"crewbox/models"
	"crewbox/utils"
)

const previewLength = 140

// InboxHandler serves the shared inbox listing and record detail
type InboxHandler struct {
	store   *inbox.Store
	cache   *inbox.PageCache
	catalog *inbox.Catalog
	gw      gateway.MailGateway
	logger  *utils.Logger
}

// NewInboxHandler creates an inbox handler
func NewInboxHandler(store *inbox.Store, cache *inbox.PageCache, catalog *inbox.Catalog, gw gateway.MailGateway, logger *utils.Logger) *InboxHandler {
	return &InboxHandler{
		store:   store,
		cache:   cache,
		catalog: catalog,
		gw:      gw,
		logger:  logger,
	}
}

// HandleThreads returns the grouped conversation view for a filter set
func (h *InboxHandler) HandleThreads(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}

	filters := parseFilters(c)
	snap, loadErr := h.cache.Load(c.Context(), user.ID, filters)
	if loadErr != nil && len(snap.Records) == 0 {
		return gatewayError("Failed to load inbox", loadErr)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"threads":  inbox.GroupThreads(snap.Records),
		"has_more": snap.HasMore,
		"total":    snap.Total,
		"error":    snap.Error,
	})
}

// HandleEmails returns the flat record listing for a filter set
func (h *InboxHandler) HandleEmails(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}

	filters := parseFilters(c)
	snap, loadErr := h.cache.Load(c.Context(), user.ID, filters)
	if loadErr != nil && len(snap.Records) == 0 {
		return gatewayError("Failed to load inbox", loadErr)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"records":  snap.Records,
		"has_more": snap.HasMore,
		"total":    snap.Total,
		"error":    snap.Error,
	})
}

// HandleLoadMore fetches the next listing page
func (h *InboxHandler) HandleLoadMore(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}

	filters := parseFilters(c)
	snap, loadErr := h.cache.LoadMore(c.Context(), user.ID, filters)
	if loadErr != nil {
		// Previously loaded pages are preserved; the client may retry
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success":  false,
			"records":  snap.Records,
			"has_more": snap.HasMore,
			"error":    snap.Error,
		})
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"records":  snap.Records,
		"has_more": snap.HasMore,
		"total":    snap.Total,
	})
}

// HandleRefresh refetches the loaded pages in place
func (h *InboxHandler) HandleRefresh(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}

	filters := parseFilters(c)
	snap, refreshErr := h.cache.Refresh(c.Context(), user.ID, filters)
	if refreshErr != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success":  false,
			"records":  snap.Records,
			"has_more": snap.HasMore,
			"error":    snap.Error,
		})
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"records":  snap.Records,
		"has_more": snap.HasMore,
		"total":    snap.Total,
	})
}

// HandleEmailDetail returns one record, lazily fetching its full body on
// first view.
func (h *InboxHandler) HandleEmailDetail(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}

	id := c.Params("id")
	rec, ok := h.store.Get(id)
	if !ok {
		return utils.NotFoundError("Email not found", nil)
	}

	if rec.Body == "" {
		detail, detailErr := h.gw.GetEmailDetail(c.Context(), id, user.ID)
		if detailErr != nil {
			if !gateway.IsNotFound(detailErr) {
				return gatewayError("Failed to load email body", detailErr)
			}
			// Stale reference: serve what we have, the next poll catches up
			h.logger.Debug("Email %s gone remotely, serving cached record", id)
		} else {
			rec, _ = h.store.Update(id, func(r *models.EmailRecord) {
				r.Body = detail.Body
				if r.ProviderThreadID == "" {
					r.ProviderThreadID = detail.ProviderThreadID
				}
				if r.Preview == "" {
					r.Preview = extractPreview(detail.Body)
				}
			})
		}
	}

	labels := h.catalog.Resolve(c.Context(), user.ID, rec.Labels)

	return c.JSON(fiber.Map{
		"success": true,
		"record":  rec,
		"labels":  labels,
	})
}

// extractPreview renders the first text of an HTML body as a short preview
func extractPreview(body string) string {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return utils.TruncateText(strings.TrimSpace(body), previewLength)
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if sb.Len() >= previewLength {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(strings.TrimSpace(n.Data))
			sb.WriteString(" ")
		}
		if n.Type == html.ElementNode && (n.Data == "style" || n.Data == "script") {
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return utils.TruncateText(strings.TrimSpace(sb.String()), previewLength)
}
