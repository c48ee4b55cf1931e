package inbox

import (
	"context"
	"time"

	"crewbox/gateway"
	"crewbox/models"
	"crewbox/utils"
)

// Catalog resolves label ids to display labels against each user's canonical
// label catalog. The catalog is loaded lazily on first resolve and cached
// for a TTL; it is not fetched eagerly for every account.
type Catalog struct {
	gw     gateway.MailGateway
	cache  *utils.MemoryCache
	ttl    time.Duration
	logger *utils.Logger
}

// NewCatalog creates a label catalog
func NewCatalog(gw gateway.MailGateway, cache *utils.MemoryCache, ttl time.Duration, logger *utils.Logger) *Catalog {
	return &Catalog{
		gw:     gw,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

func catalogKey(userID string) string {
	return "labels:" + userID
}

// Labels returns the user's label catalog, fetching it on a cache miss
func (c *Catalog) Labels(ctx context.Context, userID string) ([]models.Label, error) {
	if cached, ok := c.cache.Get(catalogKey(userID)); ok {
		if labels, ok := cached.([]models.Label); ok {
			return labels, nil
		}
	}

	labels, err := c.gw.ListLabels(ctx, userID)
	if err != nil {
		return nil, err
	}

	c.cache.Set(catalogKey(userID), labels, c.ttl)
	return labels, nil
}

// Resolve joins label ids against the catalog for display. Dangling ids
// (label deleted remotely) are omitted rather than rendered as raw
// identifiers; a catalog fetch failure resolves to no labels, non-fatally.
func (c *Catalog) Resolve(ctx context.Context, userID string, ids []string) []models.Label {
	if len(ids) == 0 {
		return []models.Label{}
	}

	catalog, err := c.Labels(ctx, userID)
	if err != nil {
		c.logger.Debug("Label catalog unavailable for %s: %v", userID, err)
		return []models.Label{}
	}

	byID := make(map[string]models.Label, len(catalog))
	for _, l := range catalog {
		byID[l.ID] = l
	}

	resolved := make([]models.Label, 0, len(ids))
	for _, id := range ids {
		if label, ok := byID[id]; ok {
			resolved = append(resolved, label)
		}
	}
	return resolved
}

// Create adds a user label through the gateway and invalidates the cached
// catalog so the next resolve sees it.
func (c *Catalog) Create(ctx context.Context, userID, accountEmail, name string) (*models.Label, error) {
	label, err := c.gw.CreateLabel(ctx, userID, accountEmail, name)
	if err != nil {
		return nil, err
	}
	c.cache.Delete(catalogKey(userID))
	return label, nil
}

// Invalidate drops the cached catalog for a user
func (c *Catalog) Invalidate(userID string) {
	c.cache.Delete(catalogKey(userID))
}
