package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"crewbox/models"
	"crewbox/utils"
)

const directoryCacheKey = "directory:users"

// DirectoryService returns the set of known team members, used for mention
// resolution and record ownership.
type DirectoryService interface {
	ListUsers(ctx context.Context) ([]models.DirectoryUser, error)
}

// DirectoryClient fetches the user list from the directory service and
// caches it for a TTL; the directory changes rarely and mention resolution
// hits it on every note.
type DirectoryClient struct {
	baseURL string
	http    *http.Client
	cache   *utils.MemoryCache
	ttl     time.Duration
	logger  *utils.Logger
}

// NewDirectoryClient creates a directory client
func NewDirectoryClient(baseURL string, httpClient *http.Client, cache *utils.MemoryCache, ttl time.Duration, logger *utils.Logger) *DirectoryClient {
	return &DirectoryClient{
		baseURL: baseURL,
		http:    httpClient,
		cache:   cache,
		ttl:     ttl,
		logger:  logger,
	}
}

// ListUsers returns the cached user list, fetching it on a miss
func (d *DirectoryClient) ListUsers(ctx context.Context) ([]models.DirectoryUser, error) {
	if cached, ok := d.cache.Get(directoryCacheKey); ok {
		if users, ok := cached.([]models.DirectoryUser); ok {
			return users, nil
		}
	}

	users, err := d.fetchUsers(ctx)
	if err != nil {
		return nil, err
	}

	d.cache.Set(directoryCacheKey, users, d.ttl)
	return users, nil
}

func (d *DirectoryClient) fetchUsers(ctx context.Context) ([]models.DirectoryUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/users", nil)
	if err != nil {
		return nil, &ValidationError{Op: "directory/users", Message: err.Error()}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "directory/users", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Op: "directory/users", Err: errStatus(resp.StatusCode)}
	}

	var users []models.DirectoryUser
	if err := decodeJSON(resp.Body, &users); err != nil {
		return nil, &TransportError{Op: "directory/users", Err: err}
	}

	d.logger.Debug("Directory refreshed: %d users", len(users))
	return users, nil
}

func errStatus(code int) error {
	return fmt.Errorf("status %d", code)
}

func decodeJSON(r io.Reader, out interface{}) error {
	return json.NewDecoder(r).Decode(out)
}
