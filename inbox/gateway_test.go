package inbox

import (
	"context"
	"sync"
	"testing"
	"time"

	"crewbox/gateway"
	"crewbox/models"
	"crewbox/utils"
)

// fakeGateway is a controllable MailGateway for engine and cache tests.
// Function fields default to success when nil.
type fakeGateway struct {
	mu        sync.Mutex
	listCalls int

	listFn   func(filters models.Filters, page gateway.PageRequest, pageSize int) (*gateway.ListEmailsResult, error)
	readFn   func(id string, read bool) error
	starFn   func(id string, starred bool) error
	labelsFn func(id string, delta models.LabelDelta) error
	metaFn   func(id string, changes gateway.MetadataChanges) error
}

func (g *fakeGateway) ListEmails(_ context.Context, _ string, filters models.Filters, page gateway.PageRequest, pageSize int) (*gateway.ListEmailsResult, error) {
	g.mu.Lock()
	g.listCalls++
	g.mu.Unlock()
	if g.listFn != nil {
		return g.listFn(filters, page, pageSize)
	}
	return &gateway.ListEmailsResult{}, nil
}

func (g *fakeGateway) GetEmailDetail(context.Context, string, string) (*gateway.EmailDetail, error) {
	return &gateway.EmailDetail{}, nil
}

func (g *fakeGateway) SetReadState(_ context.Context, id string, read bool, _ string) error {
	if g.readFn != nil {
		return g.readFn(id, read)
	}
	return nil
}

func (g *fakeGateway) SetStarred(_ context.Context, id string, starred bool) error {
	if g.starFn != nil {
		return g.starFn(id, starred)
	}
	return nil
}

func (g *fakeGateway) UpdateLabels(_ context.Context, id string, delta models.LabelDelta) error {
	if g.labelsFn != nil {
		return g.labelsFn(id, delta)
	}
	return nil
}

func (g *fakeGateway) UpdateMetadata(_ context.Context, id string, changes gateway.MetadataChanges) error {
	if g.metaFn != nil {
		return g.metaFn(id, changes)
	}
	return nil
}

func (g *fakeGateway) ListLabels(context.Context, string) ([]models.Label, error) {
	return nil, nil
}

func (g *fakeGateway) CreateLabel(_ context.Context, _ string, accountEmail, name string) (*models.Label, error) {
	return &models.Label{ID: "new", AccountEmail: accountEmail, Name: name, Type: models.LabelTypeUser}, nil
}

func (g *fakeGateway) SendEmail(context.Context, gateway.SendRequest) error       { return nil }
func (g *fakeGateway) ReplyEmail(context.Context, gateway.ReplyRequest) error     { return nil }
func (g *fakeGateway) ForwardEmail(context.Context, gateway.ForwardRequest) error { return nil }

func (g *fakeGateway) ListConnectedAccounts(context.Context, string) ([]models.ConnectedAccount, error) {
	return nil, nil
}

func (g *fakeGateway) DisconnectAccount(context.Context, string, string) error { return nil }

func (g *fakeGateway) listCallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.listCalls
}

func testLogger() *utils.Logger {
	return utils.NewLogger(utils.ERROR)
}

// waitFor polls until cond holds or the deadline passes
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

func testRecord(id, threadID string, key int64) models.EmailRecord {
	return models.EmailRecord{
		ID:               id,
		ProviderThreadID: threadID,
		Subject:          "subject " + id,
		OrderingKey:      key,
		Priority:         models.PriorityMedium,
		ThreadStatus:     models.ThreadStatusActive,
		Labels:           []string{},
		Date:             time.Now(),
	}
}
