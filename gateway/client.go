package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"crewbox/models"
	"crewbox/utils"
)

// PageRequest addresses one page of a listing. The server-issued cursor is
// preferred when present; otherwise Page is a 1-based index.
type PageRequest struct {
	Cursor string
	Page   int
}

// ListEmailsResult is the raw listing page as the gateway reports it.
// HasMore and Total are optional signals; the retrieval cache applies the
// page-size heuristic when HasMore is absent.
type ListEmailsResult struct {
	Records    []models.EmailRecord `json:"records"`
	HasMore    *bool                `json:"has_more,omitempty"`
	NextCursor string               `json:"next_cursor,omitempty"`
	Total      *int                 `json:"total,omitempty"`
}

// EmailDetail carries the lazily-loaded fields of one record
type EmailDetail struct {
	Body             string `json:"body"`
	ProviderThreadID string `json:"provider_thread_id,omitempty"`
}

// MetadataChanges is a partial update of a record's workflow metadata.
// Nil fields are left untouched.
type MetadataChanges struct {
	Priority     *string `json:"priority,omitempty"`
	ThreadStatus *string `json:"thread_status,omitempty"`
	Owner        *string `json:"owner,omitempty"`
}

// SendRequest is an outgoing email payload
type SendRequest struct {
	AccountEmail string   `json:"account_email"`
	To           []string `json:"to"`
	Cc           []string `json:"cc,omitempty"`
	Bcc          []string `json:"bcc,omitempty"`
	Subject      string   `json:"subject"`
	Body         string   `json:"body"`
	IsHTML       bool     `json:"is_html"`
}

// ReplyRequest replies within an existing record's conversation
type ReplyRequest struct {
	EmailID  string `json:"email_id"`
	Body     string `json:"body"`
	IsHTML   bool   `json:"is_html"`
	ReplyAll bool   `json:"reply_all"`
}

// ForwardRequest forwards an existing record
type ForwardRequest struct {
	EmailID string   `json:"email_id"`
	To      []string `json:"to"`
	Body    string   `json:"body"`
	IsHTML  bool     `json:"is_html"`
}

// MailGateway is the contract with the remote mail provider bridge. All
// mutations are asynchronous relative to the true mailbox; a nil error only
// means the gateway accepted the request.
type MailGateway interface {
	ListEmails(ctx context.Context, userID string, filters models.Filters, page PageRequest, pageSize int) (*ListEmailsResult, error)
	GetEmailDetail(ctx context.Context, id, userID string) (*EmailDetail, error)
	SetReadState(ctx context.Context, id string, read bool, userID string) error
	SetStarred(ctx context.Context, id string, starred bool) error
	UpdateLabels(ctx context.Context, id string, delta models.LabelDelta) error
	UpdateMetadata(ctx context.Context, id string, changes MetadataChanges) error
	ListLabels(ctx context.Context, userID string) ([]models.Label, error)
	CreateLabel(ctx context.Context, userID, accountEmail, name string) (*models.Label, error)
	SendEmail(ctx context.Context, req SendRequest) error
	ReplyEmail(ctx context.Context, req ReplyRequest) error
	ForwardEmail(ctx context.Context, req ForwardRequest) error
	ListConnectedAccounts(ctx context.Context, userID string) ([]models.ConnectedAccount, error)
	DisconnectAccount(ctx context.Context, userID, accountEmail string) error
}

// Client is the HTTP implementation of MailGateway
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *utils.Logger
}

// NewClient creates a gateway client. timeout bounds every request; the
// gateway owns retry policy on its side of the wire.
func NewClient(baseURL, apiKey string, httpClient *http.Client, logger *utils.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    httpClient,
		logger:  logger,
	}
}

// envelope is the discriminated response wrapper every gateway endpoint
// uses. It is decoded once here, never per call site.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error,omitempty"`
}

// do performs a request and decodes the envelope into out (out may be nil
// for mutation endpoints).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &ValidationError{Op: path, Message: fmt.Sprintf("encode request: %v", err)}
		}
		reader = bytes.NewReader(encoded)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return &ValidationError{Op: path, Message: err.Error()}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: path, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: path, Err: err}
	}

	if err := classifyStatus(path, resp.StatusCode, raw); err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &TransportError{Op: path, Err: fmt.Errorf("malformed response: %w", err)}
	}
	if !env.Success {
		return &TransportError{Op: path, Err: fmt.Errorf("gateway rejected request: %s", env.Error)}
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &TransportError{Op: path, Err: fmt.Errorf("malformed response data: %w", err)}
		}
	}
	return nil
}

// classifyStatus maps an HTTP status to the error taxonomy
func classifyStatus(op string, status int, raw []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusNotFound:
		return &NotFoundError{Op: op}
	case status >= 400 && status < 500 && status != http.StatusRequestTimeout && status != http.StatusTooManyRequests:
		var env envelope
		msg := http.StatusText(status)
		if json.Unmarshal(raw, &env) == nil && env.Error != "" {
			msg = env.Error
		}
		return &ValidationError{Op: op, Message: msg}
	default:
		// 408, 429 and 5xx are all retryable
		return &TransportError{Op: op, Err: fmt.Errorf("status %d", status)}
	}
}

func (c *Client) ListEmails(ctx context.Context, userID string, filters models.Filters, page PageRequest, pageSize int) (*ListEmailsResult, error) {
	query := filters.Values()
	query.Set("user_id", userID)
	query.Set("page_size", strconv.Itoa(pageSize))
	if page.Cursor != "" {
		query.Set("cursor", page.Cursor)
	} else if page.Page > 0 {
		query.Set("page", strconv.Itoa(page.Page))
	}

	var result ListEmailsResult
	if err := c.do(ctx, http.MethodGet, "/emails", query, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetEmailDetail(ctx context.Context, id, userID string) (*EmailDetail, error) {
	query := url.Values{}
	query.Set("user_id", userID)

	var detail EmailDetail
	if err := c.do(ctx, http.MethodGet, "/emails/"+url.PathEscape(id), query, nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (c *Client) SetReadState(ctx context.Context, id string, read bool, userID string) error {
	payload := map[string]interface{}{"read": read, "user_id": userID}
	return c.do(ctx, http.MethodPut, "/emails/"+url.PathEscape(id)+"/read", nil, payload, nil)
}

func (c *Client) SetStarred(ctx context.Context, id string, starred bool) error {
	payload := map[string]interface{}{"starred": starred}
	return c.do(ctx, http.MethodPut, "/emails/"+url.PathEscape(id)+"/star", nil, payload, nil)
}

func (c *Client) UpdateLabels(ctx context.Context, id string, delta models.LabelDelta) error {
	return c.do(ctx, http.MethodPut, "/emails/"+url.PathEscape(id)+"/labels", nil, delta, nil)
}

func (c *Client) UpdateMetadata(ctx context.Context, id string, changes MetadataChanges) error {
	return c.do(ctx, http.MethodPut, "/emails/"+url.PathEscape(id)+"/metadata", nil, changes, nil)
}

func (c *Client) ListLabels(ctx context.Context, userID string) ([]models.Label, error) {
	query := url.Values{}
	query.Set("user_id", userID)

	var labels []models.Label
	if err := c.do(ctx, http.MethodGet, "/labels", query, nil, &labels); err != nil {
		return nil, err
	}
	return labels, nil
}

func (c *Client) CreateLabel(ctx context.Context, userID, accountEmail, name string) (*models.Label, error) {
	payload := map[string]string{
		"user_id":       userID,
		"account_email": accountEmail,
		"name":          name,
	}

	var label models.Label
	if err := c.do(ctx, http.MethodPost, "/labels", nil, payload, &label); err != nil {
		return nil, err
	}
	return &label, nil
}

func (c *Client) SendEmail(ctx context.Context, req SendRequest) error {
	return c.do(ctx, http.MethodPost, "/send", nil, req, nil)
}

func (c *Client) ReplyEmail(ctx context.Context, req ReplyRequest) error {
	return c.do(ctx, http.MethodPost, "/reply", nil, req, nil)
}

func (c *Client) ForwardEmail(ctx context.Context, req ForwardRequest) error {
	return c.do(ctx, http.MethodPost, "/forward", nil, req, nil)
}

func (c *Client) ListConnectedAccounts(ctx context.Context, userID string) ([]models.ConnectedAccount, error) {
	query := url.Values{}
	query.Set("user_id", userID)

	var accounts []models.ConnectedAccount
	if err := c.do(ctx, http.MethodGet, "/accounts", query, nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (c *Client) DisconnectAccount(ctx context.Context, userID, accountEmail string) error {
	payload := map[string]string{"user_id": userID, "account_email": accountEmail}
	return c.do(ctx, http.MethodPost, "/accounts/disconnect", nil, payload, nil)
}
