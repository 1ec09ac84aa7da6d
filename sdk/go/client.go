// Package dispatchsdk is a Go client for the dispatch board HTTP API. A
// Client satisfies schedule.Store, so a schedule view can run against a
// remote server.
package dispatchsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"dispatchboard/internal/domain"
)

// Client is a minimal dispatch board HTTP API client.
type Client struct {
	BaseURL     string
	BasePath    string
	APIKey      string
	BearerToken string
	// UserID is sent as X-User-Id when no other credential is set. Only
	// servers started for local development accept it.
	UserID     string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:  baseURL,
		BasePath: "/v0",
		Timeout:  10 * time.Second,
	}
}

// Me is the authenticated user and the permissions their role grants.
type Me struct {
	User        domain.User `json:"user"`
	Permissions []string    `json:"permissions"`
	Source      string      `json:"source"`
}

// Event represents a log entry.
type Event struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts"`
	Type       string         `json:"type"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload"`
}

// PaginatedEvents wraps list responses with cursors.
type PaginatedEvents struct {
	Items      []Event `json:"items"`
	NextCursor string  `json:"next_cursor"`
}

// APIKey is a freshly issued key. Key is only ever returned once.
type APIKey struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	Key       string `json:"key"`
	CreatedAt string `json:"created_at"`
}

// APIError wraps non-2xx responses. Code and Message come from the error
// envelope when the body carries one.
type APIError struct {
	StatusCode int
	Body       string
	Code       string
	Message    string
	Details    map[string]any
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error: status=%d code=%s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Body: string(body)}
	var env struct {
		Error struct {
			Code    string         `json:"code"`
			Message string         `json:"message"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
		apiErr.Details = env.Error.Details
	}
	return apiErr
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (Me, error) {
	var resp Me
	err := c.do(ctx, http.MethodGet, "me", nil, &resp)
	return resp, err
}

func (c *Client) ListWorkOrders(ctx context.Context) ([]domain.WorkOrder, error) {
	var resp []domain.WorkOrder
	err := c.do(ctx, http.MethodGet, "work-orders", nil, &resp)
	return resp, err
}

func (c *Client) GetWorkOrder(ctx context.Context, id string) (domain.WorkOrder, error) {
	var resp domain.WorkOrder
	err := c.do(ctx, http.MethodGet, "work-orders/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

type createWorkOrderRequest struct {
	Title             string           `json:"title"`
	Description       string           `json:"description,omitempty"`
	ServiceType       string           `json:"service_type,omitempty"`
	CustomerID        string           `json:"customer_id,omitempty"`
	TechnicianIDs     []string         `json:"technician_ids,omitempty"`
	ScheduledStart    time.Time        `json:"scheduled_start"`
	ScheduledEnd      time.Time        `json:"scheduled_end"`
	Priority          domain.Priority  `json:"priority,omitempty"`
	Status            domain.Status    `json:"status,omitempty"`
	EstimatedDuration int              `json:"estimated_duration,omitempty"`
	Location          *domain.Location `json:"location,omitempty"`
	Price             float64          `json:"price,omitempty"`
}

func (c *Client) CreateWorkOrder(ctx context.Context, wo domain.WorkOrder) (domain.WorkOrder, error) {
	body := createWorkOrderRequest{
		Title:             wo.Title,
		Description:       wo.Description,
		ServiceType:       wo.ServiceType,
		CustomerID:        wo.CustomerID,
		TechnicianIDs:     wo.TechnicianIDs,
		ScheduledStart:    wo.ScheduledStart,
		ScheduledEnd:      wo.ScheduledEnd,
		Priority:          wo.Priority,
		Status:            wo.Status,
		EstimatedDuration: wo.EstimatedDuration,
		Price:             wo.Price,
	}
	if wo.Location != (domain.Location{}) {
		loc := wo.Location
		body.Location = &loc
	}
	var resp domain.WorkOrder
	err := c.do(ctx, http.MethodPost, "work-orders", body, &resp)
	return resp, err
}

func (c *Client) UpdateWorkOrder(ctx context.Context, id string, patch domain.WorkOrderPatch) (domain.WorkOrder, error) {
	var resp domain.WorkOrder
	err := c.do(ctx, http.MethodPatch, "work-orders/"+url.PathEscape(id), patch, &resp)
	return resp, err
}

func (c *Client) DeleteWorkOrder(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "work-orders/"+url.PathEscape(id), nil, nil)
}

func (c *Client) DuplicateWorkOrder(ctx context.Context, id string) (domain.WorkOrder, error) {
	var resp domain.WorkOrder
	err := c.do(ctx, http.MethodPost, "work-orders/"+url.PathEscape(id)+"/duplicate", nil, &resp)
	return resp, err
}

func (c *Client) ListTechnicians(ctx context.Context) ([]domain.Technician, error) {
	var resp []domain.Technician
	err := c.do(ctx, http.MethodGet, "technicians", nil, &resp)
	return resp, err
}

func (c *Client) CreateTechnician(ctx context.Context, t domain.Technician) (domain.Technician, error) {
	body := map[string]any{"name": t.Name}
	if t.ID != "" {
		body["id"] = t.ID
	}
	if t.Email != "" {
		body["email"] = t.Email
	}
	if t.Phone != "" {
		body["phone"] = t.Phone
	}
	if len(t.Skills) > 0 {
		body["skills"] = t.Skills
	}
	if t.Status != "" {
		body["status"] = t.Status
	}
	if t.Location != (domain.Location{}) {
		body["location"] = t.Location
	}
	var resp domain.Technician
	err := c.do(ctx, http.MethodPost, "technicians", body, &resp)
	return resp, err
}

func (c *Client) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	var resp []domain.Customer
	err := c.do(ctx, http.MethodGet, "customers", nil, &resp)
	return resp, err
}

func (c *Client) CreateCustomer(ctx context.Context, cu domain.Customer) (domain.Customer, error) {
	var resp domain.Customer
	err := c.do(ctx, http.MethodPost, "customers", cu, &resp)
	return resp, err
}

func (c *Client) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	body := map[string]any{"name": u.Name, "role": u.Role}
	if u.ID != "" {
		body["id"] = u.ID
	}
	if u.Email != "" {
		body["email"] = u.Email
	}
	var resp domain.User
	err := c.do(ctx, http.MethodPost, "users", body, &resp)
	return resp, err
}

// CreateAPIKey issues a key for userID.
func (c *Client) CreateAPIKey(ctx context.Context, userID, name string) (APIKey, error) {
	var resp APIKey
	err := c.do(ctx, http.MethodPost, "users/"+url.PathEscape(userID)+"/api-keys", map[string]any{"name": name}, &resp)
	return resp, err
}

// Events returns recent events.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	page, err := c.EventsPage(ctx, limit, "")
	return page.Items, err
}

// EventsPage returns a paginated event listing, newest first.
func (c *Client) EventsPage(ctx context.Context, limit int, cursor string) (PaginatedEvents, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	endpoint := "events"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp PaginatedEvents
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// ExportCSV downloads the server-side CSV export. query takes the same
// filters as the schedule (search, priority, status, technician_id).
func (c *Client) ExportCSV(ctx context.Context, query url.Values) (string, []byte, error) {
	endpoint := "work-orders/export.csv"
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	resp, err := c.send(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, err
	}
	name := "work-orders.csv"
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		name = params["filename"]
	}
	return name, data, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	resp, err := c.send(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// send performs the request and turns non-2xx responses into *APIError.
func (c *Client) send(ctx context.Context, method, endpoint string, body any) (*http.Response, error) {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url(endpoint), &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	case c.UserID != "":
		req.Header.Set("X-User-Id", c.UserID)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		return nil, newAPIError(resp.StatusCode, b)
	}
	return resp, nil
}

func (c *Client) url(endpoint string) string {
	base := strings.TrimRight(c.BaseURL, "/")
	if p := strings.Trim(c.BasePath, "/"); p != "" {
		base += "/" + p
	}
	return base + "/" + strings.TrimLeft(endpoint, "/")
}
