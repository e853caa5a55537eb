// Package taskapi implements service.Store against the task manager REST
// API. The client is stateless: the user id is passed on every call, never
// cached, and there is no retry or caching policy here — that belongs to the
// sync engine.
package taskapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"taskman/internal/service"
	"taskman/internal/timestamp"
)

// APITimeout bounds each request.
const APITimeout = 10 * time.Second

// Client talks to the per-user task collection endpoints.
type Client struct {
	baseURL string
	http    *http.Client
	now     func() time.Time
}

// New creates a client for the API at baseURL.
func New(baseURL string) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{})
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		now:     time.Now,
	}
}

// wireTask is a task as returned by reads. Timestamps arrive in the nested
// Firestore form and are decoded through the codec.
type wireTask struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	DueDate     json.RawMessage `json:"dueDate"`
	Status      service.Status  `json:"status"`
	CreatedAt   json.RawMessage `json:"createdAt"`
}

func (w wireTask) toTask() (service.Task, error) {
	due, err := timestamp.Decode(w.DueDate)
	if err != nil {
		return service.Task{}, &service.DecodeError{Err: fmt.Errorf("dueDate: %w", err)}
	}
	created, err := timestamp.Decode(w.CreatedAt)
	if err != nil {
		return service.Task{}, &service.DecodeError{Err: fmt.Errorf("createdAt: %w", err)}
	}
	return service.Task{
		ID:          w.ID,
		Title:       w.Title,
		Description: w.Description,
		CreatedAt:   created,
		DueDate:     due,
		Status:      w.Status,
	}, nil
}

// writeBody is the POST/PUT payload. Due dates are submitted as ISO-8601
// strings; the server does not accept the nested form on writes.
type writeBody struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	DueDate     string         `json:"dueDate"`
	Status      service.Status `json:"status"`
}

// List returns the user's tasks in server order.
func (c *Client) List(ctx context.Context, userID string) ([]service.Task, error) {
	status, body, err := c.do(ctx, http.MethodGet, c.userPath(userID), nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &service.ServerError{Status: status}
	}

	var wires []wireTask
	if err := json.Unmarshal(body, &wires); err != nil {
		return nil, &service.DecodeError{Err: err}
	}

	tasks := make([]service.Task, 0, len(wires))
	for _, w := range wires {
		t, err := w.toTask()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// Create stores a new task. The 201 response carries only the assigned id,
// so the full record is reconstructed from the echoed id plus the submitted
// draft; the creation time is provisional until the next List.
func (c *Client) Create(ctx context.Context, userID string, draft service.Draft) (service.Task, error) {
	payload := writeBody{
		Title:       draft.Title,
		Description: draft.Description,
		DueDate:     timestamp.EncodeISO(draft.DueDate),
		Status:      draft.Status,
	}
	status, body, err := c.do(ctx, http.MethodPost, c.userPath(userID), payload)
	if err != nil {
		return service.Task{}, err
	}

	switch {
	case status == http.StatusCreated || status == http.StatusOK:
		// decoded below
	case status >= 400 && status < 500:
		return service.Task{}, &service.ValidationError{Reason: serverMessage(status, body)}
	default:
		return service.Task{}, &service.ServerError{Status: status}
	}

	var created struct {
		ID      string `json:"id"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return service.Task{}, &service.DecodeError{Err: err}
	}
	if created.ID == "" {
		return service.Task{}, &service.DecodeError{Err: fmt.Errorf("create response has no id")}
	}

	return service.Task{
		ID:          created.ID,
		Title:       draft.Title,
		Description: draft.Description,
		CreatedAt:   c.now().UTC(),
		DueDate:     draft.DueDate,
		Status:      draft.Status,
	}, nil
}

// Update replaces the stored task and returns the server's representation.
func (c *Client) Update(ctx context.Context, userID, taskID string, patch service.Patch) (service.Task, error) {
	payload := writeBody{
		Title:       patch.Title,
		Description: patch.Description,
		DueDate:     timestamp.EncodeISO(patch.DueDate),
		Status:      patch.Status,
	}
	status, body, err := c.do(ctx, http.MethodPut, c.taskPath(userID, taskID), payload)
	if err != nil {
		return service.Task{}, err
	}

	switch {
	case status == http.StatusOK:
		// decoded below
	case status == http.StatusNotFound:
		return service.Task{}, service.ErrNotFound
	case status >= 400 && status < 500:
		return service.Task{}, &service.ValidationError{Reason: serverMessage(status, body)}
	default:
		return service.Task{}, &service.ServerError{Status: status}
	}

	var w wireTask
	if err := json.Unmarshal(body, &w); err != nil {
		return service.Task{}, &service.DecodeError{Err: err}
	}
	return w.toTask()
}

// Delete removes a task. A 404 means the task is already gone, which is the
// desired end state, so it counts as success.
func (c *Client) Delete(ctx context.Context, userID, taskID string) error {
	status, _, err := c.do(ctx, http.MethodDelete, c.taskPath(userID, taskID), nil)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return nil
	}
	if status < 200 || status >= 300 {
		return &service.ServerError{Status: status}
	}
	return nil
}

func (c *Client) userPath(userID string) string {
	return c.baseURL + "/tasks/" + url.PathEscape(userID)
}

func (c *Client) taskPath(userID, taskID string) string {
	return c.userPath(userID) + "/" + url.PathEscape(taskID)
}

// do issues one request and returns the status code and the full body.
// Transport failures come back as NetworkError.
func (c *Client) do(ctx context.Context, method, target string, payload any) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return 0, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, &service.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &service.NetworkError{Err: err}
	}
	return resp.StatusCode, body, nil
}

// serverMessage extracts the error message a rejection carried, if any.
func serverMessage(status int, body []byte) string {
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Error != "" {
			return parsed.Error
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	return http.StatusText(status)
}
