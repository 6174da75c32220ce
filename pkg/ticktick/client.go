package ticktick

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const defaultBaseURL = "https://api.ticktick.com"

// APIError is returned for any non-2xx response. It carries the status code
// and raw response body so callers can surface both.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API request failed: %d - %s", e.StatusCode, e.Body)
}

// Client talks to the TickTick Open API. The bearer token is read from the
// token source on every request, so a refresh performed elsewhere in the
// process is picked up without rebuilding the client.
type Client struct {
	tokens  oauth2.TokenSource
	baseURL string
	httpc   *http.Client
}

// NewClient creates a TickTick API client backed by the given token source.
func NewClient(tokens oauth2.TokenSource) *Client {
	return &Client{
		tokens:  tokens,
		baseURL: defaultBaseURL,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

// SetBaseURL overrides the API base URL. Used by tests.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// request performs one authenticated call. A non-2xx status yields an
// *APIError; an empty 2xx body leaves out unchanged.
func (c *Client) request(ctx context.Context, method, endpoint string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	tok, err := c.tokens.Token()
	if err != nil {
		return fmt.Errorf("failed to obtain access token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// ListProjects returns every project visible to the authenticated user.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := c.request(ctx, http.MethodGet, "/open/v1/project", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// GetProject fetches a single project by identifier.
func (c *Client) GetProject(ctx context.Context, projectID string) (Project, error) {
	var project Project
	err := c.request(ctx, http.MethodGet, "/open/v1/project/"+projectID, nil, &project)
	return project, err
}

// CreateProject creates a new project.
func (c *Client) CreateProject(ctx context.Context, req CreateProjectRequest) (Project, error) {
	var project Project
	err := c.request(ctx, http.MethodPost, "/open/v1/project", req, &project)
	return project, err
}

// UpdateProject applies a partial update to a project.
func (c *Client) UpdateProject(ctx context.Context, projectID string, req CreateProjectRequest) (Project, error) {
	var project Project
	err := c.request(ctx, http.MethodPost, "/open/v1/project/"+projectID, req, &project)
	return project, err
}

// DeleteProject removes a project.
func (c *Client) DeleteProject(ctx context.Context, projectID string) error {
	return c.request(ctx, http.MethodDelete, "/open/v1/project/"+projectID, nil, nil)
}

// GetProjectTasks returns the tasks of a project in service order.
func (c *Client) GetProjectTasks(ctx context.Context, projectID string) ([]Task, error) {
	var data struct {
		Tasks []Task `json:"tasks"`
	}
	if err := c.request(ctx, http.MethodGet, "/open/v1/project/"+projectID+"/data", nil, &data); err != nil {
		return nil, err
	}
	return data.Tasks, nil
}

// GetTask fetches the authoritative current record for one task.
func (c *Client) GetTask(ctx context.Context, projectID, taskID string) (Task, error) {
	var task Task
	err := c.request(ctx, http.MethodGet, "/open/v1/project/"+projectID+"/task/"+taskID, nil, &task)
	return task, err
}

// CreateTask creates a new task and returns the record the service assigned.
func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest) (Task, error) {
	var task Task
	err := c.request(ctx, http.MethodPost, "/open/v1/task", req, &task)
	return task, err
}

// UpdateTask applies a partial update to a task.
func (c *Client) UpdateTask(ctx context.Context, taskID string, req UpdateTaskRequest) (Task, error) {
	var task Task
	err := c.request(ctx, http.MethodPost, "/open/v1/task/"+taskID, req, &task)
	return task, err
}

// CompleteTask marks a task completed.
func (c *Client) CompleteTask(ctx context.Context, projectID, taskID string) error {
	return c.request(ctx, http.MethodPost, "/open/v1/project/"+projectID+"/task/"+taskID+"/complete", nil, nil)
}

// UncompleteTask reopens a completed task by resetting its status.
func (c *Client) UncompleteTask(ctx context.Context, projectID, taskID string) error {
	status := StatusOpen
	_, err := c.UpdateTask(ctx, taskID, UpdateTaskRequest{
		ID:        taskID,
		ProjectID: projectID,
		Status:    &status,
	})
	return err
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, projectID, taskID string) error {
	return c.request(ctx, http.MethodDelete, "/open/v1/project/"+projectID+"/task/"+taskID, nil, nil)
}
