package ticktick

import (
	"fmt"
	"strings"
	"time"
)

// Task status ordinals as the TickTick API reports them. Both 1 and 2 render
// as done in the document, but only 2 counts as completed for filtering and
// bucketing.
const (
	StatusOpen         = 0
	StatusCompletedAlt = 1
	StatusCompleted    = 2
)

// Priority ordinals. Non-contiguous on purpose: these are the raw API values
// and must never be remapped to a dense index.
const (
	PriorityNone   = 0
	PriorityLow    = 1
	PriorityMedium = 3
	PriorityHigh   = 5
)

// Subtask status ordinals.
const (
	SubTaskOpen = 0
	SubTaskDone = 1
)

const ticktickTimeLayout = "2006-01-02T15:04:05.000-0700"

// Time wraps time.Time with the TickTick API's JSON encoding.
type Time struct {
	time.Time
}

// timeLayouts are tried in order when decoding. The API normally emits the
// first form, but older records and other endpoints vary.
var timeLayouts = []string{
	ticktickTimeLayout,
	"2006-01-02T15:04:05-0700",
	time.RFC3339,
	"2006-01-02T15:04:05.000Z07:00",
}

// UnmarshalJSON implements the json.Unmarshaler interface for Time.
func (t *Time) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}

	var lastErr error
	for _, layout := range timeLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("failed to parse TickTick time string '%s': %w", s, lastErr)
}

// MarshalJSON implements the json.Marshaler interface for Time.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + t.Time.Format(ticktickTimeLayout) + `"`), nil
}

// Task is a remote TickTick task. Identifiers are assigned by the service;
// this tool never mints them.
type Task struct {
	ID            string    `json:"id"`
	ProjectID     string    `json:"projectId"`
	Title         string    `json:"title"`
	Content       string    `json:"content,omitempty"`
	Desc          string    `json:"desc,omitempty"`
	IsAllDay      bool      `json:"isAllDay,omitempty"`
	StartDate     *Time     `json:"startDate,omitempty"`
	DueDate       *Time     `json:"dueDate,omitempty"`
	TimeZone      string    `json:"timeZone,omitempty"`
	Priority      int       `json:"priority,omitempty"`
	Status        int       `json:"status,omitempty"`
	CompletedTime *Time     `json:"completedTime,omitempty"`
	SortOrder     int64     `json:"sortOrder,omitempty"`
	RepeatFlag    string    `json:"repeatFlag,omitempty"`
	Reminders     []string  `json:"reminders,omitempty"`
	Items         []SubTask `json:"items,omitempty"`
	Kind          string    `json:"kind,omitempty"`
}

// Done reports whether the task renders as checked in the document.
// Status 1 and 2 both display as done.
func (t *Task) Done() bool {
	return t.Status == StatusCompletedAlt || t.Status == StatusCompleted
}

// Completed reports whether the task is completed for filtering and
// bucketing purposes. Only status 2 qualifies.
func (t *Task) Completed() bool {
	return t.Status == StatusCompleted
}

// SubTask is a checklist item owned by its parent task. It has no
// independent lifecycle.
type SubTask struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Status        int    `json:"status"`
	CompletedTime *Time  `json:"completedTime,omitempty"`
	IsAllDay      bool   `json:"isAllDay,omitempty"`
	SortOrder     int64  `json:"sortOrder,omitempty"`
	StartDate     *Time  `json:"startDate,omitempty"`
	TimeZone      string `json:"timeZone,omitempty"`
}

// Project is a TickTick list. The document stores the project *name* as the
// durable cross-reference key, so names are assumed unique within one sync
// pass.
type Project struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Color      string `json:"color,omitempty"`
	Closed     bool   `json:"closed,omitempty"`
	GroupID    string `json:"groupId,omitempty"`
	ViewMode   string `json:"viewMode,omitempty"`
	Permission string `json:"permission,omitempty"`
	Kind       string `json:"kind,omitempty"`
}

// CreateTaskRequest is the payload for task creation.
type CreateTaskRequest struct {
	Title      string                 `json:"title"`
	ProjectID  string                 `json:"projectId"`
	Content    string                 `json:"content,omitempty"`
	Desc       string                 `json:"desc,omitempty"`
	IsAllDay   bool                   `json:"isAllDay,omitempty"`
	StartDate  *Time                  `json:"startDate,omitempty"`
	DueDate    *Time                  `json:"dueDate,omitempty"`
	TimeZone   string                 `json:"timeZone,omitempty"`
	Reminders  []string               `json:"reminders,omitempty"`
	RepeatFlag string                 `json:"repeatFlag,omitempty"`
	Priority   int                    `json:"priority,omitempty"`
	SortOrder  int64                  `json:"sortOrder,omitempty"`
	Items      []CreateSubTaskRequest `json:"items,omitempty"`
}

// CreateSubTaskRequest is a checklist item within a create call.
type CreateSubTaskRequest struct {
	Title     string `json:"title"`
	StartDate *Time  `json:"startDate,omitempty"`
	IsAllDay  bool   `json:"isAllDay,omitempty"`
	SortOrder int64  `json:"sortOrder,omitempty"`
	TimeZone  string `json:"timeZone,omitempty"`
}

// UpdateTaskRequest is a partial update. Pointer fields distinguish "no
// change requested" (nil) from an explicit value; DueDate pointing at an
// empty Time clears the remote due date.
type UpdateTaskRequest struct {
	ID            string  `json:"id"`
	ProjectID     string  `json:"projectId"`
	Title         *string `json:"title,omitempty"`
	Content       *string `json:"content,omitempty"`
	Desc          *string `json:"desc,omitempty"`
	IsAllDay      *bool   `json:"isAllDay,omitempty"`
	StartDate     *Time   `json:"startDate,omitempty"`
	DueDate       *Time   `json:"dueDate,omitempty"`
	TimeZone      string  `json:"timeZone,omitempty"`
	Priority      *int    `json:"priority,omitempty"`
	Status        *int    `json:"status,omitempty"`
	CompletedTime *Time   `json:"completedTime,omitempty"`
	SortOrder     *int64  `json:"sortOrder,omitempty"`
}

// CreateProjectRequest is the payload for project creation.
type CreateProjectRequest struct {
	Name     string `json:"name"`
	Color    string `json:"color,omitempty"`
	ViewMode string `json:"viewMode,omitempty"`
	Kind     string `json:"kind,omitempty"`
}
