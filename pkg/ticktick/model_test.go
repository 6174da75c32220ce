package ticktick

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestTimeUnmarshal(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{`"2024-01-15T18:00:00.000+0000"`, time.Date(2024, 1, 15, 18, 0, 0, 0, time.UTC)},
		{`"2024-01-15T18:00:00+0000"`, time.Date(2024, 1, 15, 18, 0, 0, 0, time.UTC)},
		{`"2024-01-15T18:00:00Z"`, time.Date(2024, 1, 15, 18, 0, 0, 0, time.UTC)},
		{`""`, time.Time{}},
		{`null`, time.Time{}},
	}

	for _, c := range cases {
		var got Time
		if err := json.Unmarshal([]byte(c.in), &got); err != nil {
			t.Errorf("%s: Expected no error, got %v", c.in, err)
			continue
		}
		if !got.Equal(c.want) {
			t.Errorf("%s: Expected %v, got %v", c.in, c.want, got.Time)
		}
	}
}

func TestTimeUnmarshalInvalid(t *testing.T) {
	var got Time
	if err := json.Unmarshal([]byte(`"not-a-time"`), &got); err == nil {
		t.Error("Expected an error for an unparseable time string")
	}
}

func TestTimeMarshal(t *testing.T) {
	when := Time{Time: time.Date(2024, 1, 15, 18, 0, 0, 0, time.UTC)}
	b, err := json.Marshal(when)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(b) != `"2024-01-15T18:00:00.000+0000"` {
		t.Errorf("Expected API time layout, got %s", b)
	}

	b, err = json.Marshal(Time{})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(b) != `""` {
		t.Errorf("Expected empty string for zero time, got %s", b)
	}
}

func TestTimeRoundTrip(t *testing.T) {
	orig := Time{Time: time.Date(2024, 1, 15, 18, 30, 45, 0, time.UTC)}
	b, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var back Time
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !back.Equal(orig.Time) {
		t.Errorf("Expected %v after round trip, got %v", orig.Time, back.Time)
	}
}

func TestUpdateTaskRequestDueDateEncoding(t *testing.T) {
	// nil omits the field entirely: no change requested.
	b, err := json.Marshal(UpdateTaskRequest{ID: "t1", ProjectID: "p1"})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if strings.Contains(string(b), "dueDate") {
		t.Errorf("Expected dueDate omitted when nil, got %s", b)
	}

	// An empty Time is an explicit clear, sent as "".
	b, err = json.Marshal(UpdateTaskRequest{ID: "t1", ProjectID: "p1", DueDate: &Time{}})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(b), `"dueDate":""`) {
		t.Errorf("Expected explicit empty dueDate, got %s", b)
	}
}

func TestTaskDoneAndCompleted(t *testing.T) {
	cases := []struct {
		status    int
		done      bool
		completed bool
	}{
		{StatusOpen, false, false},
		{StatusCompletedAlt, true, false},
		{StatusCompleted, true, true},
	}
	for _, c := range cases {
		task := Task{Status: c.status}
		if got := task.Done(); got != c.done {
			t.Errorf("status %d: Expected Done %v, got %v", c.status, c.done, got)
		}
		if got := task.Completed(); got != c.completed {
			t.Errorf("status %d: Expected Completed %v, got %v", c.status, c.completed, got)
		}
	}
}
