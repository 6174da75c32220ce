// Package markdown implements the document wire format shared by both sync
// directions: rendering remote tasks into checkbox lines and parsing those
// lines (with their section context) back into task records. The two halves
// must round-trip title, priority, project tag and date tag exactly.
package markdown

import "time"

// SectionType classifies a document heading. The classification governs date
// inference for every task beneath the heading until the next one.
type SectionType string

const (
	SectionTodoToday          SectionType = "todo-today"
	SectionTodoTomorrow       SectionType = "todo-tomorrow"
	SectionTodoNoDate         SectionType = "todo-nodate"
	SectionCompletedToday     SectionType = "completed-today"
	SectionCompletedYesterday SectionType = "completed-yesterday"
	SectionCompletedEarlier   SectionType = "completed-earlier"
	SectionUnknown            SectionType = "unknown"
)

// Todo reports whether the section is one of the todo-* types.
func (s SectionType) Todo() bool {
	return s == SectionTodoToday || s == SectionTodoTomorrow || s == SectionTodoNoDate
}

// Completed reports whether the section is one of the completed-* types.
func (s SectionType) Completed() bool {
	return s == SectionCompletedToday || s == SectionCompletedYesterday || s == SectionCompletedEarlier
}

// PageSection is an ephemeral classification record for one heading.
type PageSection struct {
	Name      string
	Type      SectionType
	StartLine int
}

// ParsedTask is a task record recovered from one document line. It exists
// only within a single reconciliation pass.
type ParsedTask struct {
	// TickTickID is the remote identifier, when recoverable from the line.
	// The current line format does not carry one, so new lines written by
	// hand always create rather than update.
	TickTickID  string
	ProjectName string
	Title       string
	Completed   bool
	DueDate     *time.Time
	StartDate   *time.Time
	SubTasks    []ParsedSubTask
	// RawLine is kept for diagnostics. Line is the zero-based offset of the
	// line in the document, used to resolve the enclosing section.
	RawLine string
	Line    int
	// NeedsSync is reserved for future dirty-tracking and is always false.
	NeedsSync bool
}

// ParsedSubTask mirrors ParsedTask for checklist items. The line scan does
// not currently associate subtask lines with a parent, so these are never
// produced by Parse.
type ParsedSubTask struct {
	TickTickID string
	Title      string
	Completed  bool
}
