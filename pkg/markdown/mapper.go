package markdown

import (
	"regexp"
	"strings"

	"github.com/harrisonrobin/ticksync/pkg/dates"
	"github.com/harrisonrobin/ticksync/pkg/ticktick"
)

var (
	checkboxPrefixRe = regexp.MustCompile(`^\s*-\s*\[([ xX])\]\s*`)
	projectTagRe     = regexp.MustCompile(`(?i)#project:([^#\s]+)`)
	dateTagRe        = regexp.MustCompile(`(?i)#date\(([^)]+)\)`)
)

// PriorityGlyph maps a TickTick priority ordinal to its display glyph. The
// glyph carries a trailing space; priority 0 (and anything unrecognized)
// renders as the empty string.
func PriorityGlyph(priority int) string {
	switch priority {
	case ticktick.PriorityHigh:
		return "🔴 "
	case ticktick.PriorityMedium:
		return "🟡 "
	case ticktick.PriorityLow:
		return "🟢 "
	default:
		return ""
	}
}

// GlyphPriority is the inverse of PriorityGlyph.
func GlyphPriority(glyph string) int {
	switch strings.TrimSpace(glyph) {
	case "🔴":
		return ticktick.PriorityHigh
	case "🟡":
		return ticktick.PriorityMedium
	case "🟢":
		return ticktick.PriorityLow
	default:
		return ticktick.PriorityNone
	}
}

// dateTag renders the #date(...) suffix for a start/due pair, including the
// leading space. Both present and displaying identically collapses to a
// single date; absent dates omit the tag entirely.
func dateTag(start, due *ticktick.Time) string {
	var from, to string
	if start != nil && !start.IsZero() {
		from = dates.FormatDisplay(start.Time)
	}
	if due != nil && !due.IsZero() {
		to = dates.FormatDisplay(due.Time)
	}

	switch {
	case from != "" && to != "":
		if from == to {
			return " #date(" + from + ")"
		}
		return " #date(" + from + " - " + to + ")"
	case from != "":
		return " #date(" + from + ")"
	case to != "":
		return " #date(" + to + ")"
	}
	return ""
}

// RenderTask renders one task, with optional description and subtasks, into
// a block of document lines. Deterministic in its inputs. The title line
// assembly order is fixed; the parser depends on it.
func RenderTask(task ticktick.Task, projectName string) string {
	var lines []string

	checkbox := "[ ]"
	if task.Done() {
		checkbox = "[x]"
	}

	title := task.Title
	if projectName != "" {
		title += " #project:" + projectName
	}

	lines = append(lines, "- "+checkbox+" "+PriorityGlyph(task.Priority)+title+dateTag(task.StartDate, task.DueDate))

	if desc := strings.TrimSpace(task.Desc); desc != "" {
		lines = append(lines, "  > "+desc)
	}

	for _, item := range task.Items {
		lines = append(lines, "  "+RenderSubTask(item))
	}

	return strings.Join(lines, "\n")
}

// RenderSubTask renders one checklist item. Subtask lines carry no metadata
// tags.
func RenderSubTask(item ticktick.SubTask) string {
	checkbox := "[ ]"
	if item.Status == ticktick.SubTaskDone {
		checkbox = "[x]"
	}
	return "- " + checkbox + " " + item.Title
}

// DecodeTitleLine recovers the clean title and priority from a rendered
// title line: the checkbox prefix is stripped, exactly one leading priority
// glyph is detected and removed, and the project and date tag patterns are
// removed wherever they occur. Completion state and dates are not recovered
// here; the checkbox and section context belong to the document parser.
func DecodeTitleLine(line string) (title string, priority int) {
	title = checkboxPrefixRe.ReplaceAllString(line, "")

	for glyph, p := range map[string]int{
		"🔴 ": ticktick.PriorityHigh,
		"🟡 ": ticktick.PriorityMedium,
		"🟢 ": ticktick.PriorityLow,
	} {
		if strings.HasPrefix(title, glyph) {
			priority = p
			title = strings.TrimPrefix(title, glyph)
			break
		}
	}

	title = projectTagRe.ReplaceAllString(title, "")
	title = dateTagRe.ReplaceAllString(title, "")
	return strings.TrimSpace(title), priority
}
