package markdown

import (
	"regexp"
	"strings"
	"time"

	"github.com/harrisonrobin/ticksync/pkg/dates"
)

var (
	sectionRe  = regexp.MustCompile(`^##?\s*(.+)$`)
	taskLineRe = regexp.MustCompile(`^\s*-\s*\[([ xX])\]\s*(.*)$`)
)

// classifySection maps a trimmed heading name onto the closed taxonomy.
// "To Do" and "Completed" are recognized group headers but carry no date
// meaning, so they classify as unknown like any other name. Note "Today" maps
// to todo-today regardless of which group it sits under; the classifier sees
// only the heading name, so completed-today is never produced by a scan even
// though the taxonomy defines it.
func classifySection(name string, line int) PageSection {
	section := PageSection{Name: name, Type: SectionUnknown, StartLine: line}

	switch strings.ToLower(name) {
	case "today":
		section.Type = SectionTodoToday
	case "tomorrow":
		section.Type = SectionTodoTomorrow
	case "no date":
		section.Type = SectionTodoNoDate
	case "yesterday":
		section.Type = SectionCompletedYesterday
	case "earlier":
		section.Type = SectionCompletedEarlier
	}
	return section
}

// Parse scans a document line by line and extracts task records and section
// headers. now anchors the section-driven date inference; callers pass the
// reference instant of the current reconciliation pass.
func Parse(content string, now time.Time) ([]ParsedTask, []PageSection) {
	lines := strings.Split(content, "\n")

	var tasks []ParsedTask
	var sections []PageSection

	current := PageSection{Name: "Unknown", Type: SectionUnknown, StartLine: 0}

	for i, line := range lines {
		if m := sectionRe.FindStringSubmatch(line); m != nil {
			// Deeper headings ("### Today") leave residual '#' characters in
			// the captured name; strip them before classifying.
			name := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(m[1]), "#"))
			current = classifySection(name, i)
			sections = append(sections, current)
			continue
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		m := taskLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		completed := strings.EqualFold(m[1], "x")
		raw := strings.TrimSpace(m[2])

		projectName := ""
		if pm := projectTagRe.FindStringSubmatch(raw); pm != nil {
			projectName = pm[1]
		}

		var dueDate, startDate *time.Time
		dm := dateTagRe.FindStringSubmatch(raw)
		if dm != nil {
			parts := strings.Split(dm[1], " - ")
			if len(parts) >= 2 {
				if t, ok := dates.ParseFlexible(parts[0], now); ok {
					startDate = &t
				}
				if t, ok := dates.ParseFlexible(parts[1], now); ok {
					dueDate = &t
				}
			} else if t, ok := dates.ParseFlexible(parts[0], now); ok {
				// A single date always lands in dueDate, completed or not.
				dueDate = &t
			}
		}

		// No inline tag: uncompleted tasks inherit a due date from the
		// enclosing section.
		if dm == nil && !completed {
			switch current.Type {
			case SectionTodoToday:
				t := dates.EndOfDay(now)
				dueDate = &t
			case SectionTodoTomorrow:
				t := dates.EndOfDay(now.AddDate(0, 0, 1))
				dueDate = &t
			}
		}

		title := projectTagRe.ReplaceAllString(raw, "")
		title = dateTagRe.ReplaceAllString(title, "")

		tasks = append(tasks, ParsedTask{
			ProjectName: projectName,
			Title:       strings.TrimSpace(title),
			Completed:   completed,
			DueDate:     dueDate,
			StartDate:   startDate,
			RawLine:     line,
			Line:        i,
		})
	}

	return tasks, sections
}

// SectionFor resolves the section a parsed task physically sits under: the
// nearest header above the task's line. Nil when the task precedes every
// header.
func SectionFor(task ParsedTask, sections []PageSection) *PageSection {
	for i := len(sections) - 1; i >= 0; i-- {
		if sections[i].StartLine < task.Line {
			return &sections[i]
		}
	}
	return nil
}
