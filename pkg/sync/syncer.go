// Package sync implements the two reconciliation passes between TickTick and
// the markdown document: the outbound render (remote tasks -> document) and
// the inbound push (document -> targeted remote mutations).
package sync

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/harrisonrobin/ticksync/pkg/config"
	"github.com/harrisonrobin/ticksync/pkg/dates"
	"github.com/harrisonrobin/ticksync/pkg/markdown"
	"github.com/harrisonrobin/ticksync/pkg/notify"
	"github.com/harrisonrobin/ticksync/pkg/store"
	"github.com/harrisonrobin/ticksync/pkg/ticktick"
)

// Client is the slice of the TickTick API the engine needs. *ticktick.Client
// satisfies it; tests substitute a fake.
type Client interface {
	ListProjects(ctx context.Context) ([]ticktick.Project, error)
	GetProject(ctx context.Context, projectID string) (ticktick.Project, error)
	GetProjectTasks(ctx context.Context, projectID string) ([]ticktick.Task, error)
	GetTask(ctx context.Context, projectID, taskID string) (ticktick.Task, error)
	CreateTask(ctx context.Context, req ticktick.CreateTaskRequest) (ticktick.Task, error)
	UpdateTask(ctx context.Context, taskID string, req ticktick.UpdateTaskRequest) (ticktick.Task, error)
	CompleteTask(ctx context.Context, projectID, taskID string) error
	DeleteTask(ctx context.Context, projectID, taskID string) error
}

// Syncer runs reconciliation passes. A Syncer is not safe for concurrent
// passes; callers serialize (the watch loop does).
type Syncer struct {
	client   Client
	store    store.DocumentStore
	notifier notify.Notifier
	settings *config.Settings
	logger   *log.Logger

	// now is the clock; injectable so tests can pin the reference day.
	now func() time.Time

	// lastContent caches the most recently written outbound document. It is
	// advisory only: the watch loop uses it to recognize self-writes, and it
	// is never consulted for diffing.
	lastContent string
}

// New creates a Syncer over the given collaborators.
func New(client Client, st store.DocumentStore, notifier notify.Notifier, settings *config.Settings) *Syncer {
	return &Syncer{
		client:   client,
		store:    st,
		notifier: notifier,
		settings: settings,
		logger:   log.New(os.Stderr, "[sync] ", log.LstdFlags),
		now:      time.Now,
	}
}

// SetLogger replaces the pass logger.
func (s *Syncer) SetLogger(l *log.Logger) {
	if l != nil {
		s.logger = l
	}
}

// LastContent returns the most recently rendered outbound document, empty
// until the first successful Pull of this process.
func (s *Syncer) LastContent() string {
	return s.lastContent
}

// taskWithProject tags a remote task with its project's display name for
// rendering.
type taskWithProject struct {
	ticktick.Task
	ProjectName string
}

// Pull performs one outbound pass: fetch tasks from every selected project,
// filter, group, render and write the document. A failing project is warned
// about and skipped; the pass always completes.
func (s *Syncer) Pull(ctx context.Context) error {
	if len(s.settings.SelectedProjects) == 0 {
		s.notifier.Info("No projects selected for sync")
		return nil
	}

	now := s.now()
	today := dates.Midnight(now)
	cutoff := today.AddDate(0, 0, -s.settings.CompletedDaysLimit)

	var filtered []taskWithProject
	for _, projectID := range s.settings.SelectedProjects {
		tasks, err := s.client.GetProjectTasks(ctx, projectID)
		if err != nil {
			s.logger.Printf("Failed to fetch tasks for project %s: %v", projectID, err)
			s.notifier.Error("Failed to sync project: %v", err)
			continue
		}
		project, err := s.client.GetProject(ctx, projectID)
		if err != nil {
			s.logger.Printf("Failed to fetch project %s: %v", projectID, err)
			s.notifier.Error("Failed to sync project: %v", err)
			continue
		}

		for _, task := range tasks {
			if task.Completed() {
				if !s.settings.IncludeCompleted {
					continue
				}
				// Tasks with no completedTime are always retained.
				if task.CompletedTime != nil && !task.CompletedTime.IsZero() && task.CompletedTime.Before(cutoff) {
					continue
				}
			}
			filtered = append(filtered, taskWithProject{Task: task, ProjectName: project.Name})
		}
	}

	content := s.renderDocument(filtered, now, today)
	s.lastContent = content

	if err := s.store.Write(s.settings.TargetPagePath, content); err != nil {
		return err
	}

	s.notifier.Info("Synced %d tasks", len(filtered))
	return nil
}

// taskGroups are the display buckets of one outbound pass.
type taskGroups struct {
	today     []taskWithProject
	yesterday []taskWithProject
	tomorrow  []taskWithProject
	noDate    []taskWithProject
}

// renderDocument builds the full document text. Fetch order is preserved
// within each subsection.
func (s *Syncer) renderDocument(tasks []taskWithProject, now, today time.Time) string {
	var lines []string
	lines = append(lines,
		"# TickTick Tasks",
		"Last synced: "+now.Format("2006-01-02 15:04:05"),
		"")

	var todo, completed []taskWithProject
	for _, t := range tasks {
		if t.Completed() {
			completed = append(completed, t)
		} else {
			todo = append(todo, t)
		}
	}

	var todoGroups taskGroups
	for _, t := range todo {
		// Due date wins over start date for bucketing. Yesterday is not a
		// bucket for incomplete tasks; those fall through to no-date.
		var when *time.Time
		if t.DueDate != nil && !t.DueDate.IsZero() {
			when = &t.DueDate.Time
		} else if t.StartDate != nil && !t.StartDate.IsZero() {
			when = &t.StartDate.Time
		}
		switch dates.Classify(when, today) {
		case dates.Today:
			todoGroups.today = append(todoGroups.today, t)
		case dates.Tomorrow:
			todoGroups.tomorrow = append(todoGroups.tomorrow, t)
		default:
			todoGroups.noDate = append(todoGroups.noDate, t)
		}
	}

	var doneGroups taskGroups
	for _, t := range completed {
		var when *time.Time
		if t.CompletedTime != nil && !t.CompletedTime.IsZero() {
			when = &t.CompletedTime.Time
		}
		switch dates.Classify(when, today) {
		case dates.Today:
			doneGroups.today = append(doneGroups.today, t)
		case dates.Yesterday:
			doneGroups.yesterday = append(doneGroups.yesterday, t)
		default:
			doneGroups.noDate = append(doneGroups.noDate, t)
		}
	}

	appendGroup := func(header string, group []taskWithProject) {
		if len(group) == 0 {
			return
		}
		lines = append(lines, header)
		for _, t := range group {
			lines = append(lines, markdown.RenderTask(t.Task, t.ProjectName), "")
		}
		lines = append(lines, "")
	}

	if len(todo) > 0 {
		lines = append(lines, "## To Do", "")
		appendGroup("### Today", todoGroups.today)
		appendGroup("### Tomorrow", todoGroups.tomorrow)
		appendGroup("### No Date", todoGroups.noDate)
	}

	if len(completed) > 0 {
		lines = append(lines, "## Completed", "")
		appendGroup("### Today", doneGroups.today)
		appendGroup("### Yesterday", doneGroups.yesterday)
		appendGroup("### Earlier", doneGroups.noDate)
	}

	return strings.Join(lines, "\n")
}

// Push performs one inbound pass: parse the document, map each task back to
// its project, and issue the minimal remote mutations. One task's failure
// never blocks the rest.
func (s *Syncer) Push(ctx context.Context) error {
	if !s.store.Exists(s.settings.TargetPagePath) {
		s.notifier.Error("Target page not found. Please create it first.")
		return nil
	}

	content, err := s.store.Read(s.settings.TargetPagePath)
	if err != nil {
		return err
	}

	now := s.now()
	tasks, sections := markdown.Parse(content, now)

	projectIDByName := make(map[string]string)
	if projects, err := s.client.ListProjects(ctx); err != nil {
		s.logger.Printf("Failed to get projects: %v", err)
	} else {
		for _, p := range projects {
			projectIDByName[p.Name] = p.ID
		}
	}

	syncCount := 0
	errorCount := 0

	for _, task := range tasks {
		if task.ProjectName == "" {
			continue
		}
		projectID, ok := projectIDByName[task.ProjectName]
		if !ok {
			continue
		}

		section := markdown.SectionFor(task, sections)

		if task.TickTickID != "" {
			if err := s.reconcileExisting(ctx, task, projectID, section, now, &syncCount); err != nil {
				errorCount++
				s.logger.Printf("Failed to sync task %q: %v", task.Title, err)
			}
			continue
		}

		if strings.TrimSpace(task.Title) == "" {
			continue
		}

		req := ticktick.CreateTaskRequest{Title: task.Title, ProjectID: projectID}
		if task.DueDate != nil {
			req.DueDate = &ticktick.Time{Time: *task.DueDate}
		}
		if _, err := s.client.CreateTask(ctx, req); err != nil {
			errorCount++
			s.logger.Printf("Failed to sync task %q: %v", task.Title, err)
			continue
		}
		syncCount++
		s.notifier.Info("Created: %s", task.Title)
	}

	if syncCount > 0 {
		s.notifier.Info("Synced %d changes to TickTick", syncCount)
	}
	if errorCount > 0 {
		s.notifier.Error("%d tasks failed to sync", errorCount)
	}
	return nil
}

// dueDirective is the effective due date a section placement requests:
// no change, an explicit value, or an explicit clear.
type dueDirective int

const (
	dueNoChange dueDirective = iota
	dueSet
	dueClear
)

// effectiveDueDate maps a section placement to the due date the task should
// have. Completed sections never request a change; an unknown or missing
// section doesn't either.
func effectiveDueDate(section *markdown.PageSection, now time.Time) (dueDirective, time.Time) {
	if section == nil {
		return dueNoChange, time.Time{}
	}
	switch section.Type {
	case markdown.SectionTodoToday:
		return dueSet, dates.EndOfDay(now)
	case markdown.SectionTodoTomorrow:
		return dueSet, dates.EndOfDay(now.AddDate(0, 0, 1))
	case markdown.SectionTodoNoDate:
		return dueClear, time.Time{}
	default:
		return dueNoChange, time.Time{}
	}
}

// reconcileExisting diffs one parsed task against its authoritative remote
// record and issues at most one mutation per differing field. The sync
// counter is advanced per successful mutation even when a later step fails.
func (s *Syncer) reconcileExisting(ctx context.Context, task markdown.ParsedTask, projectID string, section *markdown.PageSection, now time.Time, syncCount *int) error {
	remote, err := s.client.GetTask(ctx, projectID, task.TickTickID)
	if err != nil {
		return err
	}

	wasCompleted := remote.Status == ticktick.StatusCompleted
	if wasCompleted && !task.Completed {
		status := ticktick.StatusOpen
		_, err := s.client.UpdateTask(ctx, task.TickTickID, ticktick.UpdateTaskRequest{
			ID:        task.TickTickID,
			ProjectID: projectID,
			Status:    &status,
		})
		if err != nil {
			return err
		}
		*syncCount++
		s.notifier.Info("Reopened: %s", task.Title)
	} else if !wasCompleted && task.Completed {
		if err := s.client.CompleteTask(ctx, projectID, task.TickTickID); err != nil {
			return err
		}
		*syncCount++
		s.notifier.Info("Completed: %s", task.Title)
	}

	if remote.Title != task.Title {
		title := task.Title
		_, err := s.client.UpdateTask(ctx, task.TickTickID, ticktick.UpdateTaskRequest{
			ID:        task.TickTickID,
			ProjectID: projectID,
			Title:     &title,
		})
		if err != nil {
			return err
		}
		*syncCount++
	}

	directive, when := effectiveDueDate(section, now)
	remoteHasDue := remote.DueDate != nil && !remote.DueDate.IsZero()

	var update *ticktick.Time
	switch directive {
	case dueSet:
		if !remoteHasDue || !remote.DueDate.Equal(when) {
			update = &ticktick.Time{Time: when}
		}
	case dueClear:
		if remoteHasDue {
			// An empty Time marshals to "" on the wire: an explicit clear,
			// distinct from leaving the field out.
			update = &ticktick.Time{}
		}
	}

	if update != nil {
		_, err := s.client.UpdateTask(ctx, task.TickTickID, ticktick.UpdateTaskRequest{
			ID:        task.TickTickID,
			ProjectID: projectID,
			DueDate:   update,
		})
		if err != nil {
			return err
		}
		*syncCount++
		s.notifier.Info("Updated date: %s", task.Title)
	}

	return nil
}

// CreateTask creates a single task directly, outside a reconciliation pass.
func (s *Syncer) CreateTask(ctx context.Context, title, projectID string, due *time.Time, priority int) (ticktick.Task, error) {
	req := ticktick.CreateTaskRequest{
		Title:     title,
		ProjectID: projectID,
		Priority:  priority,
	}
	if due != nil {
		req.DueDate = &ticktick.Time{Time: *due}
	}
	return s.client.CreateTask(ctx, req)
}

// Complete marks a remote task completed.
func (s *Syncer) Complete(ctx context.Context, projectID, taskID string) error {
	return s.client.CompleteTask(ctx, projectID, taskID)
}

// Delete removes a remote task.
func (s *Syncer) Delete(ctx context.Context, projectID, taskID string) error {
	return s.client.DeleteTask(ctx, projectID, taskID)
}
