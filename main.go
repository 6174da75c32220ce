package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/harrisonrobin/ticksync/pkg/auth"
	"github.com/harrisonrobin/ticksync/pkg/config"
	"github.com/harrisonrobin/ticksync/pkg/dates"
	"github.com/harrisonrobin/ticksync/pkg/notify"
	"github.com/harrisonrobin/ticksync/pkg/store"
	"github.com/harrisonrobin/ticksync/pkg/sync"
	"github.com/harrisonrobin/ticksync/pkg/ticktick"
	"github.com/harrisonrobin/ticksync/pkg/watch"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "ticksync",
		Short:   "Sync TickTick tasks with a markdown document, in both directions",
		Version: Version,
	}

	rootCmd.AddCommand(authCmd())
	rootCmd.AddCommand(pullCmd())
	rootCmd.AddCommand(pushCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(projectsCmd())
	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(completeCmd())
	rootCmd.AddCommand(deleteCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildSyncer wires the client, store and notifier for one command
// invocation. The token source persists refreshed tokens back to the
// settings file.
func buildSyncer(ctx context.Context, cfg *config.Settings) (*sync.Syncer, *store.FileStore, error) {
	tokens, err := auth.TokenSource(ctx, cfg, config.Save)
	if err != nil {
		return nil, nil, err
	}
	client := ticktick.NewClient(tokens)
	fileStore := store.NewFileStore(cfg.VaultDir)
	notifier := notify.NewLogNotifier(log.New(os.Stderr, "[ticksync] ", log.LstdFlags))
	return sync.New(client, fileStore, notifier, cfg), fileStore, nil
}

func authCmd() *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize with TickTick (prints the URL, then exchange the pasted code)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			if code == "" {
				code = cfg.AuthCode
			}
			if code == "" {
				if cfg.ClientID == "" || cfg.ClientSecret == "" {
					return fmt.Errorf("set client-id and client-secret first: ticksync config --client-id X --client-secret Y")
				}
				fmt.Println("Open the following URL in your browser to authorize ticksync:")
				fmt.Println(auth.AuthCodeURL(cfg))
				fmt.Println("Then run: ticksync auth --code <code from the redirect URL>")
				return nil
			}

			if err := auth.Exchange(cmd.Context(), cfg, code); err != nil {
				return err
			}
			if err := config.Save(cfg); err != nil {
				return err
			}
			fmt.Println("Authentication successful! Token saved.")
			return nil
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "Authorization code pasted from the redirect URL")
	return cmd
}

func pullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Fetch remote tasks and render the markdown document",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			syncer, _, err := buildSyncer(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return syncer.Pull(cmd.Context())
		},
	}
}

func pushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Parse the markdown document and push changes to TickTick",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			syncer, _, err := buildSyncer(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return syncer.Push(cmd.Context())
		},
	}
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the document for edits and sync continuously",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			if cfg.LogFile != "" {
				log.SetOutput(&lumberjack.Logger{
					Filename:   cfg.LogFile,
					MaxSize:    5, // megabytes
					MaxBackups: 3,
					MaxAge:     28, // days
				})
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			syncer, fileStore, err := buildSyncer(ctx, cfg)
			if err != nil {
				return err
			}

			watchCfg := watch.DefaultConfig()
			if cfg.AutoSync && cfg.SyncInterval > 0 {
				watchCfg.PullInterval = time.Duration(cfg.SyncInterval) * time.Minute
			}

			// Initial pull so the document starts fresh.
			if err := syncer.Pull(ctx); err != nil {
				log.Printf("Initial pull failed: %v", err)
			}

			w, err := watch.New(syncer, fileStore, cfg, watchCfg)
			if err != nil {
				return err
			}
			return w.Run(ctx)
		},
	}
}

func projectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List remote projects, marking the selected ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			tokens, err := auth.TokenSource(cmd.Context(), cfg, config.Save)
			if err != nil {
				return err
			}
			client := ticktick.NewClient(tokens)

			projects, err := client.ListProjects(cmd.Context())
			if err != nil {
				return err
			}

			selected := make(map[string]bool, len(cfg.SelectedProjects))
			for _, id := range cfg.SelectedProjects {
				selected[id] = true
			}

			for _, p := range projects {
				mark := " "
				if selected[p.ID] {
					mark = "*"
				}
				fmt.Printf("%s %-24s %s\n", mark, p.ID, p.Name)
			}
			return nil
		},
	}
}

func addCmd() *cobra.Command {
	var projectID, due string
	var priority int

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task in TickTick",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			syncer, _, err := buildSyncer(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			if projectID == "" {
				if len(cfg.SelectedProjects) == 0 {
					return fmt.Errorf("no project given and none selected in config")
				}
				projectID = cfg.SelectedProjects[0]
			}

			var dueTime *time.Time
			if due != "" {
				t, ok := dates.ParseFlexible(due, time.Now())
				if !ok {
					return fmt.Errorf("could not parse due date %q", due)
				}
				dueTime = &t
			}

			task, err := syncer.CreateTask(cmd.Context(), args[0], projectID, dueTime, priority)
			if err != nil {
				return err
			}
			fmt.Printf("Task created: %s (%s)\n", task.Title, task.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&projectID, "project", "p", "", "Project identifier (defaults to the first selected project)")
	cmd.Flags().StringVarP(&due, "due", "d", "", "Due date (e.g. 2024-01-15, 'tomorrow at 5pm')")
	cmd.Flags().IntVar(&priority, "priority", 0, "Priority: 0 none, 1 low, 3 medium, 5 high")
	return cmd
}

func completeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <projectID> <taskID>",
		Short: "Mark a remote task completed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			syncer, _, err := buildSyncer(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return syncer.Complete(cmd.Context(), args[0], args[1])
		},
	}
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <projectID> <taskID>",
		Short: "Delete a remote task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			syncer, _, err := buildSyncer(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return syncer.Delete(cmd.Context(), args[0], args[1])
		},
	}
}

func configCmd() *cobra.Command {
	var (
		page, projects, clientID, clientSecret, vault, logFile string
		interval, completedDays                                int
		autoSync, includeCompleted                             bool
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or update settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			changed := false
			flags := cmd.Flags()
			if flags.Changed("page") {
				cfg.TargetPagePath = page
				changed = true
			}
			if flags.Changed("projects") {
				cfg.SelectedProjects = nil
				for _, id := range strings.Split(projects, ",") {
					if id = strings.TrimSpace(id); id != "" {
						cfg.SelectedProjects = append(cfg.SelectedProjects, id)
					}
				}
				changed = true
			}
			if flags.Changed("interval") {
				cfg.SyncInterval = interval
				changed = true
			}
			if flags.Changed("completed-days") {
				cfg.CompletedDaysLimit = completedDays
				changed = true
			}
			if flags.Changed("auto-sync") {
				cfg.AutoSync = autoSync
				changed = true
			}
			if flags.Changed("include-completed") {
				cfg.IncludeCompleted = includeCompleted
				changed = true
			}
			if flags.Changed("client-id") {
				cfg.ClientID = clientID
				changed = true
			}
			if flags.Changed("client-secret") {
				cfg.ClientSecret = clientSecret
				changed = true
			}
			if flags.Changed("vault") {
				cfg.VaultDir = vault
				changed = true
			}
			if flags.Changed("log-file") {
				cfg.LogFile = logFile
				changed = true
			}

			if changed {
				if err := config.Save(cfg); err != nil {
					return err
				}
				fmt.Println("Settings saved.")
				return nil
			}

			fmt.Printf("Target page:        %s\n", cfg.TargetPagePath)
			fmt.Printf("Vault directory:    %s\n", cfg.VaultDir)
			fmt.Printf("Selected projects:  %s\n", strings.Join(cfg.SelectedProjects, ", "))
			fmt.Printf("Sync interval:      %d min\n", cfg.SyncInterval)
			fmt.Printf("Auto sync:          %v\n", cfg.AutoSync)
			fmt.Printf("Include completed:  %v\n", cfg.IncludeCompleted)
			fmt.Printf("Completed window:   %d days\n", cfg.CompletedDaysLimit)
			fmt.Printf("Authenticated:      %v\n", cfg.AccessToken != "")
			return nil
		},
	}

	cmd.Flags().StringVar(&page, "page", "", "Target page path ('.md' appended if absent)")
	cmd.Flags().StringVar(&projects, "projects", "", "Comma-separated project identifiers to sync")
	cmd.Flags().IntVar(&interval, "interval", 5, "Sync interval in minutes")
	cmd.Flags().IntVar(&completedDays, "completed-days", 7, "Trailing-day window for completed tasks")
	cmd.Flags().BoolVar(&autoSync, "auto-sync", true, "Enable the periodic pull in watch mode")
	cmd.Flags().BoolVar(&includeCompleted, "include-completed", false, "Include completed tasks in the document")
	cmd.Flags().StringVar(&clientID, "client-id", "", "TickTick API client ID")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "TickTick API client secret")
	cmd.Flags().StringVar(&vault, "vault", "", "Directory holding the target document")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Rotated log file for watch mode")
	return cmd
}
