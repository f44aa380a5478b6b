package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Souleye05/legal-agenda-sub000/internal/config"
	"github.com/Souleye05/legal-agenda-sub000/internal/db"
	"github.com/Souleye05/legal-agenda-sub000/internal/domain"
	"github.com/Souleye05/legal-agenda-sub000/internal/engine"
	"github.com/Souleye05/legal-agenda-sub000/internal/migrate"
	"github.com/Souleye05/legal-agenda-sub000/internal/repo"
	"github.com/Souleye05/legal-agenda-sub000/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "agenda",
	Short: "Hearing and deadline agenda for a law office",
	Long: `Agenda tracks court cases, their hearings and the deadlines around them.
- Cases hold hearings; a hearing is upcoming until its outcome is recorded.
- Outcomes cascade: a renvoi schedules the next hearing, a radiation radiates
  the case, a délibéré closes it and can open an appeal window.
- A daily sweep flags hearings that passed without an outcome and alerts the
  office until someone records what happened.
- Enrollment reminders fire a few business days before hearings that need a
  court filing; appeal reminders count down to the appeal deadline.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("AGENDA")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
}

func registerCommands() {
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(caseCmd())
	rootCmd.AddCommand(hearingCmd())
	rootCmd.AddCommand(reminderCmd())
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(alertCmd())
	rootCmd.AddCommand(apikeyCmd())
	rootCmd.AddCommand(serveCmd())
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{Use: "config", Short: "Manage workspace config"}
	cfg.AddCommand(configInitCmd())
	cfg.AddCommand(configShowCmd())
	return cfg
}

func configInitCmd() *cobra.Command {
	var officeID string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default agenda.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			path := config.Path(workspace)
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault(officeID)), 0o644); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&officeID, "office-id", "office", "office identifier")
	return cmd
}

func configShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOptional(viper.GetString("workspace"), "office")
			if err != nil {
				return err
			}
			return printJSON(cfg)
		},
	}
	return cmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := db.Open(db.Config{Workspace: viper.GetString("workspace")})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			fmt.Println("Migrations applied.")
			return nil
		},
	}
	return cmd
}

func caseCmd() *cobra.Command {
	c := &cobra.Command{Use: "case", Short: "Manage cases"}
	c.AddCommand(caseCreateCmd())
	c.AddCommand(caseListCmd())
	c.AddCommand(caseShowCmd())
	return c
}

func caseCreateCmd() *cobra.Command {
	var reference, title, opposing, owner string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a case",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				c, err := e.CreateCase(ctx, engine.CaseCreateOptions{
					Reference:     reference,
					Title:         title,
					OpposingParty: opposing,
					OwnerID:       owner,
					ActorID:       viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSON(c)
			})
		},
	}
	cmd.Flags().StringVar(&reference, "reference", "", "court reference (RG number)")
	cmd.Flags().StringVar(&title, "title", "", "case title")
	cmd.Flags().StringVar(&opposing, "opposing-party", "", "opposing party")
	cmd.Flags().StringVar(&owner, "owner-id", "", "responsible lawyer")
	_ = cmd.MarkFlagRequired("reference")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func caseListCmd() *cobra.Command {
	var status string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cases",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListCases(ctx, status, limit)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Reference", "Title", "Status", "Owner"})
				for _, c := range items {
					tw.AppendRow(table.Row{c.ID, c.Reference, c.Title, c.Status, c.OwnerID})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "status filter (active, closed, radiated)")
	cmd.Flags().IntVar(&limit, "limit", 0, "max rows")
	return cmd
}

func caseShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <case-id>",
		Short: "Show a case and its hearings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				c, err := e.Repo.GetCase(ctx, args[0])
				if err != nil {
					return err
				}
				hearings, err := e.Repo.ListHearings(ctx, repo.HearingFilters{CaseID: c.ID})
				if err != nil {
					return err
				}
				return printJSON(map[string]any{"case": c, "hearings": hearings})
			})
		},
	}
	return cmd
}

func hearingCmd() *cobra.Command {
	h := &cobra.Command{Use: "hearing", Short: "Manage hearings"}
	h.AddCommand(hearingCreateCmd())
	h.AddCommand(hearingListCmd())
	h.AddCommand(hearingUnreportedCmd())
	h.AddCommand(hearingResultCmd())
	h.AddCommand(hearingEnrollDoneCmd())
	return h
}

func hearingCreateCmd() *cobra.Command {
	var opts engine.HearingCreateOptions
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Schedule a hearing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				opts.ActorID = viper.GetString("actor-id")
				h, err := e.CreateHearing(ctx, opts)
				if err != nil {
					return err
				}
				return printJSON(h)
			})
		},
	}
	cmd.Flags().StringVar(&opts.CaseID, "case-id", "", "case id")
	cmd.Flags().StringVar(&opts.Date, "date", "", "hearing date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.Time, "time", "", "hearing time (HH:MM)")
	cmd.Flags().StringVar(&opts.Type, "type", "", "hearing type (Mise en état, Plaidoirie, ...)")
	cmd.Flags().StringVar(&opts.Court, "court", "", "court")
	cmd.Flags().StringVar(&opts.PrepNotes, "prep-notes", "", "preparation notes")
	cmd.Flags().BoolVar(&opts.EnrollRequired, "enroll", false, "hearing requires enrollment")
	_ = cmd.MarkFlagRequired("case-id")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func hearingListCmd() *cobra.Command {
	var f repo.HearingFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List hearings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListHearings(ctx, f)
				if err != nil {
					return err
				}
				return printHearings(items)
			})
		},
	}
	cmd.Flags().StringVar(&f.CaseID, "case-id", "", "case filter")
	cmd.Flags().StringVar(&f.Status, "status", "", "status filter (upcoming, held, unreported)")
	cmd.Flags().StringVar(&f.DateFrom, "from", "", "earliest date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.DateBefore, "before", "", "latest date, exclusive (YYYY-MM-DD)")
	cmd.Flags().IntVar(&f.Limit, "limit", 0, "max rows")
	return cmd
}

func hearingUnreportedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unreported",
		Short: "List hearings awaiting an outcome",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListUnreportedHearings(ctx)
				if err != nil {
					return err
				}
				return printHearings(items)
			})
		},
	}
	return cmd
}

func hearingResultCmd() *cobra.Command {
	var opts engine.ResultOptions
	cmd := &cobra.Command{
		Use:   "result <hearing-id>",
		Short: "Record a hearing outcome",
		Long: `Record what happened at a hearing. The outcome cascades:
- renvoi with --new-date schedules the follow-up hearing
- radiation radiates the case
- delibere closes the case; add --appeal to open the appeal window`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				opts.HearingID = args[0]
				opts.ActorID = viper.GetString("actor-id")
				h, res, err := e.RecordResult(ctx, opts)
				if err != nil {
					return err
				}
				return printJSON(map[string]any{"hearing": h, "result": res})
			})
		},
	}
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "outcome kind (renvoi, radiation, delibere)")
	cmd.Flags().StringVar(&opts.NewDate, "new-date", "", "follow-up hearing date for renvoi")
	cmd.Flags().StringVar(&opts.Reason, "reason", "", "reason for renvoi or radiation")
	cmd.Flags().StringVar(&opts.Decision, "decision", "", "decision summary for delibere")
	cmd.Flags().BoolVar(&opts.AppealOptIn, "appeal", false, "open the appeal window (delibere only)")
	cmd.Flags().StringVar(&opts.AppealDeadline, "appeal-deadline", "", "appeal deadline (defaults to the configured window)")
	cmd.Flags().StringVar(&opts.AppealNotes, "appeal-notes", "", "appeal reminder notes")
	_ = cmd.MarkFlagRequired("kind")
	return cmd
}

func hearingEnrollDoneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enroll-done <hearing-id>",
		Short: "Mark a hearing's enrollment as done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				h, err := e.MarkEnrollmentComplete(ctx, args[0], viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSON(h)
			})
		},
	}
	return cmd
}

func reminderCmd() *cobra.Command {
	r := &cobra.Command{Use: "reminder", Short: "Appeal and enrollment reminders"}
	r.AddCommand(reminderCreateCmd())
	r.AddCommand(reminderListCmd())
	r.AddCommand(reminderCompletedCmd())
	r.AddCommand(reminderCompleteCmd())
	r.AddCommand(reminderUpdateCmd())
	r.AddCommand(reminderDeleteCmd())
	r.AddCommand(reminderEnrollmentCmd())
	return r
}

func reminderCreateCmd() *cobra.Command {
	var opts engine.ReminderCreateOptions
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an appeal deadline reminder",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				opts.ActorID = viper.GetString("actor-id")
				rem, err := e.CreateAppealReminder(ctx, opts)
				if err != nil {
					return err
				}
				return printJSON(rem)
			})
		},
	}
	cmd.Flags().StringVar(&opts.CaseID, "case-id", "", "case id")
	cmd.Flags().StringVar(&opts.Deadline, "deadline", "", "deadline (defaults to the configured window from today)")
	cmd.Flags().StringVar(&opts.Notes, "notes", "", "notes")
	_ = cmd.MarkFlagRequired("case-id")
	return cmd
}

func reminderListCmd() *cobra.Command {
	var caseID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active appeal reminders, soonest deadline first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListActiveReminders(ctx, caseID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Case", "Deadline", "Days left", "Notes"})
				for _, v := range items {
					tw.AppendRow(table.Row{v.ID, v.CaseID, v.Deadline, v.DaysLeft, v.Notes})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&caseID, "case-id", "", "case filter")
	return cmd
}

func reminderCompletedCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "completed",
		Short: "List completed appeal reminders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListCompletedReminders(ctx, limit)
				if err != nil {
					return err
				}
				return printJSON(items)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "max rows")
	return cmd
}

func reminderCompleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "complete <reminder-id>",
		Short: "Mark an appeal reminder complete",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				rem, err := e.MarkAppealReminderComplete(ctx, args[0], viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSON(rem)
			})
		},
	}
	return cmd
}

func reminderUpdateCmd() *cobra.Command {
	var deadline, notes string
	cmd := &cobra.Command{
		Use:   "update <reminder-id>",
		Short: "Update an appeal reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				opts := engine.ReminderUpdateOptions{
					ID:      args[0],
					ActorID: viper.GetString("actor-id"),
				}
				if cmd.Flags().Changed("deadline") {
					opts.Deadline = &deadline
				}
				if cmd.Flags().Changed("notes") {
					opts.Notes = &notes
				}
				rem, err := e.UpdateAppealReminder(ctx, opts)
				if err != nil {
					return err
				}
				return printJSON(rem)
			})
		},
	}
	cmd.Flags().StringVar(&deadline, "deadline", "", "new deadline (YYYY-MM-DD)")
	cmd.Flags().StringVar(&notes, "notes", "", "new notes")
	return cmd
}

func reminderDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <reminder-id>",
		Short: "Delete an appeal reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteAppealReminder(ctx, args[0], viper.GetString("actor-id"))
			})
		},
	}
	return cmd
}

func reminderEnrollmentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enrollment",
		Short: "List hearings whose enrollment is due",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListEnrollmentReminders(ctx)
				if err != nil {
					return err
				}
				return printHearings(items)
			})
		},
	}
	return cmd
}

func sweepCmd() *cobra.Command {
	s := &cobra.Command{Use: "sweep", Short: "Unreported-hearing sweep"}
	s.AddCommand(sweepRunCmd())
	s.AddCommand(sweepCheckCmd())
	return s
}

func sweepRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the daily sweep now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				report, err := e.RunDailySweep(ctx, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSON(report)
			})
		},
	}
	return cmd
}

func sweepCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Count hearings the next sweep would flag",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				n, err := e.CountLapsed(ctx)
				if err != nil {
					return err
				}
				return printJSON(map[string]int{"lapsed": n})
			})
		},
	}
	return cmd
}

func alertCmd() *cobra.Command {
	a := &cobra.Command{Use: "alert", Short: "Unreported-hearing alerts"}
	a.AddCommand(alertListCmd())
	a.AddCommand(alertFlushCmd())
	return a
}

func alertListCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List alerts by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListAlertsByStatus(ctx, status)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Hearing", "Status", "Sends", "Last sent"})
				for _, a := range items {
					last := ""
					if a.LastSentAt != nil {
						last = *a.LastSentAt
					}
					tw.AppendRow(table.Row{a.ID, a.HearingID, a.Status, a.SendCount, last})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "pending", "status (pending, sent, resolved)")
	return cmd
}

func alertFlushCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flush",
		Short: "Send all pending alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				sent, err := e.FlushPending(ctx, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSON(map[string]int{"sent": sent})
			})
		},
	}
	return cmd
}

func apikeyCmd() *cobra.Command {
	k := &cobra.Command{Use: "apikey", Short: "Manage API keys"}
	k.AddCommand(apikeyCreateCmd())
	k.AddCommand(apikeyListCmd())
	k.AddCommand(apikeyDeleteCmd())
	return k
}

func apikeyCreateCmd() *cobra.Command {
	var actorID, name string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key (the key is printed once)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				key := uuid.New().String()
				record := domain.APIKey{
					ID:      uuid.New().String(),
					ActorID: actorID,
					Name:    name,
					KeyHash: repo.HashAPIKey(key),
				}
				if err := e.Repo.InsertAPIKey(ctx, record); err != nil {
					return err
				}
				return printJSON(map[string]string{
					"id":       record.ID,
					"actor_id": record.ActorID,
					"name":     record.Name,
					"key":      key,
				})
			})
		},
	}
	cmd.Flags().StringVar(&actorID, "actor-id", "", "actor the key authenticates as")
	cmd.Flags().StringVar(&name, "name", "", "key label")
	_ = cmd.MarkFlagRequired("actor-id")
	return cmd
}

func apikeyListCmd() *cobra.Command {
	var actorID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListAPIKeys(ctx, actorID)
				if err != nil {
					return err
				}
				return printJSON(items)
			})
		},
	}
	cmd.Flags().StringVar(&actorID, "actor-id", "", "actor filter")
	return cmd
}

func apikeyDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <key-id>",
		Short: "Delete an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.Repo.DeleteAPIKey(ctx, args[0])
			})
		},
	}
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	var allowActorHeader bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server and the background sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			cfg, err := config.LoadOptional(workspace, "office")
			if err != nil {
				return err
			}
			e := engine.New(conn, cfg)
			authCfg := server.AuthConfig{
				JWTSecret:              os.Getenv("AGENDA_JWT_SECRET"),
				AllowLegacyActorHeader: allowActorHeader,
			}
			if authCfg.JWTSecret == "" && !allowActorHeader {
				return fmt.Errorf("AGENDA_JWT_SECRET is required for bearer auth (or pass --allow-actor-header for local use)")
			}
			handler, err := server.New(server.Config{Engine: e, BasePath: basePath, Auth: authCfg})
			if err != nil {
				return err
			}
			engine.StartSweeper(e)
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving agenda API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	cmd.Flags().BoolVar(&allowActorHeader, "allow-actor-header", false, "accept the unauthenticated X-Actor-Id header")
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	cfg, err := config.LoadOptional(workspace, "office")
	if err != nil {
		return err
	}
	return fn(ctx, engine.New(conn, cfg))
}

func printHearings(items []domain.Hearing) error {
	if viper.GetBool("json") {
		return printJSON(items)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"ID", "Case", "Date", "Time", "Type", "Court", "Status"})
	for _, h := range items {
		at := ""
		if h.Time != nil {
			at = *h.Time
		}
		tw.AppendRow(table.Row{h.ID, h.CaseID, h.Date, at, h.Type, h.Court, h.Status})
	}
	tw.Render()
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
