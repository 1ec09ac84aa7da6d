package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dispatchboard/internal/app"
	"dispatchboard/internal/config"
	"dispatchboard/internal/db"
	"dispatchboard/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Dispatch board CLI",
	Long: `dispatch schedules field-service work orders onto technicians.
- Workspace: a directory holding dispatch.db and an optional dispatch.yml.
- Work orders: jobs with a time window, a priority, a status and assigned technicians.
- Schedule: the day, week or month grid of technician rows. Moves follow the same rules as the board.
- Remote mode: --remote points every command at a running 'dispatch serve' instead of the local database.
- Event log: every change is recorded, view it with 'dispatch log tail'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("DISPATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().StringP("user", "u", "", "acting user id (local mode, defaults to the seeded admin)")
	rootCmd.PersistentFlags().String("remote", "", "base URL of a dispatch server, e.g. http://127.0.0.1:8080")
	rootCmd.PersistentFlags().String("token", "", "API key (dk_...) or bearer token for --remote")
	for _, name := range []string{"workspace", "json", "user", "remote", "token"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

func registerCommands() {
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(technicianCmd())
	rootCmd.AddCommand(customerCmd())
	rootCmd.AddCommand(workOrderCmd())
	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(logCmd())
}

func initCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a workspace with a default dispatch.yml and an admin user",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			if _, err := db.EnsureWorkspace(workspace); err != nil {
				return err
			}
			path := config.Path(workspace)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			a, err := app.Open(cmd.Context(), workspace)
			if err != nil {
				return err
			}
			defer a.Close()
			admin, err := a.ResolveUser(cmd.Context(), "")
			if err != nil {
				return err
			}
			return printJSONOrTable(map[string]string{
				"workspace": workspace,
				"config":    path,
				"database":  db.Path(workspace),
				"admin":     admin.ID,
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing dispatch.yml")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	var devAuth, verbose bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			if _, err := db.EnsureWorkspace(workspace); err != nil {
				return err
			}
			a, err := app.Open(cmd.Context(), workspace)
			if err != nil {
				return err
			}
			defer a.Close()

			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			if !cmd.Flags().Changed("addr") && a.Config.Server.Addr != "" {
				addr = a.Config.Server.Addr
			}
			if !cmd.Flags().Changed("base-path") && a.Config.Server.BasePath != "" {
				basePath = a.Config.Server.BasePath
			}
			authCfg := server.AuthConfig{
				JWTSecret:       viper.GetString("jwt-secret"),
				AllowUserHeader: devAuth,
				Logger:          logger,
			}
			if authCfg.JWTSecret == "" && !devAuth {
				return fmt.Errorf("DISPATCH_JWT_SECRET is required for bearer auth (or pass --dev-auth)")
			}
			handler, err := server.New(server.Config{Engine: a.Engine, BasePath: basePath, Auth: authCfg, Logger: logger})
			if err != nil {
				return err
			}
			server.StartWebhooks(cmd.Context(), a.Engine, logger)

			srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			logger.Info("serving dispatch API", "addr", addr, "base_path", basePath, "docs", basePath+"/docs", "dev_auth", devAuth)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Info("server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address (defaults to server.addr)")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path (defaults to server.base_path)")
	cmd.Flags().BoolVar(&devAuth, "dev-auth", false, "accept X-User-Id without credentials (local development only)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	return cmd
}

func logCmd() *cobra.Command {
	log := &cobra.Command{
		Use:   "log",
		Short: "Event log",
		Long:  "Every work order, technician, customer and user change, newest first.",
	}
	log.AddCommand(logTailCmd())
	return log
}

func logTailCmd() *cobra.Command {
	var n int
	var f eventFilter
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), func(ctx context.Context, b backend) error {
				items, err := b.RecentEvents(ctx, n, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := newTable("ID", "Time", "Type", "Entity", "Actor")
				for _, evt := range items {
					tw.AppendRow(table.Row{evt.ID, evt.TS, evt.Type, evt.EntityKind + ":" + evt.EntityID, evt.ActorID})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&f.Type, "type", "", "event type filter")
	cmd.Flags().StringVar(&f.EntityKind, "entity-kind", "", "entity kind")
	cmd.Flags().StringVar(&f.EntityID, "entity-id", "", "entity id")
	return cmd
}

// --- helpers ---

func newTable(header ...any) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row(header))
	return tw
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
