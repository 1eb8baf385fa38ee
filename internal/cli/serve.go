package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tsawler/tabsift/pipeline"
	"github.com/tsawler/tabsift/server"
	"github.com/tsawler/tabsift/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve table classification over HTTP",
	Long: `Run the HTTP API until interrupted.

Examples:
  tabsift serve
  tabsift serve --addr 127.0.0.1:9000 --db tables.db`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().String("db", "", "SQLite database for stored tables (enables /v1/tables)")
	serveCmd.Flags().IntP("jobs", "j", 0, "tables classified in parallel per upload (0 = unlimited)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	dbPath, _ := cmd.Flags().GetString("db")
	jobs, _ := cmd.Flags().GetInt("jobs")
	log := settings.logger

	opts := []server.Option{server.WithLogger(log)}
	if dbPath != "" {
		s, err := store.Open(dbPath)
		if err != nil {
			return err
		}
		defer s.Close()
		opts = append(opts, server.WithStore(s))
		log.Info("store opened", "path", dbPath)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := pipeline.New(settings.cfg, pipeline.WithLogger(log), pipeline.WithConcurrency(jobs))
	return server.New(p, opts...).ListenAndServe(ctx, addr)
}
