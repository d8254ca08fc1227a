package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/recolte/collect"
	"github.com/hazyhaar/recolte/record"
)

var initdbCmd = &cobra.Command{
	Use:   "initdb",
	Short: "Create the record database and apply the schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cfg, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		fmt.Printf("database ready at %s\n", cfg.DBPath)
		return nil
	},
}

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Harvest the configured subreddits once",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cfg, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		collector := collect.NewCollectorFromConfig(store, cfg, nil)

		ctx, stop := signalContext()
		defer stop()
		run, err := collector.Run(ctx)
		if run != nil {
			fmt.Printf("seen %d, new %d, updated %d in %dms\n",
				run.ItemsSeen, run.ItemsNew, run.ItemsUpdated, run.DurationMs)
			if run.Error != "" {
				fmt.Fprintf(os.Stderr, "partial failures: %s\n", run.Error)
			}
		}
		return err
	},
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score all unprocessed records",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cfg, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		scorer := collect.NewScorer(cfg.Scorer, nil)
		ctx, stop := signalContext()
		defer stop()
		n, err := scorer.ScorePending(ctx, store)
		if err != nil {
			return err
		}
		fmt.Printf("scored %d records\n", n)
		return nil
	},
}

var (
	listLimit int
	listOrder string
	listAsc   bool
	listJSON  bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List records, best score first by default",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx, stop := signalContext()
		defer stop()
		recs, err := store.List(ctx, record.ListOptions{
			Limit:     listLimit,
			OrderBy:   listOrder,
			Ascending: listAsc,
		})
		if err != nil {
			return err
		}

		if listJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(recs)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SCORE\tSOURCE\tID\tPROC\tTITLE")
		for _, r := range recs {
			score := "-"
			if r.Score != nil {
				score = fmt.Sprintf("%.2f", *r.Score)
			}
			proc := " "
			if r.Processed {
				proc = "x"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", score, r.Source, r.SourceID, proc, truncate(r.Title, 70))
		}
		return w.Flush()
	},
}

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every record as JSON lines",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx, stop := signalContext()
		defer stop()
		recs, err := store.List(ctx, record.ListOptions{OrderBy: "id", Ascending: true})
		if err != nil {
			return err
		}

		out := os.Stdout
		if exportOut != "" {
			f, err := os.Create(exportOut)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}

		enc := json.NewEncoder(out)
		for _, r := range recs {
			if err := enc.Encode(r.ToPlain()); err != nil {
				return err
			}
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show store counters and recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		ctx, stop := signalContext()
		defer stop()

		stats, err := store.Stats(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("records: %d (processed %d, scored %d)\n", stats.Records, stats.Processed, stats.Scored)
		for source, n := range stats.BySource {
			fmt.Printf("  %s: %d\n", source, n)
		}

		runs, err := store.RecentRuns(ctx, 5)
		if err != nil {
			return err
		}
		fmt.Printf("runs: %d\n", stats.Runs)
		for _, r := range runs {
			status := "ok"
			if r.Error != "" {
				status = r.Error
			}
			fmt.Printf("  %s %s seen=%d new=%d updated=%d %s\n",
				time.UnixMilli(r.StartedAt).Format(time.RFC3339), r.Source,
				r.ItemsSeen, r.ItemsNew, r.ItemsUpdated, status)
		}
		return nil
	},
}

var clearYes bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every record (requires --yes)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !clearYes {
			return errors.New("refusing to clear without --yes")
		}
		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx, stop := signalContext()
		defer stop()
		n, err := store.ClearAll(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("deleted %d records\n", n)
		return nil
	},
}

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the record API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cfg, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		addr := cfg.HTTP.Addr
		if serveAddr != "" {
			addr = serveAddr
		}

		srv := &http.Server{
			Addr:              addr,
			Handler:           collect.NewAPI(store, nil).Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signalContext()
		defer stop()
		errc := make(chan error, 1)
		go func() { errc <- srv.ListenAndServe() }()
		fmt.Printf("listening on %s\n", addr)

		select {
		case err := <-errc:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	listCmd.Flags().IntVar(&listLimit, "limit", 20, "max records to show (0 = all)")
	listCmd.Flags().StringVar(&listOrder, "order", "score", "order column: score, created_at, updated_at, id")
	listCmd.Flags().BoolVar(&listAsc, "asc", false, "ascending order")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output JSON instead of a table")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file (default stdout)")
	clearCmd.Flags().BoolVar(&clearYes, "yes", false, "confirm deletion")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")

	rootCmd.AddCommand(initdbCmd, collectCmd, scoreCmd, listCmd, exportCmd, statsCmd, clearCmd, serveCmd)
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
