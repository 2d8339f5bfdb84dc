package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tsvload/internal/config"
	"tsvload/internal/datasource/file"
	"tsvload/internal/ingest"
	"tsvload/internal/schema"
)

// fileResult is one row of the end-of-run summary.
type fileResult struct {
	Path   string
	Table  string
	Status string
	Stats  ingest.Stats
}

func newLoadCmd(a *app) *cobra.Command {
	var listFile string
	cmd := &cobra.Command{
		Use:   "load [file=table ...]",
		Short: "Load TSV files into their tables",
		Long: "Load every configured file (load.files), the file=table pairs given as\n" +
			"arguments, or the pairs listed one per line in --list. Relative file\n" +
			"paths are resolved against load.data_dir.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if listFile != "" {
				lines, err := file.ReadList(listFile)
				if err != nil {
					return err
				}
				args = append(args, lines...)
			}
			return a.runLoad(cmd, args)
		},
	}
	cmd.Flags().StringVar(&listFile, "list", "", "file with one file=table pair per line ('#' comments allowed)")
	return cmd
}

func (a *app) runLoad(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	for _, iss := range config.Validate(a.cfg) {
		if iss.Severity == config.SeverityError {
			return fmt.Errorf("invalid configuration: %w", iss)
		}
	}

	mapping := a.cfg.Load.Files
	if len(args) > 0 {
		m, err := config.ParseMapping(args)
		if err != nil {
			return err
		}
		mapping = m
	}
	if len(mapping) == 0 {
		return fmt.Errorf("nothing to load: configure load.files or pass file=table arguments")
	}

	flush := a.setupMetrics()
	defer flush()

	sess, err := a.openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	if a.cfg.Load.CreateTables {
		if _, err := ensureTables(cmd, sess); err != nil {
			return err
		}
	}

	loader := ingest.NewLoader(sess, ingest.Options{
		BatchSize:   a.cfg.Load.BatchSize,
		CommitEvery: a.cfg.Load.CommitEvery,
		BulkMode:    a.cfg.Load.BulkMode,
		Job:         a.cfg.Metrics.Job,
	}, a.log)

	var (
		results []fileResult
		failed  int
	)
	for _, m := range mapping {
		path := m.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(a.cfg.Load.DataDir, path)
		}
		a.log.Info().Str("path", path).Str("table", m.Table).Msgf("Processing %s...", path)

		src := file.NewLocal(path)
		if !src.Exists() {
			a.log.Warn().Str("path", path).Msgf("File not found: %s", path)
			results = append(results, fileResult{Path: path, Table: m.Table, Status: "not found"})
			continue
		}

		st, err := loader.Load(ctx, src, m.Table)
		res := fileResult{Path: path, Table: m.Table, Status: "ok", Stats: st}
		if err != nil {
			failed++
			res.Status = statusOf(err)
		}
		results = append(results, res)
		if err != nil && (a.cfg.Load.StopOnError || ctx.Err() != nil) {
			break
		}
	}

	printSummary(cmd.OutOrStdout(), results)
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(mapping))
	}
	a.log.Info().Int("files", len(results)).Msg("Load finished")
	return nil
}

func statusOf(err error) string {
	var f *ingest.Failure
	switch {
	case errors.As(err, &f):
		return f.Kind.String()
	case errors.Is(err, schema.ErrNotFound):
		return "table not found"
	default:
		return "error"
	}
}

func printSummary(w io.Writer, results []fileResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tTABLE\tROWS\tCOMMITTED\tELAPSED\tROWS/S\tSTATUS")
	for _, r := range results {
		var status string
		switch r.Status {
		case "ok":
			status = color.GreenString(r.Status)
		case "not found":
			status = color.YellowString(r.Status)
		default:
			status = color.RedString(r.Status)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			filepath.Base(r.Path),
			r.Table,
			humanize.Comma(r.Stats.TotalRows),
			humanize.Comma(r.Stats.CommittedRows),
			r.Stats.Elapsed.Round(time.Millisecond),
			humanize.CommafWithDigits(r.Stats.RowsPerSecond(), 0),
			status,
		)
	}
	_ = tw.Flush()
}
