// Command closingreport prints or saves the NSE/BSE closing report of a
// trading day.
//
//	closingreport -exchange NSE -date 2024-03-15
//	closingreport -exchange all -format csv -out reports/
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"cloud.google.com/go/civil"
	"golang.org/x/sync/errgroup"

	"bhavcli/internal/app"
	"bhavcli/internal/config"
	"bhavcli/internal/download"
	"bhavcli/internal/exporter"
	"bhavcli/internal/infrastructure"
	"bhavcli/internal/services"
	"bhavcli/pkg/contracts/domain"
)

// Exit codes
const (
	exitOK       = 0
	exitFailure  = 1
	exitUsage    = 2
	exitNotFound = 3
)

type options struct {
	exchanges        []domain.Exchange
	date             civil.Date
	format           exporter.Format
	out              string
	db               string
	configFile       string
	refreshDirectory bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr, nil))
}

// run executes the command. fetcher replaces the HTTP fetcher when non-nil.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, fetcher download.Fetcher) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to load configuration: %v\n", err)
		return exitFailure
	}
	if opts.db != "" {
		cfg.Store.Enabled = true
		cfg.Store.Path = opts.db
	}
	// stdout carries the report
	if cfg.Logging.Output == "both" {
		cfg.Logging.Output = "file"
	}

	logger, closer, err := infrastructure.NewLogger(cfg.Logging, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to initialize logger: %v\n", err)
		return exitFailure
	}
	defer closer.Close()
	logger = logger.With(slog.String("component", "closingreport"))

	var buildOpts []app.BuildOption
	if fetcher != nil {
		buildOpts = append(buildOpts, app.WithFetcher(fetcher))
	}
	components, err := app.Build(cfg, logger, buildOpts...)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	defer components.Close(context.Background())

	ctx = infrastructure.EnsureTraceID(ctx)
	reports, err := retrieveAll(ctx, components.Reports, opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if services.IsReportNotFound(err) {
			return exitNotFound
		}
		return exitFailure
	}

	if err := writeReports(stdout, opts, reports); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	return exitOK
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("closingreport", flag.ContinueOnError)
	fs.SetOutput(stderr)

	exchangeFlag := fs.String("exchange", "NSE", "exchange: NSE | BSE | all")
	dateFlag := fs.String("date", "", "trading day (YYYY-MM-DD); defaults to today")
	formatFlag := fs.String("format", "json", "output format: json | csv")
	out := fs.String("out", "", "output file, or directory with -exchange all; defaults to stdout")
	db := fs.String("db", "", "archive retrieved reports in this SQLite file")
	configFile := fs.String("config", "", "configuration file")
	refresh := fs.Bool("refresh-directory", false, "refresh the company directory before retrieving")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	opts := &options{
		out:              *out,
		db:               *db,
		configFile:       *configFile,
		refreshDirectory: *refresh,
	}

	if strings.EqualFold(*exchangeFlag, "all") {
		opts.exchanges = domain.Exchanges()
	} else {
		ex, err := domain.ParseExchange(*exchangeFlag)
		if err != nil {
			return nil, err
		}
		opts.exchanges = []domain.Exchange{ex}
	}

	if *dateFlag != "" {
		d, err := civil.ParseDate(*dateFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid -date: %w", err)
		}
		opts.date = d
	}

	format, ok := exporter.ParseFormat(*formatFlag)
	if !ok {
		return nil, fmt.Errorf("invalid -format %q", *formatFlag)
	}
	opts.format = format

	if len(opts.exchanges) > 1 && format == exporter.FormatCSV && opts.out == "" {
		return nil, errors.New("-format csv with -exchange all needs -out")
	}

	return opts, nil
}

// retrieveAll fetches every requested exchange concurrently. All exchanges
// are attempted; the first error is returned.
func retrieveAll(ctx context.Context, svc *services.ReportService, opts *options) (map[domain.Exchange]*domain.ClosingReport, error) {
	results := make([]*domain.ClosingReport, len(opts.exchanges))

	var g errgroup.Group
	for i, ex := range opts.exchanges {
		g.Go(func() error {
			report, err := svc.Retrieve(ctx, services.ReportRequest{
				Exchange:         ex,
				Date:             opts.date,
				RefreshDirectory: opts.refreshDirectory,
			})
			if err != nil {
				return fmt.Errorf("%s: %w", ex, err)
			}
			results[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[domain.Exchange]*domain.ClosingReport, len(results))
	for i, ex := range opts.exchanges {
		out[ex] = results[i]
	}
	return out, nil
}

func writeReports(stdout io.Writer, opts *options, reports map[domain.Exchange]*domain.ClosingReport) error {
	if len(opts.exchanges) == 1 {
		report := reports[opts.exchanges[0]]
		if opts.out == "" {
			return exporter.WriteReport(stdout, opts.format, report)
		}
		return exporter.WriteReportFile(opts.out, opts.format, report)
	}

	if opts.out == "" {
		byName := make(map[string]*domain.ClosingReport, len(reports))
		for ex, r := range reports {
			byName[ex.String()] = r
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(byName)
	}

	for _, ex := range opts.exchanges {
		path := filepath.Join(opts.out, reportFileName(ex, opts.date, opts.format))
		if err := exporter.WriteReportFile(path, opts.format, reports[ex]); err != nil {
			return err
		}
	}
	return nil
}

func reportFileName(ex domain.Exchange, date civil.Date, format exporter.Format) string {
	day := "today"
	if !date.IsZero() {
		day = date.String()
	}
	return fmt.Sprintf("%s_%s.%s", ex, day, format)
}
