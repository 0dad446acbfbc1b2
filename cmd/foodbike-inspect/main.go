// Command foodbike-inspect opens the configured storage, runs load and seed
// reconciliation, and prints a summary of the stored collections.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"

	"foodbike/internal/config"
	"foodbike/internal/core"
	"foodbike/internal/logger"
	"foodbike/internal/metrics"
	"foodbike/internal/storage"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

var exitFunc = os.Exit

func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("foodbike-inspect", flag.ContinueOnError)
	flags.SetOutput(stderr)
	var (
		envFile     string
		showMetrics bool
	)
	flags.StringVar(&envFile, "env", ".env", "optional dotenv file loaded before the environment is read")
	flags.BoolVar(&showMetrics, "metrics", false, "print store metrics after the run")
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if err := run(context.Background(), envFile, showMetrics, stdout); err != nil {
		if _, writeErr := fmt.Fprintf(stderr, "inspect failed: %v\n", err); writeErr != nil {
			return 1
		}
		return 1
	}
	return 0
}

func run(ctx context.Context, envFile string, showMetrics bool, out io.Writer) (err error) {
	if envFile != "" {
		if loadErr := godotenv.Load(envFile); loadErr != nil && !errors.Is(loadErr, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, loadErr)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(logger.Options{
		ServiceName: "foodbike-inspect",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
		Output:      os.Stderr,
	})
	reg := prometheus.NewRegistry()

	units, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	svc, err := core.Open(ctx, units, core.Options{
		Logger:   log,
		Metrics:  metrics.NewStoreMetrics(reg),
		Seed:     cfg.Seed,
		Password: cfg.Password,
	})
	if err != nil {
		return errors.Join(err, units.Close())
	}
	defer func() {
		if closeErr := svc.Close(ctx); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	// Listing every order applies due auto-cancellations before counting.
	orders, err := svc.ListAllOrders(ctx)
	if err != nil {
		return err
	}
	p := &printer{w: out}
	p.line("driver: %s", units.Driver())
	load := svc.LoadReport()
	p.list("missing units", load.Missing)
	p.list("reset units", load.Reset)
	rec := svc.ReconcileReport()
	triggers := make([]string, len(rec.Triggers))
	for i, t := range rec.Triggers {
		triggers[i] = string(t)
	}
	p.list("reconcile triggers", triggers)
	p.line("regenerated: %t", rec.Regenerated)
	p.list("materialized", rec.Materialized)

	snap := svc.Store().Snapshot()
	p.line("accounts: %d", snap.Accounts.Len())
	p.line("restaurants: %d", snap.Restaurants.Len())
	p.line("orders: %d", snap.Orders.Len())
	p.line("applications: %d", snap.Applications.Len())
	p.line("audit entries: %d", snap.AuditEntries.Len())
	p.line("reviews: %d", snap.Reviews.Len())

	byStatus := make(map[string]int)
	for _, o := range orders {
		byStatus[string(o.Status)]++
	}
	statuses := make([]string, 0, len(byStatus))
	for s := range byStatus {
		statuses = append(statuses, s)
	}
	sort.Strings(statuses)
	for _, s := range statuses {
		p.line("  %s: %d", s, byStatus[s])
	}

	if showMetrics {
		mfs, gatherErr := reg.Gather()
		if gatherErr != nil {
			return gatherErr
		}
		for _, mf := range mfs {
			for _, m := range mf.GetMetric() {
				labels := make([]string, 0, len(m.GetLabel()))
				for _, lp := range m.GetLabel() {
					labels = append(labels, lp.GetName()+"="+lp.GetValue())
				}
				value := m.GetCounter().GetValue()
				if h := m.GetHistogram(); h != nil {
					value = float64(h.GetSampleCount())
				}
				p.line("%s{%s} %g", mf.GetName(), strings.Join(labels, ","), value)
			}
		}
	}
	return p.err
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) list(label string, items []string) {
	if len(items) == 0 {
		p.line("%s: none", label)
		return
	}
	p.line("%s: %s", label, strings.Join(items, ", "))
}
