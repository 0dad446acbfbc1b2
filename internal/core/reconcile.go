package core

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"foodbike/internal/config"
	"foodbike/internal/logger"
	"foodbike/internal/metrics"
	"foodbike/internal/security"
	"foodbike/pkg/domain"
)

// MinimumRestaurantCount is the dataset size below which the reference set is regenerated.
const MinimumRestaurantCount = 256

// Placeholder names left over from early builds; any of them forces regeneration.
var placeholderNames = []string{"Burger King", "Pizza Hut", "KFC"}

const placeholderFragment = "Whattacup"

var referenceIDPattern = regexp.MustCompile(`^([A-Z]{2})(\d{3})$`)

// ReconcileTrigger names a condition that made the reconciler regenerate.
type ReconcileTrigger string

const (
	TriggerMissingSubregion  ReconcileTrigger = "missing_subregion"
	TriggerSparseSubregion   ReconcileTrigger = "sparse_subregion"
	TriggerIncompleteDataset ReconcileTrigger = "incomplete_dataset"
	TriggerPlaceholderNames  ReconcileTrigger = "placeholder_names"
)

// ReconcileReport summarizes one reconciliation run.
type ReconcileReport struct {
	Triggers       []ReconcileTrigger
	Regenerated    bool
	Preserved      []string
	Materialized   []string
	SeededAccounts []string
}

// Changed reports whether the run wrote anything.
func (r ReconcileReport) Changed() bool {
	return r.Regenerated || len(r.Materialized) > 0 || len(r.SeededAccounts) > 0
}

// Reconciler brings the restaurant set in line with the reference dataset
// without losing restaurants that came from onboarding or administrators.
type Reconciler struct {
	store   *EntityStore
	log     *logger.Logger
	metrics *metrics.StoreMetrics
	seed    config.SeedConfig
	hasher  *security.Hasher
}

// NewReconciler wires a reconciler to a loaded store.
func NewReconciler(store *EntityStore, log *logger.Logger, m *metrics.StoreMetrics, seed config.SeedConfig, hasher *security.Hasher) *Reconciler {
	if log == nil {
		log = logger.Nop()
	}
	if seed.RandomSeed == 0 {
		seed.RandomSeed = DefaultSeed
	}
	return &Reconciler{store: store, log: log, metrics: m, seed: seed, hasher: hasher}
}

// Run executes one reconciliation in a single transaction. A soft storage
// error is returned together with a complete report.
func (r *Reconciler) Run(ctx context.Context) (ReconcileReport, error) {
	accounts, err := r.pendingSampleAccounts(ctx)
	if err != nil {
		r.metrics.IncReconcile("failed")
		return ReconcileReport{}, err
	}

	var report ReconcileReport
	_, err = r.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		report = ReconcileReport{}
		if len(accounts) > 0 && len(tx.Snapshot().ListAccounts()) == 0 {
			for _, a := range accounts {
				if _, err := tx.CreateAccount(a); err != nil {
					return err
				}
				report.SeededAccounts = append(report.SeededAccounts, a.Username)
			}
		}
		if !r.seed.Disabled {
			report.Triggers = reconcileTriggers(tx.Snapshot().ListRestaurants())
			if len(report.Triggers) > 0 {
				if err := r.regenerate(tx, &report); err != nil {
					return err
				}
			}
		}
		return materializeApproved(tx, &report)
	})
	if err != nil && !domain.IsSoft(err) {
		r.metrics.IncReconcile("failed")
		r.log.Error(ctx, "seed reconciliation failed", err)
		return ReconcileReport{}, fmt.Errorf("reconcile: %w", err)
	}

	outcome := "noop"
	if report.Changed() {
		outcome = "changed"
	}
	r.metrics.IncReconcile(outcome)
	triggers := make([]string, len(report.Triggers))
	for i, t := range report.Triggers {
		triggers[i] = string(t)
	}
	r.log.Info(r.log.WithFields(ctx, map[string]any{
		"triggers":        strings.Join(triggers, ","),
		"regenerated":     report.Regenerated,
		"preserved":       len(report.Preserved),
		"materialized":    len(report.Materialized),
		"seeded_accounts": len(report.SeededAccounts),
	}), "seed reconciliation finished")
	return report, err
}

// pendingSampleAccounts hashes the sample credentials up front so the write
// path does not hold the lock through key derivation.
func (r *Reconciler) pendingSampleAccounts(ctx context.Context) ([]Account, error) {
	if r.seed.Disabled || r.hasher == nil {
		return nil, nil
	}
	empty := false
	if err := r.store.View(ctx, func(v domain.TransactionView) error {
		empty = len(v.ListAccounts()) == 0
		return nil
	}); err != nil {
		return nil, err
	}
	if !empty {
		return nil, nil
	}
	out := make([]Account, 0, len(sampleAccounts))
	for _, sa := range sampleAccounts {
		hash, err := r.hasher.Hash(sa.password)
		if err != nil {
			return nil, fmt.Errorf("hash sample account %s: %w", sa.username, err)
		}
		out = append(out, Account{
			Username:     sa.username,
			PasswordHash: hash,
			Email:        sa.email,
			Phone:        sa.phone,
			Role:         sa.role,
		})
	}
	return out, nil
}

func reconcileTriggers(restaurants []Restaurant) []ReconcileTrigger {
	var out []ReconcileTrigger
	for _, rest := range restaurants {
		if strings.TrimSpace(rest.Subregion) == "" {
			out = append(out, TriggerMissingSubregion)
			break
		}
	}
	counts := make(map[string]int)
	for _, rest := range restaurants {
		counts[subregionKey(rest.Region, rest.Subregion)]++
	}
sparse:
	for _, region := range domain.Regions() {
		for _, sub := range region.Subregions {
			if counts[subregionKey(region.Name, sub)] < domain.RestaurantsPerSubregion {
				out = append(out, TriggerSparseSubregion)
				break sparse
			}
		}
	}
	if len(restaurants) < MinimumRestaurantCount {
		out = append(out, TriggerIncompleteDataset)
	}
	for _, rest := range restaurants {
		if isPlaceholderName(rest.Name) {
			out = append(out, TriggerPlaceholderNames)
			break
		}
	}
	return out
}

func subregionKey(region, subregion string) string {
	return strings.ToLower(strings.TrimSpace(region)) + "/" + strings.ToLower(strings.TrimSpace(subregion))
}

func isPlaceholderName(name string) bool {
	for _, p := range placeholderNames {
		if name == p {
			return true
		}
	}
	return strings.Contains(name, placeholderFragment)
}

// isPreserved reports whether a restaurant lives outside the reference ID
// space: a free-form ID, an unknown prefix, or a sequence past the region's
// reference maximum.
func isPreserved(id string) bool {
	m := referenceIDPattern.FindStringSubmatch(id)
	if m == nil {
		return true
	}
	region, ok := domain.RegionByPrefix(m[1])
	if !ok {
		return true
	}
	seq, err := strconv.Atoi(m[2])
	if err != nil {
		return true
	}
	return seq > region.ReferenceMax()
}

// regenerate drops every reference restaurant and writes the reference set
// again. Preserved restaurants stay untouched in place.
func (r *Reconciler) regenerate(tx domain.Transaction, report *ReconcileReport) error {
	existing := make(map[string]Restaurant)
	for _, rest := range tx.Snapshot().ListRestaurants() {
		if isPreserved(rest.ID) {
			report.Preserved = append(report.Preserved, rest.ID)
			continue
		}
		existing[rest.ID] = rest
		tx.DeleteRestaurant(rest.ID)
	}
	for _, ref := range ReferenceRestaurants(r.seed.RandomSeed) {
		if prev, ok := existing[ref.ID]; ok {
			ref.CreatedAt = prev.CreatedAt
		}
		if _, err := tx.CreateRestaurant(ref); err != nil {
			return fmt.Errorf("create reference restaurant %s: %w", ref.ID, err)
		}
	}
	report.Regenerated = true
	return nil
}

// materializeApproved creates a restaurant for every approved application
// that has none yet, matched by name and region.
func materializeApproved(tx domain.Transaction, report *ReconcileReport) error {
	for _, app := range tx.Snapshot().ListApplications() {
		if app.Status != domain.ApplicationStatusApproved {
			continue
		}
		rest, created, err := materializeApplication(tx, app)
		if err != nil {
			return err
		}
		if created {
			report.Materialized = append(report.Materialized, rest.ID)
		}
	}
	return nil
}
