package domain

import (
	"context"
	"fmt"
)

// RuleView provides read-only access to domain records for rule evaluation.
type RuleView = TransactionView

// Rule defines an evaluation executed within a transaction boundary.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error)
}

// RulesEngine orchestrates rule evaluation.
type RulesEngine struct {
	rules []Rule
}

// NewRulesEngine constructs an engine instance.
func NewRulesEngine() *RulesEngine {
	return &RulesEngine{}
}

// NewDefaultRulesEngine registers the invariants every store enforces on commit.
func NewDefaultRulesEngine() *RulesEngine {
	e := NewRulesEngine()
	e.Register(OrderStatusRule())
	e.Register(ReviewUniquenessRule())
	e.Register(RecordInvariantRule())
	return e
}

// Register appends a rule to the engine.
func (e *RulesEngine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Evaluate executes all registered rules and aggregates their results.
func (e *RulesEngine) Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error) {
	var combined Result
	for _, rule := range e.rules {
		res, err := rule.Evaluate(ctx, view, changes)
		if err != nil {
			return Result{}, err
		}
		combined.Merge(res)
	}
	return combined, nil
}

// OrderStatusRule blocks committed order updates that leave the lifecycle graph.
func OrderStatusRule() Rule { return orderStatusRule{} }

type orderStatusRule struct{}

func (orderStatusRule) Name() string { return "order_status" }

func (r orderStatusRule) Evaluate(_ context.Context, _ RuleView, changes []Change) (Result, error) {
	var res Result
	for _, ch := range changes {
		if ch.Entity != EntityOrder || ch.Action != ActionUpdate {
			continue
		}
		before, okB := ch.Before.(Order)
		after, okA := ch.After.(Order)
		if !okB || !okA {
			continue
		}
		if before.Status.IsTerminal() && (before.Status != after.Status || before.CourierID != after.CourierID) {
			res.Violations = append(res.Violations, Violation{
				Rule: r.Name(), Severity: SeverityBlock, Entity: EntityOrder, EntityID: after.ID,
				Message: fmt.Sprintf("order is %s and accepts no further changes", before.Status),
			})
			continue
		}
		if before.Status != after.Status && !CanTransition(before.Status, after.Status) {
			res.Violations = append(res.Violations, Violation{
				Rule: r.Name(), Severity: SeverityBlock, Entity: EntityOrder, EntityID: after.ID,
				Message: fmt.Sprintf("%s -> %s is not a lifecycle transition", before.Status, after.Status),
			})
		}
	}
	return res, nil
}

// ReviewUniquenessRule blocks a second review for the same (user, order) pair.
func ReviewUniquenessRule() Rule { return reviewUniquenessRule{} }

type reviewUniquenessRule struct{}

func (reviewUniquenessRule) Name() string { return "review_uniqueness" }

func (r reviewUniquenessRule) Evaluate(_ context.Context, view RuleView, changes []Change) (Result, error) {
	var res Result
	for _, ch := range changes {
		if ch.Entity != EntityReview || ch.Action != ActionCreate {
			continue
		}
		created, ok := ch.After.(Review)
		if !ok {
			continue
		}
		count := 0
		for _, existing := range view.ListReviews() {
			if existing.UserID == created.UserID && existing.OrderID == created.OrderID {
				count++
			}
		}
		if count > 1 {
			res.Violations = append(res.Violations, Violation{
				Rule: r.Name(), Severity: SeverityBlock, Entity: EntityReview, EntityID: created.ID,
				Message: fmt.Sprintf("user %s already reviewed order %s", created.UserID, created.OrderID),
			})
		}
	}
	return res, nil
}

// RecordInvariantRule re-validates every created or updated record so no
// invariant-violating field reaches storage.
func RecordInvariantRule() Rule { return recordInvariantRule{} }

type recordInvariantRule struct{}

func (recordInvariantRule) Name() string { return "record_invariants" }

func (r recordInvariantRule) Evaluate(_ context.Context, _ RuleView, changes []Change) (Result, error) {
	var res Result
	for _, ch := range changes {
		if ch.Action == ActionDelete || ch.After == nil {
			continue
		}
		var err error
		var id string
		switch v := ch.After.(type) {
		case Restaurant:
			id, err = v.ID, Validate(ch.Entity, v)
		case Order:
			id, err = v.ID, Validate(ch.Entity, v)
		case Application:
			id, err = v.ID, Validate(ch.Entity, v)
		case AuditEntry:
			id, err = v.ID, Validate(ch.Entity, v)
		case Review:
			id, err = v.ID, Validate(ch.Entity, v)
		default:
			continue
		}
		if err != nil {
			res.Violations = append(res.Violations, Violation{
				Rule: r.Name(), Severity: SeverityBlock, Entity: ch.Entity, EntityID: id, Message: err.Error(),
			})
		}
	}
	return res, nil
}
