package core

import (
	"context"
	"sort"
	"strings"

	"foodbike/pkg/domain"
)

// AuditFilter narrows ListAudit. Empty fields match everything.
type AuditFilter struct {
	Action domain.AuditAction
	Admin  string
}

// RecordAudit appends an audit entry written by an administrator.
func (s *Service) RecordAudit(ctx context.Context, actor Actor, action domain.AuditAction, target, details string) (AuditEntry, error) {
	if err := requireRole(actor, "record audit entries", domain.RoleAdmin); err != nil {
		return AuditEntry{}, err
	}
	entry := AuditEntry{
		AdminUsername: actor.Username,
		Action:        action,
		TargetName:    strings.TrimSpace(target),
		Details:       details,
	}
	if err := domain.Validate(domain.EntityAuditEntry, entry); err != nil {
		return AuditEntry{}, err
	}
	entry.ID = s.newID(AuditIDPrefix)
	var created AuditEntry
	_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateAuditEntry(entry)
		return err
	})
	if err != nil && !domain.IsSoft(err) {
		return AuditEntry{}, err
	}
	s.logSoft(s.actorContext(ctx, actor), "record_audit", err)
	return created, err
}

// ListAudit returns matching entries newest first.
func (s *Service) ListAudit(ctx context.Context, f AuditFilter) ([]AuditEntry, error) {
	var out []AuditEntry
	err := s.store.View(ctx, func(v domain.TransactionView) error {
		for _, e := range v.ListAuditEntries() {
			if f.Action != "" && e.Action != f.Action {
				continue
			}
			if f.Admin != "" && e.AdminUsername != f.Admin {
				continue
			}
			out = append(out, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	newestFirst(out, func(e AuditEntry) int64 { return e.Timestamp.UnixNano() })
	return out, nil
}

// audit appends an entry inside an open transaction.
func (s *Service) audit(tx domain.Transaction, actor Actor, action domain.AuditAction, target, details string) error {
	_, err := tx.CreateAuditEntry(AuditEntry{
		ID:            s.newID(AuditIDPrefix),
		AdminUsername: actor.Username,
		Action:        action,
		TargetName:    target,
		Details:       details,
	})
	return err
}

// newestFirst sorts by descending timestamp. Records with equal timestamps
// keep reverse insertion order.
func newestFirst[T any](items []T, at func(T) int64) {
	reverse(items)
	sort.SliceStable(items, func(i, j int) bool { return at(items[i]) > at(items[j]) })
}

func reverse[T any](items []T) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}
