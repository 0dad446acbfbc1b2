package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors matched with errors.Is against the typed errors below.
var (
	ErrDuplicateKey             = errors.New("duplicate key")
	ErrNotFound                 = errors.New("not found")
	ErrIllegalTransition        = errors.New("illegal transition")
	ErrValidation               = errors.New("validation failed")
	ErrForbidden                = errors.New("forbidden")
	ErrInvalidCredentials       = errors.New("invalid credentials")
	ErrCashConfirmationRequired = errors.New("cash-on-delivery order requires cash received confirmation")
	ErrStorageWrite             = errors.New("storage write failed")
)

// DuplicateKeyError reports a create against an identifier that already exists.
type DuplicateKeyError struct {
	Entity EntityType
	Key    string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Entity, e.Key)
}

func (e *DuplicateKeyError) Is(target error) bool { return target == ErrDuplicateKey }

// NotFoundError reports a lookup of a missing record.
type NotFoundError struct {
	Entity EntityType
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// IllegalTransitionError identifies a rejected order action with the state it
// would have produced and the state the order was in.
type IllegalTransitionError struct {
	OrderID   string
	Action    OrderAction
	Attempted OrderStatus
	Current   OrderStatus
	Reason    string
}

func (e *IllegalTransitionError) Error() string {
	msg := fmt.Sprintf("order %s: cannot %s (attempted %s, current %s)", e.OrderID, e.Action, e.Attempted, e.Current)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *IllegalTransitionError) Is(target error) bool { return target == ErrIllegalTransition }

// ValidationError carries every failing field at once, keyed by JSON field name.
type ValidationError struct {
	Entity EntityType
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	if e.Entity == "" {
		return "validation failed: " + strings.Join(parts, "; ")
	}
	return fmt.Sprintf("%s validation failed: %s", e.Entity, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidationError builds a single-field validation error.
func NewValidationError(entity EntityType, field, message string) *ValidationError {
	return &ValidationError{Entity: entity, Fields: map[string]string{field: message}}
}

// ForbiddenError reports an actor acting outside its role or ownership.
type ForbiddenError struct {
	Actor     Actor
	Operation string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("%s (%s) may not %s", e.Actor.Username, e.Actor.Role, e.Operation)
}

func (e *ForbiddenError) Is(target error) bool { return target == ErrForbidden }

// StorageWriteError is a soft failure: the in-memory mutation was applied but
// the listed storage units could not be written. Nothing is rolled back.
type StorageWriteError struct {
	Units []string
	Err   error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("storage write failed for units %s: %v", strings.Join(e.Units, ","), e.Err)
}

func (e *StorageWriteError) Unwrap() error { return e.Err }

func (e *StorageWriteError) Is(target error) bool { return target == ErrStorageWrite }

// IsSoft reports whether err leaves the requested mutation applied.
func IsSoft(err error) bool {
	return errors.Is(err, ErrStorageWrite)
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	if len(e.Result.Violations) == 0 {
		return "transaction blocked by rules"
	}
	v := e.Result.Violations[0]
	return fmt.Sprintf("transaction blocked by rule %s: %s", v.Rule, v.Message)
}
