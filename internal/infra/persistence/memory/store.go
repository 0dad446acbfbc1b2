// Package memory provides the transactional in-memory state of the seven
// collections. Durable backends snapshot it through ExportState/ImportState.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"foodbike/pkg/domain"
)

// Compile-time contract assertion.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Account aliases domain.Account for in-memory persistence operations.
	Account = domain.Account
	// Restaurant aliases domain.Restaurant.
	Restaurant = domain.Restaurant
	// Order aliases domain.Order.
	Order = domain.Order
	// Application aliases domain.Application.
	Application = domain.Application
	// AuditEntry aliases domain.AuditEntry.
	AuditEntry = domain.AuditEntry
	// Review aliases domain.Review.
	Review = domain.Review
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

// Collection is the exported form of one collection: records keyed by
// identifier plus their insertion order.
type Collection[T any] struct {
	Records map[string]T `json:"records"`
	Order   []string     `json:"order"`
}

// Len returns the number of records.
func (c Collection[T]) Len() int { return len(c.Records) }

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Accounts     Collection[Account]     `json:"accounts"`
	Restaurants  Collection[Restaurant]  `json:"restaurants"`
	Orders       Collection[Order]       `json:"orders"`
	Applications Collection[Application] `json:"applications"`
	AuditEntries Collection[AuditEntry]  `json:"audit_entries"`
	Reviews      Collection[Review]      `json:"reviews"`
}

type collection[T any] struct {
	records map[string]T
	order   []string
	clone   func(T) T
}

func newCollection[T any](clone func(T) T) *collection[T] {
	return &collection[T]{records: make(map[string]T), clone: clone}
}

func (c *collection[T]) copy() *collection[T] {
	out := &collection[T]{records: make(map[string]T, len(c.records)), order: append([]string(nil), c.order...), clone: c.clone}
	for k, v := range c.records {
		out.records[k] = c.clone(v)
	}
	return out
}

func (c *collection[T]) get(id string) (T, bool) {
	v, ok := c.records[id]
	if !ok {
		var zero T
		return zero, false
	}
	return c.clone(v), true
}

func (c *collection[T]) insert(id string, v T) bool {
	if _, exists := c.records[id]; exists {
		return false
	}
	c.records[id] = c.clone(v)
	c.order = append(c.order, id)
	return true
}

func (c *collection[T]) put(id string, v T) {
	c.records[id] = c.clone(v)
}

func (c *collection[T]) remove(id string) bool {
	if _, ok := c.records[id]; !ok {
		return false
	}
	delete(c.records, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

func (c *collection[T]) list() []T {
	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.clone(c.records[id]))
	}
	return out
}

func (c *collection[T]) export() Collection[T] {
	out := Collection[T]{Records: make(map[string]T, len(c.records)), Order: append([]string(nil), c.order...)}
	for k, v := range c.records {
		out.Records[k] = c.clone(v)
	}
	return out
}

// load rebuilds the collection from an exported form. Order entries without a
// record are dropped; records missing from the order are appended sorted by id.
func (c *collection[T]) load(in Collection[T]) {
	c.records = make(map[string]T, len(in.Records))
	c.order = make([]string, 0, len(in.Records))
	seen := make(map[string]struct{}, len(in.Records))
	for _, id := range in.Order {
		v, ok := in.Records[id]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		c.records[id] = c.clone(v)
		c.order = append(c.order, id)
	}
	var rest []string
	for id := range in.Records {
		if _, ok := seen[id]; !ok {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	for _, id := range rest {
		c.records[id] = c.clone(in.Records[id])
		c.order = append(c.order, id)
	}
}

type memoryState struct {
	accounts     *collection[Account]
	restaurants  *collection[Restaurant]
	orders       *collection[Order]
	applications *collection[Application]
	audit        *collection[AuditEntry]
	reviews      *collection[Review]
}

func newMemoryState() memoryState {
	return memoryState{
		accounts:     newCollection(cloneAccount),
		restaurants:  newCollection(cloneRestaurant),
		orders:       newCollection(cloneOrder),
		applications: newCollection(cloneApplication),
		audit:        newCollection(cloneAuditEntry),
		reviews:      newCollection(cloneReview),
	}
}

func (s memoryState) clone() memoryState {
	return memoryState{
		accounts:     s.accounts.copy(),
		restaurants:  s.restaurants.copy(),
		orders:       s.orders.copy(),
		applications: s.applications.copy(),
		audit:        s.audit.copy(),
		reviews:      s.reviews.copy(),
	}
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	return Snapshot{
		Accounts:     state.accounts.export(),
		Restaurants:  state.restaurants.export(),
		Orders:       state.orders.export(),
		Applications: state.applications.export(),
		AuditEntries: state.audit.export(),
		Reviews:      state.reviews.export(),
	}
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	state.accounts.load(s.Accounts)
	state.restaurants.load(s.Restaurants)
	state.orders.load(s.Orders)
	state.applications.load(s.Applications)
	state.audit.load(s.AuditEntries)
	state.reviews.load(s.Reviews)
	return state
}

func cloneAccount(a Account) Account { return a }

func cloneRestaurant(r Restaurant) Restaurant {
	cp := r
	if r.Menu != nil {
		cp.Menu = append([]domain.MenuItem(nil), r.Menu...)
	}
	return cp
}

func cloneOrder(o Order) Order {
	cp := o
	if o.Items != nil {
		cp.Items = append([]domain.MenuItem(nil), o.Items...)
	}
	return cp
}

func cloneApplication(a Application) Application {
	cp := a
	if a.MenuItems != nil {
		cp.MenuItems = append([]domain.MenuItem(nil), a.MenuItems...)
	}
	if a.DecidedAt != nil {
		t := *a.DecidedAt
		cp.DecidedAt = &t
	}
	return cp
}

func cloneAuditEntry(e AuditEntry) AuditEntry { return e }
func cloneReview(r Review) Review             { return r }

// Store provides an in-memory transactional store for the core domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewDefaultRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// SetNowFunc replaces the clock used to stamp transactions.
func (s *Store) SetNowFunc(fn func() time.Time) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFn = fn
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(snapshot)
}

// RunInTransaction executes fn within a transactional copy of the store state.
// The copy replaces the live state only when fn succeeds and no blocking rule fires.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	_, res, err := s.Apply(ctx, fn)
	return res, err
}

// Apply behaves like RunInTransaction and also returns the recorded changes.
func (s *Store) Apply(ctx context.Context, fn func(tx Transaction) error) ([]Change, Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return nil, Result{}, err
	}

	var result Result
	if s.engine != nil && len(tx.changes) > 0 {
		view := newTransactionView(tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return nil, Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return nil, res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return tx.changes, result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()
	return fn(newTransactionView(snapshot))
}

type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

type transactionView struct {
	state memoryState
}

func newTransactionView(state memoryState) TransactionView {
	return transactionView{state: state}
}

func (v transactionView) FindAccount(username string) (Account, bool) {
	return v.state.accounts.get(username)
}

func (v transactionView) ListAccounts() []Account { return v.state.accounts.list() }

func (v transactionView) FindRestaurant(id string) (Restaurant, bool) {
	return v.state.restaurants.get(id)
}

func (v transactionView) ListRestaurants() []Restaurant { return v.state.restaurants.list() }

func (v transactionView) FindOrder(id string) (Order, bool) { return v.state.orders.get(id) }

func (v transactionView) ListOrders() []Order { return v.state.orders.list() }

func (v transactionView) FindApplication(id string) (Application, bool) {
	return v.state.applications.get(id)
}

func (v transactionView) ListApplications() []Application { return v.state.applications.list() }

func (v transactionView) ListAuditEntries() []AuditEntry { return v.state.audit.list() }

func (v transactionView) ListReviews() []Review { return v.state.reviews.list() }

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(tx.state)
}

// Now returns the timestamp shared by every record written in the transaction.
func (tx *transaction) Now() time.Time { return tx.now }

func (tx *transaction) FindAccount(username string) (Account, bool) {
	return tx.state.accounts.get(username)
}

func (tx *transaction) FindRestaurant(id string) (Restaurant, bool) {
	return tx.state.restaurants.get(id)
}

func (tx *transaction) FindOrder(id string) (Order, bool) { return tx.state.orders.get(id) }

func (tx *transaction) FindApplication(id string) (Application, bool) {
	return tx.state.applications.get(id)
}

// CreateAccount stores a new account keyed by username.
func (tx *transaction) CreateAccount(a Account) (Account, error) {
	if a.Username == "" {
		return Account{}, domain.NewValidationError(domain.EntityAccount, "username", "is required")
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = tx.now
	}
	if !tx.state.accounts.insert(a.Username, a) {
		return Account{}, &domain.DuplicateKeyError{Entity: domain.EntityAccount, Key: a.Username}
	}
	tx.recordChange(Change{Entity: domain.EntityAccount, Action: domain.ActionCreate, After: cloneAccount(a)})
	return cloneAccount(a), nil
}

// CreateRestaurant stores a new restaurant. The identifier must be assigned by the caller.
func (tx *transaction) CreateRestaurant(r Restaurant) (Restaurant, error) {
	if r.ID == "" {
		return Restaurant{}, domain.NewValidationError(domain.EntityRestaurant, "id", "is required")
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = tx.now
	}
	if !tx.state.restaurants.insert(r.ID, r) {
		return Restaurant{}, &domain.DuplicateKeyError{Entity: domain.EntityRestaurant, Key: r.ID}
	}
	tx.recordChange(Change{Entity: domain.EntityRestaurant, Action: domain.ActionCreate, After: cloneRestaurant(r)})
	return cloneRestaurant(r), nil
}

// UpdateRestaurant mutates a restaurant using the provided mutator function.
func (tx *transaction) UpdateRestaurant(id string, mutator func(*Restaurant) error) (Restaurant, error) {
	current, ok := tx.state.restaurants.get(id)
	if !ok {
		return Restaurant{}, &domain.NotFoundError{Entity: domain.EntityRestaurant, Key: id}
	}
	before := cloneRestaurant(current)
	if err := mutator(&current); err != nil {
		return Restaurant{}, err
	}
	current.ID = id
	tx.state.restaurants.put(id, current)
	tx.recordChange(Change{Entity: domain.EntityRestaurant, Action: domain.ActionUpdate, Before: before, After: cloneRestaurant(current)})
	return cloneRestaurant(current), nil
}

// DeleteRestaurant removes a restaurant and reports whether it existed.
func (tx *transaction) DeleteRestaurant(id string) bool {
	current, ok := tx.state.restaurants.get(id)
	if !ok {
		return false
	}
	tx.state.restaurants.remove(id)
	tx.recordChange(Change{Entity: domain.EntityRestaurant, Action: domain.ActionDelete, Before: current})
	return true
}

// CreateOrder stores a new order.
func (tx *transaction) CreateOrder(o Order) (Order, error) {
	if o.ID == "" {
		return Order{}, domain.NewValidationError(domain.EntityOrder, "id", "is required")
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = tx.now
	}
	o.UpdatedAt = o.CreatedAt
	if !tx.state.orders.insert(o.ID, o) {
		return Order{}, &domain.DuplicateKeyError{Entity: domain.EntityOrder, Key: o.ID}
	}
	tx.recordChange(Change{Entity: domain.EntityOrder, Action: domain.ActionCreate, After: cloneOrder(o)})
	return cloneOrder(o), nil
}

// UpdateOrder mutates an existing order.
func (tx *transaction) UpdateOrder(id string, mutator func(*Order) error) (Order, error) {
	current, ok := tx.state.orders.get(id)
	if !ok {
		return Order{}, &domain.NotFoundError{Entity: domain.EntityOrder, Key: id}
	}
	before := cloneOrder(current)
	if err := mutator(&current); err != nil {
		return Order{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.orders.put(id, current)
	tx.recordChange(Change{Entity: domain.EntityOrder, Action: domain.ActionUpdate, Before: before, After: cloneOrder(current)})
	return cloneOrder(current), nil
}

// CreateApplication stores a new onboarding application.
func (tx *transaction) CreateApplication(a Application) (Application, error) {
	if a.ID == "" {
		return Application{}, domain.NewValidationError(domain.EntityApplication, "id", "is required")
	}
	if a.AppliedAt.IsZero() {
		a.AppliedAt = tx.now
	}
	if !tx.state.applications.insert(a.ID, a) {
		return Application{}, &domain.DuplicateKeyError{Entity: domain.EntityApplication, Key: a.ID}
	}
	tx.recordChange(Change{Entity: domain.EntityApplication, Action: domain.ActionCreate, After: cloneApplication(a)})
	return cloneApplication(a), nil
}

// UpdateApplication mutates an existing application.
func (tx *transaction) UpdateApplication(id string, mutator func(*Application) error) (Application, error) {
	current, ok := tx.state.applications.get(id)
	if !ok {
		return Application{}, &domain.NotFoundError{Entity: domain.EntityApplication, Key: id}
	}
	before := cloneApplication(current)
	if err := mutator(&current); err != nil {
		return Application{}, err
	}
	current.ID = id
	tx.state.applications.put(id, current)
	tx.recordChange(Change{Entity: domain.EntityApplication, Action: domain.ActionUpdate, Before: before, After: cloneApplication(current)})
	return cloneApplication(current), nil
}

// CreateAuditEntry appends an audit entry. Entries have no update path.
func (tx *transaction) CreateAuditEntry(e AuditEntry) (AuditEntry, error) {
	if e.ID == "" {
		return AuditEntry{}, domain.NewValidationError(domain.EntityAuditEntry, "id", "is required")
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = tx.now
	}
	if !tx.state.audit.insert(e.ID, e) {
		return AuditEntry{}, &domain.DuplicateKeyError{Entity: domain.EntityAuditEntry, Key: e.ID}
	}
	tx.recordChange(Change{Entity: domain.EntityAuditEntry, Action: domain.ActionCreate, After: e})
	return e, nil
}

// CreateReview stores a review.
func (tx *transaction) CreateReview(r Review) (Review, error) {
	if r.ID == "" {
		return Review{}, domain.NewValidationError(domain.EntityReview, "id", "is required")
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = tx.now
	}
	if !tx.state.reviews.insert(r.ID, r) {
		return Review{}, &domain.DuplicateKeyError{Entity: domain.EntityReview, Key: r.ID}
	}
	tx.recordChange(Change{Entity: domain.EntityReview, Action: domain.ActionCreate, After: r})
	return r, nil
}

// String summarizes collection sizes for logs.
func (s Snapshot) String() string {
	return fmt.Sprintf("accounts=%d restaurants=%d orders=%d applications=%d audit_entries=%d reviews=%d",
		s.Accounts.Len(), s.Restaurants.Len(), s.Orders.Len(), s.Applications.Len(), s.AuditEntries.Len(), s.Reviews.Len())
}
