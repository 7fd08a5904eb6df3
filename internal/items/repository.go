// Package items maintains a live in-process mirror of one authenticated
// user's pantry and grocery lists. The mirror is updated only by full-snapshot
// pushes from the remote store's subscription channel; write operations return
// on transport acknowledgement and their effect becomes visible to readers
// once the echo arrives. There is no optimistic local mutation.
package items

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/pantryline/pantryline-backend/internal/docstore"
	"github.com/pantryline/pantryline-backend/pkg/enums"
	pkgerrors "github.com/pantryline/pantryline-backend/pkg/errors"
	"github.com/pantryline/pantryline-backend/pkg/logger"
	"github.com/pantryline/pantryline-backend/pkg/metrics"
)

// Repository owns the mirror and the two list subscriptions for one user.
// Construct one per authenticated session and Close it on sign-out; it is not
// reusable across users.
type Repository struct {
	owner   string
	adapter docstore.Adapter
	logg    *logger.Logger
	metrics *metrics.SyncMetrics

	mu      sync.RWMutex
	state   SessionState
	lastErr error
	mirrors map[enums.ListAffinity][]Item
	subs    map[enums.ListAffinity]docstore.Subscription

	wg sync.WaitGroup
}

// RepositoryParams configures a Repository.
type RepositoryParams struct {
	Owner   string
	Adapter docstore.Adapter
	Logger  *logger.Logger
	Metrics *metrics.SyncMetrics
}

// NewRepository constructs an unauthenticated-state repository for one owner.
// Call Start to establish the subscriptions.
func NewRepository(params RepositoryParams) (*Repository, error) {
	if strings.TrimSpace(params.Owner) == "" {
		return nil, fmt.Errorf("owner is required")
	}
	if params.Adapter == nil {
		return nil, fmt.Errorf("docstore adapter is required")
	}
	return &Repository{
		owner:   params.Owner,
		adapter: params.Adapter,
		logg:    params.Logger,
		metrics: params.Metrics,
		state:   StateUnauthenticated,
		mirrors: map[enums.ListAffinity][]Item{},
		subs:    map[enums.ListAffinity]docstore.Subscription{},
	}, nil
}

// Start establishes both list subscriptions. On success the session is Live
// and every subsequent push replaces the corresponding mirror wholesale. On
// failure the mirror is cleared, the session enters Error, and there is no
// automatic retry.
func (r *Repository) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.state != StateUnauthenticated && r.state != StateError {
		state := r.state
		r.mu.Unlock()
		return fmt.Errorf("cannot start subscriptions from state %s", state)
	}
	r.state = StateSubscriptionPending
	r.mu.Unlock()

	subs := map[enums.ListAffinity]docstore.Subscription{}
	for _, list := range []enums.ListAffinity{enums.ListPantry, enums.ListGrocery} {
		sub, err := r.adapter.SubscribeItems(ctx, r.owner, list)
		if err != nil {
			for _, opened := range subs {
				_ = opened.Unsubscribe()
			}
			wrapped := pkgerrors.Wrap(pkgerrors.CodeTransport, err, fmt.Sprintf("subscribing to %s list", list))
			r.enterError(wrapped)
			if r.logg != nil {
				r.logg.Error(r.logg.WithListID(ctx, string(list)), "subscription setup failed", err)
			}
			return wrapped
		}
		subs[list] = sub
	}

	r.mu.Lock()
	r.subs = subs
	r.state = StateLive
	r.mu.Unlock()

	for list, sub := range subs {
		r.wg.Add(1)
		go r.consume(list, sub)
	}
	return nil
}

// Close tears the session down: both subscriptions are cancelled before the
// mirror is cleared, so a late in-flight push cannot repopulate state for a
// signed-out session. Safe to call more than once.
func (r *Repository) Close() error {
	r.mu.Lock()
	subs := r.subs
	r.subs = map[enums.ListAffinity]docstore.Subscription{}
	r.state = StateUnauthenticated
	r.mu.Unlock()

	var err error
	for _, sub := range subs {
		err = multierr.Append(err, sub.Unsubscribe())
	}
	r.wg.Wait()

	r.mu.Lock()
	r.mirrors = map[enums.ListAffinity][]Item{}
	r.lastErr = nil
	r.mu.Unlock()

	r.metrics.SetMirrorSize(string(enums.ListPantry), 0)
	r.metrics.SetMirrorSize(string(enums.ListGrocery), 0)
	return err
}

// State reports the session state.
func (r *Repository) State() SessionState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Err reports the error that moved the session into Error, if any.
func (r *Repository) Err() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastErr
}

// Items returns a copy of the named list's mirror.
func (r *Repository) Items(list enums.ListAffinity) []Item {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mirror := r.mirrors[list]
	out := make([]Item, len(mirror))
	copy(out, mirror)
	return out
}

// AddItem issues a create against the remote store. It returns the assigned
// identifier once the transport acknowledges the create; the item becomes
// visible in the mirror only with the next push.
func (r *Repository) AddItem(ctx context.Context, list enums.ListAffinity, fields CreateFields) (string, error) {
	if err := r.guard(); err != nil {
		return "", err
	}
	if !list.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown list %q", list))
	}
	if strings.TrimSpace(fields.Name) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "item name is required")
	}

	doc := docstore.ItemDocument{
		Owner:     r.owner,
		List:      list,
		Name:      strings.TrimSpace(fields.Name),
		Category:  string(enums.CategoryOrDefault(string(fields.Category))),
		Amount:    fields.Amount,
		Unit:      string(enums.UnitOrDefault(string(fields.Unit))),
		StoreID:   fields.StoreID,
		CreatedAt: time.Now().UTC(),
	}
	id, err := r.adapter.CreateItem(ctx, doc)
	if err != nil {
		return "", r.transportErr(err, "creating item")
	}
	r.metrics.IncOperation("add_item")
	return id, nil
}

// RemoveItem issues a delete. Removing an identifier absent from the mirror
// is not an error; the mirror may be stale, so existence is never
// pre-validated locally.
func (r *Repository) RemoveItem(ctx context.Context, list enums.ListAffinity, id string) error {
	if err := r.guard(); err != nil {
		return err
	}
	if err := r.adapter.DeleteItem(ctx, r.owner, list, id); err != nil {
		return r.transportErr(err, "deleting item")
	}
	r.metrics.IncOperation("remove_item")
	return nil
}

// DecrementOne computes max(0, amount-1) from the local mirror. A result of 0
// is not persisted; the caller must follow up with a remove or a move. The
// mirror read is deliberately tolerant of staleness: two rapid calls can read
// the same pre-push amount and lose one decrement.
func (r *Repository) DecrementOne(ctx context.Context, list enums.ListAffinity, id string) (DecrementResult, error) {
	if err := r.guard(); err != nil {
		return DecrementResult{}, err
	}
	item, ok := r.mirrorItem(list, id)
	if !ok {
		return DecrementResult{}, pkgerrors.New(pkgerrors.CodeNotFound, "item not in mirror")
	}

	next := item.Amount - 1
	if next <= 0 {
		return DecrementResult{Amount: 0, NeedsDecision: true}, nil
	}

	amount := docstore.FormatAmount(next)
	if err := r.adapter.UpdateItem(ctx, r.owner, id, docstore.ItemPatch{Amount: &amount}); err != nil {
		return DecrementResult{}, r.transportErr(err, "decrementing item")
	}
	r.metrics.IncOperation("decrement_one")
	return DecrementResult{Amount: next}, nil
}

// IncrementOne computes amount+1 from the local mirror and issues the update.
// No upper bound.
func (r *Repository) IncrementOne(ctx context.Context, list enums.ListAffinity, id string) (int, error) {
	if err := r.guard(); err != nil {
		return 0, err
	}
	item, ok := r.mirrorItem(list, id)
	if !ok {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, "item not in mirror")
	}

	next := item.Amount + 1
	amount := docstore.FormatAmount(next)
	if err := r.adapter.UpdateItem(ctx, r.owner, id, docstore.ItemPatch{Amount: &amount}); err != nil {
		return 0, r.transportErr(err, "incrementing item")
	}
	r.metrics.IncOperation("increment_one")
	return next, nil
}

// MoveItem relocates an item across lists as a two-phase sequence: create in
// the destination with a fresh identity, then delete the source. The phases
// are independent remote operations; when the delete fails after the create
// succeeded the item exists on both lists and the result says so explicitly.
// No rollback is attempted.
func (r *Repository) MoveItem(ctx context.Context, from, to enums.ListAffinity, id string, overrides MoveOverrides) (MoveResult, error) {
	if err := r.guard(); err != nil {
		return MoveResult{Outcome: MoveFailed}, err
	}
	if !from.IsValid() || !to.IsValid() || from == to {
		return MoveResult{Outcome: MoveFailed}, pkgerrors.New(pkgerrors.CodeValidation, "move requires two distinct lists")
	}
	source, ok := r.mirrorItem(from, id)
	if !ok {
		return MoveResult{Outcome: MoveFailed}, pkgerrors.New(pkgerrors.CodeNotFound, "item not in mirror")
	}

	unit := source.Unit
	if from == enums.ListPantry && to == enums.ListGrocery {
		unit = enums.UnitCount
	}
	if overrides.Unit != nil {
		unit = *overrides.Unit
	}
	storeID := ""
	if to == enums.ListGrocery {
		storeID = overrides.StoreID
		if storeID == "" {
			storeID = source.StoreID
		}
	}

	doc := docstore.ItemDocument{
		Owner:     r.owner,
		List:      to,
		Name:      source.Name,
		Category:  string(source.Category),
		Amount:    docstore.FormatAmount(source.Amount),
		Unit:      string(unit),
		StoreID:   storeID,
		CreatedAt: time.Now().UTC(),
	}
	newID, err := r.adapter.CreateItem(ctx, doc)
	if err != nil {
		return MoveResult{Outcome: MoveFailed}, r.transportErr(err, "creating destination item")
	}

	if err := r.adapter.DeleteItem(ctx, r.owner, from, id); err != nil {
		r.metrics.IncPartialMove()
		if r.logg != nil {
			lctx := r.logg.WithListID(r.logg.WithItemID(ctx, id), string(from))
			r.logg.Warn(lctx, "move delete step failed, duplicate item left behind")
		}
		return MoveResult{Outcome: MoveSucceededCreateOnly, NewID: newID},
			pkgerrors.Wrap(pkgerrors.CodePartialMove, err, "deleting source item after create succeeded").
				WithDetails(map[string]string{"source_id": id, "new_id": newID})
	}

	r.metrics.IncOperation("move_item")
	return MoveResult{Outcome: MoveFullySucceeded, NewID: newID}, nil
}

// UpdateFields issues a partial update against the remote identifier.
func (r *Repository) UpdateFields(ctx context.Context, list enums.ListAffinity, id string, patch FieldPatch) error {
	if err := r.guard(); err != nil {
		return err
	}
	if patch.IsZero() {
		return nil
	}
	if err := r.adapter.UpdateItem(ctx, r.owner, id, patch.toDocPatch()); err != nil {
		return r.transportErr(err, "updating item fields")
	}
	r.metrics.IncOperation("update_fields")
	return nil
}

// ListStores returns the user's store tags from the remote store.
func (r *Repository) ListStores(ctx context.Context) ([]Store, error) {
	if err := r.guard(); err != nil {
		return nil, err
	}
	docs, err := r.adapter.QueryStores(ctx, r.owner)
	if err != nil {
		return nil, r.transportErr(err, "listing stores")
	}
	stores := make([]Store, 0, len(docs))
	for _, doc := range docs {
		stores = append(stores, Store{ID: doc.ID, Name: doc.Name, CreatedAt: doc.CreatedAt})
	}
	return stores, nil
}

// AddStore creates a store tag.
func (r *Repository) AddStore(ctx context.Context, name string) (string, error) {
	if err := r.guard(); err != nil {
		return "", err
	}
	if strings.TrimSpace(name) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "store name is required")
	}
	id, err := r.adapter.CreateStore(ctx, docstore.StoreDocument{
		Owner:     r.owner,
		Name:      strings.TrimSpace(name),
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return "", r.transportErr(err, "creating store")
	}
	r.metrics.IncOperation("add_store")
	return id, nil
}

// RemoveStore deletes a store tag; absent identifiers are not an error.
func (r *Repository) RemoveStore(ctx context.Context, id string) error {
	if err := r.guard(); err != nil {
		return err
	}
	if err := r.adapter.DeleteStore(ctx, r.owner, id); err != nil {
		return r.transportErr(err, "deleting store")
	}
	r.metrics.IncOperation("remove_store")
	return nil
}

func (r *Repository) guard() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	switch r.state {
	case StateLive, StateSubscriptionPending:
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeNotAuthenticated, "no authenticated session")
	}
}

func (r *Repository) mirrorItem(list enums.ListAffinity, id string) (Item, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, item := range r.mirrors[list] {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}

func (r *Repository) consume(list enums.ListAffinity, sub docstore.Subscription) {
	defer r.wg.Done()
	for snap := range sub.Updates() {
		r.applySnapshot(list, snap)
	}
}

// applySnapshot replaces the list mirror wholesale. Pushes arriving after
// sign-out are discarded.
func (r *Repository) applySnapshot(list enums.ListAffinity, snap docstore.Snapshot) {
	mirror := make([]Item, 0, len(snap.Items))
	for _, doc := range snap.Items {
		mirror = append(mirror, itemFromDocument(doc))
	}

	r.mu.Lock()
	if r.state != StateLive && r.state != StateSubscriptionPending {
		r.mu.Unlock()
		return
	}
	r.mirrors[list] = mirror
	r.state = StateLive
	r.mu.Unlock()

	r.metrics.IncPush(string(list))
	r.metrics.SetMirrorSize(string(list), len(mirror))
}

func (r *Repository) enterError(cause error) {
	r.mu.Lock()
	r.state = StateError
	r.lastErr = cause
	r.mirrors = map[enums.ListAffinity][]Item{}
	r.mu.Unlock()
}

func (r *Repository) transportErr(err error, message string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeTransport, err, message)
}
