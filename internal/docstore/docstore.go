// Package docstore defines the contract of the remote document store the item
// mirrors are built on: per-user collections, field-equality queries, document
// CRUD, and a subscription channel that delivers full-result-set snapshots.
package docstore

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/pantryline/pantryline-backend/pkg/enums"
)

// ItemDocument is the wire shape of one item. The amount travels as text and
// is parsed leniently on read.
type ItemDocument struct {
	ID        string             `json:"id"`
	Owner     string             `json:"owner"`
	List      enums.ListAffinity `json:"list"`
	Name      string             `json:"name"`
	Category  string             `json:"category"`
	Amount    string             `json:"amount"`
	Unit      string             `json:"unit"`
	StoreID   string             `json:"store_id,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// StoreDocument is the wire shape of a user-defined shopping-location tag.
type StoreDocument struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ItemPatch is a typed partial update. Nil fields are left untouched; the
// list affinity and creation timestamp are never patchable.
type ItemPatch struct {
	Name     *string
	Category *enums.Category
	Amount   *string
	Unit     *enums.Unit
	StoreID  *string
}

// IsZero reports whether the patch carries no changes.
func (p ItemPatch) IsZero() bool {
	return p.Name == nil && p.Category == nil && p.Amount == nil && p.Unit == nil && p.StoreID == nil
}

// Snapshot is one full-replacement push for a single (owner, list) pair.
// Receivers must treat it as a total replacement of their copy, including
// items unchanged since the previous push.
type Snapshot struct {
	List  enums.ListAffinity `json:"list"`
	Items []ItemDocument     `json:"items"`
}

// Subscription is a live snapshot stream for one (owner, list) pair.
type Subscription interface {
	// Updates yields snapshots until Unsubscribe is called; the channel is
	// closed on teardown.
	Updates() <-chan Snapshot
	// Unsubscribe tears the stream down synchronously: once it returns no
	// further snapshot is delivered.
	Unsubscribe() error
}

// Adapter is the remote document store surface consumed by the item mirrors.
// Implementations assign opaque document identifiers on create.
type Adapter interface {
	CreateItem(ctx context.Context, doc ItemDocument) (string, error)
	UpdateItem(ctx context.Context, owner, id string, patch ItemPatch) error
	DeleteItem(ctx context.Context, owner string, list enums.ListAffinity, id string) error
	QueryItems(ctx context.Context, owner string, list enums.ListAffinity) ([]ItemDocument, error)
	SubscribeItems(ctx context.Context, owner string, list enums.ListAffinity) (Subscription, error)

	QueryStores(ctx context.Context, owner string) ([]StoreDocument, error)
	CreateStore(ctx context.Context, doc StoreDocument) (string, error)
	DeleteStore(ctx context.Context, owner, id string) error
}

// ParseAmount reads a text amount. Unparsable or negative values read as 0;
// malformed amounts are never an error.
func ParseAmount(raw string) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value < 0 {
		return 0
	}
	return value
}

// FormatAmount renders an amount for transit, clamping below at 0.
func FormatAmount(value int) string {
	if value < 0 {
		value = 0
	}
	return strconv.Itoa(value)
}
