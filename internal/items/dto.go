package items

import (
	"time"

	"github.com/pantryline/pantryline-backend/internal/docstore"
	"github.com/pantryline/pantryline-backend/pkg/enums"
)

// Item is one mirrored good. The amount is already parsed; unparsable remote
// values read as 0.
type Item struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Category  enums.Category `json:"category"`
	Amount    int            `json:"amount"`
	Unit      enums.Unit     `json:"unit"`
	StoreID   string         `json:"store_id,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Store is a user-defined shopping-location tag.
type Store struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateFields carries every field a new item needs. Zero values fall back to
// the data model's defaults (category other, unit count, amount 0).
type CreateFields struct {
	Name     string
	Category enums.Category
	Amount   string
	Unit     enums.Unit
	StoreID  string
}

// FieldPatch is a typed partial update. Nil fields are left untouched.
type FieldPatch struct {
	Name     *string
	Category *enums.Category
	Amount   *string
	Unit     *enums.Unit
	StoreID  *string
}

// IsZero reports whether the patch carries no changes.
func (p FieldPatch) IsZero() bool {
	return p.Name == nil && p.Category == nil && p.Amount == nil && p.Unit == nil && p.StoreID == nil
}

func (p FieldPatch) toDocPatch() docstore.ItemPatch {
	return docstore.ItemPatch{
		Name:     p.Name,
		Category: p.Category,
		Amount:   p.Amount,
		Unit:     p.Unit,
		StoreID:  p.StoreID,
	}
}

// MoveOverrides are fields replaced on the destination copy of a moved item.
// A store tag is expected for pantry-to-grocery moves.
type MoveOverrides struct {
	StoreID string
	Unit    *enums.Unit
}

// MoveOutcome classifies how far a two-phase move got.
type MoveOutcome string

const (
	// MoveFullySucceeded means both the destination create and the source
	// delete went through.
	MoveFullySucceeded MoveOutcome = "fully_succeeded"
	// MoveSucceededCreateOnly means the destination create went through but
	// the source delete failed, leaving the item on both lists until the
	// user resolves the duplicate.
	MoveSucceededCreateOnly MoveOutcome = "succeeded_create_only"
	// MoveFailed means the destination create failed; nothing changed.
	MoveFailed MoveOutcome = "failed"
)

// MoveResult reports a move's outcome and, when the create step went through,
// the freshly minted destination identifier.
type MoveResult struct {
	Outcome MoveOutcome `json:"outcome"`
	NewID   string      `json:"new_id,omitempty"`
}

// DecrementResult reports a quantity decrement. When the computed amount
// reaches 0 nothing is persisted and NeedsDecision is set; the caller must
// follow up with a remove or a move.
type DecrementResult struct {
	Amount        int  `json:"amount"`
	NeedsDecision bool `json:"needs_decision"`
}

func itemFromDocument(doc docstore.ItemDocument) Item {
	return Item{
		ID:        doc.ID,
		Name:      doc.Name,
		Category:  enums.CategoryOrDefault(doc.Category),
		Amount:    docstore.ParseAmount(doc.Amount),
		Unit:      enums.UnitOrDefault(doc.Unit),
		StoreID:   doc.StoreID,
		CreatedAt: doc.CreatedAt,
	}
}
