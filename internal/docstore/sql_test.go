package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/pantryline/pantryline-backend/pkg/config"
	"github.com/pantryline/pantryline-backend/pkg/db/models"
	"github.com/pantryline/pantryline-backend/pkg/enums"
	redislib "github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type recordingBus struct {
	channels []string
	payloads [][]byte
}

func (b *recordingBus) Publish(ctx context.Context, channel string, payload any) error {
	b.channels = append(b.channels, channel)
	b.payloads = append(b.payloads, payload.([]byte))
	return nil
}

func (b *recordingBus) SyncChannel(owner, list string) string {
	return fmt.Sprintf("pl:sync:%s:%s", owner, list)
}

func (b *recordingBus) Subscribe(ctx context.Context, channels ...string) (*redislib.PubSub, error) {
	return nil, fmt.Errorf("not supported in tests")
}

func (b *recordingBus) lastSnapshot(t *testing.T) Snapshot {
	t.Helper()
	if len(b.payloads) == 0 {
		t.Fatal("no snapshot published")
	}
	var snap Snapshot
	if err := json.Unmarshal(b.payloads[len(b.payloads)-1], &snap); err != nil {
		t.Fatalf("unmarshal published snapshot: %v", err)
	}
	return snap
}

func newTestSQLAdapter(t *testing.T) (*SQLAdapter, *recordingBus) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Item{}, &models.StoreTag{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		db.Exec("DELETE FROM items")
		db.Exec("DELETE FROM store_tags")
	})

	bus := &recordingBus{}
	adapter, err := NewSQLAdapter(db, bus, config.SyncConfig{PushBuffer: 4}, nil)
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	return adapter, bus
}

func TestSQLAdapterCreatePublishesSnapshot(t *testing.T) {
	adapter, bus := newTestSQLAdapter(t)
	ctx := context.Background()
	owner := uuid.NewString()

	id, err := adapter.CreateItem(ctx, ItemDocument{
		Owner: owner, List: enums.ListPantry, Name: "flour", Amount: "2", Unit: "kg", Category: "grains",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id == "" {
		t.Fatal("adapter must return the assigned id")
	}

	wantChannel := "pl:sync:" + owner + ":pantry"
	if bus.channels[len(bus.channels)-1] != wantChannel {
		t.Fatalf("published to %q, want %q", bus.channels[len(bus.channels)-1], wantChannel)
	}
	snap := bus.lastSnapshot(t)
	if snap.List != enums.ListPantry || len(snap.Items) != 1 || snap.Items[0].ID != id {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestSQLAdapterUpdateAppliesPatch(t *testing.T) {
	adapter, bus := newTestSQLAdapter(t)
	ctx := context.Background()
	owner := uuid.NewString()

	id, err := adapter.CreateItem(ctx, ItemDocument{Owner: owner, List: enums.ListGrocery, Name: "milk", Amount: "1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	amount := "3"
	category := enums.CategoryDairy
	if err := adapter.UpdateItem(ctx, owner, id, ItemPatch{Amount: &amount, Category: &category}); err != nil {
		t.Fatalf("update: %v", err)
	}

	snap := bus.lastSnapshot(t)
	if snap.Items[0].Amount != "3" || snap.Items[0].Category != "dairy" {
		t.Fatalf("patch not applied: %+v", snap.Items[0])
	}
	if snap.Items[0].Name != "milk" {
		t.Fatalf("untouched field changed: %+v", snap.Items[0])
	}
}

func TestSQLAdapterUpdateWithEmptyPatchIsNoop(t *testing.T) {
	adapter, bus := newTestSQLAdapter(t)
	ctx := context.Background()
	owner := uuid.NewString()

	id, err := adapter.CreateItem(ctx, ItemDocument{Owner: owner, List: enums.ListGrocery, Name: "milk"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	published := len(bus.payloads)

	if err := adapter.UpdateItem(ctx, owner, id, ItemPatch{}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(bus.payloads) != published {
		t.Fatal("empty patch must not publish a snapshot")
	}
}

func TestSQLAdapterDeleteAbsentIDStillPublishes(t *testing.T) {
	adapter, bus := newTestSQLAdapter(t)
	ctx := context.Background()
	owner := uuid.NewString()

	if err := adapter.DeleteItem(ctx, owner, enums.ListPantry, uuid.NewString()); err != nil {
		t.Fatalf("delete absent: %v", err)
	}
	snap := bus.lastSnapshot(t)
	if len(snap.Items) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

func TestSQLAdapterNormalizesAmountAndEnums(t *testing.T) {
	adapter, bus := newTestSQLAdapter(t)
	ctx := context.Background()
	owner := uuid.NewString()

	if _, err := adapter.CreateItem(ctx, ItemDocument{
		Owner: owner, List: enums.ListPantry, Name: "mystery",
		Amount: "not-a-number", Category: "weird", Unit: "weird",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	snap := bus.lastSnapshot(t)
	doc := snap.Items[0]
	if doc.Amount != "0" {
		t.Errorf("amount = %q, want 0", doc.Amount)
	}
	if doc.Category != string(enums.CategoryOther) {
		t.Errorf("category = %q, want other", doc.Category)
	}
	if doc.Unit != string(enums.UnitCount) {
		t.Errorf("unit = %q, want count", doc.Unit)
	}
}

func TestSQLAdapterStoreTagCRUD(t *testing.T) {
	adapter, _ := newTestSQLAdapter(t)
	ctx := context.Background()
	owner := uuid.NewString()

	id, err := adapter.CreateStore(ctx, StoreDocument{Owner: owner, Name: "farmers market"})
	if err != nil {
		t.Fatalf("create store: %v", err)
	}

	stores, err := adapter.QueryStores(ctx, owner)
	if err != nil {
		t.Fatalf("query stores: %v", err)
	}
	if len(stores) != 1 || stores[0].ID != id {
		t.Fatalf("unexpected stores: %+v", stores)
	}

	if err := adapter.DeleteStore(ctx, owner, id); err != nil {
		t.Fatalf("delete store: %v", err)
	}
	stores, err = adapter.QueryStores(ctx, owner)
	if err != nil {
		t.Fatalf("query stores: %v", err)
	}
	if len(stores) != 0 {
		t.Fatalf("store should be gone: %+v", stores)
	}
}
