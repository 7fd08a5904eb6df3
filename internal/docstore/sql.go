package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/pantryline/pantryline-backend/pkg/config"
	"github.com/pantryline/pantryline-backend/pkg/db/models"
	"github.com/pantryline/pantryline-backend/pkg/enums"
	"github.com/pantryline/pantryline-backend/pkg/logger"
	redislib "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// snapshotBus is the publish side of the push channel. *redis.Client
// satisfies it.
type snapshotBus interface {
	Publish(ctx context.Context, channel string, payload any) error
	SyncChannel(owner, list string) string
}

// subscribeBus is the subscribe side of the push channel.
type subscribeBus interface {
	snapshotBus
	Subscribe(ctx context.Context, channels ...string) (*redislib.PubSub, error)
}

// SQLAdapter persists documents in the relational store and publishes a full
// snapshot on the redis push channel after every mutation. Each publish
// replaces the subscribers' copy wholesale.
type SQLAdapter struct {
	db   *gorm.DB
	bus  subscribeBus
	cfg  config.SyncConfig
	logg *logger.Logger
}

// NewSQLAdapter binds the adapter to a GORM DB and the redis push channel.
func NewSQLAdapter(db *gorm.DB, bus subscribeBus, cfg config.SyncConfig, logg *logger.Logger) (*SQLAdapter, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if bus == nil {
		return nil, fmt.Errorf("snapshot bus is required")
	}
	return &SQLAdapter{db: db, bus: bus, cfg: cfg, logg: logg}, nil
}

// CreateItem inserts the document, assigns its identifier, and publishes the
// list snapshot. The returned id is the only confirmation the caller gets;
// visibility in a mirror arrives via the push channel.
func (a *SQLAdapter) CreateItem(ctx context.Context, doc ItemDocument) (string, error) {
	owner, err := uuid.Parse(doc.Owner)
	if err != nil {
		return "", fmt.Errorf("invalid owner id: %w", err)
	}

	row := models.Item{
		ID:       uuid.New(),
		Owner:    owner,
		List:     string(doc.List),
		Name:     doc.Name,
		Category: string(enums.CategoryOrDefault(doc.Category)),
		Amount:   FormatAmount(ParseAmount(doc.Amount)),
		Unit:     string(enums.UnitOrDefault(doc.Unit)),
	}
	if !doc.CreatedAt.IsZero() {
		row.CreatedAt = doc.CreatedAt
	}
	if doc.StoreID != "" {
		storeID, err := uuid.Parse(doc.StoreID)
		if err != nil {
			return "", fmt.Errorf("invalid store id: %w", err)
		}
		row.StoreID = &storeID
	}

	if err := a.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", err
	}

	if err := a.publishSnapshot(ctx, doc.Owner, doc.List); err != nil {
		return row.ID.String(), err
	}
	return row.ID.String(), nil
}

// UpdateItem applies a partial update by document id and republishes the
// owning list's snapshot.
func (a *SQLAdapter) UpdateItem(ctx context.Context, owner, id string, patch ItemPatch) error {
	if patch.IsZero() {
		return nil
	}

	var row models.Item
	if err := a.db.WithContext(ctx).
		Where("owner = ? AND id = ?", owner, id).
		First(&row).Error; err != nil {
		return err
	}

	updates := map[string]any{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Category != nil {
		updates["category"] = string(*patch.Category)
	}
	if patch.Amount != nil {
		updates["amount"] = FormatAmount(ParseAmount(*patch.Amount))
	}
	if patch.Unit != nil {
		updates["unit"] = string(*patch.Unit)
	}
	if patch.StoreID != nil {
		if *patch.StoreID == "" {
			updates["store_id"] = nil
		} else {
			storeID, err := uuid.Parse(*patch.StoreID)
			if err != nil {
				return fmt.Errorf("invalid store id: %w", err)
			}
			updates["store_id"] = storeID
		}
	}

	if err := a.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("owner = ? AND id = ?", owner, id).
		Updates(updates).Error; err != nil {
		return err
	}

	return a.publishSnapshot(ctx, owner, enums.ListAffinity(row.List))
}

// DeleteItem removes the document if present. Deleting an absent id is not an
// error; the snapshot is republished either way so subscribers converge.
func (a *SQLAdapter) DeleteItem(ctx context.Context, owner string, list enums.ListAffinity, id string) error {
	if err := a.db.WithContext(ctx).
		Where("owner = ? AND list = ? AND id = ?", owner, string(list), id).
		Delete(&models.Item{}).Error; err != nil {
		return err
	}
	return a.publishSnapshot(ctx, owner, list)
}

// QueryItems returns the current full result set for one (owner, list) pair.
func (a *SQLAdapter) QueryItems(ctx context.Context, owner string, list enums.ListAffinity) ([]ItemDocument, error) {
	var rows []models.Item
	if err := a.db.WithContext(ctx).
		Where("owner = ? AND list = ?", owner, string(list)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	docs := make([]ItemDocument, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, itemDocFromModel(row))
	}
	return docs, nil
}

// SubscribeItems opens a snapshot stream: the current result set first, then
// one snapshot per subsequent publish on the channel.
func (a *SQLAdapter) SubscribeItems(ctx context.Context, owner string, list enums.ListAffinity) (Subscription, error) {
	pubsub, err := a.bus.Subscribe(ctx, a.bus.SyncChannel(owner, string(list)))
	if err != nil {
		return nil, err
	}

	initial, err := a.QueryItems(ctx, owner, list)
	if err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	sub := &sqlSubscription{
		pubsub:  pubsub,
		updates: make(chan Snapshot, a.pushBuffer()),
		done:    make(chan struct{}),
	}

	go sub.forward(Snapshot{List: list, Items: initial}, a.logg)
	return sub, nil
}

// QueryStores lists the owner's store tags.
func (a *SQLAdapter) QueryStores(ctx context.Context, owner string) ([]StoreDocument, error) {
	var rows []models.StoreTag
	if err := a.db.WithContext(ctx).
		Where("owner = ?", owner).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	docs := make([]StoreDocument, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, StoreDocument{
			ID:        row.ID.String(),
			Owner:     row.Owner.String(),
			Name:      row.Name,
			CreatedAt: row.CreatedAt,
		})
	}
	return docs, nil
}

// CreateStore inserts a store tag and assigns its identifier.
func (a *SQLAdapter) CreateStore(ctx context.Context, doc StoreDocument) (string, error) {
	owner, err := uuid.Parse(doc.Owner)
	if err != nil {
		return "", fmt.Errorf("invalid owner id: %w", err)
	}
	row := models.StoreTag{
		ID:    uuid.New(),
		Owner: owner,
		Name:  doc.Name,
	}
	if err := a.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", err
	}
	return row.ID.String(), nil
}

// DeleteStore removes a store tag; absent ids are not an error.
func (a *SQLAdapter) DeleteStore(ctx context.Context, owner, id string) error {
	return a.db.WithContext(ctx).
		Where("owner = ? AND id = ?", owner, id).
		Delete(&models.StoreTag{}).Error
}

func (a *SQLAdapter) publishSnapshot(ctx context.Context, owner string, list enums.ListAffinity) error {
	items, err := a.QueryItems(ctx, owner, list)
	if err != nil {
		return fmt.Errorf("query snapshot: %w", err)
	}
	payload, err := json.Marshal(Snapshot{List: list, Items: items})
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := a.bus.Publish(ctx, a.bus.SyncChannel(owner, string(list)), payload); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	return nil
}

func (a *SQLAdapter) pushBuffer() int {
	if a.cfg.PushBuffer > 0 {
		return a.cfg.PushBuffer
	}
	return 8
}

func itemDocFromModel(row models.Item) ItemDocument {
	doc := ItemDocument{
		ID:        row.ID.String(),
		Owner:     row.Owner.String(),
		List:      enums.ListAffinity(row.List),
		Name:      row.Name,
		Category:  row.Category,
		Amount:    row.Amount,
		Unit:      row.Unit,
		CreatedAt: row.CreatedAt,
	}
	if row.StoreID != nil {
		doc.StoreID = row.StoreID.String()
	}
	return doc
}

type sqlSubscription struct {
	pubsub  *redislib.PubSub
	updates chan Snapshot
	done    chan struct{}
	once    sync.Once
}

func (s *sqlSubscription) Updates() <-chan Snapshot {
	return s.updates
}

// Unsubscribe closes the redis subscription first so no further message can
// arrive, then waits for the forwarder to drain.
func (s *sqlSubscription) Unsubscribe() error {
	var err error
	s.once.Do(func() {
		err = s.pubsub.Close()
		close(s.done)
	})
	return err
}

func (s *sqlSubscription) forward(initial Snapshot, logg *logger.Logger) {
	defer close(s.updates)

	if !s.deliver(initial) {
		return
	}

	ch := s.pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var snap Snapshot
			if err := json.Unmarshal([]byte(msg.Payload), &snap); err != nil {
				if logg != nil {
					logg.Error(context.Background(), "dropping malformed snapshot push", err)
				}
				continue
			}
			if !s.deliver(snap) {
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *sqlSubscription) deliver(snap Snapshot) bool {
	select {
	case s.updates <- snap:
		return true
	case <-s.done:
		return false
	}
}
