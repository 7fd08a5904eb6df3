package docstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pantryline/pantryline-backend/pkg/enums"
)

// MemoryAdapter is an in-process document store with the same push semantics
// as the SQL adapter. It backs local development and tests.
type MemoryAdapter struct {
	mu     sync.Mutex
	items  map[string]ItemDocument
	stores map[string]StoreDocument
	subs   map[listKey][]*memorySubscription
	buffer int
}

type listKey struct {
	owner string
	list  enums.ListAffinity
}

// NewMemoryAdapter constructs an empty in-memory store.
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{
		items:  map[string]ItemDocument{},
		stores: map[string]StoreDocument{},
		subs:   map[listKey][]*memorySubscription{},
		buffer: 8,
	}
}

func (m *MemoryAdapter) CreateItem(ctx context.Context, doc ItemDocument) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc.ID = uuid.NewString()
	doc.Category = string(enums.CategoryOrDefault(doc.Category))
	doc.Unit = string(enums.UnitOrDefault(doc.Unit))
	doc.Amount = FormatAmount(ParseAmount(doc.Amount))
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	m.items[doc.ID] = doc

	m.publishLocked(listKey{owner: doc.Owner, list: doc.List})
	return doc.ID, nil
}

func (m *MemoryAdapter) UpdateItem(ctx context.Context, owner, id string, patch ItemPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.items[id]
	if !ok || doc.Owner != owner {
		return fmt.Errorf("item %s not found", id)
	}

	if patch.Name != nil {
		doc.Name = *patch.Name
	}
	if patch.Category != nil {
		doc.Category = string(*patch.Category)
	}
	if patch.Amount != nil {
		doc.Amount = FormatAmount(ParseAmount(*patch.Amount))
	}
	if patch.Unit != nil {
		doc.Unit = string(*patch.Unit)
	}
	if patch.StoreID != nil {
		doc.StoreID = *patch.StoreID
	}
	m.items[id] = doc

	m.publishLocked(listKey{owner: owner, list: doc.List})
	return nil
}

func (m *MemoryAdapter) DeleteItem(ctx context.Context, owner string, list enums.ListAffinity, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if doc, ok := m.items[id]; ok && doc.Owner == owner && doc.List == list {
		delete(m.items, id)
	}
	m.publishLocked(listKey{owner: owner, list: list})
	return nil
}

func (m *MemoryAdapter) QueryItems(ctx context.Context, owner string, list enums.ListAffinity) ([]ItemDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queryLocked(listKey{owner: owner, list: list}), nil
}

func (m *MemoryAdapter) SubscribeItems(ctx context.Context, owner string, list enums.ListAffinity) (Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := listKey{owner: owner, list: list}
	sub := &memorySubscription{
		adapter: m,
		key:     key,
		updates: make(chan Snapshot, m.buffer),
		done:    make(chan struct{}),
	}
	m.subs[key] = append(m.subs[key], sub)

	sub.send(Snapshot{List: list, Items: m.queryLocked(key)})
	return sub, nil
}

func (m *MemoryAdapter) QueryStores(ctx context.Context, owner string) ([]StoreDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	docs := []StoreDocument{}
	for _, doc := range m.stores {
		if doc.Owner == owner {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (m *MemoryAdapter) CreateStore(ctx context.Context, doc StoreDocument) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc.ID = uuid.NewString()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	m.stores[doc.ID] = doc
	return doc.ID, nil
}

func (m *MemoryAdapter) DeleteStore(ctx context.Context, owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if doc, ok := m.stores[id]; ok && doc.Owner == owner {
		delete(m.stores, id)
	}
	return nil
}

func (m *MemoryAdapter) queryLocked(key listKey) []ItemDocument {
	docs := []ItemDocument{}
	for _, doc := range m.items {
		if doc.Owner == key.owner && doc.List == key.list {
			docs = append(docs, doc)
		}
	}
	return docs
}

func (m *MemoryAdapter) publishLocked(key listKey) {
	snap := Snapshot{List: key.list, Items: m.queryLocked(key)}
	for _, sub := range m.subs[key] {
		sub.send(snap)
	}
}

func (m *MemoryAdapter) dropSubscription(target *memorySubscription) {
	m.mu.Lock()
	defer m.mu.Unlock()

	subs := m.subs[target.key]
	for i, sub := range subs {
		if sub == target {
			m.subs[target.key] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
}

type memorySubscription struct {
	adapter *MemoryAdapter
	key     listKey
	updates chan Snapshot
	done    chan struct{}
	once    sync.Once
}

func (s *memorySubscription) Updates() <-chan Snapshot {
	return s.updates
}

func (s *memorySubscription) Unsubscribe() error {
	s.once.Do(func() {
		s.adapter.dropSubscription(s)
		close(s.done)
		close(s.updates)
	})
	return nil
}

// send never blocks the store's mutation path. When the buffer is full the
// oldest queued push is evicted: each snapshot carries the complete state, so
// only the newest one matters and it must always land.
func (s *memorySubscription) send(snap Snapshot) {
	for {
		select {
		case <-s.done:
			return
		case s.updates <- snap:
			return
		default:
		}
		select {
		case <-s.updates:
		default:
		}
	}
}
