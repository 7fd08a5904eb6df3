package items

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"

	"github.com/pantryline/pantryline-backend/internal/docstore"
	"github.com/pantryline/pantryline-backend/pkg/logger"
	"github.com/pantryline/pantryline-backend/pkg/metrics"
)

// AuthChange is one auth-state push: a sign-in or a sign-out for one user.
type AuthChange struct {
	UserID   string
	SignedIn bool
}

// Registry holds one live Repository per authenticated user. Repositories are
// created on sign-in and torn down on sign-out; nothing survives a signed-out
// session.
type Registry struct {
	adapter docstore.Adapter
	logg    *logger.Logger
	metrics *metrics.SyncMetrics

	mu    sync.Mutex
	repos map[string]*Repository
}

// RegistryParams configures a Registry.
type RegistryParams struct {
	Adapter docstore.Adapter
	Logger  *logger.Logger
	Metrics *metrics.SyncMetrics
}

// NewRegistry constructs an empty registry.
func NewRegistry(params RegistryParams) (*Registry, error) {
	if params.Adapter == nil {
		return nil, fmt.Errorf("docstore adapter is required")
	}
	return &Registry{
		adapter: params.Adapter,
		logg:    params.Logger,
		metrics: params.Metrics,
		repos:   map[string]*Repository{},
	}, nil
}

// Acquire returns the user's live repository, constructing and starting one
// if none exists. A second sign-in for the same user reuses the existing
// session.
func (g *Registry) Acquire(ctx context.Context, userID string) (*Repository, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if repo, ok := g.repos[userID]; ok {
		return repo, nil
	}

	repo, err := NewRepository(RepositoryParams{
		Owner:   userID,
		Adapter: g.adapter,
		Logger:  g.logg,
		Metrics: g.metrics,
	})
	if err != nil {
		return nil, err
	}
	if err := repo.Start(ctx); err != nil {
		return nil, err
	}
	g.repos[userID] = repo
	return repo, nil
}

// Get returns the user's repository without creating one.
func (g *Registry) Get(userID string) (*Repository, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	repo, ok := g.repos[userID]
	return repo, ok
}

// Release tears the user's repository down. Releasing an unknown user is not
// an error.
func (g *Registry) Release(userID string) error {
	g.mu.Lock()
	repo, ok := g.repos[userID]
	delete(g.repos, userID)
	g.mu.Unlock()

	if !ok {
		return nil
	}
	return repo.Close()
}

// Run drives the registry from an auth-state stream until the stream closes
// or the context is cancelled. Sign-ins acquire a repository, sign-outs
// release it.
func (g *Registry) Run(ctx context.Context, changes <-chan AuthChange) {
	for {
		select {
		case change, ok := <-changes:
			if !ok {
				return
			}
			if change.SignedIn {
				if _, err := g.Acquire(ctx, change.UserID); err != nil && g.logg != nil {
					g.logg.Error(g.logg.WithUserID(ctx, change.UserID), "acquiring item repository on sign-in", err)
				}
				continue
			}
			if err := g.Release(change.UserID); err != nil && g.logg != nil {
				g.logg.Error(g.logg.WithUserID(ctx, change.UserID), "releasing item repository on sign-out", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// CloseAll tears down every live repository, collecting teardown errors.
func (g *Registry) CloseAll() error {
	g.mu.Lock()
	repos := g.repos
	g.repos = map[string]*Repository{}
	g.mu.Unlock()

	var err error
	for _, repo := range repos {
		err = multierr.Append(err, repo.Close())
	}
	return err
}
