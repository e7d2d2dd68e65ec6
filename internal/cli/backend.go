package cli

import (
	"context"
	"fmt"

	"github.com/lazypower/thringlet/internal/client"
	"github.com/lazypower/thringlet/internal/companion"
	"github.com/lazypower/thringlet/internal/engine"
	"github.com/lazypower/thringlet/internal/store"
)

// backend is what the companion commands run against: the local database
// directly, or a running server when --remote is set.
type backend interface {
	Create(p companion.Profile) (engine.Snapshot, error)
	Get(id string) (engine.Snapshot, error)
	List(owner string) ([]engine.Snapshot, error)
	Interact(id, kind string) (client.InteractResponse, error)
	Decay(id string) (client.DecayResponse, error)
	DecayAll() (int, error)
	Abilities(id string) ([]companion.Ability, error)
	Delete(id string) error
	Close() error
}

func openBackend(ctx context.Context) (backend, error) {
	if remoteURL != "" {
		c := client.New(remoteURL)
		if !c.Healthy() {
			return nil, fmt.Errorf("server not reachable at %s", c.URL())
		}
		return remoteBackend{c}, nil
	}

	db, err := openDB()
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return &localBackend{ctx: ctx, db: db, eng: newEngine(db)}, nil
}

// resolveDBPath picks the configured database path (config file or
// THRINGLET_DB_PATH) or the default one.
func resolveDBPath() (string, error) {
	if cfg.Database.Path != "" {
		return cfg.Database.Path, nil
	}
	p, err := store.DefaultDBPath()
	if err != nil {
		return "", fmt.Errorf("resolve db path: %w", err)
	}
	return p, nil
}

// openDB is a helper that opens the database for CLI commands.
func openDB() (*store.DB, error) {
	dbPath, err := resolveDBPath()
	if err != nil {
		return nil, err
	}
	return store.Open(dbPath)
}

func newEngine(db *store.DB, opts ...engine.Option) *engine.Engine {
	tuning := companion.DefaultConfig()
	tuning.MemoryLimit = cfg.Engine.MemoryLimit
	opts = append([]engine.Option{
		engine.WithLogger(logger),
		engine.WithCompanionOptions(companion.WithConfig(tuning)),
	}, opts...)
	return engine.New(db, opts...)
}

type localBackend struct {
	ctx context.Context
	db  *store.DB
	eng *engine.Engine
}

func (b *localBackend) Create(p companion.Profile) (engine.Snapshot, error) {
	return b.eng.Create(b.ctx, p)
}

func (b *localBackend) Get(id string) (engine.Snapshot, error) {
	return b.eng.Get(b.ctx, id)
}

func (b *localBackend) List(owner string) ([]engine.Snapshot, error) {
	return b.eng.List(b.ctx, owner)
}

func (b *localBackend) Interact(id, kind string) (client.InteractResponse, error) {
	res, snap, err := b.eng.Interact(b.ctx, id, kind)
	return client.InteractResponse{Result: res, Companion: snap}, err
}

func (b *localBackend) Decay(id string) (client.DecayResponse, error) {
	snap, changed, err := b.eng.Decay(b.ctx, id)
	return client.DecayResponse{Changed: changed, Companion: snap}, err
}

func (b *localBackend) DecayAll() (int, error) {
	return b.eng.DecayAll(b.ctx)
}

func (b *localBackend) Abilities(id string) ([]companion.Ability, error) {
	return b.eng.Abilities(b.ctx, id)
}

func (b *localBackend) Delete(id string) error {
	return b.eng.Delete(b.ctx, id)
}

func (b *localBackend) Close() error {
	return b.db.Close()
}

type remoteBackend struct {
	*client.Client
}

// DecayAll decays each listed companion in turn.
func (b remoteBackend) DecayAll() (int, error) {
	snaps, err := b.List("")
	if err != nil {
		return 0, err
	}
	changed := 0
	for _, s := range snaps {
		res, err := b.Decay(s.Profile.ID)
		if err != nil {
			return changed, err
		}
		if res.Changed {
			changed++
		}
	}
	return changed, nil
}

func (remoteBackend) Close() error { return nil }
