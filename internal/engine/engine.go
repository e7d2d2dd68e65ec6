package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lazypower/thringlet/internal/companion"
	"github.com/lazypower/thringlet/internal/events"
	"github.com/lazypower/thringlet/internal/store"
)

// ErrNotFound is returned when a companion ID has no stored record.
var ErrNotFound = errors.New("companion not found")

// Engine loads companions from the store, applies one operation at a time
// per companion, saves the result, and publishes what changed.
type Engine struct {
	DB        *store.DB
	Publisher events.Publisher
	Logger    *slog.Logger

	companionOpts []companion.Option

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	stopCh   chan struct{}
	stopOnce sync.Once
}

// Option configures an Engine.
type Option func(*Engine)

// WithPublisher sets where state changes are published.
func WithPublisher(p events.Publisher) Option {
	return func(e *Engine) { e.Publisher = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.Logger = l }
}

// WithCompanionOptions passes options to every companion the engine builds.
func WithCompanionOptions(opts ...companion.Option) Option {
	return func(e *Engine) { e.companionOpts = append(e.companionOpts, opts...) }
}

// New creates a new Engine.
func New(db *store.DB, opts ...Option) *Engine {
	e := &Engine{
		DB:        db,
		Publisher: events.Nop{},
		Logger:    slog.Default(),
		locks:     make(map[string]*sync.Mutex),
		stopCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Snapshot is a companion's profile and state together with the values
// derived from them.
type Snapshot struct {
	Profile    companion.Profile    `json:"profile"`
	State      companion.State      `json:"state"`
	Label      companion.Label      `json:"label"`
	PowerLevel int                  `json:"power_level"`
	Appearance companion.Appearance `json:"appearance"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

func snapshot(c *companion.Companion, rec *store.CompanionRecord) Snapshot {
	s := Snapshot{
		Profile:    c.Profile(),
		State:      c.State(),
		Label:      c.EmotionLabel(),
		PowerLevel: c.PowerLevel(),
		Appearance: c.Appearance(),
	}
	if rec != nil {
		s.CreatedAt = time.UnixMilli(rec.CreatedAt).UTC()
		s.UpdatedAt = time.UnixMilli(rec.UpdatedAt).UTC()
	}
	return s
}

// lock returns the held mutex for a companion ID. Callers must Unlock it.
func (e *Engine) lock(id string) *sync.Mutex {
	e.locksMu.Lock()
	m, ok := e.locks[id]
	if !ok {
		m = &sync.Mutex{}
		e.locks[id] = m
	}
	e.locksMu.Unlock()
	m.Lock()
	return m
}

// withLock runs fn while holding the companion's lock.
func (e *Engine) withLock(id string, fn func() error) error {
	m := e.lock(id)
	defer m.Unlock()
	return fn()
}

func (e *Engine) load(id string) (*companion.Companion, *store.CompanionRecord, error) {
	rec, err := e.DB.GetCompanion(id)
	if err != nil {
		return nil, nil, fmt.Errorf("load companion: %w", err)
	}
	if rec == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	c, err := companion.Restore(rec.Profile, rec.State, e.companionOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("restore companion %s: %w", id, err)
	}
	return c, rec, nil
}

func (e *Engine) save(c *companion.Companion, rec *store.CompanionRecord) error {
	if err := e.DB.SaveState(c.ID(), c.State()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, c.ID())
		}
		return fmt.Errorf("save companion: %w", err)
	}
	rec.UpdatedAt = time.Now().UnixMilli()
	return nil
}

func (e *Engine) publish(ctx context.Context, ev events.Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if err := e.Publisher.Publish(ctx, ev); err != nil {
		e.Logger.Warn("publish event", "type", ev.Type, "companion", ev.CompanionID, "error", err)
	}
}

func stateEvent(typ string, c *companion.Companion) events.Event {
	s := c.State()
	return events.Event{
		Type:        typ,
		CompanionID: c.ID(),
		Emotion:     s.Emotion,
		Corruption:  s.Corruption,
		BondLevel:   s.BondLevel,
		Label:       string(c.EmotionLabel()),
	}
}

// Create builds a new companion from a profile and stores it. A blank ID is
// replaced with a random UUID.
func (e *Engine) Create(ctx context.Context, p companion.Profile) (Snapshot, error) {
	if strings.TrimSpace(p.ID) == "" {
		p.ID = uuid.NewString()
	}
	c, err := companion.New(p, e.companionOpts...)
	if err != nil {
		return Snapshot{}, err
	}

	rec := &store.CompanionRecord{Profile: c.Profile(), State: c.State()}
	if err := e.DB.CreateCompanion(rec); err != nil {
		return Snapshot{}, fmt.Errorf("create companion: %w", err)
	}

	e.Logger.Info("companion created", "companion", c.ID(), "name", p.Name, "rarity", p.Rarity)
	e.publish(ctx, stateEvent(events.TypeCreated, c))
	return snapshot(c, rec), nil
}

// Get returns the stored companion without modifying it.
func (e *Engine) Get(ctx context.Context, id string) (Snapshot, error) {
	c, rec, err := e.load(id)
	if err != nil {
		return Snapshot{}, err
	}
	return snapshot(c, rec), nil
}

// Abilities returns a companion's abilities.
func (e *Engine) Abilities(ctx context.Context, id string) ([]companion.Ability, error) {
	c, _, err := e.load(id)
	if err != nil {
		return nil, err
	}
	return c.Abilities(), nil
}

// Interact applies one interaction and persists the result. Events are
// published after the companion's lock is released.
func (e *Engine) Interact(ctx context.Context, id, kind string) (companion.InteractionResult, Snapshot, error) {
	var (
		res  companion.InteractionResult
		snap Snapshot
		evs  []events.Event
	)
	err := e.withLock(id, func() error {
		c, rec, err := e.load(id)
		if err != nil {
			return err
		}
		res = c.Interact(kind)
		if err := e.save(c, rec); err != nil {
			return err
		}
		snap = snapshot(c, rec)

		ev := stateEvent(events.TypeInteraction, c)
		ev.Kind = kind
		ev.Message = res.Message
		evs = append(evs, ev)
		if res.AbilityActivated != nil {
			ev := stateEvent(events.TypeAbility, c)
			ev.Kind = kind
			ev.Ability = res.AbilityActivated.Name
			evs = append(evs, ev)
		}
		return nil
	})
	if err != nil {
		return companion.InteractionResult{}, Snapshot{}, err
	}

	e.Logger.Debug("interaction", "companion", id, "kind", kind)
	for _, ev := range evs {
		e.publish(ctx, ev)
	}
	return res, snap, nil
}

// Decay applies time decay to one companion. changed reports whether any
// time had to be accounted for; unchanged companions are not written.
func (e *Engine) Decay(ctx context.Context, id string) (snap Snapshot, changed bool, err error) {
	var ev events.Event
	err = e.withLock(id, func() error {
		c, rec, err := e.load(id)
		if err != nil {
			return err
		}
		if !c.ApplyTimeDecay() {
			snap = snapshot(c, rec)
			return nil
		}
		if err := e.save(c, rec); err != nil {
			return err
		}
		snap, changed = snapshot(c, rec), true
		ev = stateEvent(events.TypeDecay, c)
		return nil
	})
	if err != nil {
		return Snapshot{}, false, err
	}
	if changed {
		e.publish(ctx, ev)
	}
	return snap, changed, nil
}

// DecayAll applies time decay to every stored companion and returns how many
// changed. Per-companion failures are logged and skipped.
func (e *Engine) DecayAll(ctx context.Context) (int, error) {
	ids, err := e.DB.ListCompanionIDs()
	if err != nil {
		return 0, fmt.Errorf("list companions: %w", err)
	}

	changed := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return changed, err
		}
		_, ok, err := e.Decay(ctx, id)
		if err != nil {
			// Deleted between listing and decaying.
			if errors.Is(err, ErrNotFound) {
				continue
			}
			e.Logger.Error("decay companion", "companion", id, "error", err)
			continue
		}
		if ok {
			changed++
		}
	}
	return changed, nil
}

// Delete removes a companion. Its lock entry is kept so a caller already
// waiting on it and a later Create with the same ID share one mutex.
func (e *Engine) Delete(ctx context.Context, id string) error {
	err := e.withLock(id, func() error {
		if err := e.DB.DeleteCompanion(id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("%w: %s", ErrNotFound, id)
			}
			return fmt.Errorf("delete companion: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.Logger.Info("companion deleted", "companion", id)
	e.publish(ctx, events.Event{Type: events.TypeDeleted, CompanionID: id})
	return nil
}

// List returns snapshots of stored companions, optionally filtered by owner.
func (e *Engine) List(ctx context.Context, owner string) ([]Snapshot, error) {
	recs, err := e.DB.ListCompanions(owner)
	if err != nil {
		return nil, fmt.Errorf("list companions: %w", err)
	}

	out := make([]Snapshot, 0, len(recs))
	for i := range recs {
		c, err := companion.Restore(recs[i].Profile, recs[i].State, e.companionOpts...)
		if err != nil {
			e.Logger.Warn("skip unreadable companion", "companion", recs[i].Profile.ID, "error", err)
			continue
		}
		out = append(out, snapshot(c, &recs[i]))
	}
	return out, nil
}

// StartDecayTimer runs decay over every companion on startup and then on
// each interval tick until Stop is called.
func (e *Engine) StartDecayTimer(interval time.Duration) {
	e.runDecay()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				e.runDecay()
			case <-e.stopCh:
				return
			}
		}
	}()
}

func (e *Engine) runDecay() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-e.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	if changed, err := e.DecayAll(ctx); err != nil {
		e.Logger.Error("decay error", "error", err)
	} else if changed > 0 {
		e.Logger.Info("decay applied", "companions", changed)
	}
}

// Stop shuts down the engine's background goroutines.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stopCh) })
}
