// Package companion implements the thringlet state engine: a single-owner,
// synchronous state machine for one companion's emotion, corruption and bond.
//
// A Companion performs no I/O, no logging and no locking. Hosts that share an
// instance across goroutines must serialise calls themselves.
package companion

import (
	"math/rand/v2"
	"time"
)

// Rand is the random source used for probabilistic rules.
// *math/rand/v2.Rand satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// globalRand draws from the math/rand/v2 top-level source.
type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }
func (globalRand) IntN(n int) int   { return rand.IntN(n) }

// Config holds the tunables of the engine. Zero-valued rate fields fall back
// to DefaultConfig.
type Config struct {
	// MemoryLimit caps the memory log to the most recent entries.
	// Zero or negative keeps the full history.
	MemoryLimit int

	GraceHours          float64 // decay is a no-op within this window
	NeglectHours        float64 // corruption creep starts after this much neglect
	CreepChance         float64 // per neglected hour
	EmotionDecayPerHour float64
	BondDecayPerHour    float64
	TalkPurifyChance    float64
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	return Config{
		MemoryLimit:         200,
		GraceHours:          1,
		NeglectHours:        12,
		CreepChance:         0.10,
		EmotionDecayPerHour: 1,
		BondDecayPerHour:    0.2,
		TalkPurifyChance:    0.30,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.GraceHours <= 0 {
		c.GraceHours = d.GraceHours
	}
	if c.NeglectHours <= 0 {
		c.NeglectHours = d.NeglectHours
	}
	if c.CreepChance <= 0 {
		c.CreepChance = d.CreepChance
	}
	if c.EmotionDecayPerHour <= 0 {
		c.EmotionDecayPerHour = d.EmotionDecayPerHour
	}
	if c.BondDecayPerHour <= 0 {
		c.BondDecayPerHour = d.BondDecayPerHour
	}
	if c.TalkPurifyChance <= 0 {
		c.TalkPurifyChance = d.TalkPurifyChance
	}
	return c
}

// Option configures a Companion at construction.
type Option func(*Companion)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(c *Companion) {
		if now != nil {
			c.now = now
		}
	}
}

// WithRand overrides the random source.
func WithRand(r Rand) Option {
	return func(c *Companion) {
		if r != nil {
			c.rng = r
		}
	}
}

// WithConfig overrides the engine tuning.
func WithConfig(cfg Config) Option {
	return func(c *Companion) {
		c.cfg = cfg.withDefaults()
	}
}

// MemoryEntry is one record in a companion's memory log.
type MemoryEntry struct {
	Action string    `json:"action"`
	Time   time.Time `json:"time"`
	Data   string    `json:"data,omitempty"`
}

// State is the mutable part of a companion.
type State struct {
	Emotion         float64       `json:"emotion"`
	Corruption      float64       `json:"corruption"`
	BondLevel       float64       `json:"bond_level"`
	Memory          []MemoryEntry `json:"memory"`
	LastInteraction time.Time     `json:"last_interaction"`
	LastDecay       time.Time     `json:"last_decay,omitzero"`
}

// Companion is one thringlet. It is not safe for concurrent use.
type Companion struct {
	profile Profile
	state   State
	cfg     Config
	now     func() time.Time
	rng     Rand
}

func build(p Profile, opts []Option) *Companion {
	c := &Companion{
		profile: p.clone(),
		cfg:     DefaultConfig(),
		now:     time.Now,
		rng:     globalRand{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// New creates a companion from a profile with the default starting state and
// records an "initialization" memory entry.
func New(p Profile, opts ...Option) (*Companion, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	c := build(p, opts)
	now := c.now().UTC()
	c.state = State{
		Emotion:         0,
		Corruption:      initialCorruption[p.Rarity],
		BondLevel:       50,
		LastInteraction: now,
	}
	c.remember(ActionInitialization, now, "")
	return c, nil
}

// Restore rehydrates a companion from a persisted profile and state.
// Out-of-range values are clamped and the memory log is trimmed to the
// configured limit. No memory entry is recorded.
func Restore(p Profile, s State, opts ...Option) (*Companion, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	c := build(p, opts)
	c.state = s
	c.state.Memory = append([]MemoryEntry(nil), s.Memory...)
	c.clampState()
	c.trimMemory()
	return c, nil
}

// Profile returns a copy of the immutable profile.
func (c *Companion) Profile() Profile {
	return c.profile.clone()
}

// ID returns the profile identifier.
func (c *Companion) ID() string {
	return c.profile.ID
}

// State returns a snapshot of the mutable state. The memory log is copied.
func (c *Companion) State() State {
	out := c.state
	out.Memory = append([]MemoryEntry(nil), c.state.Memory...)
	return out
}

// Abilities returns the static ability list.
func (c *Companion) Abilities() []Ability {
	return append([]Ability(nil), c.profile.Abilities...)
}

func (c *Companion) remember(action string, at time.Time, data string) {
	c.state.Memory = append(c.state.Memory, MemoryEntry{Action: action, Time: at, Data: data})
	c.trimMemory()
}

func (c *Companion) trimMemory() {
	limit := c.cfg.MemoryLimit
	if limit <= 0 || len(c.state.Memory) <= limit {
		return
	}
	drop := len(c.state.Memory) - limit
	n := copy(c.state.Memory, c.state.Memory[drop:])
	clear(c.state.Memory[n:])
	c.state.Memory = c.state.Memory[:n]
}

func (c *Companion) clampState() {
	c.state.Emotion = clamp(c.state.Emotion, -100, 100)
	c.state.Corruption = clamp(c.state.Corruption, 0, 100)
	c.state.BondLevel = clamp(c.state.BondLevel, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
