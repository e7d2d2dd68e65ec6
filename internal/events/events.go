// Package events carries companion state changes to interested listeners:
// in-process subscribers (the websocket stream) and an optional MQTT broker.
package events

import (
	"context"
	"errors"
	"time"
)

// Event types.
const (
	TypeCreated     = "created"
	TypeInteraction = "interaction"
	TypeAbility     = "ability"
	TypeDecay       = "decay"
	TypeDeleted     = "deleted"
)

// Event is a single state change on one companion.
type Event struct {
	Type        string    `json:"type"`
	CompanionID string    `json:"companion_id"`
	Kind        string    `json:"kind,omitempty"`
	Message     string    `json:"message,omitempty"`
	Ability     string    `json:"ability,omitempty"`
	Emotion     float64   `json:"emotion"`
	Corruption  float64   `json:"corruption"`
	BondLevel   float64   `json:"bond_level"`
	Label       string    `json:"label,omitempty"`
	At          time.Time `json:"at"`
}

// Publisher delivers events somewhere.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Multi fans an event out to several publishers. Every publisher is tried;
// failures are joined.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
