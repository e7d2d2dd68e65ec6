package companion

import (
	"errors"
	"fmt"
	"strings"
)

// Rarity is the fixed tier of a companion.
type Rarity string

const (
	Common    Rarity = "Common"
	Rare      Rarity = "Rare"
	Epic      Rarity = "Epic"
	Legendary Rarity = "Legendary"
)

// Rarer companions start purer.
var initialCorruption = map[Rarity]float64{
	Common:    15,
	Rare:      10,
	Epic:      5,
	Legendary: 0,
}

var basePower = map[Rarity]float64{
	Common:    10,
	Rare:      25,
	Epic:      40,
	Legendary: 60,
}

// Rarities lists the tiers in ascending order.
func Rarities() []Rarity {
	return []Rarity{Common, Rare, Epic, Legendary}
}

// Valid reports whether r is one of the defined tiers.
func (r Rarity) Valid() bool {
	_, ok := basePower[r]
	return ok
}

// ParseRarity maps a case-insensitive name to a Rarity.
func ParseRarity(s string) (Rarity, error) {
	s = strings.TrimSpace(s)
	for _, r := range Rarities() {
		if strings.EqualFold(s, string(r)) {
			return r, nil
		}
	}
	return "", &InvalidProfileError{Field: "rarity", Reason: fmt.Sprintf("unknown rarity %q", s)}
}

// Ability is a named capability that may trigger during train and debug.
type Ability struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Profile is the immutable identity of a companion.
type Profile struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Core         string    `json:"core"`
	Personality  string    `json:"personality"`
	Lore         string    `json:"lore"`
	Abilities    []Ability `json:"abilities"`
	Rarity       Rarity    `json:"rarity"`
	OwnerAddress string    `json:"owner_address"`
}

func (p Profile) clone() Profile {
	p.Abilities = append([]Ability(nil), p.Abilities...)
	return p
}

// Validate checks the fields the engine depends on.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return &InvalidProfileError{Field: "id", Reason: "required"}
	}
	if strings.TrimSpace(p.Name) == "" {
		return &InvalidProfileError{Field: "name", Reason: "required"}
	}
	if !p.Rarity.Valid() {
		return &InvalidProfileError{Field: "rarity", Reason: fmt.Sprintf("unknown rarity %q", p.Rarity)}
	}
	for i, a := range p.Abilities {
		if strings.TrimSpace(a.Name) == "" {
			return &InvalidProfileError{Field: fmt.Sprintf("abilities[%d].name", i), Reason: "required"}
		}
	}
	return nil
}

// ErrInvalidProfile matches every *InvalidProfileError via errors.Is.
var ErrInvalidProfile = errors.New("invalid profile")

// InvalidProfileError reports a profile the engine cannot be built from.
type InvalidProfileError struct {
	Field  string
	Reason string
}

func (e *InvalidProfileError) Error() string {
	return fmt.Sprintf("invalid profile: %s: %s", e.Field, e.Reason)
}

func (e *InvalidProfileError) Is(target error) bool {
	return target == ErrInvalidProfile
}
