package companion

import (
	"fmt"
	"math"
)

// Interaction kinds understood by Interact. Any other string is accepted and
// handled by the fallback branch.
const (
	Talk  = "talk"
	Feed  = "feed"
	Train = "train"
	Debug = "debug"
)

// Memory actions recorded by the engine itself.
const (
	ActionInitialization = "initialization"
	ActionAbilityUsed    = "ability_used"
)

// InteractionKinds lists the recognised kinds.
func InteractionKinds() []string {
	return []string{Talk, Feed, Train, Debug}
}

// InteractionResult is returned by Interact.
type InteractionResult struct {
	Message          string   `json:"message"`
	AbilityActivated *Ability `json:"ability_activated,omitempty"`
}

// Interact applies one user interaction. Every call updates LastInteraction
// and appends the kind to memory; unknown kinds change nothing else.
func (c *Companion) Interact(kind string) InteractionResult {
	now := c.now().UTC()
	c.state.LastInteraction = now
	c.remember(kind, now, "")

	name := c.profile.Name
	var res InteractionResult

	switch kind {
	case Talk:
		c.state.Emotion += 5
		c.state.BondLevel += 3
		if c.rng.Float64() < c.cfg.TalkPurifyChance {
			c.state.Corruption--
			res.Message = fmt.Sprintf("%s hums along as you talk. A little of the corruption fades.", name)
		} else {
			res.Message = fmt.Sprintf("%s listens closely and seems happier.", name)
		}
	case Feed:
		c.state.Emotion += 10
		c.state.Corruption -= 5
		c.state.BondLevel += 2
		c.clampState()
		res.Message = fmt.Sprintf("%s absorbs the data packet. Corruption is now %d%%.", name, percent(c.state.Corruption))
	case Train:
		c.state.BondLevel += 5
		c.clampState()
		res.Message = fmt.Sprintf("%s trains hard and shows signs of improvement.", name)
		if a := c.RunAbility(); a != nil {
			res.Message = fmt.Sprintf("%s activated %s during training!", name, a.Name)
			res.AbilityActivated = a
		}
	case Debug:
		res.Message = fmt.Sprintf("Diagnostics for %s: corruption at %d%%, bond at %d%%.",
			name, percent(c.state.Corruption), percent(c.state.BondLevel))
		if a := c.RunAbility(); a != nil {
			res.Message = fmt.Sprintf("%s activated %s while being debugged!", name, a.Name)
			res.AbilityActivated = a
		}
	default:
		res.Message = fmt.Sprintf("%s doesn't understand %q.", name, kind)
	}

	c.clampState()
	return res
}

// ActivationChance is the probability that RunAbility fires.
func (c *Companion) ActivationChance() float64 {
	return clamp(0.25+c.state.BondLevel/200-c.state.Corruption/200, 0.05, 0.5)
}

// RunAbility rolls for an ability activation. On success it records an
// "ability_used" memory entry and returns the ability; otherwise nil.
func (c *Companion) RunAbility() *Ability {
	if len(c.profile.Abilities) == 0 {
		return nil
	}
	if c.rng.Float64() >= c.ActivationChance() {
		return nil
	}
	a := c.profile.Abilities[c.rng.IntN(len(c.profile.Abilities))]
	c.remember(ActionAbilityUsed, c.now().UTC(), a.Name)
	return &a
}

func percent(v float64) int {
	return int(math.Round(v))
}
