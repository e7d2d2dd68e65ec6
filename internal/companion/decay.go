package companion

import "math"

// ApplyTimeDecay relaxes the companion for the time elapsed since the later
// of its last interaction and its last effective decay. It reports whether
// decay was applied; calls inside the grace window change nothing.
//
// Emotion moves toward zero without overshooting and the bond erodes. Once
// neglect passes NeglectHours, corruption may creep up by one point with a
// probability scaled by the neglected hours inside this window, so the creep
// rate does not depend on how often the host calls in.
func (c *Companion) ApplyTimeDecay() bool {
	now := c.now().UTC()

	since := c.state.LastInteraction
	if c.state.LastDecay.After(since) {
		since = c.state.LastDecay
	}
	hours := now.Sub(since).Hours()
	if hours <= c.cfg.GraceHours {
		return false
	}

	step := hours * c.cfg.EmotionDecayPerHour
	switch {
	case c.state.Emotion > 0:
		c.state.Emotion -= math.Min(c.state.Emotion, step)
	case c.state.Emotion < 0:
		c.state.Emotion += math.Min(-c.state.Emotion, step)
	}

	c.state.BondLevel = math.Max(0, c.state.BondLevel-c.cfg.BondDecayPerHour*hours)

	neglected := now.Sub(c.state.LastInteraction).Hours()
	if neglected > c.cfg.NeglectHours {
		window := math.Min(hours, neglected-c.cfg.NeglectHours)
		if c.rng.Float64() < creepChance(c.cfg.CreepChance, window) {
			c.state.Corruption++
		}
	}

	c.state.LastDecay = now
	c.clampState()
	return true
}

// creepChance is the probability of at least one success in hours
// independent hourly trials.
func creepChance(perHour, hours float64) float64 {
	if hours <= 0 {
		return 0
	}
	return 1 - math.Pow(1-clamp(perHour, 0, 1), hours)
}
