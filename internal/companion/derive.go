package companion

import "math"

// Label is the categorical reading of the emotion value.
type Label string

const (
	Despondent Label = "Despondent"
	Sad        Label = "Sad"
	Uneasy     Label = "Uneasy"
	Neutral    Label = "Neutral"
	Content    Label = "Content"
	Happy      Label = "Happy"
	Ecstatic   Label = "Ecstatic"
)

// LabelFor buckets an emotion value. A value on a boundary belongs to the
// higher band.
func LabelFor(emotion float64) Label {
	switch {
	case emotion < -60:
		return Despondent
	case emotion < -30:
		return Sad
	case emotion < -10:
		return Uneasy
	case emotion < 10:
		return Neutral
	case emotion < 30:
		return Content
	case emotion < 60:
		return Happy
	default:
		return Ecstatic
	}
}

// EmotionLabel returns the current emotion band.
func (c *Companion) EmotionLabel() Label {
	return LabelFor(c.state.Emotion)
}

// PowerLevel derives combat power from rarity, bond, corruption and the
// number of abilities, in [1, 100].
func (c *Companion) PowerLevel() int {
	n := len(c.profile.Abilities)
	p := basePower[c.profile.Rarity] + 0.2*c.state.BondLevel - 0.3*c.state.Corruption + 5*float64(n)
	if n >= 3 {
		p += 10
	}
	return int(clamp(math.Round(p), 1, 100))
}

// Appearance is the presentation styling of a companion.
type Appearance struct {
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// Palette tokens.
const (
	ColorCorrupted = "purple-900"
	ColorUnstable  = "violet-600"
	ColorVoid      = "indigo-800"
	ColorLow       = "blue-600"
	ColorNeutral   = "cyan-400"
	ColorGem       = "sky-400"

	ColorNeutralBright = "cyan-300"
	ColorGemBright     = "sky-300"

	GradientLegendary          = "gradient-gold-aurora"
	GradientLegendaryCorrupted = "gradient-crimson-obsidian"
	GradientEpic               = "gradient-amethyst-tide"
	GradientEpicCorrupted      = "gradient-violet-ember"

	IconWarning  = "warning"
	IconUnstable = "unstable"
	IconVoid     = "void"
	IconLow      = "low"
	IconNeutral  = "spark"
	IconGem      = "gem"
)

// Appearance derives styling. Heavy corruption (>70) wins over everything,
// moderate corruption (>40) over the emotion bands, and the rarity overlay is
// applied last.
func (c *Companion) Appearance() Appearance {
	corruption := c.state.Corruption
	emotion := c.state.Emotion

	var a Appearance
	switch {
	case corruption > 70:
		return Appearance{Color: ColorCorrupted, Icon: IconWarning}
	case corruption > 40:
		a = Appearance{Color: ColorUnstable, Icon: IconUnstable}
	case emotion < -30:
		a = Appearance{Color: ColorVoid, Icon: IconVoid}
	case emotion < 0:
		a = Appearance{Color: ColorLow, Icon: IconLow}
	case emotion < 30:
		a = Appearance{Color: ColorNeutral, Icon: IconNeutral}
	default:
		a = Appearance{Color: ColorGem, Icon: IconGem}
	}

	switch c.profile.Rarity {
	case Legendary:
		a.Color = GradientLegendary
		if corruption > 50 {
			a.Color = GradientLegendaryCorrupted
		}
	case Epic:
		a.Color = GradientEpic
		if corruption > 50 {
			a.Color = GradientEpicCorrupted
		}
	case Rare:
		switch a.Color {
		case ColorNeutral:
			a.Color = ColorNeutralBright
		case ColorGem:
			a.Color = ColorGemBright
		}
	}
	return a
}
