package companion

import "testing"

func TestAppearance(t *testing.T) {
	tests := []struct {
		name       string
		rarity     Rarity
		emotion    float64
		corruption float64
		want       Appearance
	}{
		{"heavy corruption wins", Common, 50, 71, Appearance{ColorCorrupted, IconWarning}},
		{"heavy corruption beats legendary overlay", Legendary, 80, 90, Appearance{ColorCorrupted, IconWarning}},
		{"heavy corruption beats epic overlay", Epic, -50, 75, Appearance{ColorCorrupted, IconWarning}},
		{"boundary 70 is unstable", Common, 50, 70, Appearance{ColorUnstable, IconUnstable}},
		{"moderate corruption beats emotion", Common, -80, 45, Appearance{ColorUnstable, IconUnstable}},
		{"boundary 40 uses emotion", Common, 50, 40, Appearance{ColorGem, IconGem}},
		{"void", Common, -31, 0, Appearance{ColorVoid, IconVoid}},
		{"boundary -30 is low", Common, -30, 0, Appearance{ColorLow, IconLow}},
		{"low", Common, -1, 0, Appearance{ColorLow, IconLow}},
		{"neutral at zero", Common, 0, 0, Appearance{ColorNeutral, IconNeutral}},
		{"neutral", Common, 29, 0, Appearance{ColorNeutral, IconNeutral}},
		{"gem at 30", Common, 30, 0, Appearance{ColorGem, IconGem}},
		{"legendary pure", Legendary, 40, 0, Appearance{GradientLegendary, IconGem}},
		{"legendary unstable below 50", Legendary, 40, 45, Appearance{GradientLegendary, IconUnstable}},
		{"legendary corrupted above 50", Legendary, 40, 55, Appearance{GradientLegendaryCorrupted, IconUnstable}},
		{"epic pure", Epic, -40, 5, Appearance{GradientEpic, IconVoid}},
		{"epic corrupted above 50", Epic, 0, 60, Appearance{GradientEpicCorrupted, IconUnstable}},
		{"rare brightens neutral", Rare, 0, 10, Appearance{ColorNeutralBright, IconNeutral}},
		{"rare brightens gem", Rare, 45, 10, Appearance{ColorGemBright, IconGem}},
		{"rare leaves low", Rare, -5, 10, Appearance{ColorLow, IconLow}},
		{"rare leaves unstable", Rare, 45, 50, Appearance{ColorUnstable, IconUnstable}},
	}

	for _, tt := range tests {
		c := mustRestore(t, testProfile(tt.rarity), State{Emotion: tt.emotion, Corruption: tt.corruption, BondLevel: 50})
		if got := c.Appearance(); got != tt.want {
			t.Errorf("%s: Appearance = %+v, want %+v", tt.name, got, tt.want)
		}
	}
}

func TestLabelForMatchesCompanion(t *testing.T) {
	c := mustNew(t, testProfile(Common))
	if c.EmotionLabel() != LabelFor(0) {
		t.Errorf("EmotionLabel = %q, want %q", c.EmotionLabel(), LabelFor(0))
	}
}
