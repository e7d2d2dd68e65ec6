package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/lazypower/thringlet/internal/companion"
	"github.com/lazypower/thringlet/internal/engine"
)

func printSnapshot(w io.Writer, s engine.Snapshot) {
	p, st := s.Profile, s.State
	fmt.Fprintf(w, "%s  [%s]  power %d\n", p.Name, p.Rarity, s.PowerLevel)
	fmt.Fprintf(w, "  id:          %s\n", p.ID)
	if p.OwnerAddress != "" {
		fmt.Fprintf(w, "  owner:       %s\n", p.OwnerAddress)
	}
	if p.Core != "" {
		fmt.Fprintf(w, "  core:        %s\n", p.Core)
	}
	if p.Personality != "" {
		fmt.Fprintf(w, "  personality: %s\n", p.Personality)
	}
	if p.Lore != "" {
		fmt.Fprintf(w, "  lore:        %s\n", p.Lore)
	}
	fmt.Fprintf(w, "  mood:        %s (%+.0f)\n", s.Label, st.Emotion)
	fmt.Fprintf(w, "  corruption:  %.0f%%\n", st.Corruption)
	fmt.Fprintf(w, "  bond:        %.0f%%\n", st.BondLevel)
	fmt.Fprintf(w, "  look:        %s / %s\n", s.Appearance.Color, s.Appearance.Icon)
	fmt.Fprintf(w, "  last seen:   %s\n", humanize.Time(st.LastInteraction))
	fmt.Fprintf(w, "  memories:    %s\n", commaInt(len(st.Memory)))
}

// statusLine is the one-line summary printed after a state change.
func statusLine(s engine.Snapshot) string {
	return fmt.Sprintf("%s is %s: emotion %+.0f, corruption %.0f%%, bond %.0f%%",
		s.Profile.Name, s.Label, s.State.Emotion, s.State.Corruption, s.State.BondLevel)
}

func printList(w io.Writer, snaps []engine.Snapshot) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tRARITY\tMOOD\tCORRUPTION\tBOND\tPOWER\tLAST SEEN")
	for _, s := range snaps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.0f%%\t%.0f%%\t%d\t%s\n",
			s.Profile.ID, s.Profile.Name, s.Profile.Rarity, s.Label,
			s.State.Corruption, s.State.BondLevel, s.PowerLevel,
			humanize.Time(s.State.LastInteraction))
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%s %s\n", commaInt(len(snaps)), plural(len(snaps), "companion", "companions"))
}

func describeAbility(a companion.Ability) string {
	out := a.Name
	if a.Type != "" {
		out += " (" + a.Type + ")"
	}
	if a.Description != "" {
		out += ": " + a.Description
	}
	return out
}

func printAbilities(w io.Writer, abilities []companion.Ability) {
	fmt.Fprintln(w, "Abilities:")
	for _, a := range abilities {
		fmt.Fprintf(w, "  - %s\n", describeAbility(a))
	}
}

// printMemory prints the last n entries, newest last.
func printMemory(w io.Writer, mem []companion.MemoryEntry, n int) {
	if n < len(mem) {
		mem = mem[len(mem)-n:]
	}
	fmt.Fprintln(w, "Memory:")
	for _, m := range mem {
		line := m.Action
		if m.Data != "" {
			line += " " + m.Data
		}
		fmt.Fprintf(w, "  %-24s %s\n", line, humanize.Time(m.Time))
	}
}

func commaInt(n int) string {
	return humanize.Comma(int64(n))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
