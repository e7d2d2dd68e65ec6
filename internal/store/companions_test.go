package store

import (
	"errors"
	"testing"
	"time"

	"github.com/lazypower/thringlet/internal/companion"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newRecord(t *testing.T, id, owner string) *CompanionRecord {
	t.Helper()
	p := companion.Profile{
		ID:           id,
		Name:         "Nyx",
		Core:         "glass",
		Personality:  "curious",
		Lore:         "found in a cache line",
		Rarity:       companion.Rare,
		OwnerAddress: owner,
		Abilities: []companion.Ability{
			{Name: "Patch", Type: "support", Description: "mends a corrupted sector"},
		},
	}
	c, err := companion.New(p, companion.WithClock(func() time.Time { return epoch }))
	if err != nil {
		t.Fatalf("companion.New: %v", err)
	}
	return &CompanionRecord{Profile: c.Profile(), State: c.State()}
}

func TestCreateAndGetCompanion(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	rec := newRecord(t, "thr-001", "0xabc")
	if err := db.CreateCompanion(rec); err != nil {
		t.Fatalf("CreateCompanion: %v", err)
	}
	if rec.CreatedAt == 0 {
		t.Error("CreatedAt not set")
	}

	got, err := db.GetCompanion("thr-001")
	if err != nil {
		t.Fatalf("GetCompanion: %v", err)
	}
	if got == nil {
		t.Fatal("GetCompanion returned nil")
	}
	if got.Profile.Name != "Nyx" || got.Profile.Rarity != companion.Rare {
		t.Errorf("Profile = %+v", got.Profile)
	}
	if got.Profile.OwnerAddress != "0xabc" {
		t.Errorf("OwnerAddress = %q, want 0xabc", got.Profile.OwnerAddress)
	}
	if len(got.Profile.Abilities) != 1 || got.Profile.Abilities[0].Name != "Patch" {
		t.Errorf("Abilities = %+v", got.Profile.Abilities)
	}
	if got.State.Corruption != 10 || got.State.BondLevel != 50 {
		t.Errorf("State = %+v", got.State)
	}
	if !got.State.LastInteraction.Equal(epoch) {
		t.Errorf("LastInteraction = %v, want %v", got.State.LastInteraction, epoch)
	}
	if !got.State.LastDecay.IsZero() {
		t.Errorf("LastDecay = %v, want zero", got.State.LastDecay)
	}
	if len(got.State.Memory) != 1 || got.State.Memory[0].Action != companion.ActionInitialization {
		t.Errorf("Memory = %+v, want one initialization entry", got.State.Memory)
	}
}

func TestGetCompanionNotFound(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	got, err := db.GetCompanion("missing")
	if err != nil {
		t.Fatalf("GetCompanion: %v", err)
	}
	if got != nil {
		t.Errorf("GetCompanion = %+v, want nil", got)
	}
}

func TestCreateCompanionDuplicate(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	if err := db.CreateCompanion(newRecord(t, "thr-001", "")); err != nil {
		t.Fatalf("CreateCompanion: %v", err)
	}
	err = db.CreateCompanion(newRecord(t, "thr-001", ""))
	if !errors.Is(err, ErrExists) {
		t.Errorf("duplicate CreateCompanion error = %v, want ErrExists", err)
	}
}

func TestSaveStateReplacesMemory(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	rec := newRecord(t, "thr-001", "")
	if err := db.CreateCompanion(rec); err != nil {
		t.Fatalf("CreateCompanion: %v", err)
	}

	later := epoch.Add(3 * time.Hour)
	s := rec.State
	s.Emotion = 25
	s.Corruption = 4
	s.BondLevel = 61.5
	s.LastInteraction = later
	s.LastDecay = later
	s.Memory = append(s.Memory,
		companion.MemoryEntry{Action: "feed", Time: later},
		companion.MemoryEntry{Action: companion.ActionAbilityUsed, Time: later, Data: "Patch"},
	)
	if err := db.SaveState("thr-001", s); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	got, err := db.GetCompanion("thr-001")
	if err != nil {
		t.Fatalf("GetCompanion: %v", err)
	}
	if got.State.Emotion != 25 || got.State.Corruption != 4 || got.State.BondLevel != 61.5 {
		t.Errorf("State = %+v", got.State)
	}
	if !got.State.LastDecay.Equal(later) {
		t.Errorf("LastDecay = %v, want %v", got.State.LastDecay, later)
	}
	if len(got.State.Memory) != 3 {
		t.Fatalf("len(Memory) = %d, want 3", len(got.State.Memory))
	}
	if got.State.Memory[1].Action != "feed" || got.State.Memory[2].Data != "Patch" {
		t.Errorf("Memory = %+v", got.State.Memory)
	}

	// A shorter log replaces the old one.
	s.Memory = s.Memory[2:]
	if err := db.SaveState("thr-001", s); err != nil {
		t.Fatalf("SaveState trimmed: %v", err)
	}
	got, _ = db.GetCompanion("thr-001")
	if len(got.State.Memory) != 1 || got.State.Memory[0].Action != companion.ActionAbilityUsed {
		t.Errorf("Memory after trim = %+v", got.State.Memory)
	}
}

func TestSaveStateNotFound(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	err = db.SaveState("missing", companion.State{LastInteraction: epoch})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("SaveState error = %v, want ErrNotFound", err)
	}
}

func TestListCompanions(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	for _, r := range []struct{ id, owner string }{
		{"thr-001", "0xabc"},
		{"thr-002", "0xdef"},
		{"thr-003", "0xabc"},
	} {
		if err := db.CreateCompanion(newRecord(t, r.id, r.owner)); err != nil {
			t.Fatalf("CreateCompanion %s: %v", r.id, err)
		}
	}

	all, err := db.ListCompanions("")
	if err != nil {
		t.Fatalf("ListCompanions: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len(all) = %d, want 3", len(all))
	}
	for _, rec := range all {
		if len(rec.State.Memory) != 1 {
			t.Errorf("%s: len(Memory) = %d, want 1", rec.Profile.ID, len(rec.State.Memory))
		}
	}

	mine, err := db.ListCompanions("0xabc")
	if err != nil {
		t.Fatalf("ListCompanions owner: %v", err)
	}
	if len(mine) != 2 || mine[0].Profile.ID != "thr-001" || mine[1].Profile.ID != "thr-003" {
		t.Errorf("owner list = %+v", mine)
	}

	ids, err := db.ListCompanionIDs()
	if err != nil {
		t.Fatalf("ListCompanionIDs: %v", err)
	}
	if len(ids) != 3 {
		t.Errorf("ListCompanionIDs = %v, want 3 ids", ids)
	}

	n, err := db.CountCompanions()
	if err != nil {
		t.Fatalf("CountCompanions: %v", err)
	}
	if n != 3 {
		t.Errorf("CountCompanions = %d, want 3", n)
	}
}

func TestDeleteCompanion(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	if err := db.CreateCompanion(newRecord(t, "thr-001", "")); err != nil {
		t.Fatalf("CreateCompanion: %v", err)
	}
	if err := db.DeleteCompanion("thr-001"); err != nil {
		t.Fatalf("DeleteCompanion: %v", err)
	}

	got, err := db.GetCompanion("thr-001")
	if err != nil {
		t.Fatalf("GetCompanion: %v", err)
	}
	if got != nil {
		t.Error("companion still present after delete")
	}

	var orphans int
	db.QueryRow(`SELECT COUNT(*) FROM memory_entries WHERE companion_id = 'thr-001'`).Scan(&orphans)
	if orphans != 0 {
		t.Errorf("memory_entries left = %d, want 0", orphans)
	}

	if err := db.DeleteCompanion("thr-001"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteCompanion error = %v, want ErrNotFound", err)
	}
}
