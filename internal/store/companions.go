package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lazypower/thringlet/internal/companion"
)

var (
	ErrNotFound = errors.New("companion not found")
	ErrExists   = errors.New("companion already exists")
)

// CompanionRecord is a persisted companion: its profile, its last saved
// state, and row timestamps (unix millis).
type CompanionRecord struct {
	Profile   companion.Profile
	State     companion.State
	CreatedAt int64
	UpdatedAt int64
}

// CreateCompanion inserts a new companion with its initial memory log.
func (db *DB) CreateCompanion(rec *CompanionRecord) error {
	abilities, err := json.Marshal(nonNilAbilities(rec.Profile.Abilities))
	if err != nil {
		return fmt.Errorf("encode abilities: %w", err)
	}
	now := time.Now().UnixMilli()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin create companion: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM companions WHERE companion_id = ?`, rec.Profile.ID).Scan(&count); err != nil {
		return fmt.Errorf("check companion: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %s", ErrExists, rec.Profile.ID)
	}

	p, s := rec.Profile, rec.State
	_, err = tx.Exec(`
		INSERT INTO companions (companion_id, name, core, personality, lore, abilities, rarity, owner_address,
			emotion, corruption, bond_level, last_interaction, last_decay, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Core, p.Personality, p.Lore, string(abilities), string(p.Rarity), p.OwnerAddress,
		s.Emotion, s.Corruption, s.BondLevel, toMillis(s.LastInteraction), nullMillis(s.LastDecay), now, now)
	if err != nil {
		return fmt.Errorf("insert companion: %w", err)
	}

	if err := writeMemory(tx, p.ID, s.Memory); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create companion: %w", err)
	}

	rec.CreatedAt = now
	rec.UpdatedAt = now
	return nil
}

// GetCompanion returns a companion by ID, or nil if not found.
func (db *DB) GetCompanion(id string) (*CompanionRecord, error) {
	row := db.QueryRow(`
		SELECT companion_id, name, core, personality, lore, abilities, rarity, owner_address,
			emotion, corruption, bond_level, last_interaction, last_decay, created_at, updated_at
		FROM companions WHERE companion_id = ?
	`, id)
	rec, err := scanCompanion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get companion: %w", err)
	}

	mem, err := db.loadMemory(id)
	if err != nil {
		return nil, err
	}
	rec.State.Memory = mem
	return rec, nil
}

// SaveState persists a companion's state and replaces its memory log.
func (db *DB) SaveState(id string, s companion.State) error {
	now := time.Now().UnixMilli()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin save state: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		UPDATE companions SET emotion = ?, corruption = ?, bond_level = ?,
			last_interaction = ?, last_decay = ?, updated_at = ?
		WHERE companion_id = ?
	`, s.Emotion, s.Corruption, s.BondLevel, toMillis(s.LastInteraction), nullMillis(s.LastDecay), now, id)
	if err != nil {
		return fmt.Errorf("update companion state: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if _, err := tx.Exec(`DELETE FROM memory_entries WHERE companion_id = ?`, id); err != nil {
		return fmt.Errorf("clear memory: %w", err)
	}
	if err := writeMemory(tx, id, s.Memory); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save state: %w", err)
	}
	return nil
}

// ListCompanions returns companions ordered by creation time. An empty owner
// lists all companions.
func (db *DB) ListCompanions(owner string) ([]CompanionRecord, error) {
	query := `
		SELECT companion_id, name, core, personality, lore, abilities, rarity, owner_address,
			emotion, corruption, bond_level, last_interaction, last_decay, created_at, updated_at
		FROM companions`
	var args []any
	if owner != "" {
		query += ` WHERE owner_address = ?`
		args = append(args, owner)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list companions: %w", err)
	}

	var recs []CompanionRecord
	for rows.Next() {
		rec, err := scanCompanion(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan companion: %w", err)
		}
		recs = append(recs, *rec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// Memory is loaded after the cursor is released; the in-memory pool has
	// a single connection.
	for i := range recs {
		mem, err := db.loadMemory(recs[i].Profile.ID)
		if err != nil {
			return nil, err
		}
		recs[i].State.Memory = mem
	}
	return recs, nil
}

// ListCompanionIDs returns every companion ID.
func (db *DB) ListCompanionIDs() ([]string, error) {
	rows, err := db.Query(`SELECT companion_id FROM companions ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list companion ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan companion id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountCompanions returns the number of stored companions.
func (db *DB) CountCompanions() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM companions`).Scan(&n)
	return n, err
}

// DeleteCompanion removes a companion and its memory log.
func (db *DB) DeleteCompanion(id string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin delete companion: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM memory_entries WHERE companion_id = ?`, id); err != nil {
		return fmt.Errorf("delete memory: %w", err)
	}
	result, err := tx.Exec(`DELETE FROM companions WHERE companion_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete companion: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return tx.Commit()
}

func (db *DB) loadMemory(id string) ([]companion.MemoryEntry, error) {
	rows, err := db.Query(`
		SELECT action, at, data FROM memory_entries
		WHERE companion_id = ? ORDER BY seq ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("load memory: %w", err)
	}
	defer rows.Close()

	var mem []companion.MemoryEntry
	for rows.Next() {
		var m companion.MemoryEntry
		var at int64
		var data sql.NullString
		if err := rows.Scan(&m.Action, &at, &data); err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		m.Time = fromMillis(at)
		m.Data = data.String
		mem = append(mem, m)
	}
	return mem, rows.Err()
}

func writeMemory(tx *sql.Tx, id string, mem []companion.MemoryEntry) error {
	if len(mem) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(`
		INSERT INTO memory_entries (companion_id, seq, action, at, data)
		VALUES (?, ?, ?, ?, NULLIF(?, ''))
	`)
	if err != nil {
		return fmt.Errorf("prepare memory insert: %w", err)
	}
	defer stmt.Close()

	for i, m := range mem {
		if _, err := stmt.Exec(id, i, m.Action, toMillis(m.Time), m.Data); err != nil {
			return fmt.Errorf("insert memory %d: %w", i, err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCompanion(row rowScanner) (*CompanionRecord, error) {
	var rec CompanionRecord
	var core, personality, lore, owner sql.NullString
	var abilities, rarity string
	var lastInteraction int64
	var lastDecay sql.NullInt64
	err := row.Scan(&rec.Profile.ID, &rec.Profile.Name, &core, &personality, &lore, &abilities, &rarity, &owner,
		&rec.State.Emotion, &rec.State.Corruption, &rec.State.BondLevel, &lastInteraction, &lastDecay,
		&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rec.Profile.Core = core.String
	rec.Profile.Personality = personality.String
	rec.Profile.Lore = lore.String
	rec.Profile.OwnerAddress = owner.String
	rec.Profile.Rarity = companion.Rarity(rarity)
	if err := json.Unmarshal([]byte(abilities), &rec.Profile.Abilities); err != nil {
		return nil, fmt.Errorf("decode abilities: %w", err)
	}
	rec.State.LastInteraction = fromMillis(lastInteraction)
	if lastDecay.Valid {
		rec.State.LastDecay = fromMillis(lastDecay.Int64)
	}
	return &rec, nil
}

func nonNilAbilities(a []companion.Ability) []companion.Ability {
	if a == nil {
		return []companion.Ability{}
	}
	return a
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func nullMillis(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
