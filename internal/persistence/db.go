// Package persistence provides SQLite-based storage of realm snapshots and
// the append-only transaction journal.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/talgya/mini-realm/internal/defs"
	"github.com/talgya/mini-realm/internal/economy"
	"github.com/talgya/mini-realm/internal/engine"
	"github.com/talgya/mini-realm/internal/logs"
	"github.com/talgya/mini-realm/internal/pops"
	"github.com/talgya/mini-realm/internal/social"
	"github.com/talgya/mini-realm/internal/world"
)

// Meta keys.
const (
	metaSession   = "session"
	metaTurn      = "last_turn"
	metaSeed      = "seed"
	metaMapRadius = "map_radius"
)

// DB wraps a SQLite connection for realm persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS countries (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		wealth INTEGER NOT NULL,
		data_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ledger_entries (
		country_id INTEGER NOT NULL,
		commodity TEXT NOT NULL,
		stored INTEGER NOT NULL,
		capacity INTEGER NOT NULL,
		offer INTEGER NOT NULL,
		bid INTEGER NOT NULL,
		demand INTEGER NOT NULL,
		input INTEGER NOT NULL,
		output INTEGER NOT NULL,
		PRIMARY KEY (country_id, commodity)
	);

	CREATE TABLE IF NOT EXISTS provinces (
		id INTEGER PRIMARY KEY,
		owner INTEGER NOT NULL,
		data_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS pops (
		id INTEGER PRIMARY KEY,
		province_id INTEGER NOT NULL,
		site_id INTEGER NOT NULL,
		type TEXT NOT NULL,
		culture TEXT NOT NULL,
		religion TEXT NOT NULL,
		phenotype TEXT NOT NULL,
		size INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session TEXT NOT NULL,
		country_id INTEGER NOT NULL,
		turn INTEGER NOT NULL,
		direction TEXT NOT NULL,
		category TEXT NOT NULL,
		amount INTEGER NOT NULL,
		commodity TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		counterparty INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		turn INTEGER NOT NULL,
		country_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_country ON transactions(country_id, turn);
	CREATE INDEX IF NOT EXISTS idx_events_turn ON events(turn);
	CREATE INDEX IF NOT EXISTS idx_pops_province ON pops(province_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveCountries writes every country and its ledger (full replace).
func (db *DB) SaveCountries(countries []*social.Country) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM countries"); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM ledger_entries"); err != nil {
		return err
	}

	for _, c := range countries {
		data, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("encode country %d: %w", c.ID, err)
		}
		snap := c.Economy.Snapshot()
		if _, err := tx.Exec("INSERT INTO countries (id, name, wealth, data_json) VALUES (?, ?, ?, ?)",
			c.ID, c.Name, snap.Wealth, string(data)); err != nil {
			return fmt.Errorf("insert country %d: %w", c.ID, err)
		}
		for _, id := range c.Economy.Commodities() {
			e := snap.Entries[id]
			if _, err := tx.Exec(`INSERT INTO ledger_entries
				(country_id, commodity, stored, capacity, offer, bid, demand, input, output)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				c.ID, id, e.Stored, e.Capacity, e.Offer, e.Bid, e.Demand, e.Input, e.Output); err != nil {
				return fmt.Errorf("insert ledger %d/%s: %w", c.ID, id, err)
			}
		}
	}

	return tx.Commit()
}

// SaveProvinces writes every province with its sites.
func (db *DB) SaveProvinces(provinces []*world.Province) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM provinces"); err != nil {
		return err
	}
	for _, p := range provinces {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encode province %d: %w", p.ID, err)
		}
		if _, err := tx.Exec("INSERT INTO provinces (id, owner, data_json) VALUES (?, ?, ?)", p.ID, p.Owner, string(data)); err != nil {
			return fmt.Errorf("insert province %d: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

// SavePops writes every population unit.
func (db *DB) SavePops(units []*pops.Unit) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM pops"); err != nil {
		return err
	}
	stmt, err := tx.PrepareNamed(`INSERT INTO pops
		(id, province_id, site_id, type, culture, religion, phenotype, size)
		VALUES (:id, :province_id, :site_id, :type, :culture, :religion, :phenotype, :size)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, u := range units {
		if _, err := stmt.Exec(u); err != nil {
			return fmt.Errorf("insert pop %d: %w", u.ID, err)
		}
	}

	return tx.Commit()
}

// AppendTransactions adds one step's transactions to the journal. The
// journal is never rewritten.
func (db *DB) AppendTransactions(session string, byCountry map[world.CountryID][]economy.Transaction) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for country, list := range byCountry {
		for _, t := range list {
			if _, err := tx.Exec(`INSERT INTO transactions
				(session, country_id, turn, direction, category, amount, commodity, quantity, counterparty)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				session, country, t.Turn, t.Direction, t.Category, t.Amount, t.Commodity, t.Quantity, t.Counterparty); err != nil {
				return fmt.Errorf("insert transaction: %w", err)
			}
		}
	}

	return tx.Commit()
}

// Transactions returns the journal of one country from turn onwards, oldest
// first.
func (db *DB) Transactions(country world.CountryID, fromTurn int) ([]economy.Transaction, error) {
	var out []economy.Transaction
	err := db.conn.Select(&out,
		`SELECT turn, direction, category, amount, commodity, quantity, counterparty
		 FROM transactions WHERE country_id = ? AND turn >= ? ORDER BY id`,
		country, fromTurn,
	)
	return out, err
}

// SaveEvents appends events to the database.
func (db *DB) SaveEvents(events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT INTO events (turn, country_id, title, description, category) VALUES (?, ?, ?, ?, ?)",
			e.Turn, e.Country, e.Title, e.Description, e.Category,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecentEvents returns the most recent N events, newest first.
func (db *DB) RecentEvents(limit int) ([]engine.Event, error) {
	var rows []struct {
		Turn        int    `db:"turn"`
		Country     uint32 `db:"country_id"`
		Title       string `db:"title"`
		Description string `db:"description"`
		Category    string `db:"category"`
	}
	err := db.conn.Select(&rows,
		"SELECT turn, country_id, title, description, category FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	events := make([]engine.Event, len(rows))
	for i, r := range rows {
		events[i] = engine.Event{Turn: r.Turn, Country: world.CountryID(r.Country), Title: r.Title, Description: r.Description, Category: r.Category}
	}
	return events, nil
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// HasWorldState reports whether a snapshot has been saved.
func (db *DB) HasWorldState() bool {
	var n int
	if err := db.conn.Get(&n, "SELECT COUNT(*) FROM countries"); err != nil {
		return false
	}
	return n > 0
}

// SaveWorldState performs a full save of the session. Events drained since
// the last save are appended; the transaction journal is written per step
// by AppendTransactions.
func (db *DB) SaveWorldState(sim *engine.Simulation, events []engine.Event) error {
	countries := sim.Countries()
	logs.Info("saving world state",
		zap.String("session", sim.SessionID),
		zap.Int("turn", sim.Turn),
		zap.Int("countries", len(countries)),
		zap.Int("units", sim.Pops.Len()),
	)

	if err := db.SaveCountries(countries); err != nil {
		return fmt.Errorf("save countries: %w", err)
	}
	if err := db.SaveProvinces(sim.Provinces()); err != nil {
		return fmt.Errorf("save provinces: %w", err)
	}
	if err := db.SavePops(sim.Pops.All()); err != nil {
		return fmt.Errorf("save pops: %w", err)
	}
	if err := db.SaveEvents(events); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	meta := map[string]string{
		metaSession:   sim.SessionID,
		metaTurn:      strconv.Itoa(sim.Turn),
		metaSeed:      strconv.FormatUint(sim.Seed(), 10),
		metaMapRadius: strconv.Itoa(sim.Map.Radius),
	}
	for k, v := range meta {
		if err := db.SaveMeta(k, v); err != nil {
			return fmt.Errorf("save meta %s: %w", k, err)
		}
	}

	logs.Info("world state saved", zap.Int("turn", sim.Turn))
	return nil
}

// LoadWorldState rebuilds a session from the last snapshot. The map is
// regenerated from the stored seed; scripts are recompiled from their
// sources.
func (db *DB) LoadWorldState(content *defs.Database) (*engine.Simulation, error) {
	seed, err := db.metaInt("seed", metaSeed)
	if err != nil {
		return nil, err
	}
	radius, err := db.metaInt("map radius", metaMapRadius)
	if err != nil {
		return nil, err
	}
	turn, err := db.metaInt("turn", metaTurn)
	if err != nil {
		return nil, err
	}

	gen := world.DefaultGenConfig()
	gen.Seed = int64(seed)
	gen.Radius = int(radius)
	m := world.Generate(gen)

	sim, err := engine.NewSimulation(content, m, seed)
	if err != nil {
		return nil, err
	}
	if session, err := db.GetMeta(metaSession); err == nil {
		sim.SessionID = session
	}

	if err := db.loadCountries(sim); err != nil {
		return nil, fmt.Errorf("load countries: %w", err)
	}
	if err := db.loadProvinces(sim); err != nil {
		return nil, fmt.Errorf("load provinces: %w", err)
	}
	var units []*pops.Unit
	if err := db.conn.Select(&units, "SELECT id, province_id, site_id, type, culture, religion, phenotype, size FROM pops ORDER BY id"); err != nil {
		return nil, fmt.Errorf("load pops: %w", err)
	}
	for _, u := range units {
		sim.Pops.Add(u)
	}

	sim.Resume(int(turn))
	logs.Info("world state loaded",
		zap.String("session", sim.SessionID),
		zap.Int("turn", sim.Turn),
		zap.Int("countries", len(sim.Countries())),
		zap.Int("units", sim.Pops.Len()),
	)
	return sim, nil
}

func (db *DB) metaInt(what, key string) (uint64, error) {
	v, err := db.GetMeta(key)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("no saved %s", what)
	}
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", what, v, err)
	}
	return n, nil
}

func (db *DB) loadCountries(sim *engine.Simulation) error {
	var rows []struct {
		ID     uint32 `db:"id"`
		Wealth int64  `db:"wealth"`
		Data   string `db:"data_json"`
	}
	if err := db.conn.Select(&rows, "SELECT id, wealth, data_json FROM countries ORDER BY id"); err != nil {
		return err
	}
	for _, r := range rows {
		c := &social.Country{}
		if err := json.Unmarshal([]byte(r.Data), c); err != nil {
			return fmt.Errorf("decode country %d: %w", r.ID, err)
		}
		if c.Relations.Base == nil {
			c.Relations.Base = make(map[world.CountryID]int64)
		}

		var entries []struct {
			Commodity string `db:"commodity"`
			economy.Entry
		}
		if err := db.conn.Select(&entries,
			`SELECT commodity, stored, capacity, offer, bid, demand, input, output
			 FROM ledger_entries WHERE country_id = ?`, r.ID); err != nil {
			return fmt.Errorf("load ledger %d: %w", r.ID, err)
		}
		snap := economy.Snapshot{Owner: c.ID, Wealth: r.Wealth, Entries: make(map[string]economy.Entry, len(entries))}
		for _, e := range entries {
			snap.Entries[e.Commodity] = e.Entry
		}
		c.Economy = sim.NewLedger(c.ID)
		c.Economy.Restore(snap)

		if err := sim.BindScripts(c); err != nil {
			return err
		}
		if err := sim.AddCountry(c); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) loadProvinces(sim *engine.Simulation) error {
	var rows []struct {
		ID   uint32 `db:"id"`
		Data string `db:"data_json"`
	}
	if err := db.conn.Select(&rows, "SELECT id, data_json FROM provinces ORDER BY id"); err != nil {
		return err
	}
	for _, r := range rows {
		p := &world.Province{}
		if err := json.Unmarshal([]byte(r.Data), p); err != nil {
			return fmt.Errorf("decode province %d: %w", r.ID, err)
		}
		if hex := sim.Map.Get(p.Position); hex != nil {
			pid := p.ID
			hex.ProvinceID = &pid
		}
		if err := sim.AddProvince(p); err != nil {
			return err
		}
	}
	return nil
}
