// Package persistence provides SQLite-based run history and world state
// storage, plus compressed snapshot files.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/anthology/internal/engine"
	"github.com/talgya/anthology/internal/knowledge"
)

// ErrNoRun is returned by writes that need a run before BeginRun was called.
var ErrNoRun = errors.New("no active run")

// DB wraps a SQLite connection for run history and world state.
type DB struct {
	conn *sqlx.DB
	run  string

	eventsSeq uint64 // Events up to this Seq are already stored
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	conn.SetMaxOpenConns(1)

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
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		started_at TEXT NOT NULL,
		world TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS npc_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		name TEXT NOT NULL,
		location TEXT NOT NULL,
		destination TEXT NOT NULL,
		current_action TEXT NOT NULL,
		action_counter INTEGER NOT NULL,
		motives_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		tick INTEGER NOT NULL,
		agent TEXT NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS agents (
		name TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		location TEXT NOT NULL,
		destination TEXT NOT NULL,
		current_action TEXT NOT NULL,
		state TEXT NOT NULL,
		occupied INTEGER NOT NULL,
		queue_json TEXT NOT NULL,
		motives_json TEXT NOT NULL,
		relationships_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS locations (
		name TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		tags_json TEXT NOT NULL,
		occupants_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_seq ON events(run_id, seq);
	CREATE INDEX IF NOT EXISTS idx_npc_log_name ON npc_log(run_id, name, tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Run is one row of the runs table.
type Run struct {
	ID        string `db:"id"`
	Seed      int64  `db:"seed"`
	StartedAt string `db:"started_at"`
	World     string `db:"world"`
}

// BeginRun records a new run and makes it the target of later writes.
func (db *DB) BeginRun(ctx context.Context, seed int64, worldPath string) (string, error) {
	id := uuid.NewString()
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO runs (id, seed, started_at, world) VALUES (?, ?, ?, ?)",
		id, seed, time.Now().UTC().Format(time.RFC3339), worldPath,
	)
	if err != nil {
		return "", fmt.Errorf("begin run: %w", err)
	}
	db.run = id
	db.eventsSeq = 0
	if err := db.SaveMeta(ctx, "current_run", id); err != nil {
		return "", err
	}
	slog.Info("run started", "run", id, "seed", seed)
	return id, nil
}

// RunID returns the active run, or "" before BeginRun.
func (db *DB) RunID() string { return db.run }

// Runs lists every recorded run, oldest first.
func (db *DB) Runs(ctx context.Context) ([]Run, error) {
	var runs []Run
	err := db.conn.SelectContext(ctx, &runs, "SELECT id, seed, started_at, world FROM runs ORDER BY started_at, id")
	return runs, err
}

// NPCRecord is one row of the NPC change log.
type NPCRecord struct {
	Tick          uint64             `db:"tick"`
	Name          string             `db:"name"`
	Location      string             `db:"location"`
	Destination   string             `db:"destination"`
	CurrentAction string             `db:"current_action"`
	ActionCounter int                `db:"action_counter"`
	MotivesJSON   string             `db:"motives_json"`
	Motives       map[string]float64 `db:"-"`
}

// RecordNPC implements engine.History.
func (db *DB) RecordNPC(ctx context.Context, tick uint64, npc knowledge.NPC) error {
	if db.run == "" {
		return ErrNoRun
	}
	motives, err := json.Marshal(npc.Motives)
	if err != nil {
		return fmt.Errorf("encode motives: %w", err)
	}
	_, err = db.conn.ExecContext(ctx, `INSERT INTO npc_log
		(run_id, tick, name, location, destination, current_action, action_counter, motives_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		db.run, tick, npc.Name, npc.Location, npc.Destination,
		npc.CurrentAction, npc.ActionCounter, string(motives),
	)
	return err
}

// NPCHistory returns the logged records for one agent of a run. An empty
// runID selects the active run.
func (db *DB) NPCHistory(ctx context.Context, runID, name string) ([]NPCRecord, error) {
	if runID == "" {
		runID = db.run
	}
	var recs []NPCRecord
	err := db.conn.SelectContext(ctx, &recs, `SELECT tick, name, location, destination,
		current_action, action_counter, motives_json
		FROM npc_log WHERE run_id = ? AND name = ? ORDER BY id`,
		runID, name,
	)
	if err != nil {
		return nil, err
	}
	for i := range recs {
		if err := json.Unmarshal([]byte(recs[i].MotivesJSON), &recs[i].Motives); err != nil {
			return nil, fmt.Errorf("decode motives of %q at tick %d: %w", name, recs[i].Tick, err)
		}
	}
	return recs, nil
}

// SaveAgents replaces the stored agent state.
func (db *DB) SaveAgents(ctx context.Context, snaps []engine.AgentSnapshot) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM agents"); err != nil {
		return err
	}

	stmt, err := tx.PreparexContext(ctx, `INSERT INTO agents
		(name, run_id, location, destination, current_action, state, occupied,
		 queue_json, motives_json, relationships_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range snaps {
		queueJSON, _ := json.Marshal(a.Queue)
		motivesJSON, _ := json.Marshal(a.Motives)
		relsJSON, _ := json.Marshal(a.Relationships)

		_, err := stmt.ExecContext(ctx,
			a.Name, db.run, a.CurrentLocation, a.Destination, a.CurrentAction,
			a.State, a.Occupied,
			string(queueJSON), string(motivesJSON), string(relsJSON),
		)
		if err != nil {
			return fmt.Errorf("insert agent %q: %w", a.Name, err)
		}
	}

	return tx.Commit()
}

// SaveLocations replaces the stored location occupancy.
func (db *DB) SaveLocations(ctx context.Context, snaps []engine.LocationSnapshot) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM locations"); err != nil {
		return err
	}

	for _, l := range snaps {
		tagsJSON, _ := json.Marshal(l.Tags)
		occJSON, _ := json.Marshal(l.Occupants)
		_, err := tx.ExecContext(ctx,
			"INSERT INTO locations (name, run_id, tags_json, occupants_json) VALUES (?, ?, ?, ?)",
			l.Name, db.run, string(tagsJSON), string(occJSON),
		)
		if err != nil {
			return fmt.Errorf("insert location %q: %w", l.Name, err)
		}
	}

	return tx.Commit()
}

// StoredAgent is one row of the agents table.
type StoredAgent struct {
	Name          string `db:"name"`
	Location      string `db:"location"`
	Destination   string `db:"destination"`
	CurrentAction string `db:"current_action"`
	State         string `db:"state"`
	Occupied      int    `db:"occupied"`
	QueueJSON     string `db:"queue_json"`
	MotivesJSON   string `db:"motives_json"`
}

// LoadAgents returns the stored agent rows ordered by name.
func (db *DB) LoadAgents(ctx context.Context) ([]StoredAgent, error) {
	var rows []StoredAgent
	err := db.conn.SelectContext(ctx, &rows, `SELECT name, location, destination, current_action,
		state, occupied, queue_json, motives_json FROM agents ORDER BY name`)
	return rows, err
}

// SaveEvents appends events to the active run.
func (db *DB) SaveEvents(ctx context.Context, events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}
	if db.run == "" {
		return ErrNoRun
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO events (run_id, seq, tick, agent, description, category) VALUES (?, ?, ?, ?, ?, ?)",
			db.run, e.Seq, e.Tick, e.Agent, e.Description, e.Category,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(ctx context.Context, key, value string) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := db.conn.GetContext(ctx, &value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// SaveWorldState performs a full save of the simulation: agents, locations,
// events not yet stored, and the current tick.
func (db *DB) SaveWorldState(ctx context.Context, sim *engine.Simulation) error {
	if db.run == "" {
		return ErrNoRun
	}
	snap := sim.Snapshot()
	slog.Info("saving world state", "tick", snap.Tick, "agents", len(snap.Agents), "locations", len(snap.Locations))

	if err := db.SaveAgents(ctx, snap.Agents); err != nil {
		return fmt.Errorf("save agents: %w", err)
	}
	if err := db.SaveLocations(ctx, snap.Locations); err != nil {
		return fmt.Errorf("save locations: %w", err)
	}

	fresh := sim.EventsAfter(db.eventsSeq)
	if err := db.SaveEvents(ctx, fresh); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	if len(fresh) > 0 {
		db.eventsSeq = fresh[len(fresh)-1].Seq
	}

	if err := db.SaveMeta(ctx, "last_tick", strconv.FormatUint(snap.Tick, 10)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	slog.Info("world state saved", "events", len(fresh))
	return nil
}

// RecentEvents returns the most recent N events of the active run, newest first.
func (db *DB) RecentEvents(ctx context.Context, limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.SelectContext(ctx, &events,
		"SELECT seq, tick, agent, description, category FROM events WHERE run_id = ? ORDER BY seq DESC LIMIT ?",
		db.run, limit,
	)
	return events, err
}
