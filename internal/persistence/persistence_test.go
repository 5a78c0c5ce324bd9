package persistence

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/anthology/internal/actions"
	"github.com/talgya/anthology/internal/agents"
	"github.com/talgya/anthology/internal/engine"
	"github.com/talgya/anthology/internal/knowledge"
	"github.com/talgya/anthology/internal/motive"
	"github.com/talgya/anthology/internal/world"
)

// dormSim has one agent at A who walks ten ticks to E and sleeps for ten.
func dormSim(t *testing.T) *engine.Simulation {
	t.Helper()
	g, err := world.Build([]*world.LocationNode{
		world.NewLocation("A", nil, []string{"Hall"}, map[string]float64{"E": 10}),
		world.NewLocation("E", nil, []string{"House"}, map[string]float64{"A": 10}),
	})
	require.NoError(t, err)

	cat := actions.NewCatalog()
	require.NoError(t, cat.Add(&actions.Action{
		Name:         "sleep",
		Kind:         actions.KindPrimary,
		MinTime:      10,
		Effects:      map[string]float64{"physical": 5},
		Requirements: actions.Requirements{Location: &actions.LocationRequirement{HasAllOf: []string{"House"}}},
	}))

	norma := agents.New("Norma", "A", motive.Vector{"physical": 0}, nil)
	cfg := engine.DefaultConfig()
	cfg.Seed = 1
	sim, err := engine.NewSimulation(cat, g, []*agents.Agent{norma}, cfg)
	require.NoError(t, err)
	return sim
}

func openDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "anthology.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestBeginRun(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	assert.Empty(t, db.RunID())

	id, err := db.BeginRun(ctx, 42, "campus.yaml")
	require.NoError(t, err)
	assert.Len(t, id, 36)
	assert.Equal(t, id, db.RunID())

	runs, err := db.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, int64(42), runs[0].Seed)
	assert.Equal(t, "campus.yaml", runs[0].World)

	cur, err := db.GetMeta(ctx, "current_run")
	require.NoError(t, err)
	assert.Equal(t, id, cur)
}

func TestWritesNeedRun(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	err := db.RecordNPC(ctx, 1, knowledge.NPC{Name: "Norma"})
	assert.ErrorIs(t, err, ErrNoRun)
	assert.ErrorIs(t, db.SaveWorldState(ctx, dormSim(t)), ErrNoRun)
}

func TestSaveWorldState(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	sim := dormSim(t)
	_, err := db.BeginRun(ctx, sim.Seed, "dorm")
	require.NoError(t, err)

	ran, err := sim.Advance(ctx, 11)
	require.NoError(t, err)
	require.Equal(t, 11, ran)
	require.NoError(t, db.SaveWorldState(ctx, sim))

	rows, err := db.LoadAgents(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "E", rows[0].Location)
	assert.Equal(t, "sleep", rows[0].CurrentAction)
	assert.Equal(t, agents.StateActing.String(), rows[0].State)

	first, err := db.RecentEvents(ctx, 100)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	// A second save adds only the events of the new ticks.
	_, err = sim.Advance(ctx, 10)
	require.NoError(t, err)
	require.NoError(t, db.SaveWorldState(ctx, sim))

	all, err := db.RecentEvents(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, all, len(sim.EventsAfter(0)))
	assert.Equal(t, uint64(21), all[0].Tick, "newest first")

	tick, err := db.GetMeta(ctx, "last_tick")
	require.NoError(t, err)
	assert.Equal(t, "21", tick)
}

func TestSaveWorldStateKeepsEventsBetweenTicks(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	sim := dormSim(t)
	_, err := db.BeginRun(ctx, sim.Seed, "dorm")
	require.NoError(t, err)

	_, err = sim.Advance(ctx, 3)
	require.NoError(t, err)
	require.NoError(t, db.SaveWorldState(ctx, sim))

	// Stamped with tick 3, which was already saved.
	ok, err := sim.Interrupt("Norma")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = sim.Advance(ctx, 2)
	require.NoError(t, err)
	require.NoError(t, db.SaveWorldState(ctx, sim))

	stored, err := db.RecentEvents(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, stored, len(sim.EventsAfter(0)))

	var interrupts []engine.Event
	for _, e := range stored {
		if e.Category == "interrupt" {
			interrupts = append(interrupts, e)
		}
	}
	require.Len(t, interrupts, 1)
	assert.Equal(t, uint64(3), interrupts[0].Tick)

	for i := 1; i < len(stored); i++ {
		assert.Greater(t, stored[i-1].Seq, stored[i].Seq, "newest first, no duplicates")
	}
}

func TestOrchestratorHistory(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	sim := dormSim(t)
	_, err := db.BeginRun(ctx, sim.Seed, "dorm")
	require.NoError(t, err)

	rec := knowledge.NewRecorder()
	o := engine.NewOrchestrator(sim, rec, db)
	for i := 0; i < 3; i++ {
		_, err := o.Iterate(ctx, 7)
		require.NoError(t, err)
	}

	hist, err := db.NPCHistory(ctx, "", "Norma")
	require.NoError(t, err)
	require.NotEmpty(t, hist)
	last := hist[len(hist)-1]
	assert.Equal(t, uint64(21), last.Tick)
	assert.Equal(t, "E", last.Location)
	assert.Equal(t, actions.WaitAction, last.CurrentAction)
	assert.Equal(t, 5.0, last.Motives["physical"])
	assert.Equal(t, 21, rec.Steps())

	byID, err := db.NPCHistory(ctx, db.RunID(), "Norma")
	require.NoError(t, err)
	assert.Equal(t, hist, byID)

	other, err := db.NPCHistory(ctx, "no-such-run", "Norma")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	sim := dormSim(t)
	_, err := sim.Advance(ctx, 15)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "snaps", "tick-15.json.zst")
	require.NoError(t, WriteSnapshot(path, CaptureSnapshot(sim, "run-1")))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x28, 0xb5, 0x2f, 0xfd}, raw[:4], "zstd frame magic")

	h, err := ReadSnapshotHeader(path)
	require.NoError(t, err)
	assert.Equal(t, SnapshotHeader{Version: SnapshotVersion, Run: "run-1", Tick: 15, Seed: sim.Seed, Agents: 1}, h)

	sf, err := ReadSnapshot(path)
	require.NoError(t, err)
	want := sim.Snapshot()
	assert.Equal(t, want.Tick, sf.Snapshot.Tick)
	assert.Equal(t, want.Stats, sf.Snapshot.Stats)
	require.Len(t, sf.Snapshot.Agents, 1)
	assert.Equal(t, want.Agents[0].Motives, sf.Snapshot.Agents[0].Motives)
	assert.Equal(t, []string{"sleep"}, sf.Snapshot.Agents[0].Queue)
	assert.Equal(t, "E", sf.Snapshot.Agents[0].CurrentLocation)
	assert.Len(t, sf.Snapshot.Locations, 2)
	assert.Equal(t, sim.EventsAfter(0), sf.Events)
}

func TestReadSnapshotMissing(t *testing.T) {
	_, err := ReadSnapshot(filepath.Join(t.TempDir(), "nope.json.zst"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
