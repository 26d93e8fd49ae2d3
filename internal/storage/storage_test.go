package storage

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/actor"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/clock"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/failure"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/scenario"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/state"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func setupRedisStorage(t *testing.T, ttl time.Duration) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStorageWithClient(client, ttl, testLogger())
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisStorage_GameStateRoundTrip(t *testing.T) {
	s, mr := setupRedisStorage(t, time.Hour)
	ctx := context.Background()
	require.NoError(t, s.Ping(ctx))

	gs := state.NewGameState()
	gs.Player = actor.CharacterProfile{Name: "Harvey Walters", Status: actor.Status{HP: 8, MaxHP: 11}}
	gs.CurrentScenario = &scenario.Snapshot{ID: "library", Name: "Orne Library", TimePoint: clock.New(1, 9, 0)}
	gs.Clock = clock.New(1, 9, 30)
	gs.TemporaryInfo.ActionResults = []state.ActionResult{{
		Character: "Harvey Walters",
		Result:    "stalls",
		Failure:   &failure.Outcome{Kind: failure.KindMalformed, Message: "no payload"},
	}}

	require.NoError(t, s.SaveGameState(ctx, gs.ID, gs))
	assert.True(t, mr.Exists("gamestate:"+gs.ID.String()))
	assert.Equal(t, time.Hour, mr.TTL("gamestate:"+gs.ID.String()))

	loaded, err := s.LoadGameState(ctx, gs.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, gs.ID, loaded.ID)
	assert.Equal(t, 8, loaded.Player.Status.HP)
	assert.Equal(t, clock.New(1, 9, 30), loaded.Clock)
	assert.Equal(t, "library", loaded.ScenarioID())
	require.Len(t, loaded.TemporaryInfo.ActionResults, 1)
	assert.Equal(t, failure.KindMalformed, loaded.TemporaryInfo.ActionResults[0].Failure.Kind)

	require.NoError(t, s.DeleteGameState(ctx, gs.ID))
	loaded, err = s.LoadGameState(ctx, gs.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRedisStorage_Expiry(t *testing.T) {
	s, mr := setupRedisStorage(t, time.Minute)
	ctx := context.Background()
	gs := state.NewGameState()
	require.NoError(t, s.SaveGameState(ctx, gs.ID, gs))

	mr.FastForward(2 * time.Minute)

	loaded, err := s.LoadGameState(ctx, gs.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRedisStorage_Errors(t *testing.T) {
	s, mr := setupRedisStorage(t, 0)
	ctx := context.Background()
	assert.Equal(t, DefaultGameStateTTL, s.ttl)
	assert.Error(t, s.SaveGameState(ctx, uuid.New(), nil))

	id := uuid.New()
	require.NoError(t, mr.Set("gamestate:"+id.String(), "{not json"))
	_, err := s.LoadGameState(ctx, id)
	assert.Error(t, err)

	mr.Close()
	assert.Error(t, s.Ping(ctx))
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "scenarios", "a.json"),
		`{"id":"library","name":"Orne Library","location":"Arkham","time_point":{"day":1,"minute":480},"exits":[{"direction":"out","destination":"Sentinel Hill"}]}`)
	writeFile(t, filepath.Join(dir, "scenarios", "dunwich", "b.json"),
		`[{"id":"hill","name":"Sentinel Hill","location":"Dunwich","short_action_cap":2},{"id":"farm","name":"Whateley Farm","location":"Dunwich"}]`)
	writeFile(t, filepath.Join(dir, "scenarios", "broken.json"), `{"id":`)
	writeFile(t, filepath.Join(dir, "scenarios", "notes.txt"), `ignored`)

	cat, err := LoadCatalog(dir, 4, testLogger())
	require.NoError(t, err)

	assert.Equal(t, []string{"Orne Library", "Sentinel Hill", "Whateley Farm"}, scenario.Names(cat))
	hill, ok := cat.Lookup("sentinel hill")
	require.True(t, ok)
	assert.Equal(t, 2, hill.Cap())
	lib, ok := cat.Get("library")
	require.True(t, ok)
	assert.Equal(t, clock.New(1, 8, 0), lib.TimePoint)
	assert.Equal(t, 4, lib.Cap(), "default cap fills unset snapshots")
}

func TestLoadCatalog_MissingDir(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "nope"), 0, testLogger())
	assert.Error(t, err)
}

func TestArchive(t *testing.T) {
	a, err := OpenArchive(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	game, other := uuid.New(), uuid.New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, text := range []string{"first", "second", "third"} {
		r := state.ActionResult{
			Timestamp: base.Add(time.Duration(i) * time.Second),
			GameTime:  clock.New(1, 8, i*10),
			Character: "Harvey Walters",
			Result:    text,
		}
		if i == 2 {
			r.Failure = &failure.Outcome{Kind: failure.KindTransport, Message: "timeout"}
		}
		require.NoError(t, a.Record(ctx, game, r))
	}
	require.NoError(t, a.Record(ctx, other, state.ActionResult{Character: "Wilbur Whateley", Result: "elsewhere", IsNPC: true}))

	all, err := a.List(ctx, game, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "first", all[0].Result)
	assert.Equal(t, failure.KindTransport, all[2].Failure.Kind)

	recent, err := a.List(ctx, game, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "second", recent[0].Result)
	assert.Equal(t, "third", recent[1].Result)

	n, err := a.Count(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOpenArchive_RequiresPath(t *testing.T) {
	_, err := OpenArchive("  ")
	assert.Error(t, err)
}
