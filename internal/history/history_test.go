package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/comigor/chatsim-go/internal/config"
	"github.com/comigor/chatsim-go/internal/timeline"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func sampleMessages(t *testing.T) []timeline.Message {
	t.Helper()
	tl := timeline.New()
	a, err := tl.Append(timeline.Text(timeline.AuthorUser, "hi"), epoch)
	require.NoError(t, err)
	b, err := tl.Append(timeline.GeneratedImage("caption", "https://img/1", "a fox"), epoch.Add(time.Second))
	require.NoError(t, err)
	return []timeline.Message{a, b}
}

func exercise(t *testing.T, sink Sink) {
	t.Helper()
	ctx := context.Background()
	session, other := uuid.New(), uuid.New()
	msgs := sampleMessages(t)

	for _, m := range msgs {
		require.NoError(t, sink.Save(ctx, session, m))
	}
	require.NoError(t, sink.Save(ctx, other, msgs[0]))

	got, err := sink.List(ctx, session)
	require.NoError(t, err)
	require.Equal(t, msgs, got)

	got, err = sink.List(ctx, other)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestMemory(t *testing.T) {
	exercise(t, NewMemory())
}

func TestSQLite(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	sink := OpenSQLite(dsn)
	t.Cleanup(func() { require.NoError(t, sink.Close()) })
	require.True(t, sink.Healthy())
	exercise(t, sink)
}

func TestSQLite_FallsBackWhenUnavailable(t *testing.T) {
	sink := OpenSQLite("file:/nonexistent-dir/forbidden/history.db?mode=ro")
	t.Cleanup(func() { _ = sink.Close() })
	require.False(t, sink.Healthy())
	exercise(t, sink)
}

func TestOpen_SelectsDriver(t *testing.T) {
	require.IsType(t, &Memory{}, Open(config.HistoryConfig{Driver: config.HistoryDriverMemory}))
	sink := Open(config.HistoryConfig{Driver: config.HistoryDriverSQLite, DSN: "file:" + uuid.NewString() + "?mode=memory&cache=shared"})
	t.Cleanup(func() { _ = sink.Close() })
	require.IsType(t, &SQLite{}, sink)
}

func TestSQLite_SameMessageInTwoSessions(t *testing.T) {
	sink := OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	t.Cleanup(func() { require.NoError(t, sink.Close()) })
	ctx := context.Background()
	msg := sampleMessages(t)[0]

	a, b := uuid.New(), uuid.New()
	require.NoError(t, sink.Save(ctx, a, msg))
	require.NoError(t, sink.Save(ctx, b, msg))
	require.True(t, sink.Healthy())

	got, err := sink.List(ctx, b)
	require.NoError(t, err)
	require.Equal(t, []timeline.Message{msg}, got)
}

func TestSQLite_FailedWriteServesFallback(t *testing.T) {
	sink := OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	t.Cleanup(func() { _ = sink.Close() })
	ctx := context.Background()
	session := uuid.New()
	msgs := sampleMessages(t)

	require.NoError(t, sink.Save(ctx, session, msgs[0]))
	require.NoError(t, sink.db.Close())
	require.NoError(t, sink.Save(ctx, session, msgs[1]))
	require.False(t, sink.Healthy())

	got, err := sink.List(ctx, session)
	require.NoError(t, err)
	require.Equal(t, msgs, got)
}
