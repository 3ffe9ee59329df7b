package events

import (
	"encoding/json/v2"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestServer(t *testing.T) *server.Server {
	t.Helper()
	opts := test.DefaultTestOptions
	opts.Port = -1
	srv := test.RunServer(&opts)
	t.Cleanup(srv.Shutdown)
	return srv
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNATSPublisher_Publish(t *testing.T) {
	srv := startTestServer(t)

	sub, err := nats.Connect(srv.ClientURL())
	require.NoError(t, err)
	defer sub.Close()

	msgs := make(chan *nats.Msg, 1)
	_, err = sub.ChanSubscribe("echoverse.>", msgs)
	require.NoError(t, err)
	require.NoError(t, sub.Flush())

	pub, err := Connect(srv.ClientURL(), "echoverse.", "test", quietLogger())
	require.NoError(t, err)
	defer pub.Close()
	assert.True(t, pub.Connected())

	pub.Publish(TypeNarrationCompleted, NarrationEvent{
		UserID:    "user-1",
		HistoryID: "hist-1",
		Segments:  3,
		Skipped:   []int{1},
	})

	select {
	case msg := <-msgs:
		assert.Equal(t, "echoverse.narration.completed", msg.Subject)

		var got NarrationEvent
		require.NoError(t, json.Unmarshal(msg.Data, &got))
		assert.Equal(t, TypeNarrationCompleted, got.Type)
		assert.Equal(t, "hist-1", got.HistoryID)
		assert.Equal(t, 3, got.Segments)
		assert.Equal(t, []int{1}, got.Skipped)
		assert.False(t, got.OccurredAt.IsZero())
	case <-time.After(5 * time.Second):
		t.Fatal("event not received")
	}
}

func TestNATSPublisher_Subject(t *testing.T) {
	p := &NATSPublisher{prefix: ""}
	assert.Equal(t, "history.deleted", p.Subject(TypeHistoryDeleted))

	p = NewNATSPublisher(nil, ".svc.", quietLogger())
	assert.Equal(t, "svc.speech.completed", p.Subject(TypeSpeechCompleted))
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect("nats://127.0.0.1:1", "echoverse", "test", quietLogger())
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	p.Publish(TypeNarrationFailed, NarrationEvent{})
	p.Close()
}
