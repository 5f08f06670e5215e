package queue

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingLocal struct {
	closed       []string
	socketFrames []string
	userFrames   []string
}

func (r *recordingLocal) CloseSocket(socketID string) {
	r.closed = append(r.closed, socketID)
}

func (r *recordingLocal) DeliverSocket(socketID, event string, _ json.RawMessage) {
	r.socketFrames = append(r.socketFrames, socketID+":"+event)
}

func (r *recordingLocal) DeliverUser(userID uint64, event string, _ json.RawMessage) {
	r.userFrames = append(r.userFrames, fmt.Sprintf("%d:%s", userID, event))
}

func body(t *testing.T, ev GatewayEvent) []byte {
	t.Helper()
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	return b
}

func TestHandleMessageSkipsOwnOrigin(t *testing.T) {
	local := &recordingLocal{}
	ev := GatewayEvent{Origin: "replica-1", Type: EventEvicted, SocketID: "sock-a"}

	require.NoError(t, handleMessage(body(t, ev), "replica-1", local))
	require.Empty(t, local.closed, "a replica's own events are already handled in-process")
}

func TestHandleMessageEviction(t *testing.T) {
	local := &recordingLocal{}
	ev := GatewayEvent{Origin: "replica-2", Type: EventEvicted, SocketID: "sock-a"}

	require.NoError(t, handleMessage(body(t, ev), "replica-1", local))
	require.Equal(t, []string{"sock-a"}, local.closed)
}

func TestHandleMessageEmitTargets(t *testing.T) {
	local := &recordingLocal{}

	bySocket := GatewayEvent{Origin: "replica-2", Type: EventEmit, SocketID: "sock-a", Event: "ping"}
	require.NoError(t, handleMessage(body(t, bySocket), "replica-1", local))
	require.Equal(t, []string{"sock-a:ping"}, local.socketFrames)
	require.Empty(t, local.userFrames)

	byUser := GatewayEvent{Origin: "replica-2", Type: EventEmit, UserID: 7, Event: "ping"}
	require.NoError(t, handleMessage(body(t, byUser), "replica-1", local))
	require.Equal(t, []string{"7:ping"}, local.userFrames)
}

func TestHandleMessageRejectsBadPayloads(t *testing.T) {
	local := &recordingLocal{}

	require.Error(t, handleMessage([]byte("{not json"), "replica-1", local))

	unknown := GatewayEvent{Origin: "replica-2", Type: "resize"}
	require.Error(t, handleMessage(body(t, unknown), "replica-1", local))
}
