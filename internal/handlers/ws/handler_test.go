package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"gildedtable/internal/common/clock"
	"gildedtable/internal/common/identifier"
	"gildedtable/internal/dice"
	"gildedtable/internal/protocol"
	roomRepo "gildedtable/internal/repositories/room"
	"gildedtable/internal/services/session"
	sessionMocks "gildedtable/internal/services/session/mocks"
)

func readFrame(t *testing.T, c *connection) *protocol.Inbound {
	t.Helper()
	select {
	case frame := <-c.send:
		var env protocol.Inbound
		require.NoError(t, json.Unmarshal(frame, &env))
		return &env
	default:
		t.Fatal("no frame queued")
		return nil
	}
}

func TestNewValidatesConfig(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockService := sessionMocks.NewMockService(ctrl)

	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNilConfig)

	_, err = New(&Config{})
	assert.ErrorIs(t, err, ErrNilService)

	_, err = New(&Config{Service: mockService})
	assert.ErrorIs(t, err, ErrNilRegistry)

	_, err = New(&Config{Service: mockService, Registry: NewRegistry()})
	assert.ErrorIs(t, err, ErrNilIDGenerator)
}

func TestRegistrySendMarshalsEnvelope(t *testing.T) {
	registry := NewRegistry()
	c := newConnection("conn-1", nil)
	registry.add(c)

	registry.Send("conn-1", &protocol.Outbound{
		T: protocol.TypeHistoryCleared,
		P: &protocol.HistoryClearedPayload{By: "Gale"},
	})

	env := readFrame(t, c)
	assert.Equal(t, protocol.TypeHistoryCleared, env.T)

	var payload protocol.HistoryClearedPayload
	require.NoError(t, json.Unmarshal(env.P, &payload))
	assert.Equal(t, "Gale", payload.By)
}

func TestRegistrySendToSetSkipsUnknownConnections(t *testing.T) {
	registry := NewRegistry()
	a := newConnection("conn-a", nil)
	b := newConnection("conn-b", nil)
	registry.add(a)
	registry.add(b)

	registry.SendToSet([]string{"conn-a", "conn-b", "conn-gone"}, &protocol.Outbound{T: protocol.TypePresenceChanged})

	assert.Len(t, a.send, 1)
	assert.Len(t, b.send, 1)
}

func TestRegistryDropsFramesForSlowConnections(t *testing.T) {
	registry := NewRegistry()
	c := newConnection("conn-1", nil)
	registry.add(c)

	for i := 0; i < sendBufferSize; i++ {
		require.True(t, c.enqueue([]byte("{}")))
	}

	registry.Send("conn-1", &protocol.Outbound{T: protocol.TypePresenceChanged})
	assert.Len(t, c.send, sendBufferSize, "a full buffer drops instead of blocking")
}

func TestRegistryRemoveClosesQueue(t *testing.T) {
	registry := NewRegistry()
	c := newConnection("conn-1", nil)
	registry.add(c)
	registry.remove("conn-1")

	assert.Zero(t, registry.Len())
	_, open := <-c.send
	assert.False(t, open)

	// Sending to a removed connection is a no-op, not a panic.
	registry.Send("conn-1", &protocol.Outbound{T: protocol.TypePresenceChanged})
}

func TestDispatchRoutesJoin(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockService := sessionMocks.NewMockService(ctrl)
	registry := NewRegistry()

	h, err := New(&Config{Service: mockService, Registry: registry, IDGenerator: identifier.New()})
	require.NoError(t, err)

	c := newConnection("conn-1", nil)
	registry.add(c)

	mockService.EXPECT().
		Join(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, input *session.JoinInput) (*session.JoinOutput, error) {
			assert.Equal(t, "conn-1", input.ConnectionID)
			assert.Equal(t, "abc1", input.SessionID)
			assert.Equal(t, "Gale", input.Name)
			assert.Equal(t, "gm1", input.ClientID)
			return &session.JoinOutput{SessionID: "ABC1", IsGM: true}, nil
		})

	h.dispatch(c, []byte(`{"t":"join","p":{"sessionId":"abc1","name":"Gale","clientId":"gm1"}}`))
	assert.Empty(t, c.send, "acks come from the service, not the handler")
}

func TestDispatchReportsServiceErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockService := sessionMocks.NewMockService(ctrl)
	registry := NewRegistry()

	h, err := New(&Config{Service: mockService, Registry: registry, IDGenerator: identifier.New()})
	require.NoError(t, err)

	c := newConnection("conn-1", nil)
	registry.add(c)

	mockService.EXPECT().
		Roll(gomock.Any(), gomock.Any()).
		Return(nil, session.ErrNotInSession)

	h.dispatch(c, []byte(`{"t":"roll","p":{"numDice":4}}`))

	env := readFrame(t, c)
	assert.Equal(t, protocol.TypeOperationFailed, env.T)

	var payload protocol.ErrorPayload
	require.NoError(t, json.Unmarshal(env.P, &payload))
	assert.Equal(t, string(session.ErrNotInSession), payload.Message)
}

func TestDispatchRejectsGarbage(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockService := sessionMocks.NewMockService(ctrl)
	registry := NewRegistry()

	h, err := New(&Config{Service: mockService, Registry: registry, IDGenerator: identifier.New()})
	require.NoError(t, err)

	c := newConnection("conn-1", nil)
	registry.add(c)

	h.dispatch(c, []byte(`not json`))
	assert.Equal(t, protocol.TypeOperationFailed, readFrame(t, c).T)

	h.dispatch(c, []byte(`{"t":"teleport"}`))
	assert.Equal(t, protocol.TypeOperationFailed, readFrame(t, c).T)
}

func TestWebsocketJoinAndRoll(t *testing.T) {
	registry := NewRegistry()
	repo, err := roomRepo.NewMemory(nil)
	require.NoError(t, err)

	svc, err := session.New(&session.Config{
		Repository:  repo,
		Dispatcher:  registry,
		Roller:      dice.New(&dice.Config{Seed: 1}),
		Clock:       &clock.DefaultClock{},
		IDGenerator: identifier.New(),
	})
	require.NoError(t, err)

	h, err := New(&Config{Service: svc, Registry: registry, IDGenerator: identifier.New()})
	require.NoError(t, err)

	srv := httptest.NewServer(h)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	require.NoError(t, conn.WriteJSON(map[string]any{
		"t": "join",
		"p": map[string]any{"sessionId": "abc1", "name": "Gale", "clientId": "gm1"},
	}))

	var env protocol.Inbound
	require.NoError(t, conn.ReadJSON(&env))
	require.Equal(t, protocol.TypeJoined, env.T)

	var state protocol.RoomState
	require.NoError(t, json.Unmarshal(env.P, &state))
	assert.Equal(t, "ABC1", state.SessionID)
	assert.True(t, state.IsGM)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"t": "roll",
		"p": map[string]any{"numDice": 3, "numGilded": 1, "hidden": false},
	}))

	require.NoError(t, conn.ReadJSON(&env))
	require.Equal(t, protocol.TypeRollResult, env.T)

	var roll protocol.RollView
	require.NoError(t, json.Unmarshal(env.P, &roll))
	assert.Len(t, roll.Dice, 3)
	assert.True(t, roll.Dice[0].Gilded)
	assert.Equal(t, "Gale", roll.By)
}
