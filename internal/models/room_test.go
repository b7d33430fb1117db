package models

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomGMElection(t *testing.T) {
	room := NewRoom("ABC1", 0)
	assert.Equal(t, GMStatusUnelected, room.GMStatus())

	isGM := room.AddParticipant(&Participant{ConnectionID: "conn-1", Name: "Gale", IdentityToken: "gm1"})
	assert.True(t, isGM, "first participant should be elected GM")
	assert.Equal(t, GMStatusAttached, room.GMStatus())
	assert.True(t, room.IsGM("gm1"))

	isGM = room.AddParticipant(&Participant{ConnectionID: "conn-2", Name: "Bryn", IdentityToken: "p2"})
	assert.False(t, isGM, "second identity must not usurp the election")
	assert.False(t, room.IsGM("p2"))
}

func TestRoomGMSurvivesDisconnect(t *testing.T) {
	room := NewRoom("ABC1", 0)
	room.AddParticipant(&Participant{ConnectionID: "conn-1", Name: "Gale", IdentityToken: "gm1"})
	room.AddParticipant(&Participant{ConnectionID: "conn-2", Name: "Bryn", IdentityToken: "p2"})

	_, removed := room.RemoveParticipant("conn-1")
	require.True(t, removed)
	assert.Equal(t, GMStatusDetached, room.GMStatus())
	assert.True(t, room.IsGM("gm1"), "election persists while detached")

	_, attached := room.GMConnectionID()
	assert.False(t, attached)

	// Reconnect with the same identity token re-attaches without
	// re-election.
	isGM := room.AddParticipant(&Participant{ConnectionID: "conn-3", Name: "Gale", IdentityToken: "gm1"})
	assert.True(t, isGM)

	gmConn, attached := room.GMConnectionID()
	require.True(t, attached)
	assert.Equal(t, "conn-3", gmConn)
}

func TestRoomRemoveUnknownParticipant(t *testing.T) {
	room := NewRoom("ABC1", 0)
	_, removed := room.RemoveParticipant("missing")
	assert.False(t, removed)
}

func TestRoomHistoryBound(t *testing.T) {
	room := NewRoom("ABC1", 0)
	for i := 0; i < 150; i++ {
		room.AppendRoll(&Roll{ID: fmt.Sprintf("roll-%03d", i)})
	}

	require.Equal(t, DefaultHistoryLimit, room.HistoryLen())

	history := room.VisibleHistory("anyone")
	require.Len(t, history, DefaultHistoryLimit)
	assert.Equal(t, "roll-050", history[0].ID, "oldest entries are evicted first")
	assert.Equal(t, "roll-149", history[len(history)-1].ID)
}

func TestRoomVisibleHistoryFiltersHiddenRolls(t *testing.T) {
	room := NewRoom("ABC1", 0)
	room.AddParticipant(&Participant{ConnectionID: "conn-1", Name: "Gale", IdentityToken: "gm1"})

	room.AppendRoll(&Roll{ID: "r1", Hidden: false})
	room.AppendRoll(&Roll{ID: "r2", Hidden: true})
	room.AppendRoll(&Roll{ID: "r3", Hidden: false})

	gmView := room.VisibleHistory("gm1")
	require.Len(t, gmView, 3)

	playerView := room.VisibleHistory("p2")
	require.Len(t, playerView, 2)
	assert.Equal(t, "r1", playerView[0].ID)
	assert.Equal(t, "r3", playerView[1].ID)
}

func TestRoomClearHistory(t *testing.T) {
	room := NewRoom("ABC1", 0)
	room.AppendRoll(&Roll{ID: "r1"})
	room.ClearHistory()
	assert.Zero(t, room.HistoryLen())
}

func TestRoomDrainingIsIdempotent(t *testing.T) {
	room := NewRoom("ABC1", 0)

	first := time.NewTimer(time.Hour)
	defer first.Stop()

	armed := room.BeginDraining(first)
	assert.True(t, armed)
	assert.Equal(t, RoomPhaseDraining, room.Phase())

	second := time.NewTimer(time.Hour)
	armed = room.BeginDraining(second)
	assert.False(t, armed, "a draining room must not re-arm")

	timer := room.Reactivate()
	assert.Same(t, first, timer, "the original timer is the one cancelled")
	assert.Equal(t, RoomPhaseActive, room.Phase())
}

func TestRoomFinishDrainingAllowsRearm(t *testing.T) {
	room := NewRoom("ABC1", 0)
	room.BeginDraining(nil)
	room.FinishDraining()

	assert.Equal(t, RoomPhaseActive, room.Phase())
	assert.True(t, room.BeginDraining(nil))
}
