package session

import (
	"gildedtable/internal/models"
	"gildedtable/internal/protocol"
)

// delivery pairs one outbound payload with the connections that must
// receive it. Audience computation is pure; only dispatch touches the
// transport.
type delivery struct {
	message *protocol.Outbound
	targets []string
}

// participantViews builds the participant list for one audience. The
// enriched view carries identity tokens and goes only to the GM.
func participantViews(rm *models.Room, enriched bool) []protocol.ParticipantView {
	participants := rm.Participants()
	views := make([]protocol.ParticipantView, 0, len(participants))
	for _, p := range participants {
		view := protocol.ParticipantView{
			ConnectionID: p.ConnectionID,
			Name:         p.Name,
			IsGM:         rm.IsGM(p.IdentityToken),
		}
		if enriched {
			view.IdentityToken = p.IdentityToken
		}
		views = append(views, view)
	}
	return views
}

// rollView converts a roll for the wire, dropping the identity token
func rollView(roll *models.Roll) protocol.RollView {
	dice := make([]protocol.DieView, len(roll.Dice))
	for i, die := range roll.Dice {
		dice[i] = protocol.DieView{Value: die.Value, Gilded: die.Gilded}
	}
	return protocol.RollView{
		ID:        roll.ID,
		By:        roll.By,
		SessionID: roll.SessionID,
		Dice:      dice,
		Hidden:    roll.Hidden,
		Timestamp: roll.Timestamp,
	}
}

// historyViews converts an already visibility-filtered history
func historyViews(rolls []*models.Roll) []protocol.RollView {
	views := make([]protocol.RollView, len(rolls))
	for i, roll := range rolls {
		views[i] = rollView(roll)
	}
	return views
}

// roomState builds the joined/stateRefreshed payload for one viewer
func roomState(rm *models.Room, viewerToken string) *protocol.RoomState {
	isGM := rm.IsGM(viewerToken)
	return &protocol.RoomState{
		SessionID:    rm.ID(),
		IsGM:         isGM,
		Participants: participantViews(rm, isGM),
		History:      historyViews(rm.VisibleHistory(viewerToken)),
	}
}

// presenceDeliveries computes the audience-split presence update for a
// membership change: the public list to everyone except the actor and
// except the GM's live connection, the enriched list to the GM's
// connection when it is live and not the actor itself.
func presenceDeliveries(rm *models.Room, actorConnectionID string) []delivery {
	gmConn, gmLive := rm.GMConnectionID()

	public := make([]string, 0, len(rm.Participants()))
	for _, p := range rm.Participants() {
		if p.ConnectionID == actorConnectionID {
			continue
		}
		if gmLive && p.ConnectionID == gmConn {
			continue
		}
		public = append(public, p.ConnectionID)
	}

	deliveries := make([]delivery, 0, 2)
	if len(public) > 0 {
		deliveries = append(deliveries, delivery{
			message: &protocol.Outbound{
				T: protocol.TypePresenceChanged,
				P: &protocol.PresencePayload{Participants: participantViews(rm, false)},
			},
			targets: public,
		})
	}
	if gmLive && gmConn != actorConnectionID {
		deliveries = append(deliveries, delivery{
			message: &protocol.Outbound{
				T: protocol.TypePresenceChanged,
				P: &protocol.PresencePayload{Participants: participantViews(rm, true)},
			},
			targets: []string{gmConn},
		})
	}
	return deliveries
}

// allConnectionIDs lists every connection in the room, sorted
func allConnectionIDs(rm *models.Room) []string {
	participants := rm.Participants()
	ids := make([]string, len(participants))
	for i, p := range participants {
		ids[i] = p.ConnectionID
	}
	return ids
}
