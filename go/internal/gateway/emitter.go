package gateway

import (
	"github.com/mcdev12/auctionroom/go/internal/room"
)

// Emitter delivers room output over the connection manager.
type Emitter struct {
	cm *ConnectionManager
}

func NewEmitter(cm *ConnectionManager) *Emitter {
	return &Emitter{cm: cm}
}

func (e *Emitter) Broadcast(roomID string, snap room.Snapshot) {
	e.cm.BroadcastToRoom(roomID, stateMessage(snap))
}

func (e *Emitter) Reject(roomID, userID string, rej room.Rejection) {
	e.cm.BroadcastToUser(roomID, userID, rejectedMessage(rej))
}

// Disband tells every subscriber the room is gone, then disconnects them.
func (e *Emitter) Disband(roomID, reason string) {
	e.cm.BroadcastToRoom(roomID, Outbound{Type: MsgRoomDisbanded, Data: DisbandedData{Reason: reason}})
	e.cm.CloseRoom(roomID)
}
