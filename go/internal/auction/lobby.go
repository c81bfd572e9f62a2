package auction

import (
	"strings"
	"unicode/utf8"

	"github.com/mcdev12/auctionroom/go/internal/models"
)

// join seats a new user as a spectator, or marks a returning user connected.
func (tx *txn) join(cmd Command) error {
	if cmd.UserID == "" {
		return ErrSeatNotFound
	}
	seat, ok := tx.room.Players[cmd.UserID]
	if ok {
		seat.Connected = true
		if name := strings.TrimSpace(cmd.Name); name != "" {
			seat.Name = name
		}
		tx.room.Players[cmd.UserID] = seat
		tx.emit(Event{Type: EvtPlayerJoined, UserID: cmd.UserID, TeamID: seat.TeamID})
		return nil
	}

	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		name = "Guest"
	}
	tx.room.Players[cmd.UserID] = models.Seat{
		Name:        name,
		IsSpectator: true,
		Connected:   true,
	}
	tx.emit(Event{Type: EvtPlayerJoined, UserID: cmd.UserID})
	return nil
}

// selectTeam claims a team for a seat in the lobby, releasing any team it held.
func (tx *txn) selectTeam(cmd Command) error {
	if tx.room.Status != models.RoomStatusLobby {
		return ErrSelectionClosed
	}
	seat, ok := tx.room.Players[cmd.UserID]
	if !ok {
		return ErrSeatNotFound
	}
	team, ok := tx.room.Teams[cmd.TeamID]
	if !ok {
		return ErrTeamNotFound.Withf("team %q not found", cmd.TeamID)
	}
	if team.OwnerID != "" && team.OwnerID != cmd.UserID {
		return ErrTeamTaken
	}

	if seat.TeamID != "" && seat.TeamID != team.ID {
		if prev, ok := tx.room.Teams[seat.TeamID]; ok && prev.OwnerID == cmd.UserID {
			prev.OwnerID = ""
			tx.room.Teams[prev.ID] = prev
		}
	}

	seat.TeamID = team.ID
	seat.IsSpectator = false
	tx.room.Players[cmd.UserID] = seat
	team.OwnerID = cmd.UserID
	tx.room.Teams[team.ID] = team

	tx.emit(Event{Type: EvtTeamSelected, UserID: cmd.UserID, TeamID: team.ID})
	return nil
}

// leave handles an explicit exit. In the lobby a manager's seat is removed and the
// team freed; once live the seat stays so the user can come back. The host leaving
// disbands a lobby and ends a live room.
func (tx *txn) leave(cmd Command) error {
	seat, ok := tx.room.Players[cmd.UserID]
	if !ok {
		return ErrSeatNotFound
	}

	if cmd.UserID == tx.room.HostID {
		switch tx.room.Status {
		case models.RoomStatusLobby:
			tx.disband()
			return nil
		case models.RoomStatusLive:
			seat.Connected = false
			tx.room.Players[cmd.UserID] = seat
			tx.finish("🚪 The host has left. The auction has ended.")
			return nil
		}
	}

	if tx.room.Status == models.RoomStatusLobby {
		delete(tx.room.Players, cmd.UserID)
		if seat.TeamID != "" {
			if team, ok := tx.room.Teams[seat.TeamID]; ok && team.OwnerID == cmd.UserID {
				team.OwnerID = ""
				tx.room.Teams[team.ID] = team
			}
		}
	} else {
		seat.Connected = false
		tx.room.Players[cmd.UserID] = seat
	}

	tx.emit(Event{Type: EvtPlayerLeft, UserID: cmd.UserID, TeamID: seat.TeamID})
	return nil
}

// disconnect handles a dropped connection. State is kept for a rejoin, except that the
// host dropping out of the lobby disbands the room.
func (tx *txn) disconnect(cmd Command) error {
	seat, ok := tx.room.Players[cmd.UserID]
	if !ok {
		return ErrSeatNotFound
	}
	if cmd.UserID == tx.room.HostID && tx.room.Status == models.RoomStatusLobby {
		tx.disband()
		return nil
	}
	seat.Connected = false
	tx.room.Players[cmd.UserID] = seat
	tx.emit(Event{Type: EvtPlayerLeft, UserID: cmd.UserID, TeamID: seat.TeamID})
	return nil
}

func (tx *txn) disband() {
	tx.deadlines.Clear()
	tx.result.Disbanded = true
	tx.emit(Event{Type: EvtRoomDisbanded})
}

func (tx *txn) chat(cmd Command) error {
	seat, ok := tx.room.Players[cmd.UserID]
	if !ok {
		return ErrSeatNotFound
	}
	text := strings.TrimSpace(cmd.Text)
	if text == "" {
		return ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > maxChatLength {
		text = string([]rune(text)[:maxChatLength])
	}

	tx.appendChat(models.ChatMessage{
		SenderName: seat.Name,
		Text:       text,
		Type:       models.ChatTypeUser,
	})
	tx.emit(Event{Type: EvtChatPosted, UserID: cmd.UserID})
	return nil
}
