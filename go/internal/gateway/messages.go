package gateway

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mcdev12/auctionroom/go/internal/auction"
	"github.com/mcdev12/auctionroom/go/internal/room"
)

// MessageType names a websocket message in either direction.
type MessageType string

// Client to server
const (
	MsgPlaceBid    MessageType = "place_bid"
	MsgRTMDecision MessageType = "rtm_decision"
	MsgHostCommand MessageType = "host_command"
	MsgSelectTeam  MessageType = "select_team"
	MsgLeaveRoom   MessageType = "leave_room"
	MsgSendMessage MessageType = "send_message"
)

// Server to client
const (
	MsgConnected     MessageType = "connected"
	MsgRoomState     MessageType = "room_state"
	MsgRejected      MessageType = "rejected"
	MsgRoomDisbanded MessageType = "room_disbanded"
)

// Inbound is the envelope every client message arrives in.
type Inbound struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Outbound is the envelope every server message leaves in.
type Outbound struct {
	Type MessageType `json:"type"`
	Data any         `json:"data,omitempty"`
}

type placeBidData struct {
	Amount decimal.Decimal `json:"amount"`
}

type rtmDecisionData struct {
	Decision string `json:"decision"`
}

type hostCommandData struct {
	Type    string `json:"type"`
	Payload struct {
		LotID     string `json:"lot_id"`
		SetNumber int    `json:"set_number"`
		Seconds   int    `json:"seconds"`
	} `json:"payload"`
}

type selectTeamData struct {
	TeamID string `json:"team_id"`
}

type sendMessageData struct {
	Text string `json:"text"`
}

// ConnectedData is sent once after the upgrade so anonymous clients learn their id.
type ConnectedData struct {
	RoomID string `json:"room_id"`
	UserID string `json:"user_id"`
}

// DisbandedData tells clients why the room went away.
type DisbandedData struct {
	Reason string `json:"reason"`
}

var errMalformed = auction.ErrUnknownCommand.Withf("malformed message")

// DecodeCommand turns a raw client message into a machine command for userID.
func DecodeCommand(userID string, raw []byte) (auction.Command, error) {
	var in Inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		return auction.Command{}, errMalformed
	}

	cmd := auction.Command{UserID: userID}
	switch in.Type {
	case MsgPlaceBid:
		var d placeBidData
		if err := decodeData(in.Data, &d); err != nil {
			return auction.Command{}, err
		}
		cmd.Type = auction.CmdPlaceBid
		cmd.Amount = d.Amount

	case MsgRTMDecision:
		var d rtmDecisionData
		if err := decodeData(in.Data, &d); err != nil {
			return auction.Command{}, err
		}
		decision, err := auction.ParseDecision(d.Decision)
		if err != nil {
			return auction.Command{}, err
		}
		cmd.Type = auction.CmdRTMDecision
		cmd.Decision = decision

	case MsgHostCommand:
		var d hostCommandData
		if err := decodeData(in.Data, &d); err != nil {
			return auction.Command{}, err
		}
		cmd.Type = auction.CmdHost
		cmd.Action = auction.HostAction(strings.ToUpper(strings.TrimSpace(d.Type)))
		cmd.LotID = d.Payload.LotID
		cmd.SetNumber = d.Payload.SetNumber
		cmd.Seconds = d.Payload.Seconds

	case MsgSelectTeam:
		var d selectTeamData
		if err := decodeData(in.Data, &d); err != nil {
			return auction.Command{}, err
		}
		cmd.Type = auction.CmdSelectTeam
		cmd.TeamID = d.TeamID

	case MsgLeaveRoom:
		cmd.Type = auction.CmdLeave

	case MsgSendMessage:
		var d sendMessageData
		if err := decodeData(in.Data, &d); err != nil {
			return auction.Command{}, err
		}
		cmd.Type = auction.CmdChat
		cmd.Text = d.Text

	default:
		return auction.Command{}, auction.ErrUnknownCommand.Withf("unknown message type %q", in.Type)
	}
	return cmd, nil
}

func decodeData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return errMalformed
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errMalformed
	}
	return nil
}

func stateMessage(snap room.Snapshot) Outbound {
	return Outbound{Type: MsgRoomState, Data: snap}
}

func rejectedMessage(rej room.Rejection) Outbound {
	return Outbound{Type: MsgRejected, Data: rej}
}
