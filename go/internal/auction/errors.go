package auction

import (
	"errors"
	"fmt"
)

// Kind classifies why an event was not applied.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindAuthorization Kind = "authorization"
	KindNotFound      Kind = "not_found"
	KindInvariant     Kind = "invariant"
)

// Error is a rejected event. Two errors match under errors.Is when their codes match,
// so sentinels can be compared against rejections that carry a more specific reason.
type Error struct {
	Kind   Kind
	Code   string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Reason)
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Withf returns a copy of e with a more specific reason.
func (e *Error) Withf(format string, args ...any) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Reason: fmt.Sprintf(format, args...)}
}

func newError(kind Kind, code, reason string) *Error {
	return &Error{Kind: kind, Code: code, Reason: reason}
}

// Bid validation
var (
	ErrNotBidding        = newError(KindValidation, "not_bidding", "no lot is open for bidding")
	ErrSpectator         = newError(KindValidation, "spectator", "spectators cannot bid")
	ErrDeadlinePassed    = newError(KindValidation, "deadline_passed", "bidding deadline has passed")
	ErrWrongAmount       = newError(KindValidation, "wrong_amount", "bid does not match the required amount")
	ErrInsufficientPurse = newError(KindValidation, "insufficient_purse", "purse cannot cover the bid")
	ErrSquadFull         = newError(KindValidation, "squad_full", "squad is full")
	ErrOverseasFull      = newError(KindValidation, "overseas_full", "overseas quota is full")
)

// RTM
var (
	ErrNoRTMPending    = newError(KindValidation, "no_rtm_pending", "no right-to-match decision is pending")
	ErrRTMWindowClosed = newError(KindValidation, "rtm_window_closed", "right-to-match window has closed")
	ErrBadDecision     = newError(KindValidation, "bad_decision", "decision must be YES or NO")
	ErrNotRTMOwner     = newError(KindAuthorization, "not_rtm_owner", "only the former team's owner or the host may decide")
)

// Host and lobby
var (
	ErrNotHost           = newError(KindAuthorization, "not_host", "only the host can do that")
	ErrRoomNotLive       = newError(KindValidation, "room_not_live", "auction is not running")
	ErrRoomNotLobby      = newError(KindValidation, "room_not_lobby", "room is no longer in the lobby")
	ErrRoomFinished      = newError(KindValidation, "room_finished", "room has finished")
	ErrTeamsNotReady     = newError(KindValidation, "teams_not_ready", "every manager must select a team")
	ErrNotEnoughManagers = newError(KindValidation, "not_enough_managers", "at least 2 managers must join to start")
	ErrLotNotPending     = newError(KindValidation, "lot_not_pending", "lot is not pending")
	ErrBadStatus         = newError(KindValidation, "bad_status", "command not allowed in the current auction status")
	ErrHasBidder         = newError(KindValidation, "has_bidder", "lot already has a bid")
	ErrNoBidder          = newError(KindValidation, "no_bidder", "lot has no bid to finalize")
	ErrNoCurrentSet      = newError(KindValidation, "no_current_set", "no set to skip")
	ErrBadTimeLimit      = newError(KindValidation, "bad_time_limit", "time limit must be between 5 and 120 seconds")
	ErrUnknownCommand    = newError(KindValidation, "unknown_command", "unknown command")
	ErrTeamTaken         = newError(KindValidation, "team_taken", "team already has an owner")
	ErrEmptyMessage      = newError(KindValidation, "empty_message", "message is empty")
	ErrSelectionClosed   = newError(KindValidation, "team_selection_closed", "teams can only be selected in the lobby")
)

// Lookups
var (
	ErrSeatNotFound = newError(KindNotFound, "seat_not_found", "seat not found")
	ErrLotNotFound  = newError(KindNotFound, "lot_not_found", "lot not found")
	ErrTeamNotFound = newError(KindNotFound, "team_not_found", "team not found")
	ErrRoomNotFound = newError(KindNotFound, "room_not_found", "room not found")
	ErrStaleTimer   = newError(KindNotFound, "stale_timer", "deadline already consumed")
)

// ErrInvariant marks a transition aborted by a failed consistency check.
var ErrInvariant = newError(KindInvariant, "invariant_violation", "state invariant violated")

// KindOf extracts the rejection kind of err. Errors that are not *Error are
// treated as invariant violations.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInvariant
}
