package arrakis

import (
	"errors"
	"fmt"
)

// Rejection codes returned to a submitting faction. Every rejection leaves
// the originating suspension point open for a corrected resubmission.
const (
	CodeNoPendingRequest    = "no_pending_request"
	CodeWrongFaction        = "wrong_faction"
	CodeWrongRequestType    = "wrong_request_type"
	CodeMalformedResponse   = "malformed_response"
	CodeInvalidLeader       = "invalid_leader"
	CodeLeaderCommitted     = "leader_committed"
	CodeInsufficientForces  = "insufficient_forces"
	CodeInsufficientSpice   = "insufficient_spice"
	CodeCardNotHeld         = "card_not_held"
	CodeNoLeaderForCards    = "no_leader_for_cards"
	CodeInvalidChoice       = "invalid_choice"
	CodeTraitorNotHeld      = "traitor_not_held"
	CodeKHUnavailable       = "kh_unavailable"
)

// Rejection describes why a submission was refused, without mutating state.
type Rejection struct {
	Faction    Faction `json:"faction"`
	Code       string  `json:"code"`
	Message    string  `json:"message"`
	Suggestion string  `json:"suggestion,omitempty"`
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("rejected (%s): %s", r.Code, r.Message)
}

func reject(f Faction, code, message, suggestion string) *Rejection {
	return &Rejection{Faction: f, Code: code, Message: message, Suggestion: suggestion}
}

// ErrInvariant marks engine-level invariant violations. These are
// programming errors: phase processing aborts rather than continuing with
// corrupted state.
var ErrInvariant = errors.New("engine invariant violated")

func invariantf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvariant}, args...)...)
}
