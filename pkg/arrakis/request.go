package arrakis

// RequestType identifies the kind of input the engine is waiting for.
type RequestType string

const (
	RequestChooseBattle     RequestType = "choose_battle"
	RequestVoice            RequestType = "voice"
	RequestPrescience       RequestType = "prescience"
	RequestPrescienceReveal RequestType = "prescience_reveal"
	RequestBattlePlan       RequestType = "battle_plan"
	RequestCallTraitor      RequestType = "call_traitor"
	RequestDiscardChoice    RequestType = "discard_choice"
	RequestCaptureChoice    RequestType = "capture_choice"
)

// PendingRequest is an outstanding question to one faction. The orchestrator
// suspends with one request, or a fixed simultaneous pair, per step.
type PendingRequest struct {
	Faction Faction        `json:"faction"`
	Type    RequestType    `json:"type"`
	Context map[string]any `json:"context,omitempty"`
}

// BattleChoice selects which battle, and against which opponent, the
// aggressor fights next.
type BattleChoice struct {
	Territory TerritoryID `json:"territory"`
	Opponent  Faction     `json:"opponent"`
}

// PlanInput is a faction's submitted battle plan before validation.
type PlanInput struct {
	RegularDialed   int      `json:"regular_dialed"`
	EliteDialed     int      `json:"elite_dialed"`
	Leader          LeaderID `json:"leader,omitempty"`
	CheapHero       bool     `json:"cheap_hero,omitempty"`
	NoLeader        bool     `json:"no_leader,omitempty"` // announced fighting without a leader
	Weapon          CardID   `json:"weapon,omitempty"`
	Defense         CardID   `json:"defense,omitempty"`
	KwisatzHaderach bool     `json:"kwisatz_haderach,omitempty"`
	SpiceDialed     int      `json:"spice_dialed,omitempty"` // advanced rules
}

// AgentResponse is one faction's answer to a pending request. Default marks
// a substituted no-response: the engine fills in its deterministic default
// for the request instead of reading the payload.
type AgentResponse struct {
	Faction Faction     `json:"faction"`
	Type    RequestType `json:"type"`
	Default bool        `json:"default,omitempty"`

	BattleChoice *BattleChoice       `json:"battle_choice,omitempty"`
	Voice        *VoiceCommand       `json:"voice,omitempty"`
	Prescience   *PrescienceQuestion `json:"prescience,omitempty"`
	Reveal       *PrescienceAnswer   `json:"reveal,omitempty"`
	Plan         *PlanInput          `json:"plan,omitempty"`
	CallTraitor  *bool               `json:"call_traitor,omitempty"`
	DiscardCards []CardID            `json:"discard_cards,omitempty"`
	Capture      *bool               `json:"capture,omitempty"` // true = capture, false = kill
	Decline      bool                `json:"decline,omitempty"` // pass on an optional ability
}
