package arrakis

// EventType identifies a battle phase event.
type EventType string

// Battle phase event types. The event stream is append-only and is the only
// channel through which state changes are externally observable.
const (
	EventBattleStarted          EventType = "battle_started"
	EventAdvisorsFlipped        EventType = "advisors_flipped"
	EventStrongholdViolation    EventType = "stronghold_occupancy_violation"
	EventVoiceUsed              EventType = "voice_used"
	EventPrescienceUsed         EventType = "prescience_used"
	EventPrescienceRevealed     EventType = "prescience_revealed"
	EventBattlePlanCreated      EventType = "battle_plan_created"
	EventBattlePlansRevealed    EventType = "battle_plans_revealed"
	EventCommitmentViolation    EventType = "commitment_violation"
	EventTraitorCalled          EventType = "traitor_called"
	EventTraitorRevealed        EventType = "traitor_revealed"
	EventTraitorBlocked         EventType = "traitor_blocked"
	EventLeaderKilled           EventType = "leader_killed"
	EventForcesLost             EventType = "forces_lost"
	EventSpicePaid              EventType = "spice_paid"
	EventSpiceAwarded           EventType = "spice_awarded"
	EventLasgunShieldExplosion  EventType = "lasgun_shield_explosion"
	EventBattleResolved         EventType = "battle_resolved"
	EventDiscardChoiceRequested EventType = "winner_card_discard_choice_requested"
	EventCardDiscarded          EventType = "card_discarded"
	EventCaptureChoiceRequested EventType = "harkonnen_capture_choice_requested"
	EventLeaderCaptured         EventType = "leader_captured"
	EventPrisonBreak            EventType = "prison_break"
	EventNoBattles              EventType = "no_battles"
	EventBattlesComplete        EventType = "battles_complete"
)

// Event is a single entry in the battle phase transcript.
type Event struct {
	Type      EventType      `json:"type"`
	Faction   Faction        `json:"faction,omitempty"`
	Territory TerritoryID    `json:"territory,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// newEvent builds an event with an optional data payload.
func newEvent(t EventType, f Faction, territory TerritoryID, data map[string]any) Event {
	return Event{Type: t, Faction: f, Territory: territory, Data: data}
}
