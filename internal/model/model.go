package model

import (
	"encoding/json"
	"time"
)

// User represents a registered user.
type User struct {
	ID          string    `json:"id"`
	Provider    string    `json:"provider"`
	ProviderID  string    `json:"provider_id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Game represents one game of the great houses contest.
type Game struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	CreatorID     string       `json:"creator_id"`
	Status        string       `json:"status"` // waiting, active, finished
	Winner        string       `json:"winner,omitempty"`
	AdvancedRules bool         `json:"advanced_rules"`
	TurnDuration  string       `json:"turn_duration"`
	CreatedAt     time.Time    `json:"created_at"`
	StartedAt     *time.Time   `json:"started_at,omitempty"`
	FinishedAt    *time.Time   `json:"finished_at,omitempty"`
	Players       []GamePlayer `json:"players,omitempty"`
	ReadyCount    int          `json:"ready_count,omitempty"`
}

// GamePlayer represents a player's membership in a game.
type GamePlayer struct {
	GameID        string    `json:"game_id"`
	UserID        string    `json:"user_id"`
	Faction       string    `json:"faction,omitempty"`
	IsAgent       bool      `json:"is_agent"`
	AgentStrategy string    `json:"agent_strategy"`
	JoinedAt      time.Time `json:"joined_at"`
}

// Phase represents one turn phase of a game. StateBefore and StateAfter hold
// engine snapshots; the battle phase additionally appends to the phase's
// event transcript.
type Phase struct {
	ID          string          `json:"id"`
	GameID      string          `json:"game_id"`
	Turn        int             `json:"turn"`
	PhaseType   string          `json:"phase_type"` // storm, battle, ...
	StateBefore json.RawMessage `json:"state_before"`
	StateAfter  json.RawMessage `json:"state_after,omitempty"`
	Deadline    time.Time       `json:"deadline"`
	ResolvedAt  *time.Time      `json:"resolved_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// PhaseEvent is one persisted entry of a phase's event transcript. The
// transcript is append-only; Seq orders events within a phase.
type PhaseEvent struct {
	ID        string          `json:"id"`
	PhaseID   string          `json:"phase_id"`
	Seq       int             `json:"seq"`
	EventType string          `json:"event_type"`
	Faction   string          `json:"faction,omitempty"`
	Territory string          `json:"territory,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// AgentSubmission is a faction's recorded answer to a pending request,
// persisted for replay.
type AgentSubmission struct {
	ID          string          `json:"id"`
	PhaseID     string          `json:"phase_id"`
	Faction     string          `json:"faction"`
	RequestType string          `json:"request_type"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"created_at"`
}
