package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kynes/landsraad/internal/model"
)

// UserRepository defines user data operations.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByProviderID(ctx context.Context, provider, providerID string) (*model.User, error)
	Upsert(ctx context.Context, provider, providerID, displayName, avatarURL string) (*model.User, error)
	UpdateDisplayName(ctx context.Context, id, displayName string) error
}

// GameRepository defines game and player data operations.
type GameRepository interface {
	Create(ctx context.Context, name, creatorID, turnDur string, advancedRules bool) (*model.Game, error)
	FindByID(ctx context.Context, id string) (*model.Game, error)
	ListOpen(ctx context.Context) ([]model.Game, error)
	ListByUser(ctx context.Context, userID string) ([]model.Game, error)
	ListActive(ctx context.Context) ([]model.Game, error)
	JoinGame(ctx context.Context, gameID, userID string) error
	JoinGameAsAgent(ctx context.Context, gameID, userID, strategy string) error
	ReplaceAgent(ctx context.Context, gameID, newUserID string) error
	PlayerCount(ctx context.Context, gameID string) (int, error)
	AssignFactions(ctx context.Context, gameID string, assignments map[string]string) error
	SetFinished(ctx context.Context, gameID, winner string) error
	Delete(ctx context.Context, gameID string) error
}

// PhaseRepository defines phase, event transcript, and submission operations.
// The event transcript is append-only: events are only ever added, in order.
type PhaseRepository interface {
	CreatePhase(ctx context.Context, gameID string, turn int, phaseType string, stateBefore json.RawMessage, deadline time.Time) (*model.Phase, error)
	CurrentPhase(ctx context.Context, gameID string) (*model.Phase, error)
	ListPhases(ctx context.Context, gameID string) ([]model.Phase, error)
	ResolvePhase(ctx context.Context, phaseID string, stateAfter json.RawMessage) error
	AppendEvents(ctx context.Context, phaseID string, events []model.PhaseEvent) error
	EventsByPhase(ctx context.Context, phaseID string) ([]model.PhaseEvent, error)
	SaveSubmission(ctx context.Context, sub *model.AgentSubmission) error
	SubmissionsByPhase(ctx context.Context, phaseID string) ([]model.AgentSubmission, error)
	ListExpired(ctx context.Context) ([]model.Phase, error)
}

// GameCache defines live game state operations (Redis).
type GameCache interface {
	SetGameState(ctx context.Context, gameID string, state json.RawMessage) error
	GetGameState(ctx context.Context, gameID string) (json.RawMessage, error)
	SetPhaseContext(ctx context.Context, gameID string, phase json.RawMessage) error
	GetPhaseContext(ctx context.Context, gameID string) (json.RawMessage, error)
	SetResponse(ctx context.Context, gameID, faction string, response json.RawMessage) error
	GetResponse(ctx context.Context, gameID, faction string) (json.RawMessage, error)
	GetAllResponses(ctx context.Context, gameID string, factions []string) (map[string]json.RawMessage, error)
	ClearResponses(ctx context.Context, gameID string, factions []string) error
	MarkReady(ctx context.Context, gameID, faction string) error
	UnmarkReady(ctx context.Context, gameID, faction string) error
	ReadyCount(ctx context.Context, gameID string) (int64, error)
	ReadyFactions(ctx context.Context, gameID string) ([]string, error)
	SetTimer(ctx context.Context, gameID string, deadline time.Time) error
	ClearTimer(ctx context.Context, gameID string) error
	ClearPhaseData(ctx context.Context, gameID string, factions []string) error
	DeleteGameData(ctx context.Context, gameID string, factions []string) error
}
