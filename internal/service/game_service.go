package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/kynes/landsraad/internal/model"
	"github.com/kynes/landsraad/internal/repository"
	"github.com/kynes/landsraad/pkg/arrakis"
)

var (
	ErrGameNotFound   = errors.New("game not found")
	ErrGameNotWaiting = errors.New("game is not in waiting status")
	ErrGameFull       = errors.New("game already has 6 players")
	ErrNotEnough      = errors.New("need exactly 6 players to start")
	ErrNotCreator     = errors.New("only the creator can start the game")
	ErrGameNotActive  = errors.New("game is not active")
	ErrAlreadyJoined  = errors.New("already joined this game")
	ErrNotInGame      = errors.New("you are not in this game")
)

// seatCount is the number of factions in a full game.
const seatCount = 6

// GameService handles game lifecycle operations.
type GameService struct {
	gameRepo  repository.GameRepository
	phaseRepo repository.PhaseRepository
	userRepo  repository.UserRepository
}

// NewGameService creates a GameService.
func NewGameService(gameRepo repository.GameRepository, phaseRepo repository.PhaseRepository, userRepo repository.UserRepository) *GameService {
	return &GameService{gameRepo: gameRepo, phaseRepo: phaseRepo, userRepo: userRepo}
}

// CreateGame creates a new game in "waiting" status. The creator auto-joins
// unless agentOnly is set; the remaining seats are filled with scripted
// agents using the given strategy.
func (s *GameService) CreateGame(ctx context.Context, name, creatorID, turnDur string, advancedRules, agentOnly bool, agentStrategy string) (*model.Game, error) {
	turnDur = toPgInterval(turnDur, "24 hours")

	game, err := s.gameRepo.Create(ctx, name, creatorID, turnDur, advancedRules)
	if err != nil {
		return nil, err
	}

	if !agentOnly {
		if err := s.gameRepo.JoinGame(ctx, game.ID, creatorID); err != nil {
			return nil, err
		}
	}

	agentCount := seatCount - 1
	if agentOnly {
		agentCount = seatCount
	}
	for i := 1; i <= agentCount; i++ {
		providerID := fmt.Sprintf("agent-%d", i)
		displayName := fmt.Sprintf("Agent %d", i)
		agentUser, err := s.userRepo.Upsert(ctx, "agent", providerID, displayName, "")
		if err != nil {
			return nil, fmt.Errorf("create agent user %d: %w", i, err)
		}
		if err := s.gameRepo.JoinGameAsAgent(ctx, game.ID, agentUser.ID, agentStrategy); err != nil {
			return nil, fmt.Errorf("join agent %d: %w", i, err)
		}
	}

	return s.gameRepo.FindByID(ctx, game.ID)
}

// JoinGame adds a player to a waiting game. When every seat is filled, a
// joining human takes over the earliest agent seat instead.
func (s *GameService) JoinGame(ctx context.Context, gameID, userID string) error {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return ErrGameNotFound
	}
	if game.Status != "waiting" {
		return ErrGameNotWaiting
	}

	hasAgent := false
	for _, p := range game.Players {
		if p.UserID == userID {
			return ErrAlreadyJoined
		}
		if p.IsAgent {
			hasAgent = true
		}
	}

	count, err := s.gameRepo.PlayerCount(ctx, gameID)
	if err != nil {
		return err
	}
	if count < seatCount {
		return s.gameRepo.JoinGame(ctx, gameID, userID)
	}
	if !hasAgent {
		return ErrGameFull
	}
	return s.gameRepo.ReplaceAgent(ctx, gameID, userID)
}

// StartGame assigns factions, builds the opening snapshot, and creates the
// first phase.
func (s *GameService) StartGame(ctx context.Context, gameID, userID string) (*model.Game, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	if game.Status != "waiting" {
		return nil, ErrGameNotWaiting
	}
	if game.CreatorID != userID {
		return nil, ErrNotCreator
	}
	if len(game.Players) != seatCount {
		return nil, ErrNotEnough
	}

	factions := arrakis.AllFactions()
	rand.Shuffle(len(factions), func(i, j int) { factions[i], factions[j] = factions[j], factions[i] })

	assignments := make(map[string]string, seatCount)
	for i, p := range game.Players {
		assignments[p.UserID] = string(factions[i])
	}
	if err := s.gameRepo.AssignFactions(ctx, gameID, assignments); err != nil {
		return nil, err
	}

	initial := arrakis.NewGameState(factions, game.AdvancedRules)
	stateJSON, err := json.Marshal(initial)
	if err != nil {
		return nil, fmt.Errorf("marshal initial state: %w", err)
	}

	deadline := time.Now().Add(parseDuration(game.TurnDuration))
	_, err = s.phaseRepo.CreatePhase(ctx, gameID, 1, "battle", stateJSON, deadline)
	if err != nil {
		return nil, err
	}

	return s.gameRepo.FindByID(ctx, gameID)
}

// GetGame returns a game by ID.
func (s *GameService) GetGame(ctx context.Context, gameID string) (*model.Game, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	return game, nil
}

// DeleteGame removes a waiting game. Only the game creator can delete a game.
func (s *GameService) DeleteGame(ctx context.Context, gameID, userID string) error {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return ErrGameNotFound
	}
	if game.Status != "waiting" {
		return ErrGameNotWaiting
	}
	if game.CreatorID != userID {
		return ErrNotCreator
	}
	return s.gameRepo.Delete(ctx, gameID)
}

// StopGame ends an active game with no winner. Only the game creator can
// stop a game.
func (s *GameService) StopGame(ctx context.Context, gameID, userID string) (*model.Game, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	if game.Status != "active" {
		return nil, ErrGameNotActive
	}
	if game.CreatorID != userID {
		return nil, ErrNotCreator
	}
	if err := s.gameRepo.SetFinished(ctx, gameID, ""); err != nil {
		return nil, err
	}
	return s.gameRepo.FindByID(ctx, gameID)
}

// ListGames returns open games or games the user is in.
func (s *GameService) ListGames(ctx context.Context, userID string, filter string) ([]model.Game, error) {
	switch filter {
	case "my":
		return s.gameRepo.ListByUser(ctx, userID)
	default:
		return s.gameRepo.ListOpen(ctx)
	}
}

// toPgInterval converts Go-style duration strings (e.g. "5m", "1h") to
// PostgreSQL interval format (e.g. "5 minutes", "1 hours"). Returns
// defaultVal if input is empty.
func toPgInterval(s, defaultVal string) string {
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	totalSeconds := int(d.Seconds())
	if totalSeconds < 60 {
		return fmt.Sprintf("%d seconds", totalSeconds)
	}
	return fmt.Sprintf("%d minutes", totalSeconds/60)
}

// parseDuration converts Postgres interval strings like "24:00:00" or Go
// duration strings like "5m" to time.Duration.
func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err == nil {
		return d
	}
	// Try HH:MM:SS format from PostgreSQL
	parts := strings.Split(s, ":")
	if len(parts) == 3 {
		h, e1 := strconv.Atoi(parts[0])
		m, e2 := strconv.Atoi(parts[1])
		sec, e3 := strconv.Atoi(parts[2])
		if e1 == nil && e2 == nil && e3 == nil {
			return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second
		}
	}
	return 24 * time.Hour
}
