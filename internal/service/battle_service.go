package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kynes/landsraad/internal/agent"
	"github.com/kynes/landsraad/internal/model"
	"github.com/kynes/landsraad/internal/repository"
	"github.com/kynes/landsraad/pkg/arrakis"
)

var (
	ErrNoActivePhase = errors.New("no active phase")
	ErrWrongFaction  = errors.New("you do not control this faction")
)

// turnLimit ends a game with no winner once this many turns have been played.
const turnLimit = 10

// BattleService drives the battle phase state machine against persistence:
// it feeds submitted responses into the engine, persists the event transcript
// and submissions, substitutes defaults on deadline expiry, and answers for
// agent-controlled factions.
type BattleService struct {
	gameRepo    repository.GameRepository
	phaseRepo   repository.PhaseRepository
	cache       repository.GameCache
	broadcaster Broadcaster

	// gameLocks serializes all machine access per game. The keyspace
	// listener, the poller, player submissions, and agent drivers can all
	// fire concurrently for the same game.
	gameLocks sync.Map

	// machines holds the live engine state machine per game. A machine
	// missing after a restart is rebuilt by replaying the phase's persisted
	// submissions over its state_before snapshot.
	machines sync.Map
}

// NewBattleService creates a BattleService.
func NewBattleService(
	gameRepo repository.GameRepository,
	phaseRepo repository.PhaseRepository,
	cache repository.GameCache,
	broadcaster Broadcaster,
) *BattleService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	return &BattleService{
		gameRepo:    gameRepo,
		phaseRepo:   phaseRepo,
		cache:       cache,
		broadcaster: broadcaster,
	}
}

// gameLock returns the mutex for a given game ID.
func (s *BattleService) gameLock(gameID string) *sync.Mutex {
	v, _ := s.gameLocks.LoadOrStore(gameID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// BeginPhase builds the engine machine for the game's current phase, runs the
// first step, and persists the opening transcript. Called after StartGame and
// after each turn rollover.
func (s *BattleService) BeginPhase(ctx context.Context, gameID string) error {
	mu := s.gameLock(gameID)
	mu.Lock()
	defer mu.Unlock()

	game, phase, err := s.activePhase(ctx, gameID)
	if err != nil {
		return err
	}

	var gs arrakis.GameState
	if err := json.Unmarshal(phase.StateBefore, &gs); err != nil {
		return fmt.Errorf("unmarshal state: %w", err)
	}

	machine := arrakis.NewBattlePhase(&gs, arrakis.StandardBoard())
	result, err := machine.Step(nil)
	if err != nil {
		return fmt.Errorf("first step: %w", err)
	}
	s.machines.Store(gameID, machine)

	if err := s.cache.SetGameState(ctx, gameID, phase.StateBefore); err != nil {
		return fmt.Errorf("cache state: %w", err)
	}
	if err := s.cache.SetTimer(ctx, gameID, phase.Deadline); err != nil {
		return fmt.Errorf("set timer: %w", err)
	}

	log.Info().Str("gameId", gameID).Str("phaseId", phase.ID).
		Int("turn", phase.Turn).Int("battles", len(machine.Battles)).
		Msg("Battle phase started")

	if err := s.afterStep(ctx, game, phase, machine, result); err != nil {
		return err
	}

	if !machine.Complete {
		go s.driveAgentsAsync(gameID)
	}
	return nil
}

// SubmitResponse feeds one player's answer into the machine. Rejections are
// returned in the StepResult with the suspension point still open.
func (s *BattleService) SubmitResponse(ctx context.Context, gameID, userID string, resp arrakis.AgentResponse) (*arrakis.StepResult, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil || game == nil {
		return nil, ErrGameNotFound
	}

	faction := factionOf(game, userID)
	if faction == "" {
		return nil, ErrNotInGame
	}
	if resp.Faction == "" {
		resp.Faction = arrakis.Faction(faction)
	}
	if resp.Faction != arrakis.Faction(faction) {
		return nil, ErrWrongFaction
	}

	mu := s.gameLock(gameID)
	mu.Lock()
	defer mu.Unlock()

	return s.submitLocked(ctx, game, resp)
}

// submitLocked runs one response through the machine. The caller holds the
// game lock.
func (s *BattleService) submitLocked(ctx context.Context, game *model.Game, resp arrakis.AgentResponse) (*arrakis.StepResult, error) {
	machine, phase, err := s.machineFor(ctx, game)
	if err != nil {
		return nil, err
	}

	result, err := machine.Step([]arrakis.AgentResponse{resp})
	if err != nil {
		return nil, fmt.Errorf("step: %w", err)
	}

	if len(result.Rejections) == 0 {
		if err := s.saveSubmission(ctx, phase.ID, &resp); err != nil {
			return nil, err
		}
	}
	if err := s.afterStep(ctx, game, phase, machine, result); err != nil {
		return nil, err
	}
	return result, nil
}

// SubstituteDefaults answers every open suspension point with the engine
// default. Called when the phase deadline expires.
func (s *BattleService) SubstituteDefaults(ctx context.Context, gameID string) error {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil || game == nil {
		return fmt.Errorf("find game: %w", err)
	}
	if game.Status != "active" {
		return nil
	}

	mu := s.gameLock(gameID)
	mu.Lock()
	defer mu.Unlock()

	machine, phase, err := s.machineFor(ctx, game)
	if err != nil {
		if errors.Is(err, ErrNoActivePhase) {
			return nil
		}
		return err
	}

	log.Info().Str("gameId", gameID).Str("phaseId", phase.ID).
		Int("pending", len(machine.Pending)).
		Msg("Deadline expired, substituting defaults")

	for guard := 0; !machine.Complete && guard < 1000; guard++ {
		if len(machine.Pending) == 0 {
			return fmt.Errorf("machine stalled with no pending requests")
		}
		defaults := make([]arrakis.AgentResponse, 0, len(machine.Pending))
		for _, req := range machine.Pending {
			defaults = append(defaults, arrakis.AgentResponse{
				Faction: req.Faction,
				Type:    req.Type,
				Default: true,
			})
		}
		result, err := machine.Step(defaults)
		if err != nil {
			return fmt.Errorf("default step: %w", err)
		}
		for i := range defaults {
			if err := s.saveSubmission(ctx, phase.ID, &defaults[i]); err != nil {
				return err
			}
		}
		if err := s.afterStep(ctx, game, phase, machine, result); err != nil {
			return err
		}
	}
	return nil
}

// DriveAgents answers pending requests for agent-controlled factions until
// only human factions are waited on or the phase completes.
func (s *BattleService) DriveAgents(ctx context.Context, gameID string) error {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil || game == nil {
		return fmt.Errorf("find game: %w", err)
	}
	if game.Status != "active" {
		return nil
	}

	strategies := make(map[arrakis.Faction]agent.Strategy)
	for _, p := range game.Players {
		if p.IsAgent && p.Faction != "" {
			strategies[arrakis.Faction(p.Faction)] = agent.ForStrategy(p.AgentStrategy)
		}
	}
	if len(strategies) == 0 {
		return nil
	}

	mu := s.gameLock(gameID)
	mu.Lock()
	defer mu.Unlock()

	machine, phase, err := s.machineFor(ctx, game)
	if err != nil {
		if errors.Is(err, ErrNoActivePhase) {
			return nil
		}
		return err
	}

	for guard := 0; !machine.Complete && guard < 1000; guard++ {
		var resp *arrakis.AgentResponse
		var strat agent.Strategy
		for _, req := range machine.Pending {
			st, ok := strategies[req.Faction]
			if !ok {
				continue
			}
			r := st.Respond(machine.Game, req)
			resp, strat = &r, st
			break
		}
		if resp == nil {
			return nil
		}

		result, err := machine.Step([]arrakis.AgentResponse{*resp})
		if err != nil {
			return fmt.Errorf("agent step: %w", err)
		}
		if len(result.Rejections) > 0 {
			// A strategy produced an invalid answer; fall back to the
			// engine default so the game cannot stall.
			log.Warn().Str("gameId", gameID).Str("faction", string(resp.Faction)).
				Str("strategy", strat.Name()).
				Str("code", result.Rejections[0].Code).
				Msg("Agent response rejected, substituting default")
			fallback := arrakis.AgentResponse{Faction: resp.Faction, Type: resp.Type, Default: true}
			result, err = machine.Step([]arrakis.AgentResponse{fallback})
			if err != nil {
				return fmt.Errorf("agent fallback step: %w", err)
			}
			resp = &fallback
		}
		if err := s.saveSubmission(ctx, phase.ID, resp); err != nil {
			return err
		}
		if err := s.afterStep(ctx, game, phase, machine, result); err != nil {
			return err
		}
	}
	return nil
}

func (s *BattleService) driveAgentsAsync(gameID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.DriveAgents(ctx, gameID); err != nil {
		log.Error().Err(err).Str("gameId", gameID).Msg("Agent driver failed")
	}
}

// PendingRequests returns the open suspension points of the current phase.
func (s *BattleService) PendingRequests(ctx context.Context, gameID string) ([]arrakis.PendingRequest, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil || game == nil {
		return nil, ErrGameNotFound
	}

	mu := s.gameLock(gameID)
	mu.Lock()
	defer mu.Unlock()

	machine, _, err := s.machineFor(ctx, game)
	if err != nil {
		return nil, err
	}
	return machine.Pending, nil
}

// Events returns the persisted transcript of a phase.
func (s *BattleService) Events(ctx context.Context, phaseID string) ([]model.PhaseEvent, error) {
	return s.phaseRepo.EventsByPhase(ctx, phaseID)
}

// LiveState returns the latest engine snapshot for an active game, falling
// back to the current phase's opening state when the cache is cold.
func (s *BattleService) LiveState(ctx context.Context, gameID string) (json.RawMessage, error) {
	state, err := s.cache.GetGameState(ctx, gameID)
	if err == nil && len(state) > 0 {
		return state, nil
	}
	phase, err := s.phaseRepo.CurrentPhase(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if phase == nil {
		return nil, ErrNoActivePhase
	}
	return phase.StateBefore, nil
}

// Phases returns a game's full phase history.
func (s *BattleService) Phases(ctx context.Context, gameID string) ([]model.Phase, error) {
	return s.phaseRepo.ListPhases(ctx, gameID)
}

// CurrentPhase returns the game's unresolved phase.
func (s *BattleService) CurrentPhase(ctx context.Context, gameID string) (*model.Phase, error) {
	return s.phaseRepo.CurrentPhase(ctx, gameID)
}

// RecoverActiveGames rebuilds machines and timers for all active games after
// a restart. Machines are reconstructed by replaying persisted submissions
// over the phase's state_before snapshot.
func (s *BattleService) RecoverActiveGames(ctx context.Context) error {
	games, err := s.gameRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active games: %w", err)
	}
	if len(games) == 0 {
		log.Info().Msg("No active games to recover")
		return nil
	}

	log.Info().Int("count", len(games)).Msg("Recovering active games after restart")
	for i := range games {
		game := games[i]
		mu := s.gameLock(game.ID)
		mu.Lock()
		machine, phase, err := s.machineFor(ctx, &game)
		if err != nil {
			mu.Unlock()
			log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to rebuild phase machine")
			continue
		}
		if err := s.cache.SetGameState(ctx, game.ID, phase.StateBefore); err != nil {
			mu.Unlock()
			log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to restore game state")
			continue
		}
		if time.Now().Before(phase.Deadline) {
			if err := s.cache.SetTimer(ctx, game.ID, phase.Deadline); err != nil {
				log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to restore timer")
			}
		}
		mu.Unlock()

		log.Info().Str("gameId", game.ID).Int("turn", phase.Turn).
			Int("pending", len(machine.Pending)).Time("deadline", phase.Deadline).
			Msg("Recovered game")

		go s.driveAgentsAsync(game.ID)
	}
	return nil
}

// activePhase loads the game and its unresolved phase.
func (s *BattleService) activePhase(ctx context.Context, gameID string) (*model.Game, *model.Phase, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil || game == nil {
		return nil, nil, ErrGameNotFound
	}
	phase, err := s.phaseRepo.CurrentPhase(ctx, gameID)
	if err != nil {
		return nil, nil, err
	}
	if phase == nil {
		return nil, nil, ErrNoActivePhase
	}
	return game, phase, nil
}

// machineFor returns the live machine for the game's current phase,
// rebuilding it by replay when absent. The caller holds the game lock.
func (s *BattleService) machineFor(ctx context.Context, game *model.Game) (*arrakis.PhaseState, *model.Phase, error) {
	phase, err := s.phaseRepo.CurrentPhase(ctx, game.ID)
	if err != nil {
		return nil, nil, err
	}
	if phase == nil {
		return nil, nil, ErrNoActivePhase
	}

	if v, ok := s.machines.Load(game.ID); ok {
		return v.(*arrakis.PhaseState), phase, nil
	}

	var gs arrakis.GameState
	if err := json.Unmarshal(phase.StateBefore, &gs); err != nil {
		return nil, nil, fmt.Errorf("unmarshal state: %w", err)
	}
	machine := arrakis.NewBattlePhase(&gs, arrakis.StandardBoard())
	if _, err := machine.Step(nil); err != nil {
		return nil, nil, fmt.Errorf("first step: %w", err)
	}

	subs, err := s.phaseRepo.SubmissionsByPhase(ctx, phase.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("load submissions: %w", err)
	}
	for _, sub := range subs {
		var resp arrakis.AgentResponse
		if err := json.Unmarshal(sub.Payload, &resp); err != nil {
			return nil, nil, fmt.Errorf("unmarshal submission %s: %w", sub.ID, err)
		}
		if _, err := machine.Step([]arrakis.AgentResponse{resp}); err != nil {
			return nil, nil, fmt.Errorf("replay submission %s: %w", sub.ID, err)
		}
	}

	log.Info().Str("gameId", game.ID).Str("phaseId", phase.ID).
		Int("replayed", len(subs)).Msg("Rebuilt phase machine from submissions")

	s.machines.Store(game.ID, machine)
	return machine, phase, nil
}

// saveSubmission persists an accepted response for replay and audit.
func (s *BattleService) saveSubmission(ctx context.Context, phaseID string, resp *arrakis.AgentResponse) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}
	sub := &model.AgentSubmission{
		PhaseID:     phaseID,
		Faction:     string(resp.Faction),
		RequestType: string(resp.Type),
		Payload:     payload,
	}
	if err := s.phaseRepo.SaveSubmission(ctx, sub); err != nil {
		return err
	}
	return nil
}

// afterStep persists the step's events, broadcasts them, and finalizes the
// phase when the machine reports completion.
func (s *BattleService) afterStep(ctx context.Context, game *model.Game, phase *model.Phase, machine *arrakis.PhaseState, result *arrakis.StepResult) error {
	if len(result.Events) > 0 {
		events := make([]model.PhaseEvent, 0, len(result.Events))
		for _, e := range result.Events {
			var data json.RawMessage
			if e.Data != nil {
				data, _ = json.Marshal(e.Data)
			}
			events = append(events, model.PhaseEvent{
				EventType: string(e.Type),
				Faction:   string(e.Faction),
				Territory: string(e.Territory),
				Data:      data,
			})
		}
		if err := s.phaseRepo.AppendEvents(ctx, phase.ID, events); err != nil {
			return fmt.Errorf("append events: %w", err)
		}
		for _, e := range result.Events {
			s.broadcaster.BroadcastGameEvent(game.ID, string(e.Type), e)
		}
	}

	snapshot, err := json.Marshal(machine.Game)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.cache.SetGameState(ctx, game.ID, snapshot); err != nil {
		return fmt.Errorf("cache snapshot: %w", err)
	}

	if !machine.Complete {
		if pending, err := json.Marshal(machine.Pending); err == nil {
			if err := s.cache.SetPhaseContext(ctx, game.ID, pending); err != nil {
				log.Warn().Err(err).Str("gameId", game.ID).Msg("Failed to cache pending requests")
			}
		}
		s.broadcaster.BroadcastGameEvent(game.ID, "pending_requests", machine.Pending)
		return nil
	}
	return s.finalizePhase(ctx, game, phase, machine, snapshot)
}

// finalizePhase resolves the phase row, checks victory, and rolls the game
// over to the next turn.
func (s *BattleService) finalizePhase(ctx context.Context, game *model.Game, phase *model.Phase, machine *arrakis.PhaseState, stateAfter json.RawMessage) error {
	if err := s.phaseRepo.ResolvePhase(ctx, phase.ID, stateAfter); err != nil {
		return fmt.Errorf("resolve phase: %w", err)
	}
	s.machines.Delete(game.ID)

	factions := gameFactions(game)
	if err := s.cache.ClearPhaseData(ctx, game.ID, factions); err != nil {
		return fmt.Errorf("clear phase data: %w", err)
	}

	s.broadcaster.BroadcastGameEvent(game.ID, "phase_resolved", map[string]any{
		"phase_id": phase.ID,
		"turn":     phase.Turn,
		"type":     phase.PhaseType,
		"battles":  len(machine.Results),
	})

	log.Info().Str("gameId", game.ID).Str("phaseId", phase.ID).
		Int("turn", phase.Turn).Int("battles", len(machine.Results)).
		Msg("Battle phase resolved")

	if winner := arrakis.CheckVictory(machine.Game, machine.Board); winner != arrakis.NoFaction {
		return s.endGame(ctx, game, string(winner), "strongholds")
	}
	if phase.Turn >= turnLimit {
		return s.endGame(ctx, game, "", "turn_limit")
	}

	// Roll over to the next turn. The storm dial stands in for the phases
	// between battles that this server does not play out.
	next := arrakis.NextTurn(machine.Game, rand.Intn(arrakis.SectorCount/3)+1)
	nextJSON, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("marshal next state: %w", err)
	}

	deadline := time.Now().Add(parseDuration(game.TurnDuration))
	if _, err := s.phaseRepo.CreatePhase(ctx, game.ID, phase.Turn+1, "battle", nextJSON, deadline); err != nil {
		return fmt.Errorf("create next phase: %w", err)
	}

	s.broadcaster.BroadcastGameEvent(game.ID, "phase_changed", map[string]any{
		"turn":     phase.Turn + 1,
		"type":     "battle",
		"deadline": deadline.Format(time.RFC3339),
	})

	// BeginPhase retakes the game lock; run it after this step unwinds.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.BeginPhase(ctx, game.ID); err != nil {
			log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to begin next phase")
		}
	}()
	return nil
}

// endGame marks the game finished and clears its live data.
func (s *BattleService) endGame(ctx context.Context, game *model.Game, winner, reason string) error {
	log.Info().Str("gameId", game.ID).Str("winner", winner).Str("reason", reason).Msg("Game ended")
	if err := s.gameRepo.SetFinished(ctx, game.ID, winner); err != nil {
		return fmt.Errorf("set finished: %w", err)
	}
	s.broadcaster.BroadcastGameEvent(game.ID, "game_ended", map[string]any{
		"winner": winner,
		"reason": reason,
	})
	return s.cache.DeleteGameData(ctx, game.ID, gameFactions(game))
}

// CleanupStoppedGame broadcasts the game_ended event and clears cached data.
func (s *BattleService) CleanupStoppedGame(ctx context.Context, gameID string) error {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil || game == nil {
		return fmt.Errorf("find game: %w", err)
	}
	s.machines.Delete(gameID)
	s.broadcaster.BroadcastGameEvent(gameID, "game_ended", map[string]any{
		"winner": "",
		"reason": "stopped",
	})
	return s.cache.DeleteGameData(ctx, gameID, gameFactions(game))
}

// factionOf returns the faction a user controls in the game, or "".
func factionOf(game *model.Game, userID string) string {
	for _, p := range game.Players {
		if p.UserID == userID {
			return p.Faction
		}
	}
	return ""
}

// gameFactions returns the factions assigned in this game.
func gameFactions(game *model.Game) []string {
	var factions []string
	for _, p := range game.Players {
		if p.Faction != "" {
			factions = append(factions, p.Faction)
		}
	}
	return factions
}
