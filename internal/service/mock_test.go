package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/kynes/landsraad/internal/model"
)

type mockGameRepo struct {
	games   map[string]*model.Game
	players map[string][]model.GamePlayer
}

func newMockGameRepo() *mockGameRepo {
	return &mockGameRepo{
		games:   make(map[string]*model.Game),
		players: make(map[string][]model.GamePlayer),
	}
}

func (m *mockGameRepo) Create(_ context.Context, name, creatorID, turnDur string, advancedRules bool) (*model.Game, error) {
	g := &model.Game{
		ID:            fmt.Sprintf("game-%d", len(m.games)+1),
		Name:          name,
		CreatorID:     creatorID,
		Status:        "waiting",
		AdvancedRules: advancedRules,
		TurnDuration:  turnDur,
		CreatedAt:     time.Now(),
	}
	m.games[g.ID] = g
	return g, nil
}

func (m *mockGameRepo) FindByID(_ context.Context, id string) (*model.Game, error) {
	g, ok := m.games[id]
	if !ok {
		return nil, nil
	}
	cp := *g
	cp.Players = m.players[id]
	return &cp, nil
}

func (m *mockGameRepo) ListOpen(_ context.Context) ([]model.Game, error) {
	var result []model.Game
	for _, g := range m.games {
		if g.Status == "waiting" {
			result = append(result, *g)
		}
	}
	return result, nil
}

func (m *mockGameRepo) ListByUser(_ context.Context, userID string) ([]model.Game, error) {
	seen := make(map[string]bool)
	var result []model.Game
	for gameID, players := range m.players {
		for _, p := range players {
			if p.UserID == userID && !seen[gameID] {
				if g, ok := m.games[gameID]; ok {
					result = append(result, *g)
					seen[gameID] = true
				}
			}
		}
	}
	// Also include games where user is creator but not seated (agent-only games)
	for _, g := range m.games {
		if g.CreatorID == userID && !seen[g.ID] {
			result = append(result, *g)
			seen[g.ID] = true
		}
	}
	return result, nil
}

func (m *mockGameRepo) ListActive(_ context.Context) ([]model.Game, error) {
	var result []model.Game
	for _, g := range m.games {
		if g.Status == "active" {
			cp := *g
			cp.Players = m.players[g.ID]
			result = append(result, cp)
		}
	}
	return result, nil
}

func (m *mockGameRepo) JoinGame(_ context.Context, gameID, userID string) error {
	m.players[gameID] = append(m.players[gameID], model.GamePlayer{
		GameID:   gameID,
		UserID:   userID,
		JoinedAt: time.Now(),
	})
	return nil
}

func (m *mockGameRepo) JoinGameAsAgent(_ context.Context, gameID, userID, strategy string) error {
	if strategy == "" {
		strategy = "cautious"
	}
	m.players[gameID] = append(m.players[gameID], model.GamePlayer{
		GameID:        gameID,
		UserID:        userID,
		IsAgent:       true,
		AgentStrategy: strategy,
		JoinedAt:      time.Now(),
	})
	return nil
}

func (m *mockGameRepo) ReplaceAgent(_ context.Context, gameID, newUserID string) error {
	players := m.players[gameID]
	for i, p := range players {
		if p.IsAgent {
			players[i] = model.GamePlayer{
				GameID:   gameID,
				UserID:   newUserID,
				JoinedAt: time.Now(),
			}
			m.players[gameID] = players
			return nil
		}
	}
	return fmt.Errorf("no agent seat to replace")
}

func (m *mockGameRepo) PlayerCount(_ context.Context, gameID string) (int, error) {
	return len(m.players[gameID]), nil
}

func (m *mockGameRepo) AssignFactions(_ context.Context, gameID string, assignments map[string]string) error {
	players := m.players[gameID]
	for i := range players {
		if faction, ok := assignments[players[i].UserID]; ok {
			players[i].Faction = faction
		}
	}
	m.players[gameID] = players
	if g, ok := m.games[gameID]; ok {
		g.Status = "active"
		now := time.Now()
		g.StartedAt = &now
	}
	return nil
}

func (m *mockGameRepo) SetFinished(_ context.Context, gameID, winner string) error {
	if g, ok := m.games[gameID]; ok {
		g.Status = "finished"
		g.Winner = winner
	}
	return nil
}

func (m *mockGameRepo) Delete(_ context.Context, gameID string) error {
	delete(m.games, gameID)
	delete(m.players, gameID)
	return nil
}

// mockUserRepo implements repository.UserRepository for testing.
type mockUserRepo struct {
	users map[string]*model.User
	seq   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return u, nil
}

func (m *mockUserRepo) FindByProviderID(_ context.Context, provider, providerID string) (*model.User, error) {
	for _, u := range m.users {
		if u.Provider == provider && u.ProviderID == providerID {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) Upsert(_ context.Context, provider, providerID, displayName, avatarURL string) (*model.User, error) {
	for _, u := range m.users {
		if u.Provider == provider && u.ProviderID == providerID {
			u.DisplayName = displayName
			return u, nil
		}
	}
	m.seq++
	u := &model.User{
		ID:          fmt.Sprintf("agent-user-%d", m.seq),
		Provider:    provider,
		ProviderID:  providerID,
		DisplayName: displayName,
		AvatarURL:   avatarURL,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *mockUserRepo) UpdateDisplayName(_ context.Context, id, displayName string) error {
	if u, ok := m.users[id]; ok {
		u.DisplayName = displayName
	}
	return nil
}

type mockPhaseRepo struct {
	mu          sync.Mutex
	phases      map[string]*model.Phase
	order       []string
	events      map[string][]model.PhaseEvent
	submissions map[string][]model.AgentSubmission
	seq         int
}

func newMockPhaseRepo() *mockPhaseRepo {
	return &mockPhaseRepo{
		phases:      make(map[string]*model.Phase),
		events:      make(map[string][]model.PhaseEvent),
		submissions: make(map[string][]model.AgentSubmission),
	}
}

func (m *mockPhaseRepo) CreatePhase(_ context.Context, gameID string, turn int, phaseType string, stateBefore json.RawMessage, deadline time.Time) (*model.Phase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	p := &model.Phase{
		ID:          fmt.Sprintf("phase-%d", m.seq),
		GameID:      gameID,
		Turn:        turn,
		PhaseType:   phaseType,
		StateBefore: stateBefore,
		Deadline:    deadline,
		CreatedAt:   time.Now(),
	}
	m.phases[p.ID] = p
	m.order = append(m.order, p.ID)
	return p, nil
}

func (m *mockPhaseRepo) CurrentPhase(_ context.Context, gameID string) (*model.Phase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.order) - 1; i >= 0; i-- {
		p := m.phases[m.order[i]]
		if p.GameID == gameID && p.ResolvedAt == nil {
			return p, nil
		}
	}
	return nil, nil
}

func (m *mockPhaseRepo) ListPhases(_ context.Context, gameID string) ([]model.Phase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Phase
	for _, p := range m.phases {
		if p.GameID == gameID {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *mockPhaseRepo) ResolvePhase(_ context.Context, phaseID string, stateAfter json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.phases[phaseID]; ok {
		p.StateAfter = stateAfter
		now := time.Now()
		p.ResolvedAt = &now
	}
	return nil
}

func (m *mockPhaseRepo) AppendEvents(_ context.Context, phaseID string, events []model.PhaseEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := len(m.events[phaseID]) + 1
	for i, e := range events {
		e.PhaseID = phaseID
		e.Seq = next + i
		m.events[phaseID] = append(m.events[phaseID], e)
	}
	return nil
}

func (m *mockPhaseRepo) EventsByPhase(_ context.Context, phaseID string) ([]model.PhaseEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.PhaseEvent(nil), m.events[phaseID]...), nil
}

func (m *mockPhaseRepo) SaveSubmission(_ context.Context, sub *model.AgentSubmission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub.ID = fmt.Sprintf("sub-%d", len(m.submissions[sub.PhaseID])+1)
	sub.CreatedAt = time.Now()
	m.submissions[sub.PhaseID] = append(m.submissions[sub.PhaseID], *sub)
	return nil
}

func (m *mockPhaseRepo) SubmissionsByPhase(_ context.Context, phaseID string) ([]model.AgentSubmission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.AgentSubmission(nil), m.submissions[phaseID]...), nil
}

func (m *mockPhaseRepo) ListExpired(_ context.Context) ([]model.Phase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Phase
	for _, p := range m.phases {
		if p.ResolvedAt == nil && p.Deadline.Before(time.Now()) {
			result = append(result, *p)
		}
	}
	return result, nil
}

// mockCache implements repository.GameCache for testing.
type mockCache struct {
	mu        sync.Mutex
	states    map[string]json.RawMessage
	contexts  map[string]json.RawMessage
	responses map[string]json.RawMessage // key: "gameID:faction"
	ready     map[string]map[string]bool // gameID -> set of factions
	timers    map[string]time.Time
}

func newMockCache() *mockCache {
	return &mockCache{
		states:    make(map[string]json.RawMessage),
		contexts:  make(map[string]json.RawMessage),
		responses: make(map[string]json.RawMessage),
		ready:     make(map[string]map[string]bool),
		timers:    make(map[string]time.Time),
	}
}

func (c *mockCache) SetGameState(_ context.Context, gameID string, state json.RawMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[gameID] = state
	return nil
}

func (c *mockCache) GetGameState(_ context.Context, gameID string) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[gameID], nil
}

func (c *mockCache) SetPhaseContext(_ context.Context, gameID string, phase json.RawMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.contexts[gameID] = phase
	return nil
}

func (c *mockCache) GetPhaseContext(_ context.Context, gameID string) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.contexts[gameID], nil
}

func (c *mockCache) SetResponse(_ context.Context, gameID, faction string, response json.RawMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses[gameID+":"+faction] = response
	return nil
}

func (c *mockCache) GetResponse(_ context.Context, gameID, faction string) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.responses[gameID+":"+faction], nil
}

func (c *mockCache) GetAllResponses(_ context.Context, gameID string, factions []string) (map[string]json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make(map[string]json.RawMessage)
	for _, faction := range factions {
		if data, ok := c.responses[gameID+":"+faction]; ok {
			result[faction] = data
		}
	}
	return result, nil
}

func (c *mockCache) ClearResponses(_ context.Context, gameID string, factions []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, faction := range factions {
		delete(c.responses, gameID+":"+faction)
	}
	return nil
}

func (c *mockCache) MarkReady(_ context.Context, gameID, faction string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ready[gameID] == nil {
		c.ready[gameID] = make(map[string]bool)
	}
	c.ready[gameID][faction] = true
	return nil
}

func (c *mockCache) UnmarkReady(_ context.Context, gameID, faction string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ready[gameID] != nil {
		delete(c.ready[gameID], faction)
	}
	return nil
}

func (c *mockCache) ReadyCount(_ context.Context, gameID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int64(len(c.ready[gameID])), nil
}

func (c *mockCache) ReadyFactions(_ context.Context, gameID string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var result []string
	for faction := range c.ready[gameID] {
		result = append(result, faction)
	}
	return result, nil
}

func (c *mockCache) SetTimer(_ context.Context, gameID string, deadline time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timers[gameID] = deadline
	return nil
}

func (c *mockCache) ClearTimer(_ context.Context, gameID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.timers, gameID)
	return nil
}

func (c *mockCache) ClearPhaseData(_ context.Context, gameID string, factions []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.contexts, gameID)
	delete(c.ready, gameID)
	delete(c.timers, gameID)
	for _, faction := range factions {
		delete(c.responses, gameID+":"+faction)
	}
	return nil
}

func (c *mockCache) DeleteGameData(_ context.Context, gameID string, factions []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.states, gameID)
	delete(c.contexts, gameID)
	delete(c.ready, gameID)
	delete(c.timers, gameID)
	for _, faction := range factions {
		delete(c.responses, gameID+":"+faction)
	}
	return nil
}

// recordingBroadcaster captures broadcast events for assertions.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []broadcastRecord
}

type broadcastRecord struct {
	GameID    string
	EventType string
	Data      any
}

func (b *recordingBroadcaster) BroadcastGameEvent(gameID, eventType string, data any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, broadcastRecord{GameID: gameID, EventType: eventType, Data: data})
}

func (b *recordingBroadcaster) typesSeen() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var types []string
	for _, e := range b.events {
		types = append(types, e.EventType)
	}
	return types
}
