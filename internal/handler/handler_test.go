package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kynes/landsraad/internal/auth"
	"github.com/kynes/landsraad/internal/model"
	"github.com/kynes/landsraad/internal/service"
	"github.com/kynes/landsraad/pkg/arrakis"
)

// --- Mock Repositories ---

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
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("user not found")
	}
	u.DisplayName = displayName
	return nil
}

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
	var result []model.Game
	for gameID, players := range m.players {
		for _, p := range players {
			if p.UserID == userID {
				if g, ok := m.games[gameID]; ok {
					result = append(result, *g)
				}
			}
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

type mockPhaseRepo struct {
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
	for i := len(m.order) - 1; i >= 0; i-- {
		p := m.phases[m.order[i]]
		if p.GameID == gameID && p.ResolvedAt == nil {
			return p, nil
		}
	}
	return nil, nil
}

func (m *mockPhaseRepo) ListPhases(_ context.Context, gameID string) ([]model.Phase, error) {
	var result []model.Phase
	for _, id := range m.order {
		if p := m.phases[id]; p.GameID == gameID {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *mockPhaseRepo) ResolvePhase(_ context.Context, phaseID string, stateAfter json.RawMessage) error {
	if p, ok := m.phases[phaseID]; ok {
		p.StateAfter = stateAfter
		now := time.Now()
		p.ResolvedAt = &now
	}
	return nil
}

func (m *mockPhaseRepo) AppendEvents(_ context.Context, phaseID string, events []model.PhaseEvent) error {
	next := len(m.events[phaseID]) + 1
	for i, e := range events {
		e.PhaseID = phaseID
		e.Seq = next + i
		m.events[phaseID] = append(m.events[phaseID], e)
	}
	return nil
}

func (m *mockPhaseRepo) EventsByPhase(_ context.Context, phaseID string) ([]model.PhaseEvent, error) {
	return m.events[phaseID], nil
}

func (m *mockPhaseRepo) SaveSubmission(_ context.Context, sub *model.AgentSubmission) error {
	sub.ID = fmt.Sprintf("sub-%d", len(m.submissions[sub.PhaseID])+1)
	sub.CreatedAt = time.Now()
	m.submissions[sub.PhaseID] = append(m.submissions[sub.PhaseID], *sub)
	return nil
}

func (m *mockPhaseRepo) SubmissionsByPhase(_ context.Context, phaseID string) ([]model.AgentSubmission, error) {
	return m.submissions[phaseID], nil
}

func (m *mockPhaseRepo) ListExpired(_ context.Context) ([]model.Phase, error) {
	return nil, nil
}

type mockCache struct {
	states map[string]json.RawMessage
	timers map[string]time.Time
}

func newMockCache() *mockCache {
	return &mockCache{
		states: make(map[string]json.RawMessage),
		timers: make(map[string]time.Time),
	}
}

func (c *mockCache) SetGameState(_ context.Context, gameID string, state json.RawMessage) error {
	c.states[gameID] = state
	return nil
}

func (c *mockCache) GetGameState(_ context.Context, gameID string) (json.RawMessage, error) {
	return c.states[gameID], nil
}

func (c *mockCache) SetPhaseContext(context.Context, string, json.RawMessage) error { return nil }
func (c *mockCache) GetPhaseContext(context.Context, string) (json.RawMessage, error) {
	return nil, nil
}
func (c *mockCache) SetResponse(context.Context, string, string, json.RawMessage) error { return nil }
func (c *mockCache) GetResponse(context.Context, string, string) (json.RawMessage, error) {
	return nil, nil
}
func (c *mockCache) GetAllResponses(context.Context, string, []string) (map[string]json.RawMessage, error) {
	return nil, nil
}
func (c *mockCache) ClearResponses(context.Context, string, []string) error { return nil }
func (c *mockCache) MarkReady(context.Context, string, string) error        { return nil }
func (c *mockCache) UnmarkReady(context.Context, string, string) error      { return nil }
func (c *mockCache) ReadyCount(context.Context, string) (int64, error)      { return 0, nil }
func (c *mockCache) ReadyFactions(context.Context, string) ([]string, error) {
	return nil, nil
}

func (c *mockCache) SetTimer(_ context.Context, gameID string, deadline time.Time) error {
	c.timers[gameID] = deadline
	return nil
}

func (c *mockCache) ClearTimer(_ context.Context, gameID string) error {
	delete(c.timers, gameID)
	return nil
}

func (c *mockCache) ClearPhaseData(_ context.Context, gameID string, _ []string) error {
	delete(c.timers, gameID)
	return nil
}

func (c *mockCache) DeleteGameData(_ context.Context, gameID string, _ []string) error {
	delete(c.states, gameID)
	delete(c.timers, gameID)
	return nil
}

// --- Helpers ---

func reqWithUserID(method, path string, body string, userID string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	ctx := auth.SetUserIDForTest(req.Context(), userID)
	return req.WithContext(ctx)
}

// battleFixture wires a two-faction game with one brewing battle through real
// services over the mocks.
func battleFixture(t *testing.T) (*BattleHandler, string) {
	t.Helper()
	ctx := context.Background()

	gameRepo := newMockGameRepo()
	phaseRepo := newMockPhaseRepo()
	gameSvc := service.NewGameService(gameRepo, phaseRepo, newMockUserRepo())
	battleSvc := service.NewBattleService(gameRepo, phaseRepo, newMockCache(), nil)

	game, _ := gameRepo.Create(ctx, "Fixture", "user-1", "24 hours", false)
	gameRepo.JoinGame(ctx, game.ID, "user-1")
	gameRepo.JoinGame(ctx, game.ID, "user-2")
	gameRepo.AssignFactions(ctx, game.ID, map[string]string{
		"user-1": string(arrakis.Atreides),
		"user-2": string(arrakis.Harkonnen),
	})

	gs := arrakis.NewGameState([]arrakis.Faction{arrakis.Atreides, arrakis.Harkonnen}, false)
	gs.Forces = append(gs.Forces,
		arrakis.ForceStack{Faction: arrakis.Atreides, Territory: arrakis.CielagoNorth, Sector: 1, Regular: 5},
		arrakis.ForceStack{Faction: arrakis.Harkonnen, Territory: arrakis.CielagoNorth, Sector: 1, Regular: 4},
	)
	stateJSON, _ := json.Marshal(gs)
	phaseRepo.CreatePhase(ctx, game.ID, 1, "battle", stateJSON, time.Now().Add(time.Hour))

	if err := battleSvc.BeginPhase(ctx, game.ID); err != nil {
		t.Fatalf("BeginPhase: %v", err)
	}
	return NewBattleHandler(gameSvc, battleSvc), game.ID
}

// --- User Handler Tests ---

func TestGetMe(t *testing.T) {
	repo := newMockUserRepo()
	repo.users["user-1"] = &model.User{
		ID:          "user-1",
		DisplayName: "Alia",
		Provider:    "google",
	}
	h := NewUserHandler(repo)

	req := reqWithUserID(http.MethodGet, "/users/me", "", "user-1")
	rec := httptest.NewRecorder()
	h.GetMe(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var user model.User
	json.Unmarshal(rec.Body.Bytes(), &user)
	if user.DisplayName != "Alia" {
		t.Errorf("expected Alia, got %s", user.DisplayName)
	}
}

func TestGetMeNotFound(t *testing.T) {
	repo := newMockUserRepo()
	h := NewUserHandler(repo)

	req := reqWithUserID(http.MethodGet, "/users/me", "", "nonexistent")
	rec := httptest.NewRecorder()
	h.GetMe(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestUpdateMe(t *testing.T) {
	repo := newMockUserRepo()
	repo.users["user-1"] = &model.User{
		ID:          "user-1",
		DisplayName: "Alia",
	}
	h := NewUserHandler(repo)

	req := reqWithUserID(http.MethodPatch, "/users/me", `{"display_name":"Irulan"}`, "user-1")
	rec := httptest.NewRecorder()
	h.UpdateMe(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var user model.User
	json.Unmarshal(rec.Body.Bytes(), &user)
	if user.DisplayName != "Irulan" {
		t.Errorf("expected Irulan, got %s", user.DisplayName)
	}
}

func TestUpdateMeEmptyName(t *testing.T) {
	repo := newMockUserRepo()
	repo.users["user-1"] = &model.User{ID: "user-1"}
	h := NewUserHandler(repo)

	req := reqWithUserID(http.MethodPatch, "/users/me", `{"display_name":""}`, "user-1")
	rec := httptest.NewRecorder()
	h.UpdateMe(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestUpdateMeInvalidJSON(t *testing.T) {
	repo := newMockUserRepo()
	h := NewUserHandler(repo)

	req := reqWithUserID(http.MethodPatch, "/users/me", "not json", "user-1")
	rec := httptest.NewRecorder()
	h.UpdateMe(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

// --- Game Handler Tests ---

func TestCreateGame(t *testing.T) {
	gameRepo := newMockGameRepo()
	phaseRepo := newMockPhaseRepo()
	gameSvc := service.NewGameService(gameRepo, phaseRepo, newMockUserRepo())
	h := NewGameHandler(gameSvc, nil, NewHub())

	req := reqWithUserID(http.MethodPost, "/games", `{"name":"Test Game","advanced_rules":true}`, "user-1")
	rec := httptest.NewRecorder()
	h.CreateGame(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var game model.Game
	json.Unmarshal(rec.Body.Bytes(), &game)
	if game.Name != "Test Game" {
		t.Errorf("expected 'Test Game', got %s", game.Name)
	}
	if !game.AdvancedRules {
		t.Error("expected advanced rules to be set")
	}
	if len(game.Players) != 6 {
		t.Errorf("expected all 6 seats filled, got %d", len(game.Players))
	}
}

func TestCreateGameMissingName(t *testing.T) {
	gameRepo := newMockGameRepo()
	phaseRepo := newMockPhaseRepo()
	gameSvc := service.NewGameService(gameRepo, phaseRepo, newMockUserRepo())
	h := NewGameHandler(gameSvc, nil, NewHub())

	req := reqWithUserID(http.MethodPost, "/games", `{"name":""}`, "user-1")
	rec := httptest.NewRecorder()
	h.CreateGame(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestListGamesEmpty(t *testing.T) {
	gameRepo := newMockGameRepo()
	phaseRepo := newMockPhaseRepo()
	gameSvc := service.NewGameService(gameRepo, phaseRepo, newMockUserRepo())
	h := NewGameHandler(gameSvc, nil, NewHub())

	req := reqWithUserID(http.MethodGet, "/games", "", "user-1")
	rec := httptest.NewRecorder()
	h.ListGames(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := strings.TrimSpace(rec.Body.String())
	if body != "[]" {
		t.Errorf("expected [], got %s", body)
	}
}

func TestGetGameNotFound(t *testing.T) {
	gameRepo := newMockGameRepo()
	phaseRepo := newMockPhaseRepo()
	gameSvc := service.NewGameService(gameRepo, phaseRepo, newMockUserRepo())
	h := NewGameHandler(gameSvc, nil, NewHub())

	req := reqWithUserID(http.MethodGet, "/games/nonexistent", "", "user-1")
	req.SetPathValue("id", "nonexistent")
	rec := httptest.NewRecorder()
	h.GetGame(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestJoinGameNotFound(t *testing.T) {
	gameRepo := newMockGameRepo()
	phaseRepo := newMockPhaseRepo()
	gameSvc := service.NewGameService(gameRepo, phaseRepo, newMockUserRepo())
	h := NewGameHandler(gameSvc, nil, NewHub())

	req := reqWithUserID(http.MethodPost, "/games/nonexistent/join", "", "user-1")
	req.SetPathValue("id", "nonexistent")
	rec := httptest.NewRecorder()
	h.JoinGame(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

// --- Battle Handler Tests ---

func TestPendingRequests(t *testing.T) {
	h, gameID := battleFixture(t)

	req := reqWithUserID(http.MethodGet, "/games/"+gameID+"/pending", "", "user-1")
	req.SetPathValue("id", gameID)
	rec := httptest.NewRecorder()
	h.PendingRequests(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var pending []arrakis.PendingRequest
	json.Unmarshal(rec.Body.Bytes(), &pending)
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending request, got %d", len(pending))
	}
	if pending[0].Type != arrakis.RequestChooseBattle {
		t.Errorf("expected choose_battle, got %s", pending[0].Type)
	}
}

func TestSubmitResponse(t *testing.T) {
	h, gameID := battleFixture(t)

	body := `{"type":"choose_battle","default":true}`
	req := reqWithUserID(http.MethodPost, "/games/"+gameID+"/responses", body, "user-1")
	req.SetPathValue("id", gameID)
	rec := httptest.NewRecorder()
	h.SubmitResponse(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result arrakis.StepResult
	json.Unmarshal(rec.Body.Bytes(), &result)
	if len(result.Rejections) != 0 {
		t.Fatalf("unexpected rejections: %v", result.Rejections)
	}
	if len(result.Events) == 0 {
		t.Error("expected step events in the response")
	}
}

func TestSubmitResponseNotInGame(t *testing.T) {
	h, gameID := battleFixture(t)

	body := `{"type":"choose_battle","default":true}`
	req := reqWithUserID(http.MethodPost, "/games/"+gameID+"/responses", body, "stranger")
	req.SetPathValue("id", gameID)
	rec := httptest.NewRecorder()
	h.SubmitResponse(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

func TestSubmitResponseMissingType(t *testing.T) {
	h, gameID := battleFixture(t)

	req := reqWithUserID(http.MethodPost, "/games/"+gameID+"/responses", `{"default":true}`, "user-1")
	req.SetPathValue("id", gameID)
	rec := httptest.NewRecorder()
	h.SubmitResponse(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestLiveState(t *testing.T) {
	h, gameID := battleFixture(t)

	req := reqWithUserID(http.MethodGet, "/games/"+gameID+"/state", "", "user-1")
	req.SetPathValue("id", gameID)
	rec := httptest.NewRecorder()
	h.LiveState(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var gs arrakis.GameState
	if err := json.Unmarshal(rec.Body.Bytes(), &gs); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	if len(gs.Forces) == 0 {
		t.Error("expected forces in the live snapshot")
	}
}

func TestListPhases(t *testing.T) {
	h, gameID := battleFixture(t)

	req := reqWithUserID(http.MethodGet, "/games/"+gameID+"/phases", "", "user-1")
	req.SetPathValue("id", gameID)
	rec := httptest.NewRecorder()
	h.ListPhases(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var phases []model.Phase
	json.Unmarshal(rec.Body.Bytes(), &phases)
	if len(phases) != 1 {
		t.Fatalf("expected 1 phase, got %d", len(phases))
	}
	if phases[0].PhaseType != "battle" {
		t.Errorf("expected battle phase, got %s", phases[0].PhaseType)
	}
}

func TestCurrentPhaseNotFound(t *testing.T) {
	gameRepo := newMockGameRepo()
	phaseRepo := newMockPhaseRepo()
	gameSvc := service.NewGameService(gameRepo, phaseRepo, newMockUserRepo())
	battleSvc := service.NewBattleService(gameRepo, phaseRepo, newMockCache(), nil)
	h := NewBattleHandler(gameSvc, battleSvc)

	req := reqWithUserID(http.MethodGet, "/games/game-1/phase", "", "user-1")
	req.SetPathValue("id", "game-1")
	rec := httptest.NewRecorder()
	h.CurrentPhase(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestPhaseEventsEmpty(t *testing.T) {
	gameRepo := newMockGameRepo()
	phaseRepo := newMockPhaseRepo()
	gameSvc := service.NewGameService(gameRepo, phaseRepo, newMockUserRepo())
	battleSvc := service.NewBattleService(gameRepo, phaseRepo, newMockCache(), nil)
	h := NewBattleHandler(gameSvc, battleSvc)

	req := reqWithUserID(http.MethodGet, "/phases/phase-1/events", "", "user-1")
	req.SetPathValue("id", "phase-1")
	rec := httptest.NewRecorder()
	h.PhaseEvents(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := strings.TrimSpace(rec.Body.String())
	if body != "[]" {
		t.Errorf("expected [], got %s", body)
	}
}

// --- Auth Handler Tests ---

func TestRefreshTokenValid(t *testing.T) {
	jwtMgr := auth.NewJWTManager("test-secret")
	repo := newMockUserRepo()
	h := NewAuthHandler(nil, jwtMgr, repo)

	refresh, _ := jwtMgr.GenerateRefreshToken("user-1")
	body := fmt.Sprintf(`{"refresh_token":"%s"}`, refresh)
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.RefreshToken(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var tokens auth.TokenPair
	json.Unmarshal(rec.Body.Bytes(), &tokens)
	if tokens.AccessToken == "" {
		t.Error("expected non-empty access token")
	}
}

func TestRefreshTokenInvalid(t *testing.T) {
	jwtMgr := auth.NewJWTManager("test-secret")
	repo := newMockUserRepo()
	h := NewAuthHandler(nil, jwtMgr, repo)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(`{"refresh_token":"invalid"}`))
	rec := httptest.NewRecorder()
	h.RefreshToken(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestRefreshTokenBadBody(t *testing.T) {
	jwtMgr := auth.NewJWTManager("test-secret")
	repo := newMockUserRepo()
	h := NewAuthHandler(nil, jwtMgr, repo)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	h.RefreshToken(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
