package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kynes/landsraad/internal/model"
)

// PhaseRepo handles phase, event transcript, and submission database
// operations.
type PhaseRepo struct {
	db *sql.DB
}

// NewPhaseRepo creates a PhaseRepo.
func NewPhaseRepo(db *sql.DB) *PhaseRepo {
	return &PhaseRepo{db: db}
}

// CreatePhase inserts a new phase.
func (r *PhaseRepo) CreatePhase(ctx context.Context, gameID string, turn int, phaseType string, stateBefore json.RawMessage, deadline time.Time) (*model.Phase, error) {
	var p model.Phase
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO phases (game_id, turn, phase_type, state_before, deadline)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, game_id, turn, phase_type, state_before, deadline, created_at`,
		gameID, turn, phaseType, stateBefore, deadline,
	).Scan(&p.ID, &p.GameID, &p.Turn, &p.PhaseType, &p.StateBefore, &p.Deadline, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create phase: %w", err)
	}
	return &p, nil
}

// CurrentPhase returns the latest unresolved phase for a game.
func (r *PhaseRepo) CurrentPhase(ctx context.Context, gameID string) (*model.Phase, error) {
	var p model.Phase
	var stateAfter sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, game_id, turn, phase_type, state_before, state_after, deadline, resolved_at, created_at
		 FROM phases WHERE game_id = $1 AND resolved_at IS NULL
		 ORDER BY created_at DESC LIMIT 1`, gameID,
	).Scan(&p.ID, &p.GameID, &p.Turn, &p.PhaseType, &p.StateBefore, &stateAfter, &p.Deadline, &p.ResolvedAt, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("current phase: %w", err)
	}
	if stateAfter.Valid {
		p.StateAfter = json.RawMessage(stateAfter.String)
	}
	return &p, nil
}

// ListPhases returns all phases for a game in chronological order.
func (r *PhaseRepo) ListPhases(ctx context.Context, gameID string) ([]model.Phase, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, game_id, turn, phase_type, state_before, state_after, deadline, resolved_at, created_at
		 FROM phases WHERE game_id = $1
		 ORDER BY turn,
		   CASE phase_type
		     WHEN 'storm' THEN 1 WHEN 'spice_blow' THEN 2 WHEN 'bidding' THEN 3
		     WHEN 'revival' THEN 4 WHEN 'shipment' THEN 5 WHEN 'battle' THEN 6
		     WHEN 'collection' THEN 7 ELSE 8 END`, gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("list phases: %w", err)
	}
	defer rows.Close()

	var phases []model.Phase
	for rows.Next() {
		var p model.Phase
		var stateAfter sql.NullString
		if err := rows.Scan(&p.ID, &p.GameID, &p.Turn, &p.PhaseType, &p.StateBefore, &stateAfter, &p.Deadline, &p.ResolvedAt, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan phase: %w", err)
		}
		if stateAfter.Valid {
			p.StateAfter = json.RawMessage(stateAfter.String)
		}
		phases = append(phases, p)
	}
	return phases, rows.Err()
}

// ResolvePhase marks a phase as resolved and stores the resulting state.
func (r *PhaseRepo) ResolvePhase(ctx context.Context, phaseID string, stateAfter json.RawMessage) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE phases SET state_after = $1, resolved_at = now() WHERE id = $2`,
		stateAfter, phaseID,
	)
	if err != nil {
		return fmt.Errorf("resolve phase: %w", err)
	}
	return nil
}

// AppendEvents appends a batch of events to a phase's transcript. Sequence
// numbers continue from the highest already stored so the transcript stays
// append-only across multiple calls.
func (r *PhaseRepo) AppendEvents(ctx context.Context, phaseID string, events []model.PhaseEvent) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var next int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM phase_events WHERE phase_id = $1`, phaseID,
	).Scan(&next)
	if err != nil {
		return fmt.Errorf("next event seq: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO phase_events (phase_id, seq, event_type, faction, territory, data)
		 VALUES ($1, $2, $3, $4, $5, $6)`)
	if err != nil {
		return fmt.Errorf("prepare insert event: %w", err)
	}
	defer stmt.Close()

	for i, e := range events {
		_, err := stmt.ExecContext(ctx, phaseID, next+i, e.EventType,
			nullStr(e.Faction), nullStr(e.Territory), nullJSON(e.Data))
		if err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}
	return tx.Commit()
}

// EventsByPhase returns a phase's event transcript in sequence order.
func (r *PhaseRepo) EventsByPhase(ctx context.Context, phaseID string) ([]model.PhaseEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, phase_id, seq, event_type, faction, territory, data, created_at
		 FROM phase_events WHERE phase_id = $1 ORDER BY seq`, phaseID,
	)
	if err != nil {
		return nil, fmt.Errorf("events by phase: %w", err)
	}
	defer rows.Close()

	var events []model.PhaseEvent
	for rows.Next() {
		var e model.PhaseEvent
		var faction, territory, data sql.NullString
		if err := rows.Scan(&e.ID, &e.PhaseID, &e.Seq, &e.EventType, &faction, &territory, &data, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Faction = faction.String
		e.Territory = territory.String
		if data.Valid {
			e.Data = json.RawMessage(data.String)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// SaveSubmission records a faction's answer to a pending request.
func (r *PhaseRepo) SaveSubmission(ctx context.Context, sub *model.AgentSubmission) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO agent_submissions (phase_id, faction, request_type, payload)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		sub.PhaseID, sub.Faction, sub.RequestType, nullJSON(sub.Payload),
	).Scan(&sub.ID, &sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("save submission: %w", err)
	}
	return nil
}

// SubmissionsByPhase returns all recorded answers for a phase in order.
func (r *PhaseRepo) SubmissionsByPhase(ctx context.Context, phaseID string) ([]model.AgentSubmission, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, phase_id, faction, request_type, payload, created_at
		 FROM agent_submissions WHERE phase_id = $1 ORDER BY created_at`, phaseID,
	)
	if err != nil {
		return nil, fmt.Errorf("submissions by phase: %w", err)
	}
	defer rows.Close()

	var subs []model.AgentSubmission
	for rows.Next() {
		var s model.AgentSubmission
		var payload sql.NullString
		if err := rows.Scan(&s.ID, &s.PhaseID, &s.Faction, &s.RequestType, &payload, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		if payload.Valid {
			s.Payload = json.RawMessage(payload.String)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// ListExpired returns the latest unresolved phase per game where the deadline has passed.
// Uses DISTINCT ON to avoid returning orphaned old phases from previous race conditions.
func (r *PhaseRepo) ListExpired(ctx context.Context) ([]model.Phase, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT ON (p.game_id) p.id, p.game_id, p.turn, p.phase_type, p.state_before, p.deadline, p.created_at
		 FROM phases p
		 JOIN games g ON g.id = p.game_id
		 WHERE p.resolved_at IS NULL AND p.deadline < now() AND g.status = 'active'
		 ORDER BY p.game_id, p.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list expired phases: %w", err)
	}
	defer rows.Close()

	var phases []model.Phase
	for rows.Next() {
		var p model.Phase
		if err := rows.Scan(&p.ID, &p.GameID, &p.Turn, &p.PhaseType, &p.StateBefore, &p.Deadline, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan expired phase: %w", err)
		}
		phases = append(phases, p)
	}
	return phases, rows.Err()
}

func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullJSON(m json.RawMessage) any {
	if len(m) == 0 {
		return nil
	}
	return []byte(m)
}
