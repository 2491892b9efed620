package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key patterns for Redis game state.
func stateKey(gameID string) string             { return "game:" + gameID + ":state" }
func phaseKey(gameID string) string             { return "game:" + gameID + ":phase" }
func responseKey(gameID, faction string) string { return "game:" + gameID + ":response:" + faction }
func readyKey(gameID string) string             { return "game:" + gameID + ":ready" }
func timerKey(gameID string) string             { return "game:" + gameID + ":timer" }

// SetGameState stores the live engine snapshot JSON.
func (c *Client) SetGameState(ctx context.Context, gameID string, state json.RawMessage) error {
	return c.rdb.Set(ctx, stateKey(gameID), []byte(state), 0).Err()
}

// GetGameState retrieves the live engine snapshot JSON.
func (c *Client) GetGameState(ctx context.Context, gameID string) (json.RawMessage, error) {
	data, err := c.rdb.Get(ctx, stateKey(gameID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get game state: %w", err)
	}
	return json.RawMessage(data), nil
}

// SetPhaseContext stores the open pending requests of the current phase so
// observers can see who the engine is waiting on without touching the
// machine.
func (c *Client) SetPhaseContext(ctx context.Context, gameID string, phase json.RawMessage) error {
	return c.rdb.Set(ctx, phaseKey(gameID), []byte(phase), 0).Err()
}

// GetPhaseContext retrieves the stored pending request view.
func (c *Client) GetPhaseContext(ctx context.Context, gameID string) (json.RawMessage, error) {
	data, err := c.rdb.Get(ctx, phaseKey(gameID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get phase context: %w", err)
	}
	return json.RawMessage(data), nil
}

// SetResponse stores a faction's answer to its pending request.
func (c *Client) SetResponse(ctx context.Context, gameID, faction string, response json.RawMessage) error {
	return c.rdb.Set(ctx, responseKey(gameID, faction), []byte(response), 0).Err()
}

// GetResponse retrieves a faction's submitted answer.
func (c *Client) GetResponse(ctx context.Context, gameID, faction string) (json.RawMessage, error) {
	data, err := c.rdb.Get(ctx, responseKey(gameID, faction)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get response: %w", err)
	}
	return json.RawMessage(data), nil
}

// GetAllResponses retrieves the answers from every faction that has
// submitted one.
func (c *Client) GetAllResponses(ctx context.Context, gameID string, factions []string) (map[string]json.RawMessage, error) {
	result := make(map[string]json.RawMessage)
	for _, faction := range factions {
		data, err := c.GetResponse(ctx, gameID, faction)
		if err != nil {
			return nil, err
		}
		if data != nil {
			result[faction] = data
		}
	}
	return result, nil
}

// ClearResponses removes the stored answers after a step consumes them.
func (c *Client) ClearResponses(ctx context.Context, gameID string, factions []string) error {
	keys := make([]string, 0, len(factions))
	for _, faction := range factions {
		keys = append(keys, responseKey(gameID, faction))
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// MarkReady adds a faction to the ready set for the game.
func (c *Client) MarkReady(ctx context.Context, gameID, faction string) error {
	return c.rdb.SAdd(ctx, readyKey(gameID), faction).Err()
}

// UnmarkReady removes a faction from the ready set.
func (c *Client) UnmarkReady(ctx context.Context, gameID, faction string) error {
	return c.rdb.SRem(ctx, readyKey(gameID), faction).Err()
}

// ReadyCount returns how many factions have marked ready.
func (c *Client) ReadyCount(ctx context.Context, gameID string) (int64, error) {
	return c.rdb.SCard(ctx, readyKey(gameID)).Result()
}

// ReadyFactions returns the set of factions that have marked ready.
func (c *Client) ReadyFactions(ctx context.Context, gameID string) ([]string, error) {
	return c.rdb.SMembers(ctx, readyKey(gameID)).Result()
}

// phaseGracePeriod is the extra time after the displayed deadline before
// default substitution triggers, giving players a few seconds of leeway.
const phaseGracePeriod = 5 * time.Second

// SetTimer creates a timer key with a TTL. When the key expires, Redis
// keyspace notifications trigger default substitution for the non-responders.
// The TTL includes a grace period so the key expires slightly after the
// displayed deadline.
func (c *Client) SetTimer(ctx context.Context, gameID string, deadline time.Time) error {
	ttl := time.Until(deadline) + phaseGracePeriod
	if ttl <= 0 {
		ttl = time.Second
	}
	return c.rdb.Set(ctx, timerKey(gameID), deadline.Unix(), ttl).Err()
}

// ClearTimer removes the timer for a game.
func (c *Client) ClearTimer(ctx context.Context, gameID string) error {
	return c.rdb.Del(ctx, timerKey(gameID)).Err()
}

// ClearPhaseData removes all responses, ready status, and timer for a game.
// Called after phase resolution to prepare for the next phase.
func (c *Client) ClearPhaseData(ctx context.Context, gameID string, factions []string) error {
	keys := []string{readyKey(gameID), timerKey(gameID), phaseKey(gameID)}
	for _, faction := range factions {
		keys = append(keys, responseKey(gameID, faction))
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// DeleteGameData removes all Redis data for a game (on game end).
func (c *Client) DeleteGameData(ctx context.Context, gameID string, factions []string) error {
	keys := []string{stateKey(gameID), phaseKey(gameID), readyKey(gameID), timerKey(gameID)}
	for _, faction := range factions {
		keys = append(keys, responseKey(gameID, faction))
	}
	return c.rdb.Del(ctx, keys...).Err()
}
