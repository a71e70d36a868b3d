package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/textworld/internal/worldstore"
)

// PlayerLogRepository persists the append-only per-character narrative trace.
type PlayerLogRepository struct {
	db *pgxpool.Pool
}

func NewPlayerLogRepository(db *pgxpool.Pool) *PlayerLogRepository {
	return &PlayerLogRepository{db: db}
}

func (r *PlayerLogRepository) Append(ctx context.Context, log *worldstore.PlayerLog) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO player_logs (character_id, kind, payload, timestamp)
		VALUES ($1,$2,$3,$4)`,
		log.CharacterID, string(log.Kind), log.Payload, log.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("appending player log for %s: %w", log.CharacterID, err)
	}
	return nil
}

func (r *PlayerLogRepository) ListByCharacter(ctx context.Context, characterID string, limit int) ([]*worldstore.PlayerLog, error) {
	query := `SELECT character_id, kind, payload, timestamp FROM player_logs
		WHERE character_id = $1 ORDER BY timestamp DESC`
	args := []any{characterID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing player logs for %s: %w", characterID, err)
	}
	defer rows.Close()

	var out []*worldstore.PlayerLog
	for rows.Next() {
		var l worldstore.PlayerLog
		var kind string
		if err := rows.Scan(&l.CharacterID, &kind, &l.Payload, &l.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning player log row: %w", err)
		}
		l.Kind = worldstore.PlayerLogKind(kind)
		out = append(out, &l)
	}
	return out, rows.Err()
}

// TokenUsageRepository persists oracle call billing records.
type TokenUsageRepository struct {
	db *pgxpool.Pool
}

func NewTokenUsageRepository(db *pgxpool.Pool) *TokenUsageRepository {
	return &TokenUsageRepository{db: db}
}

func (r *TokenUsageRepository) Append(ctx context.Context, log *worldstore.TokenUsageLog) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO token_usage_logs
			(id, model, provider, prompt_tokens, completion_tokens, total_tokens,
			 cost, source, agent_id, source_event_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		log.ID, log.Model, log.Provider, log.PromptTokens, log.CompletionTokens, log.TotalTokens,
		log.Cost, string(log.Source), log.AgentID, log.SourceEventID, log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("appending token usage log %s: %w", log.ID, err)
	}
	return nil
}

func (r *TokenUsageRepository) ListByAgent(ctx context.Context, agentID string, limit int) ([]*worldstore.TokenUsageLog, error) {
	query := `SELECT id, model, provider, prompt_tokens, completion_tokens, total_tokens,
		cost, source, agent_id, source_event_id, created_at
		FROM token_usage_logs WHERE agent_id = $1 ORDER BY created_at DESC`
	args := []any{agentID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing token usage for agent %s: %w", agentID, err)
	}
	defer rows.Close()

	var out []*worldstore.TokenUsageLog
	for rows.Next() {
		var l worldstore.TokenUsageLog
		var source string
		if err := rows.Scan(&l.ID, &l.Model, &l.Provider, &l.PromptTokens, &l.CompletionTokens,
			&l.TotalTokens, &l.Cost, &source, &l.AgentID, &l.SourceEventID, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning token usage row: %w", err)
		}
		l.Source = worldstore.TokenUsageSource(source)
		out = append(out, &l)
	}
	return out, rows.Err()
}

// PreferenceRepository persists per-account preference key/value pairs as a
// single JSONB column.
type PreferenceRepository struct {
	db *pgxpool.Pool
}

func NewPreferenceRepository(db *pgxpool.Pool) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

func (r *PreferenceRepository) Get(ctx context.Context, accountID string) (map[string]string, error) {
	var prefsJSON []byte
	err := r.db.QueryRow(ctx, `SELECT preferences FROM accounts WHERE id = $1`, accountID).Scan(&prefsJSON)
	if err != nil {
		return nil, fmt.Errorf("querying preferences for %s: %w", accountID, err)
	}
	prefs := map[string]string{}
	if len(prefsJSON) > 0 {
		if err := jsonUnmarshal(prefsJSON, &prefs); err != nil {
			return nil, fmt.Errorf("decoding preferences for %s: %w", accountID, err)
		}
	}
	return prefs, nil
}

func (r *PreferenceRepository) Set(ctx context.Context, accountID string, prefs map[string]string) error {
	prefsJSON, err := jsonMarshal(prefs)
	if err != nil {
		return fmt.Errorf("marshalling preferences for %s: %w", accountID, err)
	}
	_, err = r.db.Exec(ctx, `UPDATE accounts SET preferences = $2 WHERE id = $1`, accountID, prefsJSON)
	if err != nil {
		return fmt.Errorf("saving preferences for %s: %w", accountID, err)
	}
	return nil
}

// GameStateRepository persists the simulation clock across restarts.
type GameStateRepository struct {
	db *pgxpool.Pool
}

func NewGameStateRepository(db *pgxpool.Pool) *GameStateRepository {
	return &GameStateRepository{db: db}
}

func (r *GameStateRepository) Load(ctx context.Context) (worldstore.GameState, error) {
	var state worldstore.GameState
	err := r.db.QueryRow(ctx, `SELECT is_paused, game_time FROM game_state WHERE id = 1`).
		Scan(&state.IsPaused, &state.GameTime)
	if err != nil {
		return worldstore.GameState{}, fmt.Errorf("loading game state: %w", err)
	}
	return state, nil
}

func (r *GameStateRepository) Save(ctx context.Context, state worldstore.GameState) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO game_state (id, is_paused, game_time) VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET is_paused = EXCLUDED.is_paused, game_time = EXCLUDED.game_time`,
		state.IsPaused, state.GameTime,
	)
	if err != nil {
		return fmt.Errorf("saving game state: %w", err)
	}
	return nil
}

// AccountRepository persists Accounts.
type AccountRepository struct {
	db *pgxpool.Pool
}

func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*worldstore.Account, error) {
	var a worldstore.Account
	var prefsJSON []byte
	err := r.db.QueryRow(ctx, `SELECT id, username, created_at, preferences FROM accounts WHERE username = $1`, username).
		Scan(&a.ID, &a.Username, &a.CreatedAt, &prefsJSON)
	if err != nil {
		return nil, fmt.Errorf("querying account %s: %w", username, err)
	}
	if len(prefsJSON) > 0 {
		if err := jsonUnmarshal(prefsJSON, &a.Preferences); err != nil {
			return nil, fmt.Errorf("decoding preferences for %s: %w", username, err)
		}
	}
	return &a, nil
}

func (r *AccountRepository) Save(ctx context.Context, a *worldstore.Account) error {
	prefsJSON, err := jsonMarshal(a.Preferences)
	if err != nil {
		return fmt.Errorf("marshalling preferences for %s: %w", a.Username, err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO accounts (id, username, created_at, preferences) VALUES ($1,$2,$3,$4)
		ON CONFLICT (id) DO UPDATE SET preferences = EXCLUDED.preferences`,
		a.ID, a.Username, a.CreatedAt, prefsJSON,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("account username %s already taken", a.Username)
		}
		return fmt.Errorf("saving account %s: %w", a.Username, err)
	}
	return nil
}
