package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/textworld/internal/worldstore"
)

var ErrAIAgentNotFound = errors.New("ai agent not found")

// AIAgentRepository provides AI Agent persistence, with relationships and
// conversation history stored as JSON columns per the Design Note in
// spec.md §9.
type AIAgentRepository struct {
	db *pgxpool.Pool
}

func NewAIAgentRepository(db *pgxpool.Pool) *AIAgentRepository {
	return &AIAgentRepository{db: db}
}

const agentColumns = `id, character_id, system_prompt, home_room_id, max_rooms_from_home,
	spatial_memory, spatial_memory_updated_at, relationships, conversation_history,
	last_action_at, cooldown_seconds`

func scanAgent(row pgx.Row) (*worldstore.AIAgent, error) {
	var a worldstore.AIAgent
	var relJSON, convJSON []byte
	var cooldownSeconds int64
	err := row.Scan(
		&a.ID, &a.CharacterID, &a.SystemPrompt, &a.HomeRoomID, &a.MaxRoomsFromHome,
		&a.SpatialMemory, &a.SpatialMemoryUpdatedAt, &relJSON, &convJSON,
		&a.LastActionAt, &cooldownSeconds,
	)
	if err != nil {
		return nil, err
	}
	a.Cooldown = secondsToDuration(cooldownSeconds)
	if len(relJSON) > 0 {
		if err := json.Unmarshal(relJSON, &a.Relationships); err != nil {
			return nil, fmt.Errorf("decoding relationships for agent %s: %w", a.ID, err)
		}
	}
	if len(convJSON) > 0 {
		if err := json.Unmarshal(convJSON, &a.ConversationHistory); err != nil {
			return nil, fmt.Errorf("decoding conversation history for agent %s: %w", a.ID, err)
		}
	}
	return &a, nil
}

func (r *AIAgentRepository) Get(ctx context.Context, id string) (*worldstore.AIAgent, error) {
	row := r.db.QueryRow(ctx, `SELECT `+agentColumns+` FROM ai_agents WHERE id = $1`, id)
	a, err := scanAgent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAIAgentNotFound
		}
		return nil, fmt.Errorf("querying ai agent %s: %w", id, err)
	}
	return a, nil
}

func (r *AIAgentRepository) GetByCharacterID(ctx context.Context, characterID string) (*worldstore.AIAgent, error) {
	row := r.db.QueryRow(ctx, `SELECT `+agentColumns+` FROM ai_agents WHERE character_id = $1`, characterID)
	a, err := scanAgent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAIAgentNotFound
		}
		return nil, fmt.Errorf("querying ai agent for character %s: %w", characterID, err)
	}
	return a, nil
}

func (r *AIAgentRepository) List(ctx context.Context) ([]*worldstore.AIAgent, error) {
	rows, err := r.db.Query(ctx, `SELECT `+agentColumns+` FROM ai_agents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing ai agents: %w", err)
	}
	defer rows.Close()

	var out []*worldstore.AIAgent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning ai agent row: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AIAgentRepository) Save(ctx context.Context, a *worldstore.AIAgent) error {
	relJSON, err := json.Marshal(a.Relationships)
	if err != nil {
		return fmt.Errorf("marshalling relationships for agent %s: %w", a.ID, err)
	}
	convJSON, err := json.Marshal(a.ConversationHistory)
	if err != nil {
		return fmt.Errorf("marshalling conversation history for agent %s: %w", a.ID, err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO ai_agents (`+agentColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO UPDATE SET
			system_prompt = EXCLUDED.system_prompt, home_room_id = EXCLUDED.home_room_id,
			max_rooms_from_home = EXCLUDED.max_rooms_from_home,
			spatial_memory = EXCLUDED.spatial_memory,
			spatial_memory_updated_at = EXCLUDED.spatial_memory_updated_at,
			relationships = EXCLUDED.relationships, conversation_history = EXCLUDED.conversation_history,
			last_action_at = EXCLUDED.last_action_at, cooldown_seconds = EXCLUDED.cooldown_seconds`,
		a.ID, a.CharacterID, a.SystemPrompt, a.HomeRoomID, a.MaxRoomsFromHome,
		a.SpatialMemory, a.SpatialMemoryUpdatedAt, relJSON, convJSON,
		a.LastActionAt, durationToSeconds(a.Cooldown),
	)
	if err != nil {
		return fmt.Errorf("saving ai agent %s: %w", a.ID, err)
	}
	return nil
}
