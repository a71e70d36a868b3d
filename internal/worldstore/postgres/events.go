package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/textworld/internal/worldstore"
)

// EventRepository provides append-only Game Event persistence.
type EventRepository struct {
	db *pgxpool.Pool
}

func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Append(ctx context.Context, e *worldstore.GameEvent) error {
	dataJSON, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("marshalling event data for %s: %w", e.ID, err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO game_events
			(id, type, timestamp, origin_room_id, visibility, attenuated, content, data)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		e.ID, e.Type, e.Timestamp, e.OriginRoomID, string(e.Visibility), e.Attenuated, e.Content, dataJSON,
	)
	if err != nil {
		return fmt.Errorf("appending event %s: %w", e.ID, err)
	}
	return nil
}

func (r *EventRepository) ListSince(ctx context.Context, since int64, limit int) ([]*worldstore.GameEvent, error) {
	query := `SELECT id, type, timestamp, origin_room_id, visibility, attenuated, content, data
		FROM game_events WHERE timestamp >= $1 ORDER BY timestamp ASC`
	args := []any{time.Unix(since, 0)}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing events since %d: %w", since, err)
	}
	defer rows.Close()

	var out []*worldstore.GameEvent
	for rows.Next() {
		var e worldstore.GameEvent
		var visibility string
		var dataJSON []byte
		if err := rows.Scan(&e.ID, &e.Type, &e.Timestamp, &e.OriginRoomID, &visibility, &e.Attenuated, &e.Content, &dataJSON); err != nil {
			return nil, fmt.Errorf("scanning event row: %w", err)
		}
		e.Visibility = worldstore.EventVisibility(visibility)
		if len(dataJSON) > 0 {
			if err := json.Unmarshal(dataJSON, &e.Data); err != nil {
				return nil, fmt.Errorf("decoding event data for %s: %w", e.ID, err)
			}
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
