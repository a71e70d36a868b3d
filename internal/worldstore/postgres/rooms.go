package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/textworld/internal/game/world"
)

// ErrRoomNotFound is returned when a room lookup yields no results.
var ErrRoomNotFound = errors.New("room not found")

// RoomRepository provides room persistence, adapted from the teacher's
// CharacterRepository query/scan style. Exits are stored as a JSON column
// and decoded into a typed map at the repository boundary (Design Note,
// spec.md §9) — callers never see a raw map[string]any.
type RoomRepository struct {
	db *pgxpool.Pool
}

// NewRoomRepository creates a RoomRepository backed by the given pool.
func NewRoomRepository(db *pgxpool.Pool) *RoomRepository {
	return &RoomRepository{db: db}
}

func (r *RoomRepository) Get(ctx context.Context, id string) (*world.Room, error) {
	var name, description string
	var isStarting bool
	var exitsJSON []byte
	err := r.db.QueryRow(ctx, `
		SELECT name, description, exits, is_starting FROM rooms WHERE id = $1`,
		id,
	).Scan(&name, &description, &exitsJSON, &isStarting)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("querying room %s: %w", id, err)
	}
	return decodeRoom(id, name, description, isStarting, exitsJSON)
}

func (r *RoomRepository) List(ctx context.Context) ([]*world.Room, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, description, exits, is_starting FROM rooms ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing rooms: %w", err)
	}
	defer rows.Close()

	var out []*world.Room
	for rows.Next() {
		var id, name, description string
		var isStarting bool
		var exitsJSON []byte
		if err := rows.Scan(&id, &name, &description, &exitsJSON, &isStarting); err != nil {
			return nil, fmt.Errorf("scanning room row: %w", err)
		}
		room, err := decodeRoom(id, name, description, isStarting, exitsJSON)
		if err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	return out, rows.Err()
}

func (r *RoomRepository) Save(ctx context.Context, room *world.Room) error {
	if err := room.Validate(); err != nil {
		return err
	}
	exits := make(map[string]string, len(room.Exits))
	for dir, target := range room.Exits {
		exits[string(dir)] = target
	}
	exitsJSON, err := json.Marshal(exits)
	if err != nil {
		return fmt.Errorf("marshalling exits for room %s: %w", room.ID, err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO rooms (id, name, description, exits, is_starting)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, description = EXCLUDED.description,
			exits = EXCLUDED.exits, is_starting = EXCLUDED.is_starting`,
		room.ID, room.Name, room.Description, exitsJSON, room.IsStarting,
	)
	if err != nil {
		return fmt.Errorf("saving room %s: %w", room.ID, err)
	}
	return nil
}

func (r *RoomRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting room %s: %w", id, err)
	}
	return nil
}

func decodeRoom(id, name, description string, isStarting bool, exitsJSON []byte) (*world.Room, error) {
	var rawExits map[string]string
	if len(exitsJSON) > 0 {
		if err := json.Unmarshal(exitsJSON, &rawExits); err != nil {
			return nil, fmt.Errorf("decoding exits for room %s: %w", id, err)
		}
	}
	room := world.NewRoom(id, name, description)
	room.IsStarting = isStarting
	for dir, target := range rawExits {
		room.Exits[world.Direction(dir)] = target
	}
	return room, nil
}
