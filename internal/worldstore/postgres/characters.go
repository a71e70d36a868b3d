package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/textworld/internal/game/character"
)

// ErrCharacterNotFound is returned when a character lookup yields no results.
var ErrCharacterNotFound = errors.New("character not found")

// CharacterRepository provides character persistence, adapted from the
// teacher's storage/postgres/character.go.
type CharacterRepository struct {
	db *pgxpool.Pool
}

func NewCharacterRepository(db *pgxpool.Pool) *CharacterRepository {
	return &CharacterRepository{db: db}
}

const characterColumns = `id, name, description, account_id, current_room_id, spawn_point_id,
	hp, max_hp, attack, defense, speed, is_alive, is_dead, died_at, last_action_at,
	created_at, role`

func scanCharacter(row pgx.Row) (*character.Character, error) {
	var c character.Character
	var diedAt *time.Time
	err := row.Scan(
		&c.ID, &c.Name, &c.Description, &c.AccountID, &c.CurrentRoomID, &c.SpawnPointID,
		&c.HP, &c.MaxHP, &c.Attack, &c.Defense, &c.Speed, &c.IsAlive, &c.IsDead, &diedAt,
		&c.LastActionAt, &c.CreatedAt, &c.Role,
	)
	if err != nil {
		return nil, err
	}
	c.DiedAt = diedAt
	return &c, nil
}

func (r *CharacterRepository) Get(ctx context.Context, id string) (*character.Character, error) {
	row := r.db.QueryRow(ctx, `SELECT `+characterColumns+` FROM characters WHERE id = $1`, id)
	c, err := scanCharacter(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCharacterNotFound
		}
		return nil, fmt.Errorf("querying character %s: %w", id, err)
	}
	return c, nil
}

func (r *CharacterRepository) List(ctx context.Context) ([]*character.Character, error) {
	rows, err := r.db.Query(ctx, `SELECT `+characterColumns+` FROM characters ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing characters: %w", err)
	}
	defer rows.Close()

	var out []*character.Character
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning character row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CharacterRepository) Save(ctx context.Context, c *character.Character) error {
	if err := c.Validate(); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO characters (`+characterColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, description = EXCLUDED.description,
			account_id = EXCLUDED.account_id, current_room_id = EXCLUDED.current_room_id,
			spawn_point_id = EXCLUDED.spawn_point_id, hp = EXCLUDED.hp, max_hp = EXCLUDED.max_hp,
			attack = EXCLUDED.attack, defense = EXCLUDED.defense, speed = EXCLUDED.speed,
			is_alive = EXCLUDED.is_alive, is_dead = EXCLUDED.is_dead, died_at = EXCLUDED.died_at,
			last_action_at = EXCLUDED.last_action_at, role = EXCLUDED.role`,
		c.ID, c.Name, c.Description, c.AccountID, c.CurrentRoomID, c.SpawnPointID,
		c.HP, c.MaxHP, c.Attack, c.Defense, c.Speed, c.IsAlive, c.IsDead, c.DiedAt,
		c.LastActionAt, c.CreatedAt, c.Role,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("character %s: %w", c.ID, errors.New("duplicate id"))
		}
		return fmt.Errorf("saving character %s: %w", c.ID, err)
	}
	return nil
}

func (r *CharacterRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM characters WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting character %s: %w", id, err)
	}
	return nil
}
