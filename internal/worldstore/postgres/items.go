package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/textworld/internal/game/inventory"
)

var ErrItemNotFound = errors.New("item not found")

// ItemRepository provides item persistence.
type ItemRepository struct {
	db *pgxpool.Pool
}

func NewItemRepository(db *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{db: db}
}

const itemColumns = `id, name, description, type, damage, defense, healing,
	room_id, character_id, is_equipped`

func scanItem(row pgx.Row) (*inventory.Item, error) {
	var it inventory.Item
	var itemType string
	var roomID, characterID *string
	err := row.Scan(
		&it.ID, &it.Name, &it.Description, &itemType,
		&it.Stats.Damage, &it.Stats.Defense, &it.Stats.Healing,
		&roomID, &characterID, &it.IsEquipped,
	)
	if err != nil {
		return nil, err
	}
	it.Type = inventory.ItemType(itemType)
	if roomID != nil {
		it.RoomID = *roomID
	}
	if characterID != nil {
		it.CharacterID = *characterID
	}
	return &it, nil
}

func (r *ItemRepository) Get(ctx context.Context, id string) (*inventory.Item, error) {
	row := r.db.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id)
	it, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("querying item %s: %w", id, err)
	}
	return it, nil
}

func (r *ItemRepository) ListByRoom(ctx context.Context, roomID string) ([]*inventory.Item, error) {
	return r.listWhere(ctx, `room_id = $1`, roomID)
}

func (r *ItemRepository) ListByCharacter(ctx context.Context, characterID string) ([]*inventory.Item, error) {
	return r.listWhere(ctx, `character_id = $1`, characterID)
}

func (r *ItemRepository) listWhere(ctx context.Context, where string, arg string) ([]*inventory.Item, error) {
	rows, err := r.db.Query(ctx, `SELECT `+itemColumns+` FROM items WHERE `+where+` ORDER BY id`, arg)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var out []*inventory.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item row: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *ItemRepository) Save(ctx context.Context, it *inventory.Item) error {
	if err := it.Validate(); err != nil {
		return err
	}
	var roomID, characterID *string
	if it.RoomID != "" {
		roomID = &it.RoomID
	}
	if it.CharacterID != "" {
		characterID = &it.CharacterID
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO items (`+itemColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, description = EXCLUDED.description, type = EXCLUDED.type,
			damage = EXCLUDED.damage, defense = EXCLUDED.defense, healing = EXCLUDED.healing,
			room_id = EXCLUDED.room_id, character_id = EXCLUDED.character_id,
			is_equipped = EXCLUDED.is_equipped`,
		it.ID, it.Name, it.Description, string(it.Type),
		it.Stats.Damage, it.Stats.Defense, it.Stats.Healing,
		roomID, characterID, it.IsEquipped,
	)
	if err != nil {
		return fmt.Errorf("saving item %s: %w", it.ID, err)
	}
	return nil
}

func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM items WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting item %s: %w", id, err)
	}
	return nil
}
