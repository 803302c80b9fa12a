package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Bam6561/AethelPlugin-sub005/internal/game/attribute"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/entity"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/status"
)

// StateRepository persists entity state: base attributes, equipment and live
// status instances.
type StateRepository struct {
	db *pgxpool.Pool
}

// NewStateRepository creates a StateRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewStateRepository(db *pgxpool.Pool) *StateRepository {
	return &StateRepository{db: db}
}

// Save replaces the stored state of s.ID with s in one transaction.
//
// Postcondition: Load(s.ID) returns s, or a non-nil error is returned and the
// previous state is unchanged.
func (r *StateRepository) Save(ctx context.Context, s entity.State) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning state save: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	equipped := make(map[string]string, len(s.Equipped))
	for slot, id := range s.Equipped {
		equipped[string(slot)] = id
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO entity_state (id, kind, name, base, equipped, saved_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (id) DO UPDATE
		SET kind = EXCLUDED.kind, name = EXCLUDED.name, base = EXCLUDED.base,
		    equipped = EXCLUDED.equipped, saved_at = EXCLUDED.saved_at`,
		s.ID, s.Kind.String(), s.Name, s.Base.Map(), equipped,
	)
	if err != nil {
		return fmt.Errorf("upserting entity state %q: %w", s.ID, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM status_instances WHERE entity_id = $1`, s.ID); err != nil {
		return fmt.Errorf("clearing statuses of %q: %w", s.ID, err)
	}
	if len(s.Statuses) > 0 {
		rows := make([][]any, 0, len(s.Statuses))
		for _, inst := range s.Statuses {
			rows = append(rows, []any{
				s.ID, inst.Type.String(), int64(inst.Stacks), inst.Magnitude,
				int64(inst.RemainingTicks), int64(inst.WindowTicks), inst.Source,
			})
		}
		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"status_instances"},
			[]string{"entity_id", "type", "stacks", "magnitude", "remaining_ticks", "window_ticks", "source"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("copying statuses of %q: %w", s.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing state of %q: %w", s.ID, err)
	}
	return nil
}

// Load returns the stored state of id.
//
// Postcondition: Returns entity.ErrStateNotFound if nothing is stored for id.
func (r *StateRepository) Load(ctx context.Context, id string) (entity.State, error) {
	var (
		kind     string
		base     map[string]float64
		equipped map[string]string
		s        = entity.State{ID: id}
	)
	err := r.db.QueryRow(ctx, `
		SELECT kind, name, base, equipped FROM entity_state WHERE id = $1`, id,
	).Scan(&kind, &s.Name, &base, &equipped)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.State{}, fmt.Errorf("loading %q: %w", id, entity.ErrStateNotFound)
		}
		return entity.State{}, fmt.Errorf("loading %q: %w", id, err)
	}
	if s.Kind, err = entity.ParseKind(kind); err != nil {
		return entity.State{}, fmt.Errorf("loading %q: %w", id, err)
	}
	if s.Base, err = attribute.ParseBase(base); err != nil {
		return entity.State{}, fmt.Errorf("loading %q: %w", id, err)
	}
	s.Equipped = make(map[attribute.Slot]string, len(equipped))
	for slot, item := range equipped {
		s.Equipped[attribute.Slot(slot)] = item
	}

	rows, err := r.db.Query(ctx, `
		SELECT type, stacks, magnitude, remaining_ticks, window_ticks, source
		FROM status_instances WHERE entity_id = $1 ORDER BY type`, id)
	if err != nil {
		return entity.State{}, fmt.Errorf("loading statuses of %q: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			typ                       string
			stacks, remaining, window int64
			inst                      status.Instance
		)
		if err := rows.Scan(&typ, &stacks, &inst.Magnitude, &remaining, &window, &inst.Source); err != nil {
			return entity.State{}, fmt.Errorf("scanning status row of %q: %w", id, err)
		}
		if inst.Type, err = status.ParseType(typ); err != nil {
			return entity.State{}, fmt.Errorf("loading statuses of %q: %w", id, err)
		}
		inst.Stacks = uint32(stacks)
		inst.RemainingTicks = uint32(remaining)
		inst.WindowTicks = uint32(window)
		s.Statuses = append(s.Statuses, inst)
	}
	if err := rows.Err(); err != nil {
		return entity.State{}, fmt.Errorf("reading statuses of %q: %w", id, err)
	}
	sortByType(s.Statuses)
	return s, nil
}

// Delete removes the stored state of id. Deleting absent state is not an error.
func (r *StateRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM entity_state WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting state of %q: %w", id, err)
	}
	return nil
}

// sortByType orders instances by status type; ORDER BY type sorts by name.
func sortByType(insts []status.Instance) {
	sort.Slice(insts, func(i, j int) bool { return insts[i].Type < insts[j].Type })
}
