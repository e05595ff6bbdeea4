package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yukikurage/project-tracker-api/internal/metrics"
	"gorm.io/gorm"
)

var (
	// ErrNoChanges is returned when an update carries no present value.
	ErrNoChanges = errors.New("no changes to apply")
	// ErrUnknownColumn is returned for a column outside a table's allow-list.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrUnknownTable is returned for a table the engines do not manage.
	ErrUnknownTable = errors.New("unknown table")
	// ErrInvalidValue is returned for a present value that failed coercion.
	ErrInvalidValue = errors.New("invalid value")
)

// Presence is implemented by optional request values.
type Presence interface {
	Present() bool
	Any() any
	Err() error
}

// AssetReleaser frees externally hosted assets referenced by a row.
type AssetReleaser interface {
	Release(ctx context.Context, assetID string) error
}

type assignment struct {
	column Column
	value  any
}

// Changes is the set of column assignments for one conditional update.
// Absent values are skipped, so 0, false and "" are applied like any other
// present value.
type Changes struct {
	table       Table
	assignments []assignment
	err         error
}

// NewChanges starts an empty change set for table.
func NewChanges(table Table) *Changes {
	return &Changes{table: table}
}

// Set records column = v when v is present. The first error sticks.
func (c *Changes) Set(column Column, v Presence) *Changes {
	if c.err != nil {
		return c
	}
	if !c.table.allows(updatable, column) {
		c.err = fmt.Errorf("%w: %s.%s", ErrUnknownColumn, c.table, column)
		return c
	}
	if !v.Present() {
		return c
	}
	if err := v.Err(); err != nil {
		c.err = fmt.Errorf("%w: %s: %v", ErrInvalidValue, column, err)
		return c
	}
	c.assignments = append(c.assignments, assignment{column: column, value: v.Any()})
	return c
}

// Table returns the table the changes apply to.
func (c *Changes) Table() Table {
	return c.table
}

// Columns returns the assigned columns in the order they were set.
func (c *Changes) Columns() []Column {
	cols := make([]Column, len(c.assignments))
	for i, a := range c.assignments {
		cols[i] = a.column
	}
	return cols
}

// Has reports whether column is assigned.
func (c *Changes) Has(column Column) bool {
	for _, a := range c.assignments {
		if a.column == column {
			return true
		}
	}
	return false
}

// Empty reports whether no present value was recorded.
func (c *Changes) Empty() bool {
	return len(c.assignments) == 0
}

// Err returns the first error recorded by Set.
func (c *Changes) Err() error {
	return c.err
}

func (c *Changes) values() map[string]any {
	out := make(map[string]any, len(c.assignments))
	for _, a := range c.assignments {
		out[string(a.column)] = a.value
	}
	return out
}

// Engine runs conditional updates and filtered list queries over the
// managed tables.
type Engine struct {
	db     *gorm.DB
	assets AssetReleaser
	log    zerolog.Logger
}

// NewEngine creates an Engine. assets may be nil when no asset store is used.
func NewEngine(db *gorm.DB, assets AssetReleaser, log zerolog.Logger) *Engine {
	return &Engine{
		db:     db,
		assets: assets,
		log:    log.With().Str("component", "engine").Logger(),
	}
}

// Update applies changes to the row with the given id and reads the updated
// row into dest, which must point to the table's model.
//
// It returns ErrNoChanges when nothing is present, without touching the
// database, and gorm.ErrRecordNotFound when no row has that id.
func (e *Engine) Update(ctx context.Context, changes *Changes, id uint64, dest any) error {
	err := e.update(ctx, changes, id, dest)
	record(changes.table, "update", err)
	return err
}

func (e *Engine) update(ctx context.Context, changes *Changes, id uint64, dest any) error {
	if err := changes.Err(); err != nil {
		return err
	}
	model, ok := changes.table.model()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTable, changes.table)
	}
	if changes.Empty() {
		return ErrNoChanges
	}

	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if changes.table == TableUsers && changes.Has(ColumnAvatar) {
			if err := e.releaseAvatar(ctx, tx, id); err != nil {
				return err
			}
		}

		result := tx.Model(model).Where("id = ?", id).Updates(changes.values())
		if result.Error != nil {
			return fmt.Errorf("failed to update %s: %w", changes.table, result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := tx.First(dest, id).Error; err != nil {
			return fmt.Errorf("failed to read updated %s: %w", changes.table, err)
		}
		return nil
	})
}

func record(table Table, operation string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrNoChanges):
		result = "noop"
	case errors.Is(err, gorm.ErrRecordNotFound):
		result = "not_found"
	case errors.Is(err, ErrUnknownColumn), errors.Is(err, ErrUnknownTable), errors.Is(err, ErrInvalidValue):
		result = "invalid"
	default:
		result = "error"
	}
	metrics.EngineOperationsTotal.WithLabelValues(string(table), operation, result).Inc()
}

// releaseAvatar frees the asset currently referenced by the user. Failing to
// release is logged and ignored.
func (e *Engine) releaseAvatar(ctx context.Context, tx *gorm.DB, userID uint64) error {
	var avatars []*string
	if err := tx.Table(string(TableUsers)).Where("id = ?", userID).Pluck(string(ColumnAvatar), &avatars).Error; err != nil {
		return fmt.Errorf("failed to read previous avatar: %w", err)
	}
	if len(avatars) == 0 {
		return gorm.ErrRecordNotFound
	}
	prev := avatars[0]
	if prev == nil || *prev == "" || e.assets == nil {
		return nil
	}

	if err := e.assets.Release(ctx, *prev); err != nil {
		e.log.Warn().Err(err).Uint64("user_id", userID).Str("asset", *prev).Msg("failed to release previous avatar")
	}
	return nil
}
