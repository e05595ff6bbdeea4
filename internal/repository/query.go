package repository

import (
	"context"
	"fmt"

	"github.com/yukikurage/project-tracker-api/internal/database"
	"github.com/yukikurage/project-tracker-api/internal/utils"
	"gorm.io/gorm/clause"
)

// Filter is a conjunction of equality conditions on one table.
type Filter struct {
	table Table
	conds []clause.Expression
	err   error
}

// NewFilter starts a filter matching every row of table.
func NewFilter(table Table) *Filter {
	return &Filter{table: table}
}

// Where adds column = v when v is present. The first error sticks.
func (f *Filter) Where(column Column, v Presence) *Filter {
	if f.err != nil {
		return f
	}
	if !f.table.allows(filterable, column) {
		f.err = fmt.Errorf("%w: %s.%s", ErrUnknownColumn, f.table, column)
		return f
	}
	if !v.Present() {
		return f
	}
	if err := v.Err(); err != nil {
		f.err = fmt.Errorf("%w: %s: %v", ErrInvalidValue, column, err)
		return f
	}
	f.conds = append(f.conds, clause.Eq{
		Column: clause.Column{Table: string(f.table), Name: string(column)},
		Value:  v.Any(),
	})
	return f
}

// Err returns the first error recorded by Where.
func (f *Filter) Err() error {
	return f.err
}

// List reads one page of rows matching filter into dest, a pointer to a
// slice of the table's model. Rows are ordered by ascending id.
func (e *Engine) List(ctx context.Context, filter *Filter, page int64, dest any) error {
	err := e.list(ctx, filter, page, dest)
	record(filter.table, "list", err)
	return err
}

func (e *Engine) list(ctx context.Context, filter *Filter, page int64, dest any) error {
	if err := filter.Err(); err != nil {
		return err
	}
	model, ok := filter.table.model()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTable, filter.table)
	}

	query := e.db.WithContext(ctx).Model(model)
	for _, cond := range filter.conds {
		query = query.Where(cond)
	}

	err := query.
		Order(clause.OrderByColumn{Column: clause.Column{Table: string(filter.table), Name: string(ColumnID)}}).
		Scopes(database.Paginate(utils.NewPaginationParams(page))).
		Find(dest).Error
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", filter.table, err)
	}
	return nil
}
