package database

import (
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// AddIndexes adds the composite indexes used by the list filters.
// Single-column indexes are declared on the models.
func AddIndexes(db *gorm.DB, log zerolog.Logger) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		{"projects", "idx_projects_group_status", "group_id, status"},
		{"projects", "idx_projects_assigned_status", "assigned_id, status"},
		{"projects", "idx_projects_creator_status", "creator_id, status"},
		{"users", "idx_users_group_admin", "group_id, isadmin"},
	}

	for _, idx := range indexes {
		if db.Migrator().HasIndex(idx.table, idx.name) {
			log.Debug().Str("index", idx.name).Msg("index already exists, skipping")
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info().Str("index", idx.name).Str("table", idx.table).Str("columns", idx.columns).Msg("created index")
	}

	return nil
}
