package repository

import (
	"slices"

	"github.com/yukikurage/project-tracker-api/internal/models"
)

// Table is one of the tables the engines may touch.
type Table string

const (
	TableUsers    Table = "users"
	TableProjects Table = "projects"
	TableGroups   Table = "groups"
)

// Column is a column identifier known at compile time. Request keys are
// never used as column names.
type Column string

const (
	ColumnID          Column = "id"
	ColumnUsername    Column = "username"
	ColumnPassword    Column = "password"
	ColumnIsAdmin     Column = "isadmin"
	ColumnAvatar      Column = "avatar"
	ColumnGroupID     Column = "group_id"
	ColumnCreatorID   Column = "creator_id"
	ColumnAssignedID  Column = "assigned_id"
	ColumnTitle       Column = "title"
	ColumnStatus      Column = "status"
	ColumnDescription Column = "description"
	ColumnName        Column = "name"
	ColumnAdminID     Column = "admin_id"
)

// updatable lists, per table, the columns a conditional update may set.
var updatable = map[Table][]Column{
	TableUsers:    {ColumnIsAdmin, ColumnUsername, ColumnPassword, ColumnAvatar, ColumnGroupID},
	TableProjects: {ColumnGroupID, ColumnAssignedID, ColumnTitle, ColumnStatus, ColumnDescription},
	TableGroups:   {ColumnName, ColumnAdminID},
}

// filterable lists, per table, the columns a list query may match on.
var filterable = map[Table][]Column{
	TableUsers:    {ColumnGroupID, ColumnIsAdmin, ColumnUsername},
	TableProjects: {ColumnStatus, ColumnGroupID, ColumnAssignedID, ColumnCreatorID},
	TableGroups:   {ColumnAdminID, ColumnName},
}

// Updatable returns the columns of t a conditional update accepts.
func (t Table) Updatable() []Column {
	return slices.Clone(updatable[t])
}

// Filterable returns the columns of t a list query accepts.
func (t Table) Filterable() []Column {
	return slices.Clone(filterable[t])
}

func (t Table) model() (any, bool) {
	switch t {
	case TableUsers:
		return &models.User{}, true
	case TableProjects:
		return &models.Project{}, true
	case TableGroups:
		return &models.Group{}, true
	default:
		return nil, false
	}
}

func (t Table) allows(set map[Table][]Column, c Column) bool {
	return slices.Contains(set[t], c)
}
