package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-tracker-api/internal/database/dbtest"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/optional"
	"gorm.io/gorm"
)

type recordingReleaser struct {
	released []string
	err      error
}

func (r *recordingReleaser) Release(_ context.Context, assetID string) error {
	r.released = append(r.released, assetID)
	return r.err
}

type fixture struct {
	db       *gorm.DB
	engine   *Engine
	assets   *recordingReleaser
	users    UserRepository
	groups   GroupRepository
	projects ProjectRepository
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	db := dbtest.Open(t)
	assets := &recordingReleaser{}

	return fixture{
		db:       db,
		engine:   NewEngine(db, assets, zerolog.Nop()),
		assets:   assets,
		users:    NewUserRepository(db),
		groups:   NewGroupRepository(db),
		projects: NewProjectRepository(db),
	}
}

func ptr[T any](v T) *T {
	return &v
}

func (f fixture) user(t *testing.T, username string, groupID *uint64) *models.User {
	t.Helper()
	u := &models.User{Username: username, Password: "hash", GroupID: groupID}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f fixture) group(t *testing.T, name string, adminID *uint64) *models.Group {
	t.Helper()
	g := &models.Group{Name: name, AdminID: adminID}
	require.NoError(t, f.groups.Create(context.Background(), g))
	return g
}

func (f fixture) project(t *testing.T, title string, groupID, creatorID uint64, status int64) *models.Project {
	t.Helper()
	p := &models.Project{Title: title, GroupID: groupID, CreatorID: creatorID, Status: status}
	require.NoError(t, f.projects.Create(context.Background(), p))
	return p
}

func TestEngine_Update_OnlySubmittedFieldsChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.user(t, "owner", nil)
	g := f.group(t, "Platform", &owner.ID)
	p := &models.Project{Title: "Roadmap", GroupID: g.ID, CreatorID: owner.ID, Status: 2, Description: ptr("first draft")}
	require.NoError(t, f.projects.Create(ctx, p))

	var updated models.Project
	err := f.engine.Update(ctx, NewChanges(TableProjects).
		Set(ColumnTitle, optional.Of("Roadmap 2027")).
		Set(ColumnStatus, optional.Absent[int64]()).
		Set(ColumnDescription, optional.Absent[string]()), p.ID, &updated)
	require.NoError(t, err)

	assert.Equal(t, "Roadmap 2027", updated.Title)
	assert.Equal(t, int64(2), updated.Status)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "first draft", *updated.Description)
	assert.Equal(t, p.DateCreated.Unix(), updated.DateCreated.Unix())

	reread, err := f.projects.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Title, reread.Title)
}

func TestEngine_Update_FalseAndZeroArePresent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := &models.User{Username: "admin", Password: "hash", IsAdmin: true}
	require.NoError(t, f.users.Create(ctx, u))

	var updated models.User
	err := f.engine.Update(ctx, NewChanges(TableUsers).Set(ColumnIsAdmin, optional.Of(false)), u.ID, &updated)
	require.NoError(t, err)
	assert.False(t, updated.IsAdmin)
}

func TestEngine_Update_NoChangesLeavesRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := f.user(t, "alice", nil)

	var updated models.User
	err := f.engine.Update(ctx, NewChanges(TableUsers), u.ID, &updated)
	assert.ErrorIs(t, err, ErrNoChanges)

	reread, err := f.users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", reread.Username)
}

func TestEngine_Update_MissingRow(t *testing.T) {
	f := newFixture(t)

	var updated models.Group
	err := f.engine.Update(context.Background(), NewChanges(TableGroups).Set(ColumnName, optional.Of("Ops")), 404, &updated)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestEngine_Update_ReleasesPreviousAvatar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := &models.User{Username: "alice", Password: "hash", Avatar: ptr("avatars/old.png")}
	require.NoError(t, f.users.Create(ctx, u))

	var updated models.User
	err := f.engine.Update(ctx, NewChanges(TableUsers).Set(ColumnAvatar, optional.Of("avatars/new.png")), u.ID, &updated)
	require.NoError(t, err)

	assert.Equal(t, []string{"avatars/old.png"}, f.assets.released)
	require.NotNil(t, updated.Avatar)
	assert.Equal(t, "avatars/new.png", *updated.Avatar)
}

func TestEngine_Update_ReleaseFailureDoesNotAbort(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.assets.err = errors.New("bucket unavailable")

	u := &models.User{Username: "alice", Password: "hash", Avatar: ptr("avatars/old.png")}
	require.NoError(t, f.users.Create(ctx, u))

	var updated models.User
	err := f.engine.Update(ctx, NewChanges(TableUsers).Set(ColumnAvatar, optional.Of("avatars/new.png")), u.ID, &updated)
	require.NoError(t, err)
	assert.Equal(t, "avatars/new.png", *updated.Avatar)
}

func TestEngine_Update_NoAvatarNothingReleased(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := f.user(t, "alice", nil)

	var updated models.User
	err := f.engine.Update(ctx, NewChanges(TableUsers).Set(ColumnAvatar, optional.Of("avatars/new.png")), u.ID, &updated)
	require.NoError(t, err)
	assert.Empty(t, f.assets.released)
}

func TestEngine_List_FiltersAreConjunctive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := f.user(t, "owner", nil)
	g1 := f.group(t, "One", &u.ID)
	g2 := f.group(t, "Two", &u.ID)

	match := f.project(t, "match", g2.ID, u.ID, 1)
	f.project(t, "wrong status", g2.ID, u.ID, 3)
	f.project(t, "wrong group", g1.ID, u.ID, 1)

	var projects []models.Project
	err := f.engine.List(ctx, NewFilter(TableProjects).
		Where(ColumnStatus, optional.Parse[int64]("1")).
		Where(ColumnGroupID, optional.Parse[int64](fmt.Sprint(g2.ID))).
		Where(ColumnAssignedID, optional.Parse[int64]("")), 1, &projects)
	require.NoError(t, err)

	require.Len(t, projects, 1)
	assert.Equal(t, match.ID, projects[0].ID)
}

func TestEngine_List_ZeroStatusMatches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := f.user(t, "owner", nil)
	g := f.group(t, "One", &u.ID)
	fresh := f.project(t, "fresh", g.ID, u.ID, 0)
	f.project(t, "started", g.ID, u.ID, 2)

	var projects []models.Project
	err := f.engine.List(ctx, NewFilter(TableProjects).Where(ColumnStatus, optional.Parse[int64]("0")), 0, &projects)
	require.NoError(t, err)

	require.Len(t, projects, 1)
	assert.Equal(t, fresh.ID, projects[0].ID)
}

func TestEngine_List_Pagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := f.user(t, "owner", nil)
	g := f.group(t, "One", &u.ID)
	for i := range 15 {
		f.project(t, fmt.Sprintf("project %02d", i), g.ID, u.ID, 0)
	}

	var first, zero, second, third []models.Project
	require.NoError(t, f.engine.List(ctx, NewFilter(TableProjects), 1, &first))
	require.NoError(t, f.engine.List(ctx, NewFilter(TableProjects), 0, &zero))
	require.NoError(t, f.engine.List(ctx, NewFilter(TableProjects), 2, &second))
	require.NoError(t, f.engine.List(ctx, NewFilter(TableProjects), 3, &third))

	assert.Len(t, first, 10)
	assert.Equal(t, first, zero)
	assert.Len(t, second, 5)
	assert.Empty(t, third)
	assert.Less(t, first[9].ID, second[0].ID)
}

func TestEngine_List_InvalidValueRunsNoQuery(t *testing.T) {
	f := newFixture(t)

	var projects []models.Project
	err := f.engine.List(context.Background(), NewFilter(TableProjects).Where(ColumnStatus, optional.Parse[int64]("done")), 1, &projects)
	assert.ErrorIs(t, err, ErrInvalidValue)
	assert.Nil(t, projects)
}

func TestEngine_List_UnknownColumn(t *testing.T) {
	f := newFixture(t)

	var users []models.User
	err := f.engine.List(context.Background(), NewFilter(TableUsers).Where(ColumnPassword, optional.Of("x")), 1, &users)
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestUserRepository_DeleteClearsReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.user(t, "admin", nil)
	g := f.group(t, "One", &admin.ID)
	p := &models.Project{Title: "Roadmap", GroupID: g.ID, CreatorID: admin.ID, AssignedID: &admin.ID}
	require.NoError(t, f.projects.Create(ctx, p))

	require.NoError(t, f.users.Delete(ctx, admin.ID))

	_, err := f.users.FindByID(ctx, admin.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	reread, err := f.projects.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, reread.AssignedID)
	assert.Equal(t, admin.ID, reread.CreatorID)

	group, err := f.groups.FindByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Nil(t, group.AdminID)

	assert.ErrorIs(t, f.users.Delete(ctx, admin.ID), gorm.ErrRecordNotFound)
}

func TestGroupRepository_DeleteRefusedWhileProjectsExist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.user(t, "admin", nil)
	g := f.group(t, "One", &admin.ID)
	member := f.user(t, "member", &g.ID)
	p := f.project(t, "Roadmap", g.ID, admin.ID, 0)

	assert.ErrorIs(t, f.groups.Delete(ctx, g.ID), ErrGroupInUse)

	require.NoError(t, f.projects.Delete(ctx, p.ID))
	require.NoError(t, f.groups.Delete(ctx, g.ID))

	reread, err := f.users.FindByID(ctx, member.ID)
	require.NoError(t, err)
	assert.Nil(t, reread.GroupID)

	exists, err := f.groups.Exists(ctx, g.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	assert.ErrorIs(t, f.groups.Delete(ctx, g.ID), gorm.ErrRecordNotFound)
}
