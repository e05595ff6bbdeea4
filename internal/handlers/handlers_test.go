package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/project-tracker-api/internal/assets"
	"github.com/yukikurage/project-tracker-api/internal/auth"
	"github.com/yukikurage/project-tracker-api/internal/database/dbtest"
	"github.com/yukikurage/project-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/middleware"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"github.com/yukikurage/project-tracker-api/internal/services"
	"github.com/yukikurage/project-tracker-api/pkg/logger"
)

// HandlerTestSuite exercises the handlers behind their middleware.
type HandlerTestSuite struct {
	suite.Suite
	tokens   *auth.TokenManager
	users    repository.UserRepository
	groups   repository.GroupRepository
	projects repository.ProjectRepository
	router   *gin.Engine
}

// SetupTest runs before each test
func (suite *HandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	db := dbtest.Open(suite.T())
	log := logger.Nop()
	store := assets.NopStore{}

	suite.tokens = auth.NewTokenManager("test-secret", time.Hour)
	suite.users = repository.NewUserRepository(db)
	suite.groups = repository.NewGroupRepository(db)
	suite.projects = repository.NewProjectRepository(db)
	engine := repository.NewEngine(db, store, log)

	authHandler := NewAuthHandler(services.NewAuthService(suite.users, suite.tokens))
	userHandler := NewUserHandler(services.NewUserService(suite.users, suite.groups, engine, store, log))
	groupHandler := NewGroupHandler(services.NewGroupService(suite.groups, suite.users, engine, log))
	projectHandler := NewProjectHandler(services.NewProjectService(suite.projects, suite.groups, suite.users, engine, log))

	requireAuth := middleware.RequireAuth(suite.tokens, suite.users)

	r := gin.New()
	r.POST("/login", authHandler.Login)
	r.POST("/authenticate", requireAuth, authHandler.Authenticate)
	r.GET("/users", userHandler.ListUsers)
	r.POST("/users", userHandler.CreateUser)
	r.GET("/users/:userId", userHandler.GetUser)
	r.PATCH("/users/:userId", requireAuth, middleware.RequireSelf(suite.users, "userId"), userHandler.UpdateUser)
	r.GET("/groups", groupHandler.ListGroups)
	r.POST("/groups", requireAuth, groupHandler.CreateGroup)
	r.POST("/groups/join", requireAuth, groupHandler.JoinGroup)
	r.PATCH("/groups/:groupId", requireAuth, groupHandler.UpdateGroup)
	r.DELETE("/groups/:groupId", requireAuth, groupHandler.DeleteGroup)
	r.GET("/projects", projectHandler.ListProjects)
	r.POST("/projects", requireAuth, projectHandler.CreateProject)
	r.GET("/projects/:projectId", projectHandler.GetProject)
	r.PATCH("/projects/:projectId", requireAuth, middleware.RequireProjectAccess(suite.projects), projectHandler.UpdateProject)
	suite.router = r
}

func (suite *HandlerTestSuite) createUser(username string, isAdmin bool, groupID *uint64) (*models.User, string) {
	hashed, err := auth.HashPassword("supersecret")
	suite.Require().NoError(err)
	user := &models.User{Username: username, Password: hashed, IsAdmin: isAdmin, GroupID: groupID}
	suite.Require().NoError(suite.users.Create(context.Background(), user))
	token, err := suite.tokens.Sign(user.ID)
	suite.Require().NoError(err)
	return user, token
}

func (suite *HandlerTestSuite) createGroup(name string, adminID uint64) *models.Group {
	group := &models.Group{Name: name, AdminID: &adminID}
	suite.Require().NoError(suite.groups.Create(context.Background(), group))
	return group
}

func (suite *HandlerTestSuite) createProject(title string, groupID, creatorID uint64) *models.Project {
	project := &models.Project{Title: title, GroupID: groupID, CreatorID: creatorID}
	suite.Require().NoError(suite.projects.Create(context.Background(), project))
	return project
}

func (suite *HandlerTestSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		suite.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlerTestSuite) decodeError(w *httptest.ResponseRecorder) apierrors.APIError {
	var resp apierrors.APIError
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func itoa(id uint64) string {
	return strconv.FormatUint(id, 10)
}

func (suite *HandlerTestSuite) TestLogin() {
	user, _ := suite.createUser("alice", true, nil)

	w := suite.do(http.MethodPost, "/login", "", map[string]string{"username": "alice", "password": "supersecret"})
	suite.Equal(http.StatusOK, w.Code)

	var resp dto.LoginResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(user.ID, resp.ID)
	suite.True(resp.IsAdmin)

	claims, err := suite.tokens.Parse(resp.Token)
	suite.Require().NoError(err)
	suite.Equal(user.ID, claims.UserID)

	w = suite.do(http.MethodPost, "/login", "", map[string]string{"username": "alice", "password": "wrong-one"})
	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.Equal(apierrors.ErrCodeInvalidCredentials, suite.decodeError(w).Code)

	w = suite.do(http.MethodPost, "/login", "", map[string]string{"username": "alice"})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestAuthenticate() {
	_, token := suite.createUser("member", false, nil)

	w := suite.do(http.MethodPost, "/authenticate", token, nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"admin": false}`, w.Body.String())

	w = suite.do(http.MethodPost, "/authenticate", "", nil)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *HandlerTestSuite) TestCreateUser_ValidationDetails() {
	w := suite.do(http.MethodPost, "/users", "", map[string]any{"username": "ab", "password": "123"})
	suite.Equal(http.StatusBadRequest, w.Code)

	resp := suite.decodeError(w)
	suite.Equal(apierrors.ErrCodeValidation, resp.Code)
	suite.Len(resp.Details, 2)
}

func (suite *HandlerTestSuite) TestCreateUser_MalformedJSON() {
	w := suite.do(http.MethodPost, "/users", "", `{"username": `)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal(apierrors.ErrCodeInvalidJSON, suite.decodeError(w).Code)
}

func (suite *HandlerTestSuite) TestUpdateUser_NoChanges() {
	user, token := suite.createUser("member", false, nil)

	w := suite.do(http.MethodPatch, "/users/"+itoa(user.ID), token, map[string]any{})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Contains(w.Body.String(), "require at least one value of")
}

func (suite *HandlerTestSuite) TestUpdateUser_OtherUserForbidden() {
	_, token := suite.createUser("member", false, nil)
	other, _ := suite.createUser("other", false, nil)

	w := suite.do(http.MethodPatch, "/users/"+itoa(other.ID), token, map[string]any{"username": "renamed"})
	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *HandlerTestSuite) TestUpdateUser_AdminFlagRequiresAdmin() {
	user, token := suite.createUser("member", false, nil)

	w := suite.do(http.MethodPatch, "/users/"+itoa(user.ID), token, map[string]any{"isAdmin": true})
	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *HandlerTestSuite) TestListUsers_EmptyAndFiltered() {
	w := suite.do(http.MethodGet, "/users", "", nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"message": "No results"}`, w.Body.String())

	suite.createUser("admin", true, nil)
	suite.createUser("member", false, nil)

	w = suite.do(http.MethodGet, "/users?isAdmin=false", "", nil)
	suite.Equal(http.StatusOK, w.Code)

	var users []dto.UserDTO
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &users))
	suite.Require().Len(users, 1)
	suite.Equal("member", users[0].Username)

	w = suite.do(http.MethodGet, "/users?group_id=abc", "", nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestGetUser_NotFound() {
	suite.Equal(http.StatusNotFound, suite.do(http.MethodGet, "/users/42", "", nil).Code)
	suite.Equal(http.StatusNotFound, suite.do(http.MethodGet, "/users/abc", "", nil).Code)
}

func (suite *HandlerTestSuite) TestGroups() {
	admin, adminToken := suite.createUser("admin", true, nil)
	member, memberToken := suite.createUser("member", false, nil)

	w := suite.do(http.MethodPost, "/groups", adminToken, map[string]any{"name": "Platform"})
	suite.Require().Equal(http.StatusCreated, w.Code)

	var group dto.GroupDTO
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &group))
	suite.Equal(admin.ID, *group.AdminID)

	w = suite.do(http.MethodPost, "/groups", memberToken, map[string]any{"name": "Design"})
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodPost, "/groups/join", memberToken, map[string]any{"userId": member.ID, "groupId": group.ID})
	suite.Require().Equal(http.StatusOK, w.Code)

	var joined dto.UserDTO
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &joined))
	suite.Equal(group.ID, *joined.GroupID)

	w = suite.do(http.MethodGet, "/groups?admin_id="+itoa(admin.ID), "", nil)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.do(http.MethodPatch, "/groups/"+itoa(group.ID), adminToken, map[string]any{"name": "Infra"})
	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), "Infra")

	suite.createProject("Roadmap", group.ID, admin.ID)
	w = suite.do(http.MethodDelete, "/groups/"+itoa(group.ID), adminToken, nil)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal(apierrors.ErrCodeConflict, suite.decodeError(w).Code)
}

func (suite *HandlerTestSuite) TestUpdateGroup_MissingGroupIsNotFound() {
	_, adminToken := suite.createUser("admin", true, nil)
	member, _ := suite.createUser("member", false, nil)

	w := suite.do(http.MethodPatch, "/groups/999", adminToken, map[string]any{"admin_id": member.ID})
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlerTestSuite) TestUpdateProject_MembershipRequired() {
	admin, _ := suite.createUser("admin", true, nil)
	group := suite.createGroup("Platform", admin.ID)
	project := suite.createProject("Roadmap", group.ID, admin.ID)

	_, memberToken := suite.createUser("member", false, &group.ID)
	_, outsiderToken := suite.createUser("outsider", false, nil)

	w := suite.do(http.MethodPatch, "/projects/"+itoa(project.ID), outsiderToken, map[string]any{"status": 3})
	suite.Equal(http.StatusForbidden, w.Code)

	stored, err := suite.projects.FindByID(context.Background(), project.ID)
	suite.Require().NoError(err)
	suite.Equal(int64(0), stored.Status)

	w = suite.do(http.MethodPatch, "/projects/"+itoa(project.ID), memberToken, map[string]any{"status": 3})
	suite.Equal(http.StatusOK, w.Code)

	var updated dto.ProjectDTO
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &updated))
	suite.Equal(int64(3), updated.Status)
	suite.Equal("Roadmap", updated.Title)
}

func (suite *HandlerTestSuite) TestUpdateProject_Validation() {
	admin, token := suite.createUser("admin", true, nil)
	group := suite.createGroup("Platform", admin.ID)
	project := suite.createProject("Roadmap", group.ID, admin.ID)

	w := suite.do(http.MethodPatch, "/projects/"+itoa(project.ID), token, map[string]any{"status": 9, "title": "x"})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Len(suite.decodeError(w).Details, 2)

	w = suite.do(http.MethodPatch, "/projects/"+itoa(project.ID), token, map[string]any{"status": "abc"})
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodPatch, "/projects/999", token, map[string]any{"status": 1})
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlerTestSuite) TestListProjects_FiltersAndPages() {
	admin, _ := suite.createUser("admin", true, nil)
	group := suite.createGroup("Platform", admin.ID)
	for i := 0; i < 12; i++ {
		suite.createProject("Project "+strconv.Itoa(i), group.ID, admin.ID)
	}

	var page []dto.ProjectDTO
	w := suite.do(http.MethodGet, "/projects?group_id="+itoa(group.ID), "", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &page))
	suite.Len(page, 10)

	w = suite.do(http.MethodGet, "/projects?group_id="+itoa(group.ID)+"&page=2", "", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &page))
	suite.Len(page, 2)

	w = suite.do(http.MethodGet, "/projects?status=1", "", nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"message": "No results"}`, w.Body.String())

	w = suite.do(http.MethodGet, "/projects?status=open", "", nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodGet, "/projects?page=two", "", nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestCreateProject_NonMemberForbidden() {
	admin, _ := suite.createUser("admin", true, nil)
	group := suite.createGroup("Platform", admin.ID)
	_, token := suite.createUser("outsider", false, nil)

	w := suite.do(http.MethodPost, "/projects", token, map[string]any{"title": "Roadmap", "group_id": group.ID})
	suite.Equal(http.StatusForbidden, w.Code)
}

// TestHandlerTestSuite runs the test suite
func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}
