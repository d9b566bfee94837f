package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/BerniceZTT/territory_end/config"
	"github.com/BerniceZTT/territory_end/exporter"
	"github.com/BerniceZTT/territory_end/models"
	"github.com/BerniceZTT/territory_end/repository"
	"github.com/BerniceZTT/territory_end/service"
	"github.com/BerniceZTT/territory_end/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeStore 内存存储
type fakeStore struct {
	snap      *models.Snapshot
	planning  *models.PlanningContext
	decisions []models.TaskDecision
}

func (s *fakeStore) SaveSnapshot(_ context.Context, snap *models.Snapshot) error {
	s.snap = snap
	return nil
}

func (s *fakeStore) LatestSnapshot(context.Context) (*models.Snapshot, error) {
	if s.snap == nil {
		return nil, repository.ErrNoSnapshot
	}
	return s.snap, nil
}

func (s *fakeStore) ListSnapshots(context.Context, int64) ([]models.Snapshot, error) {
	if s.snap == nil {
		return []models.Snapshot{}, nil
	}
	return []models.Snapshot{*s.snap}, nil
}

func (s *fakeStore) LoadPlanningContext(context.Context) (models.PlanningContext, bool, error) {
	if s.planning == nil {
		return models.PlanningContext{}, false, nil
	}
	return *s.planning, true, nil
}

func (s *fakeStore) SavePlanningContext(_ context.Context, pc models.PlanningContext, _, _ string) error {
	s.planning = &pc
	return nil
}

func (s *fakeStore) RecordDecision(_ context.Context, d *models.TaskDecision) error {
	s.decisions = append(s.decisions, *d)
	return nil
}

func (s *fakeStore) ListDecisions(context.Context) ([]models.TaskDecision, error) {
	return s.decisions, nil
}

func testSnapshot() *models.Snapshot {
	client := func(key string, fact float64, day string) models.ClientPoint {
		return models.ClientPoint{
			Key: key, Name: key, Fact: fact, Matched: true, Type: "retail", Address: "somewhere",
			DailyFact:   map[string]float64{day: fact},
			MonthlyFact: map[string]float64{day[:7]: fact},
		}
	}
	return &models.Snapshot{
		ID:   "snap-ctl",
		AsOf: time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		Buckets: []models.SalesBucket{
			{Region: "North", Owner: "rm-1", Brand: "Alpha", Packaging: "0.5L", Fact: 100, Potential: 200,
				Clients: []models.ClientPoint{client("n1", 100, "2025-06-01")}},
			{Region: "South", Owner: "rm-2", Brand: "Alpha", Packaging: "0.5L", Fact: 60, Potential: 300,
				Clients: []models.ClientPoint{client("s1", 60, "2025-03-01")}},
		},
		RegionOKB: map[string]int{"North": 10, "South": 10},
	}
}

func setup(store *fakeStore) {
	SetAnalyzer(&service.Analyzer{
		Snapshots: store,
		Settings:  store,
		Decisions: store,
		Config:    config.DefaultAnalyticsConfig(),
		Now:       func() time.Time { return time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC) },
	})
}

// withUser 模拟认证中间件写入的用户
func withUser(role models.UserRole, ownerID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user", jwt.MapClaims{
			"id":       "u1",
			"username": "tester",
			"role":     string(role),
			"ownerId":  ownerID,
		})
		c.Next()
	}
}

func serve(method, path string, body string, handlers ...gin.HandlerFunc) *httptest.ResponseRecorder {
	r := gin.New()
	route := path
	if i := strings.Index(route, "?"); i >= 0 {
		route = route[:i]
	}
	r.Handle(method, route, handlers...)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var e envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	return e
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		role    models.UserRole
		owner   string
		want    models.Filter
		wantErr int
	}{
		{name: "plain", query: "region=North&brand=Alpha&owner=rm-2", role: models.UserRoleANALYST,
			want: models.Filter{Region: "North", Brand: "Alpha", Owner: "rm-2"}},
		{name: "manager forced to own id", query: "owner=rm-2", role: models.UserRoleREGIONAL_MANAGER, owner: "rm-1",
			want: models.Filter{Owner: "rm-1"}},
		{name: "manager without owner id", role: models.UserRoleREGIONAL_MANAGER, wantErr: http.StatusForbidden},
		{name: "bad date", query: "from=01.02.2025", role: models.UserRoleANALYST, wantErr: http.StatusBadRequest},
		{name: "reversed range", query: "from=2025-03-01&to=2025-02-01", role: models.UserRoleANALYST, wantErr: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			user := &utils.LoginUser{ID: "u1", Role: string(tt.role), OwnerID: tt.owner}

			f, err := parseFilter(c, user)
			if tt.wantErr != 0 {
				var apiErr *utils.ApiError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, tt.wantErr, apiErr.StatusCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, f)
		})
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?from=2025-01-01&to=2025-01-31", nil)
	f, err := parseFilter(c, &utils.LoginUser{Role: string(models.UserRoleANALYST)})
	require.NoError(t, err)
	require.NotNil(t, f.From)
	assert.Equal(t, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), *f.To)
}

func TestGetDashboardWithoutSnapshot(t *testing.T) {
	setup(&fakeStore{})
	w := serve(http.MethodGet, "/api/analytics/dashboard", "", withUser(models.UserRoleANALYST, ""), GetDashboard)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "RESOURCE_NOT_FOUND", decode(t, w).Code)
}

func TestGetDashboard(t *testing.T) {
	setup(&fakeStore{snap: testSnapshot()})
	w := serve(http.MethodGet, "/api/analytics/dashboard", "", withUser(models.UserRoleANALYST, ""), GetDashboard)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.DashboardResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &resp))
	assert.Equal(t, "snap-ctl", resp.SnapshotID)
	assert.Len(t, resp.Plan, 2)
	assert.Len(t, resp.Regions, 2)
}

func TestRegionalManagerSeesOwnData(t *testing.T) {
	setup(&fakeStore{snap: testSnapshot()})
	w := serve(http.MethodGet, "/api/analytics/plan?owner=rm-2", "", withUser(models.UserRoleREGIONAL_MANAGER, "rm-1"), GetPlan)
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Plan []models.PlanRow `json:"plan"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	require.Len(t, data.Plan, 1)
	assert.Equal(t, "North", data.Plan[0].Region)
}

func TestSectionEndpoints(t *testing.T) {
	setup(&fakeStore{snap: testSnapshot()})
	user := withUser(models.UserRoleANALYST, "")

	tests := []struct {
		path    string
		handler gin.HandlerFunc
		key     string
	}{
		{"/api/analytics/anomalies", GetAnomalies, "outliers"},
		{"/api/analytics/churn", GetChurn, "churn"},
		{"/api/analytics/actions", GetActions, "actions"},
		{"/api/analytics/regions", GetRegions, "regions"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			w := serve(http.MethodGet, tt.path, "", user, tt.handler)
			require.Equal(t, http.StatusOK, w.Code)

			var data map[string]json.RawMessage
			require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
			assert.Contains(t, data, tt.key)
			assert.Contains(t, data, "snapshotId")
		})
	}
}

func TestGetSimilarRegions(t *testing.T) {
	setup(&fakeStore{snap: testSnapshot()})
	r := gin.New()
	r.GET("/api/analytics/regions/:name/similar", withUser(models.UserRoleANALYST, ""), GetSimilarRegions)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/analytics/regions/North/similar?top=5", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var exp models.Experiment
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &exp))
	assert.Equal(t, "North", exp.Target.Name)
	require.Len(t, exp.Controls, 1)
	assert.Equal(t, "South", exp.Controls[0].Name)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/analytics/regions/Nowhere/similar", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportPlan(t *testing.T) {
	setup(&fakeStore{snap: testSnapshot()})
	w := serve(http.MethodGet, "/api/analytics/plan/export?region=North", "", withUser(models.UserRoleANALYST, ""), ExportPlan)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, exporter.ContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "plan_North.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(exporter.PlanSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestPlanningSettings(t *testing.T) {
	store := &fakeStore{}
	setup(store)
	user := withUser(models.UserRoleANALYST, "")

	w := serve(http.MethodGet, "/api/settings/planning", "", user, GetPlanningContext)
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(http.MethodPut, "/api/settings/planning", `{"baseRate":12,"riskLevel":"extreme"}`, user, UpdatePlanningContext)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = serve(http.MethodPut, "/api/settings/planning", `{"riskLevel":"low"}`, user, UpdatePlanningContext)
	assert.Equal(t, http.StatusBadRequest, w.Code, "baseRate 必填")

	w = serve(http.MethodPut, "/api/settings/planning", `{"baseRate":0,"globalAvgSku":3,"riskLevel":"low"}`, user, UpdatePlanningContext)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, store.planning)
	assert.Equal(t, models.PlanningContext{BaseRate: 0, GlobalAvgSku: 3, RiskLevel: models.RiskLevelLow}, *store.planning)
}

func TestDecisions(t *testing.T) {
	store := &fakeStore{snap: testSnapshot()}
	setup(store)
	analyst := withUser(models.UserRoleANALYST, "")

	w := serve(http.MethodPost, "/api/tasks/decisions", `{"actionId":"a1","decision":"archive"}`, analyst, CreateDecision)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(http.MethodPost, "/api/tasks/decisions", `{"actionId":"a1","decision":"snooze","snoozeDays":3}`, analyst, CreateDecision)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, store.decisions, 1)
	assert.Equal(t, "tester", store.decisions[0].UserName)
	require.NotNil(t, store.decisions[0].SnoozeUntil)

	w = serve(http.MethodGet, "/api/tasks/decisions", "", analyst, ListDecisions)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)
}

func TestRegionalManagerDecisions(t *testing.T) {
	store := &fakeStore{
		snap:      testSnapshot(),
		decisions: []models.TaskDecision{{ActionID: "x", Decision: models.DecisionDelete, UserID: "someone-else"}},
	}
	setup(store)
	manager := withUser(models.UserRoleREGIONAL_MANAGER, "rm-1")

	// 不在自己看板中的动作
	w := serve(http.MethodPost, "/api/tasks/decisions", `{"actionId":"a1","decision":"delete"}`, manager, CreateDecision)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Len(t, store.decisions, 1)

	w = serve(http.MethodGet, "/api/tasks/decisions", "", manager, ListDecisions)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":0`)
}

func TestImportSnapshot(t *testing.T) {
	store := &fakeStore{}
	setup(store)

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "sales"))
	rows := [][]interface{}{
		{"region", "brand", "client_key", "date", "volume"},
		{"North", "Alpha", "c1", "2025-05-02", 10},
		{"South", "Alpha", "c2", "2025-05-03", 5},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("sales", cell, &r))
	}
	xlsx, err := f.WriteToBuffer()
	require.NoError(t, err)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "may.xlsx")
	require.NoError(t, err)
	_, err = part.Write(xlsx.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("asOf", "2025-05-31"))
	require.NoError(t, mw.Close())

	r := gin.New()
	r.POST("/api/snapshots/import", withUser(models.UserRoleANALYST, ""), ImportSnapshot)
	req := httptest.NewRequest(http.MethodPost, "/api/snapshots/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotNil(t, store.snap)
	assert.Equal(t, "may.xlsx", store.snap.Source)
	assert.Equal(t, time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC), store.snap.AsOf)
	assert.Len(t, store.snap.Buckets, 2)

	w = serve(http.MethodGet, "/api/snapshots/latest", "", GetLatestSnapshot)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"bucketCount":2`)

	w = serve(http.MethodGet, "/api/snapshots", "", ListSnapshots)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)
}

func TestImportSnapshotWithoutFile(t *testing.T) {
	setup(&fakeStore{})
	w := serve(http.MethodPost, "/api/snapshots/import", "", withUser(models.UserRoleANALYST, ""), ImportSnapshot)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin(t *testing.T) {
	utils.SetJWTSecret("controllers-test-secret")
	active := &models.User{
		ID:       primitive.NewObjectID(),
		Username: "analyst",
		Password: utils.HashPassword("s3cret"),
		Role:     models.UserRoleANALYST,
		Status:   models.UserStatusAPPROVED,
	}
	disabled := *active
	disabled.Username = "gone"
	disabled.Status = models.UserStatusDISABLED

	findUserByUsername = func(_ context.Context, name string) (*models.User, error) {
		switch name {
		case active.Username:
			u := *active
			return &u, nil
		case disabled.Username:
			u := disabled
			return &u, nil
		}
		return nil, utils.CreateNotFoundError("用户")
	}
	findUserByID = func(_ context.Context, id string) (*models.User, error) {
		if id == active.ID.Hex() {
			u := *active
			return &u, nil
		}
		return nil, utils.CreateNotFoundError("用户")
	}
	t.Cleanup(func() {
		findUserByUsername = repository.FindUserByUsername
		findUserByID = repository.FindUserByID
	})

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"ok", `{"username":"analyst","password":"s3cret"}`, http.StatusOK},
		{"wrong password", `{"username":"analyst","password":"nope"}`, http.StatusUnauthorized},
		{"unknown user", `{"username":"ghost","password":"s3cret"}`, http.StatusUnauthorized},
		{"disabled", `{"username":"gone","password":"s3cret"}`, http.StatusForbidden},
		{"missing fields", `{"username":"analyst"}`, http.StatusBadRequest},
	}
	var token string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(http.MethodPost, "/api/auth/login", tt.body, Login)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				var resp models.LoginResponse
				require.NoError(t, json.Unmarshal(decode(t, w).Data, &resp))
				assert.NotEmpty(t, resp.Token)
				assert.Empty(t, resp.User.Password)
				assert.NotContains(t, w.Body.String(), active.Password)
				token = resp.Token
			}
		})
	}

	claims, err := utils.ParseToken(token)
	require.NoError(t, err)
	setUser := func(c *gin.Context) { c.Set("user", claims); c.Next() }
	w := serve(http.MethodGet, "/api/auth/validate", "", setUser, ValidateToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"analyst"`)

	w = serve(http.MethodGet, "/api/auth/validate", "", ValidateToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// fakeUsers 只保存新建用户
type fakeUsers struct {
	created []models.User
}

func (f *fakeUsers) ListUsers(context.Context) ([]models.User, error) { return f.created, nil }

func (f *fakeUsers) FindUserByID(context.Context, string) (*models.User, error) {
	return nil, utils.CreateNotFoundError("用户")
}

func (f *fakeUsers) FindUserByUsername(context.Context, string) (*models.User, error) {
	return nil, utils.CreateNotFoundError("用户")
}

func (f *fakeUsers) CountUsersByRole(context.Context, models.UserRole) (int64, error) { return 1, nil }

func (f *fakeUsers) InsertUser(_ context.Context, u *models.User) error {
	u.ID = primitive.NewObjectID()
	f.created = append(f.created, *u)
	return nil
}

func (f *fakeUsers) ReplaceUser(context.Context, *models.User) error { return nil }

func (f *fakeUsers) DeleteUser(context.Context, string) error { return nil }

func TestUserEndpoints(t *testing.T) {
	store := &fakeUsers{}
	SetUserService(&service.UserService{Store: store})
	admin := withUser(models.UserRoleSUPER_ADMIN, "")

	w := serve(http.MethodPost, "/api/users", `{"username":"rm","password":"short","role":"REGIONAL_MANAGER"}`, admin, CreateUser)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(http.MethodPost, "/api/users", `{"username":"root","password":"secret1","role":"SUPER_ADMIN"}`, admin, CreateUser)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(http.MethodPost, "/api/users", `{"username":"rm","password":"secret1","role":"REGIONAL_MANAGER","ownerId":"rm-1"}`, admin, CreateUser)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "secret1")
	require.Len(t, store.created, 1)

	w = serve(http.MethodGet, "/api/users", "", admin, GetAllUsers)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ownerId":"rm-1"`)

	r := gin.New()
	r.DELETE("/api/users/:id", admin, DeleteUser)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/users/u1", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code, "不能删除自己")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/users/"+primitive.NewObjectID().Hex(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
