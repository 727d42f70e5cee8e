package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/landrecords/demarcation-backend/internal/access"
	"github.com/landrecords/demarcation-backend/internal/apperr"
	"github.com/landrecords/demarcation-backend/internal/auth"
	"github.com/landrecords/demarcation-backend/internal/db/dbtest"
	"github.com/landrecords/demarcation-backend/internal/geo"
	"github.com/landrecords/demarcation-backend/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const goodPassword = "TestPass123!"

type fixture struct {
	db     *gorm.DB
	svc    *auth.Service
	geo    *geo.Service
	server *httptest.Server
}

// newFixture mounts the auth routes on a chi router, matching main.go.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	d := dbtest.Open(t)
	require.NoError(t, geo.Migrate(d))
	require.NoError(t, auth.Migrate(d))

	geoSvc := geo.NewService(d)
	svc := auth.NewService(d, geoSvc, time.Hour)
	h := &auth.Handler{Service: svc, Log: logger.Nop()}

	r := chi.NewRouter()
	r.Mount("/auth", auth.SetupRoutes(h, auth.SessionInfo{DB: d}, nil))
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return &fixture{db: d, svc: svc, geo: geoSvc, server: server}
}

// newClientWithJar returns an http.Client with a fresh cookie jar that automatically
// carries cookies between requests.
func newClientWithJar(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func postJSON(t *testing.T, client *http.Client, url string, body interface{}) *http.Response {
	t.Helper()
	raw, _ := json.Marshal(body)
	resp, err := client.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestValidatePassword(t *testing.T) {
	cases := map[string]bool{
		"short1!":      false,
		"alllower12!":  false,
		"NoDigitsHere!": false,
		"NoSpecial123": false,
		goodPassword:   true,
	}
	for pw, ok := range cases {
		err := auth.ValidatePassword(pw)
		if ok {
			assert.NoError(t, err, pw)
		} else {
			assert.True(t, apperr.Is(err, apperr.KindValidation), "%s: %v", pw, err)
		}
	}
}

// TestRegisterLoginMeLogout walks the cookie session lifecycle end to end.
func TestRegisterLoginMeLogout(t *testing.T) {
	f := newFixture(t)
	client := newClientWithJar(t)

	resp := postJSON(t, client, f.server.URL+"/auth/register", map[string]string{
		"username":  "ramesh",
		"password":  goodPassword,
		"full_name": "Ramesh Kumar",
		"role":      "administrator",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var registered auth.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&registered))
	assert.Equal(t, access.RoleCitizen, registered.Role, "register must always create citizens")

	resp = postJSON(t, client, f.server.URL+"/auth/login", map[string]string{"username": "ramesh", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = postJSON(t, client, f.server.URL+"/auth/login", map[string]string{"username": "ramesh", "password": goodPassword})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	meResp, err := client.Get(f.server.URL + "/auth/me")
	require.NoError(t, err)
	defer meResp.Body.Close()
	require.Equal(t, http.StatusOK, meResp.StatusCode)
	var me auth.User
	require.NoError(t, json.NewDecoder(meResp.Body).Decode(&me))
	assert.Equal(t, "Ramesh Kumar", me.FullName)

	resp = postJSON(t, client, f.server.URL+"/auth/logout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	meResp2, err := client.Get(f.server.URL + "/auth/me")
	require.NoError(t, err)
	defer meResp2.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, meResp2.StatusCode)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, auth.NewUser{Username: "sita", Password: goodPassword})
	require.NoError(t, err)
	_, err = f.svc.Register(ctx, auth.NewUser{Username: "sita", Password: goodPassword})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

// TestLogin_ReplacesSession verifies one live session per user.
func TestLogin_ReplacesSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, auth.NewUser{Username: "gita", Password: goodPassword})
	require.NoError(t, err)

	first, _, err := f.svc.Login(ctx, "gita", goodPassword)
	require.NoError(t, err)
	second, _, err := f.svc.Login(ctx, "gita", goodPassword)
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionID, second.SessionID)

	_, err = auth.SessionInfo{DB: f.db}.FindSessionByID(first.SessionID)
	assert.Error(t, err)
	data, err := auth.SessionInfo{DB: f.db}.FindSessionByID(second.SessionID)
	require.NoError(t, err)
	assert.Equal(t, access.RoleCitizen, data.Role)
	assert.True(t, data.IsActive)
}

func TestCreateStaff_OfficerNeedsCircle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateStaff(ctx, auth.NewUser{Username: "off1", Password: goodPassword, Role: "officer"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	missing := "nope"
	_, err = f.svc.CreateStaff(ctx, auth.NewUser{Username: "off1", Password: goodPassword, Role: "officer", CircleID: &missing})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.CreateStaff(ctx, auth.NewUser{Username: "cit", Password: goodPassword, Role: "citizen"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	district, err := f.geo.CreateDistrict(ctx, geo.District{Name: "Mahendragarh", Code: "MHG"})
	require.NoError(t, err)
	circle, err := f.geo.CreateCircle(ctx, geo.Circle{Name: "Narnaul Circle", Code: "NRN", DistrictID: district.ID})
	require.NoError(t, err)

	officer, err := f.svc.CreateStaff(ctx, auth.NewUser{Username: "off1", Password: goodPassword, Role: "officer", CircleID: &circle.ID})
	require.NoError(t, err)
	assert.Equal(t, access.RoleOfficer, officer.Role)

	adc, err := f.svc.CreateStaff(ctx, auth.NewUser{Username: "adc1", Password: goodPassword, Role: "adc"})
	require.NoError(t, err)
	assert.Equal(t, access.RoleSupervisor, adc.Role)
}

// TestSetActive_DisablesLogin verifies deactivated users lose their session and cannot log in.
func TestSetActive_DisablesLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin, err := f.svc.CreateStaff(ctx, auth.NewUser{Username: "admin", Password: goodPassword, Role: "administrator"})
	require.NoError(t, err)
	user, err := f.svc.Register(ctx, auth.NewUser{Username: "kamal", Password: goodPassword})
	require.NoError(t, err)
	session, _, err := f.svc.Login(ctx, "kamal", goodPassword)
	require.NoError(t, err)

	_, err = f.svc.SetActive(ctx, admin.UserID, admin.UserID, false)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.SetActive(ctx, admin.UserID, user.UserID, false)
	require.NoError(t, err)

	_, err = auth.SessionInfo{DB: f.db}.FindSessionByID(session.SessionID)
	assert.Error(t, err)
	_, _, err = f.svc.Login(ctx, "kamal", goodPassword)
	assert.Error(t, err)
}

// TestAdminRoutes_RequireCapability verifies a citizen cannot list users.
func TestAdminRoutes_RequireCapability(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Register(context.Background(), auth.NewUser{Username: "asha", Password: goodPassword})
	require.NoError(t, err)

	client := newClientWithJar(t)
	resp := postJSON(t, client, f.server.URL+"/auth/login", map[string]string{"username": "asha", "password": goodPassword})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	listResp, err := client.Get(f.server.URL + "/auth/users")
	require.NoError(t, err)
	defer listResp.Body.Close()
	body, _ := io.ReadAll(listResp.Body)
	assert.Equal(t, http.StatusForbidden, listResp.StatusCode, string(body))
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, err := f.svc.Register(ctx, auth.NewUser{Username: "mohan", Password: goodPassword})
	require.NoError(t, err)

	err = f.svc.ChangePassword(ctx, user.UserID, "wrong", "NewPass456#")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	require.NoError(t, f.svc.ChangePassword(ctx, user.UserID, goodPassword, "NewPass456#"))
	_, _, err = f.svc.Login(ctx, "mohan", "NewPass456#")
	assert.NoError(t, err)
}
