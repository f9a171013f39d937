package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/campus-showcase/showcase-backend/auth"
	"github.com/campus-showcase/showcase-backend/models"
)

var testSecret = []byte("test-secret")

func seedUser(t *testing.T, store *fakeUserStore, name, email, password, role string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		ID:       uuid.New(),
		Name:     name,
		Email:    email,
		Password: string(hash),
		Course:   "Unknown",
		Role:     role,
	}
	require.NoError(t, store.Add(context.Background(), user))
	return user
}

func doRequest(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func decodeJSONList(t *testing.T, rec *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var payload []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func TestCreateUser(t *testing.T) {
	users := newFakeUserStore()
	router := newTestRouter(users, newFakeProjectStore(), testSecret, false)

	rec := doRequest(router, http.MethodPost, "/user/add",
		`{"name":"Ava","email":"ava@x.com","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeJSON(t, rec)
	assert.Equal(t, "Ava", body["name"])
	assert.Equal(t, "ava@x.com", body["email"])
	assert.Equal(t, "Unknown", body["course"])
	assert.Equal(t, "user", body["role"])
	assert.NotEmpty(t, body["id"])
	assert.NotContains(t, body, "password")

	// Stored password is a hash, not the plaintext
	stored, err := users.FindByEmail(context.Background(), "ava@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("secret1")))
}

func TestCreateUser_MissingPassword(t *testing.T) {
	router := newTestRouter(newFakeUserStore(), newFakeProjectStore(), testSecret, false)

	rec := doRequest(router, http.MethodPost, "/user/add", `{"email":"ava@x.com"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "password", decodeJSON(t, rec)["field"])
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	users := newFakeUserStore()
	seedUser(t, users, "Ava", "ava@x.com", "secret1", "user")
	router := newTestRouter(users, newFakeProjectStore(), testSecret, false)

	rec := doRequest(router, http.MethodPost, "/user/add",
		`{"name":"Other","email":"ava@x.com","password":"hunter2"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogin(t *testing.T) {
	users := newFakeUserStore()
	user := seedUser(t, users, "Ava", "ava@x.com", "secret1", "admin")
	router := newTestRouter(users, newFakeProjectStore(), testSecret, false)

	t.Run("unknown email is 404", func(t *testing.T) {
		rec := doRequest(router, http.MethodPost, "/user/login",
			`{"email":"nobody@x.com","password":"secret1"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("wrong password is 401", func(t *testing.T) {
		rec := doRequest(router, http.MethodPost, "/user/login",
			`{"email":"ava@x.com","password":"wrong"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("success issues a token carrying id and role", func(t *testing.T) {
		rec := doRequest(router, http.MethodPost, "/user/login",
			`{"email":"ava@x.com","password":"secret1"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeJSON(t, rec)
		assert.Equal(t, "Login successful", body["message"])
		assert.Equal(t, "admin", body["role"])
		assert.Equal(t, user.ID.String(), body["userId"])

		claims, err := auth.ParseToken(body["token"].(string), testSecret)
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), claims.UserID)
		assert.Equal(t, "admin", claims.Role)
	})
}

func TestSearchUsers(t *testing.T) {
	users := newFakeUserStore()
	seedUser(t, users, "Ava Lin", "ava@x.com", "pw", "user")
	seedUser(t, users, "Bob", "bob@example.com", "pw", "user")
	router := newTestRouter(users, newFakeProjectStore(), testSecret, false)

	t.Run("missing query yields empty list", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/user/search", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})

	t.Run("matches name or email substring with projected fields", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/user/search?query=av", "")
		require.Equal(t, http.StatusOK, rec.Code)

		results := decodeJSONList(t, rec)
		require.Len(t, results, 1)
		assert.Equal(t, "Ava Lin", results[0]["name"])
		assert.Equal(t, "ava@x.com", results[0]["email"])
		// Projection carries exactly id, name and email
		assert.Len(t, results[0], 3)
	})
}

func TestUserStats(t *testing.T) {
	users := newFakeUserStore()
	seedUser(t, users, "Ava", "ava@x.com", "pw", "user")
	seedUser(t, users, "Bob", "bob@x.com", "pw", "user")
	seedUser(t, users, "Root", "admin@x.com", "pw", "admin")
	router := newTestRouter(users, newFakeProjectStore(), testSecret, false)

	rec := doRequest(router, http.MethodGet, "/user/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"activeStudents":2}`, rec.Body.String())
}

func TestGetUser_NotFound(t *testing.T) {
	router := newTestRouter(newFakeUserStore(), newFakeProjectStore(), testSecret, false)

	rec := doRequest(router, http.MethodGet, "/user/getbyid/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetUser_InvalidID(t *testing.T) {
	router := newTestRouter(newFakeUserStore(), newFakeProjectStore(), testSecret, false)

	rec := doRequest(router, http.MethodGet, "/user/getbyid/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetUsersByCourse(t *testing.T) {
	users := newFakeUserStore()
	ava := seedUser(t, users, "Ava", "ava@x.com", "pw", "user")
	_, err := users.Update(context.Background(), ava.ID, map[string]any{"course": "CSE"})
	require.NoError(t, err)
	seedUser(t, users, "Bob", "bob@x.com", "pw", "user")
	router := newTestRouter(users, newFakeProjectStore(), testSecret, false)

	rec := doRequest(router, http.MethodGet, "/user/getbycourse/CSE", "")
	require.Equal(t, http.StatusOK, rec.Code)
	results := decodeJSONList(t, rec)
	require.Len(t, results, 1)
	assert.Equal(t, "Ava", results[0]["name"])
}

func TestUpdateUser(t *testing.T) {
	users := newFakeUserStore()
	user := seedUser(t, users, "Ava", "ava@x.com", "secret1", "user")
	router := newTestRouter(users, newFakeProjectStore(), testSecret, false)

	rec := doRequest(router, http.MethodPut, "/user/update/"+user.ID.String(),
		`{"course":"ECE","password":"newpass"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ECE", decodeJSON(t, rec)["course"])

	// Untouched fields survive; the new password is hashed
	stored, err := users.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ava", stored.Name)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("newpass")))
}

func TestUpdateUser_NotFound(t *testing.T) {
	router := newTestRouter(newFakeUserStore(), newFakeProjectStore(), testSecret, false)

	rec := doRequest(router, http.MethodPut, "/user/update/"+uuid.NewString(), `{"course":"ECE"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteUser_SecondDeleteIsNotFound(t *testing.T) {
	users := newFakeUserStore()
	user := seedUser(t, users, "Ava", "ava@x.com", "pw", "user")
	router := newTestRouter(users, newFakeProjectStore(), testSecret, false)

	rec := doRequest(router, http.MethodDelete, "/user/delete/"+user.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(router, http.MethodDelete, "/user/delete/"+user.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetAllUsers_RedactsPassword(t *testing.T) {
	users := newFakeUserStore()
	seedUser(t, users, "Ava", "ava@x.com", "pw", "user")
	router := newTestRouter(users, newFakeProjectStore(), testSecret, false)

	rec := doRequest(router, http.MethodGet, "/user/getall", "")
	require.Equal(t, http.StatusOK, rec.Code)
	results := decodeJSONList(t, rec)
	require.Len(t, results, 1)
	assert.NotContains(t, results[0], "password")
}

func TestGetUserByEmail(t *testing.T) {
	users := newFakeUserStore()
	ava := seedUser(t, users, "Ava", "ava@x.com", "pw", "user")
	router := newTestRouter(users, newFakeProjectStore(), testSecret, false)

	rec := doRequest(router, http.MethodGet, "/user/getbyemail/ava@x.com", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeJSON(t, rec)
	assert.Equal(t, ava.ID.String(), body["id"])
	assert.Equal(t, "Ava", body["name"])
	assert.NotContains(t, body, "password")

	rec = doRequest(router, http.MethodGet, "/user/getbyemail/nobody@x.com", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateUser_Enforced(t *testing.T) {
	users := newFakeUserStore()
	eve := seedUser(t, users, "Eve", "eve@x.com", "pw", "user")
	mallory := seedUser(t, users, "Mallory", "mal@x.com", "pw", "user")
	admin := seedUser(t, users, "Root", "root@x.com", "pw", "admin")
	router := newTestRouter(users, newFakeProjectStore(), testSecret, true)

	eveToken, err := auth.GenerateToken(eve.ID.String(), eve.Role, testSecret, auth.TokenValidity)
	require.NoError(t, err)
	adminToken, err := auth.GenerateToken(admin.ID.String(), admin.Role, testSecret, auth.TokenValidity)
	require.NoError(t, err)

	t.Run("users cannot grant themselves admin", func(t *testing.T) {
		rec := doAuthedRequest(router, http.MethodPut, "/user/update/"+eve.ID.String(), `{"role":"admin"}`, eveToken)
		require.Equal(t, http.StatusForbidden, rec.Code)

		stored, err := users.FindByID(context.Background(), eve.ID)
		require.NoError(t, err)
		assert.Equal(t, "user", stored.Role)
	})

	t.Run("users cannot update other accounts", func(t *testing.T) {
		rec := doAuthedRequest(router, http.MethodPut, "/user/update/"+mallory.ID.String(), `{"name":"Hijacked"}`, eveToken)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("users may update their own profile", func(t *testing.T) {
		rec := doAuthedRequest(router, http.MethodPut, "/user/update/"+eve.ID.String(), `{"name":"Evelyn"}`, eveToken)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Evelyn", decodeJSON(t, rec)["name"])
	})

	t.Run("admins may change roles", func(t *testing.T) {
		rec := doAuthedRequest(router, http.MethodPut, "/user/update/"+eve.ID.String(), `{"role":"admin"}`, adminToken)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "admin", decodeJSON(t, rec)["role"])
	})
}
