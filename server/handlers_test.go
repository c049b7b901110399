package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/panic-app/panic-server/server/models"
	"github.com/panic-app/panic-server/server/session"
	"github.com/panic-app/panic-server/server/work"
	"github.com/panic-app/panic-server/shared"
	"github.com/stretchr/testify/assert"
)

type fakeSnsRegistrar struct {
	topic string
	err   error
	calls int
}

func (f *fakeSnsRegistrar) RegisterContact(ctx context.Context, externalID, name, phone string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}

	return f.topic, nil
}

type envelope struct {
	Data  map[string]interface{} `json:"data"`
	Error *errorBody             `json:"error"`
}

// setupTestServer resets the db & package collaborators, and returns
// the router plus the fake registrar wired into the contact routes.
func setupTestServer(t *testing.T) (*mux.Router, *fakeSnsRegistrar) {
	t.Helper()

	models.InitializeTestDb()

	registrar := &fakeSnsRegistrar{topic: "arn:aws:sns:us-east-2:000000000000:contact-topic"}

	sessionStore = session.NewStore("test-session-secret", 3600)
	snsClient = registrar
	messenger = nil
	storage = nil
	storageConfig = shared.StorageConfig{}
	countryCode = "+52"
	workerPool = work.NewWorkerAdapter("UTC")

	return newRouter(), registrar
}

func doRequest(router *mux.Router, method, path string, body interface{}, cookies []*http.Cookie) (*httptest.ResponseRecorder, envelope) {
	var reqBody bytes.Buffer
	if body != nil {
		json.NewEncoder(&reqBody).Encode(body)
	}

	req := httptest.NewRequest(method, path, &reqBody)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	payload := envelope{}
	json.Unmarshal(rec.Body.Bytes(), &payload)

	return rec, payload
}

func registerTestUser(t *testing.T, router *mux.Router, email string) []*http.Cookie {
	t.Helper()

	rec, payload := doRequest(router, "POST", "/users/register", map[string]string{
		"email":     email,
		"password":  "hunter22",
		"firstname": "Ana",
		"lastname":  "Garcia",
		"phone":     "5512340000",
	}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User created successfully", payload.Data["message"])

	return rec.Result().Cookies()
}

func TestRegisterUser(t *testing.T) {
	router, _ := setupTestServer(t)

	cookies := registerTestUser(t, router, "ana@example.com")
	assert.NotEmpty(t, cookies, "registration should establish a session")

	// The new session works against gated routes right away
	rec, payload := doRequest(router, "GET", "/", nil, cookies)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hola mundo", payload.Data["message"])
}

func TestRegisterUserDuplicateEmail(t *testing.T) {
	router, _ := setupTestServer(t)
	registerTestUser(t, router, "ana@example.com")

	rec, payload := doRequest(router, "POST", "/users/register", map[string]string{
		"email":     "ana@example.com",
		"password":  "other-password",
		"firstname": "Ana",
		"lastname":  "Duplicada",
		"phone":     "5512340001",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "The email submitted already exists for another user", payload.Error.Message)
}

func TestRegisterUserMissingFields(t *testing.T) {
	router, _ := setupTestServer(t)

	rec, payload := doRequest(router, "POST", "/users/register", map[string]string{
		"email": "ana@example.com",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Incorrect request parameters", payload.Error.Message)
}

func TestLogin(t *testing.T) {
	router, _ := setupTestServer(t)
	registerTestUser(t, router, "ana@example.com")

	rec, payload := doRequest(router, "POST", "/users/login", map[string]string{
		"email":    "ana@example.com",
		"password": "hunter22",
	}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Login successful", payload.Data["message"])
	assert.NotEmpty(t, payload.Data["expiresAt"])
	assert.NotEmpty(t, rec.Result().Cookies())
}

func TestLoginInvalidCredentials(t *testing.T) {
	router, _ := setupTestServer(t)
	registerTestUser(t, router, "ana@example.com")

	testCases := []struct {
		name string
		body map[string]string
	}{
		{name: "wrong password", body: map[string]string{"email": "ana@example.com", "password": "wrong"}},
		{name: "unknown email", body: map[string]string{"email": "nadie@example.com", "password": "hunter22"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec, payload := doRequest(router, "POST", "/users/login", tc.body, nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "Invalid username or password", payload.Error.Message)
			assert.Empty(t, rec.Result().Cookies(), "no session should be established")
		})
	}
}

func TestGatedRoutesRequireSession(t *testing.T) {
	router, _ := setupTestServer(t)

	gatedRoutes := []struct{ method, path string }{
		{"GET", "/"},
		{"POST", "/users/password"},
		{"DELETE", "/users/deactivate"},
		{"POST", "/contacts/register"},
		{"POST", "/contacts/edit"},
		{"GET", "/contacts"},
		{"DELETE", "/contacts/+525512345678"},
		{"POST", "/incidents"},
	}

	for _, route := range gatedRoutes {
		rec, payload := doRequest(router, route.method, route.path, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%v %v", route.method, route.path)
		assert.Equal(t, "Invalid session", payload.Error.Message)
	}
}

func TestChangePassword(t *testing.T) {
	router, _ := setupTestServer(t)
	cookies := registerTestUser(t, router, "ana@example.com")

	rec, payload := doRequest(router, "POST", "/users/password", map[string]string{
		"oldPassword": "nope",
		"newPassword": "new-password",
	}, cookies)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Incorrect password", payload.Error.Message)

	rec, _ = doRequest(router, "POST", "/users/password", map[string]string{
		"oldPassword": "hunter22",
		"newPassword": "new-password",
	}, cookies)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Old password no longer works, the new one does
	rec, _ = doRequest(router, "POST", "/users/login", map[string]string{
		"email": "ana@example.com", "password": "hunter22",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = doRequest(router, "POST", "/users/login", map[string]string{
		"email": "ana@example.com", "password": "new-password",
	}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDeactivateUser(t *testing.T) {
	router, _ := setupTestServer(t)
	cookies := registerTestUser(t, router, "ana@example.com")

	rec, payload := doRequest(router, "DELETE", "/users/deactivate", nil, cookies)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User deactivated", payload.Data["message"])

	// The original email can no longer log in
	rec, _ = doRequest(router, "POST", "/users/login", map[string]string{
		"email": "ana@example.com", "password": "hunter22",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// The stored email survives untouched for audit
	user, err := models.FindUserBy("email", "ana@example.com")
	assert.Nil(t, err)
	assert.True(t, user.Disabled)
	assert.NotNil(t, user.DisabledAt)

	// And the address is freed up for a fresh registration
	registerTestUser(t, router, "ana@example.com")
}

func TestLogout(t *testing.T) {
	router, _ := setupTestServer(t)
	cookies := registerTestUser(t, router, "ana@example.com")

	rec, payload := doRequest(router, "POST", "/users/logout", nil, cookies)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logout successful", payload.Data["message"])

	// The session cookie is expired; a request carrying the expired
	// cookie set is rejected
	rec, _ = doRequest(router, "GET", "/", nil, rec.Result().Cookies())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
