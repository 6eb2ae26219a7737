package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"finly/internal/dates"
	"finly/internal/logger"
	"finly/internal/server"
	"finly/internal/testutil"
	"finly/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
	Events *testutil.RecordingPublisher
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupApp creates the production router backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	publisher := &testutil.RecordingPublisher{}
	router := server.NewRouter(server.Options{
		DB:          db,
		Publisher:   publisher,
		FrontendURL: "http://localhost:5173",
	})

	return &testApp{DB: db, Router: router, Events: publisher}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	errObj, ok := parseJSON(t, rec)["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error body, got %s", rec.Body.String())
	}
	code, _ := errObj["code"].(string)
	return code
}

// registerUser registers a new user and returns its ID.
func (app *testApp) registerUser(t *testing.T, email, password string) string {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"first_name":"Test","last_name":"User"}`, email, password)
	rec := app.request("POST", "/api/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	user := parseJSON(t, rec)["user"].(map[string]interface{})
	return user["id"].(string)
}

// loginUser logs in and returns the bearer token.
func (app *testApp) loginUser(t *testing.T, email, password string) string {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["token"].(string)
}

// signUp registers and logs in, returning the user ID and token.
func (app *testApp) signUp(t *testing.T, email string) (userID, token string) {
	t.Helper()
	userID = app.registerUser(t, email, "password123")
	return userID, app.loginUser(t, email, "password123")
}

// createBudget creates a budget whose window contains today.
func (app *testApp) createBudget(t *testing.T, userID, token, category string, amount int64) map[string]interface{} {
	t.Helper()
	today := dates.Day(time.Now())
	body := fmt.Sprintf(`{"amount":%d,"start_date":%q,"end_date":%q,"category_name":%q}`,
		amount, dates.FormatWire(today.AddDate(0, 0, -1)), dates.FormatWire(today.AddDate(0, 0, 1)), category)
	rec := app.request("POST", "/api/budgets/createBudget/"+userID, body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create budget failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["budget"].(map[string]interface{})
}

// createExpense records an expense and returns the response body.
func (app *testApp) createExpense(t *testing.T, token, categoryID string, amount int64) map[string]interface{} {
	t.Helper()
	body := fmt.Sprintf(`{"type":"expense","amount":%d,"category_id":%q}`, amount, categoryID)
	rec := app.request("POST", "/api/transactions/createTransaction", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create expense failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)
}

func (app *testApp) budgetLeft(t *testing.T, token, budgetID string) float64 {
	t.Helper()
	rec := app.request("GET", "/api/budgets/getBudget/"+budgetID, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("get budget failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["budget"].(map[string]interface{})["left_amount"].(float64)
}
