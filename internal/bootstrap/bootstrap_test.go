package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/ebdashboard/internal/app/repositories/memory"
	"github.com/yigit/ebdashboard/internal/config"
	"github.com/yigit/ebdashboard/internal/seed"
)

const (
	adminEmail    = "admin@campus.edu"
	adminPassword = "Admin123!"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type apiClient struct {
	t      *testing.T
	router *gin.Engine
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.Server.Mode = "test"
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.AccessTokenExpiration = "1h"
	cfg.JWT.Issuer = "ebdashboard-test"
	cfg.Purchase.DefaultLimit = "500"
	cfg.Purchase.StatsWindow = "720h"

	store := memory.New()
	require.NoError(t, seed.CreateDefaultData(context.Background(), store.Repositories(),
		seed.Options{AdminEmail: adminEmail, AdminPassword: adminPassword}, zerolog.Nop()))

	deps, err := BuildDependencies(cfg, store.Repositories(), store, zerolog.Nop())
	require.NoError(t, err)

	return &apiClient{t: t, router: SetupRouter(cfg, deps, zerolog.Nop())}
}

func (a *apiClient) do(method, path, token string, body interface{}) (int, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w.Code, env
}

func (a *apiClient) decode(env envelope, out interface{}) {
	a.t.Helper()
	require.NoError(a.t, json.Unmarshal(env.Data, out))
}

func (a *apiClient) token(env envelope) string {
	var auth struct {
		Token struct {
			AccessToken string `json:"accessToken"`
		} `json:"token"`
		User struct {
			StudentID *int64 `json:"studentId"`
		} `json:"user"`
	}
	a.decode(env, &auth)
	return auth.Token.AccessToken
}

func (a *apiClient) login(email, password string) string {
	code, env := a.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(a.t, http.StatusOK, code)
	return a.token(env)
}

func (a *apiClient) register(role, email string) string {
	body := map[string]interface{}{
		"username": "user-" + role,
		"email":    email,
		"password": "secret123",
		"role":     role,
	}
	if role == "student" {
		body["name"] = "Ada"
		body["year"] = "junior"
		body["interests"] = []string{"energy"}
	}
	code, env := a.do(http.MethodPost, "/api/v1/auth/register", "", body)
	require.Equal(a.t, http.StatusCreated, code, "register %s", role)
	return a.token(env)
}

func purchaseBody(price string, qty int) map[string]interface{} {
	return map[string]interface{}{
		"companyId": 7,
		"items": []map[string]interface{}{
			{"name": "Solar panel", "quantity": qty, "pricePerUnit": json.Number(price)},
		},
	}
}

func TestHealthAndMetrics(t *testing.T) {
	api := newTestAPI(t)

	code, _ := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestPurchaseLifecycleOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	student := api.register("student", "ada@campus.edu")
	company := api.register("company", "buyer@greenco.com")
	admin := api.login(adminEmail, adminPassword)

	code, env := api.do(http.MethodPost, "/api/v1/purchase-requests", "", purchaseBody("100", 1))
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = api.do(http.MethodPost, "/api/v1/purchase-requests", company, purchaseBody("100", 1))
	assert.Equal(t, http.StatusForbidden, code)

	code, env = api.do(http.MethodPost, "/api/v1/purchase-requests", student, purchaseBody("400", 2))
	require.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "PUR_002", env.Error.Code)

	code, env = api.do(http.MethodPost, "/api/v1/purchase-requests", student, map[string]interface{}{"companyId": 7})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = api.do(http.MethodPost, "/api/v1/purchase-requests", student, purchaseBody("120.50", 2))
	require.Equal(t, http.StatusCreated, code)
	var created struct {
		ID          int64  `json:"id"`
		Status      string `json:"status"`
		TotalAmount string `json:"totalAmount"`
	}
	api.decode(env, &created)
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, "241", created.TotalAmount)

	code, _ = api.do(http.MethodGet, "/api/v1/purchase-requests", student, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = api.do(http.MethodGet, "/api/v1/purchase-requests?status=pending", company, nil)
	require.Equal(t, http.StatusOK, code)

	approvePath := fmt.Sprintf("/api/v1/purchase-requests/%d/approve", created.ID)
	code, _ = api.do(http.MethodPut, approvePath, student, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = api.do(http.MethodPut, approvePath, admin, nil)
	require.Equal(t, http.StatusOK, code)

	code, env = api.do(http.MethodPut, approvePath, company, nil)
	require.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Purchase request is already approved", env.Error.Message)

	code, env = api.do(http.MethodPut, fmt.Sprintf("/api/v1/purchase-requests/%d/cancel", created.ID), student, nil)
	assert.Equal(t, http.StatusConflict, code)

	code, env = api.do(http.MethodGet, "/api/v1/students/me", student, nil)
	require.Equal(t, http.StatusOK, code)
	var me struct {
		UsedPurchaseAmount      string `json:"usedPurchaseAmount"`
		AvailablePurchaseAmount string `json:"availablePurchaseAmount"`
		TotalPurchases          int    `json:"totalPurchases"`
	}
	api.decode(env, &me)
	assert.Equal(t, "241", me.UsedPurchaseAmount)
	assert.Equal(t, "259", me.AvailablePurchaseAmount)
	assert.Equal(t, 1, me.TotalPurchases)

	code, env = api.do(http.MethodGet, "/api/v1/transactions", student, nil)
	require.Equal(t, http.StatusOK, code)
	var ledger struct {
		Transactions []struct {
			Type      string `json:"type"`
			RequestID *int64 `json:"requestId"`
		} `json:"transactions"`
	}
	api.decode(env, &ledger)
	require.Len(t, ledger.Transactions, 1)
	assert.Equal(t, "purchase", ledger.Transactions[0].Type)
	require.NotNil(t, ledger.Transactions[0].RequestID)
	assert.Equal(t, created.ID, *ledger.Transactions[0].RequestID)

	code, env = api.do(http.MethodGet, "/api/v1/purchase-requests/stats/overview", admin, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = api.do(http.MethodGet, "/api/v1/purchase-requests/stats/overview", company, nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestRejectAndCancelOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	student := api.register("student", "ada@campus.edu")
	admin := api.login(adminEmail, adminPassword)

	_, env := api.do(http.MethodPost, "/api/v1/purchase-requests", student, purchaseBody("10", 1))
	var first struct{ ID int64 }
	api.decode(env, &first)
	_, env = api.do(http.MethodPost, "/api/v1/purchase-requests", student, purchaseBody("20", 1))
	var second struct{ ID int64 }
	api.decode(env, &second)

	rejectPath := fmt.Sprintf("/api/v1/purchase-requests/%d/reject", first.ID)
	code, _ := api.do(http.MethodPut, rejectPath, admin, map[string]string{"reason": "  "})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = api.do(http.MethodPut, rejectPath, admin, map[string]string{"reason": "Not eligible"})
	require.Equal(t, http.StatusOK, code)
	var rejected struct {
		Status             string  `json:"status"`
		ReasonForRejection *string `json:"reasonForRejection"`
	}
	api.decode(env, &rejected)
	assert.Equal(t, "rejected", rejected.Status)
	require.NotNil(t, rejected.ReasonForRejection)
	assert.Equal(t, "Not eligible", *rejected.ReasonForRejection)

	code, env = api.do(http.MethodPut, fmt.Sprintf("/api/v1/purchase-requests/%d/cancel", second.ID), student, nil)
	require.Equal(t, http.StatusOK, code)

	code, env = api.do(http.MethodGet, "/api/v1/purchase-requests/mine?status=cancelled", student, nil)
	require.Equal(t, http.StatusOK, code)
	var mine struct {
		Requests []struct {
			ID int64 `json:"id"`
		} `json:"requests"`
	}
	api.decode(env, &mine)
	require.Len(t, mine.Requests, 1)
	assert.Equal(t, second.ID, mine.Requests[0].ID)

	code, _ = api.do(http.MethodGet, "/api/v1/purchase-requests/999", student, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAdminLimitAndDashboardOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	student := api.register("student", "ada@campus.edu")
	admin := api.login(adminEmail, adminPassword)

	code, env := api.do(http.MethodGet, "/api/v1/students/me", student, nil)
	require.Equal(t, http.StatusOK, code)
	var me struct {
		ID int64 `json:"id"`
	}
	api.decode(env, &me)

	limitPath := fmt.Sprintf("/api/v1/students/%d/limit", me.ID)
	code, _ = api.do(http.MethodPut, limitPath, student, map[string]interface{}{"purchaseLimit": json.Number("9000")})
	assert.Equal(t, http.StatusForbidden, code)

	code, env = api.do(http.MethodPut, limitPath, admin, map[string]interface{}{"purchaseLimit": json.Number("750")})
	require.Equal(t, http.StatusOK, code)
	var updated struct {
		PurchaseLimit string `json:"purchaseLimit"`
	}
	api.decode(env, &updated)
	assert.Equal(t, "750", updated.PurchaseLimit)

	code, _ = api.do(http.MethodPost, "/api/v1/transactions", student, map[string]interface{}{
		"amount": json.Number("50"), "type": "income", "description": "Stipend",
	})
	require.Equal(t, http.StatusCreated, code)

	code, _ = api.do(http.MethodGet, "/api/v1/dashboard/overview?period=month", student, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = api.do(http.MethodGet, "/api/v1/dashboard/trends/monthly-spending", student, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = api.do(http.MethodGet, "/api/v1/courses", student, nil)
	assert.Equal(t, http.StatusOK, code)

	course := map[string]interface{}{"code": "ENERGY-1", "title": "Grid Storage", "difficulty": "advanced"}
	code, _ = api.do(http.MethodPost, "/api/v1/courses", admin, course)
	assert.Equal(t, http.StatusBadRequest, code)
	course["code"] = "ENE420"
	code, _ = api.do(http.MethodPost, "/api/v1/courses", admin, course)
	assert.Equal(t, http.StatusCreated, code)

	code, env = api.do(http.MethodGet, fmt.Sprintf("/api/v1/recommendations/students/%d", me.ID), student, nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = api.do(http.MethodGet, "/api/v1/admin/stats", admin, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = api.do(http.MethodGet, "/api/v1/admin/stats", student, nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestBuildDependenciesRequiresSecret(t *testing.T) {
	store := memory.New()
	_, err := BuildDependencies(&config.Config{}, store.Repositories(), store, zerolog.Nop())
	assert.Error(t, err)
}

func TestFarmsAndCreditsOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	company := api.register("company", "grower@coop.org")
	admin := api.login(adminEmail, adminPassword)

	farm := map[string]interface{}{
		"farmName":   "Green Acres",
		"farmerName": "Sam Rivera",
		"email":      "sam@greenacres.org",
		"farmSize":   12.5,
		"farmType":   "organic",
		"latitude":   0,
		"longitude":  -74.006,
	}
	code, env := api.do(http.MethodPost, "/api/v1/farms/register", company, farm)
	require.Equal(t, http.StatusCreated, code)
	var registered struct {
		FarmID string `json:"farmId"`
		Status string `json:"status"`
	}
	api.decode(env, &registered)
	assert.Equal(t, "pending_verification", registered.Status)

	code, _ = api.do(http.MethodPost, "/api/v1/farms/register", company, farm)
	assert.Equal(t, http.StatusConflict, code)

	farm["email"] = "other@greenacres.org"
	farm["latitude"] = 120
	code, _ = api.do(http.MethodPost, "/api/v1/farms/register", company, farm)
	assert.Equal(t, http.StatusBadRequest, code)

	farmPath := "/api/v1/farms/" + registered.FarmID
	code, _ = api.do(http.MethodGet, farmPath, company, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = api.do(http.MethodPut, farmPath+"/status", company, map[string]string{"status": "active"})
	assert.Equal(t, http.StatusForbidden, code)

	generate := map[string]interface{}{
		"farmId":           registered.FarmID,
		"baselineEmission": json.Number("100"),
		"actualEmission":   json.Number("59.5"),
	}
	code, _ = api.do(http.MethodPost, "/api/v1/credits/generate", admin, generate)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = api.do(http.MethodPut, farmPath+"/status", admin, map[string]string{"status": "active"})
	require.Equal(t, http.StatusOK, code)

	code, env = api.do(http.MethodPost, "/api/v1/credits/generate", admin, generate)
	require.Equal(t, http.StatusCreated, code)
	var credit struct {
		ID               int64  `json:"id"`
		CreditsGenerated string `json:"creditsGenerated"`
		Status           string `json:"status"`
	}
	api.decode(env, &credit)
	assert.Equal(t, "40.5", credit.CreditsGenerated)
	assert.Equal(t, "pending", credit.Status)

	statusPath := fmt.Sprintf("/api/v1/credits/%d/status", credit.ID)
	code, _ = api.do(http.MethodPut, statusPath, admin, map[string]string{"status": "sold", "soldTo": "Acme"})
	assert.Equal(t, http.StatusConflict, code)
	code, _ = api.do(http.MethodPut, statusPath, admin, map[string]string{"status": "verified"})
	require.Equal(t, http.StatusOK, code)
	code, _ = api.do(http.MethodPut, statusPath, admin, map[string]string{"status": "sold"})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = api.do(http.MethodPut, statusPath, admin, map[string]string{"status": "sold", "soldTo": "Acme"})
	require.Equal(t, http.StatusOK, code)

	code, env = api.do(http.MethodGet, "/api/v1/credits/all?status=sold", company, nil)
	require.Equal(t, http.StatusOK, code)
	var credits struct {
		Credits []struct {
			SoldTo string `json:"soldTo"`
		} `json:"credits"`
	}
	api.decode(env, &credits)
	require.Len(t, credits.Credits, 1)
	assert.Equal(t, "Acme", credits.Credits[0].SoldTo)

	code, _ = api.do(http.MethodDelete, farmPath, admin, nil)
	assert.Equal(t, http.StatusConflict, code)

	code, env = api.do(http.MethodGet, "/api/v1/admin/stats", admin, nil)
	require.Equal(t, http.StatusOK, code)
	var stats struct {
		Farms         int64 `json:"farms"`
		CarbonCredits int64 `json:"carbonCredits"`
	}
	api.decode(env, &stats)
	assert.Equal(t, int64(1), stats.Farms)
	assert.Equal(t, int64(1), stats.CarbonCredits)
}

func TestAdminUserManagementOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	student := api.register("student", "ada@campus.edu")
	api.register("company", "buyer@acme.com")
	admin := api.login(adminEmail, adminPassword)

	code, _ := api.do(http.MethodGet, "/api/v1/admin/users", student, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env := api.do(http.MethodGet, "/api/v1/admin/users?role=company", admin, nil)
	require.Equal(t, http.StatusOK, code)
	var users struct {
		Users []struct {
			ID    int64  `json:"id"`
			Email string `json:"email"`
		} `json:"users"`
	}
	api.decode(env, &users)
	require.Len(t, users.Users, 1)
	companyID := users.Users[0].ID

	userPath := fmt.Sprintf("/api/v1/admin/users/%d", companyID)
	code, env = api.do(http.MethodPut, userPath, admin, map[string]interface{}{"isActive": false})
	require.Equal(t, http.StatusOK, code)
	var updated struct {
		IsActive bool `json:"isActive"`
	}
	api.decode(env, &updated)
	assert.False(t, updated.IsActive)

	code, _ = api.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "buyer@acme.com", "password": "secret123"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = api.do(http.MethodPut, userPath, admin, map[string]interface{}{"role": "student"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = api.do(http.MethodGet, "/api/v1/admin/students", admin, nil)
	require.Equal(t, http.StatusOK, code)
	var students struct {
		Students []struct {
			Name string `json:"name"`
		} `json:"students"`
	}
	api.decode(env, &students)
	require.Len(t, students.Students, 1)
	assert.Equal(t, "Ada", students.Students[0].Name)

	code, _ = api.do(http.MethodPost, "/api/v1/purchase-requests", student, purchaseBody("20", 1))
	require.Equal(t, http.StatusCreated, code)
	code, env = api.do(http.MethodGet, "/api/v1/admin/activity", admin, nil)
	require.Equal(t, http.StatusOK, code)
	var feed struct {
		Activity []struct {
			Type string `json:"type"`
			User string `json:"user"`
		} `json:"activity"`
	}
	api.decode(env, &feed)
	require.Len(t, feed.Activity, 1)
	assert.Equal(t, "purchase", feed.Activity[0].Type)
	assert.Equal(t, "Ada", feed.Activity[0].User)

	code, _ = api.do(http.MethodDelete, userPath, admin, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = api.do(http.MethodGet, userPath, admin, nil)
	assert.Equal(t, http.StatusNotFound, code)
}
