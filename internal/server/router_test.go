package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sales-ims/internal/accounts"
	"sales-ims/internal/auth"
	"sales-ims/internal/config"
	"sales-ims/internal/database"
	"sales-ims/internal/sales"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	t      *testing.T
	router *gin.Engine
	tokens *auth.TokenIssuer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := database.Open(database.Options{Driver: "sqlite", DSN: dsn}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	tokens, err := auth.NewTokenIssuer("router-test-secret", "HS256", time.Hour)
	require.NoError(t, err)

	staticDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(staticDir, "app.js"), []byte("console.log(\"sales\")"), 0o644))

	cfg := &config.Config{
		AppName:          "Sales Management IMS",
		CORSAllowOrigins: []string{"*"},
		StaticDir:        staticDir,
	}
	r := NewRouter(cfg, Deps{
		Accounts: accounts.NewService(db, zap.NewNop()),
		Sales:    sales.NewService(db, zap.NewNop()),
		Tokens:   tokens,
		Log:      zap.NewNop(),
	})

	return &testServer{t: t, router: r, tokens: tokens}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	s.router.ServeHTTP(resp, req)
	return resp
}

func (s *testServer) loginForm(username, password string) *httptest.ResponseRecorder {
	s.t.Helper()

	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := httptest.NewRecorder()
	s.router.ServeHTTP(resp, req)
	return resp
}

// registerAndLogin returns a bearer token for a freshly registered user.
func (s *testServer) registerAndLogin(email string) string {
	s.t.Helper()

	resp := s.do(http.MethodPost, "/auth/register", "", map[string]string{"email": email, "password": "pa55word"})
	require.Equal(s.t, http.StatusOK, resp.Code, resp.Body.String())

	resp = s.loginForm(email, "pa55word")
	require.Equal(s.t, http.StatusOK, resp.Code, resp.Body.String())

	var out struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	decode(s.t, resp, &out)
	require.Equal(s.t, "bearer", out.TokenType)
	require.NotEmpty(s.t, out.AccessToken)
	return out.AccessToken
}

func decode(t *testing.T, resp *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), v), resp.Body.String())
}

type orderBody struct {
	ID          uint    `json:"id"`
	Quantity    int     `json:"quantity"`
	TotalAmount float64 `json:"total_amount"`
	Status      string  `json:"status"`
	CustomerID  uint    `json:"customer_id"`
	ProductID   uint    `json:"product_id"`
	SalesRepID  *uint   `json:"sales_rep_id"`
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"status":"ok","app":"Sales Management IMS"}`, resp.Body.String())
	assert.NotEmpty(t, resp.Header().Get("X-Request-Id"))
}

func TestStaticMount(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(http.MethodGet, "/static/app.js", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `console.log("sales")`)
}

func TestRegister(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(http.MethodPost, "/auth/register", "", map[string]string{"email": "ann@example.com", "password": "pw"})
	require.Equal(t, http.StatusOK, resp.Code)

	var user struct {
		ID    uint   `json:"id"`
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	decode(t, resp, &user)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "ann@example.com", user.Email)
	assert.Equal(t, "staff", user.Role)
	assert.NotContains(t, resp.Body.String(), "password")

	resp = s.do(http.MethodPost, "/auth/register", "", map[string]string{"email": "ann@example.com", "password": "other"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.JSONEq(t, `{"detail":"Email already registered"}`, resp.Body.String())
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(http.MethodPost, "/auth/register", "", map[string]string{"email": "not-an-email", "password": "pw"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Contains(t, resp.Body.String(), "email must be a valid email address")

	resp = s.do(http.MethodPost, "/auth/register", "", map[string]string{"email": "x@example.com"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Contains(t, resp.Body.String(), "password is required")
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	token := s.registerAndLogin("bea@example.com")

	resp := s.do(http.MethodGet, "/sales/customers", token, nil)
	assert.Equal(t, http.StatusOK, resp.Code)

	// JSON body is accepted as well as the password form
	resp = s.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "bea@example.com", "password": "pa55word"})
	assert.Equal(t, http.StatusOK, resp.Code)

	wrongPassword := s.loginForm("bea@example.com", "nope")
	unknownEmail := s.loginForm("nobody@example.com", "pa55word")

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
	assert.JSONEq(t, `{"detail":"Invalid credentials"}`, wrongPassword.Body.String())
}

func TestSalesRoutesRequireAuth(t *testing.T) {
	s := newTestServer(t)

	forged, err := auth.NewTokenIssuer("someone-else", "HS256", time.Hour)
	require.NoError(t, err)
	forgedToken, err := forged.Issue("1", 0)
	require.NoError(t, err)

	ghost, err := s.tokens.Issue("4242", 0)
	require.NoError(t, err)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/sales/customers"},
		{http.MethodPost, "/sales/customers"},
		{http.MethodGet, "/sales/products"},
		{http.MethodPost, "/sales/products"},
		{http.MethodGet, "/sales/orders"},
		{http.MethodPost, "/sales/orders"},
		{http.MethodGet, "/sales/orders/1"},
		{http.MethodPut, "/sales/orders/1"},
		{http.MethodDelete, "/sales/orders/1"},
	}
	for _, rt := range routes {
		for _, token := range []string{"", "garbage", forgedToken, ghost} {
			resp := s.do(rt.method, rt.path, token, nil)
			assert.Equal(t, http.StatusUnauthorized, resp.Code, "%s %s", rt.method, rt.path)
			assert.Equal(t, "Bearer", resp.Header().Get("WWW-Authenticate"))
		}
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	s := newTestServer(t)
	s.registerAndLogin("old@example.com")

	issued := time.Now().Add(-2 * time.Hour)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "1",
		IssuedAt:  jwt.NewNumericDate(issued),
		ExpiresAt: jwt.NewNumericDate(issued.Add(time.Hour)),
	}).SignedString([]byte("router-test-secret"))
	require.NoError(t, err)

	fresh, err := s.tokens.Issue("1", 0)
	require.NoError(t, err)
	resp := s.do(http.MethodGet, "/sales/orders", fresh, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = s.do(http.MethodGet, "/sales/orders", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.JSONEq(t, `{"detail":"Could not validate credentials"}`, resp.Body.String())
}

func TestCustomersAndProducts(t *testing.T) {
	s := newTestServer(t)
	token := s.registerAndLogin("rep@example.com")

	resp := s.do(http.MethodPost, "/sales/customers", token, map[string]interface{}{"name": "Acme", "email": "buyer@acme.test", "phone": "555-0100"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Body.String(), `"phone":"555-0100"`)

	resp = s.do(http.MethodPost, "/sales/customers", token, map[string]interface{}{"name": "Other", "email": "buyer@acme.test"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.JSONEq(t, `{"detail":"Customer already exists"}`, resp.Body.String())

	resp = s.do(http.MethodPost, "/sales/customers", token, map[string]interface{}{"name": "NoPhone", "email": "np@acme.test"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"phone":null`)

	resp = s.do(http.MethodGet, "/sales/customers", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var customers []map[string]interface{}
	decode(t, resp, &customers)
	assert.Len(t, customers, 2)

	resp = s.do(http.MethodPost, "/sales/products", token, map[string]interface{}{"name": "Widget", "sku": "WID-1", "price": 10.5})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var product struct {
		Price float64 `json:"price"`
		SKU   string  `json:"sku"`
	}
	decode(t, resp, &product)
	assert.Equal(t, 10.5, product.Price)
	assert.Equal(t, "WID-1", product.SKU)

	resp = s.do(http.MethodPost, "/sales/products", token, map[string]interface{}{"name": "Dup", "sku": "WID-1", "price": 1})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.JSONEq(t, `{"detail":"Product already exists"}`, resp.Body.String())

	resp = s.do(http.MethodPost, "/sales/products", token, map[string]interface{}{"name": "Neg", "sku": "NEG-1", "price": -1})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	resp = s.do(http.MethodPost, "/sales/products", token, map[string]interface{}{"name": "NoPrice", "sku": "NP-1"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Contains(t, resp.Body.String(), "price is required")

	resp = s.do(http.MethodGet, "/sales/products", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var products []map[string]interface{}
	decode(t, resp, &products)
	assert.Len(t, products, 1)
}

func TestOrderLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.registerAndLogin("seller@example.com")

	resp := s.do(http.MethodPost, "/sales/customers", token, map[string]string{"name": "Acme", "email": "buyer@acme.test"})
	require.Equal(t, http.StatusOK, resp.Code)
	var customer struct{ ID uint }
	decode(t, resp, &customer)

	resp = s.do(http.MethodPost, "/sales/products", token, map[string]interface{}{"name": "Widget", "sku": "WID-1", "price": "10.00"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var product struct{ ID uint }
	decode(t, resp, &product)

	// create: 10.00 x 3
	resp = s.do(http.MethodPost, "/sales/orders", token, map[string]interface{}{
		"customer_id": customer.ID,
		"product_id":  product.ID,
		"quantity":    3,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var order orderBody
	decode(t, resp, &order)
	assert.Equal(t, 30.0, order.TotalAmount)
	assert.Equal(t, "pending", order.Status)
	require.NotNil(t, order.SalesRepID)

	orderPath := fmt.Sprintf("/sales/orders/%d", order.ID)

	// quantity change re-prices
	resp = s.do(http.MethodPut, orderPath, token, map[string]interface{}{"quantity": 5})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	decode(t, resp, &order)
	assert.Equal(t, 5, order.Quantity)
	assert.Equal(t, 50.0, order.TotalAmount)

	// status only leaves quantity and total alone
	resp = s.do(http.MethodPut, orderPath, token, map[string]interface{}{"status": "shipped"})
	require.Equal(t, http.StatusOK, resp.Code)
	decode(t, resp, &order)
	assert.Equal(t, "shipped", order.Status)
	assert.Equal(t, 5, order.Quantity)
	assert.Equal(t, 50.0, order.TotalAmount)

	resp = s.do(http.MethodGet, orderPath, token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	decode(t, resp, &order)
	assert.Equal(t, "shipped", order.Status)

	resp = s.do(http.MethodGet, "/sales/orders", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var orders []orderBody
	decode(t, resp, &orders)
	assert.Len(t, orders, 1)

	resp = s.do(http.MethodDelete, orderPath, token, nil)
	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.Empty(t, resp.Body.String())

	resp = s.do(http.MethodDelete, orderPath, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.JSONEq(t, `{"detail":"Order not found"}`, resp.Body.String())

	resp = s.do(http.MethodGet, orderPath, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = s.do(http.MethodPut, orderPath, token, map[string]interface{}{"status": "x"})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestCreateOrderErrors(t *testing.T) {
	s := newTestServer(t)
	token := s.registerAndLogin("err@example.com")

	resp := s.do(http.MethodPost, "/sales/orders", token, map[string]interface{}{"customer_id": 1, "product_id": 1, "quantity": 1})
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.JSONEq(t, `{"detail":"Product or customer not found"}`, resp.Body.String())

	resp = s.do(http.MethodPost, "/sales/orders", token, map[string]interface{}{"customer_id": 1, "product_id": 1, "quantity": 0})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	resp = s.do(http.MethodPost, "/sales/orders", token, map[string]interface{}{"customer_id": 1, "product_id": 1})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Contains(t, resp.Body.String(), "quantity is required")

	resp = s.do(http.MethodPost, "/sales/customers", token, map[string]string{"name": "Acme", "email": "buyer@acme.test"})
	require.Equal(t, http.StatusOK, resp.Code)
	resp = s.do(http.MethodPost, "/sales/products", token, map[string]interface{}{"name": "Widget", "sku": "WID-1", "price": "10.00"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = s.do(http.MethodPost, "/sales/orders", token, map[string]interface{}{"customer_id": 1, "product_id": 1, "quantity": 100_000_000_000})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.JSONEq(t, `{"detail":"order total is too large"}`, resp.Body.String())

	resp = s.do(http.MethodGet, "/sales/orders/abc", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	resp = s.do(http.MethodGet, "/sales/orders/999", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestCORSEchoesOrigin(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/sales/orders", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	resp := httptest.NewRecorder()
	s.router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.Equal(t, "http://localhost:5173", resp.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header().Get("Access-Control-Allow-Credentials"))
}
