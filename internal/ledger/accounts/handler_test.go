package accounts_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moneta-app/moneta/internal/ledger/accounts"
	"github.com/moneta-app/moneta/internal/ledger/ledgertest"
)

func newRouter(repo *ledgertest.Repo) http.Handler {
	logger := slog.New(slog.NewTextHandler(&strings.Builder{}, nil))
	handler := accounts.NewHandler(logger, accounts.NewService(logger, repo))
	r := chi.NewRouter()
	r.Route("/accounts", handler.MountRoutes)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestCreateAndShowAccount(t *testing.T) {
	repo := ledgertest.New()
	router := newRouter(repo)

	rr := doJSON(t, router, http.MethodPost, "/accounts/", `{"name":"Wallet","balance":"150.50","currency_id":1}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	rr = doJSON(t, router, http.MethodGet, "/accounts/"+created.ID.String(), "")
	require.Equal(t, http.StatusOK, rr.Code)

	var shown struct {
		Name     string          `json:"name"`
		Balance  decimal.Decimal `json:"balance"`
		Currency struct {
			Code string `json:"code"`
		} `json:"currency"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &shown))
	assert.Equal(t, "Wallet", shown.Name)
	assert.True(t, shown.Balance.Equal(decimal.RequireFromString("150.50")))
	assert.Equal(t, "uah", shown.Currency.Code)
}

func TestCreateAccountUnknownCurrency(t *testing.T) {
	router := newRouter(ledgertest.New())

	rr := doJSON(t, router, http.MethodPost, "/accounts/", `{"name":"Wallet","balance":"0","currency_id":99}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreateAccountValidation(t *testing.T) {
	router := newRouter(ledgertest.New())

	rr := doJSON(t, router, http.MethodPost, "/accounts/", `{"balance":"0","currency_id":1}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestShowAccountNotFound(t *testing.T) {
	router := newRouter(ledgertest.New())

	rr := doJSON(t, router, http.MethodGet, "/accounts/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, router, http.MethodGet, "/accounts/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpdateAccountBalanceOverride(t *testing.T) {
	repo := ledgertest.New()
	account := repo.AddAccount("Wallet", decimal.RequireFromString("100"), 1)
	router := newRouter(repo)

	rr := doJSON(t, router, http.MethodPatch, "/accounts/"+account.ID.String(), `{"balance":"250"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.True(t, repo.Account(account.ID).Balance.Equal(decimal.RequireFromString("250")))
}

func TestUpdateAccountEmptyPatch(t *testing.T) {
	repo := ledgertest.New()
	account := repo.AddAccount("Wallet", decimal.Zero, 1)
	router := newRouter(repo)

	rr := doJSON(t, router, http.MethodPatch, "/accounts/"+account.ID.String(), `{}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDeleteAccount(t *testing.T) {
	repo := ledgertest.New()
	account := repo.AddAccount("Wallet", decimal.Zero, 1)
	router := newRouter(repo)

	rr := doJSON(t, router, http.MethodDelete, "/accounts/"+account.ID.String(), "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, router, http.MethodGet, "/accounts/"+account.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
