package service

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/tallyup/internal/auth"
	"github.com/mmynk/tallyup/internal/middleware"
	"github.com/mmynk/tallyup/internal/settlement"
	"github.com/mmynk/tallyup/internal/storage/sqlite"
	"github.com/mmynk/tallyup/pkg/api/apiconnect"
)

type testEnv struct {
	groups   apiconnect.GroupServiceClient
	expenses apiconnect.ExpenseServiceClient
	store    *sqlite.SQLiteStore
	jwt      *auth.JWTManager
}

// setupTestServer serves both services behind the auth interceptor,
// backed by a temp-file SQLite store.
func setupTestServer(t *testing.T, opts settlement.Options) *testEnv {
	t.Helper()

	// Create temp database
	tmpFile, err := os.CreateTemp("", "test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()

	store, err := sqlite.New(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to create store: %v", err)
	}

	jwtManager := auth.NewJWTManager("service-test-secret", time.Hour)
	interceptors := connect.WithInterceptors(middleware.RequireAuth(jwtManager))

	settler := settlement.NewSettler(store, store, settlement.WithOptions(opts))
	groupPath, groupHandler := apiconnect.NewGroupServiceHandler(NewGroupService(store, settler), interceptors)
	expensePath, expenseHandler := apiconnect.NewExpenseServiceHandler(NewExpenseService(store, true), interceptors)

	mux := http.NewServeMux()
	mux.Handle(groupPath, groupHandler)
	mux.Handle(expensePath, expenseHandler)

	server := httptest.NewServer(mux)

	t.Cleanup(func() {
		server.Close()
		store.Close()
		os.Remove(tmpFile.Name())
	})

	return &testEnv{
		groups:   apiconnect.NewGroupServiceClient(http.DefaultClient, server.URL),
		expenses: apiconnect.NewExpenseServiceClient(http.DefaultClient, server.URL),
		store:    store,
		jwt:      jwtManager,
	}
}

// as wraps msg in a request authenticated as memberID.
func as[T any](t *testing.T, env *testEnv, memberID string, msg *T) *connect.Request[T] {
	t.Helper()
	token, err := env.jwt.Generate(memberID, memberID)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+token)
	return req
}

func expectCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Fatalf("expected code %v, got %v (%v)", want, got, err)
	}
}
