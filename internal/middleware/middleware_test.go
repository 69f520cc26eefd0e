package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/tallyup/internal/auth"
	"github.com/mmynk/tallyup/pkg/api"
	"github.com/mmynk/tallyup/pkg/api/apiconnect"
)

// whoAmI echoes the caller back as the single group member.
type whoAmI struct {
	apiconnect.UnimplementedGroupServiceHandler
}

func (whoAmI) ListGroups(ctx context.Context, _ *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	return connect.NewResponse(&api.ListGroupsResponse{
		Groups: []*api.Group{{Members: []*api.Member{{ID: GetMemberID(ctx), Name: GetMemberName(ctx)}}}},
	}), nil
}

func setupAuthServer(t *testing.T, jwtManager *auth.JWTManager, logger *slog.Logger) apiconnect.GroupServiceClient {
	t.Helper()

	path, handler := apiconnect.NewGroupServiceHandler(whoAmI{},
		connect.WithInterceptors(RequireAuth(jwtManager), LoggingInterceptor(logger)),
	)
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return apiconnect.NewGroupServiceClient(http.DefaultClient, server.URL)
}

func TestRequireAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	client := setupAuthServer(t, jwtManager, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	token, err := jwtManager.Generate("alice", "Alice")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	t.Run("valid token", func(t *testing.T) {
		req := connect.NewRequest(&api.ListGroupsRequest{})
		req.Header().Set("Authorization", "Bearer "+token)

		resp, err := client.ListGroups(context.Background(), req)
		if err != nil {
			t.Fatalf("ListGroups failed: %v", err)
		}
		got := resp.Msg.Groups[0].Members[0]
		if got.ID != "alice" || got.Name != "Alice" {
			t.Errorf("caller: expected alice/Alice, got %s/%s", got.ID, got.Name)
		}
	})

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic " + token},
		{"no token", "Bearer "},
		{"bad token", "Bearer not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := connect.NewRequest(&api.ListGroupsRequest{})
			if tt.header != "" {
				req.Header().Set("Authorization", tt.header)
			}
			_, err := client.ListGroups(context.Background(), req)
			if connect.CodeOf(err) != connect.CodeUnauthenticated {
				t.Errorf("expected CodeUnauthenticated, got %v", err)
			}
		})
	}
}

func TestLoggingInterceptor(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	var buf bytes.Buffer
	client := setupAuthServer(t, jwtManager, slog.New(slog.NewTextHandler(&buf, nil)))

	token, err := jwtManager.Generate("bob", "Bob")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	req := connect.NewRequest(&api.ListGroupsRequest{})
	req.Header().Set("Authorization", "Bearer "+token)
	if _, err := client.ListGroups(context.Background(), req); err != nil {
		t.Fatalf("ListGroups failed: %v", err)
	}

	unimplemented := connect.NewRequest(&api.GetGroupRequest{GroupID: "g"})
	unimplemented.Header().Set("Authorization", "Bearer "+token)
	_, err = client.GetGroup(context.Background(), unimplemented)
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) || connectErr.Code() != connect.CodeUnimplemented {
		t.Fatalf("expected CodeUnimplemented, got %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "msg=\"RPC ok\"") || !strings.Contains(out, "member_id=bob") {
		t.Errorf("missing success line in log output:\n%s", out)
	}
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "code=unimplemented") {
		t.Errorf("missing warning line in log output:\n%s", out)
	}
}
