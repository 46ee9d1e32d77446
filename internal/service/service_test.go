package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/storage/memory"
	"github.com/mmynk/splitledger/pkg/api"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

// testEnv is a server with all three services behind RequireAuth.
type testEnv struct {
	auth   apiconnect.AuthServiceClient
	groups apiconnect.GroupServiceClient
	ledger apiconnect.LedgerServiceClient
}

// session is a registered user and their bearer token.
type session struct {
	user  *api.User
	token string
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)
	l := ledger.New(store, ledger.WithLogger(logger))

	interceptors := connect.WithInterceptors(
		middleware.LoggingInterceptor(logger),
		middleware.RequireAuth(jwtManager,
			apiconnect.AuthServiceRegisterProcedure,
			apiconnect.AuthServiceLoginProcedure,
		),
	)

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewAuthServiceHandler(NewAuthService(authenticator, jwtManager, store, logger), interceptors))
	mux.Handle(apiconnect.NewGroupServiceHandler(NewGroupService(l, logger), interceptors))
	mux.Handle(apiconnect.NewLedgerServiceHandler(NewLedgerService(l, logger), interceptors))

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return &testEnv{
		auth:   apiconnect.NewAuthServiceClient(http.DefaultClient, server.URL),
		groups: apiconnect.NewGroupServiceClient(http.DefaultClient, server.URL),
		ledger: apiconnect.NewLedgerServiceClient(http.DefaultClient, server.URL),
	}
}

func (e *testEnv) register(t *testing.T, name string) *session {
	t.Helper()
	resp, err := e.auth.Register(context.Background(), connect.NewRequest(&api.RegisterRequest{
		Email:       name + "@example.com",
		DisplayName: name,
		Password:    "password-" + name,
	}))
	require.NoError(t, err)
	require.NotEmpty(t, resp.Msg.Token)
	return &session{user: resp.Msg.User, token: resp.Msg.Token}
}

// authed wraps msg in a request carrying the session's token.
func authed[T any](s *session, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+s.token)
	return req
}

// createGroup makes a group owned by owner with the others added as members.
func (e *testEnv) createGroup(t *testing.T, owner *session, name string, others ...*session) string {
	t.Helper()
	ctx := context.Background()
	resp, err := e.groups.CreateGroup(ctx, authed(owner, &api.CreateGroupRequest{Name: name}))
	require.NoError(t, err)
	groupID := resp.Msg.Group.ID
	for _, o := range others {
		_, err := e.groups.AddMember(ctx, authed(owner, &api.AddMemberRequest{GroupID: groupID, Email: o.user.Email}))
		require.NoError(t, err)
	}
	return groupID
}

func assertCode(t *testing.T, want connect.Code, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want, connect.CodeOf(err), "error: %v", err)
}
