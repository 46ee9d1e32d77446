package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/pkg/api"
)

func TestRegisterAndLogin(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	alice := env.register(t, "alice")
	assert.NotEmpty(t, alice.user.ID)
	assert.Equal(t, "alice@example.com", alice.user.Email)
	assert.False(t, alice.user.CreatedAt.IsZero())

	resp, err := env.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{
		Email:    "Alice@Example.com",
		Password: "password-alice",
	}))
	require.NoError(t, err)
	assert.Equal(t, alice.user.ID, resp.Msg.User.ID)
	assert.NotEmpty(t, resp.Msg.Token)

	_, err = env.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong-password",
	}))
	assertCode(t, connect.CodeUnauthenticated, err)
}

func TestRegister_Rejects(t *testing.T) {
	env := setupTestServer(t)
	env.register(t, "alice")

	tests := []struct {
		name string
		req  *api.RegisterRequest
		want connect.Code
	}{
		{"duplicate email", &api.RegisterRequest{Email: "alice@example.com", DisplayName: "A", Password: "long-enough"}, connect.CodeAlreadyExists},
		{"weak password", &api.RegisterRequest{Email: "bob@example.com", DisplayName: "Bob", Password: "short"}, connect.CodeInvalidArgument},
		{"bad email", &api.RegisterRequest{Email: "bob", DisplayName: "Bob", Password: "long-enough"}, connect.CodeInvalidArgument},
		{"missing name", &api.RegisterRequest{Email: "bob@example.com", Password: "long-enough"}, connect.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(context.Background(), connect.NewRequest(tt.req))
			assertCode(t, tt.want, err)
		})
	}
}

func TestGetCurrentUser(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	alice := env.register(t, "alice")

	resp, err := env.auth.GetCurrentUser(ctx, authed(alice, &api.GetCurrentUserRequest{}))
	require.NoError(t, err)
	assert.Equal(t, alice.user.ID, resp.Msg.User.ID)
	assert.Equal(t, "alice", resp.Msg.User.DisplayName)

	_, err = env.auth.GetCurrentUser(ctx, connect.NewRequest(&api.GetCurrentUserRequest{}))
	assertCode(t, connect.CodeUnauthenticated, err)
}
