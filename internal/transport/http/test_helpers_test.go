package http

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/akazarov/roomchat/internal/auth"
	"github.com/akazarov/roomchat/internal/blob"
	"github.com/akazarov/roomchat/internal/config"
	"github.com/akazarov/roomchat/internal/core"
	"github.com/akazarov/roomchat/internal/store"
	"github.com/akazarov/roomchat/internal/store/sqlite"
)

type testEnv struct {
	ts          *httptest.Server
	store       store.Store
	authService *auth.Service
	blobs       *blob.FS
}

// startTestServer wires an in-memory store, blob dir, auth service and hub
// behind an httptest server.
func startTestServer(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	logger := zerolog.Nop()

	blobs, err := blob.NewFS(t.TempDir(), "/static/uploads", &logger)
	if err != nil {
		t.Fatalf("failed to create blob store: %v", err)
	}

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}
	authService := auth.NewService(st, jwtConfig)

	hub := core.NewHub(st, &logger, core.Options{HistoryLimit: 20, EventBuffer: 16})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.ReadHeaderTimeout = time.Second

	server := NewServer(hub, authService, st, blobs, &cfg, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{
		ts:          ts,
		store:       st,
		authService: authService,
		blobs:       blobs,
	}
}

// registerTestUser creates a user and returns a valid session token.
func registerTestUser(t *testing.T, env *testEnv, username string) string {
	t.Helper()

	token, err := env.authService.Register(context.Background(), username, "password123")
	if err != nil {
		t.Fatalf("failed to register %s: %v", username, err)
	}
	return token
}
