package mcp_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/inference-gateway/instruct-agent/logger"
	"github.com/inference-gateway/instruct-agent/mcp"
	"github.com/inference-gateway/instruct-agent/mocks"
)

var testServers = []mcp.ServerConfig{
	{ID: "deepwiki", Name: "DeepWiki", Endpoint: "https://mcp.deepwiki.com/mcp"},
	{ID: "web-fetch", Name: "Web Fetch", Endpoint: "https://remote.mcpservers.org/fetch/mcp"},
}

func TestRegistry_GetOrCreate(t *testing.T) {
	tests := []struct {
		name      string
		serverID  string
		setup     func(session *mocks.MockSession)
		expectErr func(err error) bool
	}{
		{
			name:     "InitializesAndCaches",
			serverID: "deepwiki",
			setup: func(session *mocks.MockSession) {
				session.EXPECT().Initialize(gomock.Any()).Return(nil).Times(1)
				session.EXPECT().GetTools().Return([]mcp.Tool{{Name: "ask"}}).AnyTimes()
				session.EXPECT().IsInitialized().Return(true).AnyTimes()
			},
		},
		{
			name:     "UnknownServer",
			serverID: "missing",
			setup:    func(session *mocks.MockSession) {},
			expectErr: func(err error) bool {
				return mcp.IsServerNotFound(err)
			},
		},
		{
			name:     "HandshakeFailureNotCached",
			serverID: "web-fetch",
			setup: func(session *mocks.MockSession) {
				session.EXPECT().Initialize(gomock.Any()).Return(errors.New("connection refused")).Times(2)
			},
			expectErr: func(err error) bool {
				return err != nil && err.Error() == "connection refused"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			session := mocks.NewMockSession(ctrl)
			tt.setup(session)

			created := 0
			registry := mcp.NewRegistry(testServers, func(cfg mcp.ServerConfig) mcp.Session {
				created++
				return session
			}, logger.NewNoOpLogger())

			first, err := registry.GetOrCreate(context.Background(), tt.serverID)
			if tt.expectErr != nil {
				require.Error(t, err)
				assert.True(t, tt.expectErr(err), err.Error())
				assert.Nil(t, first)

				if !mcp.IsServerNotFound(err) {
					_, err = registry.GetOrCreate(context.Background(), tt.serverID)
					assert.Error(t, err)
					assert.Equal(t, 2, created)
				}
				return
			}

			require.NoError(t, err)
			second, err := registry.GetOrCreate(context.Background(), tt.serverID)
			require.NoError(t, err)
			assert.Same(t, first, second)
			assert.Equal(t, 1, created)
		})
	}
}

func TestRegistry_CachedSessionNoExtraHandshake(t *testing.T) {
	fake := &fakeServer{tools: []mcp.Tool{{Name: "ask"}}}
	srv := newFakeServer(t, fake)

	servers := []mcp.ServerConfig{{ID: "fake", Endpoint: srv.URL}}
	registry := mcp.NewRegistry(servers, mcp.NewClientFactory(mcp.ClientOptions{HTTPClient: srv.Client()}, logger.NewNoOpLogger()), logger.NewNoOpLogger())

	_, err := registry.GetOrCreate(context.Background(), "fake")
	require.NoError(t, err)
	handshakeRequests := len(fake.methods())

	_, err = registry.GetOrCreate(context.Background(), "fake")
	require.NoError(t, err)
	_, err = registry.GetOrCreate(context.Background(), "fake")
	require.NoError(t, err)

	assert.Equal(t, handshakeRequests, len(fake.methods()))
	assert.Equal(t, int32(1), fake.inits.Load())
}

func TestRegistry_ConcurrentFirstRequestsShareHandshake(t *testing.T) {
	release := make(chan struct{})
	var inits atomic.Int32

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	session := mocks.NewMockSession(ctrl)
	session.EXPECT().Initialize(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		inits.Add(1)
		<-release
		return nil
	}).Times(1)
	session.EXPECT().GetTools().Return([]mcp.Tool{}).AnyTimes()
	session.EXPECT().IsInitialized().Return(true).AnyTimes()

	registry := mcp.NewRegistry(testServers, func(cfg mcp.ServerConfig) mcp.Session {
		return session
	}, logger.NewNoOpLogger())

	const callers = 8
	var wg sync.WaitGroup
	results := make([]mcp.Session, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = registry.GetOrCreate(context.Background(), "deepwiki")
		}(i)
	}

	// Give every caller time to join the in-flight handshake
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), inits.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, session, results[i])
	}
}

func TestRegistry_InitSurvivesCallerCancellation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	session := mocks.NewMockSession(ctrl)
	session.EXPECT().Initialize(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		return ctx.Err()
	})
	session.EXPECT().GetTools().Return(nil).AnyTimes()

	registry := mcp.NewRegistry(testServers, func(cfg mcp.ServerConfig) mcp.Session {
		return session
	}, logger.NewNoOpLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := registry.GetOrCreate(ctx, "deepwiki")
	assert.NoError(t, err)
}

func TestRegistry_ServersAndLookup(t *testing.T) {
	registry := mcp.NewRegistry(testServers, nil, logger.NewNoOpLogger())

	servers := registry.Servers()
	require.Len(t, servers, 2)
	assert.Equal(t, "deepwiki", servers[0].ID)
	assert.Equal(t, "web-fetch", servers[1].ID)

	servers[0].ID = "mutated"
	assert.Equal(t, "deepwiki", registry.Servers()[0].ID)

	cfg, ok := registry.Lookup("web-fetch")
	assert.True(t, ok)
	assert.Equal(t, "Web Fetch", cfg.Name)

	_, ok = registry.Lookup("unknown")
	assert.False(t, ok)
}

func TestRegistry_Reset(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	first := mocks.NewMockSession(ctrl)
	first.EXPECT().Initialize(gomock.Any()).Return(nil)
	first.EXPECT().GetTools().Return(nil).AnyTimes()
	first.EXPECT().Disconnect().Times(1)

	second := mocks.NewMockSession(ctrl)
	second.EXPECT().Initialize(gomock.Any()).Return(nil)
	second.EXPECT().GetTools().Return(nil).AnyTimes()

	sessions := []mcp.Session{first, second}
	registry := mcp.NewRegistry(testServers, func(cfg mcp.ServerConfig) mcp.Session {
		s := sessions[0]
		sessions = sessions[1:]
		return s
	}, logger.NewNoOpLogger())

	got, err := registry.GetOrCreate(context.Background(), "deepwiki")
	require.NoError(t, err)
	assert.Same(t, first, got)

	registry.Reset()

	got, err = registry.GetOrCreate(context.Background(), "deepwiki")
	require.NoError(t, err)
	assert.Same(t, second, got)
}

func TestRegistry_InitHasDeadline(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	session := mocks.NewMockSession(ctrl)
	session.EXPECT().Initialize(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		deadline, ok := ctx.Deadline()
		assert.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(mcp.InitTimeout), deadline, 5*time.Second)
		return nil
	})
	session.EXPECT().GetTools().Return(nil).AnyTimes()

	registry := mcp.NewRegistry(testServers, func(cfg mcp.ServerConfig) mcp.Session {
		return session
	}, logger.NewNoOpLogger())

	_, err := registry.GetOrCreate(context.Background(), "deepwiki")
	require.NoError(t, err)
}

func TestRegistry_ResetDuringInitialization(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	started := make(chan struct{})
	release := make(chan struct{})

	first := mocks.NewMockSession(ctrl)
	first.EXPECT().Initialize(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	})
	first.EXPECT().GetTools().Return(nil).AnyTimes()

	second := mocks.NewMockSession(ctrl)
	second.EXPECT().Initialize(gomock.Any()).Return(nil)
	second.EXPECT().GetTools().Return(nil).AnyTimes()
	second.EXPECT().IsInitialized().Return(true).AnyTimes()

	var created atomic.Int32
	registry := mcp.NewRegistry(testServers, func(cfg mcp.ServerConfig) mcp.Session {
		if created.Add(1) == 1 {
			return first
		}
		return second
	}, logger.NewNoOpLogger())

	type outcome struct {
		session mcp.Session
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		s, err := registry.GetOrCreate(context.Background(), "deepwiki")
		done <- outcome{s, err}
	}()

	<-started
	registry.Reset()
	close(release)

	inFlight := <-done
	require.NoError(t, inFlight.err)
	assert.Same(t, first, inFlight.session)

	got, err := registry.GetOrCreate(context.Background(), "deepwiki")
	require.NoError(t, err)
	assert.Same(t, second, got)
	assert.Equal(t, int32(2), created.Load())

	again, err := registry.GetOrCreate(context.Background(), "deepwiki")
	require.NoError(t, err)
	assert.Same(t, second, again)
}
