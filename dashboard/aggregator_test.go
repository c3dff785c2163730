package dashboard_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sekai-set-on/web-portal/apiclient"
	"github.com/sekai-set-on/web-portal/dashboard"
	"github.com/sekai-set-on/web-portal/gateway"
	"github.com/sekai-set-on/web-portal/internal/backendfake"
	apperrors "github.com/sekai-set-on/web-portal/internal/errors"
	"github.com/sekai-set-on/web-portal/session"
	"github.com/stretchr/testify/require"
)

// fakeGateway records calls and serves a mutable user
type fakeGateway struct {
	mu        sync.Mutex
	user      gateway.User
	keys      []gateway.APIKey
	detailErr error
	deleteErr error
	createErr error
	updateErr error
	// deleteUserErr is returned by UserDelete
	deleteUserErr error
	calls         map[string]int
	// release, when set, blocks each DeleteAPIKey until it receives a value or is closed
	release chan struct{}
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		user: gateway.User{
			Name:                "Aiko",
			Nickname:            "aiko",
			Email:               "aiko@example.jp",
			Activate:            true,
			TotalAPIUsage:       1547,
			AverageSuccessRate:  98.4,
			AverageErrorRate:    1.6,
			AverageResponseTime: 120.5,
		},
		keys: []gateway.APIKey{
			{Identifier: "k1", Title: "first"},
			{Identifier: "k2", Title: "second"},
		},
		calls: make(map[string]int),
	}
}

func (f *fakeGateway) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeGateway) UserDetail(context.Context) (*gateway.APIResponse[gateway.User], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["detail"]++
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	u := f.user
	u.APIKeys = append([]gateway.APIKey(nil), f.keys...)
	return &gateway.APIResponse[gateway.User]{Status: "success", Data: u}, nil
}

func (f *fakeGateway) UserUpdate(_ context.Context, req gateway.UserUpdateRequest) (*gateway.APIResponse[gateway.User], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["update"]++
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.user.Name, f.user.Nickname = req.Name, req.Nickname
	return &gateway.APIResponse[gateway.User]{Status: "success", Data: f.user}, nil
}

func (f *fakeGateway) UserDelete(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["delete-user"]++
	return f.deleteUserErr
}

func (f *fakeGateway) CreateAPIKey(_ context.Context, req gateway.APIKeyCreateRequest) (gateway.APIKeySecret, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["create"]++
	if f.createErr != nil {
		return gateway.APIKeySecret{}, f.createErr
	}
	f.keys = append(f.keys, gateway.APIKey{Identifier: "k3", Title: req.Title, Detail: req.Desc})
	return gateway.NewAPIKeySecret("sso_secret_k3"), nil
}

func (f *fakeGateway) DeleteAPIKey(_ context.Context, identifier string) error {
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["delete-key"]++
	return f.deleteErr
}

func (f *fakeGateway) APIKeyUsage(context.Context) (*gateway.UsageReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["usage"]++
	return &gateway.UsageReport{Status: "success", TotalRequests: 3, Data: f.keys}, nil
}

func TestComputeUsage(t *testing.T) {
	stats := dashboard.ComputeUsage(gateway.User{TotalAPIUsage: 1547, AverageSuccessRate: 98.4, AverageErrorRate: 1.6}, 10000)

	require.Equal(t, 1547, stats.CurrentMonth)
	require.Equal(t, 10000, stats.Limit)
	require.Equal(t, 1522, stats.SuccessfulCalls)
	require.Equal(t, 1.6, stats.ErrorRate)
	require.InDelta(t, 15.47, stats.LimitUsed(), 0.001)

	require.Equal(t, 0, dashboard.ComputeUsage(gateway.User{}, 10000).SuccessfulCalls)
	require.Equal(t, 100.0, dashboard.ComputeUsage(gateway.User{TotalAPIUsage: 20000}, 10000).LimitUsed())
}

func TestLoad(t *testing.T) {
	t.Run("success builds the view", func(t *testing.T) {
		gw := newFakeGateway()
		agg := dashboard.New(gw, session.NewMemoryStore("a", "r"), 0)
		require.Equal(t, dashboard.StatusIdle, agg.Snapshot().Dashboard.Status)

		view, err := agg.Load(context.Background())

		require.NoError(t, err)
		require.Equal(t, "Aiko", view.User.Name)
		require.Nil(t, view.User.APIKeys)
		require.Len(t, view.APIKeys, 2)
		require.Equal(t, dashboard.DefaultMonthlyLimit, view.Usage.Limit)
		require.Equal(t, 1522, view.Usage.SuccessfulCalls)

		snap := agg.Snapshot()
		require.Equal(t, dashboard.StatusReady, snap.Dashboard.Status)
		require.NoError(t, snap.Dashboard.Err)
	})

	t.Run("failure keeps the previous view and records the error", func(t *testing.T) {
		gw := newFakeGateway()
		agg := dashboard.New(gw, nil, 500)
		_, err := agg.Load(context.Background())
		require.NoError(t, err)

		gw.detailErr = errors.New("Failed to fetch user details.")
		_, err = agg.Load(context.Background())

		require.EqualError(t, err, "Failed to fetch user details.")
		snap := agg.Snapshot()
		require.Equal(t, dashboard.StatusError, snap.Dashboard.Status)
		require.Len(t, snap.Dashboard.Value.APIKeys, 2)
		require.Equal(t, 500, snap.Dashboard.Value.Usage.Limit)
	})

	t.Run("refresh picks up backend changes", func(t *testing.T) {
		gw := newFakeGateway()
		agg := dashboard.New(gw, nil, 0)
		_, err := agg.Load(context.Background())
		require.NoError(t, err)

		gw.mu.Lock()
		gw.keys = gw.keys[:1]
		gw.mu.Unlock()
		view, err := agg.Refresh(context.Background())

		require.NoError(t, err)
		require.Len(t, view.APIKeys, 1)
		require.Equal(t, 2, gw.count("detail"))
	})
}

func TestCreateAPIKey(t *testing.T) {
	t.Run("returns the secret once and reloads without it", func(t *testing.T) {
		gw := newFakeGateway()
		agg := dashboard.New(gw, nil, 0)

		secret, err := agg.CreateAPIKey(context.Background(), "CI", "pipeline")

		require.NoError(t, err)
		require.Equal(t, "sso_secret_k3", secret.Reveal())
		require.Equal(t, 1, gw.count("detail"))

		snap := agg.Snapshot()
		require.False(t, snap.CreatingKey)
		require.Len(t, snap.Dashboard.Value.APIKeys, 3)
		require.Equal(t, "CI", snap.Dashboard.Value.APIKeys[2].Title)
	})

	t.Run("failure clears the flag and leaves the view", func(t *testing.T) {
		gw := newFakeGateway()
		agg := dashboard.New(gw, nil, 0)
		_, err := agg.Load(context.Background())
		require.NoError(t, err)
		gw.createErr = errors.New("Failed to create API key.")

		_, err = agg.CreateAPIKey(context.Background(), "CI", "")

		require.EqualError(t, err, "Failed to create API key.")
		snap := agg.Snapshot()
		require.False(t, snap.CreatingKey)
		require.Len(t, snap.Dashboard.Value.APIKeys, 2)
		require.Equal(t, 1, gw.count("detail"))
	})

	t.Run("failed reload still returns the secret", func(t *testing.T) {
		gw := newFakeGateway()
		gw.detailErr = errors.New("boom")
		agg := dashboard.New(gw, nil, 0)

		secret, err := agg.CreateAPIKey(context.Background(), "CI", "")

		require.NoError(t, err)
		require.False(t, secret.IsZero())
		require.Equal(t, dashboard.StatusError, agg.Snapshot().Dashboard.Status)
	})
}

func TestDeleteAPIKey(t *testing.T) {
	t.Run("success removes exactly that key", func(t *testing.T) {
		gw := newFakeGateway()
		agg := dashboard.New(gw, nil, 0)
		_, err := agg.Load(context.Background())
		require.NoError(t, err)

		require.NoError(t, agg.DeleteAPIKey(context.Background(), "k1"))

		keys := agg.Snapshot().Dashboard.Value.APIKeys
		require.Len(t, keys, 1)
		require.Equal(t, "k2", keys[0].Identifier)
	})

	t.Run("failure keeps the list and clears the flag", func(t *testing.T) {
		gw := newFakeGateway()
		gw.deleteErr = errors.New("Failed to delete API key.")
		agg := dashboard.New(gw, nil, 0)
		_, err := agg.Load(context.Background())
		require.NoError(t, err)

		err = agg.DeleteAPIKey(context.Background(), "k1")

		require.EqualError(t, err, "Failed to delete API key.")
		snap := agg.Snapshot()
		require.Len(t, snap.Dashboard.Value.APIKeys, 2)
		require.False(t, snap.Deleting("k1"))
	})

	t.Run("in-flight flag is per key", func(t *testing.T) {
		gw := newFakeGateway()
		gw.release = make(chan struct{})
		agg := dashboard.New(gw, nil, 0)
		_, err := agg.Load(context.Background())
		require.NoError(t, err)

		done := make(chan error, 1)
		go func() { done <- agg.DeleteAPIKey(context.Background(), "k2") }()

		require.Eventually(t, func() bool { return agg.Snapshot().Deleting("k2") }, time.Second, 5*time.Millisecond)
		require.False(t, agg.Snapshot().Deleting("k1"))

		close(gw.release)
		require.NoError(t, <-done)
		require.False(t, agg.Snapshot().Deleting("k2"))
	})

	t.Run("flag stays set while another delete of the same key runs", func(t *testing.T) {
		gw := newFakeGateway()
		gw.release = make(chan struct{})
		agg := dashboard.New(gw, nil, 0)
		_, err := agg.Load(context.Background())
		require.NoError(t, err)

		done := make(chan error, 2)
		go func() { done <- agg.DeleteAPIKey(context.Background(), "k1") }()
		go func() { done <- agg.DeleteAPIKey(context.Background(), "k1") }()
		require.Eventually(t, func() bool { return agg.Snapshot().Deleting("k1") }, time.Second, 5*time.Millisecond)
		// both calls must be parked before the first is let through
		time.Sleep(20 * time.Millisecond)

		gw.release <- struct{}{}
		require.NoError(t, <-done)
		require.True(t, agg.Snapshot().Deleting("k1"))

		gw.release <- struct{}{}
		require.NoError(t, <-done)
		require.False(t, agg.Snapshot().Deleting("k1"))
		require.Equal(t, 2, gw.count("delete-key"))
	})
}

func TestUpdateUserMergesNameAndNickname(t *testing.T) {
	gw := newFakeGateway()
	agg := dashboard.New(gw, nil, 0)
	_, err := agg.Load(context.Background())
	require.NoError(t, err)

	require.NoError(t, agg.UpdateUser(context.Background(), "Aiko Tanaka", "aikot"))

	user := agg.Snapshot().Dashboard.Value.User
	require.Equal(t, "Aiko Tanaka", user.Name)
	require.Equal(t, "aikot", user.Nickname)
	require.Equal(t, "aiko@example.jp", user.Email)
	require.Equal(t, 1547, user.TotalAPIUsage)

	gw.updateErr = errors.New("Failed to update user.")
	require.Error(t, agg.UpdateUser(context.Background(), "X", "y"))
	require.Equal(t, "Aiko Tanaka", agg.Snapshot().Dashboard.Value.User.Name)
}

func TestUpdateUserBeforeLoad(t *testing.T) {
	gw := newFakeGateway()
	agg := dashboard.New(gw, nil, 0)

	require.NoError(t, agg.UpdateUser(context.Background(), "Aiko Tanaka", "aikot"))

	snap := agg.Snapshot()
	require.Equal(t, 1, gw.count("update"))
	require.Equal(t, dashboard.StatusIdle, snap.Dashboard.Status)
	require.Empty(t, snap.Dashboard.Value.User.Name)
	require.Empty(t, snap.Dashboard.Value.User.Nickname)

	_, err := agg.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Aiko Tanaka", agg.Snapshot().Dashboard.Value.User.Name)
}

func TestSessionEnd(t *testing.T) {
	t.Run("delete user clears the session", func(t *testing.T) {
		gw := newFakeGateway()
		store := session.NewMemoryStore("a", "r")
		agg := dashboard.New(gw, store, 0)

		require.NoError(t, agg.DeleteUser(context.Background()))

		require.False(t, store.HasValidSession())
		require.Empty(t, store.RefreshToken())
		require.Equal(t, dashboard.PhaseEnded, agg.Snapshot().Phase)

		_, err := agg.Load(context.Background())
		require.ErrorIs(t, err, apperrors.ErrSessionEnded)
	})

	t.Run("delete user failure keeps the session", func(t *testing.T) {
		gw := newFakeGateway()
		gw.deleteUserErr = errors.New("Failed to delete user.")
		store := session.NewMemoryStore("a", "r")
		agg := dashboard.New(gw, store, 0)

		err := agg.DeleteUser(context.Background())

		require.EqualError(t, err, "Failed to delete user.")
		require.True(t, store.HasValidSession())
		require.Equal(t, "r", store.RefreshToken())
		require.Equal(t, dashboard.PhaseActive, agg.Snapshot().Phase)

		_, err = agg.Load(context.Background())
		require.NoError(t, err)
	})

	t.Run("logout is local", func(t *testing.T) {
		gw := newFakeGateway()
		store := session.NewMemoryStore("a", "r")
		agg := dashboard.New(gw, store, 0)

		agg.Logout()

		require.False(t, store.HasValidSession())
		require.Equal(t, dashboard.PhaseEnded, agg.Snapshot().Phase)
		require.Equal(t, 0, gw.count("delete-user"))
	})
}

func TestUsageLogs(t *testing.T) {
	gw := newFakeGateway()
	agg := dashboard.New(gw, nil, 0)

	report, err := agg.UsageLogs(context.Background())

	require.NoError(t, err)
	require.Equal(t, 3, report.TotalRequests)
	require.Equal(t, dashboard.StatusReady, agg.Snapshot().UsageLogs.Status)
}

func TestAggregatorAgainstBackend(t *testing.T) {
	backend := backendfake.New()
	defer backend.Close()

	email, err := backend.SeedAccount("ren@example.jp", "ren", "Ren", "password123")
	require.NoError(t, err)
	require.NoError(t, backend.SetUsage(email, 1547, 98.4, 1.6, 88))
	access, refresh, err := backend.SignIn(email)
	require.NoError(t, err)

	client, err := apiclient.New(apiclient.Config{BaseURL: backend.URL()}, nil)
	require.NoError(t, err)
	store := session.NewMemoryStore(access, refresh)
	agg := dashboard.New(gateway.New(client, store), store, 10000)
	ctx := context.Background()

	view, err := agg.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 1522, view.Usage.SuccessfulCalls)
	require.Empty(t, view.APIKeys)

	backend.ExpireAccessTokens()
	secret, err := agg.CreateAPIKey(ctx, "CI", "pipeline")
	require.NoError(t, err)
	require.NotEmpty(t, secret.Reveal())
	require.NotEqual(t, access, store.AccessToken())

	snap := agg.Snapshot()
	require.Len(t, snap.Dashboard.Value.APIKeys, 1)
	require.Equal(t, "CI", snap.Dashboard.Value.APIKeys[0].Title)

	require.NoError(t, agg.DeleteAPIKey(ctx, snap.Dashboard.Value.APIKeys[0].Identifier))
	require.Empty(t, agg.Snapshot().Dashboard.Value.APIKeys)
}
