// Package dashboard aggregates the signed-in user's account, keys and usage into one view
// and applies key and profile changes to it.
package dashboard

import (
	"context"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/sekai-set-on/web-portal/gateway"
	apperrors "github.com/sekai-set-on/web-portal/internal/errors"
	"github.com/sekai-set-on/web-portal/session"
)

// DefaultMonthlyLimit is the monthly call ceiling shown when none is configured
const DefaultMonthlyLimit = 10000

// Gateway is the subset of backend calls the dashboard uses
type Gateway interface {
	UserDetail(ctx context.Context) (*gateway.APIResponse[gateway.User], error)
	UserUpdate(ctx context.Context, req gateway.UserUpdateRequest) (*gateway.APIResponse[gateway.User], error)
	UserDelete(ctx context.Context) error
	CreateAPIKey(ctx context.Context, req gateway.APIKeyCreateRequest) (gateway.APIKeySecret, error)
	DeleteAPIKey(ctx context.Context, identifier string) error
	APIKeyUsage(ctx context.Context) (*gateway.UsageReport, error)
}

// Aggregator holds dashboard state for one session. It is safe for concurrent use; the
// lock is never held across a backend call.
type Aggregator struct {
	gw           Gateway
	store        session.Store
	monthlyLimit int

	mu        sync.Mutex
	phase     Phase
	dashboard Resource[View]
	usageLogs Resource[*gateway.UsageReport]
	creating  bool
	// deleting counts in-flight deletes per identifier
	deleting map[string]int
	// loaded is set once a user projection has been fetched
	loaded bool
}

func New(gw Gateway, store session.Store, monthlyLimit int) *Aggregator {
	if monthlyLimit <= 0 {
		monthlyLimit = DefaultMonthlyLimit
	}
	return &Aggregator{
		gw:           gw,
		store:        store,
		monthlyLimit: monthlyLimit,
		deleting:     make(map[string]int),
	}
}

func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	dash := a.dashboard
	dash.Value = dash.Value.clone()

	deleting := make(map[string]bool, len(a.deleting))
	for id, n := range a.deleting {
		if n > 0 {
			deleting[id] = true
		}
	}

	return Snapshot{
		Phase:        a.phase,
		Dashboard:    dash,
		UsageLogs:    a.usageLogs,
		CreatingKey:  a.creating,
		DeletingKeys: deleting,
	}
}

// Load fetches the user once and rebuilds the view
func (a *Aggregator) Load(ctx context.Context) (View, error) {
	a.mu.Lock()
	if a.phase == PhaseEnded {
		a.mu.Unlock()
		return View{}, apperrors.ErrSessionEnded
	}
	a.dashboard = a.dashboard.loading()
	a.mu.Unlock()

	resp, err := a.gw.UserDetail(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		a.dashboard = a.dashboard.failed(err)
		return a.dashboard.Value.clone(), err
	}

	user := resp.Data
	keys := user.APIKeys
	if keys == nil {
		keys = []gateway.APIKey{}
	}
	user.APIKeys = nil

	view := View{
		User:    user,
		APIKeys: keys,
		Usage:   ComputeUsage(user, a.monthlyLimit),
	}
	a.dashboard = ready(view)
	a.loaded = true
	return view.clone(), nil
}

// Refresh refetches the view after a mutation
func (a *Aggregator) Refresh(ctx context.Context) (View, error) {
	return a.Load(ctx)
}

// CreateAPIKey issues a key and reloads the view. The secret is returned to the caller
// only; the reloaded view lists the key without it. A failed reload does not lose the
// secret.
func (a *Aggregator) CreateAPIKey(ctx context.Context, title, description string) (gateway.APIKeySecret, error) {
	a.mu.Lock()
	if a.phase == PhaseEnded {
		a.mu.Unlock()
		return gateway.APIKeySecret{}, apperrors.ErrSessionEnded
	}
	a.creating = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.creating = false
		a.mu.Unlock()
	}()

	secret, err := a.gw.CreateAPIKey(ctx, gateway.APIKeyCreateRequest{Title: title, Desc: description})
	if err != nil {
		return gateway.APIKeySecret{}, err
	}

	if _, err := a.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("Dashboard reload after key creation failed")
	}
	return secret, nil
}

// DeleteAPIKey deletes one key and removes exactly that entry from the view
func (a *Aggregator) DeleteAPIKey(ctx context.Context, identifier string) error {
	a.mu.Lock()
	if a.phase == PhaseEnded {
		a.mu.Unlock()
		return apperrors.ErrSessionEnded
	}
	a.deleting[identifier]++
	a.mu.Unlock()

	err := a.gw.DeleteAPIKey(ctx, identifier)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.deleting[identifier]--
	if a.deleting[identifier] <= 0 {
		delete(a.deleting, identifier)
	}
	if err != nil {
		return err
	}

	view := a.dashboard.Value.clone()
	view.APIKeys = slices.DeleteFunc(view.APIKeys, func(k gateway.APIKey) bool {
		return k.Identifier == identifier
	})
	a.dashboard.Value = view
	return nil
}

// UpdateUser changes the display name and nickname. Only those two fields of the cached
// user are replaced, and only when a user has been loaded.
func (a *Aggregator) UpdateUser(ctx context.Context, name, nickname string) error {
	a.mu.Lock()
	if a.phase == PhaseEnded {
		a.mu.Unlock()
		return apperrors.ErrSessionEnded
	}
	a.mu.Unlock()

	if _, err := a.gw.UserUpdate(ctx, gateway.UserUpdateRequest{Name: name, Nickname: nickname}); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.loaded {
		return nil
	}
	a.dashboard.Value.User.Name = name
	a.dashboard.Value.User.Nickname = nickname
	return nil
}

// DeleteUser deletes the account, clears the session and ends the dashboard
func (a *Aggregator) DeleteUser(ctx context.Context) error {
	a.mu.Lock()
	if a.phase == PhaseEnded {
		a.mu.Unlock()
		return apperrors.ErrSessionEnded
	}
	a.mu.Unlock()

	if err := a.gw.UserDelete(ctx); err != nil {
		return err
	}
	a.end()
	return nil
}

// Logout clears the session locally; the backend is not called
func (a *Aggregator) Logout() {
	a.end()
}

func (a *Aggregator) end() {
	if a.store != nil {
		a.store.Clear()
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.phase = PhaseEnded
	a.loaded = false
	a.dashboard = Resource[View]{}
	a.usageLogs = Resource[*gateway.UsageReport]{}
}

// UsageLogs fetches every key with its request logs
func (a *Aggregator) UsageLogs(ctx context.Context) (*gateway.UsageReport, error) {
	a.mu.Lock()
	if a.phase == PhaseEnded {
		a.mu.Unlock()
		return nil, apperrors.ErrSessionEnded
	}
	a.usageLogs = a.usageLogs.loading()
	a.mu.Unlock()

	report, err := a.gw.APIKeyUsage(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		a.usageLogs = a.usageLogs.failed(err)
		return nil, err
	}
	a.usageLogs = ready(report)
	return report, nil
}
