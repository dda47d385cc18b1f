// Package profile resolves which backend profile is active and persists the choice.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"promptdeck/internal/logging"
	"promptdeck/internal/models"
)

// PreferenceKey is the storage key holding the active profile identifier.
const PreferenceKey = "apiVersion"

var ErrUnknownProfile = errors.New("unknown backend profile")

// Store is a durable key-value capability for preferences.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Resolver maps the persisted preference onto the profile table.
type Resolver struct {
	profiles models.Profiles
	store    Store
	logger   *slog.Logger
}

// NewResolver returns a resolver over store. A nil store behaves like NopStore.
func NewResolver(profiles models.Profiles, store Store, logger *slog.Logger) *Resolver {
	if store == nil {
		store = NopStore{}
	}
	return &Resolver{profiles: profiles, store: store, logger: logging.OrDefault(logger)}
}

func (r *Resolver) Profiles() models.Profiles {
	return r.profiles
}

// Active returns the persisted profile, falling back to the default when the
// preference is absent, unknown, or unreadable.
func (r *Resolver) Active(ctx context.Context) models.Profile {
	value, ok, err := r.store.Get(ctx, PreferenceKey)
	if err != nil {
		r.logger.Warn("read backend preference failed, using default", "error", err)
		return r.profiles.Default()
	}
	if !ok {
		return r.profiles.Default()
	}
	if p, found := r.profiles.Lookup(models.ProfileID(value)); found {
		return p
	}
	r.logger.Debug("ignoring unknown backend preference", "value", value)
	return r.profiles.Default()
}

// SetActive persists id as the active profile.
func (r *Resolver) SetActive(ctx context.Context, id models.ProfileID) error {
	if _, ok := r.profiles.Lookup(id); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProfile, id)
	}
	if err := r.store.Set(ctx, PreferenceKey, string(id)); err != nil {
		return fmt.Errorf("persist backend preference: %w", err)
	}
	return nil
}

// Toggle switches to the next profile in display order and returns it.
func (r *Resolver) Toggle(ctx context.Context) (models.Profile, error) {
	all := r.profiles.All()
	current := r.Active(ctx)
	next := current
	for i, p := range all {
		if p.ID == current.ID {
			next = all[(i+1)%len(all)]
			break
		}
	}
	if err := r.SetActive(ctx, next.ID); err != nil {
		return current, err
	}
	return next, nil
}

// MemoryStore keeps preferences for the life of the process.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// NopStore never holds anything, so the resolver always yields the default.
// Used by non-interactive runs that must not touch durable state.
type NopStore struct{}

func (NopStore) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (NopStore) Set(context.Context, string, string) error         { return nil }
