// Package client is the listing data manager: one facade over a live backend
// with an in-memory copy, an optional persisted copy and seed data as the
// last fallback for reads.
package client

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"realty_backend/internal/model"
	"realty_backend/pkg/apperror"
	"realty_backend/pkg/seed"

	"github.com/sirupsen/logrus"
)

var ErrBackendUnavailable = errors.New("listing backend unavailable")

type State int32

const (
	StateUninitialized State = iota
	StateWaiting
	StateOnline
	StateOffline
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateOnline:
		return "online"
	case StateOffline:
		return "offline"
	default:
		return "uninitialized"
	}
}

// Source says where a read was served from.
type Source string

const (
	SourceBackend Source = "backend"
	SourceCache   Source = "cache"
	SourceSeed    Source = "seed"
)

type Options struct {
	PollInterval time.Duration
	MaxAttempts  int
	Persister    Persister
	Seed         func() []model.Property
	Log          *logrus.Logger
}

type Manager struct {
	backend   Backend
	persister Persister
	seed      func() []model.Property
	interval  time.Duration
	attempts  int
	log       *logrus.Logger

	mu     sync.RWMutex
	state  State
	cache  []model.Property
	cached bool

	ready chan struct{}
	once  sync.Once
}

func New(backend Backend, opts Options) *Manager {
	m := &Manager{
		backend:   backend,
		persister: opts.Persister,
		seed:      opts.Seed,
		interval:  opts.PollInterval,
		attempts:  opts.MaxAttempts,
		log:       opts.Log,
		ready:     make(chan struct{}),
	}
	if m.seed == nil {
		m.seed = seed.Properties
	}
	if m.interval <= 0 {
		m.interval = 500 * time.Millisecond
	}
	if m.attempts <= 0 {
		m.attempts = 10
	}
	if m.log == nil {
		m.log = logrus.StandardLogger()
	}
	return m
}

// Start loads any persisted copy and begins polling the backend. It returns
// immediately; use Ready or Wait to learn the outcome. Calling it again is a
// no-op.
func (m *Manager) Start(ctx context.Context) {
	m.once.Do(func() {
		m.setState(StateWaiting)
		m.loadPersisted(ctx)
		go m.poll(ctx)
	})
}

func (m *Manager) poll(ctx context.Context) {
	defer close(m.ready)

	for attempt := 1; attempt <= m.attempts; attempt++ {
		err := m.backend.Ping(ctx)
		if err == nil {
			m.setState(StateOnline)
			m.log.WithField("attempt", attempt).Info("Listing backend online")
			return
		}
		m.log.WithError(err).WithField("attempt", attempt).Debug("Listing backend not reachable")

		if attempt == m.attempts {
			break
		}
		select {
		case <-ctx.Done():
			m.setState(StateOffline)
			return
		case <-time.After(m.interval):
		}
	}
	m.setState(StateOffline)
	m.log.WithField("attempts", m.attempts).Warn("Listing backend unavailable, serving cached or seed data")
}

func (m *Manager) loadPersisted(ctx context.Context) {
	if m.persister == nil {
		return
	}
	props, err := m.persister.Load(ctx)
	if err != nil {
		m.log.WithError(err).Warn("Failed to load persisted listings")
		return
	}
	if props == nil {
		return
	}
	m.mu.Lock()
	if !m.cached {
		m.cache, m.cached = props, true
	}
	m.mu.Unlock()
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Ready is closed once the manager is either online or offline.
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// Wait blocks until polling finishes. It returns ErrBackendUnavailable when
// the backend never answered.
func (m *Manager) Wait(ctx context.Context) (State, error) {
	select {
	case <-m.ready:
	case <-ctx.Done():
		return m.State(), ctx.Err()
	}
	s := m.State()
	if s != StateOnline {
		return s, ErrBackendUnavailable
	}
	return s, nil
}

func (m *Manager) live() bool {
	s := m.State()
	return s == StateWaiting || s == StateOnline
}

// Snapshot returns a copy of the best local data: the cached copy if one
// exists, else the seed list.
func (m *Manager) Snapshot() ([]model.Property, Source) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cached {
		out := make([]model.Property, len(m.cache))
		copy(out, m.cache)
		return out, SourceCache
	}
	return m.seed(), SourceSeed
}

// Properties returns every listing, from the backend when it answers.
func (m *Manager) Properties(ctx context.Context) ([]model.Property, Source, error) {
	if m.live() {
		props, err := m.backend.List(ctx)
		if err == nil {
			m.replace(ctx, props)
			return props, SourceBackend, nil
		}
		m.log.WithError(err).Warn("Listing backend read failed, using local data")
	}
	props, src := m.Snapshot()
	return props, src, nil
}

// Get looks a listing up by id, uuid or slug.
func (m *Manager) Get(ctx context.Context, identifier string) (*model.Property, Source, error) {
	if m.live() {
		p, err := m.backend.Get(ctx, identifier)
		if err == nil {
			return p, SourceBackend, nil
		}
		if apperror.Is(err, apperror.KindNotFound) {
			return nil, SourceBackend, err
		}
		m.log.WithError(err).Warn("Listing backend read failed, using local data")
	}
	props, src := m.Snapshot()
	for i := range props {
		if matchesIdentifier(&props[i], identifier) {
			return &props[i], src, nil
		}
	}
	return nil, src, apperror.NotFound("Property")
}

// Search matches the term against the backend, or locally when it is down.
func (m *Manager) Search(ctx context.Context, term string) ([]model.Property, Source, error) {
	if m.live() {
		props, err := m.backend.Search(ctx, term)
		if err == nil {
			return props, SourceBackend, nil
		}
		m.log.WithError(err).Warn("Listing backend search failed, using local data")
	}
	props, src := m.Snapshot()
	return SearchLocal(props, term), src, nil
}

// Filter applies the criteria to the local snapshot.
func (m *Manager) Filter(c Criteria) []model.Property {
	props, _ := m.Snapshot()
	return c.Apply(props)
}

func (m *Manager) Create(ctx context.Context, fields map[string]any) (*model.Property, []string, error) {
	if m.State() != StateOnline {
		return nil, nil, ErrBackendUnavailable
	}
	p, ignored, err := m.backend.Create(ctx, fields)
	if err != nil {
		return nil, nil, err
	}
	m.mutate(ctx, func(cache []model.Property) []model.Property {
		return append(cache, *p)
	})
	return p, ignored, nil
}

func (m *Manager) Update(ctx context.Context, id uint, fields map[string]any) (*model.Property, []string, error) {
	if m.State() != StateOnline {
		return nil, nil, ErrBackendUnavailable
	}
	p, ignored, err := m.backend.Update(ctx, id, fields)
	if err != nil {
		return nil, nil, err
	}
	m.mutate(ctx, func(cache []model.Property) []model.Property {
		for i := range cache {
			if cache[i].ID == p.ID {
				cache[i] = *p
				return cache
			}
		}
		return append(cache, *p)
	})
	return p, ignored, nil
}

func (m *Manager) Delete(ctx context.Context, id uint) error {
	if m.State() != StateOnline {
		return ErrBackendUnavailable
	}
	if err := m.backend.Delete(ctx, id); err != nil {
		return err
	}
	m.mutate(ctx, func(cache []model.Property) []model.Property {
		out := cache[:0]
		for _, p := range cache {
			if p.ID != id {
				out = append(out, p)
			}
		}
		return out
	})
	return nil
}

func (m *Manager) replace(ctx context.Context, props []model.Property) {
	m.mu.Lock()
	m.cache = append([]model.Property(nil), props...)
	m.cached = true
	snapshot := append([]model.Property(nil), m.cache...)
	m.mu.Unlock()
	m.persist(ctx, snapshot)
}

// mutate edits the cached copy in place. Without a cached copy there is
// nothing to keep in sync; the next successful read fills it.
func (m *Manager) mutate(ctx context.Context, fn func([]model.Property) []model.Property) {
	m.mu.Lock()
	if !m.cached {
		m.mu.Unlock()
		return
	}
	m.cache = fn(m.cache)
	snapshot := append([]model.Property(nil), m.cache...)
	m.mu.Unlock()
	m.persist(ctx, snapshot)
}

func (m *Manager) persist(ctx context.Context, props []model.Property) {
	if m.persister == nil {
		return
	}
	if err := m.persister.Save(ctx, props); err != nil {
		m.log.WithError(err).Warn("Failed to persist listings")
	}
}

func matchesIdentifier(p *model.Property, identifier string) bool {
	if id, err := strconv.ParseUint(identifier, 10, 64); err == nil {
		return uint64(p.ID) == id
	}
	return p.UUID == identifier || strings.EqualFold(p.Slug, identifier)
}
