// Package play keeps the puzzle instances of the browser sessions in memory.
package play

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/mugshots/internal/broker"
	"github.com/myrjola/mugshots/internal/errors"
	"github.com/myrjola/mugshots/internal/metrics"
	"github.com/myrjola/mugshots/internal/models"
	"github.com/myrjola/mugshots/internal/puzzle"
)

var ErrSessionNotFound = errors.NewSentinel("play session not found")

type CharacterLister interface {
	List(ctx context.Context) ([]models.CharacterRecord, error)
}

type SolutionLister interface {
	List(ctx context.Context) ([]models.SolutionRecord, error)
}

type Config struct {
	// InventorySlots is the size of the character inventory. Zero sizes it to the number of characters.
	InventorySlots int
	Zoom           float64
	Policy         puzzle.ReplacePolicy
	// IdleTimeout is how long an untouched session is kept in memory.
	IdleTimeout time.Duration
}

type Manager struct {
	logger      *slog.Logger
	characters  CharacterLister
	solutions   SolutionLister
	cfg         Config
	metrics     *metrics.Metrics
	indicators  *broker.Broadcaster[uuid.UUID, bool]
	mu          sync.Mutex
	sessions    map[uuid.UUID]*Session
	now         func() time.Time
	sweepPeriod time.Duration
}

func NewManager(
	logger *slog.Logger,
	characters CharacterLister,
	solutions SolutionLister,
	cfg Config,
	m *metrics.Metrics,
	indicators *broker.Broadcaster[uuid.UUID, bool],
) *Manager {
	return &Manager{
		logger:      logger.With(slog.String("source", "PlayManager")),
		characters:  characters,
		solutions:   solutions,
		cfg:         cfg,
		metrics:     m,
		indicators:  indicators,
		mu:          sync.Mutex{},
		sessions:    make(map[uuid.UUID]*Session),
		now:         time.Now,
		sweepPeriod: time.Minute,
	}
}

// Start builds a fresh puzzle from the record store and registers it under a new session ID.
//
// Characters that do not fit in the inventory are skipped and reported in the snapshot.
func (m *Manager) Start(ctx context.Context) (*Session, error) {
	characters, err := m.characters.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list characters")
	}
	solutions, err := m.solutions.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list solutions")
	}

	inventorySlots := m.cfg.InventorySlots
	if inventorySlots == 0 {
		inventorySlots = len(characters)
	}
	session := &Session{
		ID:       uuid.New(),
		mu:       sync.Mutex{},
		puzzle:   nil,
		metrics:  m.metrics,
		now:      m.now,
		lastSeen: m.now(),
		solved:   false,
		skipped:  nil,
	}
	logger := m.logger.With(slog.String("sessionID", session.ID.String()))
	indicator := puzzle.IndicatorFunc(func(visible bool) {
		if visible && !session.solved {
			m.metrics.PuzzlesSolved.Inc()
		}
		session.solved = visible
		m.indicators.Publish(session.ID, visible)
	})
	p, err := puzzle.New(logger, puzzle.Config{
		Board: puzzle.Board{
			puzzle.DefaultInventoryTag: inventorySlots,
			puzzle.DefaultSolutionTag:  len(solutions),
		},
		InventoryTag: puzzle.DefaultInventoryTag,
		SolutionTag:  puzzle.DefaultSolutionTag,
		Zoom:         m.cfg.Zoom,
		Policy:       m.cfg.Policy,
		Resolver:     nil,
		Indicator:    indicator,
	})
	if err != nil {
		return nil, errors.Wrap(err, "new puzzle")
	}
	session.puzzle = p

	for i := range solutions {
		if _, err = p.AddSolution(&solutions[i]); err != nil {
			return nil, errors.Wrap(err, "add solution", slog.String("puzzleID", solutions[i].PuzzleID))
		}
	}
	for i := range characters {
		if _, err = p.AddCharacter(&characters[i]); err != nil {
			if !errors.Is(err, puzzle.ErrNoFreeSlot) {
				return nil, errors.Wrap(err, "add character")
			}
			session.skipped = append(session.skipped, characters[i])
		}
	}
	if len(session.skipped) > 0 {
		logger.LogAttrs(ctx, slog.LevelWarn, "inventory full, characters skipped",
			slog.Int("skipped", len(session.skipped)), slog.Int("inventorySlots", inventorySlots))
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	active := len(m.sessions)
	m.mu.Unlock()
	m.metrics.PuzzlesStarted.Inc()
	m.metrics.ActiveSessions.Set(float64(active))
	logger.LogAttrs(ctx, slog.LevelInfo, "puzzle started",
		slog.Int("characters", len(characters)), slog.Int("solutions", len(solutions)))
	return session, nil
}

// Get returns the session with id. ErrSessionNotFound is returned for unknown or expired sessions.
func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, errors.Wrap(ErrSessionNotFound, "get session", slog.String("sessionID", id.String()))
	}
	return session, nil
}

// Remove discards the session and closes its indicator subscriptions.
func (m *Manager) Remove(id uuid.UUID) {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	active := len(m.sessions)
	m.mu.Unlock()
	if ok {
		m.indicators.Forget(id)
		m.metrics.ActiveSessions.Set(float64(active))
	}
}

// Sweep removes the sessions idle for longer than the idle timeout and returns how many were removed.
func (m *Manager) Sweep() int {
	if m.cfg.IdleTimeout <= 0 {
		return 0
	}
	now := m.now()
	m.mu.Lock()
	var expired []uuid.UUID
	for id, session := range m.sessions {
		if session.idleSince(now) > m.cfg.IdleTimeout {
			expired = append(expired, id)
		}
	}
	m.mu.Unlock()
	for _, id := range expired {
		m.Remove(id)
	}
	return len(expired)
}

// StartSweeper sweeps idle sessions periodically until ctx is done.
func (m *Manager) StartSweeper(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(m.sweepPeriod):
			if removed := m.Sweep(); removed > 0 {
				m.logger.LogAttrs(ctx, slog.LevelInfo, "removed idle sessions", slog.Int("removed", removed))
			}
		}
	}
}
