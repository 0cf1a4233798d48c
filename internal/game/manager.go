// manager.go — the session registry and lifecycle authority.
package game

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/swex-camp2024-copilot/swex-camp-spellcaster-sub001/internal/models"
)

// BotResolver maps a builtin bot id to its decide function and display
// name. Unknown ids report ok=false.
type BotResolver func(botID string) (decide DecideFunc, name string, ok bool)

// PlayerStore is the persistence collaborator for registered players.
// A lookup miss returns (nil, nil); errors are infrastructure failures.
type PlayerStore interface {
	GetPlayer(ctx context.Context, id string) (*models.Player, error)
	ListPlayers(ctx context.Context) ([]models.Player, error)
}

// ResultSink accepts finished results for durable storage. Failures are
// logged, never propagated into the turn loop.
type ResultSink interface {
	StoreResult(ctx context.Context, sessionID uuid.UUID, result *models.GameResult) error
}

// EventRecorder mirrors session events to an external log (e.g. Redis),
// best-effort.
type EventRecorder interface {
	RecordEvent(ctx context.Context, sessionID uuid.UUID, ev GameEvent) error
}

// Options carries the manager's collaborators and tunables. Every field
// is optional except where noted; nil collaborators disable their
// feature.
type Options struct {
	Bots         BotResolver
	Visualizer   VisualizerBridge
	Players      PlayerStore
	Results      ResultSink
	Recorder     EventRecorder
	TurnDeadline time.Duration // defaults to DefaultTurnDeadline
	MaxTurns     int           // defaults to MaxTurns
	Seed         func() uint64 // engine seed source, defaults to wall clock
}

// Manager owns the session registry and drives each session's turn loop
// as an independent task.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session

	factory  EngineFactory
	bots     BotResolver
	vis      VisualizerBridge
	players  PlayerStore
	results  ResultSink
	recorder EventRecorder
	deadline time.Duration
	maxTurns int
	seed     func() uint64
}

// NewManager creates a manager around the injected engine factory.
func NewManager(factory EngineFactory, opts Options) *Manager {
	m := &Manager{
		sessions: make(map[uuid.UUID]*Session),
		factory:  factory,
		bots:     opts.Bots,
		vis:      opts.Visualizer,
		players:  opts.Players,
		results:  opts.Results,
		recorder: opts.Recorder,
		deadline: opts.TurnDeadline,
		maxTurns: opts.MaxTurns,
		seed:     opts.Seed,
	}
	if m.deadline <= 0 {
		m.deadline = DefaultTurnDeadline
	}
	if m.maxTurns <= 0 {
		m.maxTurns = MaxTurns
	}
	if m.seed == nil {
		m.seed = func() uint64 { return uint64(time.Now().UnixNano()) }
	}
	return m
}

// CreateSession validates both configs, constructs the proxies and the
// engine, optionally spawns a visualizer, registers the session, and
// starts its turn loop. The session id returns synchronously; the match
// runs in the background. No partial session is registered on any
// failure path.
func (m *Manager) CreateSession(ctx context.Context, p1, p2 models.PlayerConfig, visualize bool) (uuid.UUID, error) {
	var proxies [2]BotProxy
	for i, cfg := range []models.PlayerConfig{p1, p2} {
		proxy, err := m.buildProxy(ctx, cfg)
		if err != nil {
			return uuid.Nil, err
		}
		proxies[i] = proxy
	}
	if proxies[0].PlayerID() == proxies[1].PlayerID() {
		return uuid.Nil, validationf("both sides reference player %q", p1.PlayerID)
	}

	ids := [2]string{proxies[0].PlayerID(), proxies[1].PlayerID()}
	adapter, err := m.factory(ids, m.seed())
	if err != nil {
		return uuid.Nil, &InitializationError{Err: err}
	}

	s := &Session{
		ID:        uuid.New(),
		Proxies:   proxies,
		CreatedAt: time.Now().UTC(),
		adapter:   adapter,
		fanout:    NewBroadcaster(),
		deadline:  m.deadline,
		maxTurns:  m.maxTurns,
	}
	logger := log.WithField("session", s.ID)

	if visualize {
		if m.vis == nil {
			logger.Warn("visualization requested but no bridge configured")
		} else if handle, err := m.vis.Spawn(s.ID.String()); err != nil {
			logger.WithError(err).Warn("visualizer spawn failed, continuing without visualization")
		} else {
			s.visEnabled = true
			s.vis = handle
		}
	}

	ctxRun, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	// Seed the replay log with the session_start event before the loop
	// begins so every subscriber sees it first.
	s.mu.Lock()
	view := snapshotSafe(adapter)
	m.appendAndPublishLocked(s, GameEvent{
		Event:     EventSessionStart,
		SessionID: s.ID.String(),
		Turn:      0,
		GameState: &view,
	})
	s.mu.Unlock()

	go m.runSession(ctxRun, s)

	logger.WithFields(log.Fields{
		"p1":        ids[0],
		"p2":        ids[1],
		"visualize": s.visEnabled,
	}).Info("session created")
	return s.ID, nil
}

func (m *Manager) buildProxy(ctx context.Context, cfg models.PlayerConfig) (BotProxy, error) {
	if cfg.PlayerID == "" {
		return nil, validationf("player_id is required")
	}
	switch cfg.Kind {
	case models.KindBuiltin:
		if cfg.BuiltinBotID == "" {
			return nil, validationf("builtin side %q is missing builtin_bot_id", cfg.PlayerID)
		}
		if m.bots == nil {
			return nil, validationf("no builtin bots are configured")
		}
		decide, name, ok := m.bots(cfg.BuiltinBotID)
		if !ok {
			return nil, validationf("unknown builtin bot %q", cfg.BuiltinBotID)
		}
		return &BuiltinBot{ID: cfg.PlayerID, Name: name, Decide: decide}, nil

	case models.KindRemote:
		name := cfg.PlayerID
		if m.players != nil {
			p, err := m.players.GetPlayer(ctx, cfg.PlayerID)
			if err != nil {
				log.WithError(err).WithField("player", cfg.PlayerID).Error("player lookup failed")
				return nil, ErrPlayerNotFound
			}
			if p == nil {
				return nil, ErrPlayerNotFound
			}
			name = p.DisplayName
		}
		return NewRemotePlayer(cfg.PlayerID, name), nil

	default:
		return nil, validationf("unknown player kind %q", cfg.Kind)
	}
}

// GetSession returns the session or ErrSessionNotFound.
func (m *Manager) GetSession(id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// ListActive returns the ids of all non-terminal sessions.
func (m *Manager) ListActive() []uuid.UUID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(m.sessions))
	for id, s := range m.sessions {
		if !s.Terminal() {
			ids = append(ids, id)
		}
	}
	return ids
}

// SubmitAction routes an action to the matching remote side's pending
// slot. The submission must name the session's current in-flight turn;
// anything else is rejected without touching the slot.
func (m *Manager) SubmitAction(sessionID uuid.UUID, playerID string, turn int, action models.Action) error {
	s, err := m.GetSession(sessionID)
	if err != nil {
		return err
	}
	proxy := s.proxyFor(playerID)
	if proxy == nil {
		return ErrPlayerNotFound
	}
	remote, ok := proxy.(*RemotePlayer)
	if !ok {
		return mismatchf("player %q is a builtin side", playerID)
	}
	if s.Terminal() {
		return mismatchf("session has finished")
	}
	current := int(s.collecting.Load())
	if current == 0 || turn != current {
		return mismatchf("turn %d is not open for submissions (current: %d)", turn, current)
	}
	return remote.offer(models.ActionSubmission{PlayerID: playerID, Turn: turn, Action: action})
}

// CleanupSession cancels the turn loop if still running, terminates the
// visualizer if one was spawned, and removes the session from the
// registry. Idempotent: cleaning an unknown or already-cleaned session
// is a no-op.
func (m *Manager) CleanupSession(id uuid.UUID) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return
	}

	if s.cancel != nil {
		s.cancel()
	}

	s.mu.Lock()
	s.terminal = true
	handle := s.vis
	wasEnabled := s.visEnabled
	s.vis = nil
	s.visEnabled = false
	s.mu.Unlock()

	s.fanout.CloseAll()
	if wasEnabled && handle != nil {
		handle.Terminate()
	}
	log.WithField("session", id).Info("session cleaned up")
}

// persistResult hands the finished result to the sink asynchronously;
// sessions keep running even when persistence is down.
func (m *Manager) persistResult(sessionID uuid.UUID, result *models.GameResult) {
	if m.results == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.results.StoreResult(ctx, sessionID, result); err != nil {
			log.WithError(err).WithField("session", sessionID).Error("failed to persist game result")
		}
	}()
}

// recordEvent mirrors one event to the external recorder asynchronously.
func (m *Manager) recordEvent(sessionID uuid.UUID, ev GameEvent) {
	if m.recorder == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := m.recorder.RecordEvent(ctx, sessionID, ev); err != nil {
			log.WithError(err).WithField("session", sessionID).Error("failed to record session event")
		}
	}()
}

// ListPlayers exposes the registered-player read path for the transport
// layer. Returns an empty list when no store is configured.
func (m *Manager) ListPlayers(ctx context.Context) ([]models.Player, error) {
	if m.players == nil {
		return []models.Player{}, nil
	}
	return m.players.ListPlayers(ctx)
}
