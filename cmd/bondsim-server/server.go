package main

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/daniacca/bondsim/internal/chem"
	"github.com/daniacca/bondsim/internal/chem/notifiers"
)

// Server wraps one simulation world behind HTTP. The engine itself is
// single-threaded; every handler takes the world mutex, so requests
// and the background ticker serialize on it.
type Server struct {
	mu     sync.Mutex
	world  *chem.World
	logger *zap.SugaredLogger

	events *chem.EventCenter
	stream *notifiers.WebSocketNotifier

	runMu     sync.Mutex
	running   bool
	stopCh    chan struct{}
	autosave  string
	saveEvery int

	tickInterval time.Duration
}

// NewServer builds a server around a fresh world with the given engine
// config. The websocket event stream is always registered; webhooks
// are added per request.
func NewServer(cfg chem.Config, logger *zap.SugaredLogger) *Server {
	events := chem.NewEventCenterWithLogger(logger)
	stream := notifiers.NewWebSocketNotifier("event-stream")
	if err := events.RegisterNotifier(stream); err != nil {
		logger.Errorf("failed to register event stream: %v", err)
	}

	world := chem.NewWorld(cfg)
	world.SetLogger(logger)
	world.SetEventCenter(events)

	return &Server{
		world:        world,
		logger:       logger,
		events:       events,
		stream:       stream,
		tickInterval: 50 * time.Millisecond,
	}
}

// SetAutosave configures periodic snapshot writes while the ticker
// runs. every <= 0 disables them.
func (s *Server) SetAutosave(path string, every int) {
	s.autosave = path
	s.saveEvery = every
}

// Run starts the background ticker stepping the world. A second call
// while running is a no-op; Stop and Run may alternate freely.
func (s *Server) Run(interval time.Duration) {
	s.runMu.Lock()
	if s.running {
		s.runMu.Unlock()
		return
	}
	s.stopCh = make(chan struct{})
	s.running = true
	stopCh := s.stopCh
	s.runMu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		ticks := 0
		for {
			select {
			case <-ticker.C:
				s.mu.Lock()
				s.world.Step()
				ticks++
				save := s.autosave != "" && s.saveEvery > 0 && ticks%s.saveEvery == 0
				var snap chem.Snapshot
				if save {
					snap = s.world.Snapshot()
				}
				s.mu.Unlock()
				if save {
					if err := writeSnapshotFile(s.autosave, snap); err != nil {
						s.logger.Errorf("autosave failed: %v", err)
					}
				}
			case <-stopCh:
				s.runMu.Lock()
				s.running = false
				s.runMu.Unlock()
				return
			}
		}
	}()
}

// Stop halts the background ticker. Safe to call when not running.
func (s *Server) Stop() {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if !s.running {
		return
	}
	close(s.stopCh)
}

// Running reports whether the background ticker is active.
func (s *Server) Running() bool {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.running
}

// Close stops the ticker and shuts down event delivery.
func (s *Server) Close() error {
	s.Stop()
	return s.events.Close()
}
