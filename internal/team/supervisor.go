package team

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/slacktail/slacktail/internal/domain/entity"
)

// ManagedClient is the slice of the client lifecycle the supervisor
// drives.
type ManagedClient interface {
	Name() string
	Connect(ctx context.Context) error
	Disconnect() error
	SetSink(sink Sink) error
	SetOnError(fn func(error))
	Status() Status
	IsConnected() bool
	SkippedChannels() []entity.SkippedChannel
}

// ClientFactory builds a client for one team configuration.
type ClientFactory func(cfg Config) (ManagedClient, error)

// Supervisor owns the team fleet: it validates and records the
// configuration, builds and connects every client in parallel, evicts
// teams that fail for good, and tears everything down exactly once.
type Supervisor struct {
	factory  ClientFactory
	logger   Logger
	recorder Recorder

	shut atomic.Bool

	mu          sync.Mutex
	sink        MessageSink
	configs     []Config
	clients     map[string]ManagedClient
	order       []string
	counted     map[string]struct{}
	runCtx      context.Context
	initialized bool
}

// NewSupervisor creates an empty supervisor. Clients are built during
// ConnectAll through the given factory.
func NewSupervisor(factory ClientFactory, logger Logger) *Supervisor {
	return &Supervisor{
		factory: factory,
		logger:  logger,
		clients: make(map[string]ManagedClient),
		counted: make(map[string]struct{}),
	}
}

// SetSink installs the destination every team's messages feed into. It
// must be set before ConnectAll.
func (s *Supervisor) SetSink(sink MessageSink) error {
	if sink == nil {
		return ErrNilSink
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = sink
	return nil
}

// SetRecorder installs the metrics recorder. A nil recorder disables
// recording.
func (s *Supervisor) SetRecorder(r Recorder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorder = r
}

// Initialize validates and records the team configurations. It builds no
// clients yet and can run once per supervisor lifetime.
func (s *Supervisor) Initialize(configs []Config) error {
	if s.shut.Load() {
		return ErrShuttingDown
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return ErrAlreadyInitialized
	}
	if len(configs) == 0 {
		return ErrNoTeams
	}

	seen := make(map[string]struct{}, len(configs))
	for _, cfg := range configs {
		switch {
		case cfg.Name == "":
			return fmt.Errorf("team with empty name")
		case cfg.AppToken == "":
			return fmt.Errorf("team %s: missing app token", cfg.Name)
		case cfg.BotToken == "":
			return fmt.Errorf("team %s: missing bot token", cfg.Name)
		case len(cfg.Channels) == 0:
			return fmt.Errorf("team %s: no channels configured", cfg.Name)
		}
		if _, dup := seen[cfg.Name]; dup {
			return fmt.Errorf("duplicate team name %q", cfg.Name)
		}
		seen[cfg.Name] = struct{}{}
	}

	s.configs = make([]Config, len(configs))
	copy(s.configs, configs)
	s.initialized = true

	s.logger.Info("supervisor initialized", "teams", len(configs))
	return nil
}

// dispatch feeds one message into the shared sink. Sink failures are
// logged per team and swallowed so they never propagate to the client.
func (s *Supervisor) dispatch(msg entity.Message) {
	s.mu.Lock()
	ctx := s.runCtx
	sink := s.sink
	s.mu.Unlock()

	if sink == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if err := sink.ProcessMessage(ctx, msg); err != nil {
		s.logger.Error("processing message",
			"team", msg.TeamName,
			"channel", msg.ChannelID,
			"error", err,
		)
	}
}

// ConnectAll builds one client per recorded team, wires it, and connects
// every client in parallel. Individual failures are logged and tolerated;
// only zero surviving connections is an error.
func (s *Supervisor) ConnectAll(ctx context.Context) error {
	if s.shut.Load() {
		return ErrShuttingDown
	}

	s.mu.Lock()
	switch {
	case !s.initialized:
		s.mu.Unlock()
		return ErrNotInitialized
	case s.sink == nil:
		s.mu.Unlock()
		return ErrNilSink
	}
	s.runCtx = ctx
	configs := s.configs
	recorder := s.recorder
	s.mu.Unlock()

	clients := make([]ManagedClient, 0, len(configs))
	for _, cfg := range configs {
		client, err := s.buildClient(cfg)
		if err != nil {
			s.logger.Error("building team client", "team", cfg.Name, "error", err)
			continue
		}
		clients = append(clients, client)
	}

	var wg sync.WaitGroup
	for _, client := range clients {
		wg.Add(1)
		go func(c ManagedClient) {
			defer wg.Done()
			if err := c.Connect(ctx); err != nil {
				s.logger.Warn("team connect failed", "team", c.Name(), "error", err)
			}
		}(client)
	}
	wg.Wait()

	connected := 0
	s.mu.Lock()
	for name, client := range s.clients {
		if client.IsConnected() {
			connected++
			if _, ok := s.counted[name]; !ok {
				s.counted[name] = struct{}{}
				if recorder != nil {
					recorder.AddConnectedTeams(ctx, 1)
				}
			}
		}
	}
	total := len(s.configs)
	s.mu.Unlock()

	s.logger.Info("team connections established", "connected", connected, "total", total)

	if connected == 0 {
		return fmt.Errorf("%w: %d teams attempted", ErrNoTeamsConnected, total)
	}
	return nil
}

// buildClient creates and wires the client for one team, reusing an
// existing one on repeated ConnectAll calls.
func (s *Supervisor) buildClient(cfg Config) (ManagedClient, error) {
	s.mu.Lock()
	if existing, ok := s.clients[cfg.Name]; ok {
		s.mu.Unlock()
		return existing, nil
	}
	s.mu.Unlock()

	client, err := s.factory(cfg)
	if err != nil {
		return nil, err
	}

	if err := client.SetSink(s.dispatch); err != nil {
		return nil, fmt.Errorf("wiring sink: %w", err)
	}

	name := cfg.Name
	client.SetOnError(func(err error) {
		s.HandleTeamError(name, err)
	})

	s.mu.Lock()
	s.clients[name] = client
	s.order = append(s.order, name)
	s.mu.Unlock()

	return client, nil
}

// HandleTeamError evicts a team that reported a terminal failure. A team
// that still holds a live connection is kept; the remaining teams are
// never touched.
func (s *Supervisor) HandleTeamError(teamName string, err error) {
	s.mu.Lock()
	client, ok := s.clients[teamName]
	if !ok {
		s.mu.Unlock()
		return
	}

	if client.IsConnected() {
		s.mu.Unlock()
		s.logger.Warn("error reported for connected team, keeping",
			"team", teamName,
			"error", err,
		)
		return
	}

	delete(s.clients, teamName)
	for i, name := range s.order {
		if name == teamName {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	_, wasCounted := s.counted[teamName]
	delete(s.counted, teamName)
	ctx := s.runCtx
	recorder := s.recorder
	remaining := len(s.clients)
	s.mu.Unlock()

	s.logger.Error("team evicted",
		"team", teamName,
		"remaining", remaining,
		"error", err,
	)

	if wasCounted && recorder != nil {
		if ctx == nil {
			ctx = context.Background()
		}
		recorder.AddConnectedTeams(ctx, -1)
	}

	// Fire and forget; the evicted client's teardown must not block the
	// caller.
	go func() {
		if derr := client.Disconnect(); derr != nil {
			s.logger.Warn("disconnecting evicted team", "team", teamName, "error", derr)
		}
	}()
}

// Shutdown disconnects every team. The first call does the work; every
// later call returns nil immediately. Safe to call from a signal handler
// goroutine.
func (s *Supervisor) Shutdown() error {
	if !s.shut.CompareAndSwap(false, true) {
		return nil
	}

	s.mu.Lock()
	clients := make([]ManagedClient, 0, len(s.order))
	for _, name := range s.order {
		clients = append(clients, s.clients[name])
	}
	s.clients = make(map[string]ManagedClient)
	s.order = nil
	s.configs = nil
	s.sink = nil
	countedTeams := len(s.counted)
	s.counted = make(map[string]struct{})
	ctx := s.runCtx
	recorder := s.recorder
	s.mu.Unlock()

	if countedTeams > 0 && recorder != nil {
		if ctx == nil {
			ctx = context.Background()
		}
		recorder.AddConnectedTeams(ctx, -int64(countedTeams))
	}

	var (
		errMu sync.Mutex
		errs  []error
	)
	var wg sync.WaitGroup
	for _, client := range clients {
		wg.Add(1)
		go func(c ManagedClient) {
			defer wg.Done()
			if err := c.Disconnect(); err != nil {
				s.logger.Warn("team disconnect failed", "team", c.Name(), "error", err)
				errMu.Lock()
				errs = append(errs, err)
				errMu.Unlock()
			}
		}(client)
	}
	wg.Wait()

	s.logger.Info("supervisor shut down", "teams", len(clients))

	if len(errs) > 0 {
		return fmt.Errorf("shutting down %d of %d teams failed: %w", len(errs), len(clients), errs[0])
	}
	return nil
}

// TeamNames returns the managed team names in configured order.
func (s *Supervisor) TeamNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// ConnectedTeams returns the names of teams holding a live connection,
// sorted for stable output.
func (s *Supervisor) ConnectedTeams() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []string
	for name, client := range s.clients {
		if client.IsConnected() {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// SkippedChannels returns the named team's subscription exclusions, or
// nil for an unknown team.
func (s *Supervisor) SkippedChannels(teamName string) []entity.SkippedChannel {
	s.mu.Lock()
	client, ok := s.clients[teamName]
	s.mu.Unlock()

	if !ok {
		return nil
	}
	return client.SkippedChannels()
}

// ConnectedCount returns how many teams currently hold a live
// connection.
func (s *Supervisor) ConnectedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, client := range s.clients {
		if client.IsConnected() {
			n++
		}
	}
	return n
}

// TeamCount returns the number of managed teams.
func (s *Supervisor) TeamCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// IsInitialized reports whether the configuration was recorded.
func (s *Supervisor) IsInitialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// IsShuttingDown reports whether Shutdown has begun.
func (s *Supervisor) IsShuttingDown() bool {
	return s.shut.Load()
}
