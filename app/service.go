// Package app wires a configured grid simulation: the agent tree, its
// message fabric and the observation stack around them.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kilianp07/gridsim/api/grid"
	"github.com/kilianp07/gridsim/app/plugins"
	"github.com/kilianp07/gridsim/config"
	"github.com/kilianp07/gridsim/core/agent"
	"github.com/kilianp07/gridsim/core/clock"
	"github.com/kilianp07/gridsim/core/events"
	corefabric "github.com/kilianp07/gridsim/core/fabric"
	"github.com/kilianp07/gridsim/core/gridstatus"
	coremetrics "github.com/kilianp07/gridsim/core/metrics"
	"github.com/kilianp07/gridsim/core/model"
	coremon "github.com/kilianp07/gridsim/core/monitoring"
	"github.com/kilianp07/gridsim/core/readings"
	"github.com/kilianp07/gridsim/core/topology"
	"github.com/kilianp07/gridsim/core/weather"
	"github.com/kilianp07/gridsim/infra/fabric"
	"github.com/kilianp07/gridsim/infra/logger"
	"github.com/kilianp07/gridsim/infra/metrics"
	"github.com/kilianp07/gridsim/pkg/export"
)

// Service runs one simulation of a configured grid.
type Service struct {
	cfg     *config.Config
	tree    *topology.Tree
	fab     corefabric.Fabric
	bus     *events.Bus
	clock   *clock.Clock
	runtime *agent.Runtime
	root    agent.Aggregator
	sink    coremetrics.MetricsSink
	store   readings.Store
	status  *gridstatus.MemoryStore
	log     logger.Logger
}

// New parses the topology and builds every agent. Nothing runs until Run.
func New(cfg *config.Config) (svc *Service, err error) {
	log := logger.New("service")
	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	f, err := plugins.NewFactory()
	if err != nil {
		return nil, err
	}
	tree, err := topology.Parse(cfg.Document(), f)
	if err != nil {
		return nil, err
	}

	fab, err := fabric.New(cfg.Fabric)
	if err != nil {
		return nil, fmt.Errorf("fabric: %w", err)
	}
	closers = append(closers, func() { _ = fab.Close() })

	bus := events.NewBus(cfg.Runtime.EventBuffer)
	closers = append(closers, bus.Close)
	deps := agent.Deps{
		Fabric:   fab,
		Events:   bus,
		Logger:   logger.NewWithLevel,
		Tree:     tree,
		Settings: cfg.Runtime.Settings(),
	}

	clk, err := clock.New(tree.Window, deps)
	if err != nil {
		return nil, fmt.Errorf("clock: %w", err)
	}
	closers = append(closers, clk.Close)
	src, err := weather.NewSource(cfg.Weather)
	if err != nil {
		return nil, err
	}
	wa, err := weather.NewAgent(src, deps)
	if err != nil {
		return nil, fmt.Errorf("weather: %w", err)
	}
	closers = append(closers, wa.Close)

	agents, err := f.Build(tree, deps)
	if err != nil {
		return nil, err
	}
	var root agent.Aggregator
	for _, a := range agents {
		closers = append(closers, a.Close)
		if a.Address() == tree.Root.Address {
			root, _ = a.(agent.Aggregator)
		}
	}
	if root == nil {
		return nil, fmt.Errorf("root %s is not an aggregator", tree.Root.Address)
	}

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.SinkConfigs())
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	store, err := readings.Open(cfg.Logging.Options())
	if err != nil {
		return nil, fmt.Errorf("reading store: %w", err)
	}

	status := gridstatus.NewMemoryStore()
	for _, n := range tree.Nodes() {
		status.Set(gridstatus.Status{Address: n.Address, Type: n.Type, Aggregate: n.Kind == topology.KindNetwork})
	}

	runtimeAgents := append([]agent.Agent{clk, wa}, agents...)
	log.Infof("topology parsed: %d nodes, height %d, %d ticks", len(agents), tree.Height(), tree.Window.Ticks())
	return &Service{
		cfg:     cfg,
		tree:    tree,
		fab:     fab,
		bus:     bus,
		clock:   clk,
		runtime: agent.NewRuntime(log, runtimeAgents...),
		root:    root,
		sink:    sink,
		store:   store,
		status:  status,
		log:     log,
	}, nil
}

// Root returns the address of the root network.
func (s *Service) Root() string { return s.tree.Root.Address }

// Step returns the simulated duration of one tick.
func (s *Service) Step() time.Duration { return s.tree.Window.Step() }

// History returns the grid aggregate of every flushed tick.
func (s *Service) History() []model.PowerReading { return s.root.History() }

// Status returns the live node states.
func (s *Service) Status() gridstatus.Store { return s.status }

// Tree returns the parsed topology.
func (s *Service) Tree() *topology.Tree { return s.tree }

// DrainGrace is how long Run keeps agents alive after the final tick so the
// last aggregation rounds can flush.
func (s *Service) DrainGrace() time.Duration {
	return s.cfg.Runtime.AggregationWindow * time.Duration(s.tree.Height()+1)
}

// Run performs the simulation and blocks until the final tick has been
// aggregated or ctx is canceled. It returns the summary of the root history.
func (s *Service) Run(ctx context.Context) (export.Summary, error) {
	if err := s.runtime.Setup(ctx); err != nil {
		return export.Summary{}, err
	}
	collected := metrics.StartEventCollector(context.WithoutCancel(ctx), s.bus, metrics.Collector{
		Sink:   s.sink,
		Store:  s.store,
		Status: s.status,
		Step:   s.Step(),
		Log:    logger.New("collector"),
	})
	s.serve(ctx)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- s.runtime.Run(runCtx) }()

	var runErr error
	returned := false
	select {
	case <-s.clock.Done():
		s.log.Infof("final tick emitted, draining for %v", s.DrainGrace())
		select {
		case <-time.After(s.DrainGrace()):
		case runErr = <-errc:
			returned = true
		case <-ctx.Done():
		}
	case runErr = <-errc:
		returned = true
	case <-ctx.Done():
		s.log.Warnf("simulation interrupted: %v", ctx.Err())
	}
	cancel()
	if !returned {
		runErr = <-errc
	}

	s.runtime.Close()
	s.bus.Close()
	<-collected
	if d := s.bus.Dropped(); d > 0 {
		s.log.Warnf("%d events dropped by slow observers", d)
	}

	history := s.root.History()
	summary := export.Summarize(history, s.Step())
	s.log.Infof("simulation finished: %d ticks, average %.3f kW, net %.3f kWh, %d degraded",
		summary.Ticks, summary.AverageKW, summary.NetEnergyKWh, summary.Degraded)
	if s.cfg.Export.Enabled() {
		if err := export.Write(s.cfg.Export, s.Root(), history, s.Step()); err != nil {
			return summary, errors.Join(runErr, err)
		}
	}
	return summary, runErr
}

func (s *Service) serve(ctx context.Context) {
	if port := s.cfg.Metrics.PrometheusPort; port != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, port); err != nil {
				s.log.Errorf("prom server: %v", err)
				coremon.CaptureException(err, map[string]string{"module": "prometheus"})
			}
		}()
	}
	if addr := s.cfg.API.Addr; addr != "" {
		go func() {
			if err := ServeAPI(ctx, addr, grid.NewRouter(s, s.store, s.cfg.API.Token)); err != nil {
				s.log.Errorf("api server: %v", err)
				coremon.CaptureException(err, map[string]string{"module": "api"})
			}
		}()
	}
}

// ServeAPI serves h on addr until ctx is canceled.
func ServeAPI(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases the fabric, the reading store and closable sinks.
func (s *Service) Close() error {
	var errs []error
	if err := s.fab.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, err)
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	coremon.Flush(2 * time.Second)
	return errors.Join(errs...)
}
