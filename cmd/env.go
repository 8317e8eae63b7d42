package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptiq/internal/bandit"
	"github.com/abhisek/adaptiq/internal/config"
	"github.com/abhisek/adaptiq/internal/gaps"
	"github.com/abhisek/adaptiq/internal/knowledge"
	"github.com/abhisek/adaptiq/internal/logger"
	"github.com/abhisek/adaptiq/internal/mastery"
	"github.com/abhisek/adaptiq/internal/peers"
	"github.com/abhisek/adaptiq/internal/qlearn"
	"github.com/abhisek/adaptiq/internal/qtable"
	"github.com/abhisek/adaptiq/internal/reward"
	"github.com/abhisek/adaptiq/internal/skillgraph"
	"github.com/abhisek/adaptiq/internal/store"
	"github.com/abhisek/adaptiq/internal/tutor"
)

// keepSnapshots is how many Q-table snapshots the memory backend retains.
const keepSnapshots = 5

// env is everything a command needs, built from config and flags.
type env struct {
	cfg     *config.Config
	log     *logger.Logger
	store   *store.Store
	graph   *skillgraph.Graph
	mastery *mastery.Service
	model   *knowledge.Model
	table   qlearn.Table
	agent   *qlearn.Agent
	gaps    *gaps.Analyzer
	tutor   *tutor.Service

	restoredUpdates int64 // agent update count right after opening
	dirty           bool  // memory table changed outside Update
	stopTracing     func(context.Context) error
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if v, _ := flags.GetString("db"); v != "" {
		cfg.Store.DSN = v
	}
	if v, _ := flags.GetString("driver"); v != "" {
		cfg.Store.Driver = v
	}
	if v, _ := flags.GetString("qtable"); v != "" {
		cfg.QTable.Backend = v
	}
	if v, _ := flags.GetString("log"); v != "" {
		cfg.Log.Mode = v
	}
	if v, _ := flags.GetBool("trace"); v {
		cfg.Trace.Enabled = true
	}
	return cfg, cfg.Validate()
}

// openEnv wires the store, the agent and the tutor. Callers must Close the
// returned env.
func openEnv(cmd *cobra.Command) (_ *env, err error) {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	e := &env{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			_ = e.Close(context.Background())
		}
	}()

	if e.stopTracing, err = setupTracing(cfg.Trace.Enabled, os.Stderr); err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	dsn := cfg.Store.DSN
	if dsn == "" && cfg.Store.Driver == store.DriverSQLite {
		if dsn, err = store.DefaultDBPath(); err != nil {
			return nil, fmt.Errorf("resolve DB path: %w", err)
		}
	}
	if e.store, err = store.Open(cfg.Store.Driver, dsn); err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if e.graph, err = e.store.Skills().Graph(ctx); err != nil {
		return nil, fmt.Errorf("load skill graph: %w", err)
	}

	e.mastery = mastery.NewService(e.store.Mastery())
	e.model = knowledge.NewModel(e.store.Attempts(), cfg.Knowledge.Window)
	e.gaps = gaps.NewAnalyzer(e.model, e.store.Gaps())

	if e.agent, err = e.openAgent(ctx); err != nil {
		return nil, err
	}
	formats, err := bandit.New(e.store.Bandit(), cfg.Bandit.Epsilon)
	if err != nil {
		return nil, fmt.Errorf("init format bandit: %w", err)
	}

	e.tutor, err = tutor.New(tutor.Deps{
		Graph:    e.graph,
		Mastery:  e.mastery,
		Model:    e.model,
		Agent:    e.agent,
		Gaps:     e.gaps,
		Content:  e.store.Content(),
		Attempts: e.store.Attempts(),
		Logger:   log,
		Bandit:   formats,
		Peers:    peers.NewRecommender(e.store.Attempts(), reward.ExpectedSeconds),
	})
	if err != nil {
		return nil, err
	}
	log.Debug("environment ready",
		"driver", cfg.Store.Driver,
		"qtable", cfg.QTable.Backend,
		"skills", e.graph.Len(),
	)
	return e, nil
}

func (e *env) openAgent(ctx context.Context) (*qlearn.Agent, error) {
	table, err := e.openTable(ctx)
	if err != nil {
		return nil, err
	}
	proj, err := e.projection(ctx)
	if err != nil {
		table.Close()
		return nil, err
	}
	agent, err := qlearn.NewAgent(table, qlearn.Config{
		LearningRate: e.cfg.Agent.LearningRate,
		Discount:     e.cfg.Agent.Discount,
		Exploration:  e.cfg.Agent.Exploration,
		Projection:   proj,
	})
	if err != nil {
		table.Close()
		return nil, fmt.Errorf("init agent: %w", err)
	}
	e.table = table

	if e.cfg.QTable.Backend == "memory" {
		snap, err := e.store.Snapshots().Latest(ctx)
		if err != nil {
			agent.Close()
			return nil, err
		}
		if snap != nil {
			if err := agent.Import(ctx, snap); err != nil {
				// An incompatible snapshot starts the table fresh.
				e.log.Warn("ignoring Q-table snapshot", "error", err)
			} else {
				e.log.Debug("restored Q-table snapshot", "cells", len(snap.Entries))
			}
		}
		stats, err := agent.Stats(ctx)
		if err != nil {
			agent.Close()
			return nil, err
		}
		e.restoredUpdates = stats.Updates
	}
	return agent, nil
}

func (e *env) openTable(ctx context.Context) (qlearn.Table, error) {
	switch e.cfg.QTable.Backend {
	case "memory":
		return qtable.NewMemory(0), nil
	case "sql":
		return e.store.QTable(), nil
	case "redis":
		rc := e.cfg.QTable.Redis
		t, err := qtable.NewRedis(ctx, qtable.RedisOptions{
			Addr:     rc.Addr,
			Password: rc.Password,
			DB:       rc.DB,
			Prefix:   rc.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("open redis Q-table: %w", err)
		}
		return t, nil
	}
	return nil, fmt.Errorf("unknown Q-table backend %q", e.cfg.QTable.Backend)
}

// projection builds the action projection. The slot projection assigns
// every stored content id its own action, in id order.
func (e *env) projection(ctx context.Context) (qlearn.Projection, error) {
	size := e.cfg.Agent.Actions
	if e.cfg.Agent.Projection != "slot" {
		return qlearn.ModuloProjection{Slots: size}, nil
	}
	items, err := e.store.Content().ListContent(ctx, tutor.ContentQuery{})
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	p, err := qlearn.NewSlotProjection(size, ids...)
	if err != nil {
		return nil, fmt.Errorf("slot projection over %d items: %w", len(ids), err)
	}
	return p, nil
}

// Close persists the memory Q-table when it changed, then releases
// everything openEnv acquired.
func (e *env) Close(ctx context.Context) error {
	var errs []error
	if e.agent != nil {
		if e.cfg.QTable.Backend == "memory" {
			errs = append(errs, e.saveSnapshot(ctx))
		}
		errs = append(errs, e.agent.Close())
	}
	if e.store != nil {
		errs = append(errs, e.store.Close())
	}
	if e.stopTracing != nil {
		errs = append(errs, e.stopTracing(ctx))
	}
	e.log.Sync()
	return errors.Join(errs...)
}

func (e *env) saveSnapshot(ctx context.Context) error {
	stats, err := e.agent.Stats(ctx)
	if err != nil {
		return err
	}
	if !e.dirty && stats.Updates == e.restoredUpdates {
		return nil
	}
	snap, err := e.agent.Export(ctx)
	if err != nil {
		return err
	}
	if _, err := e.store.Snapshots().Save(ctx, snap); err != nil {
		return fmt.Errorf("save Q-table snapshot: %w", err)
	}
	e.log.Debug("saved Q-table snapshot", "cells", len(snap.Entries), "updates", snap.Updates)
	return e.store.Snapshots().Prune(ctx, keepSnapshots)
}

// withEnv adapts a command body that needs an env.
func withEnv(run func(cmd *cobra.Command, args []string, e *env) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := e.Close(context.Background()); err == nil {
				err = cerr
			}
		}()
		return run(cmd, args, e)
	}
}
