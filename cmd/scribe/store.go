package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/dshills/scribe/internal/config"
	"github.com/dshills/scribe/internal/engine"
	"github.com/dshills/scribe/internal/metrics"
	"github.com/dshills/scribe/internal/store"
	"github.com/dshills/scribe/internal/store/file"
	"github.com/dshills/scribe/internal/store/memory"
	"github.com/dshills/scribe/internal/store/redis"
)

// openStore creates the configured snapshot store.
func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return memory.New(), nil
	case config.BackendFile:
		return file.New(cfg.Dir), nil
	case config.BackendRedis:
		opts := []redis.Option{redis.WithTTL(cfg.Redis.TTL)}
		if cfg.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Redis.Prefix))
		}
		s := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}

func newStoreCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Save and load document snapshots",
		Long: `Snapshots hold a document and its open tracked changes. The backend
is chosen by store.backend (memory, file or redis).`,
	}
	cmd.AddCommand(
		newStoreSaveCmd(a),
		newStoreLoadCmd(a),
		newStoreListCmd(a),
		newStoreShowCmd(a),
		newStoreRemoveCmd(a),
	)
	return cmd
}

// withStore opens the store for the duration of fn.
func (a *app) withStore(ctx context.Context, fn func(store.Store) error) error {
	s, err := openStore(ctx, a.cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			a.logger.Warn("closing store", "error", err)
		}
	}()
	return fn(s)
}

func newStoreSaveCmd(a *app) *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "save <id> [file]",
		Short: "Check a document and save it as a snapshot",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if err := store.ValidateID(id); err != nil {
				return err
			}
			name := ""
			if len(args) > 1 {
				name = args[1]
			}
			format, err := formatFor(from, name)
			if err != nil {
				return err
			}
			data, err := a.readInput(name)
			if err != nil {
				return err
			}

			opts, err := engine.ConfigOptions(a.cfg, a.registry)
			if err != nil {
				return err
			}
			opts = append(opts,
				engine.WithID(id),
				engine.WithContent(format, data),
				engine.WithLogger(a.logger),
			)

			var reg *prometheus.Registry
			if a.cfg.Metrics.Enabled {
				reg = prometheus.NewRegistry()
				m, err := metrics.New(reg, a.cfg.Metrics.Namespace)
				if err != nil {
					return err
				}
				opts = append(opts, engine.WithMetrics(m))
			}

			e, err := engine.New(opts...)
			if err != nil {
				return err
			}
			defer e.Close()

			snap, err := store.Capture(e, id, a.cfg.Schema.Name, time.Now())
			if err != nil {
				return err
			}
			err = a.withStore(cmd.Context(), func(s store.Store) error {
				return s.Save(cmd.Context(), id, snap)
			})
			if err != nil {
				return err
			}
			a.logger.Info("snapshot saved", "id", id, "backend", a.cfg.Store.Backend, "bytes", len(snap.Doc))
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", id)

			if reg != nil {
				return writeMetrics(a.errOut, reg)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "input format (json or html); detected from the extension by default")
	return cmd
}

func newStoreLoadCmd(a *app) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "load <id>",
		Short: "Print a saved document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := engine.ParseFormat(to)
			if err != nil {
				return err
			}
			e, err := a.restore(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer e.Close()

			out, err := e.Content(format)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
	cmd.Flags().StringVar(&to, "to", "json", "output format (json, html or text)")
	return cmd
}

func newStoreShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a snapshot's version and tracked changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.restore(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer e.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s\n", e.ID(), e.ChangeSummary())
			for _, r := range e.Changes() {
				from, to := r.Range()
				fmt.Fprintf(out, "  %s %s by %s at %d..%d\n", r.ID, r.Type, r.User, from, to)
			}
			return nil
		},
	}
}

func newStoreListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List saved snapshot ids",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd.Context(), func(s store.Store) error {
				ids, err := s.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(ids) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No snapshots found.")
					return nil
				}
				for _, id := range ids {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			})
		},
	}
}

func newStoreRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>...",
		Short: "Delete snapshots",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(s store.Store) error {
				var errs []error
				for _, id := range args {
					if err := s.Delete(cmd.Context(), id); err != nil {
						errs = append(errs, fmt.Errorf("delete %s: %w", id, err))
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
				}
				return errors.Join(errs...)
			})
		},
	}
}

// restore loads a snapshot into an engine configured like the current run.
func (a *app) restore(ctx context.Context, id string) (*engine.Engine, error) {
	var snap store.Snapshot
	err := a.withStore(ctx, func(s store.Store) error {
		var err error
		snap, err = s.Load(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	// Registers a file schema under its configured name.
	if _, err := engine.ResolveSchema(a.registry, a.cfg.Schema); err != nil {
		return nil, err
	}
	return store.Restore(snap, a.registry,
		engine.WithLogger(a.logger),
		engine.WithTracking(a.cfg.Tracking.Enabled, a.cfg.Tracking.User),
	)
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
