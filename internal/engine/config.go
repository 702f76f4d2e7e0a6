package engine

import (
	"errors"

	"github.com/dshills/scribe/internal/config"
	"github.com/dshills/scribe/internal/engine/schema"
)

// ResolveSchema returns the schema named by sc. When sc.Path is set the
// file is compiled and registered under sc.Name first, unless a schema of
// that name is already registered.
func ResolveSchema(reg *schema.Registry, sc config.SchemaConfig) (*schema.Schema, error) {
	if reg == nil {
		reg = schema.NewRegistry()
	}
	if sc.Path == "" {
		return reg.Get(sc.Name)
	}

	s, err := reg.Get(sc.Name)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, schema.ErrUnknownSchema) {
		return nil, err
	}
	return reg.LoadFile(sc.Name, sc.Path)
}

// ConfigOptions translates cfg into engine options, resolving the schema
// against reg.
func ConfigOptions(cfg *config.Config, reg *schema.Registry) ([]Option, error) {
	s, err := ResolveSchema(reg, cfg.Schema)
	if err != nil {
		return nil, err
	}

	opts := []Option{
		WithSchema(s),
		WithMaxUndoEntries(cfg.History.Depth),
		WithNewGroupDelay(cfg.History.NewGroupDelay),
		WithTracking(cfg.Tracking.Enabled, cfg.Tracking.User),
		WithStrictValidation(cfg.Editor.StrictValidation),
	}
	if !cfg.Editor.Editable {
		opts = append(opts, WithReadOnly())
	}
	return opts, nil
}
