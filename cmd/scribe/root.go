package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/scribe/internal/config"
	"github.com/dshills/scribe/internal/config/loader"
	"github.com/dshills/scribe/internal/engine"
	"github.com/dshills/scribe/internal/engine/model"
	"github.com/dshills/scribe/internal/engine/schema"
	"github.com/dshills/scribe/internal/logging"
)

// app carries what every command shares once the root command has loaded
// the configuration.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	configPath string
	logLevel   string
	schemaName string
	schemaFile string

	cfg      *config.Config
	logger   *slog.Logger
	registry *schema.Registry
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{in: in, out: out, errOut: errOut, logger: logging.NewNop()}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:               "scribe",
		Short:             "Scribe converts, validates and stores structured documents",
		Long:              `Scribe works with schema-checked rich-text documents in JSON and HTML, and keeps snapshots with their tracked changes in a file or Redis store.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", loader.GetEnvOrDefault("SCRIBE_CONFIG", ""), "TOML or YAML config file")
	pf.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&a.schemaName, "schema", "", "schema name (basic, letter, or the name for --schema-file)")
	pf.StringVar(&a.schemaFile, "schema-file", "", "YAML or TOML schema file")

	root.AddCommand(
		newConvertCmd(a),
		newValidateCmd(a),
		newSchemaCmd(a),
		newStoreCmd(a),
		newVersionCmd(a),
	)
	return root
}

// setup loads the configuration with flags as the top layer.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	var opts []config.LoadOption
	if a.configPath != "" {
		opts = append(opts, config.WithFile(a.configPath))
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		opts = append(opts, config.WithOverride("log.level", a.logLevel))
	}
	if flags.Changed("schema") {
		opts = append(opts, config.WithOverride("schema.name", a.schemaName))
	}
	if flags.Changed("schema-file") {
		opts = append(opts, config.WithOverride("schema.path", a.schemaFile))
		if !flags.Changed("schema") {
			name := strings.TrimSuffix(filepath.Base(a.schemaFile), filepath.Ext(a.schemaFile))
			opts = append(opts, config.WithOverride("schema.name", name))
		}
	}

	cfg, err := config.Load(opts...)
	if err != nil {
		return err
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger, err := logging.NewWithFormat(a.errOut, level, cfg.Log.Format)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.registry = schema.NewRegistry()
	a.logger.Debug("configuration loaded", "config", a.configPath, "schema", cfg.Schema.Name, "store", cfg.Store.Backend)
	return nil
}

// schema resolves the configured schema.
func (a *app) schema() (*schema.Schema, error) {
	return engine.ResolveSchema(a.registry, a.cfg.Schema)
}

// readInput reads the named file, or stdin for "" and "-".
func (a *app) readInput(name string) ([]byte, error) {
	if name == "" || name == "-" {
		return io.ReadAll(a.in)
	}
	return os.ReadFile(name)
}

// formatFor picks a format from a flag value, falling back to the file
// extension.
func formatFor(flag, name string) (engine.Format, error) {
	if flag != "" {
		return engine.ParseFormat(flag)
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return engine.FormatJSON, nil
	case ".html", ".htm":
		return engine.FormatHTML, nil
	case ".txt":
		return engine.FormatText, nil
	}
	return "", fmt.Errorf("cannot tell the format of %q; use --from", name)
}

// decode reads a document in the given (or detected) format.
func (a *app) decode(name, fromFlag string) (*model.Node, *schema.Schema, error) {
	s, err := a.schema()
	if err != nil {
		return nil, nil, err
	}
	format, err := formatFor(fromFlag, name)
	if err != nil {
		return nil, nil, err
	}
	data, err := a.readInput(name)
	if err != nil {
		return nil, nil, err
	}
	doc, err := engine.Decode(s, format, data)
	if err != nil {
		return nil, nil, err
	}
	return doc, s, nil
}
