package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dshills/nipscore/internal/catalog"
	"github.com/dshills/nipscore/internal/config"
	"github.com/dshills/nipscore/internal/logging"
	"github.com/dshills/nipscore/internal/store"
)

var version = "0.1.0"

// Exit codes.
const (
	exitGeneral   = 1
	exitThreshold = 2
	exitInput     = 3
	exitCheck     = 4
	exitAnswer    = 5
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, ee.msg)
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitGeneral)
	}
}

// app carries the resolved configuration and shared collaborators of one
// command invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	logLevel   string
	logFormat  string
	catalogRef string
	dbPath     string

	cfg *config.Config
	log *logrus.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "nipscore",
		Short:         "Score Neural Imprint Pattern assessments",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Config file (default: ./nipscore.yaml or ~/.config/nipscore/nipscore.yaml)")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&a.logFormat, "log-format", "", "Log format: text or json")
	pf.StringVar(&a.catalogRef, "catalog", "", "Catalog reference: builtin:<name> or a .yaml/.toml file")
	pf.StringVar(&a.dbPath, "db", "", "SQLite database path")

	root.AddCommand(
		newScoreCmd(a),
		newBatchCmd(a),
		newImportCmd(a),
		newCatalogCmd(a),
		newValidateCmd(a),
	)
	return root
}

// setup resolves configuration and builds the logger. Flags override the
// config file and environment.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return exitError(exitInput, "failed to load config: %v", err)
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = a.logFormat
	}
	if flags.Changed("catalog") {
		cfg.Catalog = a.catalogRef
	}
	if flags.Changed("db") {
		cfg.DB = a.dbPath
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, a.stderr)
	if err != nil {
		return exitError(exitInput, "invalid logging config: %v", err)
	}
	a.cfg = cfg
	a.log = logger
	if cfg.File != "" {
		a.log.WithField("file", cfg.File).Debug("config loaded")
	}
	return nil
}

func (a *app) loadCatalog() (*catalog.Catalog, error) {
	a.log.WithField("catalog", a.cfg.Catalog).Debug("loading catalog")
	c, err := catalog.Load(a.cfg.Catalog)
	if err != nil {
		return nil, exitError(exitInput, "failed to load catalog: %v", err)
	}
	return c, nil
}

func (a *app) openStore() (*store.Store, error) {
	a.log.WithField("db", a.cfg.DB).Debug("opening store")
	s, err := store.Open(a.cfg.DB)
	if err != nil {
		return nil, exitError(exitInput, "failed to open database: %v", err)
	}
	return s, nil
}

type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func exitError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}
