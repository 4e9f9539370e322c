package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gnana997/ambient/pkg/util"
)

const version = "0.1.0-dev"

// errDiagnostics makes the process exit 1 after error diagnostics have
// already been printed.
var errDiagnostics = errSilent("externs have errors")

type errSilent string

func (e errSilent) Error() string { return string(e) }

// app holds the state shared by every command of one invocation.
type app struct {
	configPath string
	jsonOut    bool
	flags      configFlags

	cfg    *Config
	logger *slog.Logger
	stdin  io.Reader
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if _, silent := err.(errSilent); !silent {
			fmt.Fprintln(os.Stderr, "ambient:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{stdin: os.Stdin}

	root := &cobra.Command{
		Use:           "ambient",
		Short:         "Load externs declaration files into an ambient type registry",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", defaultConfigPath, "Path to the project config file")
	pf.BoolVar(&a.jsonOut, "json", false, "Print results as JSON")
	pf.StringSliceVarP(&a.flags.externs, "externs", "e", nil, "Externs file, directory or glob (repeatable); overrides the config")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&a.flags.logFormat, "log-format", "", "Log format: text or json")
	pf.BoolVar(&a.flags.strict, "strict", false, "Abort on the first incompatible redeclaration")
	pf.BoolVar(&a.flags.bundled, "bundled", false, "Also load the bundled externs")
	pf.IntVar(&a.flags.workers, "workers", 0, "Files parsed in parallel (0 picks a default)")
	pf.StringSliceVar(&a.flags.hostTypes, "host-type", nil, "Type provided by the host environment (repeatable)")
	pf.StringSliceVar(&a.flags.exclude, "exclude", nil, "Glob excluded when walking directories (repeatable)")

	root.AddCommand(
		newCheckCmd(a),
		newLookupCmd(a),
		newMembersCmd(a),
		newNamesCmd(a),
		newSynthCmd(a),
		newServeCmd(a),
		newInitCmd(a),
		newSetupCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup loads the project config, applies flag overrides and builds the
// logger. Logs go to stderr; stdout is reserved for command output and the
// MCP transport.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := loadConfig(a.configPath)
	if err != nil {
		return err
	}
	if cfg == nil {
		cfg = defaultConfig()
	}
	a.flags.apply(cmd.Flags(), cfg)
	a.cfg = cfg

	level, err := util.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	format, err := util.ParseLogFormat(cfg.LogFormat)
	if err != nil {
		return err
	}
	a.logger = util.NewLogger(util.LoggerConfig{Level: level, Format: format, Output: cmd.ErrOrStderr()})
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "ambient %s\n", version)
			return nil
		},
	}
}
