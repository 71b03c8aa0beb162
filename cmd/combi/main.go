// Command combi runs the built-in grammars over some input and shows
// what the engine made of it.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/clarete/combi"
	"github.com/clarete/combi/internal/settings"
)

// Version is replaced at build time.
var Version = "dev"

type app struct {
	configPath string
	grammar    string
	logLevel   string
	file       string

	settings *settings.Settings
	logger   hclog.Logger
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "combi",
		Short: "Run parser combinator grammars over text",
		Long: `combi matches input against one of its built-in grammars.

Grammars:
` + grammarHelp(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.load(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "settings file (default .combi.yaml in the working or home directory)")
	flags.StringVarP(&a.grammar, "grammar", "g", "", "built-in grammar to use")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	flags.StringVarP(&a.file, "file", "f", "", "read the input from a file, - for stdin")

	root.AddCommand(
		newMatchCommand(a),
		newTreeCommand(a),
		newEvalCommand(a),
		newStatsCommand(a),
		newSettingsCommand(a),
		newVersionCommand(),
	)
	return root
}

// load reads the settings and applies the flags on top of them.
func (a *app) load(cmd *cobra.Command) error {
	s, err := settings.Load(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("grammar") {
		s.Parse.Grammar = a.grammar
	}
	if flags.Changed("log-level") {
		s.Log.Level = a.logLevel
		if err := s.Validate(); err != nil {
			return errors.Wrap(err, "--log-level")
		}
	}
	a.settings = s
	a.logger = hclog.New(&hclog.LoggerOptions{
		Name:   "combi",
		Level:  s.LogLevel(),
		Output: cmd.ErrOrStderr(),
	})
	a.logger.Debug("settings loaded", "grammar", s.Parse.Grammar, "cache", s.Engine.Cache)
	return nil
}

func (a *app) engine(opts ...combi.Option) *combi.Engine {
	return combi.NewEngineFromConfig(a.settings.Config(), append([]combi.Option{combi.WithLogger(a.logger)}, opts...)...)
}

func (a *app) selected() (grammar, error) {
	return lookupGrammar(a.settings.Parse.Grammar)
}

// input returns the text to parse, taken from the arguments or from
// the file given with --file.
func (a *app) input(cmd *cobra.Command, args []string) (string, error) {
	switch {
	case a.file == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), errors.Wrap(err, "reading stdin")
	case a.file != "":
		data, err := os.ReadFile(a.file)
		return string(data), errors.Wrapf(err, "reading %s", a.file)
	case len(args) == 0:
		return "", errors.New("no input, pass it as an argument or with --file")
	default:
		return strings.Join(args, " "), nil
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "combi %s\n", Version)
		},
	}
}

func newSettingsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "settings",
		Short: "Print the effective settings as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := a.settings.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
