// Package cmd implements the lumen CLI: a root dispatcher and the render,
// watch and inspect commands.
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/go-drift/lumen/cmd/lumen/internal/config"
	"github.com/go-drift/lumen/pkg/errors"
)

// Version information set at build time.
var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
)

// Command is a lumen subcommand.
type Command struct {
	Name  string
	Short string
	Long  string
	Usage string
	Run   func(args []string) error
}

const rootLong = `Lumen upgrades HTML pages with reactive components declared in
lumen.yaml. Components own their light children, reflect properties to
attributes and render through slots.

Use "lumen <command> --help" for more information about a command.`

var (
	commands = make(map[string]*Command)
	// ordered keeps registration order for help output.
	ordered []*Command
)

// RegisterCommand adds cmd to the CLI. Commands register from init.
func RegisterCommand(cmd *Command) {
	if _, dup := commands[cmd.Name]; dup {
		panic("lumen: command registered twice: " + cmd.Name)
	}
	commands[cmd.Name] = cmd
	ordered = append(ordered, cmd)
}

var (
	projectDir string
	debug      bool
	stdout     io.Writer = os.Stdout
)

// globals holds the flags accepted before or between command arguments.
type globals struct {
	dir     string
	debug   bool
	help    bool
	version bool
	rest    []string
}

// parseGlobals extracts the global flags. Help and version only count when
// they come before the command name.
func parseGlobals(args []string) (globals, error) {
	var g globals
	for i := 0; i < len(args); i++ {
		arg := args[i]
		beforeCommand := len(g.rest) == 0
		switch {
		case arg == "--debug":
			g.debug = true
		case arg == "--dir":
			if i+1 >= len(args) {
				return g, fmt.Errorf("--dir requires a directory path")
			}
			i++
			g.dir = args[i]
		case strings.HasPrefix(arg, "--dir="):
			g.dir = strings.TrimPrefix(arg, "--dir=")
		case beforeCommand && (arg == "-h" || arg == "--help" || arg == "help"):
			g.help = true
		case beforeCommand && (arg == "-v" || arg == "--version" || arg == "version"):
			g.version = true
		default:
			g.rest = append(g.rest, arg)
		}
	}
	return g, nil
}

// Execute runs the CLI with args, the command line without the program name.
func Execute(args []string) error {
	g, err := parseGlobals(args)
	if err != nil {
		return err
	}
	projectDir, debug = g.dir, g.debug

	switch {
	case g.version:
		fmt.Fprintf(stdout, "lumen %s (built %s)\n", Version, BuildTime)
		return nil
	case g.help || len(g.rest) == 0:
		printHelp(stdout)
		return nil
	}

	cmd, ok := commands[g.rest[0]]
	if !ok {
		printHelp(os.Stderr)
		return fmt.Errorf("unknown command %q", g.rest[0])
	}
	cmdArgs := g.rest[1:]
	for _, arg := range cmdArgs {
		if arg == "-h" || arg == "--help" {
			printCommandHelp(stdout, cmd)
			return nil
		}
	}
	return cmd.Run(cmdArgs)
}

// loadProject resolves the manifest of the project and installs the error
// handler.
func loadProject() (*config.Resolved, zerolog.Logger, error) {
	root := projectDir
	if root == "" {
		var err error
		if root, err = config.FindProjectRoot(); err != nil {
			return nil, zerolog.Nop(), err
		}
	}
	cfg, err := config.Resolve(root)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	level := cfg.LogLevel
	if debug {
		level = zerolog.DebugLevel
	}
	errors.SetHandler(errors.NewLogHandler(zerolog.ConsoleWriter{Out: os.Stderr}, debug))
	return cfg, newLogger(os.Stderr, level), nil
}

func newLogger(out io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: out}).
		Level(level).
		With().Timestamp().Str("component", "lumen").
		Logger()
}

func printHelp(w io.Writer) {
	var b strings.Builder
	b.WriteString(rootLong + "\n\nUsage:\n  lumen [--dir DIR] [--debug] <command> [flags]\n\nCommands:\n")
	for _, c := range ordered {
		fmt.Fprintf(&b, "  %-10s %s\n", c.Name, c.Short)
	}
	b.WriteString(`
Flags:
  -h, --help      Show help for a command
  -v, --version   Show version information
  --dir DIR       Project root (default: nearest lumen.yaml or go.mod)
  --debug         Log at debug level with stack traces
`)
	io.WriteString(w, b.String())
}

func printCommandHelp(w io.Writer, cmd *Command) {
	fmt.Fprintf(w, "%s\n\nUsage:\n  %s\n", cmd.Long, cmd.Usage)
}
