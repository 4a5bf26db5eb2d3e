package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/yosssi/gohtml"

	"github.com/go-drift/lumen/cmd/lumen/internal/config"
	"github.com/go-drift/lumen/pkg/component"
	"github.com/go-drift/lumen/pkg/dom"
)

func init() {
	RegisterCommand(&Command{
		Name:  "render",
		Short: "Upgrade a page and print its HTML",
		Long: `Upgrade every component declared in lumen.yaml in an HTML page and
print the resulting document.

Reads from stdin when the file is "-". Components connect in tree order,
so nested components see their parent's render output.`,
		Usage: "lumen render [-o output] [--pretty] <file.html|->",
		Run:   runRender,
	})
}

// renderOptions are the flags shared by render and watch.
type renderOptions struct {
	input  string
	output string
	pretty bool
}

func parseRenderArgs(args []string) (renderOptions, error) {
	var opts renderOptions
	for i := 0; i < len(args); i++ {
		switch arg := args[i]; arg {
		case "-o", "--output":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("%s requires a file path", arg)
			}
			opts.output = args[i+1]
			i++
		case "--pretty":
			opts.pretty = true
		default:
			if opts.input != "" {
				return opts, fmt.Errorf("unexpected argument %q", arg)
			}
			opts.input = arg
		}
	}
	if opts.input == "" {
		return opts, fmt.Errorf("an input file is required")
	}
	return opts, nil
}

func runRender(args []string) error {
	opts, err := parseRenderArgs(args)
	if err != nil {
		return err
	}
	cfg, logger, err := loadProject()
	if err != nil {
		return err
	}
	return renderOnce(cfg, logger, opts)
}

// renderOnce renders opts.input to opts.output, or stdout.
func renderOnce(cfg *config.Resolved, logger zerolog.Logger, opts renderOptions) error {
	var in io.Reader = os.Stdin
	if opts.input != "-" {
		f, err := os.Open(opts.input)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	var buf bytes.Buffer
	if _, err := renderPage(cfg, logger, in, &buf, opts.pretty); err != nil {
		return fmt.Errorf("%s: %w", opts.input, err)
	}

	if opts.output == "" {
		_, err := stdout.Write(buf.Bytes())
		return err
	}
	if err := os.MkdirAll(filepath.Dir(opts.output), 0o755); err != nil {
		return err
	}
	return os.WriteFile(opts.output, buf.Bytes(), 0o644)
}

// upgradePage parses a page and upgrades it with the components of cfg.
func upgradePage(cfg *config.Resolved, logger zerolog.Logger, in io.Reader) (*dom.Document, []*component.Instance, error) {
	defs, err := buildDefinitions(cfg.Components)
	if err != nil {
		return nil, nil, err
	}
	registry := component.NewRegistry(component.WithLogger(logger))
	for _, def := range defs {
		if err := registry.Define(def); err != nil {
			return nil, nil, err
		}
	}
	doc, err := dom.Parse(in, dom.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	instances, err := registry.Upgrade(doc.Root())
	if err != nil {
		return nil, nil, err
	}
	logger.Info().Int("components", len(instances)).Msg("page upgraded")
	return doc, instances, nil
}

// renderPage writes the upgraded page to out and returns its instances.
func renderPage(cfg *config.Resolved, logger zerolog.Logger, in io.Reader, out io.Writer, pretty bool) ([]*component.Instance, error) {
	doc, instances, err := upgradePage(cfg, logger, in)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		return nil, err
	}
	data := buf.Bytes()
	if pretty {
		data = []byte(gohtml.Format(buf.String()) + "\n")
	}
	_, err = out.Write(data)
	return instances, err
}
