package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/lumen/pkg/component"
)

// FileName is the manifest looked up in the project root.
const FileName = "lumen.yaml"

// TypeNames are the property type names accepted in a manifest.
var TypeNames = []string{"array", "boolean", "number", "object", "string"}

// Config represents the optional lumen.yaml manifest.
type Config struct {
	Prefix     string            `yaml:"prefix,omitempty"`
	Log        LogConfig         `yaml:"log"`
	Components []ComponentConfig `yaml:"components"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `yaml:"level,omitempty"`
}

// ComponentConfig declares one component.
type ComponentConfig struct {
	Name       string                    `yaml:"name"`
	Extends    string                    `yaml:"extends,omitempty"`
	Inherits   string                    `yaml:"inherits,omitempty"`
	Template   string                    `yaml:"template,omitempty"`
	Properties map[string]PropertyConfig `yaml:"properties,omitempty"`
	Listeners  []ListenerConfig          `yaml:"listeners,omitempty"`
}

// PropertyConfig declares one property.
type PropertyConfig struct {
	Type      TypeList `yaml:"type,omitempty"`
	Attribute string   `yaml:"attribute,omitempty"`
	Default   any      `yaml:"default,omitempty"`
	Event     string   `yaml:"event,omitempty"`
	State     bool     `yaml:"state,omitempty"`
	NoUpdate  bool     `yaml:"noUpdate,omitempty"`
}

// ListenerConfig declares a delegated listener and the action it runs.
type ListenerConfig struct {
	Event    string         `yaml:"event"`
	Selector string         `yaml:"selector,omitempty"`
	Capture  bool           `yaml:"capture,omitempty"`
	Toggle   string         `yaml:"toggle,omitempty"`
	Set      map[string]any `yaml:"set,omitempty"`
	Emit     string         `yaml:"emit,omitempty"`
	Stop     bool           `yaml:"stop,omitempty"`
}

// TypeList is a list of type names. A single scalar is accepted as a list
// of one.
type TypeList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *TypeList) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		*l = TypeList{n.Value}
		return nil
	}
	var names []string
	if err := n.Decode(&names); err != nil {
		return err
	}
	*l = names
	return nil
}

// Resolved contains resolved configuration values.
type Resolved struct {
	Root       string
	ModulePath string
	Prefix     string
	LogLevel   zerolog.Level
	Components []ComponentConfig
}

// LoadOptional reads lumen.yaml if present.
func LoadOptional(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}

	return &cfg, nil
}

// Resolve loads lumen.yaml (if present), resolves defaults and validates
// the component declarations.
func Resolve(dir string) (*Resolved, error) {
	modulePath, err := modulePath(dir)
	if err != nil {
		return nil, err
	}

	cfg, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}

	prefix := strings.TrimSpace(cfg.Prefix)
	if prefix == "" {
		prefix = defaultPrefix(modulePath, dir)
	}
	if !component.ValidName(prefix + "-a") {
		return nil, fmt.Errorf("prefix %q must start with a lowercase letter and contain only lowercase letters, digits, '.', '_' or '-'", prefix)
	}

	level := zerolog.InfoLevel
	if s := strings.TrimSpace(cfg.Log.Level); s != "" {
		if level, err = zerolog.ParseLevel(s); err != nil {
			return nil, fmt.Errorf("log.level: %w", err)
		}
	}

	components := make([]ComponentConfig, len(cfg.Components))
	for i, c := range cfg.Components {
		c.Name = qualify(prefix, c.Name)
		if c.Inherits != "" {
			c.Inherits = qualify(prefix, c.Inherits)
		}
		components[i] = c
	}
	if err := validateComponents(components); err != nil {
		return nil, err
	}

	return &Resolved{
		Root:       dir,
		ModulePath: modulePath,
		Prefix:     prefix,
		LogLevel:   level,
		Components: components,
	}, nil
}

// FindProjectRoot walks up from the current directory to find lumen.yaml
// or go.mod.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		for _, marker := range []string{FileName, "go.mod"} {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a lumen project (no %s or go.mod found)", FileName)
		}
		dir = parent
	}
}

// modulePath returns the module path of dir, or "" without a go.mod.
func modulePath(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read go.mod: %w", err)
	}
	path := modfile.ModulePath(data)
	if path == "" {
		return "", fmt.Errorf("could not determine module path from go.mod")
	}
	return path, nil
}

// defaultPrefix derives a tag prefix from the last module path element,
// or the directory name without a module.
func defaultPrefix(modulePath, dir string) string {
	base := filepath.Base(dir)
	if modulePath != "" {
		modName, _, ok := module.SplitPathVersion(modulePath)
		if ok {
			parts := strings.Split(modName, "/")
			base = parts[len(parts)-1]
		}
	}
	return sanitizePrefix(base)
}

func sanitizePrefix(s string) string {
	var out []rune
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		default:
			// Separators would make the prefix ambiguous with the name.
		}
	}
	if len(out) == 0 {
		return "x"
	}
	if out[0] >= '0' && out[0] <= '9' {
		out = append([]rune{'x'}, out...)
	}
	return string(out)
}

// qualify prefixes names without a dash.
func qualify(prefix, name string) string {
	name = strings.TrimSpace(name)
	if name == "" || strings.Contains(name, "-") {
		return name
	}
	return prefix + "-" + name
}

func validateComponents(components []ComponentConfig) error {
	seen := make(map[string]bool, len(components))
	for _, c := range components {
		if !component.ValidName(c.Name) {
			return fmt.Errorf("components: invalid name %q", c.Name)
		}
		if seen[c.Name] {
			return fmt.Errorf("components: %q declared twice", c.Name)
		}
		seen[c.Name] = true
		if c.Extends != "" {
			if _, ok := component.ExtendsTag(c.Extends); !ok {
				return fmt.Errorf("components.%s: cannot extend %q", c.Name, c.Extends)
			}
		}
		for name, p := range c.Properties {
			for _, typ := range p.Type {
				if !slices.Contains(TypeNames, typ) {
					return fmt.Errorf("components.%s.properties.%s: unknown type %q (want one of %s)",
						c.Name, name, typ, strings.Join(TypeNames, ", "))
				}
			}
		}
		for i, l := range c.Listeners {
			if l.Event == "" {
				return fmt.Errorf("components.%s.listeners[%d]: event is required", c.Name, i)
			}
			if l.Toggle != "" {
				if _, ok := c.Properties[l.Toggle]; !ok && c.Inherits == "" {
					return fmt.Errorf("components.%s.listeners[%d]: toggle names undeclared property %q", c.Name, i, l.Toggle)
				}
			}
		}
	}
	for _, c := range components {
		if c.Inherits != "" && !seen[c.Inherits] {
			return fmt.Errorf("components.%s: inherits unknown component %q", c.Name, c.Inherits)
		}
	}
	return nil
}
