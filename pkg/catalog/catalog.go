// Package catalog loads named time-partitioned source definitions from YAML.
package catalog

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/txn2/timepath/pkg/partition"
	"github.com/txn2/timepath/pkg/source"
)

// Definition declares one time-partitioned source.
type Definition struct {
	Template string `yaml:"template"`
	Timezone string `yaml:"timezone"`
	Policy   string `yaml:"policy"`

	// Marker names a completion-marker filename; empty means the source is
	// validated on existence only.
	Marker string `yaml:"marker,omitempty"`

	// Scheme names the record encoding handed to the execution engine.
	Scheme string `yaml:"scheme,omitempty"`
}

// Catalog is a set of named source definitions.
type Catalog struct {
	Sources map[string]Definition `yaml:"sources"`
}

// Load reads a catalog file, expands ${VAR} environment references, and
// validates every definition.
// The path is expected to come from command line arguments, controlled by the
// operator.
func Load(path string) (*Catalog, error) {
	// #nosec G304 -- path is from CLI args, controlled by operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}

	data = []byte(expandEnvVars(string(data)))

	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	for name, def := range cat.Sources {
		if err := def.validate(); err != nil {
			return nil, fmt.Errorf("source %q: %w", name, err)
		}
	}
	return &cat, nil
}

// Get returns a named definition.
func (c *Catalog) Get(name string) (Definition, error) {
	def, ok := c.Sources[name]
	if !ok {
		return Definition{}, fmt.Errorf("source %q not in catalog", name)
	}
	return def, nil
}

func (d Definition) validate() error {
	if d.Template == "" {
		return fmt.Errorf("template is required")
	}
	if _, err := partition.Template(d.Template).Unit(); err != nil {
		return err
	}
	if _, err := d.Location(); err != nil {
		return err
	}
	if _, err := source.ParsePolicy(d.Policy); err != nil {
		return err
	}
	return nil
}

// Location resolves the definition's time zone. The zone must be declared
// explicitly so resolution is reproducible across hosts.
func (d Definition) Location() (*time.Location, error) {
	if d.Timezone == "" {
		return nil, fmt.Errorf("timezone is required")
	}
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", d.Timezone, err)
	}
	return loc, nil
}

// SourcePolicy resolves the definition's policy.
func (d Definition) SourcePolicy() (source.Policy, error) {
	return source.ParsePolicy(d.Policy)
}

// expandEnvVars expands ${VAR} patterns in the string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}
