// Package trace holds the domain model of a traceable documentation set:
// the project configuration (object types, levels, statuses, link types,
// custom fields) and the index of traceability objects extracted from the
// source documents. It contains no parsing or rendering logic, so every
// other package can import it without cycles.
package trace

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Config is the project configuration, normally read from a tracedoc.yaml
// file at the root of the documentation set. Every field has a sensible
// default, so an empty (or missing) file is valid.
type Config struct {
	// Namespace is the prefix used for all generated CSS classes.
	Namespace string `yaml:"namespace"`

	// CodeStyle is the chroma style used for code listings.
	CodeStyle string `yaml:"codeStyle"`

	// PlantUMLServer overrides the public PlantUML server for graphics.
	PlantUMLServer string `yaml:"plantumlServer"`

	// Types, Levels and Statuses map the raw values used in the documents
	// to the titles displayed in the generated pages.
	Types    map[string]string `yaml:"types"`
	Levels   map[string]string `yaml:"levels"`
	Statuses map[string]string `yaml:"statuses"`

	// LinkTypes declares the relationship options recognized in the
	// traceability directives, with the labels used for each direction.
	LinkTypes []LinkType `yaml:"linkTypes"`

	// CustomFields declares additional metadata options with a display
	// title and an optional enumeration of displayable values.
	CustomFields []CustomField `yaml:"customFields"`

	// Settled lists the statuses considered final. The status consistency
	// check reports settled objects that still link to unsettled ones.
	Settled []string `yaml:"settled"`

	// Coverage lists the object types that must be covered by a link of a
	// given type, for the coverage check.
	Coverage []CoverageRule `yaml:"coverage"`
}

// A LinkType is a named relationship between two objects, like "satisfies".
// The outgoing label is used when rendering the object that declares the
// link, the incoming label when rendering the object being pointed at.
type LinkType struct {
	Name     string `yaml:"name"`
	Outgoing string `yaml:"outgoing"`
	Incoming string `yaml:"incoming"`
}

// A CustomField is a project-specific metadata option. When Values is set,
// the raw option value is replaced by its display title in the output.
type CustomField struct {
	Name   string            `yaml:"name"`
	Title  string            `yaml:"title"`
	Values map[string]string `yaml:"values"`
}

// A CoverageRule requires every object of Type to be the target of at least
// one link of type By.
type CoverageRule struct {
	Type string `yaml:"type"`
	By   string `yaml:"by"`
}

// DefaultConfig returns the configuration used when no tracedoc.yaml exists.
// The defaults provide a workable requirements vocabulary out of the box.
func DefaultConfig() *Config {
	return &Config{
		Namespace: "trace",
		CodeStyle: "github",
		LinkTypes: []LinkType{
			{Name: "satisfies", Outgoing: "Satisfies", Incoming: "Satisfied by"},
			{Name: "refines", Outgoing: "Refines", Incoming: "Refined by"},
			{Name: "verifies", Outgoing: "Verifies", Incoming: "Verified by"},
		},
	}
}

// LoadConfig reads a YAML configuration file and merges it over the
// defaults. A missing file is not an error: the defaults are returned.
func LoadConfig(fileName string) (*Config, error) {

	cfg := DefaultConfig()

	data, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", fileName, err)
	}

	if cfg.Namespace == "" {
		cfg.Namespace = "trace"
	}
	if cfg.CodeStyle == "" {
		cfg.CodeStyle = "github"
	}

	return cfg, nil
}

// LinkType returns the declaration of the given link type name, or nil.
func (c *Config) LinkType(name string) *LinkType {
	for i := range c.LinkTypes {
		if c.LinkTypes[i].Name == name {
			return &c.LinkTypes[i]
		}
	}
	return nil
}

// CustomField returns the declaration of the given custom field name, or nil.
func (c *Config) CustomField(name string) *CustomField {
	for i := range c.CustomFields {
		if c.CustomFields[i].Name == name {
			return &c.CustomFields[i]
		}
	}
	return nil
}

// TypeTitle returns the display title for an object type, falling back to
// the raw value when it is not configured. LevelTitle and StatusTitle do
// the same for levels and statuses.
func (c *Config) TypeTitle(t string) string {
	if title, ok := c.Types[t]; ok {
		return title
	}
	return t
}

func (c *Config) LevelTitle(l string) string {
	if title, ok := c.Levels[l]; ok {
		return title
	}
	return l
}

func (c *Config) StatusTitle(s string) string {
	if title, ok := c.Statuses[s]; ok {
		return title
	}
	return s
}

// IsSettled reports whether a status is listed as final in the project
// configuration.
func (c *Config) IsSettled(status string) bool {
	for _, s := range c.Settled {
		if s == status {
			return true
		}
	}
	return false
}
