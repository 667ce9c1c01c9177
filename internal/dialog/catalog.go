// Package dialog renders the sentences the skill speaks.
package dialog

import (
	_ "embed"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed dialogs.yaml
var defaultDialogs []byte

// Chooser picks one of n template variants.
type Chooser func(n int) int

// First always picks the first variant.
func First(int) int { return 0 }

// Random picks a variant uniformly.
func Random(n int) int { return rand.Intn(n) }

type Catalog struct {
	templates map[string][]string
	choose    Chooser
}

// Default returns the built-in English catalog.
func Default(choose Chooser) *Catalog {
	c, err := Parse(defaultDialogs, choose)
	if err != nil {
		panic(fmt.Sprintf("embedded dialogs: %v", err))
	}
	return c
}

// Load reads a catalog from path. Dialogs missing from the file fall back to
// the built-in ones.
func Load(path string, choose Chooser) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dialogs: %w", err)
	}

	c, err := Parse(data, choose)
	if err != nil {
		return nil, err
	}

	for name, variants := range Default(choose).templates {
		if _, ok := c.templates[name]; !ok {
			c.templates[name] = variants
		}
	}
	return c, nil
}

func Parse(data []byte, choose Chooser) (*Catalog, error) {
	templates := make(map[string][]string)
	if err := yaml.Unmarshal(data, &templates); err != nil {
		return nil, fmt.Errorf("parsing dialogs: %w", err)
	}
	for name, variants := range templates {
		if len(variants) == 0 {
			return nil, fmt.Errorf("dialog %s has no variants", name)
		}
	}
	if choose == nil {
		choose = First
	}
	return &Catalog{templates: templates, choose: choose}, nil
}

// Render fills the {slot} placeholders of one variant of the named dialog.
// Unknown dialogs render as their name.
func (c *Catalog) Render(name string, slots map[string]string) string {
	variants, ok := c.templates[name]
	if !ok {
		return name
	}

	tmpl := variants[c.choose(len(variants))]
	if len(slots) == 0 {
		return tmpl
	}

	pairs := make([]string, 0, len(slots)*2)
	for k, v := range slots {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.templates))
	for name := range c.templates {
		names = append(names, name)
	}
	return names
}
