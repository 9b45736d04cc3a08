// Package rubric holds the evaluation rubrics as versioned YAML assets and
// renders them, together with photo metadata, into backend instructions.
//
// Rubric wording is data: changing it means editing (or overriding) a YAML
// file, not touching the audit pipeline.
package rubric

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"photoaudit/internal/exif"
	"photoaudit/internal/logging"
)

//go:embed assets/*.yaml
var assets embed.FS

// Rubric is a fixed instruction template made of ordered sections.
type Rubric struct {
	Name        string    `yaml:"name"`
	Version     int       `yaml:"version"`
	Description string    `yaml:"description"`
	Preamble    string    `yaml:"preamble"`
	Sections    []Section `yaml:"sections"`
	OutputRule  string    `yaml:"output_rule"`
}

// Section is one labeled block of numbered instructions.
type Section struct {
	Title   string   `yaml:"title"`
	Persona string   `yaml:"persona"`
	Heading string   `yaml:"heading"`
	Items   []string `yaml:"items"`
}

// Names lists the embedded rubrics.
func Names() []string {
	entries, err := fs.ReadDir(assets, "assets")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(names)
	return names
}

// Load returns the embedded rubric called name.
func Load(name string) (*Rubric, error) {
	data, err := assets.ReadFile("assets/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("unknown rubric %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return parse(data, name)
}

// LoadFile reads a rubric from a YAML file on disk.
func LoadFile(p string) (*Rubric, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("failed to read rubric: %w", err)
	}
	return parse(data, p)
}

// Resolve prefers an override file and falls back to the embedded rubric.
func Resolve(name, overridePath string) (*Rubric, error) {
	if overridePath != "" {
		logging.Get(logging.CategoryRubric).Info("Loading rubric override from %s", overridePath)
		return LoadFile(overridePath)
	}
	if name == "" {
		name = "audit"
	}
	return Load(name)
}

func parse(data []byte, source string) (*Rubric, error) {
	var r Rubric
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse rubric %s: %w", source, err)
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rubric %s: %w", source, err)
	}
	return &r, nil
}

// Validate checks the structural contract every rubric must keep.
func (r *Rubric) Validate() error {
	if len(r.Sections) == 0 {
		return errors.New("no sections")
	}
	for i, s := range r.Sections {
		if strings.TrimSpace(s.Title) == "" {
			return fmt.Errorf("section %d has no title", i+1)
		}
		if len(s.Items) == 0 {
			return fmt.Errorf("section %q has no items", s.Title)
		}
	}
	if strings.TrimSpace(r.OutputRule) == "" {
		return errors.New("output_rule is required")
	}
	return nil
}

// Titles returns section titles in order.
func (r *Rubric) Titles() []string {
	titles := make([]string, len(r.Sections))
	for i, s := range r.Sections {
		titles[i] = s.Title
	}
	return titles
}

// Render interpolates md into the rubric. The output depends only on the
// rubric and the map contents, never on map iteration order.
func (r *Rubric) Render(md exif.Metadata) string {
	var b strings.Builder

	b.WriteString(strings.TrimRight(r.Preamble, "\n"))
	b.WriteString("\n\nMETADATA:\n")
	if len(md) == 0 {
		b.WriteString("(none)\n")
	}
	for _, line := range md.Lines() {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	for _, s := range r.Sections {
		b.WriteByte('\n')
		b.WriteString(s.Title)
		if s.Persona != "" {
			b.WriteString(" (" + s.Persona + ")")
		}
		if s.Heading != "" {
			b.WriteString(" (" + s.Heading + ")")
		}
		b.WriteByte('\n')
		for i, item := range s.Items {
			b.WriteString(strconv.Itoa(i+1))
			b.WriteString(". ")
			b.WriteString(item)
			b.WriteByte('\n')
		}
	}

	b.WriteByte('\n')
	b.WriteString(r.OutputRule)
	b.WriteByte('\n')
	return b.String()
}

// Template renders the rubric with a placeholder in place of metadata.
func (r *Rubric) Template() string {
	return strings.Replace(r.Render(exif.Metadata{}), "(none)", "{metadata}", 1)
}
