package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// FamiliesConfig holds the registry of family graphs (read/write).
type FamiliesConfig struct {
	Families map[string]FamilyEntry `yaml:"families,omitempty"`
}

// FamilyEntry holds metadata for one family graph.
type FamilyEntry struct {
	Description string `yaml:"description,omitempty"`
}

// LoadFamilies loads the families registry from the .kin directory.
func LoadFamilies(basePath string) (*FamiliesConfig, error) {
	data, err := os.ReadFile(FamiliesFilePath(basePath))
	if os.IsNotExist(err) {
		// Return empty config if file doesn't exist
		return &FamiliesConfig{
			Families: make(map[string]FamilyEntry),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading families file: %w", err)
	}

	var cfg FamiliesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing families file: %w", err)
	}

	if cfg.Families == nil {
		cfg.Families = make(map[string]FamilyEntry)
	}

	return &cfg, nil
}

// Save writes the registry to the families file.
func (f *FamiliesConfig) Save(basePath string) error {
	configDir := filepath.Join(basePath, DefaultConfigDir)

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshaling families config: %w", err)
	}

	if err := os.WriteFile(FamiliesFilePath(basePath), data, 0600); err != nil {
		return fmt.Errorf("writing families file: %w", err)
	}

	return nil
}

// Add registers a family.
func (f *FamiliesConfig) Add(name string, entry FamilyEntry) {
	if f.Families == nil {
		f.Families = make(map[string]FamilyEntry)
	}
	f.Families[name] = entry
}

// Remove unregisters a family.
func (f *FamiliesConfig) Remove(name string) {
	if f.Families != nil {
		delete(f.Families, name)
	}
}

// Exists checks if a family is registered.
func (f *FamiliesConfig) Exists(name string) bool {
	_, ok := f.Families[name]
	return ok
}

// Names returns the registered family names in sorted order.
func (f *FamiliesConfig) Names() []string {
	names := make([]string, 0, len(f.Families))
	for name := range f.Families {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the entry for a family.
func (f *FamiliesConfig) Get(name string) (*FamilyEntry, error) {
	if len(f.Families) == 0 {
		return nil, errors.New("no families configured (run 'kin init' first)")
	}

	entry, ok := f.Families[name]
	if !ok {
		names := f.Names()
		if len(names) > 5 {
			names = append(names[:5], "...")
		}
		return nil, fmt.Errorf("family %q not found (available: %s)", name, strings.Join(names, ", "))
	}

	return &entry, nil
}
