package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed data/catalog.yaml
var rawCatalog []byte

// API describes one hosted inference API.
type API struct {
	Name           string `yaml:"name"`
	DisplayName    string `yaml:"display_name"`
	Description    string `yaml:"description"`
	Path           string `yaml:"path"`
	CreditsPerCall int64  `yaml:"credits_per_call"`
}

// Package is a purchasable credit bundle.
type Package struct {
	Name         string  `yaml:"name"`
	DisplayName  string  `yaml:"display_name"`
	Amount       float64 `yaml:"amount"`
	Credits      int64   `yaml:"credits"`
	BonusPercent int     `yaml:"bonus_percent"`
}

// BonusCredits returns the bonus granted when buying this package.
func (p Package) BonusCredits() int64 {
	return p.Credits * int64(p.BonusPercent) / 100
}

// Catalog is the full embedded offering.
type Catalog struct {
	APIs     []API     `yaml:"apis"`
	Packages []Package `yaml:"packages"`
}

// Load parses and validates the embedded catalog.
func Load() (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(rawCatalog, &c); err != nil {
		return nil, fmt.Errorf("parsing embedded catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid embedded catalog: %w", err)
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	if len(c.APIs) == 0 {
		return fmt.Errorf("no APIs defined")
	}
	seen := make(map[string]bool)
	for _, api := range c.APIs {
		if api.Name == "" || api.Path == "" {
			return fmt.Errorf("API entry missing name or path")
		}
		if seen[api.Name] {
			return fmt.Errorf("duplicate API name %q", api.Name)
		}
		seen[api.Name] = true
		if api.CreditsPerCall < 0 {
			return fmt.Errorf("API %q has negative pricing", api.Name)
		}
	}
	for _, pkg := range c.Packages {
		if pkg.Name == "" || pkg.Credits <= 0 || pkg.Amount <= 0 {
			return fmt.Errorf("package %q is incomplete", pkg.Name)
		}
	}
	return nil
}

// API looks up one hosted API by name.
func (c *Catalog) API(name string) (API, bool) {
	for _, api := range c.APIs {
		if api.Name == name {
			return api, true
		}
	}
	return API{}, false
}

// Package looks up one credit bundle by name.
func (c *Catalog) Package(name string) (Package, bool) {
	for _, pkg := range c.Packages {
		if pkg.Name == name {
			return pkg, true
		}
	}
	return Package{}, false
}
