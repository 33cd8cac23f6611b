package cms

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// OpenGraph holds social preview settings.
type OpenGraph struct {
	Image string `yaml:"og_image"`
}

// SiteData is the site-wide metadata exposed to every template and to
// the sandboxed expression evaluator. Loaded once at startup from
// site.yml; it never changes while the process runs.
type SiteData struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Author      string            `yaml:"author"`
	Keywords    []string          `yaml:"keywords"`
	Social      map[string]string `yaml:"social"`
	OpenGraph   OpenGraph         `yaml:"open_graph"`
	BaseURL     string            `yaml:"base_url"`
}

// SiteCode holds free-form snippet strings (analytics tags and the
// like) keyed by slot name, injected verbatim by templates.
type SiteCode map[string]string

// LoadSiteData reads site metadata from a YAML file. A missing file is
// not an error; the site simply has no metadata.
func LoadSiteData(path string) (SiteData, error) {
	var data SiteData

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return data, nil
	}
	if err != nil {
		return data, fmt.Errorf("reading site data %s: %w", path, err)
	}

	if err := yaml.Unmarshal(raw, &data); err != nil {
		return data, fmt.Errorf("parsing site data %s: %w", path, err)
	}
	return data, nil
}
