// Package l10n provides the language catalog consulted during probing.
package l10n

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/balsa-asanovic/agama/internal/logging"
)

var log = logging.L("l10n")

// Language describes one installable locale.
type Language struct {
	Code      string `yaml:"code"`
	Name      string `yaml:"name"`
	Territory string `yaml:"territory,omitempty"`
}

// Catalog serves the set of languages the installer can configure.
// A YAML data file can extend or replace the built-in set.
type Catalog struct {
	path string
}

// NewCatalog creates a catalog backed by the given YAML file.
// An empty path means the built-in language set.
func NewCatalog(path string) *Catalog {
	return &Catalog{path: path}
}

// Languages returns the available languages keyed by locale code.
// The returned map is a fresh snapshot on every call.
func (c *Catalog) Languages() (map[string]Language, error) {
	if c.path == "" {
		return builtinLanguages(), nil
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("read language catalog: %w", err)
	}

	var entries []Language
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse language catalog %s: %w", c.path, err)
	}

	languages := make(map[string]Language, len(entries))
	for _, lang := range entries {
		if lang.Code == "" {
			log.Warn("skipping catalog entry without locale code", "name", lang.Name)
			continue
		}
		languages[lang.Code] = lang
	}

	if len(languages) == 0 {
		return nil, fmt.Errorf("language catalog %s is empty", c.path)
	}

	return languages, nil
}

func builtinLanguages() map[string]Language {
	entries := []Language{
		{Code: "en_US", Name: "English", Territory: "United States"},
		{Code: "de_DE", Name: "Deutsch", Territory: "Deutschland"},
		{Code: "es_ES", Name: "Español", Territory: "España"},
		{Code: "fr_FR", Name: "Français", Territory: "France"},
		{Code: "cs_CZ", Name: "Čeština", Territory: "Česko"},
		{Code: "pt_BR", Name: "Português", Territory: "Brasil"},
		{Code: "ja_JP", Name: "日本語", Territory: "日本"},
		{Code: "zh_CN", Name: "中文", Territory: "中国"},
	}

	languages := make(map[string]Language, len(entries))
	for _, lang := range entries {
		languages[lang.Code] = lang
	}
	return languages
}
