package l10n

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuiltinCatalogHasDefaultLocale(t *testing.T) {
	langs, err := NewCatalog("").Languages()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lang, ok := langs["en_US"]
	if !ok {
		t.Fatal("built-in catalog must contain en_US")
	}
	if lang.Name != "English" {
		t.Fatalf("unexpected display name: %q", lang.Name)
	}
}

func TestCatalogFromYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "languages.yaml")
	data := `
- code: en_US
  name: English
  territory: United States
- code: de_DE
  name: Deutsch
- name: missing code, skipped
`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	langs, err := NewCatalog(path).Languages()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(langs) != 2 {
		t.Fatalf("expected 2 languages, got %d", len(langs))
	}
	if langs["de_DE"].Name != "Deutsch" {
		t.Fatalf("unexpected de_DE entry: %+v", langs["de_DE"])
	}
}

func TestCatalogMissingFile(t *testing.T) {
	if _, err := NewCatalog("/nonexistent/languages.yaml").Languages(); err == nil {
		t.Fatal("expected error for missing catalog file")
	}
}

func TestCatalogEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "languages.yaml")
	if err := os.WriteFile(path, []byte("[]\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := NewCatalog(path).Languages(); err == nil {
		t.Fatal("expected error for empty catalog")
	}
}
