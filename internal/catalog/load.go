package catalog

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// BuiltinPrefix marks a catalog reference that names an embedded catalog.
const BuiltinPrefix = "builtin:"

var validate = validator.New()

// Load resolves a catalog reference: "builtin:<name>" or a file path.
func Load(ref string) (*Catalog, error) {
	if name, ok := strings.CutPrefix(ref, BuiltinPrefix); ok {
		return LoadBuiltin(name)
	}
	return LoadFile(ref)
}

// LoadBuiltin loads an embedded catalog by name.
func LoadBuiltin(name string) (*Catalog, error) {
	data, err := builtinFS.ReadFile("builtin/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("catalog.LoadBuiltin: unknown catalog %q: %w", name, err)
	}
	c, err := decode(data, ".yaml")
	if err != nil {
		return nil, fmt.Errorf("catalog.LoadBuiltin: %q: %w", name, err)
	}
	return c, nil
}

// LoadFile loads a catalog from a YAML (.yaml, .yml) or TOML (.toml) file.
// Loading only checks field-level validity; use Check for cross-table consistency.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog.LoadFile: %w", err)
	}
	c, err := decode(data, strings.ToLower(filepath.Ext(path)))
	if err != nil {
		return nil, fmt.Errorf("catalog.LoadFile: %s: %w", path, err)
	}
	return c, nil
}

// List returns the names of all embedded catalogs.
func List() ([]string, error) {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n := e.Name()
		if strings.HasSuffix(n, ".yaml") {
			names = append(names, strings.TrimSuffix(n, ".yaml"))
		}
	}
	return names, nil
}

func decode(data []byte, ext string) (*Catalog, error) {
	var c Catalog
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &c); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", ext)
	}
	if c.SchemaVersion > CurrentSchemaVersion {
		return nil, fmt.Errorf("schema_version %d is newer than supported version %d", c.SchemaVersion, CurrentSchemaVersion)
	}
	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return &c, nil
}
