package rules

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
)

// Default guidance texts shipped with the binary. A project can override
// any of them by placing <key>.md in its rules directory.
//
//go:embed guidance/*.md
var defaultGuidance embed.FS

// GuidanceKeys is the fixed set of rule resources the workflow consumes:
// one per design kind plus one per host-driven mode.
var GuidanceKeys = []string{
	"design-architecture",
	"design-algorithm",
	"design-interface",
	"implement",
	"reflect",
	"archive",
}

// FileProducer returns a producer that reads <dir>/<key>.md, falling back
// to the embedded default when the project has no override. The read is
// deferred until first access, per the lazy-loading contract.
func FileProducer(dir, key string) Producer {
	return ProducerFunc(func() (string, error) {
		if dir != "" {
			path := filepath.Join(dir, key+".md")
			data, err := os.ReadFile(path)
			if err == nil {
				return string(data), nil
			}
			if !os.IsNotExist(err) {
				return "", fmt.Errorf("reading rule file %s: %w", path, err)
			}
		}

		data, err := defaultGuidance.ReadFile("guidance/" + key + ".md")
		if err != nil {
			return "", fmt.Errorf("no rule file and no embedded default for %q: %w", key, err)
		}
		return string(data), nil
	})
}

// RegisterDefaults registers a file-backed producer for every guidance key.
func RegisterDefaults(c *Cache, dir string) {
	for _, key := range GuidanceKeys {
		c.RegisterLazy(key, FileProducer(dir, key))
	}
}
