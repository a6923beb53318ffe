package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Source describes where a secret may come from.
type Source struct {
	// Name is used in error messages.
	Name string
	// File points to a file holding the secret. It wins over Value and Env.
	File string
	// Value is an inline secret from configuration.
	Value string
	// Env names an environment variable consulted last.
	Env string
}

// Load resolves the secret from the first configured source: File, then Value,
// then Env. The result is trimmed and never empty.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	if file := strings.TrimSpace(src.File); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", fmt.Errorf("%s file %q is empty", name, file)
		}
		return secret, nil
	}

	if secret := strings.TrimSpace(src.Value); secret != "" {
		return secret, nil
	}

	if env := strings.TrimSpace(src.Env); env != "" {
		if secret := strings.TrimSpace(os.Getenv(env)); secret != "" {
			return secret, nil
		}
	}

	return "", fmt.Errorf("%s is not configured", name)
}
