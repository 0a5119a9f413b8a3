package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// interpolation patterns, most specific first: ${VAR:-default}, ${VAR}, $VAR.
var (
	reVarWithDefault = regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*):-(.*?)\}`)
	reVarBraced      = regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)\}`)
	reVarBare        = regexp.MustCompile(`\$([A-Z_][A-Z0-9_]*)`)
)

// interpolateEnv expands ${VAR:-default}, ${VAR}, and $VAR references in s
// against the process environment, in that order (most-specific pattern
// wins where two could match the same text).
func interpolateEnv(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}

	s = reVarWithDefault.ReplaceAllStringFunc(s, func(match string) string {
		parts := reVarWithDefault.FindStringSubmatch(match)
		if len(parts) != 3 {
			return match
		}
		if val := os.Getenv(parts[1]); val != "" {
			return val
		}
		return parts[2]
	})

	s = reVarBraced.ReplaceAllStringFunc(s, func(match string) string {
		parts := reVarBraced.FindStringSubmatch(match)
		if len(parts) != 2 {
			return match
		}
		return os.Getenv(parts[1])
	})

	return reVarBare.ReplaceAllStringFunc(s, func(match string) string {
		parts := reVarBare.FindStringSubmatch(match)
		if len(parts) != 2 {
			return match
		}
		return os.Getenv(parts[1])
	})
}

// coerceScalar turns a string into bool/int/float64 when it looks like one;
// a config value that resolved from $FOO=3 should decode as the int 3, not
// the literal string "3".
func coerceScalar(value string) any {
	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.Atoi(value); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return value
}

// expandEnvTree walks a YAML-decoded value tree (map[string]any /
// []any / scalars, as produced by yaml.Unmarshal into interface{}) and
// interpolates environment references in every string leaf, re-typing
// leaves whose expansion now looks numeric or boolean.
func expandEnvTree(data any) any {
	switch v := data.(type) {
	case string:
		expanded := interpolateEnv(v)
		if expanded != v {
			return coerceScalar(expanded)
		}
		return expanded

	case map[string]any:
		result := make(map[string]any, len(v))
		for key, value := range v {
			result[key] = expandEnvTree(value)
		}
		return result

	case []any:
		result := make([]any, len(v))
		for i, item := range v {
			result[i] = expandEnvTree(item)
		}
		return result

	default:
		return v
	}
}

// loadDotEnvFiles loads process environment overrides from .env files in
// priority order: .env.local (highest), then .env. A missing file is not
// an error; a malformed one is.
func loadDotEnvFiles() error {
	for _, file := range []string{".env.local", ".env"} {
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}
