// Package config handles YAML config file loading for the sideband CLI.
package config

import (
	"os"
	"strings"
)

// ExpandEnv replaces ${VAR} and ${VAR:-default} references in the input
// with environment variable values.
//
// An unset variable without a default expands to the empty string rather
// than erroring; required values fail at downstream validation instead,
// e.g. the archive bucket check. ${VAR:-default} substitutes the default
// when the variable is unset or empty. Malformed references (bad variable
// name, unterminated brace) pass through untouched.
func ExpandEnv(input string) string {
	var b strings.Builder
	for {
		start := strings.Index(input, "${")
		if start < 0 {
			b.WriteString(input)
			return b.String()
		}
		b.WriteString(input[:start])
		rest := input[start+2:]

		end := strings.IndexByte(rest, '}')
		if end < 0 {
			b.WriteString(input[start:])
			return b.String()
		}
		b.WriteString(expandRef(rest[:end]))
		input = rest[end+1:]
	}
}

// expandRef resolves the inside of one ${...} reference.
func expandRef(ref string) string {
	name, def, hasDefault := strings.Cut(ref, ":-")
	if !validEnvName(name) {
		return "${" + ref + "}"
	}
	if value, ok := os.LookupEnv(name); ok && value != "" {
		return value
	}
	if hasDefault {
		return def
	}
	return ""
}

// validEnvName reports whether s is a POSIX-style variable name: a
// letter or underscore followed by letters, digits, or underscores.
func validEnvName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
