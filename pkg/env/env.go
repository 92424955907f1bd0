// Package env reads process environment variables with defaults.
package env

import "os"

// Get looks up key in the environment, falling back when it is unset
// or empty.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
