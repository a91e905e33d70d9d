// Package id provides unique identifier generation for generation jobs.
package id

import "github.com/google/uuid"

// Generate creates a new unique generation ID (random UUID, version 4).
func Generate() string {
	return uuid.NewString()
}

// Valid reports whether s has the shape of a generation ID.
func Valid(s string) bool {
	return uuid.Validate(s) == nil
}
