// Package id generates prefixed NanoID identifiers for persisted records.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Record prefixes.
const (
	PrefixUser     = "user"
	PrefixSession  = "sess"
	PrefixHistory  = "hist"
	PrefixDownload = "dl"
	PrefixServer   = "srv"
)

// Generate creates a prefixed ID of the form "prefix-<21 char nanoid>".
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics when the system has no entropy.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// Token returns an unprefixed random token of n URL-safe characters.
func Token(n int) (string, error) {
	t, err := gonanoid.New(n)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return t, nil
}
