package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/spanlab/span-core/internal/domain/ports"
)

var (
	// reNonSlug matches characters that aren't lowercase alphanumeric or hyphen.
	reNonSlug = regexp.MustCompile(`[^a-z0-9-]+`)
	// reMultipleHyphens matches consecutive hyphens.
	reMultipleHyphens = regexp.MustCompile(`-+`)
)

// reservedSlugs are route tokens the web layer claims; no span slug may
// equal one of these.
var reservedSlugs = map[string]bool{
	"new":      true,
	"edit":     true,
	"create":   true,
	"delete":   true,
	"admin":    true,
	"login":    true,
	"logout":   true,
	"register": true,
	"api":      true,
	"spans":    true,
	"types":    true,
	"search":   true,
}

// IsReservedSlug reports whether the slug collides with a reserved route token.
func IsReservedSlug(slug string) bool {
	return reservedSlugs[slug]
}

// slugTransformer strips combining marks so accented names fold to ASCII
// ("Blixa Bargeld" and "Blíxa Bárgeld" derive the same slug).
var slugTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify derives a URL-safe slug from a name: diacritics folded,
// lowercased, runs of other characters collapsed to single hyphens.
func Slugify(name string) string {
	folded, _, err := transform.String(slugTransformer, name)
	if err != nil {
		folded = name
	}
	slug := strings.ToLower(strings.TrimSpace(folded))
	slug = reNonSlug.ReplaceAllString(slug, "-")
	slug = reMultipleHyphens.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// UniqueSlug derives a slug from the name and resolves collisions against
// the store by appending a numeric suffix (-2, -3, ...). A base slug that
// lands on a reserved token is suffixed the same way.
func UniqueSlug(ctx context.Context, store ports.Store, name string) (string, error) {
	base := Slugify(name)
	if base == "" {
		base = "span"
	}

	candidate := base
	for n := 2; ; n++ {
		if !IsReservedSlug(candidate) {
			exists, err := store.SlugExists(ctx, candidate)
			if err != nil {
				return "", fmt.Errorf("checking slug %q: %w", candidate, err)
			}
			if !exists {
				return candidate, nil
			}
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}
