// Package validation holds the checks every admin write passes through before
// touching the store: slugs, icons, hostnames, embed URLs, uploads and request
// payloads.
package validation

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/masterchelly/microsites/errs"
)

const (
	MaxSlugLength     = 63
	MaxIconLength     = 10
	MaxHostnameLength = 255
)

var (
	slugPattern     = regexp.MustCompile(`^[a-z0-9-]+$`)
	slugStrip       = regexp.MustCompile(`[^a-z0-9-]`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
	hostnamePattern = regexp.MustCompile(`^[a-z0-9.-]+$`)
)

// SanitizeSlug lower-cases raw, turns whitespace runs into a hyphen and drops
// every remaining character outside [a-z0-9-].
func SanitizeSlug(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = whitespaceRun.ReplaceAllString(s, "-")
	return slugStrip.ReplaceAllString(s, "")
}

// ValidSlug reports whether s can be used as a project slug. Reserved names
// are compared case-insensitively.
func ValidSlug(s string, reserved []string) bool {
	if len(s) < 1 || len(s) > MaxSlugLength {
		return false
	}
	if !slugPattern.MatchString(s) {
		return false
	}
	if strings.HasPrefix(s, "-") || strings.HasSuffix(s, "-") {
		return false
	}
	return !IsReserved(s, reserved)
}

func IsReserved(s string, reserved []string) bool {
	return slices.ContainsFunc(reserved, func(r string) bool {
		return strings.EqualFold(r, s)
	})
}

// CheckSlug returns raw unchanged when it is already a valid slug. Input that
// sanitizing would alter is rejected instead of silently corrected.
func CheckSlug(raw string, reserved []string) (string, error) {
	sanitized := SanitizeSlug(raw)
	if sanitized != raw || !ValidSlug(sanitized, reserved) {
		return "", errs.NewInvalidSubdomainError(raw)
	}
	return sanitized, nil
}

// ValidIcon accepts 1 to 10 UTF-16 code units, enough for any single emoji
// including ZWJ sequences.
func ValidIcon(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	return len(utf16.Encode([]rune(s))) <= MaxIconLength
}

// NormalizeHostname lower-cases s and checks it is a plausible DNS name. A
// trailing port is kept so local root domains like localhost:3000 work.
func NormalizeHostname(s string) (string, error) {
	h := strings.ToLower(strings.TrimSpace(s))
	name, port, hasPort := strings.Cut(h, ":")
	switch {
	case name == "" || len(h) > MaxHostnameLength:
		return "", errs.NewValidationError("hostname", "invalid hostname")
	case !hostnamePattern.MatchString(name):
		return "", errs.NewValidationError("hostname", "invalid hostname")
	case !strings.Contains(name, "."):
		return "", errs.NewValidationError("hostname", "hostname must include a dot")
	case hasPort && !validPort(port):
		return "", errs.NewValidationError("hostname", "invalid port")
	}
	return h, nil
}

func validPort(p string) bool {
	n, err := strconv.Atoi(p)
	return err == nil && n > 0 && n <= 65535
}

// DisplayName turns a slug into the default project name.
func DisplayName(slug string) string {
	return strings.ReplaceAll(slug, "-", " ")
}
