package service

import (
	"slices"
	"strings"

	"golang.org/x/mod/semver"
)

const zeroVersion = "v0.0.0"

// Versioned is a record carrying a version under a primary or a fallback
// field, plus an identity key.
type Versioned interface {
	Identity() string
	PrimaryVersion() string
	FallbackVersion() string
}

// SortByVersion drops duplicate identities (first occurrence wins) and
// returns the rest ordered by descending semantic version. Records without
// a parsable version sort after every parsable one, pre-releases of 0.0.0
// included. Equal versions keep input order.
// The input slice is left untouched.
func SortByVersion[T Versioned](items []T) []T {
	type ranked struct {
		item    T
		version string
		valid   bool
	}

	seen := make(map[string]struct{}, len(items))
	list := make([]ranked, 0, len(items))
	for _, item := range items {
		key := strings.ToLower(item.Identity())
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		version, ok := parseVersion(item.PrimaryVersion(), item.FallbackVersion())
		list = append(list, ranked{item: item, version: version, valid: ok})
	}

	slices.SortStableFunc(list, func(a, b ranked) int {
		if a.valid != b.valid {
			if a.valid {
				return -1
			}
			return 1
		}
		return semver.Compare(b.version, a.version)
	})

	out := make([]T, len(list))
	for i, r := range list {
		out[i] = r.item
	}
	return out
}

// CanonicalVersion returns the first parsable candidate in vMAJOR.MINOR.PATCH
// form (pre-release kept, build metadata dropped), or v0.0.0.
func CanonicalVersion(candidates ...string) string {
	v, _ := parseVersion(candidates...)
	return v
}

func parseVersion(candidates ...string) (string, bool) {
	for _, v := range candidates {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if !strings.HasPrefix(v, "v") {
			v = "v" + v
		}
		if semver.IsValid(v) {
			return semver.Canonical(v), true
		}
	}
	return zeroVersion, false
}
