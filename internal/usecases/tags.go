package usecases

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/MyCarrier-DevOps/basesha-find/internal/domain"
)

// compareTagsDesc orders version tags newest first.
// Valid semantic versions are compared structurally and always sort ahead of
// tags that are not valid semver; the latter fall back to descending name order.
func compareTagsDesc(a, b string) int {
	aValid, bValid := semver.IsValid(a), semver.IsValid(b)
	switch {
	case aValid && bValid:
		if c := semver.Compare(b, a); c != 0 {
			return c
		}
		// v1.0 and v1.0.0 compare equal; keep the order deterministic.
		return strings.Compare(b, a)
	case aValid:
		return -1
	case bValid:
		return 1
	default:
		return strings.Compare(b, a)
	}
}

// previousTag returns the tag that immediately precedes current in version order.
// Returns domain.ErrNoPreviousTag when current is not among tags or is the oldest.
func previousTag(tags []string, current string) (string, error) {
	sorted := slices.Clone(tags)
	slices.SortFunc(sorted, compareTagsDesc)

	idx := slices.Index(sorted, current)
	if idx < 0 {
		return "", fmt.Errorf("%w: tag %s is not a %s version tag", domain.ErrNoPreviousTag, current, domain.TagPattern)
	}
	if idx+1 >= len(sorted) {
		return "", fmt.Errorf("%w: %s is the oldest version tag", domain.ErrNoPreviousTag, current)
	}

	return sorted[idx+1], nil
}
