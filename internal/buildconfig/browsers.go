package buildconfig

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/hashicorp/go-version"
)

var ErrUnknownBrowserQuery = errors.New("unknown browser query")

// BrowserTarget is the oldest version of a browser the output must support.
type BrowserTarget struct {
	Browser string
	Version string
}

func (b BrowserTarget) String() string {
	return b.Browser + " " + b.Version
}

// latestMajors pins the newest major release per browser that "last N versions" counts back
// from.
// TODO: refresh alongside esbuild upgrades, these track the esbuild v0.27 compat tables.
var latestMajors = map[string]int{
	"chrome":  131,
	"edge":    131,
	"firefox": 133,
	"ios":     18,
	"opera":   115,
	"safari":  18,
}

var (
	lastVersionsQuery = regexp.MustCompile(`^last (\d+) versions?$`)
	explicitQuery     = regexp.MustCompile(`^([a-z]+) (\d+(?:\.\d+){0,2})$`)
)

// ParseBrowserQuery resolves a single query such as "last 2 versions" or "safari 16.4".
func ParseBrowserQuery(query string) ([]BrowserTarget, error) {
	q := strings.ToLower(strings.Join(strings.Fields(query), " "))

	if m := lastVersionsQuery.FindStringSubmatch(q); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%w: %q", ErrUnknownBrowserQuery, query)
		}

		targets := make([]BrowserTarget, 0, len(latestMajors))
		for browser, latest := range latestMajors {
			targets = append(targets, BrowserTarget{
				Browser: browser,
				Version: strconv.Itoa(max(latest-(n-1), 1)),
			})
		}
		sortTargets(targets)
		return targets, nil
	}

	if m := explicitQuery.FindStringSubmatch(q); m != nil {
		if _, ok := latestMajors[m[1]]; !ok {
			return nil, fmt.Errorf("%w: unsupported browser %q", ErrUnknownBrowserQuery, m[1])
		}
		return []BrowserTarget{{Browser: m[1], Version: m[2]}}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownBrowserQuery, query)
}

// ResolveBrowsers merges queries, keeping the oldest version requested for each browser.
func ResolveBrowsers(queries []string) ([]BrowserTarget, error) {
	oldest := make(map[string]string)

	for _, query := range queries {
		targets, err := ParseBrowserQuery(query)
		if err != nil {
			return nil, err
		}
		for _, t := range targets {
			if cur, ok := oldest[t.Browser]; !ok || compareVersions(t.Version, cur) < 0 {
				oldest[t.Browser] = t.Version
			}
		}
	}

	targets := make([]BrowserTarget, 0, len(oldest))
	for browser, version := range oldest {
		targets = append(targets, BrowserTarget{Browser: browser, Version: version})
	}
	sortTargets(targets)
	return targets, nil
}

func sortTargets(targets []BrowserTarget) {
	slices.SortFunc(targets, func(a, b BrowserTarget) int {
		return strings.Compare(a.Browser, b.Browser)
	})
}

// compareVersions compares dotted numeric versions, missing components count as zero.
// Versions are checked by the query patterns, an unparsable one sorts first.
func compareVersions(a, b string) int {
	va, errA := version.NewVersion(a)
	vb, errB := version.NewVersion(b)
	switch {
	case errA != nil && errB != nil:
		return strings.Compare(a, b)
	case errA != nil:
		return -1
	case errB != nil:
		return 1
	}
	return va.Compare(vb)
}
