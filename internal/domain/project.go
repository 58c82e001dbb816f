package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// Project identifies a CircleCI project derived from a build URL.
type Project struct {
	// Scheme is http or https, as given in the build URL.
	Scheme string

	// Host is the CircleCI host, e.g. circleci.com.
	Host string

	// Slug is the project path, e.g. gh/org/repo.
	Slug string
}

// APIBaseURL returns the v2 API root for the project.
func (p Project) APIBaseURL() string {
	return fmt.Sprintf("%s://%s/api/v2/project/%s", p.Scheme, p.Host, p.Slug)
}

// buildURLPattern matches build URLs like:
// https://circleci.com/gh/org/repo/1234
var buildURLPattern = regexp.MustCompile(`^(https?)://([^/]+)/(.+)/\d+/?$`)

// ParseBuildURL extracts the host and project slug from a build URL.
// Returns ErrInvalidBuildURL when the URL does not end in a numeric build id.
func ParseBuildURL(buildURL string) (Project, error) {
	matches := buildURLPattern.FindStringSubmatch(strings.TrimSpace(buildURL))
	if len(matches) != 4 {
		return Project{}, fmt.Errorf("%w: %q", ErrInvalidBuildURL, buildURL)
	}

	return Project{
		Scheme: matches[1],
		Host:   matches[2],
		Slug:   matches[3],
	}, nil
}
