// Package domain defines the core business entities and interfaces for basesha-find.
// This package contains no external dependencies and represents the innermost layer
// of the CLEAN architecture.
package domain

import (
	"context"
	"errors"
)

// Domain errors for git operations, CI queries and resolution.
var (
	// ErrRepositoryNotFound indicates the specified path is not a valid Git repository.
	ErrRepositoryNotFound = errors.New("git repository not found at specified path")

	// ErrInvalidBuildURL indicates the build URL does not match scheme://host/project/<number>.
	ErrInvalidBuildURL = errors.New("build URL must look like https://host/project/path/<number>")

	// ErrTagNotFound indicates a tag name could not be resolved in the repository.
	ErrTagNotFound = errors.New("tag not found")

	// ErrNoPreviousTag indicates the current release tag has no older version tag.
	ErrNoPreviousTag = errors.New("no previous version tag found")

	// ErrRefNotFound indicates a branch reference could not be resolved.
	ErrRefNotFound = errors.New("branch reference not found")

	// ErrNoMergeBase indicates two branches share no common ancestor.
	ErrNoMergeBase = errors.New("no merge base found")

	// ErrAPIRequest indicates a CircleCI API request failed.
	ErrAPIRequest = errors.New("CircleCI API request failed")

	// ErrNoSuccessfulWorkflow indicates no eligible pipeline was found and
	// the caller asked for this to be fatal.
	ErrNoSuccessfulWorkflow = errors.New("no successful workflow found")
)

// LocalGitRepository answers the version-control questions resolution needs.
// All queries are read-only.
type LocalGitRepository interface {
	// ListTags returns the short names of all tags matching TagPattern.
	// Order is unspecified.
	ListTags(ctx context.Context) ([]string, error)

	// TagCommit returns the commit SHA a tag points at, peeling annotated tags.
	// Returns ErrTagNotFound if the tag does not exist.
	TagCommit(ctx context.Context, tag string) (string, error)

	// MergeBase returns the best common ancestor of two branches.
	// Remote-tracking refs under origin are preferred over local branches.
	MergeBase(ctx context.Context, branch, other string) (string, error)

	// CommitExists reports whether the commit object is present locally.
	// An absent or malformed hash is not an error.
	CommitExists(ctx context.Context, sha string) (bool, error)

	// HeadParent returns the SHA of HEAD~1.
	HeadParent(ctx context.Context) (string, error)

	// Close releases any resources held by the repository.
	Close() error
}

// PipelineClient reads pipeline history from the CI provider.
type PipelineClient interface {
	// ListPipelines returns one page of pipelines for the branch, newest first.
	// An empty pageToken requests the first page.
	ListPipelines(ctx context.Context, branch, pageToken string) (*PipelinePage, error)

	// ListWorkflows returns every workflow run of the pipeline.
	ListWorkflows(ctx context.Context, pipelineID string) ([]WorkflowRun, error)
}

// OutputWriter writes the resolved commit to an output destination.
type OutputWriter interface {
	// WriteCommit writes the machine-readable "Commit: <sha>" line.
	WriteCommit(sha string) error
}

// Resolver resolves the base commit for the current build.
type Resolver interface {
	Resolve(ctx context.Context, input ResolveInput) (*ResolveOutput, error)
}
