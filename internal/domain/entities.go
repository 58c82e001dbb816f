// Package domain defines the core business entities and interfaces for basesha-find.
package domain

// WorkflowStatus is the status CircleCI reports for a workflow run.
// Only StatusSuccess and StatusOnHold carry meaning for base-commit
// resolution; every other value is treated as a rejection.
type WorkflowStatus string

// Workflow statuses that influence resolution.
const (
	StatusSuccess WorkflowStatus = "success"
	StatusOnHold  WorkflowStatus = "on_hold"
)

// Accepted reports whether the status counts as a successful run.
// on_hold is accepted only when allowOnHold is set.
func (s WorkflowStatus) Accepted(allowOnHold bool) bool {
	switch s {
	case StatusSuccess:
		return true
	case StatusOnHold:
		return allowOnHold
	default:
		return false
	}
}

// PipelineError is a validation error CircleCI attached to a pipeline.
type PipelineError struct {
	Type    string
	Message string
}

// Pipeline is a single CircleCI pipeline as returned by the pipeline list.
type Pipeline struct {
	// ID is the pipeline UUID used to fetch its workflows.
	ID string

	// Number is the project-scoped pipeline number.
	Number int

	// Errors lists configuration or trigger errors. A pipeline with any
	// errors is never a resolution target.
	Errors []PipelineError

	// Revision is the commit SHA the pipeline was triggered for (vcs.revision).
	Revision string

	// Branch is the branch the pipeline ran on (vcs.branch).
	Branch string
}

// HasErrors reports whether the pipeline carries validation errors.
func (p Pipeline) HasErrors() bool {
	return len(p.Errors) > 0
}

// PipelinePage is one page of the pipeline list, newest first.
type PipelinePage struct {
	Items []Pipeline

	// NextPageToken is empty on the last page.
	NextPageToken string
}

// WorkflowRun is a workflow belonging to a pipeline.
type WorkflowRun struct {
	ID         string
	Name       string
	Status     WorkflowStatus
	PipelineID string
}

// ResolveInput contains the parameters for base-commit resolution.
// All environment-derived values are already folded in by the command layer.
type ResolveInput struct {
	// Branch is the branch the current build runs on.
	Branch string

	// MainBranch and DevBranch are the two protected branch names.
	MainBranch string
	DevBranch  string

	// Tag is the release tag being built (CIRCLE_TAG). Empty when not a tag build.
	Tag string

	// ErrorOnMissing makes "no successful workflow" a hard failure instead
	// of falling back to the parent of HEAD.
	ErrorOnMissing bool

	// AllowOnHold accepts on_hold workflow runs as successful.
	AllowOnHold bool

	// WorkflowName restricts acceptance to runs with this exact name.
	// Empty means every workflow of the pipeline must be accepted.
	WorkflowName string
}

// ResolveOutput contains the result of a successful resolution.
type ResolveOutput struct {
	// Commit is the resolved base commit SHA. This is the value written
	// to stdout as "Commit: <sha>".
	Commit string

	// Route is the resolution strategy that produced Commit.
	Route RouteKind

	// Fallback is true when no successful pipeline was found and the
	// parent of HEAD was used instead.
	Fallback bool

	// PipelineID is the matched pipeline on the protected-branch route.
	PipelineID string

	// PreviousTag is the predecessor tag on the tag route.
	PreviousTag string
}

// Default branch names used when neither arguments nor environment provide them.
const (
	DefaultMainBranch = "main"
	DefaultDevBranch  = "dev"
)

// TagPrefix starts every release tag that takes part in tag ordering.
// As with git's wildmatch for TagPattern, the rest of the name may contain "/".
const TagPrefix = "v"

// TagPattern is the glob form of TagPrefix, used in messages.
const TagPattern = TagPrefix + "*"
