// Package usecases contains the application business logic.
// This package orchestrates domain entities and interfaces to fulfill use cases.
package usecases

import (
	"context"
	"fmt"

	"github.com/MyCarrier-DevOps/basesha-find/internal/domain"
)

// Logger defines the logging interface required by the resolver.
// This abstracts the logger dependency to avoid coupling to a specific implementation.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields map[string]interface{})
}

// Reporter writes human-readable progress messages for the person reading
// the CI job output. It is separate from Logger, which carries structured
// diagnostics.
type Reporter interface {
	Info(msg string)
	Success(msg string)
	Warn(msg string)
	Error(msg string)
}

// BaseCommitResolver resolves the commit that change detection should diff against.
type BaseCommitResolver struct {
	gitRepo  domain.LocalGitRepository
	client   domain.PipelineClient
	reporter Reporter
	logger   Logger
}

// NewBaseCommitResolver creates a new BaseCommitResolver with the given dependencies.
// client may be nil when only the tag and feature-branch routes are exercised.
func NewBaseCommitResolver(
	gitRepo domain.LocalGitRepository,
	client domain.PipelineClient,
	reporter Reporter,
	log Logger,
) *BaseCommitResolver {
	return &BaseCommitResolver{
		gitRepo:  gitRepo,
		client:   client,
		reporter: reporter,
		logger:   log,
	}
}

// Resolve selects a route for the input and resolves the base commit with it.
func (r *BaseCommitResolver) Resolve(ctx context.Context, input domain.ResolveInput) (*domain.ResolveOutput, error) {
	route := domain.SelectRoute(input)

	r.logger.Info(ctx, "starting base commit resolution", map[string]interface{}{
		"route":         route.Kind.String(),
		"branch":        input.Branch,
		"main_branch":   input.MainBranch,
		"dev_branch":    input.DevBranch,
		"tag":           input.Tag,
		"workflow_name": input.WorkflowName,
	})

	switch route.Kind {
	case domain.RouteTag:
		return r.resolveTag(ctx, route)
	case domain.RouteFeatureBranch:
		return r.resolveFeatureBranch(ctx, route)
	case domain.RouteProtectedBranch:
		return r.resolveProtectedBranch(ctx, route, input)
	default:
		return nil, fmt.Errorf("unsupported route %d", route.Kind)
	}
}

// resolveTag resolves to the commit of the version tag preceding route.Tag.
func (r *BaseCommitResolver) resolveTag(ctx context.Context, route domain.Route) (*domain.ResolveOutput, error) {
	tags, err := r.gitRepo.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}

	prev, err := previousTag(tags, route.Tag)
	if err != nil {
		return nil, err
	}

	commit, err := r.gitRepo.TagCommit(ctx, prev)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tag %s: %w", prev, err)
	}

	r.logger.Debug(ctx, "resolved previous tag", map[string]interface{}{
		"tag":          route.Tag,
		"previous_tag": prev,
		"commit":       commit,
		"tags_count":   len(tags),
	})
	r.reporter.Success(fmt.Sprintf("Using previous tag '%s' as the base for tag '%s'.", prev, route.Tag))

	return &domain.ResolveOutput{
		Commit:      commit,
		Route:       domain.RouteTag,
		PreviousTag: prev,
	}, nil
}

// resolveFeatureBranch resolves to the merge-base of the branch and the dev branch.
func (r *BaseCommitResolver) resolveFeatureBranch(ctx context.Context, route domain.Route) (*domain.ResolveOutput, error) {
	commit, err := r.gitRepo.MergeBase(ctx, route.Branch, route.DevBranch)
	if err != nil {
		return nil, fmt.Errorf("failed to compute merge base of %s and %s: %w", route.Branch, route.DevBranch, err)
	}

	r.reporter.Success(fmt.Sprintf(
		"Using the merge-base of 'origin/%s' and 'origin/%s' as the base.",
		route.Branch, route.DevBranch,
	))

	return &domain.ResolveOutput{
		Commit: commit,
		Route:  domain.RouteFeatureBranch,
	}, nil
}

// resolveProtectedBranch searches pipeline history and applies the
// fallback rules when nothing qualifies.
func (r *BaseCommitResolver) resolveProtectedBranch(
	ctx context.Context,
	route domain.Route,
	input domain.ResolveInput,
) (*domain.ResolveOutput, error) {
	if r.client == nil {
		return nil, fmt.Errorf("%w: no pipeline client configured", domain.ErrAPIRequest)
	}

	match, found, err := r.findSuccessfulCommit(ctx, route.Branch, input.WorkflowName, input.AllowOnHold)
	if err != nil {
		return nil, err
	}

	if found {
		r.reporter.Success(fmt.Sprintf("Found the last successful workflow run on 'origin/%s'.", route.Branch))
		r.logger.Info(ctx, "found successful pipeline", map[string]interface{}{
			"branch":      route.Branch,
			"pipeline_id": match.ID,
			"number":      match.Number,
			"commit":      match.Revision,
		})
		return &domain.ResolveOutput{
			Commit:     match.Revision,
			Route:      domain.RouteProtectedBranch,
			PipelineID: match.ID,
		}, nil
	}

	if input.ErrorOnMissing {
		r.reporter.Error(fmt.Sprintf("Unable to find a successful workflow run on 'origin/%s'.", route.Branch))
		r.reporter.Error("Exiting because 'error-on-no-successful-workflow' is enabled. " +
			"Disable it to fall back to HEAD~1 instead.")
		return nil, fmt.Errorf("%w on branch %s", domain.ErrNoSuccessfulWorkflow, route.Branch)
	}

	r.reporter.Warn(fmt.Sprintf("Could not find a successful workflow run on 'origin/%s'.", route.Branch))
	r.reporter.Warn(fmt.Sprintf("Falling back to HEAD~1 on 'origin/%s'.", route.Branch))
	r.reporter.Info("NOTE: enable 'error-on-no-successful-workflow' to make this a hard error.")

	parent, err := r.gitRepo.HeadParent(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD~1: %w", err)
	}

	r.logger.Warn(ctx, "no successful pipeline found; using HEAD~1", map[string]interface{}{
		"branch": route.Branch,
		"commit": parent,
	})

	return &domain.ResolveOutput{
		Commit:   parent,
		Route:    domain.RouteProtectedBranch,
		Fallback: true,
	}, nil
}

// findSuccessfulCommit returns the newest eligible pipeline on the branch.
// Scanning stops at the first match, so no page after it is ever requested.
func (r *BaseCommitResolver) findSuccessfulCommit(
	ctx context.Context,
	branch, workflowName string,
	allowOnHold bool,
) (domain.Pipeline, bool, error) {
	scanned := 0
	for p, err := range pipelines(ctx, r.client, branch) {
		if err != nil {
			return domain.Pipeline{}, false, fmt.Errorf("failed to list pipelines for %s: %w", branch, err)
		}
		scanned++

		ok, err := r.isEligible(ctx, p, workflowName, allowOnHold)
		if err != nil {
			return domain.Pipeline{}, false, err
		}
		if ok {
			return p, true, nil
		}
	}

	r.logger.Debug(ctx, "pipeline history exhausted", map[string]interface{}{
		"branch":            branch,
		"pipelines_scanned": scanned,
	})
	return domain.Pipeline{}, false, nil
}

// isEligible applies the eligibility rules in order of cost: errors first,
// then the local commit lookup, and the workflow API call last.
func (r *BaseCommitResolver) isEligible(
	ctx context.Context,
	p domain.Pipeline,
	workflowName string,
	allowOnHold bool,
) (bool, error) {
	if p.HasErrors() {
		r.logger.Debug(ctx, "skipping pipeline with errors", map[string]interface{}{
			"pipeline_id": p.ID,
			"errors":      len(p.Errors),
		})
		return false, nil
	}

	exists, err := r.gitRepo.CommitExists(ctx, p.Revision)
	if err != nil {
		return false, fmt.Errorf("failed to check commit %s: %w", p.Revision, err)
	}
	if !exists {
		r.logger.Debug(ctx, "skipping pipeline whose commit is not in the local repository", map[string]interface{}{
			"pipeline_id": p.ID,
			"commit":      p.Revision,
		})
		return false, nil
	}

	runs, err := r.client.ListWorkflows(ctx, p.ID)
	if err != nil {
		return false, fmt.Errorf("failed to list workflows for pipeline %s: %w", p.ID, err)
	}

	accepted := domain.WorkflowsAccepted(runs, workflowName, allowOnHold)
	r.logger.Debug(ctx, "checked pipeline workflows", map[string]interface{}{
		"pipeline_id":    p.ID,
		"workflow_count": len(runs),
		"accepted":       accepted,
	})
	return accepted, nil
}
