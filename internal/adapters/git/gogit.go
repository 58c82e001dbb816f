// Package git provides adapters for interacting with local Git repositories.
// This package implements the domain.LocalGitRepository interface using go-git/v5.
package git

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/MyCarrier-DevOps/basesha-find/internal/domain"
)

// Logger defines the logging interface for the git adapter.
// This interface enables dependency injection and testability.
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
}

// remoteName is the remote whose tracking branches are preferred for merge-base.
const remoteName = "origin"

// shaPattern matches a full hex-encoded SHA-1 object name.
var shaPattern = regexp.MustCompile(`^[0-9a-f]{40}$`)

// sha256Pattern matches a full hex-encoded SHA-256 object name, which
// go-git cannot look up in a SHA-1 object store.
var sha256Pattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// GoGitRepository implements domain.LocalGitRepository using go-git/v5.
type GoGitRepository struct {
	repo   *git.Repository
	path   string
	logger Logger
}

// NewGoGitRepository creates a new GoGitRepository for the given path.
// The path can be either a working directory or a bare repository.
// Returns domain.ErrRepositoryNotFound if the path is not a valid Git repository.
func NewGoGitRepository(path string, log Logger) (*GoGitRepository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrRepositoryNotFound, path)
	}

	return &GoGitRepository{
		repo:   repo,
		path:   path,
		logger: log,
	}, nil
}

// ListTags returns the short names of all tags starting with domain.TagPrefix,
// including hierarchical names such as v2/hotfix.
func (r *GoGitRepository) ListTags(ctx context.Context) ([]string, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer iter.Close()

	var tags []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := ref.Name().Short()
		if strings.HasPrefix(name, domain.TagPrefix) {
			tags = append(tags, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk tags: %w", err)
	}

	r.logger.Debug(ctx, "listed version tags", map[string]interface{}{
		"pattern": domain.TagPattern,
		"count":   len(tags),
	})

	return tags, nil
}

// TagCommit returns the commit a tag points at.
// Annotated tags are peeled to their target commit.
func (r *GoGitRepository) TagCommit(_ context.Context, tag string) (string, error) {
	ref, err := r.repo.Tag(tag)
	if err != nil {
		if errors.Is(err, git.ErrTagNotFound) {
			return "", fmt.Errorf("%w: %s", domain.ErrTagNotFound, tag)
		}
		return "", fmt.Errorf("failed to read tag %s: %w", tag, err)
	}

	tagObj, err := r.repo.TagObject(ref.Hash())
	switch {
	case err == nil:
		commit, err := tagObj.Commit()
		if err != nil {
			return "", fmt.Errorf("tag %s does not point at a commit: %w", tag, err)
		}
		return commit.Hash.String(), nil
	case errors.Is(err, plumbing.ErrObjectNotFound):
		// Lightweight tag: the ref already names the commit.
		return ref.Hash().String(), nil
	default:
		return "", fmt.Errorf("failed to read tag object %s: %w", tag, err)
	}
}

// MergeBase returns the best common ancestor of two branches.
func (r *GoGitRepository) MergeBase(ctx context.Context, branch, other string) (string, error) {
	a, err := r.branchCommit(branch)
	if err != nil {
		return "", err
	}
	b, err := r.branchCommit(other)
	if err != nil {
		return "", err
	}

	bases, err := a.MergeBase(b)
	if err != nil {
		return "", fmt.Errorf("failed to compute merge base: %w", err)
	}
	if len(bases) == 0 {
		return "", fmt.Errorf("%w: %s and %s", domain.ErrNoMergeBase, branch, other)
	}

	r.logger.Debug(ctx, "computed merge base", map[string]interface{}{
		"branch":     branch,
		"other":      other,
		"merge_base": bases[0].Hash.String(),
		"candidates": len(bases),
	})

	return bases[0].Hash.String(), nil
}

// branchCommit resolves a branch name to its commit, preferring the
// remote-tracking ref under origin and falling back to a local branch.
func (r *GoGitRepository) branchCommit(name string) (*object.Commit, error) {
	candidates := []plumbing.ReferenceName{
		plumbing.NewRemoteReferenceName(remoteName, name),
		plumbing.NewBranchReferenceName(name),
	}

	for _, refName := range candidates {
		ref, err := r.repo.Reference(refName, true)
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", refName, err)
		}

		commit, err := r.repo.CommitObject(ref.Hash())
		if err != nil {
			return nil, fmt.Errorf("failed to load commit for %s: %w", refName, err)
		}
		return commit, nil
	}

	return nil, fmt.Errorf("%w: %s", domain.ErrRefNotFound, name)
}

// CommitExists reports whether the commit object is present locally.
// Commits orphaned by force-pushes or rebases, and malformed hashes, report false.
func (r *GoGitRepository) CommitExists(ctx context.Context, sha string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	sha = strings.ToLower(strings.TrimSpace(sha))
	if !shaPattern.MatchString(sha) {
		msg := "not a full SHA-1 commit hash; treating as absent"
		if sha256Pattern.MatchString(sha) {
			msg = "SHA-256 commit hashes are not supported; treating as absent"
		}
		r.logger.Warn(ctx, msg, map[string]interface{}{
			"commit": sha,
		})
		return false, nil
	}

	_, err := r.repo.CommitObject(plumbing.NewHash(sha))
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, plumbing.ErrObjectNotFound) {
		r.logger.Warn(ctx, "commit lookup failed; treating as absent", map[string]interface{}{
			"commit": sha,
			"error":  err.Error(),
		})
	}
	return false, nil
}

// HeadParent returns the SHA of HEAD~1.
func (r *GoGitRepository) HeadParent(ctx context.Context) (string, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision("HEAD~1"))
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD~1: %w", err)
	}

	r.logger.Debug(ctx, "resolved HEAD~1", map[string]interface{}{
		"commit": hash.String(),
		"path":   r.path,
	})

	return hash.String(), nil
}

// Close releases any resources held by the repository.
// For go-git, this is a no-op as the repository doesn't hold persistent resources.
func (r *GoGitRepository) Close() error {
	return nil
}
