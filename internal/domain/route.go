package domain

// RouteKind identifies the resolution strategy for a build.
type RouteKind int

// Resolution strategies, in selection priority order.
const (
	// RouteTag resolves to the commit of the previous release tag.
	RouteTag RouteKind = iota + 1

	// RouteFeatureBranch resolves to the merge-base with the dev branch.
	RouteFeatureBranch

	// RouteProtectedBranch searches CI pipeline history for the last
	// successful workflow on main or dev.
	RouteProtectedBranch
)

// String returns the route name used in logs.
func (k RouteKind) String() string {
	switch k {
	case RouteTag:
		return "tag"
	case RouteFeatureBranch:
		return "feature-branch"
	case RouteProtectedBranch:
		return "protected-branch"
	default:
		return "unknown"
	}
}

// Route is the strategy chosen for a single resolution, together with the
// values that strategy needs.
type Route struct {
	Kind RouteKind

	// Tag is set for RouteTag.
	Tag string

	// Branch is the build branch for RouteFeatureBranch and RouteProtectedBranch.
	Branch string

	// DevBranch is the merge-base target for RouteFeatureBranch.
	DevBranch string
}

// SelectRoute picks the resolution strategy for the input.
// A release tag wins over everything; otherwise any branch other than
// main or dev is a feature branch.
func SelectRoute(input ResolveInput) Route {
	if input.Tag != "" {
		return Route{Kind: RouteTag, Tag: input.Tag}
	}

	if input.Branch != input.MainBranch && input.Branch != input.DevBranch {
		return Route{
			Kind:      RouteFeatureBranch,
			Branch:    input.Branch,
			DevBranch: input.DevBranch,
		}
	}

	return Route{Kind: RouteProtectedBranch, Branch: input.Branch}
}
