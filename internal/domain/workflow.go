package domain

// WorkflowsAccepted decides whether a pipeline's workflow runs vouch for its commit.
//
// Without a name filter every run must have an accepted status; a pipeline
// with no runs is vacuously accepted. With a filter at least one run with
// exactly that name must have an accepted status; other runs are ignored.
func WorkflowsAccepted(runs []WorkflowRun, workflowName string, allowOnHold bool) bool {
	if workflowName == "" {
		for _, run := range runs {
			if !run.Status.Accepted(allowOnHold) {
				return false
			}
		}
		return true
	}

	for _, run := range runs {
		if run.Name == workflowName && run.Status.Accepted(allowOnHold) {
			return true
		}
	}
	return false
}
