package tracking

// notFoundError signals that an experiment has nothing to serve yet:
// either the experiment does not exist or it has zero runs. This is a
// normal pre-training condition, not store corruption.
type notFoundError struct{ experiment string }

func (e notFoundError) Error() string {
	return "no completed run for experiment " + e.experiment + "; train a model first"
}

// IsNotFound reports whether err indicates an experiment with no runs.
func IsNotFound(err error) bool {
	_, ok := err.(notFoundError)
	return ok
}

// ResolveLatest returns the most recently *started* run of the named
// experiment. Selection is by start time descending with no status filter,
// matching the tracker's search semantics; a later-started run shadows
// earlier ones even if another writer logged it unfinished.
// Every call re-queries the store; there is no caching.
func ResolveLatest(s *Store, experimentName string) (*Run, error) {
	exp, err := s.GetExperimentByName(experimentName)
	if err != nil {
		return nil, err
	}
	if exp == nil {
		return nil, notFoundError{experiment: experimentName}
	}
	runs, err := s.SearchRuns(exp.ExperimentID, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, notFoundError{experiment: experimentName}
	}
	return &runs[0], nil
}
