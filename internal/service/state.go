package service

// State is a step of the ingest pipeline.
type State int

const (
	StateStart State = iota
	StateDirectoryEnsured
	StateDestinationOpened
	StateCopyInProgress
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateDirectoryEnsured:
		return "directory_ensured"
	case StateDestinationOpened:
		return "destination_opened"
	case StateCopyInProgress:
		return "copy_in_progress"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible from s.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// canAdvance allows the single forward step from each non-terminal state, plus Failed from any of them.
func canAdvance(from, to State) bool {
	if from.Terminal() {
		return false
	}
	return to == StateFailed || to == from+1
}
