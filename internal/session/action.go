package session

// Action is the operator's choice for this invocation.
type Action int

const (
	ContinueAll Action = iota
	RerenderRange
	MergeRange
	ClearCache
	Reorganize
	Cancel
)

func (a Action) String() string {
	switch a {
	case ContinueAll:
		return "CONTINUE_ALL"
	case RerenderRange:
		return "RE_RENDER_RANGE"
	case MergeRange:
		return "MERGE_RANGE"
	case ClearCache:
		return "CLEAR_CACHE"
	case Reorganize:
		return "REORGANIZE"
	case Cancel:
		return "CANCEL"
	default:
		return "UNKNOWN"
	}
}

// Decision pairs the chosen action with its range expression, which is only
// meaningful for RerenderRange and MergeRange.
type Decision struct {
	Action Action
	Range  string
}
