package backport

// State is a step of a backport run
type State int

const (
	StateIdle State = iota
	StateSyncing
	StateBranching
	StateReplaying
	StateConflictPending
	StateResolved
	StateAbandoned
	StatePushing
	StatePublishingChange
	StateDone
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:             "idle",
	StateSyncing:          "syncing",
	StateBranching:        "branching",
	StateReplaying:        "replaying",
	StateConflictPending:  "conflict-pending",
	StateResolved:         "resolved",
	StateAbandoned:        "abandoned",
	StatePushing:          "pushing",
	StatePublishingChange: "publishing-change",
	StateDone:             "done",
	StateFailed:           "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}
