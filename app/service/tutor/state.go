package tutor

// State is the position of a session in the tutoring flow.
type State int

const (
	// StateGreeting is the entry state: empty input gets a greeting,
	// anything else is treated as a learning goal to extract.
	StateGreeting State = iota
	// StateExtractInfo waits for the user to name grade, subject and topic.
	StateExtractInfo
	// StateAwaitAnswer waits for the user's answer to the current question.
	StateAwaitAnswer
	// StateDetermineNext is only reachable after a failed evaluation; it
	// restarts the flow on the next input.
	StateDetermineNext
)

func (s State) String() string {
	switch s {
	case StateGreeting:
		return "greeting"
	case StateExtractInfo:
		return "extract_info"
	case StateAwaitAnswer:
		return "await_answer"
	case StateDetermineNext:
		return "determine_next"
	default:
		return "unknown"
	}
}
