package bootstrap

// State is a step of the bootstrap.
type State int

const (
	StateLaunchBrowser State = iota
	StateAwaitHumanAck
	StateExtractContent
	StateBuildSession
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLaunchBrowser:
		return "LaunchBrowser"
	case StateAwaitHumanAck:
		return "AwaitHumanAck"
	case StateExtractContent:
		return "ExtractContent"
	case StateBuildSession:
		return "BuildSession"
	case StateDone:
		return "Done"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
