package agentstream

// Profile controls which event kinds a Translator emits for a particular
// audience. Different consumers want different granularity: an end-user
// chat UI wants assistant text and tool progress but not raw token deltas;
// a debug console wants everything.
type Profile struct {
	Assistant         bool
	Thoughts          bool
	ToolStart         bool
	ToolCallArgsDelta bool
	ToolOutputDelta   bool
	ToolEnd           bool
	Usage             bool
	Workflow          bool
}

// DefaultProfile emits every event kind.
func DefaultProfile() Profile {
	return Profile{
		Assistant:         true,
		Thoughts:          true,
		ToolStart:         true,
		ToolCallArgsDelta: true,
		ToolOutputDelta:   true,
		ToolEnd:           true,
		Usage:             true,
		Workflow:          true,
	}
}

// UserChatProfile emits only what an end-user chat surface renders:
// assistant text and tool lifecycle, no raw argument/output deltas or
// planner thoughts.
func UserChatProfile() Profile {
	return Profile{
		Assistant: true,
		ToolStart: true,
		ToolEnd:   true,
		Workflow:  true,
	}
}

// AgentDebugProfile emits everything, including planner thoughts and raw
// streaming deltas, for a developer-facing debug console.
func AgentDebugProfile() Profile {
	return DefaultProfile()
}

// MetricsProfile emits only usage and workflow lifecycle events, suitable
// for a consumer that aggregates cost/latency without rendering content.
func MetricsProfile() Profile {
	return Profile{
		Usage:    true,
		Workflow: true,
	}
}
