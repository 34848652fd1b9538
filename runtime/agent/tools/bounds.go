package tools

// Bounds describes how a tool result has been bounded relative to the full
// underlying data set. It lets a tool return a large or unbounded result
// set (search hits, log lines, time-series points) while telling the model
// and any downstream UI exactly how much was cut and how to ask for more.
//
// Returned reports how many items or points are present in the bounded
// view. Total, when non-nil, reports the best-effort total before
// truncation. Truncated indicates whether any caps were applied (length,
// window, depth). RefinementHint gives short, human-readable guidance on
// how to narrow the query when Truncated is true.
type Bounds struct {
	Returned       int
	Total          *int
	Truncated      bool
	RefinementHint string
}

// BoundedResult is an optional interface a Tool's Execute result may
// implement to expose boundedness metadata directly, instead of the
// dispatcher having to heuristically inspect tool-specific fields.
type BoundedResult interface {
	Bounds() Bounds
}

// boundedEnvelope wraps a tool result together with its Bounds when the
// result implements BoundedResult, so the bounds survive the trip through
// message.ToolReturnPart.Content to the model and to UI adapters.
type boundedEnvelope struct {
	Result any    `json:"result"`
	Bounds Bounds `json:"bounds"`
}

func wrapBounded(result any) any {
	br, ok := result.(BoundedResult)
	if !ok {
		return result
	}
	return boundedEnvelope{Result: result, Bounds: br.Bounds()}
}
