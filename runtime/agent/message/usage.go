package message

// RequestUsage reports token accounting for a single model invocation.
type RequestUsage struct {
	// InputTokens is the number of tokens consumed by the request.
	InputTokens int
	// OutputTokens is the number of tokens produced by the response.
	OutputTokens int
	// CacheReadTokens is tokens served from a provider cache.
	CacheReadTokens int
	// CacheWriteTokens is tokens written to a provider cache.
	CacheWriteTokens int
	// Requests counts the number of underlying provider calls this usage
	// reflects. Provider adapters leave it at zero; the run loop counts
	// each model invocation that reports zero as one request.
	Requests int
}

// TotalTokens returns InputTokens + OutputTokens.
func (u RequestUsage) TotalTokens() int {
	return u.InputTokens + u.OutputTokens
}

// Add returns the element-wise sum of u and other. Usage accounting is
// monotonic: adding never decreases any field, so running totals computed
// by repeated Add calls never regress (testable property U1).
func (u RequestUsage) Add(other RequestUsage) RequestUsage {
	return RequestUsage{
		InputTokens:      u.InputTokens + other.InputTokens,
		OutputTokens:     u.OutputTokens + other.OutputTokens,
		CacheReadTokens:  u.CacheReadTokens + other.CacheReadTokens,
		CacheWriteTokens: u.CacheWriteTokens + other.CacheWriteTokens,
		Requests:         u.Requests + other.Requests,
	}
}

// RunUsage accumulates RequestUsage across every model invocation made
// during a run, plus a count of tool calls executed.
type RunUsage struct {
	RequestUsage
	// ToolCalls counts tool invocations dispatched during the run.
	ToolCalls int
}

// AddRequest folds a single invocation's usage into the running total.
func (u RunUsage) AddRequest(r RequestUsage) RunUsage {
	u.RequestUsage = u.RequestUsage.Add(r)
	return u
}

// AddToolCalls increments the tool call counter by n.
func (u RunUsage) AddToolCalls(n int) RunUsage {
	u.ToolCalls += n
	return u
}

// UsageLimits bounds a run's resource consumption. A zero value in any
// field means "unlimited" for that dimension.
type UsageLimits struct {
	// RequestLimit caps the number of model invocations in a run.
	RequestLimit int
	// TotalTokensLimit caps the sum of input+output tokens across the run.
	TotalTokensLimit int
	// ToolCallsLimit caps the number of tool calls executed in a run.
	ToolCallsLimit int
}

// Exceeded reports whether usage has exceeded any configured limit.
func (l UsageLimits) Exceeded(u RunUsage) bool {
	if l.RequestLimit > 0 && u.Requests > l.RequestLimit {
		return true
	}
	if l.TotalTokensLimit > 0 && u.TotalTokens() > l.TotalTokensLimit {
		return true
	}
	if l.ToolCallsLimit > 0 && u.ToolCalls > l.ToolCallsLimit {
		return true
	}
	return false
}
