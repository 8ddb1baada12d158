package harness

// Trace entry types.
const (
	TraceInvocation = "invocation"
	TraceCompletion = "completion"
	TraceEvent      = "event"
)

// TraceEntry is one line of a scenario trace: an invocation, a notification
// the invocation caused, or its completion.
type TraceEntry struct {
	Type   string                 `json:"type"`
	Action string                 `json:"action,omitempty"`
	Args   map[string]interface{} `json:"args,omitempty"`
	Case   string                 `json:"case,omitempty"`
	Result map[string]interface{} `json:"result,omitempty"`
	Kind   string                 `json:"kind,omitempty"`
	Attrs  map[string]interface{} `json:"attrs,omitempty"`
	OpID   string                 `json:"op_id,omitempty"`
	Seq    int64                  `json:"seq"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expect clauses and assertions match.
	Pass bool `json:"pass"`

	// Trace contains all invocations, notifications and completions in order.
	Trace []TraceEntry `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEntry{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) add(e TraceEntry) {
	e.Seq = int64(len(r.Trace) + 1)
	r.Trace = append(r.Trace, e)
}

// AddInvocationTrace adds an invocation to the trace.
func (r *Result) AddInvocationTrace(action string, args map[string]interface{}) {
	r.add(TraceEntry{Type: TraceInvocation, Action: action, Args: args})
}

// AddEventTrace adds a published notification to the trace.
func (r *Result) AddEventTrace(kind, opID string, attrs map[string]interface{}) {
	r.add(TraceEntry{Type: TraceEvent, Kind: kind, OpID: opID, Attrs: attrs})
}

// AddCompletionTrace adds a completion to the trace.
func (r *Result) AddCompletionTrace(outputCase string, result map[string]interface{}) {
	r.add(TraceEntry{Type: TraceCompletion, Case: outputCase, Result: result})
}

// Events returns the notification entries of the trace.
func (r *Result) Events() []TraceEntry {
	var out []TraceEntry
	for _, e := range r.Trace {
		if e.Type == TraceEvent {
			out = append(out, e)
		}
	}
	return out
}
