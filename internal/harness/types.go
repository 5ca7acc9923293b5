package harness

import "github.com/roach88/polydb/internal/polygon"

// TraceEvent records one executed step and what the store returned.
type TraceEvent struct {
	Step     int               `json:"step"`
	Op       string            `json:"op"`
	Name     string            `json:"name,omitempty"`
	Found    *bool             `json:"found,omitempty"`
	Rows     *int64            `json:"rows,omitempty"`
	Polygon  *polygon.Polygon  `json:"polygon,omitempty"`
	Polygons []polygon.Polygon `json:"polygons,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every expectation matched.
	Pass bool `json:"pass"`

	// Trace contains one event per executed step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation mismatches. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends ev to the trace.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
