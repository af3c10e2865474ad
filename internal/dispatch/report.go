package dispatch

// Outcome of one suggestion.
type Outcome string

const (
	OutcomeApplied  Outcome = "applied"
	OutcomeNoop     Outcome = "noop"
	OutcomeInactive Outcome = "inactive"
	OutcomeFailed   Outcome = "failed"
	OutcomeRejected Outcome = "rejected"
)

// Entry reports one suggestion.
type Entry struct {
	ID      string  `json:"id"`
	Kind    string  `json:"kind"`
	Outcome Outcome `json:"outcome"`
	Touched int     `json:"touched"`
	Created bool    `json:"created,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// Report summarizes one pass over a suggestion batch.
type Report struct {
	Applied        int     `json:"applied"`
	Noop           int     `json:"noop"`
	Inactive       int     `json:"inactive"`
	Failed         int     `json:"failed"`
	Rejected       int     `json:"rejected"`
	Touched        int     `json:"touched"`
	StructuredData bool    `json:"structured_data"`
	Entries        []Entry `json:"entries"`
}

func (r *Report) add(e Entry) {
	switch e.Outcome {
	case OutcomeApplied:
		r.Applied++
	case OutcomeNoop:
		r.Noop++
	case OutcomeInactive:
		r.Inactive++
	case OutcomeFailed:
		r.Failed++
	case OutcomeRejected:
		r.Rejected++
	}
	r.Touched += e.Touched
	r.Entries = append(r.Entries, e)
}
