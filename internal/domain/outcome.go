package domain

// GateResult is the verdict of one acceptance gate for one attempt.
type GateResult struct {
	Passed bool
	Score  float64
	Reason string
}

// Attempt records a single engine invocation and its gate scores.
type Attempt struct {
	Index         int
	ImageURL      string
	Seed          int64
	Engine        string
	IdentityScore *float64
	FidelityScore *float64
	Gate          GateResult
}

// Outcome is the terminal result of a generation request.
type Outcome struct {
	Status        JobStatus
	RawURL        string
	ProcessedURL  string
	Seed          int64
	AttemptCount  int
	IdentityScore *float64
	FidelityScore *float64
	Reason        string
	Error         string
}

// Float returns a pointer to v, for optional score fields.
func Float(v float64) *float64 {
	return &v
}
