// Package optimization provides shared data structures for optimization results.
package optimization

// Summary captures the result of a single search over one input field.
type Summary struct {
	Field           string   `json:"field"`
	Original        float64  `json:"original"`
	Value           float64  `json:"value"`
	Lower           float64  `json:"lower"`
	Upper           float64  `json:"upper"`
	RetirementValue float64  `json:"retirementValue"`
	EndValue        float64  `json:"endValue"`
	Iterations      int      `json:"iterations"`
	Converged       bool     `json:"converged"`
	Notes           []string `json:"notes,omitempty"`
	OriginalDisplay string   `json:"originalDisplay,omitempty"`
	ValueDisplay    string   `json:"valueDisplay,omitempty"`
}
