package classification

import "context"

// Category is the closed set of triage buckets.
type Category string

const (
	CategoryReply   Category = "reply"
	CategoryRead    Category = "read"
	CategoryArchive Category = "archive"
)

// Valid reports whether c is one of the three known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryReply, CategoryRead, CategoryArchive:
		return true
	}
	return false
}

// Result is one classification outcome. EmailID is stamped by the caller
// after the oracle returns; the oracle only ever sees prompt text.
type Result struct {
	EmailID    string   `json:"emailId"`
	Category   Category `json:"category"`
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning,omitempty"`
}

// Oracle classifies a formatted email into a Category. Implementations never
// fail: call errors and unparseable responses collapse to a deterministic
// fallback result.
type Oracle interface {
	Classify(ctx context.Context, content string) Result
}
