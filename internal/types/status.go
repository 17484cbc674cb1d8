package types

// StatusData represents the inner payload
type StatusData struct {
	ID       string `json:"id"`
	RunID    string `json:"runId"`
	Source   string `json:"source"`
	Output   string `json:"output,omitempty"`
	Status   string `json:"status"`
	ErrorMsg string `json:"errorMsg,omitempty"`
}

// StatusMessage represents the full message envelope
type StatusMessage struct {
	Pattern string     `json:"pattern"`
	Data    StatusData `json:"data"`
}

const PROCCESSED = "PROCESSED"
const SKIPPED = "SKIPPED"
const FAILED = "FAILED"

// StatusFor maps a job outcome onto the published status string.
func StatusFor(o Outcome) string {
	switch o {
	case Converted:
		return PROCCESSED
	case SkippedUnsupported:
		return SKIPPED
	default:
		return FAILED
	}
}
