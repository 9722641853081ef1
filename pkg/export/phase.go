package export

// Phase is the state of one export submission
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSubmitting
	PhaseAwaitingResponse
	PhasePackaging
	PhaseReady
	PhaseRedirecting
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSubmitting:
		return "submitting"
	case PhaseAwaitingResponse:
		return "awaiting_response"
	case PhasePackaging:
		return "packaging"
	case PhaseReady:
		return "ready"
	case PhaseRedirecting:
		return "redirecting"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Status messages shown while the simulated ticker runs. Thresholds narrate
// fake phases since the server only answers at completion.
const (
	msgProcessing = "Processing snapshot..."
	msgCrunching  = "Crunching the numbers..."
	msgAlmost     = "Almost there..."
	msgPackaging  = "Packaging your export..."
	msgReady      = "Export ready"
	msgGeneric    = "Export failed. Please try again."
)

// statusForPercent returns the narration for a simulated progress value
func statusForPercent(percent int) string {
	switch {
	case percent < 30:
		return msgProcessing
	case percent < 60:
		return msgCrunching
	default:
		return msgAlmost
	}
}

// clampPercent keeps a progress value within the displayable range
func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
