package specfit

// FitState is the driver's small state machine (§3, "Fit state").
type FitState int

const (
	Idle FitState = iota
	EstimateInProgress
	ReadyToFit
	FitInProgress
	Ready
)

func (s FitState) String() string {
	switch s {
	case Idle:
		return "Idle"
	case EstimateInProgress:
		return "EstimateInProgress"
	case ReadyToFit:
		return "ReadyToFit"
	case FitInProgress:
		return "FitInProgress"
	case Ready:
		return "Ready"
	default:
		return "Unknown"
	}
}

// FitStatusChanged is the event payload emitted on every state transition
// (§4.5, §9 "Event model").
type FitStatusChanged struct {
	State FitState
	Chisq float64
}

// EventSink replaces the source's observer-pattern singletons with an
// explicit function value passed at construction; emission is a no-op when
// none is attached (§9, "Event model").
type EventSink func(FitStatusChanged)

func emit(sink EventSink, state FitState, chisq float64) {
	if sink == nil {
		return
	}

	sink(FitStatusChanged{State: state, Chisq: chisq})
}
