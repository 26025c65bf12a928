// internal/booking/state.go
//
// Submission states and failure kinds.
//
//	Idle → ConfirmPending → Validating → Authenticating →
//	  ResolvingAvailability → Submitting → Succeeded | Failed
//
// Failed is transient: the controller records the failure and moves straight
// back to Idle.  Succeeded is terminal for a draft.

package booking

import "encoding/json"

// State is one node of the submission state machine.
type State int

const (
	StateIdle State = iota
	StateConfirmPending
	StateValidating
	StateAuthenticating
	StateResolvingAvailability
	StateSubmitting
	StateSucceeded
	StateFailed
)

var stateNames = [...]string{
	StateIdle:                  "idle",
	StateConfirmPending:        "confirm_pending",
	StateValidating:            "validating",
	StateAuthenticating:        "authenticating",
	StateResolvingAvailability: "resolving_availability",
	StateSubmitting:            "submitting",
	StateSucceeded:             "succeeded",
	StateFailed:                "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// MarshalJSON renders the state name.
func (s State) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

// inFlight reports whether a submission pipeline owns the draft.
func (s State) inFlight() bool {
	return s >= StateValidating && s <= StateSubmitting
}

// FailureKind classifies a Failed transition.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureFormInvalid
	FailureAuthRequired
	FailureAvailabilityMissing
	FailureRemoteError
)

var failureNames = [...]string{
	FailureNone:                "none",
	FailureFormInvalid:         "form_invalid",
	FailureAuthRequired:        "auth_required",
	FailureAvailabilityMissing: "availability_missing",
	FailureRemoteError:         "remote_error",
}

func (f FailureKind) String() string {
	if f < 0 || int(f) >= len(failureNames) {
		return "unknown"
	}
	return failureNames[f]
}

// MarshalJSON renders the failure name.
func (f FailureKind) MarshalJSON() ([]byte, error) { return json.Marshal(f.String()) }
