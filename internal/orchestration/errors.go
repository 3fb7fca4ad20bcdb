package orchestration

import "strings"

// failureClass buckets platform errors into the handful of cases that get
// distinct patient-facing apologies.
type failureClass string

const (
	failureAuth       failureClass = "authentication"
	failureNotFound   failureClass = "not_found"
	failurePermission failureClass = "permission"
	failureTimeout    failureClass = "timeout"
	failureUnknown    failureClass = "unknown"
)

// Patient-facing fallback messages. Raw platform errors never reach the
// patient; the technical detail travels in AgentResponse.Error instead.
const (
	apologyAuth = "I'm currently experiencing authentication issues. " +
		"Please try again in a moment or contact your healthcare provider."
	apologyNotFound = "I'm having trouble connecting to my knowledge base. " +
		"Please try again or contact your healthcare provider."
	apologyPermission = "I don't have the necessary permissions to answer right now. " +
		"Please contact your healthcare provider."
	apologyTimeout = "I apologize, but my response is taking longer than expected. " +
		"Please try again or contact your healthcare provider."
	apologyUnknown = "I apologize, but I'm experiencing technical difficulties. " +
		"Please contact your healthcare provider for immediate assistance."
)

// protocolFailureMessage is returned when every specialist has been tried
// without an adequate answer. It is delivered as a successful response so
// the patient sees guidance, not an error.
const protocolFailureMessage = "Sorry, this question cannot be answered at this moment. " +
	"Please contact your healthcare provider for assistance."

// classifyFailure inspects the error text for known upstream signatures.
// The platform does not expose structured error codes on every path, so
// substring matching is the common denominator.
func classifyFailure(err error) failureClass {
	if err == nil {
		return failureUnknown
	}
	text := strings.ToLower(err.Error())
	switch {
	case strings.Contains(text, "401") || strings.Contains(text, "unauthorized"):
		return failureAuth
	case strings.Contains(text, "404") || strings.Contains(text, "not found"):
		return failureNotFound
	case strings.Contains(text, "403") || strings.Contains(text, "forbidden"):
		return failurePermission
	case strings.Contains(text, "timeout") || strings.Contains(text, "deadline exceeded"):
		return failureTimeout
	default:
		return failureUnknown
	}
}

// apologyFor maps a failure class to its patient-facing message.
func apologyFor(class failureClass) string {
	switch class {
	case failureAuth:
		return apologyAuth
	case failureNotFound:
		return apologyNotFound
	case failurePermission:
		return apologyPermission
	case failureTimeout:
		return apologyTimeout
	default:
		return apologyUnknown
	}
}

// failureResponse builds the AgentResponse for an upstream error.
func failureResponse(err error) AgentResponse {
	return AgentResponse{
		Success: false,
		Message: apologyFor(classifyFailure(err)),
		Error:   err.Error(),
	}
}
