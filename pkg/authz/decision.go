package authz

// DenyReason explains why a Decision was negative.
type DenyReason string

const (
	ReasonNone              DenyReason = ""
	ReasonUnknownRole       DenyReason = "unknown_role"
	ReasonUnknownPermission DenyReason = "unknown_permission"
	ReasonNotGranted        DenyReason = "not_granted"
	ReasonOutranked         DenyReason = "outranked"
	ReasonSelf              DenyReason = "self"
	ReasonEvaluation        DenyReason = "evaluation_failed"
)

// Decision is the typed outcome of a capability check.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

// Allow is the positive Decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny builds a negative Decision with the given reason.
func Deny(reason DenyReason) Decision {
	return Decision{Reason: reason}
}
