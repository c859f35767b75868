package authz

// Reason explains a Decision. Denials with different reasons produce the same
// external behaviour (403), but stay distinguishable in logs and tests.
type Reason string

const (
	ReasonSuperuser    Reason = "superuser"
	ReasonGranted      Reason = "granted"
	ReasonNoGrant      Reason = "no_grant"
	ReasonRevoked      Reason = "revoked"
	ReasonUnknownPage  Reason = "unknown_page"
	ReasonOutsideScope Reason = "outside_scope"
	ReasonStoreError   Reason = "store_error"
)

// Decision is the result of a permission evaluation.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Allow builds an allowing decision.
func Allow(reason Reason) Decision {
	return Decision{Allowed: true, Reason: reason}
}

// Deny builds a denying decision.
func Deny(reason Reason) Decision {
	return Decision{Allowed: false, Reason: reason}
}
