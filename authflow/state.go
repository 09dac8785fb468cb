package authflow

// AuthState tracks where a session is in its login lifecycle.
type AuthState int

const (
	StateUnauthenticated AuthState = iota
	StateAwaitingScan
	StateAuthenticated
	StateFailed
)

func (s AuthState) String() string {
	switch s {
	case StateAwaitingScan:
		return "awaiting_scan"
	case StateAuthenticated:
		return "authenticated"
	case StateFailed:
		return "failed"
	default:
		return "unauthenticated"
	}
}
