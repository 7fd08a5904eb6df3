package items

// SessionState tracks one authenticated session's mirror lifecycle.
type SessionState string

const (
	// StateUnauthenticated means no user is bound; mirrors are empty and
	// every operation is rejected.
	StateUnauthenticated SessionState = "unauthenticated"
	// StateSubscriptionPending means sign-in succeeded and the push
	// subscriptions are being established.
	StateSubscriptionPending SessionState = "subscription_pending"
	// StateLive means both list subscriptions are established; every push
	// re-enters this state with the mirror replaced.
	StateLive SessionState = "live"
	// StateError means subscription setup failed. The mirror is cleared and
	// there is no automatic retry; recovery requires a fresh sign-in.
	StateError SessionState = "error"
)

func (s SessionState) String() string { return string(s) }
