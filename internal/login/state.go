package login

// State is a step of the login sequence for one target.
type State int

const (
	// NoLoginNeeded means login was skipped: no credentials are configured
	// or the page has no submit control.
	NoLoginNeeded State = iota
	// Unauthenticated is the initial state when credentials are configured.
	Unauthenticated
	// AwaitingUsernameField means the login form was detected and the
	// username field is being waited for.
	AwaitingUsernameField
	// CredentialsSubmitted means the form was filled in and submitted.
	CredentialsSubmitted
	// Authenticated means navigation settled after the form was submitted.
	Authenticated
	// LoginTimeout is the terminal failure state: a bounded wait expired.
	LoginTimeout
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case NoLoginNeeded:
		return "NoLoginNeeded"
	case Unauthenticated:
		return "Unauthenticated"
	case AwaitingUsernameField:
		return "AwaitingUsernameField"
	case CredentialsSubmitted:
		return "CredentialsSubmitted"
	case Authenticated:
		return "Authenticated"
	case LoginTimeout:
		return "LoginTimeout"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	return s == NoLoginNeeded || s == Authenticated || s == LoginTimeout
}

// ReadyToScan reports whether the page may be scanned after reaching s.
func (s State) ReadyToScan() bool {
	return s == NoLoginNeeded || s == Authenticated
}
