// Package login signs in to a target page through its login form before the
// page is scanned.
//
// The sequence is an explicit state machine:
//
//	NoLoginNeeded
//	Unauthenticated -> AwaitingUsernameField -> CredentialsSubmitted -> Authenticated
//	                          \__________________________\__________> LoginTimeout
//
// A page without the configured submit control, or a run without
// credentials, ends in NoLoginNeeded and is scanned as is. The field wait
// and the navigation wait each carry their own timeout, nested inside the
// caller's context; whichever deadline comes first ends the wait.
package login
