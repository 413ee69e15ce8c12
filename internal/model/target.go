package model

// TargetSite is one web page subjected to one accessibility scan.
// It is immutable once resolved from configuration.
type TargetSite struct {
	// URL is the absolute http(s) address of the page.
	URL string `json:"url"`
}

// NewTargetSite creates a TargetSite for the given URL.
func NewTargetSite(url string) TargetSite {
	return TargetSite{URL: url}
}

// String returns the target URL.
func (t TargetSite) String() string {
	return t.URL
}

// Credentials holds the login form inputs used when a target requires
// authentication. A run either has a complete set of credentials or none:
// callers pass a nil *Credentials when login must not be attempted.
type Credentials struct {
	// Username is typed into the field located by UsernameSelector.
	Username string `json:"username"`

	// Password is typed into the field located by PasswordSelector.
	// It is never serialized.
	Password string `json:"-"`

	// UsernameSelector is the CSS selector of the username input.
	UsernameSelector string `json:"username_selector"`

	// PasswordSelector is the CSS selector of the password input.
	PasswordSelector string `json:"password_selector"`

	// SubmitSelector is the CSS selector of the submit control. Its presence
	// on a page is what signals that the page requires a login.
	SubmitSelector string `json:"submit_selector"`
}

// Complete reports whether both the username and password are set.
func (c *Credentials) Complete() bool {
	return c != nil && c.Username != "" && c.Password != ""
}
