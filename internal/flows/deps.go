package flows

import "time"

// Subject is the flow-local view of a user.
type Subject struct {
	ID           string
	Role         string
	PasswordHash string
	Disabled     bool
}

// AccessToken is a signed access token and its identifiers.
type AccessToken struct {
	Token     string
	JTI       string
	ExpiresAt time.Time
}

// Deps groups flow dependency sets. The root engine builds this once and
// delegates request methods to the matching flow.
type Deps struct {
	Login    LoginDeps
	Refresh  RefreshDeps
	Logout   LogoutDeps
	Validate ValidateDeps
}

func nopWarn(string, ...any) {}

func nopMetric(int) {}
