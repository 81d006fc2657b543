package internaldefs

import (
	"github.com/MrEthical07/authcore"
)

type CounterDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

type HistogramDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: authcore.MetricLoginSuccess, Name: "authcore_login_success_total", Help: "Successful login attempts."},
	{ID: authcore.MetricLoginFailure, Name: "authcore_login_failure_total", Help: "Failed login attempts."},
	{ID: authcore.MetricLoginRateLimited, Name: "authcore_login_rate_limited_total", Help: "Login attempts rejected by the per-IP limit."},
	{ID: authcore.MetricRefreshSuccess, Name: "authcore_refresh_success_total", Help: "Successful refresh rotations."},
	{ID: authcore.MetricRefreshFailure, Name: "authcore_refresh_failure_total", Help: "Failed refresh attempts."},
	{ID: authcore.MetricRefreshReuseDetected, Name: "authcore_refresh_reuse_detected_total", Help: "Presentations of an already rotated refresh token."},
	{ID: authcore.MetricLogout, Name: "authcore_logout_total", Help: "Logout operations that revoked at least one token."},
	{ID: authcore.MetricValidateSuccess, Name: "authcore_validate_success_total", Help: "Accepted access tokens."},
	{ID: authcore.MetricValidateRejected, Name: "authcore_validate_rejected_total", Help: "Rejected access tokens."},
	{ID: authcore.MetricBlacklistHit, Name: "authcore_blacklist_hit_total", Help: "Access tokens rejected by the blacklist."},
	{ID: authcore.MetricRegisterSuccess, Name: "authcore_register_success_total", Help: "Created accounts."},
	{ID: authcore.MetricRegisterDuplicate, Name: "authcore_register_duplicate_total", Help: "Registrations rejected for an existing email."},
	{ID: authcore.MetricVerificationSent, Name: "authcore_verification_sent_total", Help: "Verification emails sent."},
	{ID: authcore.MetricVerificationRateLimited, Name: "authcore_verification_rate_limited_total", Help: "Verification sends rejected by the per-user limit."},
	{ID: authcore.MetricEmailVerified, Name: "authcore_email_verified_total", Help: "Completed email verifications."},
	{ID: authcore.MetricAccountDisabled, Name: "authcore_account_disabled_total", Help: "Account disable operations."},
	{ID: authcore.MetricAccountEnabled, Name: "authcore_account_enabled_total", Help: "Account enable operations."},
	{ID: authcore.MetricDependencyUnavailable, Name: "authcore_dependency_unavailable_total", Help: "Operations failed by an unavailable store."},
}

var HistogramDefs = []HistogramDef{
	{ID: authcore.MetricLoginLatency, Name: "authcore_login_latency_seconds", Help: "Login latency histogram."},
	{ID: authcore.MetricRefreshLatency, Name: "authcore_refresh_latency_seconds", Help: "Refresh latency histogram."},
	{ID: authcore.MetricValidateLatency, Name: "authcore_validate_latency_seconds", Help: "Access token validation latency histogram."},
}

// HistogramBounds are the finite upper bounds in seconds. The engine keeps
// one more bucket for +Inf.
var HistogramBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
