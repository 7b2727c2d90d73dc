package batch

import "strings"

// FailureClass buckets a per-document failure by cause, for run reports.
type FailureClass string

const (
	FailureRateLimited FailureClass = "rate-limited"
	FailurePermission  FailureClass = "permission"
	FailureNotFound    FailureClass = "not-found"
	FailureConnection  FailureClass = "timeout-or-connection"
	FailureOther       FailureClass = "other"
)

// classPatterns maps lowercase substrings to their bucket. Order
// matters: the first matching pattern wins.
var classPatterns = []struct {
	pattern string
	class   FailureClass
}{
	{"rate limit", FailureRateLimited},
	{"too many requests", FailureRateLimited},
	{"429", FailureRateLimited},
	{"unauthorized", FailurePermission},
	{"forbidden", FailurePermission},
	{"permission", FailurePermission},
	{"401", FailurePermission},
	{"403", FailurePermission},
	{"not found", FailureNotFound},
	{"404", FailureNotFound},
	{"timeout", FailureConnection},
	{"timed out", FailureConnection},
	{"deadline exceeded", FailureConnection},
	{"connection", FailureConnection},
	{"refused", FailureConnection},
}

// ClassifyFailure buckets an error message. Messages matching no known
// pattern land in FailureOther.
func ClassifyFailure(message string) FailureClass {
	lower := strings.ToLower(message)
	for _, p := range classPatterns {
		if strings.Contains(lower, p.pattern) {
			return p.class
		}
	}
	return FailureOther
}
