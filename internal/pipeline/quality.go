package pipeline

// Verdict is the state reached by the quality retry policy.
type Verdict int

const (
	VerdictAccepted Verdict = iota
	VerdictRetrying
	VerdictRejected
)

func (v Verdict) String() string {
	switch v {
	case VerdictAccepted:
		return "accepted"
	case VerdictRetrying:
		return "retrying"
	default:
		return "rejected"
	}
}

// RetryPolicy decides what to do with a validated output that may be larger
// than its input.
type RetryPolicy struct {
	EnableRetry       bool
	AllowLarger       bool
	AcceptRetryOutput bool
}

// Initial evaluates the first successful, validated transcode.
func (p RetryPolicy) Initial(inputBytes, outputBytes int64) (Verdict, SkipReason) {
	switch {
	case outputBytes <= inputBytes:
		return VerdictAccepted, ReasonNone
	case p.AllowLarger:
		return VerdictAccepted, ReasonNone
	case p.EnableRetry:
		return VerdictRetrying, ReasonNone
	default:
		return VerdictRejected, ReasonOutputLarger
	}
}

// AfterRetry evaluates the degraded-quality attempt. valid is false when the
// retry failed to transcode or its output did not validate.
func (p RetryPolicy) AfterRetry(valid bool, inputBytes, outputBytes int64) (Verdict, SkipReason) {
	switch {
	case !valid:
		return VerdictRejected, ReasonRetryFailed
	case outputBytes <= inputBytes:
		return VerdictAccepted, ReasonNone
	case p.AcceptRetryOutput:
		return VerdictAccepted, ReasonNone
	default:
		return VerdictRejected, ReasonRetryLarger
	}
}
