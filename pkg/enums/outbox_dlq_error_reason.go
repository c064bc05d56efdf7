package enums

// OutboxDLQErrorReason explains why a row was parked in the dead letter queue.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
)

// IsValid reports whether the value matches the canonical enum.
func (o OutboxDLQErrorReason) IsValid() bool {
	return o == OutboxDLQReasonNonRetryable || o == OutboxDLQReasonMaxAttempts
}

// String implements fmt.Stringer.
func (o OutboxDLQErrorReason) String() string {
	return string(o)
}
