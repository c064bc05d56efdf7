package errors

// Reason names the domain cause behind an Error. It is stable API surface
// for clients: the checkout and order flows branch on these strings.
type Reason string

const (
	ReasonProductUnavailable      Reason = "PRODUCT_UNAVAILABLE"
	ReasonInsufficientStock       Reason = "INSUFFICIENT_STOCK"
	ReasonQuantityOutOfRange      Reason = "QUANTITY_OUT_OF_RANGE"
	ReasonAddressNotFound         Reason = "ADDRESS_NOT_FOUND"
	ReasonSchedulingDisabled      Reason = "SCHEDULING_DISABLED"
	ReasonScheduleInPast          Reason = "SCHEDULE_IN_PAST"
	ReasonScheduleTooFar          Reason = "SCHEDULE_TOO_FAR"
	ReasonStoreClosed             Reason = "STORE_CLOSED"
	ReasonOutsideBusinessHours    Reason = "OUTSIDE_BUSINESS_HOURS"
	ReasonInvalidStatusTransition Reason = "INVALID_STATUS_TRANSITION"
	ReasonPreparationTimeMismatch Reason = "PREPARATION_TIME_MISMATCH"
)

// codeByReason pins each domain reason to its transport code so callers
// constructing a reasoned error never pick a mismatched HTTP status.
var codeByReason = map[Reason]Code{
	ReasonProductUnavailable:      CodeStateConflict,
	ReasonInsufficientStock:       CodeStateConflict,
	ReasonQuantityOutOfRange:      CodeValidation,
	ReasonAddressNotFound:         CodeNotFound,
	ReasonSchedulingDisabled:      CodeValidation,
	ReasonScheduleInPast:          CodeValidation,
	ReasonScheduleTooFar:          CodeValidation,
	ReasonStoreClosed:             CodeStateConflict,
	ReasonOutsideBusinessHours:    CodeStateConflict,
	ReasonInvalidStatusTransition: CodeStateConflict,
	ReasonPreparationTimeMismatch: CodeValidation,
}

// NewReason builds a domain error. Unknown reasons fall back to
// CodeInternal rather than panicking in a request path.
func NewReason(reason Reason, message string) *Error {
	code, ok := codeByReason[reason]
	if !ok {
		code = CodeInternal
	}
	return &Error{code: code, reason: reason, message: message}
}

// ReasonOf extracts the domain reason from an error chain, or "" when the
// error carries none.
func ReasonOf(err error) Reason {
	if typed := As(err); typed != nil {
		return typed.Reason()
	}
	return ""
}

// IsReason reports whether err carries the given domain reason.
func IsReason(err error, reason Reason) bool {
	return ReasonOf(err) == reason
}
