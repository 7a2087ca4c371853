package generation

// Kind tags the variant held by a Result.
type Kind int

const (
	KindSuccess Kind = iota
	KindEmptyResult
	KindTransportError
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindEmptyResult:
		return "empty_result"
	case KindTransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// Result is the decoded outcome of one generation call.
// Payload and MIMEType are set only for KindSuccess; StatusCode only for
// KindTransportError.
type Result struct {
	Kind       Kind
	Payload    []byte
	MIMEType   string
	StatusCode int
	cause      error
}

func success(payload []byte, mimeType string) Result {
	return Result{Kind: KindSuccess, Payload: payload, MIMEType: mimeType}
}

func empty(cause error) Result {
	return Result{Kind: KindEmptyResult, cause: cause}
}

func transportFailure(status int, cause error) Result {
	return Result{Kind: KindTransportError, StatusCode: status, cause: cause}
}

// Err returns nil for KindSuccess, a *TransportError for KindTransportError,
// and an error wrapping ErrEmptyResult for KindEmptyResult.
func (r Result) Err() error {
	switch r.Kind {
	case KindSuccess:
		return nil
	case KindTransportError:
		return &TransportError{StatusCode: r.StatusCode, Err: r.cause}
	default:
		if r.cause != nil && r.cause != ErrEmptyResult {
			return &emptyError{cause: r.cause}
		}
		return ErrEmptyResult
	}
}

type emptyError struct{ cause error }

func (e *emptyError) Error() string { return ErrEmptyResult.Error() + ": " + e.cause.Error() }

func (e *emptyError) Is(target error) bool { return target == ErrEmptyResult }

func (e *emptyError) Unwrap() error { return e.cause }
