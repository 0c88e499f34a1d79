package tools

// ErrorKind classifies send_message failures.
type ErrorKind string

func (k ErrorKind) Error() string { return string(k) }

const (
	ErrValidation              ErrorKind = "validation error"
	ErrInterrupted             ErrorKind = "interrupted"
	ErrGatewayUnavailable      ErrorKind = "gateway unavailable"
	ErrUnknownPlatform         ErrorKind = "unknown platform"
	ErrPlatformNotConfigured   ErrorKind = "platform not configured"
	ErrNoHomeChannel           ErrorKind = "no home channel"
	ErrUnresolvableChannelName ErrorKind = "unresolvable channel name"
	ErrTransport               ErrorKind = "transport failure"
	ErrDirectory               ErrorKind = "directory failure"
	ErrConfig                  ErrorKind = "config failure"
)

// DispatchError carries a user-facing message and its kind.
// errors.Is(err, ErrUnknownPlatform) matches on kind.
type DispatchError struct {
	Kind    ErrorKind
	Message string
}

func (e *DispatchError) Error() string { return e.Message }

func (e *DispatchError) Is(target error) bool {
	k, ok := target.(ErrorKind)
	return ok && k == e.Kind
}

func newError(kind ErrorKind, msg string) *DispatchError {
	return &DispatchError{Kind: kind, Message: msg}
}
