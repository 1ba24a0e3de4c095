package client

// ErrorKind classifies workflow failures for presentation: validation
// errors never reach the network, backend errors carry the service's own
// message, transport errors cover everything in between.
type ErrorKind string

const (
	ErrKindValidation ErrorKind = "validation"
	ErrKindBackend    ErrorKind = "backend"
	ErrKindTransport  ErrorKind = "transport"
)

// ErrorInfo is a classified, user-presentable workflow error. It is
// terminal for the operation that raised it; no workflow retries
// internally.
type ErrorInfo struct {
	Kind    ErrorKind
	Message string
}

func (e *ErrorInfo) Error() string {
	return e.Message
}

func validationErr(message string) *ErrorInfo {
	return &ErrorInfo{Kind: ErrKindValidation, Message: message}
}

func backendErr(message string) *ErrorInfo {
	return &ErrorInfo{Kind: ErrKindBackend, Message: message}
}

func transportErr(message string) *ErrorInfo {
	return &ErrorInfo{Kind: ErrKindTransport, Message: message}
}

// asErrorInfo normalizes any error into an ErrorInfo so workflow state
// always carries a classified error. Unrecognized errors are treated as
// transport failures.
func asErrorInfo(err error) *ErrorInfo {
	if ei, ok := err.(*ErrorInfo); ok {
		return ei
	}
	return transportErr(err.Error())
}
