package mmsclient

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures returned by Client operations.
type ErrorKind int

const (
	KindConfiguration ErrorKind = iota + 1
	KindSession
	KindEngine
	KindControl
	KindTransient
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindSession:
		return "session"
	case KindEngine:
		return "engine"
	case KindControl:
		return "control"
	case KindTransient:
		return "transient"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

var (
	ErrAlreadyRunning    = errors.New("client already running")
	ErrNotConnected      = errors.New("not connected")
	ErrAlreadySubscribed = errors.New("report already enabled")
	ErrNotSubscribed     = errors.New("no active report")
	ErrInvalidParams     = errors.New("invalid parameters")
	ErrControlBlocked    = errors.New("control blocked")
	ErrClientClosed      = errors.New("client closed")
	ErrNoLogicalDevices  = errors.New("no valid logical devices found")
	ErrShutdownTimeout   = errors.New("connect loop did not stop in time")
)

// Error is the error type returned by Client operations.
type Error struct {
	Kind ErrorKind
	Op   string
	Ref  string
	Err  error
}

func (e *Error) Error() string {
	if e.Ref != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Ref, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, op, ref string, err error) *Error {
	return &Error{Kind: kind, Op: op, Ref: ref, Err: err}
}

// IsKind reports whether any error in err's chain is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// ClientError mirrors libiec61850's IedClientError codes.
type ClientError int

const (
	IED_ERROR_OK                                    ClientError = 0
	IED_ERROR_NOT_CONNECTED                         ClientError = 1
	IED_ERROR_ALREADY_CONNECTED                     ClientError = 2
	IED_ERROR_CONNECTION_LOST                       ClientError = 3
	IED_ERROR_SERVICE_NOT_SUPPORTED                 ClientError = 4
	IED_ERROR_CONNECTION_REJECTED                   ClientError = 5
	IED_ERROR_OUTSTANDING_CALL_LIMIT_REACHED        ClientError = 6
	IED_ERROR_USER_PROVIDED_INVALID_ARGUMENT        ClientError = 10
	IED_ERROR_ENABLE_REPORT_FAILED_DATASET_MISMATCH ClientError = 11
	IED_ERROR_OBJECT_REFERENCE_INVALID              ClientError = 12
	IED_ERROR_UNEXPECTED_VALUE_RECEIVED             ClientError = 13
	IED_ERROR_TIMEOUT                               ClientError = 20
	IED_ERROR_ACCESS_DENIED                         ClientError = 21
	IED_ERROR_OBJECT_DOES_NOT_EXIST                 ClientError = 22
	IED_ERROR_OBJECT_EXISTS                         ClientError = 23
	IED_ERROR_OBJECT_ACCESS_UNSUPPORTED             ClientError = 24
	IED_ERROR_TYPE_INCONSISTENT                     ClientError = 25
	IED_ERROR_TEMPORARILY_UNAVAILABLE               ClientError = 26
	IED_ERROR_OBJECT_UNDEFINED                      ClientError = 27
	IED_ERROR_INVALID_ADDRESS                       ClientError = 28
	IED_ERROR_HARDWARE_FAULT                        ClientError = 29
	IED_ERROR_TYPE_UNSUPPORTED                      ClientError = 30
	IED_ERROR_OBJECT_ATTRIBUTE_INCONSISTENT         ClientError = 31
	IED_ERROR_OBJECT_VALUE_INVALID                  ClientError = 32
	IED_ERROR_OBJECT_INVALIDATED                    ClientError = 33
	IED_ERROR_MALFORMED_MESSAGE                     ClientError = 34
	IED_ERROR_SERVICE_NOT_IMPLEMENTED               ClientError = 98
	IED_ERROR_UNKNOWN                               ClientError = 99
)

func (e ClientError) Error() string {
	switch e {
	case IED_ERROR_OK:
		return "No error"
	case IED_ERROR_NOT_CONNECTED:
		return "Not connected"
	case IED_ERROR_ALREADY_CONNECTED:
		return "Already connected"
	case IED_ERROR_CONNECTION_LOST:
		return "Connection lost"
	case IED_ERROR_SERVICE_NOT_SUPPORTED:
		return "Service not supported"
	case IED_ERROR_CONNECTION_REJECTED:
		return "Connection rejected"
	case IED_ERROR_TIMEOUT:
		return "Timeout"
	case IED_ERROR_ACCESS_DENIED:
		return "Access denied"
	case IED_ERROR_OBJECT_DOES_NOT_EXIST:
		return "Object does not exist"
	case IED_ERROR_OBJECT_EXISTS:
		return "Object exists"
	case IED_ERROR_OBJECT_ACCESS_UNSUPPORTED:
		return "Object access unsupported"
	case IED_ERROR_TYPE_INCONSISTENT:
		return "Type inconsistent"
	case IED_ERROR_TEMPORARILY_UNAVAILABLE:
		return "Temporarily unavailable"
	case IED_ERROR_OBJECT_UNDEFINED:
		return "Object undefined"
	case IED_ERROR_INVALID_ADDRESS:
		return "Invalid address"
	case IED_ERROR_HARDWARE_FAULT:
		return "Hardware fault"
	case IED_ERROR_TYPE_UNSUPPORTED:
		return "Type unsupported"
	case IED_ERROR_OBJECT_VALUE_INVALID:
		return "Object value invalid"
	default:
		return fmt.Sprintf("Unknown error: %d", int(e))
	}
}

