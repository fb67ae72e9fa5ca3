package linkup

import (
	"errors"
	"fmt"
)

// Local errors. Nothing is sent when one of these comes back from request building.
var (
	ErrMissingAPIKey   = errors.New("the Linkup API key was not provided")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrDecode          = errors.New("unexpected response format")
)

// Remote errors, matched through *APIError.Unwrap.
var (
	ErrInvalidRequest     = errors.New("invalid request")
	ErrAuthentication     = errors.New("authentication failed")
	ErrInsufficientCredit = errors.New("insufficient credit")
	ErrNoResult           = errors.New("no result")
	ErrUnknown            = errors.New("unknown error")
)

const noMessage = "No message provided"

type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindInvalidRequest
	KindAuthentication
	KindInsufficientCredit
	KindNoResult
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidRequest:
		return "invalid_request"
	case KindAuthentication:
		return "authentication"
	case KindInsufficientCredit:
		return "insufficient_credit"
	case KindNoResult:
		return "no_result"
	default:
		return "unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindInvalidRequest:
		return ErrInvalidRequest
	case KindAuthentication:
		return ErrAuthentication
	case KindInsufficientCredit:
		return ErrInsufficientCredit
	case KindNoResult:
		return ErrNoResult
	default:
		return ErrUnknown
	}
}

// APIError is a non-2xx answer of the Linkup API.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	// Message is the text the API put in the body, or a placeholder.
	Message string
}

func (e *APIError) Error() string {
	switch e.Kind {
	case KindInvalidRequest:
		return fmt.Sprintf("linkup: invalid request error (%d): make sure the parameters are valid "+
			"(correct values, types, mandatory parameters). Original error message: %s", e.StatusCode, e.Message)
	case KindNoResult:
		return fmt.Sprintf("linkup: no result error (%d): try rephrasing the query. Original error message: %s",
			e.StatusCode, e.Message)
	case KindAuthentication:
		return fmt.Sprintf("linkup: authentication error (%d): make sure the API key is valid and the account "+
			"has remaining credit. Original error message: %s", e.StatusCode, e.Message)
	case KindInsufficientCredit:
		return fmt.Sprintf("linkup: insufficient credit error (%d): make sure the account credits are not "+
			"exhausted. Original error message: %s", e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("linkup: unknown error (%d). Original error message: %s", e.StatusCode, e.Message)
	}
}

func (e *APIError) Unwrap() error {
	return e.Kind.sentinel()
}
