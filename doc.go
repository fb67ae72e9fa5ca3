// Package linkup is a client for the Linkup search and content API.
//
// A Client issues one GET request per call and maps the response either to a
// typed output or to an error. Remote failures are returned as *APIError and
// can be matched with errors.Is against ErrInvalidRequest, ErrAuthentication,
// ErrInsufficientCredit, ErrNoResult and ErrUnknown. Local failures wrap
// ErrInvalidArgument (rejected before any request is sent) or ErrDecode (the
// response did not have the expected shape).
//
// Every operation has a blocking form and an Async form returning a *Call.
// Both go through the same request building and response decoding.
package linkup
