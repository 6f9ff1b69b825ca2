package main

import (
	"errors"
	"fmt"
	"net/http"
)

// errCredentialsNotFound marks a session whose vault entry expired or never
// existed. The session cookie outlives the vault TTL, so this is an expected
// path: handlers treat it as "not authenticated" and redirect to the form.
var errCredentialsNotFound = errors.New("credentials not found")

// StatsFetchError wraps any transport, status or schema failure while
// calling the analysis service. The affected stat's message batch is
// silently omitted from the roast; nothing is surfaced to the user.
type StatsFetchError struct {
	Route string
	Err   error
}

func (e *StatsFetchError) Error() string {
	return fmt.Sprintf("stats fetch %s: %v", e.Route, e.Err)
}

func (e *StatsFetchError) Unwrap() error { return e.Err }

type apiError struct {
	status  int
	message string
	detail  error
}

func (e *apiError) Error() string {
	if e == nil {
		return ""
	}
	return e.message
}

func unauthorized(message string, detail error) *apiError {
	return &apiError{status: http.StatusUnauthorized, message: message, detail: detail}
}

func badGateway(message string, detail error) *apiError {
	return &apiError{status: http.StatusBadGateway, message: message, detail: detail}
}

func internalServerError(message string, detail error) *apiError {
	return &apiError{status: http.StatusInternalServerError, message: message, detail: detail}
}
