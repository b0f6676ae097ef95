package service

import (
	"fmt"
	"net/http"
)

// Error is a failure reported to the trade server with an HTTP status and a
// human readable title and detail.
type Error struct {
	Status int
	Title  string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Title, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Title, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func ExchangeNotFound(exchange string) *Error {
	return &Error{
		Status: http.StatusNotFound,
		Title:  "Exchange not found",
		Detail: fmt.Sprintf("Exchange %q is not supported. Check that the exchange id is one of the registered venues.", exchange),
	}
}

func ConfigsNotFound(server string) *Error {
	return &Error{
		Status: http.StatusNotFound,
		Title:  "Configuration not found",
		Detail: fmt.Sprintf("No configuration found for %q.", "/"+server),
	}
}

func FileNotFound(server, filename string) *Error {
	return &Error{
		Status: http.StatusInternalServerError,
		Title:  fmt.Sprintf("Required file %q not found", filename),
		Detail: fmt.Sprintf("File %q not found at %q.", filename, server+"/"+filename),
	}
}

func JSONDecodeError(path string, err error) *Error {
	return &Error{
		Status: http.StatusInternalServerError,
		Title:  "Cannot read configuration",
		Detail: fmt.Sprintf("Failed to process the configuration. Check the file %s on the server.", path),
		Err:    err,
	}
}

func ConfigDecodeError(server string, err error) *Error {
	return &Error{
		Status: http.StatusInternalServerError,
		Title:  "Cannot build configuration",
		Detail: fmt.Sprintf("Failed to build the data for %q.", "/"+server),
		Err:    err,
	}
}

func MarketsUnavailable(exchange string, err error) *Error {
	return &Error{
		Status: http.StatusBadGateway,
		Title:  "Cannot load markets",
		Detail: fmt.Sprintf("Failed to load markets of exchange %q. Error: %v", exchange, err),
		Err:    err,
	}
}

func Unexpected(exchange string, err error) *Error {
	return &Error{
		Status: http.StatusInternalServerError,
		Title:  "Unexpected error",
		Detail: fmt.Sprintf("Unexpected error while processing exchange %q. Error: %v", exchange, err),
		Err:    err,
	}
}
