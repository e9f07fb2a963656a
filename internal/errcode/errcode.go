// Package errcode defines the failure taxonomy reported to tool callers.
//
// Codes are strings so they serialize naturally into the tool envelope. An
// [Error] attaches a code to an underlying error without hiding it from
// errors.Is / errors.As.
package errcode

import (
	"errors"
	"fmt"
)

// Code identifies a class of failure.
type Code string

const (
	// NoCredentials means no explicit credentials were passed and none are stored.
	NoCredentials Code = "NoCredentials"

	// CredentialsIncomplete means a username is known but its password is not.
	CredentialsIncomplete Code = "CredentialsIncomplete"

	// AuthenticationFailed means the sync service rejected the credentials.
	AuthenticationFailed Code = "AuthenticationFailed"

	// NetworkError means the sync service could not be reached.
	NetworkError Code = "NetworkError"

	// LoginFailed is any other sync login failure.
	LoginFailed Code = "LoginFailed"

	// SyncFailed means login worked but the data or media sync did not.
	SyncFailed Code = "SyncFailed"

	// NotFound covers unknown decks, note types, fields and notes.
	NotFound Code = "NotFound"

	// CollectionUnavailable means the collection is missing or locked by another process.
	CollectionUnavailable Code = "CollectionUnavailable"

	// InvalidArgument means the caller passed a malformed or missing argument.
	InvalidArgument Code = "InvalidArgument"

	// StoreFailed means the secret store itself returned an error.
	StoreFailed Code = "StoreFailed"

	// Internal is an unclassified collaborator failure.
	Internal Code = "Internal"
)

// Error is an error tagged with a Code.
type Error struct {
	Code Code
	Err  error
}

func (e *Error) Error() string {
	if e == nil || e.Err == nil {
		return string(e.codeOrInternal())
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *Error) codeOrInternal() Code {
	if e == nil || e.Code == "" {
		return Internal
	}
	return e.Code
}

// New returns an Error with a formatted message.
func New(code Code, format string, args ...any) error {
	return &Error{Code: code, Err: fmt.Errorf(format, args...)}
}

// Wrap tags err with code. A nil err stays nil.
func Wrap(code Code, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Err: err}
}

// CodeOf returns the code of the outermost Error in err's chain, or Internal
// when err carries no code.
func CodeOf(err error) Code {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.codeOrInternal()
	}
	return Internal
}

// Is reports whether err carries code.
func Is(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}
