package db

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Error Codes
// --------------------------------------------------------------------------

type ErrCode uint64

const (
	ErrCUnknown          ErrCode = iota // 0: Not a kvbase error.
	ErrCInvalidName                     // 1: The name fails the name grammar.
	ErrCNotFound                        // 2: The catalog has no database with this name.
	ErrCUpdateInProgress                // 3: An update marker exists for the database.
	ErrCPermissionDenied                // 4: The session may not read the database.
	ErrCIOFailure                       // 5: The database files could not be read or parsed.
	ErrCContract                        // 6: A pin/unpin/add call violated the registry contract.
	ErrCExists                          // 7: A database with this name already exists.
	ErrCInUse                           // 8: The database is opened by a session.
	ErrCNoDatabase                      // 9: The session has no database opened.
)

func (c ErrCode) String() string {
	switch c {
	case ErrCInvalidName:
		return "InvalidName"
	case ErrCNotFound:
		return "NotFound"
	case ErrCUpdateInProgress:
		return "UpdateInProgress"
	case ErrCPermissionDenied:
		return "PermissionDenied"
	case ErrCIOFailure:
		return "IOFailure"
	case ErrCContract:
		return "Contract"
	case ErrCExists:
		return "Exists"
	case ErrCInUse:
		return "InUse"
	case ErrCNoDatabase:
		return "NoDatabase"
	default:
		return "Unknown"
	}
}

// Sentinels for errors.Is. Only the code is compared.
var (
	ErrInvalidName      = &Error{Code: ErrCInvalidName}
	ErrNotFound         = &Error{Code: ErrCNotFound}
	ErrUpdateInProgress = &Error{Code: ErrCUpdateInProgress}
	ErrPermissionDenied = &Error{Code: ErrCPermissionDenied}
	ErrIOFailure        = &Error{Code: ErrCIOFailure}
	ErrContract         = &Error{Code: ErrCContract}
	ErrExists           = &Error{Code: ErrCExists}
	ErrInUse            = &Error{Code: ErrCInUse}
	ErrNoDatabase       = &Error{Code: ErrCNoDatabase}
)

// --------------------------------------------------------------------------
// Error Type
// --------------------------------------------------------------------------

// Error wraps an error code, a human-readable message and optionally the
// underlying error (e.g. the I/O error behind an IOFailure).
type Error struct {
	Code ErrCode // The error code
	Msg  string  // The human-readable message
	Err  error   // The underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Code.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrCode, format string, args ...interface{}) *Error {
	return &Error{
		Code: code,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// WrapError creates a new Error for err. The message of err is used as message.
func WrapError(code ErrCode, err error) *Error {
	return &Error{
		Code: code,
		Msg:  err.Error(),
		Err:  err,
	}
}

// CodeOf returns the code of the first *Error in the chain of err,
// or ErrCUnknown if there is none.
func CodeOf(err error) ErrCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCUnknown
}

// --------------------------------------------------------------------------
// Message helpers
// --------------------------------------------------------------------------

func InvalidName(name string) *Error {
	return NewError(ErrCInvalidName, "invalid database name: '%s'", name)
}

func NotFound(name string) *Error {
	return NewError(ErrCNotFound, "database '%s' was not found", name)
}

func UpdateInProgress(name string) *Error {
	return NewError(ErrCUpdateInProgress, "database '%s' is being updated, or an update was not completed", name)
}

func PermissionDenied(name string) *Error {
	return NewError(ErrCPermissionDenied, "read permission required for database '%s'", name)
}

func Exists(name string) *Error {
	return NewError(ErrCExists, "database '%s' already exists", name)
}

func InUse(name string) *Error {
	return NewError(ErrCInUse, "database '%s' is opened by a session", name)
}

func NoDatabase() *Error {
	return NewError(ErrCNoDatabase, "no database opened")
}
