package providers

import (
	"errors"
	"fmt"
)

// ErrUnsupported is returned by providers that are not built yet.
var ErrUnsupported = errors.New("provider not supported")

type AuthErrorCode string

const (
	AuthCancelled          AuthErrorCode = "cancelled"
	AuthInvalidCredentials AuthErrorCode = "invalid_credentials"
	AuthAccountDisabled    AuthErrorCode = "account_disabled"
	AuthUnexpected         AuthErrorCode = "unexpected"
)

// AuthError is what auth providers return on failure.
type AuthError struct {
	Code AuthErrorCode
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return "auth: " + string(e.Code)
	}
	return fmt.Sprintf("auth: %s: %v", e.Code, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

type DatabaseErrorCode string

const (
	DatabaseNotFound   DatabaseErrorCode = "not_found"
	DatabaseUnexpected DatabaseErrorCode = "unexpected"
)

// DatabaseError is what database providers return on failure.
type DatabaseError struct {
	Code DatabaseErrorCode
	Err  error
}

func (e *DatabaseError) Error() string {
	if e.Err == nil {
		return "database: " + string(e.Code)
	}
	return fmt.Sprintf("database: %s: %v", e.Code, e.Err)
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// AuthCode extracts the code of an AuthError anywhere in err's chain.
func AuthCode(err error) (AuthErrorCode, bool) {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Code, true
	}
	return "", false
}

// IsNotFound reports whether err is a DatabaseError with the not_found code.
func IsNotFound(err error) bool {
	var de *DatabaseError
	return errors.As(err, &de) && de.Code == DatabaseNotFound
}
