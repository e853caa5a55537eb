package auth

import "errors"

// Kind classifies authentication failures into stable categories. Provider
// errors that map to no category collapse to KindUnknown rather than leaking
// provider-internal codes.
type Kind int

const (
	KindUnknown Kind = iota
	KindEmailAlreadyInUse
	KindWeakPassword
	KindWrongCredentials
	KindUserNotFound
	KindNetwork
)

// messages are user-presentable and stable across provider changes.
var messages = map[Kind]string{
	KindUnknown:           "Something went wrong. Please try again.",
	KindEmailAlreadyInUse: "This email is already registered.",
	KindWeakPassword:      "Password is too weak.",
	KindWrongCredentials:  "Invalid email or password.",
	KindUserNotFound:      "No account found for this email.",
	KindNetwork:           "Network error. Please try again.",
}

// Error is an authentication failure with a stable user-facing message.
type Error struct {
	Kind Kind
	Err  error // underlying provider error, never shown to users
}

func (e *Error) Error() string { return e.Message() }

// Message returns the user-presentable text for the error's kind.
func (e *Error) Message() string {
	if msg, ok := messages[e.Kind]; ok {
		return msg
	}
	return messages[KindUnknown]
}

func (e *Error) Unwrap() error { return e.Err }

// AsError coerces any error into an *Error, collapsing unclassified ones to
// KindUnknown.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var aerr *Error
	if errors.As(err, &aerr) {
		return aerr
	}
	return &Error{Kind: KindUnknown, Err: err}
}
