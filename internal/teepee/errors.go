package teepee

import "errors"

var (
	// ErrNetwork covers transport failures, error statuses and bodies that
	// are not valid UTF-8. It is never retried.
	ErrNetwork = errors.New("teepee: network error")
	// ErrMissingToken means a page rendered without a ViewState token.
	ErrMissingToken = errors.New("teepee: javax.faces.ViewState not found")
	// ErrAuthenticationFailed is returned when the portal explicitly rejects
	// the username and password.
	ErrAuthenticationFailed = errors.New("teepee: authentication failed")
)
