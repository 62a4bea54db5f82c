package sheets

import "errors"

var (
	// ErrUserNotFound means no Users row matched the requested username.
	ErrUserNotFound = errors.New("sheets: user not found")
	// ErrUserExists means a Users row with the requested username already exists.
	ErrUserExists = errors.New("sheets: user already exists")
	// ErrUnknownField means the requested column is not editable.
	ErrUnknownField = errors.New("sheets: unknown user field")
)
