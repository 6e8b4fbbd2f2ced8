package repository

import "errors"

// ErrNotFound is returned when a single archive entry does not exist.
// The service layer translates it into app_errors.ErrNotFound.
var ErrNotFound = errors.New("repository: not found")
