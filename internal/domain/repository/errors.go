package repository

import "errors"

// ErrDuplicateEmail is returned by UserRepository.Create when an identity
// already exists for the email.
var ErrDuplicateEmail = errors.New("email already exists")
