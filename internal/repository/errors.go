// Package repository defines the storage layer for users, password-reset
// tokens and one-time verification codes. This file holds sentinel error
// values reused across repositories so that higher layers such as services
// can distinguish failure scenarios without inspecting driver errors.
package repository

import "errors"

// ErrNotFound is returned when a lookup matches no record. Services
// translate this into their own NotFound or Unauthorized errors
// depending on the operation.
var ErrNotFound = errors.New("record not found")

// ErrEmailExists is returned when an insert violates the unique
// constraint on users.email.
var ErrEmailExists = errors.New("email already exists")
