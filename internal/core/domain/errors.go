package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrInputTooLong      = errors.New("input too long")
	ErrInvalidInput      = errors.New("invalid input")
	ErrIncomplete        = errors.New("incomplete bicycle")
	ErrInvalidOrder      = errors.New("invalid order")
	ErrNoMatch           = errors.New("no match")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrDuplicateRequest  = errors.New("duplicate request")
	ErrStorage           = errors.New("storage failure")
)
