package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInvalidScope  = errors.New("invalid scope")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidEvent  = errors.New("invalid usage event")
	ErrRunInProgress = errors.New("summary generation already in progress")
)
