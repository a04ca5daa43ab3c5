package service

import "errors"

// Sentinel errors for ticket operations.
var (
	ErrTicketNotFound  = errors.New("ticket not found")
	ErrAmbiguousRef    = errors.New("ambiguous ticket reference")
	ErrNoCurrentTicket = errors.New("no ticket checked out")
	ErrInvalidState    = errors.New("invalid state")
	ErrEmptyTitle      = errors.New("ticket title is empty")
	ErrEmptyComment    = errors.New("comment is empty")
)
