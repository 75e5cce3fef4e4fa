package chat

import "errors"

var (
	ErrNotFound         = errors.New("chat session not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnknownDocuments = errors.New("one or more documents not found")
)
