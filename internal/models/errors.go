package models

import "errors"

// Ошибки доменного уровня. Слои оборачивают их через fmt.Errorf("%w"),
// HTTP-слой сопоставляет их со статусами ответа.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUpstream        = errors.New("upstream failure")
	ErrInvalidInput    = errors.New("invalid input")
)
