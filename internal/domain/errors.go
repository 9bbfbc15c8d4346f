package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals a duplicate resource.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidOptions signals an unsupported combination of request options.
	ErrInvalidOptions = errors.New("invalid options")
	// ErrInvalidQuery signals a predicate, sort or collation that failed canonicalization.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidCollation signals an unresolvable collation specification.
	ErrInvalidCollation = errors.New("invalid collation")
)
