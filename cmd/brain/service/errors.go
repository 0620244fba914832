package service

import (
	"errors"

	"github.com/lyzr/secondbrain/cmd/brain/ingestion"
)

var (
	// ErrPartialLookup is returned when some tag ids no longer resolve
	ErrPartialLookup = errors.New("partial tag lookup")
	// ErrUnauthenticated is returned when an operation has no owning user
	ErrUnauthenticated = ingestion.ErrUnauthenticated
	// ErrUsernameTaken is returned by Signup for an existing username
	ErrUsernameTaken = errors.New("username already exists")
	// ErrUnknownUser is returned by Signin for a username with no account
	ErrUnknownUser = errors.New("user does not exist")
	// ErrInvalidCredentials is returned by Signin for a wrong password
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrShareLinkNotFound is returned for unknown or revoked share hashes
	ErrShareLinkNotFound = errors.New("share link not found")
	// ErrContentNotFound is returned when the content does not exist or is not the caller's
	ErrContentNotFound = errors.New("content not found")
	// ErrInvalidTag is returned for blank tag titles
	ErrInvalidTag = errors.New("invalid tag")
)
