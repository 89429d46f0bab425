package errors

import "errors"

var (
	ErrCapacityExceeded = errors.New("subject capacity exceeded")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrSubjectNotFound  = errors.New("subject not found")
	ErrPermissionDenied = errors.New("requester is not the subject owner")
	ErrDuplicateVote    = errors.New("voter already voted on this subject")
	ErrCooldownActive   = errors.New("voter cooldown is active")
	ErrInvalidWeight    = errors.New("vote weight out of range")
	ErrConflict         = errors.New("registry state conflict")
)
