package entities

import "fmt"

type ValidationError struct {
	Field string
	Msg   string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// ConflictError is a business rule rejection, not a bug.
type ConflictError struct {
	Reason RejectionReason
	Msg    string
}

func (e ConflictError) Error() string {
	if e.Msg == "" {
		return string(e.Reason)
	}
	return e.Msg
}

// UpstreamError means an external collaborator failed; the caller should retry later.
type UpstreamError struct {
	Service string
	Err     error
}

func (e UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e UpstreamError) Unwrap() error {
	return e.Err
}

type InternalError struct {
	Op  string
	Err error
}

func (e InternalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e InternalError) Unwrap() error {
	return e.Err
}

// PermanentError is never retried by message handlers.
type PermanentError struct {
	Err error
}

func (e PermanentError) Error() string {
	return e.Err.Error()
}

func (e PermanentError) Unwrap() error {
	return e.Err
}

func (e PermanentError) IsPermanent() bool {
	return true
}
