// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

// Package gwerr holds the typed error kinds of the control-plane routing
// core: validation, not-found, conflict, apply and internal errors. Every
// error returned across a component boundary is one of these kinds plus a
// message, never a bare string or a panic.
package gwerr

import (
	"errors"
	"fmt"
)

// Kind classifies an error the way the core's callers are expected to
// switch on: by category, not by exact message.
type Kind int

const (
	KindValidation Kind = iota
	KindNotFound
	KindConflict
	KindApply
	KindForbidden
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindApply:
		return "apply"
	case KindForbidden:
		return "forbidden"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is the single error type returned across the core's API boundaries.
type Error struct {
	Kind    Kind
	Code    string // e.g. "NoSuchInterface", "InterfaceExists"
	Message string
	Wrapped error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Code)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Wrapped }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

func newErr(kind Kind, code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Validation errors.
func BadPrefix(detail string) *Error  { return newErr(KindValidation, "BadPrefix", "%s", detail) }
func BadMask(detail string) *Error    { return newErr(KindValidation, "BadMask", "%s", detail) }
func InvalidVni(v uint32) *Error {
	return newErr(KindValidation, "InvalidVni", "vni %d out of range", v)
}
func InvalidMac(detail string) *Error { return newErr(KindValidation, "InvalidMac", "%s", detail) }
func MismatchedPrefixSizes(have, want uint64) *Error {
	return newErr(KindValidation, "MismatchedPrefixSizes", "have=%d want=%d", have, want)
}
func BadVpcID(detail string) *Error { return newErr(KindValidation, "BadVpcId", "%s", detail) }
func BadVtepLocalAddress(detail string) *Error {
	return newErr(KindValidation, "BadVtepLocalAddress", "%s", detail)
}
func MissingParameter(name string) *Error {
	return newErr(KindValidation, "MissingParameter", "%s is required", name)
}

// Not-found errors.
func NoSuchInterface(ifindex uint32) *Error {
	return newErr(KindNotFound, "NoSuchInterface", "ifindex %d", ifindex)
}
func NoSuchVrf(detail string) *Error { return newErr(KindNotFound, "NoSuchVrf", "%s", detail) }
func NoSuchConfig(genID int64) *Error {
	return newErr(KindNotFound, "NoSuchConfig", "genid %d", genID)
}

// Conflict errors.
func InterfaceExists(ifindex uint32) *Error {
	return newErr(KindConflict, "InterfaceExists", "ifindex %d", ifindex)
}
func DuplicateVpcVni(vni uint32) *Error {
	return newErr(KindConflict, "DuplicateVpcVni", "vni %d", vni)
}
func DuplicateVpcID(id string) *Error { return newErr(KindConflict, "DuplicateVpcId", "%s", id) }
func DuplicateVpcName(name string) *Error {
	return newErr(KindConflict, "DuplicateVpcName", "%s", name)
}
func DuplicateVpcPeerings(detail string) *Error {
	return newErr(KindConflict, "DuplicateVpcPeerings", "%s", detail)
}
func EntryExists(detail string) *Error { return newErr(KindConflict, "EntryExists", "%s", detail) }
func StaleGenID(got, current int64) *Error {
	return newErr(KindConflict, "StaleGenID", "genid %d is not newer than currently applied %d", got, current)
}

// Apply errors.
func FailureApply(detail string) *Error { return newErr(KindApply, "FailureApply", "%s", detail) }
func Forbidden(reason string) *Error    { return newErr(KindForbidden, "Forbidden", "%s", reason) }

// Internal wraps a lower-level error (I/O, syscall, ...) that adds no value
// surfaced raw to a caller.
func Internal(context string, cause error) *Error {
	return &Error{Kind: KindInternal, Code: "Internal", Message: context, Wrapped: cause}
}

// Is reports whether err is a *Error of the given kind, unwrapping as needed.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
