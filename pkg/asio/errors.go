// ABOUTME: Structured errors for driver discovery, loading and conversion
// ABOUTME: Provides error kinds, the Error type and sentinel values for errors.Is
package asio

import (
	"fmt"
	"strings"
)

// Kind categorizes an error.
type Kind string

const (
	KindOrphanedEntry     Kind = "orphaned_entry"      // driver entry without a class registration
	KindModuleLoad        Kind = "module_load"         // module could not be mapped
	KindEntryPointMissing Kind = "entry_point_missing" // module lacks DllGetClassObject
	KindInstantiation     Kind = "instantiation"       // factory refused to produce a driver
	KindUnsupportedFormat Kind = "unsupported_format"
	KindBufferTooSmall    Kind = "buffer_too_small"
	KindReleased          Kind = "released"
	KindStreamActive      Kind = "stream_active"
	KindDriver            Kind = "driver" // driver returned a failure status
)

// Error is the structured error returned by this module's packages.
type Error struct {
	Kind    Kind
	Op      string // operation, e.g. "load", "scan"
	Subject string // driver name, identifier or path
	Detail  string
	Code    int32 // HRESULT or driver status when relevant
	Cause   error
}

func (e *Error) Error() string {
	var b strings.Builder

	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))

	if e.Subject != "" {
		b.WriteString(" (")
		b.WriteString(e.Subject)
		b.WriteByte(')')
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Code != 0 {
		fmt.Fprintf(&b, " [code 0x%08X]", uint32(e.Code))
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// Sentinels for errors.Is. Returned as-is on allocation-sensitive paths.
var (
	ErrOrphanedEntry     = &Error{Kind: KindOrphanedEntry}
	ErrModuleLoad        = &Error{Kind: KindModuleLoad}
	ErrEntryPointMissing = &Error{Kind: KindEntryPointMissing}
	ErrInstantiation     = &Error{Kind: KindInstantiation}
	ErrUnsupportedFormat = &Error{Kind: KindUnsupportedFormat}
	ErrBufferTooSmall    = &Error{Kind: KindBufferTooSmall}
	ErrReleased          = &Error{Kind: KindReleased}
	ErrStreamActive      = &Error{Kind: KindStreamActive}
)
