// ABOUTME: Store and Key interfaces over a registry-like hierarchy
// ABOUTME: Shared helpers for bounded UTF-16 output
package registry

import (
	"errors"
	"unicode/utf16"
)

// Root selects a top-level hive.
type Root int

const (
	LocalMachine Root = iota
	ClassesRoot
)

func (r Root) String() string {
	switch r {
	case LocalMachine:
		return "HKEY_LOCAL_MACHINE"
	case ClassesRoot:
		return "HKEY_CLASSES_ROOT"
	default:
		return "HKEY_UNKNOWN"
	}
}

// ErrNotExist is returned when a key or value is absent.
var ErrNotExist = errors.New("registry: key or value does not exist")

// Store opens keys below a root.
type Store interface {
	OpenKey(root Root, path string) (Key, error)
}

// Key is an open key. Methods that produce strings write UTF-16 into dst,
// truncate to len(dst)-1 units, NUL-terminate and return the units written
// (excluding the terminator).
type Key interface {
	SubKeyCount() (int, error)
	SubKeyName(index int, dst []uint16) (int, error)
	OpenSubKey(path string) (Key, error)
	// StringValue reads a string value; name "" is the key's default value.
	StringValue(name string, dst []uint16) (int, error)
	Close() error
}

// PutString copies s into dst as UTF-16 with the same truncation rules.
func PutString(dst []uint16, s string) int {
	if len(dst) == 0 {
		return 0
	}
	n := 0
	var units [2]uint16
	for _, r := range s {
		enc := utf16.AppendRune(units[:0], r)
		if n+len(enc) > len(dst)-1 {
			break
		}
		n += copy(dst[n:], enc)
	}
	dst[n] = 0
	return n
}

// PutUTF16 copies src up to its first NUL into dst with truncation.
func PutUTF16(dst []uint16, src []uint16) int {
	if len(dst) == 0 {
		return 0
	}
	n := 0
	for n < len(src) && n < len(dst)-1 && src[n] != 0 {
		dst[n] = src[n]
		n++
	}
	dst[n] = 0
	return n
}

// String decodes a NUL-terminated UTF-16 buffer.
func String(buf []uint16) string {
	for i, c := range buf {
		if c == 0 {
			return string(utf16.Decode(buf[:i]))
		}
	}
	return string(utf16.Decode(buf))
}
