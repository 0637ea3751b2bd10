// ABOUTME: Class and interface identifiers
// ABOUTME: Parses registry CLSID strings into the in-memory GUID layout drivers expect
package asio

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GUID has the same memory layout as the platform GUID struct: the first
// three fields are stored in native (little-endian) order.
type GUID struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

// IIDClassFactory is {00000001-0000-0000-C000-000000000046}.
var IIDClassFactory = GUID{
	Data1: 0x00000001,
	Data4: [8]byte{0xC0, 0, 0, 0, 0, 0, 0, 0x46},
}

// ParseGUID parses a class identifier as stored in the registry, with or
// without surrounding braces.
func ParseGUID(s string) (GUID, error) {
	s = strings.TrimSpace(s)
	u, err := uuid.Parse(s)
	if err != nil {
		return GUID{}, fmt.Errorf("invalid class identifier %q: %w", s, err)
	}
	return GUIDFromUUID(u), nil
}

// GUIDFromUUID converts the RFC 4122 byte order of u into GUID fields.
func GUIDFromUUID(u uuid.UUID) GUID {
	g := GUID{
		Data1: binary.BigEndian.Uint32(u[0:4]),
		Data2: binary.BigEndian.Uint16(u[4:6]),
		Data3: binary.BigEndian.Uint16(u[6:8]),
	}
	copy(g.Data4[:], u[8:16])
	return g
}

// UUID converts g back to RFC 4122 byte order.
func (g GUID) UUID() uuid.UUID {
	var u uuid.UUID
	binary.BigEndian.PutUint32(u[0:4], g.Data1)
	binary.BigEndian.PutUint16(u[4:6], g.Data2)
	binary.BigEndian.PutUint16(u[6:8], g.Data3)
	copy(u[8:16], g.Data4[:])
	return u
}

// String formats g the way the registry stores class identifiers.
func (g GUID) String() string {
	return "{" + strings.ToUpper(g.UUID().String()) + "}"
}
