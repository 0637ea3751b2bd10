// ABOUTME: Tests for the in-memory store and UTF-16 helpers
// ABOUTME: Covers case-insensitive lookup, enumeration order and truncation
package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutString(t *testing.T) {
	tests := []struct {
		name string
		size int
		in   string
		want string
		n    int
	}{
		{"fits", 8, "abc", "abc", 3},
		{"exact", 4, "abcd", "abc", 3},
		{"truncated", 3, "abcdef", "ab", 2},
		{"terminator only", 1, "abc", "", 0},
		{"empty", 4, "", "", 0},
		{"surrogate not split", 3, "a\U0001F3B5", "a", 1},
		{"surrogate fits", 4, "a\U0001F3B5", "a\U0001F3B5", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := make([]uint16, tt.size)
			for i := range dst {
				dst[i] = 0xFFFF
			}
			n := PutString(dst, tt.in)
			assert.Equal(t, tt.n, n)
			assert.Equal(t, uint16(0), dst[n])
			assert.Equal(t, tt.want, String(dst))
		})
	}
}

func TestPutStringZeroBuffer(t *testing.T) {
	assert.Equal(t, 0, PutString(nil, "abc"))
	assert.Equal(t, 0, PutUTF16(nil, []uint16{'a'}))
}

func TestPutUTF16StopsAtNUL(t *testing.T) {
	dst := make([]uint16, 8)
	n := PutUTF16(dst, []uint16{'h', 'i', 0, 'x'})
	assert.Equal(t, 2, n)
	assert.Equal(t, "hi", String(dst))
}

func TestStringUnterminated(t *testing.T) {
	assert.Equal(t, "ok", String([]uint16{'o', 'k'}))
}

func TestMemoryLookup(t *testing.T) {
	m := NewMemory()
	m.SetString(LocalMachine, `SOFTWARE\ASIO\Beta`, "CLSID", "{B}")
	m.SetString(LocalMachine, `SOFTWARE\ASIO\Alpha`, "CLSID", "{A}")
	m.SetString(ClassesRoot, `CLSID\{A}\InprocServer32`, "", `C:\a.dll`)

	root, err := m.OpenKey(LocalMachine, `software\asio`)
	require.NoError(t, err)
	defer root.Close()

	count, err := root.SubKeyCount()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	buf := make([]uint16, 32)
	n, err := root.SubKeyName(0, buf)
	require.NoError(t, err)
	assert.Equal(t, "Beta", String(buf[:n+1]))

	_, err = root.SubKeyName(2, buf)
	assert.ErrorIs(t, err, ErrNotExist)

	sub, err := root.OpenSubKey("ALPHA")
	require.NoError(t, err)
	n, err = sub.StringValue("clsid", buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "{A}", String(buf))

	_, err = sub.StringValue("missing", buf)
	assert.ErrorIs(t, err, ErrNotExist)

	cls, err := m.OpenKey(ClassesRoot, `CLSID\{a}\InprocServer32`)
	require.NoError(t, err)
	n, err = cls.StringValue("", buf)
	require.NoError(t, err)
	assert.Equal(t, `C:\a.dll`, String(buf[:n]))
}

func TestMemoryMissing(t *testing.T) {
	m := NewMemory()

	_, err := m.OpenKey(LocalMachine, `SOFTWARE\ASIO`)
	assert.True(t, errors.Is(err, ErrNotExist))

	m.CreateKey(LocalMachine, `SOFTWARE`)
	_, err = m.OpenKey(LocalMachine, `SOFTWARE\ASIO`)
	assert.ErrorIs(t, err, ErrNotExist)

	k, err := m.OpenKey(LocalMachine, `SOFTWARE`)
	require.NoError(t, err)
	_, err = k.OpenSubKey("ASIO")
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestMemoryEmptyKey(t *testing.T) {
	m := NewMemory()
	m.CreateKey(LocalMachine, `SOFTWARE\ASIO`)

	k, err := m.OpenKey(LocalMachine, `SOFTWARE\ASIO`)
	require.NoError(t, err)
	count, err := k.SubKeyCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRootString(t *testing.T) {
	assert.Equal(t, "HKEY_LOCAL_MACHINE", LocalMachine.String())
	assert.Equal(t, "HKEY_CLASSES_ROOT", ClassesRoot.String())
	assert.Equal(t, "HKEY_UNKNOWN", Root(9).String())
}
