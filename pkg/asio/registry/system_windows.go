//go:build windows

// ABOUTME: Windows registry store
// ABOUTME: Reads keys and string values into caller buffers via x/sys/windows
package registry

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
	winreg "golang.org/x/sys/windows/registry"
)

// maxKeyName is the registry's limit on key name length, in UTF-16 units.
const maxKeyName = 256

// System returns the Windows registry.
func System() Store {
	return windowsStore{}
}

type windowsStore struct{}

func (windowsStore) OpenKey(root Root, path string) (Key, error) {
	var hive winreg.Key
	switch root {
	case LocalMachine:
		hive = winreg.LOCAL_MACHINE
	case ClassesRoot:
		hive = winreg.CLASSES_ROOT
	default:
		return nil, fmt.Errorf("unknown root %d", root)
	}
	return openKey(hive, root.String(), path)
}

func openKey(parent winreg.Key, parentName, path string) (Key, error) {
	k, err := winreg.OpenKey(parent, path, winreg.QUERY_VALUE|winreg.ENUMERATE_SUB_KEYS)
	if err != nil {
		return nil, fmt.Errorf("%s\\%s: %w", parentName, path, mapErr(err))
	}
	return &windowsKey{k: k, name: parentName + `\` + path}, nil
}

func mapErr(err error) error {
	if errors.Is(err, winreg.ErrNotExist) || errors.Is(err, windows.ERROR_NO_MORE_ITEMS) {
		return ErrNotExist
	}
	return err
}

type windowsKey struct {
	k    winreg.Key
	name string
}

func (k *windowsKey) SubKeyCount() (int, error) {
	info, err := k.k.Stat()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k.name, mapErr(err))
	}
	return int(info.SubKeyCount), nil
}

func (k *windowsKey) SubKeyName(index int, dst []uint16) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	// The API refuses short buffers instead of truncating, so names that
	// do not fit are enumerated into a full-size scratch buffer.
	n := uint32(len(dst))
	err := windows.RegEnumKeyEx(windows.Handle(k.k), uint32(index), &dst[0], &n, nil, nil, nil, nil)
	if errors.Is(err, windows.ERROR_MORE_DATA) {
		var scratch [maxKeyName]uint16
		n = maxKeyName
		err = windows.RegEnumKeyEx(windows.Handle(k.k), uint32(index), &scratch[0], &n, nil, nil, nil, nil)
		if err == nil {
			return PutUTF16(dst, scratch[:n]), nil
		}
	}
	if err != nil {
		return 0, fmt.Errorf("%s sub-key %d: %w", k.name, index, mapErr(err))
	}
	return PutUTF16(dst, dst[:n]), nil
}

func (k *windowsKey) OpenSubKey(path string) (Key, error) {
	return openKey(k.k, k.name, path)
}

func (k *windowsKey) StringValue(name string, dst []uint16) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	raw := unsafe.Slice((*byte)(unsafe.Pointer(&dst[0])), len(dst)*2)
	n, typ, err := k.k.GetValue(name, raw)
	if errors.Is(err, winreg.ErrShortBuffer) {
		// Too long for the caller's bound: read it whole and truncate.
		s, _, err := k.k.GetStringValue(name)
		if err != nil {
			return 0, fmt.Errorf("%s value %q: %w", k.name, name, mapErr(err))
		}
		return PutString(dst, s), nil
	}
	if err != nil {
		return 0, fmt.Errorf("%s value %q: %w", k.name, name, mapErr(err))
	}
	if typ != winreg.SZ && typ != winreg.EXPAND_SZ {
		return 0, fmt.Errorf("%s value %q: unexpected type %d", k.name, name, typ)
	}
	return PutUTF16(dst, dst[:n/2]), nil
}

func (k *windowsKey) Close() error {
	return k.k.Close()
}
