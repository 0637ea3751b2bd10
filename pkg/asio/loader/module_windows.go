//go:build windows

// ABOUTME: Module mapping on Windows
// ABOUTME: Loads driver DLLs with LoadLibrary and resolves exports with GetProcAddress
package loader

import (
	"golang.org/x/sys/windows"
)

type dllModule struct {
	dll *windows.DLL
}

// OpenModule maps a driver DLL.
func OpenModule(path string) (Module, error) {
	dll, err := windows.LoadDLL(path)
	if err != nil {
		return nil, err
	}
	return &dllModule{dll: dll}, nil
}

func (m *dllModule) Lookup(symbol string) (uintptr, error) {
	proc, err := m.dll.FindProc(symbol)
	if err != nil {
		return 0, err
	}
	return proc.Addr(), nil
}

func (m *dllModule) Close() error {
	return m.dll.Release()
}
