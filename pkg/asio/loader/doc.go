// ABOUTME: ASIO driver loader package
// ABOUTME: Maps a driver module and activates its class without the COM runtime
// Package loader turns a (class identifier, module path) pair into a live
// driver.
//
// Activation is the restricted two-step protocol drivers support:
//   - map the module and resolve DllGetClassObject
//   - ask it for the class factory of the identifier, then ask the factory
//     to create the instance
//
// The resulting capability table is wrapped behind asio.Driver and owned by
// an asio.Handle that unmaps the module when the last reference goes.
//
// The foreign calling side is implemented for 64-bit Windows, macOS, Linux
// and FreeBSD. Other platforms can still load through a custom Activator.
//
// Example:
//
//	l := loader.New(loader.DefaultOptions())
//	h, err := l.Load(plugin.Identifier, plugin.ModulePath)
//	if err != nil {
//	    return err
//	}
//	defer h.Close()
//
//	drv, _ := h.Driver()
//	fmt.Println(drv.Name())
package loader
