// ABOUTME: ASIO driver discovery package
// ABOUTME: Walks the installed-driver and class registries into caller-owned records
// Package discovery enumerates installed ASIO drivers.
//
// Drivers register under HKEY_LOCAL_MACHINE\SOFTWARE\ASIO\<name> with a
// CLSID value. The module path is found by a second lookup under
// HKEY_CLASSES_ROOT\CLSID\<clsid>\InprocServer32.
//
// Scanning is two-phase and allocation-free on the scanner side: the caller
// asks how many drivers exist, allocates records of the sizes it wants, and
// the scanner fills them, truncating every string to the buffer it was given.
//
// Example:
//
//	scanner := discovery.NewScanner(registry.System())
//	n := scanner.ListPlugins(32)
//	records := discovery.NewPluginRecords(n, 128, 128, 1024)
//	scanner.FillPluginInfo(records)
//	for _, r := range records {
//	    if r.Err == nil {
//	        fmt.Println(r.NameString(), r.ModulePathString())
//	    }
//	}
package discovery
