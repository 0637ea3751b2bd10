// ABOUTME: Driver loading: module mapping, entry point lookup and class activation
// ABOUTME: Guarantees the module is unmapped and the factory released on every failure path
package loader

import (
	"go.uber.org/zap"

	"github.com/Resonate-Protocol/asiodirect/pkg/asio"
)

// EntryPoint is the export every driver module provides.
const EntryPoint = "DllGetClassObject"

// Module is a mapped driver binary.
type Module interface {
	// Lookup returns the address of an exported symbol.
	Lookup(symbol string) (uintptr, error)
	// Close unmaps the module.
	Close() error
}

// OpenFunc maps the module at path.
type OpenFunc func(path string) (Module, error)

// Activator calls a module's DllGetClassObject export.
type Activator interface {
	ClassObject(entry uintptr, clsid, iid asio.GUID) (asio.ClassFactory, error)
}

// Options configures a Loader.
type Options struct {
	// Open maps modules. Defaults to the platform loader.
	Open OpenFunc
	// Activator calls the entry point. Defaults to the platform calling
	// convention.
	Activator Activator
}

// DefaultOptions returns options using the platform module loader and
// calling convention.
func DefaultOptions() Options {
	return Options{
		Open:      OpenModule,
		Activator: NativeActivator(),
	}
}

// Loader loads drivers. Every Load returns an independent handle, even for
// the same identifier.
type Loader struct {
	open      OpenFunc
	activator Activator
}

// New creates a loader. Zero fields in opts take their defaults.
func New(opts Options) *Loader {
	def := DefaultOptions()
	if opts.Open == nil {
		opts.Open = def.Open
	}
	if opts.Activator == nil {
		opts.Activator = def.Activator
	}
	return &Loader{open: opts.Open, activator: opts.Activator}
}

// Load maps modulePath and creates the driver registered as identifier.
//
// Errors wrap asio.ErrModuleLoad, asio.ErrEntryPointMissing or
// asio.ErrInstantiation. A malformed identifier is an instantiation error
// and is detected before the module is mapped.
func (l *Loader) Load(identifier, modulePath string) (*asio.Handle, error) {
	clsid, err := asio.ParseGUID(identifier)
	if err != nil {
		return nil, &asio.Error{Kind: asio.KindInstantiation, Op: "load", Subject: identifier, Cause: err}
	}

	mod, err := l.open(modulePath)
	if err != nil {
		return nil, &asio.Error{Kind: asio.KindModuleLoad, Op: "load", Subject: modulePath, Cause: err}
	}

	drv, err := l.activate(mod, clsid, modulePath)
	if err != nil {
		if cerr := mod.Close(); cerr != nil {
			Logger().Warn("failed to unmap module after load error",
				zap.String("path", modulePath), zap.Error(cerr))
		}
		return nil, err
	}

	Logger().Info("driver loaded",
		zap.String("clsid", clsid.String()),
		zap.String("path", modulePath))
	return asio.NewHandle(drv, mod), nil
}

func (l *Loader) activate(mod Module, clsid asio.GUID, modulePath string) (asio.Driver, error) {
	entry, err := mod.Lookup(EntryPoint)
	if err != nil || entry == 0 {
		return nil, &asio.Error{Kind: asio.KindEntryPointMissing, Op: "load", Subject: modulePath,
			Detail: EntryPoint, Cause: err}
	}

	factory, err := l.activator.ClassObject(entry, clsid, asio.IIDClassFactory)
	if err != nil {
		return nil, &asio.Error{Kind: asio.KindInstantiation, Op: "get class object",
			Subject: clsid.String(), Cause: err}
	}
	if factory == nil {
		return nil, &asio.Error{Kind: asio.KindInstantiation, Op: "get class object",
			Subject: clsid.String(), Detail: "no class factory"}
	}
	defer factory.Release()

	drv, err := factory.CreateInstance(clsid)
	if err != nil {
		return nil, &asio.Error{Kind: asio.KindInstantiation, Op: "create instance",
			Subject: clsid.String(), Cause: err}
	}
	if drv == nil {
		return nil, &asio.Error{Kind: asio.KindInstantiation, Op: "create instance",
			Subject: clsid.String(), Detail: "no instance"}
	}
	return drv, nil
}
