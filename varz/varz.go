/*
varz provides helpers to create expvar variables with package-qualified names.
It also imports expvar, so it will register it with http.DefaultServeMux; the
web app mounts that handler at /debug/vars.
*/
package varz

import (
	"expvar"
	"runtime"
	"strings"
)

// callerPackage returns the import path of the function two frames up, which
// is the package declaring the variable.  Package-level var blocks run from
// init, so the trailing ".init" is trimmed along with any function name.
func callerPackage() string {
	pc, _, _, ok := runtime.Caller(2)
	if !ok {
		return "varz.unknown"
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "varz.unknown"
	}

	n := fn.Name()
	slash := strings.LastIndex(n, "/")
	if dot := strings.Index(n[slash+1:], "."); dot != -1 {
		n = n[:slash+1+dot]
	}
	return n
}

func NewInt(name string) *expvar.Int {
	return expvar.NewInt(callerPackage() + "." + name)
}

func NewMap(name string) *expvar.Map {
	return expvar.NewMap(callerPackage() + "." + name)
}
