// Package libiec61850 implements the mmsclient engine interfaces on top of
// the libiec61850 C library.
//
// The library headers and shared object must be reachable by cgo, for example
//
//	CGO_CFLAGS=-I/usr/local/include/libiec61850 CGO_LDFLAGS="-L/usr/local/lib -liec61850"
package libiec61850

// #include <iec61850_common.h>
import "C"

// GetVersionString retrieves the version string of the underlying libIEC61850 library.
func GetVersionString() string {
	value := C.LibIEC61850_getVersionString()
	return C.GoString(value)
}
