package libiec61850

// #include <stdlib.h>
import "C"

import (
	"unsafe"

	"golang.org/x/text/encoding/charmap"
)

// Go2CStr converts a Go string to a C string in ISO 8859-1, the encoding
// libiec61850 uses for visible strings. Strings that cannot be represented
// are passed through unchanged. The caller frees the result with C.free.
func Go2CStr(s string) *C.char {
	if enc, err := charmap.ISO8859_1.NewEncoder().String(s); err == nil {
		return C.CString(enc)
	}
	return C.CString(s)
}

// C2GoStr converts an ISO 8859-1 C string to a Go string.
func C2GoStr(s *C.char) string {
	if s == nil {
		return ""
	}
	raw := C.GoString(s)
	if dec, err := charmap.ISO8859_1.NewDecoder().String(raw); err == nil {
		return dec
	}
	return raw
}

func freeCStr(s *C.char) {
	if s != nil {
		C.free(unsafe.Pointer(s))
	}
}

func unsafePointer(s *C.char) unsafe.Pointer {
	return unsafe.Pointer(s)
}
