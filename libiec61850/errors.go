package libiec61850

// #include <iec61850_client.h>
import "C"

import (
	"github.com/marrasen/mmsclient"
)

// GetIedClientError maps an IedClientError to a Go error, nil for IED_ERROR_OK.
func GetIedClientError(err C.IedClientError) error {
	if err == C.IED_ERROR_OK {
		return nil
	}
	return mmsclient.ClientError(int(err))
}
