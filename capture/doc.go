// Package capture records mmsclient events to a CBOR file and reads them
// back, giving a machine-readable trace of a client session next to the
// operational log.
//
//	rec, _ := capture.NewRecorder("/var/log/mmsclient/session.cap")
//	defer rec.Close()
//	go client.Dispatcher().Serve(ctx, rec)
package capture
