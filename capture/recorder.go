package capture

import (
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/marrasen/mmsclient"
	"github.com/sirupsen/logrus"
)

// Recorder writes events to a file in CBOR format. It is an mmsclient.Sink
// and is safe for concurrent use.
type Recorder struct {
	file    *os.File
	encoder *cbor.Encoder
	log     logrus.FieldLogger
	mu      sync.Mutex
	closed  bool
	written uint64
}

var _ mmsclient.Sink = (*Recorder)(nil)

// NewRecorder opens path for appending, creating it with permissions 0644 if
// needed.
func NewRecorder(path string) (*Recorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	enc, err := newEncoder(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Recorder{
		file:    f,
		encoder: enc,
		log:     logrus.WithField("capture", path),
	}, nil
}

// Handle records ev. Encoding failures are logged and otherwise ignored.
func (r *Recorder) Handle(ev mmsclient.Event) {
	rec, err := NewRecord(ev)
	if err != nil {
		r.log.WithError(err).WithField("event", ev.Name).Warn("failed to capture event")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if err := r.encoder.Encode(rec); err != nil {
		r.log.WithError(err).WithField("event", ev.Name).Warn("failed to write capture record")
		return
	}
	r.written++
}

// Written returns the number of records written.
func (r *Recorder) Written() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.written
}

// Close closes the file. It is safe to call Close multiple times; records
// handled afterwards are dropped.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.file.Close()
}
