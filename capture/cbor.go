package capture

import (
	"fmt"
	"io"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// Records are flat maps of six integer keys. Timestamps are stored as epoch
// seconds rounded to the microsecond; engine timestamps are milliseconds.
// The decoder is bounded to flat records and rejects indefinite lengths, so a
// corrupt file fails on the first bad record.
var recordModes = sync.OnceValues(func() (codec, error) {
	enc, err := cbor.EncOptions{
		Sort:        cbor.SortCoreDeterministic,
		Time:        cbor.TimeUnixMicro,
		IndefLength: cbor.IndefLengthForbidden,
	}.EncMode()
	if err != nil {
		return codec{}, fmt.Errorf("capture encoder: %w", err)
	}
	dec, err := cbor.DecOptions{
		DupMapKey:        cbor.DupMapKeyEnforcedAPF,
		IndefLength:      cbor.IndefLengthForbidden,
		MaxNestedLevels:  4,
		MaxMapPairs:      16,
		MaxArrayElements: 16,
	}.DecMode()
	if err != nil {
		return codec{}, fmt.Errorf("capture decoder: %w", err)
	}
	return codec{enc: enc, dec: dec}, nil
})

type codec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

// EncodeRecord returns r as a single CBOR item.
func EncodeRecord(r Record) ([]byte, error) {
	m, err := recordModes()
	if err != nil {
		return nil, err
	}
	return m.enc.Marshal(r)
}

// DecodeRecord parses one CBOR item written by EncodeRecord or a Recorder.
func DecodeRecord(data []byte) (Record, error) {
	m, err := recordModes()
	if err != nil {
		return Record{}, err
	}
	var r Record
	if err := m.dec.Unmarshal(data, &r); err != nil {
		return Record{}, err
	}
	return r, nil
}

func newEncoder(w io.Writer) (*cbor.Encoder, error) {
	m, err := recordModes()
	if err != nil {
		return nil, err
	}
	return m.enc.NewEncoder(w), nil
}

func newDecoder(r io.Reader) (*cbor.Decoder, error) {
	m, err := recordModes()
	if err != nil {
		return nil, err
	}
	return m.dec.NewDecoder(r), nil
}
