package capture

import (
	"encoding/json"
	"time"

	"github.com/marrasen/mmsclient"
)

// Record is one captured event. Payload is the event's JSON form as handed
// to the host, so a trace replays exactly what a consumer saw.
type Record struct {
	Time     time.Time `cbor:"1,keyasint"`
	Channel  string    `cbor:"2,keyasint"`
	Type     string    `cbor:"3,keyasint"`
	Event    string    `cbor:"4,keyasint,omitempty"`
	ClientID string    `cbor:"5,keyasint,omitempty"`
	Payload  []byte    `cbor:"6,keyasint"`
}

// NewRecord captures ev.
func NewRecord(ev mmsclient.Event) (Record, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return Record{}, err
	}
	ts := ev.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	return Record{
		Time:     ts,
		Channel:  string(ev.Channel),
		Type:     string(ev.Type),
		Event:    ev.Name,
		ClientID: ev.ClientID,
		Payload:  payload,
	}, nil
}

// Decode returns the payload as a generic JSON map.
func (r Record) Decode() (map[string]interface{}, error) {
	var m map[string]interface{}
	if err := json.Unmarshal(r.Payload, &m); err != nil {
		return nil, err
	}
	return m, nil
}
