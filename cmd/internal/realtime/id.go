package realtime

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// newEnvelopeID returns a sortable correlation id for outbound envelopes.
func newEnvelopeID() string {
	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), rand.Reader)
	if err != nil {
		// rand.Reader failing is unrecoverable for this process anyway.
		return ulid.Make().String()
	}
	return id.String()
}
