package id

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// New generates a ULID for a credential or domain record.
func New() string {
	return At(time.Now())
}

// At generates a ULID whose timestamp component is t, so ids sort by creation time.
func At(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}
