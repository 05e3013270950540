// Package digest computes stable fingerprints for test runs.
//
// Two runs that execute the same tests with the same verdicts and the
// same failure output produce the same digest no matter when they ran or
// how long they took. History uses the digest to recognize repeats of a
// known outcome across reruns and machines.
package digest

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/kiln/stream"
)

// domain versions the digest layout. Bump it whenever the hashed fields
// or the framing change so old digests can never collide with new ones.
const domain = "kiln/run/v1"

// Of fingerprints a run from its event stream.
//
// Time and Elapsed are excluded so identical outcomes hash identically.
// Every string field is NFC normalized before hashing, and each field is
// length-prefixed so adjacent fields cannot blur into one another.
func Of(events []stream.Event) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})

	var frame [binary.MaxVarintLen64]byte
	field := func(s string) {
		s = norm.NFC.String(s)
		n := binary.PutUvarint(frame[:], uint64(len(s)))
		h.Write(frame[:n])
		h.Write([]byte(s))
	}

	n := binary.PutUvarint(frame[:], uint64(len(events)))
	h.Write(frame[:n])
	for _, ev := range events {
		field(string(ev.Action))
		field(ev.Package)
		field(ev.Test)
		field(ev.Output)
	}
	return hex.EncodeToString(h.Sum(nil))
}
