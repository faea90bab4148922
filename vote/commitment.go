package vote

import (
	"encoding/binary"

	"github.com/minio/sha256-simd"

	"github.com/curatelabs/tcr/shared"
)

//go:generate mockgen -package mocks -destination mocks/commitment.go . CommitScheme

// CommitScheme binds a ballot commitment to its choice, weight and
// secret salt. The ballot box never inspects commitments; it only
// recomputes them and compares byte-for-byte. Implementations must be
// deterministic and collision-resistant.
type CommitScheme interface {
	Commit(choice Choice, weight shared.Amount, salt []byte) []byte
}

type sha256Scheme struct{}

// NewSHA256Scheme returns the default commitment scheme:
// sha256(choice || weight || salt) with the weight big-endian encoded.
func NewSHA256Scheme() CommitScheme {
	return sha256Scheme{}
}

func (sha256Scheme) Commit(choice Choice, weight shared.Amount, salt []byte) []byte {
	buf := make([]byte, 0, 1+8+len(salt))
	buf = append(buf, byte(choice))
	var w [8]byte
	binary.BigEndian.PutUint64(w[:], weight)
	buf = append(buf, w[:]...)
	buf = append(buf, salt...)
	digest := sha256.Sum256(buf)
	return digest[:]
}
