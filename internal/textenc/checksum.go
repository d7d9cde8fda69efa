package textenc

import (
	_ "crypto/sha256"

	"github.com/opencontainers/go-digest"
	"github.com/quantmind-br/bundlefile/internal/domain"
)

// Checksum returns the lowercase SHA-256 hex digest of data
func Checksum(data []byte) string {
	return digest.FromBytes(data).Encoded()
}

// VerifyChecksum checks an entry's declared checksum against its decoded
// payload. Entries without a checksum always pass.
func VerifyChecksum(e domain.Entry) error {
	if e.Checksum == "" {
		return nil
	}
	data, err := Payload(e)
	if err != nil {
		return err
	}
	return MatchChecksum(e.Path, e.Checksum, data)
}

// MatchChecksum compares data against an expected hex digest
func MatchChecksum(path, expected string, data []byte) error {
	actual := Checksum(data)
	if !domain.ChecksumEqual(expected, actual) {
		return &domain.ChecksumMismatchError{Path: path, Expected: expected, Actual: actual}
	}
	return nil
}

// VerifyManifest verifies every checksum-carrying entry and returns one error
// per failing entry, in manifest order
func VerifyManifest(m *domain.Manifest) []error {
	var errs []error
	for _, e := range m.Entries() {
		if err := VerifyChecksum(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
