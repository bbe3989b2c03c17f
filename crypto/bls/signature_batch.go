package bls

// SignatureBatch accumulates signature verification obligations so they can
// be settled in one batched cryptographic operation. A batch is owned by a
// single validation attempt: obligations are queued while the cheap
// structural checks run, and Verify is called exactly once at the end, after
// which the batch is discarded.
type SignatureBatch struct {
	Signatures [][]byte
	PublicKeys []PublicKey
	Messages   [][32]byte
}

// NewSignatureBatch constructs an empty signature batch.
func NewSignatureBatch() *SignatureBatch {
	return &SignatureBatch{
		Signatures: [][]byte{},
		PublicKeys: []PublicKey{},
		Messages:   [][32]byte{},
	}
}

// Queue records a (public key, message, signature) triple for later batched
// verification. No cryptographic work happens here.
func (s *SignatureBatch) Queue(pub PublicKey, msg [32]byte, sig []byte) {
	s.Signatures = append(s.Signatures, sig)
	s.PublicKeys = append(s.PublicKeys, pub)
	s.Messages = append(s.Messages, msg)
}

// Join merges the provided signature batch into the current one.
func (s *SignatureBatch) Join(set *SignatureBatch) *SignatureBatch {
	s.Signatures = append(s.Signatures, set.Signatures...)
	s.PublicKeys = append(s.PublicKeys, set.PublicKeys...)
	s.Messages = append(s.Messages, set.Messages...)
	return s
}

// Empty reports whether any obligations have been queued.
func (s *SignatureBatch) Empty() bool {
	return len(s.Signatures) == 0
}

// Verify settles every queued obligation with the batch verify algorithm.
// The result is equivalent to verifying each triple individually, but a
// failure cannot identify which triple was at fault.
func (s *SignatureBatch) Verify() (bool, error) {
	return VerifyMultipleSignatures(s.Signatures, s.Messages, s.PublicKeys)
}
