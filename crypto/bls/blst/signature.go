package blst

import (
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	blst "github.com/supranational/blst/bindings/go"

	"github.com/solsticelabs/solstice/config/params"
	"github.com/solsticelabs/solstice/crypto/bls/common"
)

// Domain separation tag for BLS signatures following the Ethereum
// "hash to curve" ciphersuite for BLS12-381 G2 with proof of possession.
var dst = []byte("BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_POP_")

const scalarBytes = 32
const randBitsEntropy = 64

// Signature used in the BLS signature scheme.
type Signature struct {
	s *blstSignature
}

// SignatureFromBytes creates a BLS signature from a LittleEndian byte slice.
func SignatureFromBytes(sig []byte) (common.Signature, error) {
	if len(sig) != params.BeaconConfig().BLSSignatureLength {
		return nil, fmt.Errorf("signature must be %d bytes", params.BeaconConfig().BLSSignatureLength)
	}
	signature := new(blstSignature).Uncompress(sig)
	if signature == nil {
		return nil, errors.New("could not unmarshal bytes into signature")
	}
	// Group check signature. Do not check for infinity since an aggregated
	// signature could be infinite.
	if !signature.SigValidate(false) {
		return nil, errors.New("signature not in group")
	}
	return &Signature{s: signature}, nil
}

// Verify a bls signature given a public key and a message.
//
// In the IETF draft BLS specification:
// Verify(PK, message, signature) -> VALID or INVALID: a verification
// algorithm that outputs VALID if signature is a valid signature of
// message under public key PK, and INVALID otherwise.
func (s *Signature) Verify(pubKey common.PublicKey, msg []byte) bool {
	// Signature and PKs are assumed to have been validated upon decompression.
	return s.s.Verify(false, pubKey.(*PublicKey).p, false, msg, dst)
}

// VerifyMultipleSignatures verifies a non-singular set of signatures and its
// respective public keys and messages. This method provides a safe way to
// verify multiple signatures at once. We pick a number randomly from 1 to the
// maximum uint64 value and then multiply the signature by it. We continue
// doing this for all signatures and then aggregate them. The final
// verification is a single pairing check on the aggregate, making batch
// verification substantially cheaper than verifying each pair on its own.
func VerifyMultipleSignatures(sigs [][]byte, msgs [][32]byte, pubKeys []common.PublicKey) (bool, error) {
	if len(sigs) == 0 || len(pubKeys) == 0 {
		return false, nil
	}
	length := len(sigs)
	if length != len(pubKeys) || length != len(msgs) {
		return false, errors.Errorf("provided signatures, pubkeys and messages have differing lengths. S: %d, P: %d, M: %d",
			length, len(pubKeys), len(msgs))
	}
	rawSigs := new(blstSignature).BatchUncompress(sigs)
	if rawSigs == nil {
		return false, errors.New("could not unmarshal bytes into signature")
	}

	mulP1Aff := make([]*blstPublicKey, length)
	rawMsgs := make([]blst.Message, length)
	for i := 0; i < length; i++ {
		mulP1Aff[i] = pubKeys[i].(*PublicKey).p
		rawMsgs[i] = msgs[i][:]
	}

	// Protect the random source as the closure below may be called from
	// multiple goroutines by the underlying library.
	randLock := new(sync.Mutex)
	randFunc := func(scalar *blst.Scalar) {
		var rbytes [scalarBytes]byte
		randLock.Lock()
		_, _ = rand.Read(rbytes[:])
		randLock.Unlock()
		// Guard against the random source returning zero. Since the scalar
		// is interpreted from a big endian byte slice, we set the last byte.
		rbytes[len(rbytes)-1] |= 0x01
		scalar.FromBEndian(rbytes[:])
	}
	dummySig := new(blstSignature)

	// Validate signatures since we uncompress them here. Public keys should
	// already be validated.
	return dummySig.MultipleAggregateVerify(rawSigs, true, mulP1Aff, false, rawMsgs, dst, randFunc, randBitsEntropy), nil
}

// Marshal a signature into a LittleEndian byte slice.
func (s *Signature) Marshal() []byte {
	return s.s.Compress()
}

// Copy returns a full deep copy of a signature.
func (s *Signature) Copy() common.Signature {
	sign := *s.s
	return &Signature{s: &sign}
}
