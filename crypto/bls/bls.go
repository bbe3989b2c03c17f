// Package bls implements a go-wrapper around a library implementing the
// BLS12-381 curve. This package exposes a public API for verifying and
// aggregating BLS signatures used by the Ethereum consensus protocol.
package bls

import (
	"github.com/solsticelabs/solstice/crypto/bls/blst"
	"github.com/solsticelabs/solstice/crypto/bls/common"
)

// SecretKeyFromBytes creates a BLS private key from a BigEndian byte slice.
func SecretKeyFromBytes(privKey []byte) (SecretKey, error) {
	return blst.SecretKeyFromBytes(privKey)
}

// PublicKeyFromBytes creates a BLS public key from a BigEndian byte slice.
func PublicKeyFromBytes(pubKey []byte) (PublicKey, error) {
	return blst.PublicKeyFromBytes(pubKey)
}

// SignatureFromBytes creates a BLS signature from a LittleEndian byte slice.
func SignatureFromBytes(sig []byte) (Signature, error) {
	return blst.SignatureFromBytes(sig)
}

// VerifyMultipleSignatures verifies multiple signatures for distinct messages
// securely in one batched cryptographic operation.
func VerifyMultipleSignatures(sigs [][]byte, msgs [][32]byte, pubKeys []common.PublicKey) (bool, error) {
	return blst.VerifyMultipleSignatures(sigs, msgs, pubKeys)
}

// RandKey creates a new private key using a random input.
func RandKey() (common.SecretKey, error) {
	return blst.RandKey()
}
