package blst

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solsticelabs/solstice/crypto/bls/common"
)

func TestSignVerify(t *testing.T) {
	sk, err := RandKey()
	require.NoError(t, err)
	msg := []byte("hello")
	sig := sk.Sign(msg)
	assert.True(t, sig.Verify(sk.PublicKey(), msg))
	assert.False(t, sig.Verify(sk.PublicKey(), []byte("world")))
}

func TestPublicKeyFromBytes_Roundtrip(t *testing.T) {
	sk, err := RandKey()
	require.NoError(t, err)
	raw := sk.PublicKey().Marshal()
	pk, err := PublicKeyFromBytes(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, pk.Marshal())

	// Served from cache on a second decode.
	again, err := PublicKeyFromBytes(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, again.Marshal())
}

func TestPublicKeyFromBytes_BadLength(t *testing.T) {
	_, err := PublicKeyFromBytes(make([]byte, 47))
	assert.Error(t, err)
}

func TestSecretKeyFromBytes_RejectsZero(t *testing.T) {
	_, err := SecretKeyFromBytes(make([]byte, 32))
	assert.ErrorIs(t, err, common.ErrZeroKey)
}

func TestSignatureFromBytes_BadInput(t *testing.T) {
	_, err := SignatureFromBytes(make([]byte, 96))
	assert.Error(t, err)
	_, err = SignatureFromBytes(make([]byte, 95))
	assert.Error(t, err)
}

func TestVerifyMultipleSignatures(t *testing.T) {
	sigs := make([][]byte, 0, 4)
	msgs := make([][32]byte, 0, 4)
	pubs := make([]common.PublicKey, 0, 4)
	for i := byte(0); i < 4; i++ {
		sk, err := RandKey()
		require.NoError(t, err)
		msg := [32]byte{i}
		sigs = append(sigs, sk.Sign(msg[:]).Marshal())
		msgs = append(msgs, msg)
		pubs = append(pubs, sk.PublicKey())
	}

	verified, err := VerifyMultipleSignatures(sigs, msgs, pubs)
	require.NoError(t, err)
	assert.True(t, verified)

	// Swap two signatures; the batch as a whole must fail.
	sigs[0], sigs[1] = sigs[1], sigs[0]
	verified, err = VerifyMultipleSignatures(sigs, msgs, pubs)
	require.NoError(t, err)
	assert.False(t, verified)
}

func TestVerifyMultipleSignatures_Empty(t *testing.T) {
	verified, err := VerifyMultipleSignatures(nil, nil, nil)
	require.NoError(t, err)
	assert.False(t, verified)
}
