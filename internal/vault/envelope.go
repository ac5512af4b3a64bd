package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
)

// envelopeVersion is the only blob version this code writes or accepts.
const envelopeVersion = 1

// algorithmCommitted is the only algorithm this code writes or accepts.
// The suffix records that the blob carries a key commitment; a blob
// claiming any other algorithm is rejected before any key material is
// unwrapped, which closes off downgrade or substitution of the cipher.
const algorithmCommitted = "AES-256-GCM/COMMIT-SHA256"

// envelope is the self-describing ciphertext blob stored per seller. The
// wrapped data key travels inside the blob, so no separate key storage
// exists, and a storage compromise exposes only KMS-wrapped keys.
type envelope struct {
	Version    int    `json:"v"`
	Algorithm  string `json:"alg"`
	WrappedKey []byte `json:"edk"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ct"`
	Commitment []byte `json:"commit"`
}

// header is authenticated as GCM additional data so version and algorithm
// cannot be swapped without failing the tag check.
func header() []byte {
	return []byte(fmt.Sprintf("v%d:%s", envelopeVersion, algorithmCommitted))
}

// commitKey derives the commitment stored in the blob and recomputed on
// open. It binds the data key to this algorithm identifier.
func commitKey(dataKey []byte) []byte {
	mac := hmac.New(sha256.New, dataKey)
	mac.Write(header())
	return mac.Sum(nil)
}

// seal encrypts plaintext under dataKey and packages the result with the
// KMS-wrapped form of that key.
func seal(dataKey, wrappedKey, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(dataKey)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("creating nonce: %w", err)
	}

	env := envelope{
		Version:    envelopeVersion,
		Algorithm:  algorithmCommitted,
		WrappedKey: wrappedKey,
		Nonce:      nonce,
		Ciphertext: gcm.Seal(nil, nonce, plaintext, header()),
		Commitment: commitKey(dataKey),
	}

	return json.Marshal(env)
}

// open decrypts a sealed blob. unwrap turns the blob's wrapped key back
// into the data key (a KMS Decrypt call). Any structural, commitment, or
// integrity problem fails closed.
func open(blob []byte, unwrap func(wrappedKey []byte) ([]byte, error)) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return nil, fmt.Errorf("parsing envelope: %w", err)
	}

	if env.Version != envelopeVersion {
		return nil, fmt.Errorf("unsupported envelope version %d", env.Version)
	}
	if env.Algorithm != algorithmCommitted {
		return nil, fmt.Errorf("unsupported algorithm %q", env.Algorithm)
	}

	dataKey, err := unwrap(env.WrappedKey)
	if err != nil {
		return nil, fmt.Errorf("unwrapping data key: %w", err)
	}
	defer wipe(dataKey)

	if !hmac.Equal(env.Commitment, commitKey(dataKey)) {
		return nil, fmt.Errorf("key commitment mismatch")
	}

	block, err := aes.NewCipher(dataKey)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}

	if len(env.Nonce) != gcm.NonceSize() {
		return nil, fmt.Errorf("invalid nonce length %d", len(env.Nonce))
	}

	plaintext, err := gcm.Open(nil, env.Nonce, env.Ciphertext, header())
	if err != nil {
		return nil, fmt.Errorf("authenticated decryption failed: %w", err)
	}

	return plaintext, nil
}

// wipe overwrites key material after use
func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
