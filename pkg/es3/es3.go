// Package es3 reads the encrypted save files written by R.E.P.O.
//
// A save file is a 16 byte IV followed by an AES-128-CBC ciphertext with
// PKCS#7 padding. The key is derived from a fixed passphrase with
// PBKDF2-HMAC-SHA1 using the IV as salt. The plaintext is a JSON document,
// optionally gzip compressed.
package es3

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha1" //nolint:gosec // Key derivation is fixed by the save format
	"encoding/json"
	"fmt"
	"io"

	"github.com/juju/errors"
	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"
	"golang.org/x/crypto/pbkdf2"
)

// Passphrase is the key material the game uses for every save file.
const Passphrase = "Why would you want to cheat?... :o It's no fun. :') :'D"

// Error kinds returned by this package.
const (
	// ErrDecryptFailure covers unreadable, truncated, corrupt or undecodable containers.
	ErrDecryptFailure = errors.ConstError("failed to decrypt save file")
	// ErrSchemaMismatch is returned when the plaintext lacks a required field.
	ErrSchemaMismatch = errors.ConstError("save file does not match the expected schema")
)

// unexported constants.
const (
	ivSize           = 16
	keySize          = 16
	pbkdf2Iterations = 100
)

// Decrypt reads the container at path from fsys and returns its plaintext.
// The file is read exactly once.
func Decrypt(fsys afero.Fs, path, passphrase string) ([]byte, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %w", ErrDecryptFailure, path, err)
	}

	plaintext, err := DecryptBytes(data, passphrase)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return plaintext, nil
}

// DecryptBytes decrypts an in-memory container.
func DecryptBytes(data []byte, passphrase string) ([]byte, error) {
	if len(data) < ivSize+aes.BlockSize {
		return nil, fmt.Errorf("%w: container is %d bytes, too short", ErrDecryptFailure, len(data))
	}

	iv, ciphertext := data[:ivSize], data[ivSize:]
	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext is not block aligned", ErrDecryptFailure)
	}

	block, err := aes.NewCipher(deriveKey(passphrase, iv))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryptFailure, err)
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	plaintext, err = unpad(plaintext)
	if err != nil {
		return nil, err
	}

	if isGzip(plaintext) {
		plaintext, err = gunzip(plaintext)
		if err != nil {
			return nil, err
		}
	}

	if !json.Valid(plaintext) {
		return nil, fmt.Errorf("%w: plaintext is not valid JSON", ErrDecryptFailure)
	}

	return plaintext, nil
}

// Encrypt builds a container around plaintext using the given IV.
// A nil IV is rejected; callers choose it so fixtures stay reproducible.
func Encrypt(plaintext []byte, passphrase string, iv []byte) ([]byte, error) {
	if len(iv) != ivSize {
		return nil, fmt.Errorf("iv must be %d bytes, got %d", ivSize, len(iv))
	}

	block, err := aes.NewCipher(deriveKey(passphrase, iv))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	padded := pad(plaintext)
	out := make([]byte, ivSize+len(padded))
	copy(out, iv)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[ivSize:], padded)

	return out, nil
}

func deriveKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iterations, keySize, sha1.New)
}

func gunzip(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: bad gzip header: %w", ErrDecryptFailure, err)
	}

	defer func() {
		_ = reader.Close()
	}()

	out, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: bad gzip stream: %w", ErrDecryptFailure, err)
	}

	return out, nil
}

func isGzip(data []byte) bool {
	return len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b
}

func pad(data []byte) []byte {
	n := aes.BlockSize - len(data)%aes.BlockSize

	return append(bytes.Clone(data), bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(data []byte) ([]byte, error) {
	n := int(data[len(data)-1])
	if n == 0 || n > aes.BlockSize || n > len(data) {
		return nil, fmt.Errorf("%w: bad padding", ErrDecryptFailure)
	}

	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("%w: bad padding", ErrDecryptFailure)
		}
	}

	return data[:len(data)-n], nil
}
