package io

import (
	"crypto/sha256"
	"hash"
	"io"
)

// ChecksumWriter hashes everything written through it.
type ChecksumWriter interface {
	io.Writer

	// Sum returns the digest of the bytes written so far.
	Sum() []byte
}

// NewSHA256Writer tees writes into dest and a SHA-256 digest.
func NewSHA256Writer(dest io.Writer) ChecksumWriter {
	return &sha256Writer{dest: dest, digest: sha256.New()}
}

type sha256Writer struct {
	dest   io.Writer
	digest hash.Hash
}

func (w *sha256Writer) Write(p []byte) (int, error) {
	w.digest.Write(p)
	return w.dest.Write(p)
}

func (w *sha256Writer) Sum() []byte {
	return w.digest.Sum(nil)
}
