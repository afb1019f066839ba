// Package digest computes full-content file digests in fixed-size chunks so
// memory use does not depend on file size.
package digest

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/zeebo/blake3"
)

// ChunkSize is the read buffer used when streaming a file.
const ChunkSize = 8192

type Algorithm string

const (
	MD5    Algorithm = "md5"
	SHA1   Algorithm = "sha1"
	SHA256 Algorithm = "sha256"
	BLAKE3 Algorithm = "blake3"
)

// Algorithms lists every supported algorithm.
var Algorithms = []Algorithm{MD5, SHA1, SHA256, BLAKE3}

// ParseAlgorithm accepts an algorithm name case-insensitively. An empty name
// selects MD5.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(name))) {
	case "", MD5:
		return MD5, nil
	case SHA1:
		return SHA1, nil
	case SHA256:
		return SHA256, nil
	case BLAKE3:
		return BLAKE3, nil
	default:
		return "", fmt.Errorf("digest: unsupported algorithm %q", name)
	}
}

// New returns a fresh hash for alg.
func New(alg Algorithm) (hash.Hash, error) {
	switch alg {
	case MD5:
		return md5.New(), nil
	case SHA1:
		return sha1.New(), nil
	case SHA256:
		return sha256.New(), nil
	case BLAKE3:
		return blake3.New(), nil
	default:
		return nil, fmt.Errorf("digest: unsupported algorithm %q", alg)
	}
}

// Reader hashes everything in r and returns the lowercase hex digest.
func Reader(r io.Reader, alg Algorithm) (string, error) {
	h, err := New(alg)
	if err != nil {
		return "", err
	}
	buf := make([]byte, ChunkSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// File hashes the whole file at path.
func File(path string, alg Algorithm) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return Reader(f, alg)
}

// Set feeds the same stream into several hashes at once.
type Set struct {
	algs   []Algorithm
	hashes []hash.Hash
}

func NewSet(algs ...Algorithm) (*Set, error) {
	s := &Set{algs: algs, hashes: make([]hash.Hash, 0, len(algs))}
	for _, alg := range algs {
		h, err := New(alg)
		if err != nil {
			return nil, err
		}
		s.hashes = append(s.hashes, h)
	}
	return s, nil
}

func (s *Set) Write(p []byte) (int, error) {
	for _, h := range s.hashes {
		h.Write(p)
	}
	return len(p), nil
}

// ReadFrom drains r through the set using ChunkSize reads.
func (s *Set) ReadFrom(r io.Reader) (int64, error) {
	buf := make([]byte, ChunkSize)
	var total int64
	for {
		n, err := r.Read(buf)
		if n > 0 {
			_, _ = s.Write(buf[:n])
			total += int64(n)
		}
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

// Sums returns the hex digest of every algorithm in the set.
func (s *Set) Sums() map[Algorithm]string {
	out := make(map[Algorithm]string, len(s.algs))
	for i, alg := range s.algs {
		out[alg] = hex.EncodeToString(s.hashes[i].Sum(nil))
	}
	return out
}
