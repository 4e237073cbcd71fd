package domain

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
)

// FingerprintSet remembers content fingerprints over a sliding window using
// two bloom filters. New fingerprints go into "current"; lookups check both
// "current" and "previous". Rotating every window/2 keeps a fingerprint
// visible for at least one full window.
type FingerprintSet struct {
	current  *bloom.BloomFilter
	previous *bloom.BloomFilter
	mu       sync.RWMutex
	window   time.Duration
	capacity uint
	fpRate   float64
}

// NewFingerprintSet creates a set sized for capacity fingerprints per window
// at the given false positive rate.
func NewFingerprintSet(window time.Duration, capacity uint, fpRate float64) *FingerprintSet {
	return &FingerprintSet{
		current:  bloom.NewWithEstimates(capacity, fpRate),
		previous: bloom.NewWithEstimates(capacity, fpRate),
		window:   window,
		capacity: capacity,
		fpRate:   fpRate,
	}
}

// SeenBefore reports whether fp is already in the window, recording it if
// not. Safe for concurrent use.
func (s *FingerprintSet) SeenBefore(fp uint64) bool {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], fp)
	data := key[:]

	s.mu.RLock()
	if s.current.Test(data) || s.previous.Test(data) {
		s.mu.RUnlock()
		return true
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	// Another goroutine may have added it between the two locks.
	if s.current.Test(data) || s.previous.Test(data) {
		return true
	}
	s.current.Add(data)
	return false
}

// Rotate moves current to previous and starts a fresh current filter.
func (s *FingerprintSet) Rotate() {
	s.mu.Lock()
	s.previous = s.current
	s.current = bloom.NewWithEstimates(s.capacity, s.fpRate)
	s.mu.Unlock()
}

// Window returns the configured window.
func (s *FingerprintSet) Window() time.Duration {
	return s.window
}
