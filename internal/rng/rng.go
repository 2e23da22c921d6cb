// Package rng provides the random sources puzzle generation draws from.
//
// Engines never call the global math/rand functions directly. They take a
// Source so tests and scenarios can replay identical puzzles.
package rng

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"math/rand/v2"
	"sync"
)

// Source yields uniformly distributed integers in [0, n).
// IntN panics if n <= 0, like math/rand.
type Source interface {
	IntN(n int) int
}

// Seeded is a PCG-backed source. The same seed always yields the same stream.
type Seeded struct {
	r *rand.Rand
}

// NewSeeded creates a deterministic source from a seed.
func NewSeeded(seed uint64) *Seeded {
	return &Seeded{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// IntN implements Source.
func (s *Seeded) IntN(n int) int {
	return s.r.IntN(n)
}

// HMAC derives a deterministic byte stream from a server seed, client seed
// and nonce. Each 32-byte round is HMAC-SHA256(serverSeed, "client:nonce:round"),
// and four bytes make one float in [0, 1).
//
// This lets a session be replayed exactly from published seeds without
// storing the generated puzzles.
type HMAC struct {
	mu         sync.Mutex
	serverSeed string
	clientSeed string
	nonce      uint64
	round      uint64
	pos        int
	buffer     [32]byte
}

// NewHMAC creates a stream positioned at the start of round 0.
func NewHMAC(serverSeed, clientSeed string, nonce uint64) *HMAC {
	h := &HMAC{
		serverSeed: serverSeed,
		clientSeed: clientSeed,
		nonce:      nonce,
	}
	h.generateRound()
	return h
}

// IntN implements Source.
func (h *HMAC) IntN(n int) int {
	if n <= 0 {
		panic("rng: invalid argument to IntN")
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	v := int(h.nextFloat() * float64(n))
	if v >= n {
		v = n - 1
	}
	return v
}

func (h *HMAC) nextByte() byte {
	if h.pos >= len(h.buffer) {
		h.round++
		h.pos = 0
		h.generateRound()
	}
	b := h.buffer[h.pos]
	h.pos++
	return b
}

// nextFloat consumes exactly four bytes.
func (h *HMAC) nextFloat() float64 {
	result := 0.0
	divider := 1.0
	for i := 0; i < 4; i++ {
		divider *= 256
		result += float64(h.nextByte()) / divider
	}
	return result
}

func (h *HMAC) generateRound() {
	mac := hmac.New(sha256.New, []byte(h.serverSeed))
	fmt.Fprintf(mac, "%s:%d:%d", h.clientSeed, h.nonce, h.round)
	copy(h.buffer[:], mac.Sum(nil))
}

// Scripted replays a fixed list of values, each reduced modulo n. It is
// meant for tests that need a specific puzzle. Once the script is
// exhausted it starts over.
type Scripted struct {
	mu     sync.Mutex
	values []int
	idx    int
}

// NewScripted creates a scripted source. With no values it always yields 0.
func NewScripted(values ...int) *Scripted {
	return &Scripted{values: values}
}

// IntN implements Source.
func (s *Scripted) IntN(n int) int {
	if n <= 0 {
		panic("rng: invalid argument to IntN")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.idx%len(s.values)]
	s.idx++
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
