package random

import (
	"math/rand"
	"sync"
	"time"
)

//go:generate mockgen -package=mocks -destination=mocks/mock_random.go github.com/KirkDiggler/impostor/internal/common/random Source

// Source is the randomness used for game codes, impostor selection and
// message variety. Inject a seeded source to make outcomes reproducible.
type Source interface {
	// Intn returns a uniform value in [0, n). n must be positive.
	Intn(n int) int
}

// Config for the default source
type Config struct {
	// Optional seed for testing
	Seed int64
}

// DefaultSource wraps math/rand with a lock so one source can be shared
// across request goroutines
type DefaultSource struct {
	mu     sync.Mutex
	random *rand.Rand
}

// New creates a new random source
func New(cfg *Config) *DefaultSource {
	var seed int64
	if cfg != nil && cfg.Seed != 0 {
		seed = cfg.Seed
	} else {
		seed = time.Now().UnixNano()
	}

	return &DefaultSource{
		random: rand.New(rand.NewSource(seed)),
	}
}

// Intn returns a uniform value in [0, n)
func (s *DefaultSource) Intn(n int) int {
	if n <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.random.Intn(n)
}

// Letters returns length characters drawn uniformly from alphabet
func Letters(src Source, alphabet string, length int) string {
	out := make([]byte, length)
	for i := range out {
		out[i] = alphabet[src.Intn(len(alphabet))]
	}
	return string(out)
}
