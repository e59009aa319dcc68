package registry

import (
	"sync"

	"github.com/ethereum/go-ethereum/log"

	"github.com/verilab/regress/types"
)

// TestSet is a registration surface for test descriptors, keyed by name.
// Registering a name that already exists logs a warning and silently
// overwrites the earlier descriptor, keeping its position in the order.
type TestSet struct {
	mu     sync.Mutex
	log    log.Logger
	order  []string
	byName map[string]*types.Test
}

func NewTestSet(logger log.Logger) *TestSet {
	if logger == nil {
		logger = log.New()
	}
	return &TestSet{
		log:    logger,
		byName: make(map[string]*types.Test),
	}
}

// Add registers a test descriptor.
func (s *TestSet) Add(t *types.Test) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byName[t.Name]; exists {
		s.log.Warn("Overwriting previously registered test; the earlier testcase will not run",
			"test", t.Name)
	} else {
		s.order = append(s.order, t.Name)
	}
	s.byName[t.Name] = t
}

// Tests returns the registered descriptors in registration order.
func (s *TestSet) Tests() []*types.Test {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*types.Test, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.byName[name])
	}
	return out
}
