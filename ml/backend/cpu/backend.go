// backend.go - Backend-Struktur und Basis-Methoden
// Enthaelt: Backend struct, init(), New(), Close(), Get(), Parameters(), NewContext()

package cpu

import (
	"log/slog"
	"math/rand/v2"
	"runtime"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/ollama/adaptor/ml"
)

func init() {
	ml.RegisterBackend("cpu", New)
}

// param ist ein allokierter Parameter mit seiner Deklaration
type param struct {
	spec ml.ParamSpec
	t    *Tensor
}

// Backend haelt alle Parameter im Hauptspeicher und rechnet eager in float32
type Backend struct {
	mu sync.RWMutex

	// params in Deklarationsreihenfolge
	params *orderedmap.OrderedMap[string, *param]

	rng        *rand.Rand
	numThreads int
}

// New erstellt ein CPU-Backend
func New(params ml.BackendParams) (ml.Backend, error) {
	threads := params.NumThreads
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}

	slog.Debug("cpu backend", "threads", threads, "seed", params.Seed)
	return &Backend{
		params:     orderedmap.New[string, *param](),
		rng:        rand.New(rand.NewPCG(params.Seed, params.Seed^0x9e3779b97f4a7c15)),
		numThreads: threads,
	}, nil
}

// Close gibt alle Parameter frei
func (b *Backend) Close() {
	if b == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.params = orderedmap.New[string, *param]()
}

// Get gibt einen Parameter zurueck oder nil
func (b *Backend) Get(name string) ml.Tensor {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if p, ok := b.params.Get(name); ok {
		return p.t
	}

	return nil
}

// Parameters listet die Parameter in Deklarationsreihenfolge
func (b *Backend) Parameters() []ml.ParamSpec {
	b.mu.RLock()
	defer b.mu.RUnlock()

	specs := make([]ml.ParamSpec, 0, b.params.Len())
	for pair := b.params.Oldest(); pair != nil; pair = pair.Next() {
		spec := pair.Value.spec
		spec.Shape = pair.Value.t.Shape()
		specs = append(specs, spec)
	}

	return specs
}

// NewContext erstellt einen neuen Berechnungskontext
func (b *Backend) NewContext() ml.Context {
	return &Context{b: b, layer: -1}
}
