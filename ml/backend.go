// backend.go - Backend-Interface und Registrierung
// Dieses Modul definiert das Backend-Interface, die Parameter-Deklaration
// und die Backend-Factory-Funktionen.
package ml

import (
	"fmt"
	"slices"
)

// Backend owns the named parameters of a model and creates compute contexts.
type Backend interface {
	// Close frees all memory associated with this backend
	Close()

	// Allocate creates every declared parameter that does not exist yet and
	// initializes it. Existing parameters with a matching shape keep their values.
	Allocate(specs ...ParamSpec) error

	// Load overwrites the values of an allocated parameter. data holds
	// little-endian elements of dtype.
	Load(name string, dtype DType, data []byte) error

	Get(name string) Tensor

	// Parameters lists allocated parameters in declaration order.
	Parameters() []ParamSpec

	NewContext() Context
}

// InitKind selects how a freshly allocated parameter is filled.
type InitKind int

const (
	InitZeros InitKind = iota
	InitOnes
	InitConstant
	InitNormal
	InitUniform
)

func (k InitKind) String() string {
	switch k {
	case InitZeros:
		return "zeros"
	case InitOnes:
		return "ones"
	case InitConstant:
		return "constant"
	case InitNormal:
		return "normal"
	case InitUniform:
		return "uniform"
	default:
		return fmt.Sprintf("InitKind(%d)", int(k))
	}
}

// Initializer describes the initial values of a parameter. Value is the
// constant for InitConstant, the standard deviation for InitNormal and the
// bound for InitUniform.
type Initializer struct {
	Kind  InitKind
	Value float32
}

// ParamSpec declares a parameter by name and shape (innermost-first).
type ParamSpec struct {
	Name  string
	Shape []int
	Init  Initializer
}

// Elements returns the number of elements described by Shape.
func (p ParamSpec) Elements() int {
	n := 1
	for _, d := range p.Shape {
		n *= d
	}
	return n
}

// SameShape reports whether shape matches the declared shape, ignoring trailing 1s.
func (p ParamSpec) SameShape(shape []int) bool {
	return slices.Equal(trimShape(p.Shape), trimShape(shape))
}

func trimShape(shape []int) []int {
	n := len(shape)
	for n > 1 && shape[n-1] == 1 {
		n--
	}
	return shape[:n]
}

// BackendParams controls how the backend executes models
type BackendParams struct {
	// NumThreads sets the number of threads to use if running on the CPU
	NumThreads int

	// Seed seeds the random initializers of Allocate
	Seed uint64
}

var backends = make(map[string]func(BackendParams) (Backend, error))

// RegisterBackend registers a backend factory function.
func RegisterBackend(name string, f func(BackendParams) (Backend, error)) {
	if _, ok := backends[name]; ok {
		panic("backend: backend already registered")
	}

	backends[name] = f
}

// NewBackend creates a new backend instance. An empty name selects "cpu".
func NewBackend(name string, params BackendParams) (Backend, error) {
	if name == "" {
		name = "cpu"
	}

	if backend, ok := backends[name]; ok {
		return backend(params)
	}

	return nil, fmt.Errorf("unsupported backend %q", name)
}
