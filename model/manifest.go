// manifest.go - Parameter-Deklarationen eines Modells
package model

import (
	"strings"

	"github.com/ollama/adaptor/ml"
)

// Manifest listet Parameter in Deklarationsreihenfolge
type Manifest []ml.ParamSpec

// Add haengt einen Parameter an. Namensteile werden mit "." verbunden.
func (m *Manifest) Add(init ml.Initializer, shape []int, name ...string) {
	*m = append(*m, ml.ParamSpec{
		Name:  strings.Join(name, "."),
		Shape: shape,
		Init:  init,
	})
}

// Elements gibt die Gesamtzahl der Elemente aller Parameter zurueck
func (m Manifest) Elements() int {
	var n int
	for _, spec := range m {
		n += spec.Elements()
	}
	return n
}

// Names gibt die Parameternamen in Reihenfolge zurueck
func (m Manifest) Names() []string {
	names := make([]string, len(m))
	for i, spec := range m {
		names[i] = spec.Name
	}
	return names
}
