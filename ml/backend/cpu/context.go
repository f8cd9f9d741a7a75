// context.go - Context-Struktur und Kern-Methoden
// Enthaelt: Context struct, Input(), Layer(), Forward(), Compute(), Close()

package cpu

import "github.com/ollama/adaptor/ml"

// Context ist ein eager Berechnungskontext: jede Operation liefert sofort
// einen fertigen Tensor, Forward und Compute sind daher leer.
type Context struct {
	b *Backend

	// layer ist der Layer dieses Kontexts, -1 fuer Eingaben
	layer int
}

// Input gibt einen Kontext fuer Eingabe-Tensoren zurueck
func (c *Context) Input() ml.Context {
	return &Context{b: c.b, layer: -1}
}

// Layer gibt einen Kontext fuer einen bestimmten Layer zurueck
func (c *Context) Layer(i int) ml.Context {
	return &Context{b: c.b, layer: i}
}

func (c *Context) Forward(...ml.Tensor) ml.Context {
	return c
}

func (c *Context) Compute(...ml.Tensor) {}

func (c *Context) Close() {}
