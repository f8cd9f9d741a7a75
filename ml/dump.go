// dump.go - Textdarstellung von Tensoren fuer die CLI
// Enthaelt: Dump und seine Optionen. Die aeusserste Dimension steht vorne,
// wie bei den verschachtelten Arrays der HTTP-API.
package ml

import (
	"slices"
	"strconv"
	"strings"
)

// DumpOptions configures Dump.
type DumpOptions func(*dumpOptions)

// DumpWithPrecision sets the number of decimals printed for float tensors.
func DumpWithPrecision(n int) DumpOptions {
	return func(o *dumpOptions) {
		o.Precision = n
	}
}

// DumpWithThreshold sets the element count above which Dump elides the
// middle of every dimension.
func DumpWithThreshold(n int) DumpOptions {
	return func(o *dumpOptions) {
		o.Threshold = n
	}
}

// DumpWithEdgeItems sets how many entries stay visible at each end of an
// elided dimension.
func DumpWithEdgeItems(n int) DumpOptions {
	return func(o *dumpOptions) {
		o.EdgeItems = n
	}
}

type dumpOptions struct {
	Precision, Threshold, EdgeItems int
}

// Dump formats t as nested brackets, outermost dimension first. A
// (hidden, seq, batch) embedding prints one block per batch entry and one
// row per token.
func Dump(ctx Context, t Tensor, opts ...DumpOptions) string {
	o := dumpOptions{Precision: 4, Threshold: 1000, EdgeItems: 3}
	for _, opt := range opts {
		opt(&o)
	}

	ctx.Forward(t).Compute(t)

	d := dumper{shape: slices.Clone(t.Shape()), edge: o.EdgeItems}
	if len(d.shape) == 0 {
		d.shape = []int{1}
	}
	slices.Reverse(d.shape)

	n := 1
	for _, s := range d.shape {
		n *= s
	}
	d.full = n <= o.Threshold

	switch t.DType() {
	case DTypeF32, DTypeF16, DTypeBF16:
		values := t.Floats()
		d.format = func(i int) string {
			return strconv.FormatFloat(float64(values[i]), 'f', o.Precision, 32)
		}
	case DTypeI32:
		values := t.Ints()
		d.format = func(i int) string {
			return strconv.FormatInt(int64(values[i]), 10)
		}
	default:
		return "<unsupported>"
	}

	d.write(0, 0)
	return d.sb.String()
}

type dumper struct {
	sb     strings.Builder
	shape  []int
	format func(int) string
	edge   int
	full   bool
}

// write gibt Dimension depth ab dem flachen Index offset aus
func (d *dumper) write(depth, offset int) {
	n := d.shape[depth]
	stride := 1
	for _, s := range d.shape[depth+1:] {
		stride *= s
	}

	inner := depth == len(d.shape)-1
	sep := ", "
	if !inner {
		sep = "," + strings.Repeat("\n", len(d.shape)-depth-1) + strings.Repeat(" ", depth+1)
	}

	d.sb.WriteByte('[')
	for i := 0; i < n; i++ {
		if i > 0 {
			d.sb.WriteString(sep)
		}

		if !d.full && n > 2*d.edge && i == d.edge {
			d.sb.WriteString("...")
			i = n - d.edge - 1
			continue
		}

		if inner {
			text := d.format(offset + i)
			if !strings.HasPrefix(text, "-") {
				d.sb.WriteByte(' ')
			}
			d.sb.WriteString(text)
		} else {
			d.write(depth+1, offset+i*stride)
		}
	}
	d.sb.WriteByte(']')
}
