// tensor_matrix.go - Matrix-Operationen fuer Tensoren
// Enthaelt: Mulmat

package cpu

import (
	"fmt"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/ollama/adaptor/ml"
)

// Mulmat berechnet out[n][m] = sum_k t[m][k] * t2[n][k] fuer jede Matrix der
// Dimensionen 2 und 3. Jede Ausgabematrix wird von genau einer Goroutine
// geschrieben.
func (t *Tensor) Mulmat(ctx ml.Context, t2 ml.Tensor) ml.Tensor {
	u := t2.(*Tensor)
	k, m, n := t.ne[0], t.ne[1], u.ne[1]
	if u.ne[0] != k || u.ne[2]%t.ne[2] != 0 || u.ne[3]%t.ne[3] != 0 {
		panic(fmt.Errorf("cpu: cannot mulmat %v and %v", t.Shape(), u.Shape()))
	}

	out := t.b.newTensor(m, n, u.ne[2], u.ne[3])
	r2, r3 := u.ne[2]/t.ne[2], u.ne[3]/t.ne[3]
	a, b := t.f32(), u.f32()

	var g errgroup.Group
	g.SetLimit(t.b.numThreads)
	for i3 := range u.ne[3] {
		for i2 := range u.ne[2] {
			ao := ((i3/r3)*t.ne[2] + i2/r2) * k * m
			bo := (i3*u.ne[2] + i2) * k * n
			co := (i3*u.ne[2] + i2) * m * n

			g.Go(func() error {
				blas32.Gemm(blas.NoTrans, blas.Trans, 1,
					blas32.General{Rows: n, Cols: k, Stride: k, Data: b[bo : bo+k*n]},
					blas32.General{Rows: m, Cols: k, Stride: k, Data: a[ao : ao+k*m]},
					0,
					blas32.General{Rows: n, Cols: m, Stride: m, Data: out.data[co : co+m*n]},
				)
				return nil
			})
		}
	}

	// die Goroutinen liefern keine Fehler
	_ = g.Wait()
	return out
}
