// context.go - Context und Tensor Interfaces fuer ML-Operationen
// Dieses Modul definiert die Schnittstellen fuer Tensor-Operationen und Compute-Kontexte.
package ml

// Context represents an execution context for tensor operations.
type Context interface {
	Zeros(dtype DType, shape ...int) Tensor
	FromBytes(dtype DType, s []byte, shape ...int) Tensor
	FromFloats(s []float32, shape ...int) Tensor
	FromInts(s []int32, shape ...int) Tensor

	// Arange creates a 1D tensor with values within an interval (start, stop] increased by step.
	Arange(start, stop, step float32, dtype DType) Tensor

	Forward(...Tensor) Context
	Compute(...Tensor)
	Close()

	// Input returns a context appropriate for creating tensors that are
	// inputs to the model
	Input() Context

	// Layer returns a context appropriate for creating intermediate tensors
	Layer(int) Context
}

// Tensor represents a multi-dimensional array with various operations.
//
// Dimensions are listed innermost-first: a batch of B sequences of L tokens
// with H features each has Shape() == [H, L, B].
type Tensor interface {
	Dim(n int) int
	Shape() []int
	DType() DType

	Bytes() []byte
	Floats() []float32
	Ints() []int32

	FromBytes([]byte)
	FromFloats([]float32)

	Add(ctx Context, t2 Tensor) Tensor
	Sub(ctx Context, t2 Tensor) Tensor
	Mul(ctx Context, t2 Tensor) Tensor
	Div(ctx Context, t2 Tensor) Tensor

	// Mulmat multiplies t [K, M, ...] with t2 [K, N, ...] producing [M, N, ...].
	// Dimensions 2 and 3 of t are broadcast over t2.
	Mulmat(ctx Context, t2 Tensor) Tensor

	Softmax(ctx Context) Tensor
	L2Norm(ctx Context, eps float32) Tensor
	LayerNorm(ctx Context, weight, bias Tensor, eps float32) Tensor
	Scale(ctx Context, s float64) Tensor
	SumRows(ctx Context) Tensor

	Tanh(ctx Context) Tensor
	GELU(ctx Context) Tensor

	Reshape(ctx Context, shape ...int) Tensor
	Permute(ctx Context, shape ...int) Tensor
	Contiguous(ctx Context, shape ...int) Tensor

	Concat(ctx Context, t2 Tensor, dim int) Tensor
	Duplicate(ctx Context) Tensor
	Slice(ctx Context, dim, low, high, step int) Tensor
}
