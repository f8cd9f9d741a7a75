package adaptor

import (
	"math"

	"github.com/ollama/adaptor/ml"
)

// ContrastiveLoss returns the symmetric cross entropy of a square similarity
// matrix: the mean of the text-to-image and image-to-text losses, where the
// matching pairs sit on the diagonal.
func ContrastiveLoss(logitsPerText ml.Tensor) (float32, error) {
	n := logitsPerText.Dim(0)
	if logitsPerText.Dim(1) != n || logitsPerText.Dim(2) != 1 || logitsPerText.Dim(3) != 1 {
		return 0, &ShapeError{Op: "contrastive loss", Want: []int{n, n}, Got: logitsPerText.Shape()}
	}

	logits := logitsPerText.Floats()
	rows := crossEntropy(n, func(i, j int) float64 { return float64(logits[i*n+j]) })
	cols := crossEntropy(n, func(i, j int) float64 { return float64(logits[j*n+i]) })
	return float32((rows + cols) / 2), nil
}

// crossEntropy mittelt logsumexp(zeile i) - at(i, i) ueber alle Zeilen
func crossEntropy(n int, at func(i, j int) float64) float64 {
	var total float64
	for i := range n {
		shift := math.Inf(-1)
		for j := range n {
			shift = max(shift, at(i, j))
		}

		var sum float64
		for j := range n {
			sum += math.Exp(at(i, j) - shift)
		}

		total += shift + math.Log(sum) - at(i, i)
	}
	return total / float64(n)
}
