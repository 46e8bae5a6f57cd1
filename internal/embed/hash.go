package embed

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/cespare/xxhash/v2"
)

const defaultHashDimension = 256

// Hash is a feature-hashing embedder. Each lowercased token and adjacent
// token pair lands in a signed bucket; the result is L2-normalised. It needs
// no model files and is fully deterministic.
type Hash struct {
	dim int
}

// NewHash returns a hashing embedder with dim buckets (256 if dim <= 0).
func NewHash(dim int) *Hash {
	if dim <= 0 {
		dim = defaultHashDimension
	}
	return &Hash{dim: dim}
}

func (h *Hash) Embed(_ context.Context, text string) ([]float32, error) {
	return h.vector(text), nil
}

func (h *Hash) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.vector(t)
	}
	return out, nil
}

func (h *Hash) vector(text string) []float32 {
	acc := make([]float64, h.dim)
	tokens := Tokenize(strings.ToLower(text))
	for i, tok := range tokens {
		h.add(acc, tok, 1)
		if i > 0 {
			h.add(acc, tokens[i-1]+" "+tok, 0.5)
		}
	}

	var norm float64
	for _, x := range acc {
		norm += x * x
	}
	out := make([]float32, h.dim)
	if norm == 0 {
		return out
	}
	norm = math.Sqrt(norm)
	for i, x := range acc {
		out[i] = float32(x / norm)
	}
	return out
}

func (h *Hash) add(acc []float64, feature string, weight float64) {
	sum := xxhash.Sum64String(feature)
	idx := sum % uint64(h.dim)
	if sum>>63 == 1 {
		weight = -weight
	}
	acc[idx] += weight
}

func (h *Hash) Dimension() int { return h.dim }
func (h *Hash) Model() string  { return fmt.Sprintf("hash-%d", h.dim) }
func (h *Hash) Close() error   { return nil }
