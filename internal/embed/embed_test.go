package embed

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"Chapter 1", []string{"Chapter", "1"}},
		{"  1.2   Scope:  overview ", []string{"1", ".", "2", "Scope", ":", "overview"}},
		{"Über-Straße", []string{"Über", "-", "Straße"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Tokenize(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("one two three", 2); got != "one two" {
		t.Errorf("expected %q, got %q", "one two", got)
	}
	if got := Truncate("a,  b c", 3); got != "a,  b" {
		t.Errorf("expected original spacing kept, got %q", got)
	}
	if got := Truncate("short", 32); got != "short" {
		t.Errorf("expected unchanged text, got %q", got)
	}
	if got := Truncate("x y z", 0); got != "x y z" {
		t.Errorf("expected unchanged text for 0 bound, got %q", got)
	}
	if got := Truncate("ab\xffcd ef", 2); got != "ab\xff" {
		t.Errorf("expected invalid byte kept as its own token, got %q", got)
	}
}

func TestEstimateTokens(t *testing.T) {
	if EstimateTokens("") != 0 {
		t.Error("expected 0 for empty text")
	}
	if got := EstimateTokens("a"); got != 1 {
		t.Errorf("expected 1, got %d", got)
	}
	if got := EstimateTokens("one two three four five six"); got != 7 {
		t.Errorf("expected 7, got %d", got)
	}
}

func norm(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func TestHashEmbedder(t *testing.T) {
	h := NewHash(64)
	ctx := context.Background()

	a, _ := h.Embed(ctx, "Introduction")
	b, _ := h.Embed(ctx, "introduction")
	if !reflect.DeepEqual(a, b) {
		t.Error("expected case-insensitive embeddings")
	}
	if len(a) != 64 || h.Dimension() != 64 {
		t.Fatalf("expected dimension 64, got %d", len(a))
	}
	if n := norm(a); math.Abs(n-1) > 1e-6 {
		t.Errorf("expected unit norm, got %v", n)
	}

	c, _ := h.Embed(ctx, "Results and discussion")
	if reflect.DeepEqual(a, c) {
		t.Error("expected different texts to differ")
	}

	empty, _ := h.Embed(ctx, "   ")
	if norm(empty) != 0 {
		t.Error("expected zero vector for blank text")
	}

	batch, err := h.EmbedBatch(ctx, []string{"Introduction", "Results and discussion"})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(batch[0], a) || !reflect.DeepEqual(batch[1], c) {
		t.Error("batch result differs from single embeds")
	}
	if NewHash(0).Dimension() != defaultHashDimension {
		t.Error("expected default dimension")
	}
}

// recorder is a fake backend that remembers its inputs.
type recorder struct {
	mu     sync.Mutex
	inputs []string
	fail   error
}

func (r *recorder) Embed(ctx context.Context, text string) ([]float32, error) {
	v, err := r.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return v[0], nil
}

func (r *recorder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return nil, r.fail
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		r.inputs = append(r.inputs, t)
		out[i] = []float32{float32(len(t))}
	}
	return out, nil
}

func (r *recorder) Dimension() int { return 1 }
func (r *recorder) Model() string  { return "recorder" }
func (r *recorder) Close() error   { return nil }

func TestTruncatingWrapper(t *testing.T) {
	rec := &recorder{}
	tr := NewTruncating(rec, 2)
	long := strings.Repeat("word ", 50)

	if _, err := tr.Embed(context.Background(), long); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.EmbedBatch(context.Background(), []string{long, "ok"}); err != nil {
		t.Fatal(err)
	}
	want := []string{"word word", "word word", "ok"}
	if !reflect.DeepEqual(rec.inputs, want) {
		t.Errorf("expected backend inputs %q, got %q", want, rec.inputs)
	}
	if tr.Model() != "recorder" {
		t.Errorf("expected model to pass through, got %q", tr.Model())
	}
}

func TestCachedWrapper(t *testing.T) {
	rec := &recorder{}
	c, err := NewCached(rec, 8)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	first, err := c.EmbedBatch(ctx, []string{"a", "bb", "a"})
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 3 || first[0][0] != 1 || first[1][0] != 2 || first[2][0] != 1 {
		t.Fatalf("unexpected vectors %v", first)
	}

	if _, err := c.EmbedBatch(ctx, []string{"bb", "ccc"}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Embed(ctx, "ccc"); err != nil {
		t.Fatal(err)
	}

	want := []string{"a", "bb", "a", "ccc"}
	if !reflect.DeepEqual(rec.inputs, want) {
		t.Errorf("expected backend inputs %q, got %q", want, rec.inputs)
	}
	s := c.Stats()
	if s.Hits != 2 || s.Misses != 4 || s.Size != 3 {
		t.Errorf("unexpected cache stats %+v", s)
	}

	if _, err := NewCached(rec, 0); err == nil {
		t.Error("expected error for zero cache size")
	}
}

func TestCachedWrapperError(t *testing.T) {
	boom := errors.New("backend down")
	c, _ := NewCached(&recorder{fail: boom}, 4)
	if _, err := c.EmbedBatch(context.Background(), []string{"x"}); !errors.Is(err, boom) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if c.Stats().Size != 0 {
		t.Error("expected failed call to cache nothing")
	}
}

func TestInstrumentedReport(t *testing.T) {
	c, _ := NewCached(&recorder{}, 4)
	in := NewInstrumented(c, 0)
	if _, err := in.EmbedBatch(context.Background(), []string{"a", "b"}); err != nil {
		t.Fatal(err)
	}
	r := in.Report()
	if r.Model != "recorder" || r.Dimension != 1 {
		t.Errorf("unexpected report %+v", r)
	}
	if r.Latency.Calls != 1 || r.Latency.Texts != 2 {
		t.Errorf("expected one call of two texts, got %+v", r.Latency)
	}
	if r.Cache == nil || r.Cache.Misses != 2 {
		t.Errorf("expected cache stats in report, got %+v", r.Cache)
	}
}

func TestHTTPEmbedder(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			http.NotFound(w, r)
			return
		}
		calls++
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		// Reply in reverse order to exercise index reassembly.
		type item struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		var data []item
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, item{Embedding: []float32{float32(len(req.Input[i])), 1}, Index: i})
		}
		json.NewEncoder(w).Encode(map[string]any{"data": data, "model": req.Model})
	}))
	defer srv.Close()

	c := NewHTTP(Config{Endpoint: srv.URL + "/", Model: "mini", BatchSize: 2})
	vecs, err := c.EmbedBatch(context.Background(), []string{"a", "bbb", "cc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 batched calls, got %d", calls)
	}
	for i, want := range []float32{1, 3, 2} {
		if vecs[i][0] != want {
			t.Errorf("vector %d: expected %v, got %v", i, want, vecs[i][0])
		}
	}
	if c.Dimension() != 2 {
		t.Errorf("expected auto-detected dimension 2, got %d", c.Dimension())
	}
}

func TestHTTPEmbedderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewHTTP(Config{Endpoint: srv.URL})
	_, err := c.Embed(context.Background(), "x")
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("expected 503 error, got %v", err)
	}
}

func TestNew(t *testing.T) {
	e, err := New(context.Background(), Config{Backend: BackendHash, Dimension: 32, CacheSize: 16})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer e.Close()
	if e.Model() != "hash-32" || e.Dimension() != 32 {
		t.Errorf("unexpected embedder %s/%d", e.Model(), e.Dimension())
	}
	if e.Report().Cache == nil {
		t.Error("expected cache layer when CacheSize > 0")
	}

	if _, err := New(context.Background(), Config{Backend: "nope"}); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("expected ErrUnknownBackend, got %v", err)
	}
	if _, err := New(context.Background(), Config{Backend: BackendHTTP}); err == nil {
		t.Error("expected error for http backend without endpoint")
	}
}

func TestNew_CacheKeyedByTruncatedText(t *testing.T) {
	e, err := New(context.Background(), Config{Backend: BackendHash, Dimension: 16, MaxTokens: 2, CacheSize: 8})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	ctx := context.Background()
	a, err := e.Embed(ctx, "Annual report 2023")
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.Embed(ctx, "Annual report 2024")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("expected texts equal after truncation to share a vector")
	}
	c := e.Report().Cache
	if c == nil || c.Hits != 1 || c.Misses != 1 || c.Size != 1 {
		t.Errorf("expected one miss then one hit on a single entry, got %+v", c)
	}
}

func TestFloat64s(t *testing.T) {
	got := Float64s([]float32{0.5, -2})
	if !reflect.DeepEqual(got, []float64{0.5, -2}) {
		t.Errorf("unexpected %v", got)
	}
}
