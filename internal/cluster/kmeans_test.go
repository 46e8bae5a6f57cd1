package cluster

import (
	"errors"
	"reflect"
	"testing"
)

func blobs() [][]float64 {
	return [][]float64{
		{0, 0}, {0.1, 0.2}, {-0.1, 0.1},
		{10, 10}, {10.2, 9.9}, {9.8, 10.1},
		{-10, 10}, {-9.9, 10.2}, {-10.1, 9.8},
	}
}

func TestFit_SeparatesBlobs(t *testing.T) {
	res, err := Fit(blobs(), DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Labels) != 9 {
		t.Fatalf("expected 9 labels, got %d", len(res.Labels))
	}
	for g := 0; g < 3; g++ {
		first := res.Labels[g*3]
		for i := 1; i < 3; i++ {
			if res.Labels[g*3+i] != first {
				t.Errorf("group %d split across clusters: %v", g, res.Labels)
			}
		}
	}
	if res.Labels[0] == res.Labels[3] || res.Labels[3] == res.Labels[6] || res.Labels[0] == res.Labels[6] {
		t.Errorf("expected three distinct clusters, got %v", res.Labels)
	}
	if len(res.Centroids) != 3 {
		t.Errorf("expected 3 centroids, got %d", len(res.Centroids))
	}
	if res.Inertia <= 0 || res.Inertia > 1 {
		t.Errorf("unexpected inertia %v", res.Inertia)
	}
}

func TestFit_Deterministic(t *testing.T) {
	vecs := [][]float64{
		{0.3, 0.1, 0.9}, {0.2, 0.8, 0.1}, {0.5, 0.5, 0.5},
		{0.9, 0.1, 0.2}, {0.1, 0.1, 0.1}, {0.7, 0.3, 0.6},
	}
	a, err := Fit(vecs, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	b, err := Fit(vecs, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a.Labels, b.Labels) {
		t.Errorf("labels differ between runs: %v vs %v", a.Labels, b.Labels)
	}
	if a.Inertia != b.Inertia {
		t.Errorf("inertia differs between runs: %v vs %v", a.Inertia, b.Inertia)
	}
}

func TestFit_KEqualsN(t *testing.T) {
	vecs := [][]float64{{1, 0}, {0, 1}, {1, 1}}
	res, err := Fit(vecs, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	seen := map[int]bool{}
	for _, l := range res.Labels {
		seen[l] = true
	}
	if len(seen) != 3 {
		t.Errorf("expected each point in its own cluster, got %v", res.Labels)
	}
	if res.Inertia != 0 {
		t.Errorf("expected zero inertia, got %v", res.Inertia)
	}
}

func TestFit_SinglePoint(t *testing.T) {
	cfg := DefaultConfig()
	cfg.K = 1
	res, err := Fit([][]float64{{0.4, 0.6}}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(res.Labels, []int{0}) {
		t.Errorf("expected [0], got %v", res.Labels)
	}
}

func TestFit_IdenticalPoints(t *testing.T) {
	vecs := [][]float64{{1, 1}, {1, 1}, {1, 1}, {1, 1}}
	res, err := Fit(vecs, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Labels) != 4 {
		t.Errorf("expected 4 labels, got %d", len(res.Labels))
	}
	if res.Inertia != 0 {
		t.Errorf("expected zero inertia, got %v", res.Inertia)
	}
}

func TestFit_Errors(t *testing.T) {
	tests := []struct {
		name string
		vecs [][]float64
		k    int
		want error
	}{
		{"empty", nil, 3, ErrNoPoints},
		{"too few", [][]float64{{1}, {2}}, 3, ErrTooFewPoints},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.K = tt.k
			_, err := Fit(tt.vecs, cfg)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	cfg := DefaultConfig()
	cfg.K = 0
	if _, err := Fit([][]float64{{1}}, cfg); err == nil {
		t.Error("expected error for k=0")
	}
	cfg.K = 2
	if _, err := Fit([][]float64{{1, 2}, {1}}, cfg); err == nil {
		t.Error("expected error for ragged vectors")
	}
}
