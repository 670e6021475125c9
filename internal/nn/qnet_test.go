package nn

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

func randomInput(rng *rand.Rand, n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = float64(rng.Intn(2))
	}
	return x
}

func TestPredictShape(t *testing.T) {
	q := NewQNet(11, 256, 3, rand.New(rand.NewSource(1)))

	out := q.Predict(make([]float64, 11))
	if len(out) != 3 {
		t.Fatalf("Expected 3 outputs, got %d", len(out))
	}
	if q.NumParams() != 11*256+256+256*3+3 {
		t.Errorf("Unexpected parameter count %d", q.NumParams())
	}
}

func TestInitWithinFanInBound(t *testing.T) {
	q := NewQNet(11, 32, 3, rand.New(rand.NewSource(2)))
	b1 := 1 / math.Sqrt(11)
	for _, w := range q.W1.RawMatrix().Data {
		if math.Abs(w) > b1 {
			t.Fatalf("W1 weight %v outside ±%v", w, b1)
		}
	}
	b2 := 1 / math.Sqrt(32)
	for _, w := range q.W2.RawMatrix().Data {
		if math.Abs(w) > b2 {
			t.Fatalf("W2 weight %v outside ±%v", w, b2)
		}
	}
}

func TestSeededInitIsReproducible(t *testing.T) {
	a := NewQNet(11, 16, 3, rand.New(rand.NewSource(9)))
	b := NewQNet(11, 16, 3, rand.New(rand.NewSource(9)))
	x := randomInput(rand.New(rand.NewSource(1)), 11)

	pa, pb := a.Predict(x), b.Predict(x)
	for i := range pa {
		if pa[i] != pb[i] {
			t.Fatalf("Output %d differs: %v vs %v", i, pa[i], pb[i])
		}
	}
}

func TestArgmaxFirstMaxWins(t *testing.T) {
	tests := []struct {
		vals     []float64
		expected int
	}{
		{[]float64{1, 2, 3}, 2},
		{[]float64{3, 3, 1}, 0},
		{[]float64{0, 5, 5}, 1},
		{[]float64{-1, -1, -1}, 0},
	}
	for _, tc := range tests {
		if got := Argmax(tc.vals); got != tc.expected {
			t.Errorf("Argmax(%v) = %d, expected %d", tc.vals, got, tc.expected)
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	q := NewQNet(11, 16, 3, rand.New(rand.NewSource(3)))
	c := q.Clone()
	x := randomInput(rand.New(rand.NewSource(4)), 11)
	before := q.Predict(x)

	c.W2.Set(0, 0, 100)
	c.B2[1] = 100

	after := q.Predict(x)
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("Mutating clone changed original output %d", i)
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	q := NewQNet(11, 24, 3, rand.New(rand.NewSource(5)))
	path := filepath.Join(t.TempDir(), "model", "model.json")

	if err := q.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	// Saving again overwrites in place.
	if err := q.Save(path); err != nil {
		t.Fatalf("Second save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.In != 11 || loaded.Hidden != 24 || loaded.Out != 3 {
		t.Fatalf("Unexpected shape %d/%d/%d", loaded.In, loaded.Hidden, loaded.Out)
	}

	rng := rand.New(rand.NewSource(6))
	for k := 0; k < 10; k++ {
		x := randomInput(rng, 11)
		want, got := q.Predict(x), loaded.Predict(x)
		for i := range want {
			if want[i] != got[i] {
				t.Fatalf("Prediction %d differs after reload: %v vs %v", i, want[i], got[i])
			}
		}
	}
}

func TestCheckpointKeepsTrainState(t *testing.T) {
	q := NewQNet(11, 8, 3, rand.New(rand.NewSource(7)))
	dir := t.TempDir()

	path := filepath.Join(dir, "model.json")
	if err := q.SaveCheckpoint(path, TrainState{Record: 12, Episodes: 340}); err != nil {
		t.Fatal(err)
	}
	loaded, state, err := LoadCheckpoint(path)
	if err != nil {
		t.Fatal(err)
	}
	if state.Record != 12 || state.Episodes != 340 {
		t.Errorf("Unexpected state %+v", state)
	}
	if loaded.NumParams() != q.NumParams() {
		t.Errorf("Expected %d params, got %d", q.NumParams(), loaded.NumParams())
	}

	plain := filepath.Join(dir, "plain.json")
	if err := q.Save(plain); err != nil {
		t.Fatal(err)
	}
	if _, state, err := LoadCheckpoint(plain); err != nil || state != (TrainState{}) {
		t.Errorf("Expected empty state from Save, got %+v, %v", state, err)
	}
}

func TestLoadRejectsBadCheckpoint(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}

	garbage := filepath.Join(dir, "garbage.json")
	if err := os.WriteFile(garbage, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(garbage); err == nil {
		t.Error("Expected error for malformed file")
	}

	short := filepath.Join(dir, "short.json")
	if err := os.WriteFile(short, []byte(`{"in":2,"hidden":2,"out":1,"w1":[1],"b1":[0,0],"w2":[1,1],"b2":[0]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(short); err == nil {
		t.Error("Expected shape mismatch error")
	}
}
