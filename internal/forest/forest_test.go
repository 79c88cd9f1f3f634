package forest

import (
	"reflect"
	"testing"
)

// twelve well-separated samples, four per class.
func fixture() ([][]float64, []int) {
	x := [][]float64{
		{5.1, 3.5, 1.4, 0.2}, {4.9, 3.0, 1.4, 0.2}, {4.7, 3.2, 1.3, 0.2}, {4.6, 3.1, 1.5, 0.2},
		{7.0, 3.2, 4.7, 1.4}, {6.4, 3.2, 4.5, 1.5}, {6.9, 3.1, 4.9, 1.5}, {5.5, 2.3, 4.0, 1.3},
		{6.3, 3.3, 6.0, 2.5}, {5.8, 2.7, 5.1, 1.9}, {7.1, 3.0, 5.9, 2.1}, {6.3, 2.9, 5.6, 1.8},
	}
	y := []int{0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2}
	return x, y
}

func TestFit_SeparableData(t *testing.T) {
	x, y := fixture()
	f, err := Fit(x, y, Params{NEstimators: 25})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	for i, row := range x {
		if got := f.Predict(row); got != y[i] {
			t.Fatalf("sample %d: predicted %d, want %d", i, got, y[i])
		}
	}
}

func TestPredictProba_Bounds(t *testing.T) {
	x, y := fixture()
	f, err := Fit(x, y, Params{NEstimators: 10})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	proba := f.PredictProba([]float64{5.1, 3.5, 1.4, 0.2})
	if len(proba) != 3 {
		t.Fatalf("proba len=%d", len(proba))
	}
	sum := 0.0
	for _, p := range proba {
		if p < 0 || p > 1 {
			t.Fatalf("proba out of range: %v", proba)
		}
		sum += p
	}
	if sum < 0.999 || sum > 1.001 {
		t.Fatalf("proba sum=%f", sum)
	}
}

func TestFit_Deterministic(t *testing.T) {
	x, y := fixture()
	a, err := Fit(x, y, Params{NEstimators: 5, Seed: 7})
	if err != nil {
		t.Fatalf("fit a: %v", err)
	}
	b, err := Fit(x, y, Params{NEstimators: 5, Seed: 7})
	if err != nil {
		t.Fatalf("fit b: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed produced different forests")
	}
}

func TestPredict_Idempotent(t *testing.T) {
	x, y := fixture()
	f, _ := Fit(x, y, Params{NEstimators: 15})
	in := []float64{6.0, 3.0, 4.8, 1.8}
	p1, c1 := f.Predict(in), f.PredictProba(in)
	p2, c2 := f.Predict(in), f.PredictProba(in)
	if p1 != p2 || !reflect.DeepEqual(c1, c2) {
		t.Fatalf("prediction not idempotent: %d/%v vs %d/%v", p1, c1, p2, c2)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	x, y := fixture()
	f, _ := Fit(x, y, Params{NEstimators: 8})
	b, err := f.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	g, err := Unmarshal(b)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	in := []float64{5.0, 3.4, 1.5, 0.2}
	if f.Predict(in) != g.Predict(in) {
		t.Fatalf("decoded forest predicts differently")
	}
	if !reflect.DeepEqual(f.PredictProba(in), g.PredictProba(in)) {
		t.Fatalf("decoded forest proba differs")
	}
}

func TestUnmarshal_Invalid(t *testing.T) {
	if _, err := Unmarshal([]byte("not-json")); err == nil {
		t.Fatalf("expected decode error")
	}
	if _, err := Unmarshal([]byte(`{"num_features":0,"num_classes":0,"trees":[]}`)); err == nil {
		t.Fatalf("expected empty artifact error")
	}
}

func TestParams_Defaults(t *testing.T) {
	p := Params{}.WithDefaults()
	if p.NEstimators != 100 || p.MaxDepth != 10 || p.MinSamplesSplit != 2 || p.MinSamplesLeaf != 1 || p.Seed != 42 {
		t.Fatalf("unexpected defaults: %+v", p)
	}
	// Explicit values survive.
	q := Params{NEstimators: 3, MaxDepth: 2, MinSamplesSplit: 4, MinSamplesLeaf: 2, Seed: 9}.WithDefaults()
	if q.NEstimators != 3 || q.MaxDepth != 2 || q.MinSamplesSplit != 4 || q.MinSamplesLeaf != 2 || q.Seed != 9 {
		t.Fatalf("defaults clobbered explicit values: %+v", q)
	}
}

func TestParams_Map(t *testing.T) {
	m := Params{}.Map()
	if m["n_estimators"] != "100" || m["random_state"] != "42" {
		t.Fatalf("unexpected param map: %v", m)
	}
}

func TestFit_Errors(t *testing.T) {
	if _, err := Fit(nil, nil, Params{}); err == nil {
		t.Fatalf("expected empty set error")
	}
	if _, err := Fit([][]float64{{1, 2}}, []int{0, 1}, Params{}); err == nil {
		t.Fatalf("expected length mismatch error")
	}
	if _, err := Fit([][]float64{{1, 2}, {1}}, []int{0, 1}, Params{}); err == nil {
		t.Fatalf("expected arity error")
	}
	if _, err := Fit([][]float64{{1, 2}}, []int{-1}, Params{}); err == nil {
		t.Fatalf("expected negative label error")
	}
}
