package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"irisd/internal/serving"
	"irisd/pkg/types"
)

// classByLength predicts a class from sepal_length so concurrent requests
// can be steered onto specific per-class counters.
type classByLength struct{}

func (classByLength) Ready() bool { return true }
func (classByLength) Predict(f [types.NumFeatures]float64) (serving.Prediction, error) {
	idx := int(f[0])
	return serving.Prediction{ClassIndex: idx, ClassName: types.ClassNames[idx], Confidence: 0.9}, nil
}

// TestPredictionCounters_ExactUnderConcurrency drives concurrent successful
// predictions split across the three classes and asserts the per-class
// counters match the request counts exactly: no lost updates.
func TestPredictionCounters_ExactUnderConcurrency(t *testing.T) {
	mux := NewMux(classByLength{})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	want := map[int]int{0: 17, 1: 9, 2: 23}
	baseline := map[int]float64{}
	for idx := range want {
		baseline[idx] = testutil.ToFloat64(predictionsTotal.WithLabelValues(types.ClassNames[idx]))
	}

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for idx, n := range want {
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				body := fmt.Sprintf(`{"sepal_length":%d,"sepal_width":3.5,"petal_length":1.4,"petal_width":0.2}`, idx)
				resp, err := http.Post(srv.URL+"/predict", "application/json", bytes.NewBufferString(body))
				if err != nil {
					errs <- err
					return
				}
				resp.Body.Close()
				if resp.StatusCode != http.StatusOK {
					errs <- fmt.Errorf("status %d", resp.StatusCode)
				}
			}(idx)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("request failed: %v", err)
	}

	for idx, n := range want {
		got := testutil.ToFloat64(predictionsTotal.WithLabelValues(types.ClassNames[idx]))
		if got != baseline[idx]+float64(n) {
			t.Fatalf("class %s: counter=%v want %v", types.ClassNames[idx], got, baseline[idx]+float64(n))
		}
	}
}

func TestSetModelLoaded_Gauges(t *testing.T) {
	SetModelLoaded(true)
	if got := testutil.ToFloat64(modelLoaded); got != 1 {
		t.Fatalf("model_loaded=%v", got)
	}
	if got := testutil.ToFloat64(apiHealth); got != 1 {
		t.Fatalf("api_health=%v", got)
	}
	SetModelLoaded(false)
	if got := testutil.ToFloat64(modelLoaded); got != 0 {
		t.Fatalf("model_loaded=%v after unload", got)
	}
	if got := testutil.ToFloat64(apiHealth); got != 0 {
		t.Fatalf("api_health=%v after unload", got)
	}
}

func TestObserveModelLoad_NoPanic(t *testing.T) {
	ObserveModelLoad(125 * time.Millisecond)
}

func TestRecordPrediction_NeverPanics(t *testing.T) {
	// Even nonsense label values must be swallowed, not propagated.
	RecordPrediction("", -1)
	RecordPrediction("setosa", 2.0)
}

func TestActiveRequests_ReturnsToZero(t *testing.T) {
	before := testutil.ToFloat64(activeRequests)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := testutil.ToFloat64(activeRequests); got != before+1 {
			t.Errorf("in-flight gauge during request=%v want %v", got, before+1)
		}
		w.WriteHeader(http.StatusInternalServerError) // error exit path
	})
	rr := httptest.NewRecorder()
	MetricsMiddleware(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))
	if got := testutil.ToFloat64(activeRequests); got != before {
		t.Fatalf("in-flight gauge after request=%v want %v", got, before)
	}
}
