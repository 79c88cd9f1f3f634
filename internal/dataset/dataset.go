package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jszwec/csvutil"

	"irisd/pkg/types"
)

// record is one labeled sample. Exactly one of ClassName/Class is expected;
// when both are present ClassName wins, matching the original data format.
type record struct {
	SepalLength float64 `json:"sepal_length" csv:"sepal_length"`
	SepalWidth  float64 `json:"sepal_width" csv:"sepal_width"`
	PetalLength float64 `json:"petal_length" csv:"petal_length"`
	PetalWidth  float64 `json:"petal_width" csv:"petal_width"`
	ClassName   string  `json:"class_name,omitempty" csv:"class_name,omitempty"`
	Class       *int    `json:"class,omitempty" csv:"class,omitempty"`
}

// Load reads a labeled dataset from a .json or .csv file and returns
// feature vectors plus integer class labels.
func Load(path string) ([][]float64, []int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	var recs []record
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := json.Unmarshal(b, &recs); err != nil {
			return nil, nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".csv":
		if err := csvutil.Unmarshal(b, &recs); err != nil {
			return nil, nil, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return nil, nil, fmt.Errorf("unsupported dataset extension: %s", ext)
	}
	return split(recs)
}

// split converts parsed records into a feature matrix and label vector.
// Feature values are taken as-is; only labels are validated.
func split(recs []record) ([][]float64, []int, error) {
	x := make([][]float64, 0, len(recs))
	y := make([]int, 0, len(recs))
	for i, r := range recs {
		label, err := r.label()
		if err != nil {
			return nil, nil, fmt.Errorf("sample %d: %w", i, err)
		}
		x = append(x, []float64{r.SepalLength, r.SepalWidth, r.PetalLength, r.PetalWidth})
		y = append(y, label)
	}
	return x, y, nil
}

func (r record) label() (int, error) {
	if r.ClassName != "" {
		for i, name := range types.ClassNames {
			if name == r.ClassName {
				return i, nil
			}
		}
		return 0, fmt.Errorf("unknown class name %q", r.ClassName)
	}
	if r.Class != nil {
		return *r.Class, nil
	}
	return 0, fmt.Errorf("missing class_name and class")
}
