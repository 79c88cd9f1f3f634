// Package forest implements a small random-forest classifier for tabular
// data: bootstrap-sampled gini decision trees with majority voting. The
// fitted forest serializes to JSON, which is the artifact format stored in
// the run tracker.
package forest

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
)

// Defaults applied when the corresponding Params fields are unset.
const (
	defaultNEstimators     = 100
	defaultMaxDepth        = 10
	defaultMinSamplesSplit = 2
	defaultMinSamplesLeaf  = 1
	defaultSeed            = 42
)

// Params are the forest hyperparameters. Zero values fall back to the
// named defaults rather than being dropped or rejected.
type Params struct {
	NEstimators     int   `json:"n_estimators"`
	MaxDepth        int   `json:"max_depth"`
	MinSamplesSplit int   `json:"min_samples_split"`
	MinSamplesLeaf  int   `json:"min_samples_leaf"`
	Seed            int64 `json:"random_state"`
}

// WithDefaults returns a copy with unset fields replaced by defaults.
func (p Params) WithDefaults() Params {
	if p.NEstimators <= 0 {
		p.NEstimators = defaultNEstimators
	}
	if p.MaxDepth <= 0 {
		p.MaxDepth = defaultMaxDepth
	}
	if p.MinSamplesSplit <= 0 {
		p.MinSamplesSplit = defaultMinSamplesSplit
	}
	if p.MinSamplesLeaf <= 0 {
		p.MinSamplesLeaf = defaultMinSamplesLeaf
	}
	if p.Seed == 0 {
		p.Seed = defaultSeed
	}
	return p
}

// Map renders the effective hyperparameters as run-loggable strings.
func (p Params) Map() map[string]string {
	p = p.WithDefaults()
	return map[string]string{
		"n_estimators":      strconv.Itoa(p.NEstimators),
		"max_depth":         strconv.Itoa(p.MaxDepth),
		"min_samples_split": strconv.Itoa(p.MinSamplesSplit),
		"min_samples_leaf":  strconv.Itoa(p.MinSamplesLeaf),
		"random_state":      strconv.FormatInt(p.Seed, 10),
	}
}

// node is one tree node in a flat array representation. Leaves have
// Left == -1 and carry the majority class.
type node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      int     `json:"l"`
	Right     int     `json:"r"`
	Class     int     `json:"c"`
}

type tree struct {
	Nodes []node `json:"nodes"`
}

// Forest is a fitted classifier. It is read-only after Fit and safe for
// concurrent Predict/PredictProba calls.
type Forest struct {
	NumFeatures int    `json:"num_features"`
	NumClasses  int    `json:"num_classes"`
	Params      Params `json:"params"`
	Trees       []tree `json:"trees"`
}

// Fit trains a forest on the given samples. It is deterministic for a
// fixed Params.Seed: tree i draws from an RNG seeded with Seed+i.
func Fit(x [][]float64, y []int, p Params) (*Forest, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("empty training set")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("feature/label length mismatch: %d vs %d", len(x), len(y))
	}
	nf := len(x[0])
	nc := 0
	for i, row := range x {
		if len(row) != nf {
			return nil, fmt.Errorf("sample %d has %d features, want %d", i, len(row), nf)
		}
		if y[i] < 0 {
			return nil, fmt.Errorf("sample %d has negative label %d", i, y[i])
		}
		if y[i]+1 > nc {
			nc = y[i] + 1
		}
	}
	p = p.WithDefaults()
	f := &Forest{NumFeatures: nf, NumClasses: nc, Params: p, Trees: make([]tree, 0, p.NEstimators)}
	for i := 0; i < p.NEstimators; i++ {
		rng := rand.New(rand.NewSource(p.Seed + int64(i)))
		f.Trees = append(f.Trees, growTree(x, y, nc, p, rng))
	}
	return f, nil
}

// Predict returns the majority-vote class index for one sample.
func (f *Forest) Predict(x []float64) int {
	proba := f.PredictProba(x)
	best := 0
	for c := 1; c < len(proba); c++ {
		if proba[c] > proba[best] {
			best = c
		}
	}
	return best
}

// PredictProba returns the per-class vote fractions for one sample.
// The result sums to 1 and every entry is in [0,1].
func (f *Forest) PredictProba(x []float64) []float64 {
	votes := make([]float64, f.NumClasses)
	for _, t := range f.Trees {
		votes[t.predict(x)]++
	}
	if n := float64(len(f.Trees)); n > 0 {
		for c := range votes {
			votes[c] /= n
		}
	}
	return votes
}

// Marshal serializes the fitted forest to its JSON artifact form.
func (f *Forest) Marshal() ([]byte, error) {
	return json.Marshal(f)
}

// Unmarshal decodes a forest artifact produced by Marshal.
func Unmarshal(b []byte) (*Forest, error) {
	var f Forest
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}
	if f.NumClasses <= 0 || f.NumFeatures <= 0 || len(f.Trees) == 0 {
		return nil, fmt.Errorf("model artifact is empty or truncated")
	}
	return &f, nil
}

func (t tree) predict(x []float64) int {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Left < 0 {
			return n.Class
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// growTree builds one decision tree on a bootstrap sample of the data.
func growTree(x [][]float64, y []int, numClasses int, p Params, rng *rand.Rand) tree {
	n := len(x)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = rng.Intn(n)
	}
	b := &builder{x: x, y: y, numClasses: numClasses, params: p, rng: rng}
	b.build(idx, 0)
	return tree{Nodes: b.nodes}
}

type builder struct {
	x          [][]float64
	y          []int
	numClasses int
	params     Params
	rng        *rand.Rand
	nodes      []node
}

// build grows a subtree over the given sample indices and returns the
// index of its root node in the flat node array.
func (b *builder) build(idx []int, depth int) int {
	counts := make([]int, b.numClasses)
	for _, i := range idx {
		counts[b.y[i]]++
	}
	if depth >= b.params.MaxDepth || len(idx) < b.params.MinSamplesSplit || isPure(counts) {
		return b.leaf(counts)
	}
	feat, thr, ok := b.bestSplit(idx, counts)
	if !ok {
		return b.leaf(counts)
	}
	var left, right []int
	for _, i := range idx {
		if b.x[i][feat] <= thr {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	pos := len(b.nodes)
	b.nodes = append(b.nodes, node{Feature: feat, Threshold: thr, Left: -1, Right: -1})
	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[pos].Left = l
	b.nodes[pos].Right = r
	return pos
}

func (b *builder) leaf(counts []int) int {
	best := 0
	for c := 1; c < len(counts); c++ {
		if counts[c] > counts[best] {
			best = c
		}
	}
	pos := len(b.nodes)
	b.nodes = append(b.nodes, node{Left: -1, Right: -1, Class: best})
	return pos
}

// bestSplit searches sqrt(numFeatures) randomly chosen features for the
// threshold with the lowest weighted gini impurity. Splits that would leave
// fewer than MinSamplesLeaf samples on either side are skipped.
func (b *builder) bestSplit(idx []int, counts []int) (int, float64, bool) {
	nf := len(b.x[0])
	k := int(math.Ceil(math.Sqrt(float64(nf))))
	feats := b.rng.Perm(nf)[:k]
	sort.Ints(feats)

	bestGini := math.Inf(1)
	bestFeat, bestThr := -1, 0.0
	for _, feat := range feats {
		vals := make([]float64, 0, len(idx))
		for _, i := range idx {
			vals = append(vals, b.x[i][feat])
		}
		sort.Float64s(vals)
		for v := 1; v < len(vals); v++ {
			if vals[v] == vals[v-1] {
				continue
			}
			thr := (vals[v] + vals[v-1]) / 2
			g, ok := b.splitGini(idx, feat, thr)
			if ok && g < bestGini {
				bestGini, bestFeat, bestThr = g, feat, thr
			}
		}
	}
	if bestFeat < 0 {
		return 0, 0, false
	}
	return bestFeat, bestThr, true
}

func (b *builder) splitGini(idx []int, feat int, thr float64) (float64, bool) {
	lc := make([]int, b.numClasses)
	rc := make([]int, b.numClasses)
	ln, rn := 0, 0
	for _, i := range idx {
		if b.x[i][feat] <= thr {
			lc[b.y[i]]++
			ln++
		} else {
			rc[b.y[i]]++
			rn++
		}
	}
	if ln < b.params.MinSamplesLeaf || rn < b.params.MinSamplesLeaf {
		return 0, false
	}
	total := float64(ln + rn)
	return float64(ln)/total*gini(lc, ln) + float64(rn)/total*gini(rc, rn), true
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		g -= p * p
	}
	return g
}

func isPure(counts []int) bool {
	seen := false
	for _, c := range counts {
		if c > 0 {
			if seen {
				return false
			}
			seen = true
		}
	}
	return true
}
