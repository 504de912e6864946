package model

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/gangfang/kaggle-scripts/internal/config"
	"github.com/gangfang/kaggle-scripts/internal/errors"
	"github.com/gangfang/kaggle-scripts/internal/parallel"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// minSplitGain is the smallest loss reduction a split must bring even when
// gamma is zero. It keeps float noise from growing degenerate trees.
const minSplitGain = 1e-6

// GradientBoosting is a squared-error gradient boosted regression tree
// ensemble. Trees are grown level by level with exact greedy split search
// over presorted feature columns and second order gain.
type GradientBoosting struct {
	params     config.BoosterConfig
	pool       *parallel.WorkerPool
	baseScore  float64
	trees      []*regressionTree
	importance []float64
	features   int
}

type regressionTree struct {
	nodes []treeNode
}

type treeNode struct {
	leaf      bool
	weight    float64
	feature   int
	threshold float64
	left      int
	right     int
}

// gradStats accumulates gradient and hessian sums over the rows of a node.
type gradStats struct {
	g, h float64
}

type splitCandidate struct {
	valid     bool
	gain      float64
	threshold float64
	feature   int
}

// trainingData holds the design column by column with each column's row
// order sorted by value.
type trainingData struct {
	columns [][]float64
	order   [][]int
}

// NewGradientBoosting returns an unfitted ensemble. Split search fans out
// per feature on pool.
func NewGradientBoosting(params config.BoosterConfig, pool *parallel.WorkerPool) *GradientBoosting {
	return &GradientBoosting{params: params, pool: pool}
}

// Fit grows params.Rounds trees on the design X and labels y.
func (b *GradientBoosting) Fit(X mat.Matrix, y []float64) error {
	const op = "GradientBoosting.Fit"

	if err := b.params.Validate(); err != nil {
		return err
	}
	if err := checkDesign(op, X, y); err != nil {
		return err
	}
	rows, cols := X.Dims()
	data := b.presort(X)

	b.features = cols
	b.baseScore = stat.Mean(y, nil)
	b.trees = b.trees[:0]

	gainSum := make([]float64, cols)
	splits := make([]int, cols)

	pred := make([]float64, rows)
	for i := range pred {
		pred[i] = b.baseScore
	}
	grad := make([]float64, rows)
	hess := make([]float64, rows)

	for round := 0; round < b.params.Rounds; round++ {
		for i := range grad {
			grad[i] = pred[i] - y[i]
			hess[i] = 1
		}
		tree, leafOf := b.growTree(data, grad, hess, gainSum, splits)
		for i, node := range leafOf {
			pred[i] += tree.nodes[node].weight
		}
		b.trees = append(b.trees, tree)
	}

	b.importance = normalizedImportance(gainSum, splits)
	return nil
}

// Predict returns the ensemble prediction for every row of X.
func (b *GradientBoosting) Predict(X mat.Matrix) ([]float64, error) {
	const op = "GradientBoosting.Predict"

	if b.trees == nil {
		return nil, errors.NewModelFitError(op, "model has not been fitted", nil)
	}
	rows, cols := X.Dims()
	if cols != b.features {
		return nil, errors.NewModelFitError(op,
			fmt.Sprintf("design has %d columns, model was fitted on %d", cols, b.features), nil)
	}

	out := make([]float64, rows)
	for i := range out {
		out[i] = b.baseScore
		for _, tree := range b.trees {
			out[i] += tree.predict(X, i)
		}
	}
	return out, nil
}

// FeatureImportance returns the gain importance of every column: the mean
// gain of the splits on that column, normalized to sum to 1. Columns never
// split on score 0; all scores are 0 when no tree split at all.
func (b *GradientBoosting) FeatureImportance() []float64 {
	return append([]float64(nil), b.importance...)
}

func (b *GradientBoosting) presort(X mat.Matrix) *trainingData {
	rows, cols := X.Dims()
	data := &trainingData{
		columns: make([][]float64, cols),
		order:   make([][]int, cols),
	}
	for j := 0; j < cols; j++ {
		data.columns[j] = mat.Col(nil, j, X)
	}
	data.order = parallel.ProcessRange(b.pool, cols, func(j int) []int {
		column := data.columns[j]
		order := make([]int, rows)
		for i := range order {
			order[i] = i
		}
		slices.SortStableFunc(order, func(a, c int) int {
			return cmp.Compare(column[a], column[c])
		})
		return order
	})
	return data
}

// growTree grows one tree on the current gradients and returns it together
// with the leaf every training row ends in. Gains of the splits taken are
// added to gainSum and splits.
func (b *GradientBoosting) growTree(
	data *trainingData,
	grad, hess []float64,
	gainSum []float64,
	splits []int,
) (*regressionTree, []int) {
	rows := len(grad)
	tree := &regressionTree{nodes: []treeNode{{}}}
	nodeOf := make([]int, rows)
	position := make([]int, rows)

	active := []int{0}
	for depth := 0; len(active) > 0; depth++ {
		slotOf := make([]int, len(tree.nodes))
		for i := range slotOf {
			slotOf[i] = -1
		}
		for slot, node := range active {
			slotOf[node] = slot
		}

		stats := make([]gradStats, len(active))
		for i := range position {
			position[i] = slotOf[nodeOf[i]]
			if slot := position[i]; slot >= 0 {
				stats[slot].g += grad[i]
				stats[slot].h += hess[i]
			}
		}

		if depth == b.params.MaxDepth {
			for slot, node := range active {
				tree.nodes[node] = b.leaf(stats[slot])
			}
			break
		}

		perFeature := parallel.ProcessRange(b.pool, len(data.columns), func(j int) []splitCandidate {
			return b.scanFeature(j, data, position, grad, hess, stats)
		})

		best := make([]splitCandidate, len(active))
		for _, candidates := range perFeature {
			for slot, c := range candidates {
				if c.valid && (!best[slot].valid || c.gain > best[slot].gain) {
					best[slot] = c
				}
			}
		}

		var next []int
		for slot, node := range active {
			split := best[slot]
			if !split.valid || split.gain <= max(b.params.Gamma, minSplitGain) {
				tree.nodes[node] = b.leaf(stats[slot])
				continue
			}
			left := len(tree.nodes)
			tree.nodes[node] = treeNode{
				feature:   split.feature,
				threshold: split.threshold,
				left:      left,
				right:     left + 1,
			}
			tree.nodes = append(tree.nodes, treeNode{}, treeNode{})
			next = append(next, left, left+1)
			gainSum[split.feature] += split.gain
			splits[split.feature]++
		}

		for i, slot := range position {
			if slot < 0 {
				continue
			}
			node := tree.nodes[nodeOf[i]]
			if node.leaf {
				continue
			}
			if data.columns[node.feature][i] < node.threshold {
				nodeOf[i] = node.left
			} else {
				nodeOf[i] = node.right
			}
		}
		active = next
	}
	return tree, nodeOf
}

// scanFeature walks feature j in sorted order once and returns the best
// split of every active node on it.
func (b *GradientBoosting) scanFeature(
	j int,
	data *trainingData,
	position []int,
	grad, hess []float64,
	stats []gradStats,
) []splitCandidate {
	type scanState struct {
		left gradStats
		last float64
		seen bool
	}

	column := data.columns[j]
	states := make([]scanState, len(stats))
	best := make([]splitCandidate, len(stats))

	for _, i := range data.order[j] {
		slot := position[i]
		if slot < 0 {
			continue
		}
		st := &states[slot]
		x := column[i]
		if st.seen && x != st.last {
			total := stats[slot]
			right := gradStats{g: total.g - st.left.g, h: total.h - st.left.h}
			if st.left.h >= b.params.MinChildWeight && right.h >= b.params.MinChildWeight {
				gain := b.score(st.left) + b.score(right) - b.score(total)
				if !best[slot].valid || gain > best[slot].gain {
					best[slot] = splitCandidate{
						valid:     true,
						gain:      gain,
						threshold: midpoint(st.last, x),
						feature:   j,
					}
				}
			}
		}
		st.left.g += grad[i]
		st.left.h += hess[i]
		st.last = x
		st.seen = true
	}
	return best
}

func (b *GradientBoosting) score(s gradStats) float64 {
	return s.g * s.g / (s.h + b.params.Lambda)
}

func (b *GradientBoosting) leaf(s gradStats) treeNode {
	return treeNode{
		leaf:   true,
		weight: -s.g / (s.h + b.params.Lambda) * b.params.LearningRate,
	}
}

func (t *regressionTree) predict(X mat.Matrix, row int) float64 {
	node := t.nodes[0]
	for !node.leaf {
		if X.At(row, node.feature) < node.threshold {
			node = t.nodes[node.left]
		} else {
			node = t.nodes[node.right]
		}
	}
	return node.weight
}

// midpoint returns a threshold t with lo < t <= hi.
func midpoint(lo, hi float64) float64 {
	t := lo + (hi-lo)/2
	if t <= lo {
		return hi
	}
	return t
}

func normalizedImportance(gainSum []float64, splits []int) []float64 {
	importance := make([]float64, len(gainSum))
	var total float64
	for j, sum := range gainSum {
		if splits[j] > 0 {
			importance[j] = sum / float64(splits[j])
			total += importance[j]
		}
	}
	if total > 0 {
		for j := range importance {
			importance[j] /= total
		}
	}
	return importance
}
