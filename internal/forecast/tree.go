package forecast

import (
	"math/rand"
	"sort"
)

// node is one split or leaf of a regression tree. Leaves have Left == -1.
type node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      int     `json:"l"`
	Right     int     `json:"r"`
	Value     float64 `json:"v"`
}

// Tree is a CART regression tree stored as a flat node list.
type Tree struct {
	Nodes []node `json:"nodes"`
}

// Predict walks the tree for one feature row.
func (t *Tree) Predict(x []float64) float64 {
	if len(t.Nodes) == 0 {
		return 0
	}
	i := 0
	for {
		n := t.Nodes[i]
		if n.Left < 0 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

type treeBuilder struct {
	x          [][]float64
	y          []float64
	maxDepth   int
	minLeaf    int
	maxFeat    int
	rng        *rand.Rand
	importance []float64
	tree       *Tree
}

// fitTree grows a tree on the rows listed in idx (duplicates allowed, as
// produced by bootstrap sampling). importance accumulates the squared-error
// reduction credited to each feature.
func fitTree(x [][]float64, y []float64, idx []int, p ForestParams, rng *rand.Rand, importance []float64) Tree {
	nFeat := len(x[0])
	maxFeat := int(float64(nFeat) * p.FeatureFraction)
	if maxFeat < 1 {
		maxFeat = 1
	}
	if maxFeat > nFeat {
		maxFeat = nFeat
	}
	b := &treeBuilder{
		x:          x,
		y:          y,
		maxDepth:   p.MaxDepth,
		minLeaf:    p.MinLeaf,
		maxFeat:    maxFeat,
		rng:        rng,
		importance: importance,
		tree:       &Tree{},
	}
	b.grow(idx, 0)
	return *b.tree
}

func (b *treeBuilder) grow(idx []int, depth int) int {
	var sum, sumSq float64
	for _, i := range idx {
		sum += b.y[i]
		sumSq += b.y[i] * b.y[i]
	}
	n := float64(len(idx))
	mean := sum / n
	self := len(b.tree.Nodes)
	b.tree.Nodes = append(b.tree.Nodes, node{Left: -1, Right: -1, Value: mean})

	if depth >= b.maxDepth || len(idx) < 2*b.minLeaf {
		return self
	}
	parentSSE := sumSq - sum*sum/n
	if parentSSE <= 1e-12 {
		return self
	}

	feature, threshold, gain, ok := b.bestSplit(idx, sum, sumSq)
	if !ok {
		return self
	}
	b.importance[feature] += gain

	var left, right []int
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.tree.Nodes[self] = node{Feature: feature, Threshold: threshold, Left: l, Right: r, Value: mean}
	return self
}

// bestSplit scans a random subset of features for the threshold with the
// largest reduction in squared error that leaves minLeaf rows on each side.
// When none of the first maxFeat features splits the node, the remaining
// features are tried in the same random order until one does.
func (b *treeBuilder) bestSplit(idx []int, sum, sumSq float64) (int, float64, float64, bool) {
	n := len(idx)
	parentSSE := sumSq - sum*sum/float64(n)
	features := b.rng.Perm(len(b.x[0]))

	bestFeature, bestThreshold, bestGain := -1, 0.0, 0.0
	sorted := make([]int, n)
	for drawn, f := range features {
		if drawn >= b.maxFeat && bestFeature >= 0 {
			break
		}
		copy(sorted, idx)
		sort.Slice(sorted, func(a, c int) bool { return b.x[sorted[a]][f] < b.x[sorted[c]][f] })

		var leftSum, leftSq float64
		for k := 0; k < n-1; k++ {
			v := b.y[sorted[k]]
			leftSum += v
			leftSq += v * v
			nl := k + 1
			nr := n - nl
			if nl < b.minLeaf || nr < b.minLeaf {
				continue
			}
			cur, next := b.x[sorted[k]][f], b.x[sorted[k+1]][f]
			if cur == next {
				continue
			}
			rightSum := sum - leftSum
			rightSq := sumSq - leftSq
			sse := (leftSq - leftSum*leftSum/float64(nl)) + (rightSq - rightSum*rightSum/float64(nr))
			if gain := parentSSE - sse; gain > bestGain {
				bestFeature, bestThreshold, bestGain = f, (cur+next)/2, gain
			}
		}
	}
	return bestFeature, bestThreshold, bestGain, bestFeature >= 0
}
