// Package ensemble implements the Random Forest regressor used for
// dissolved-oxygen prediction: bagged variance-reduction CART trees
// with impurity-gain feature importances.
package ensemble

import (
	"math/rand/v2"
	"sort"
)

// treeNode is one node in a flat node array. Leaves have Left == -1.
type treeNode struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Value     float64
	Gain      float64 // sum-of-squares reduction achieved by this split
}

// regressionTree is a CART tree minimizing within-node variance.
type regressionTree struct {
	nodes           []treeNode
	maxDepth        int // <= 0 means unlimited
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     int // <= 0 means all features
}

// fit grows the tree on the rows of X selected by indices.
func (t *regressionTree) fit(X [][]float64, y []float64, indices []int, rng *rand.Rand) {
	t.nodes = t.nodes[:0]
	t.buildNode(X, y, indices, 0, rng)
}

// buildNode recursively grows nodes and returns the new node's index.
func (t *regressionTree) buildNode(X [][]float64, y []float64, indices []int, depth int, rng *rand.Rand) int {
	nodeIdx := len(t.nodes)

	mean, sse := meanAndSSE(y, indices)

	if (t.maxDepth > 0 && depth >= t.maxDepth) ||
		len(indices) < t.minSamplesSplit ||
		sse == 0 {
		t.nodes = append(t.nodes, treeNode{Left: -1, Right: -1, Value: mean})
		return nodeIdx
	}

	best := t.findBestSplit(X, y, indices, sse, rng)
	if best.gain <= 0 {
		t.nodes = append(t.nodes, treeNode{Left: -1, Right: -1, Value: mean})
		return nodeIdx
	}

	t.nodes = append(t.nodes, treeNode{
		Feature:   best.feature,
		Threshold: best.threshold,
		Value:     mean,
		Gain:      best.gain,
	})

	left := make([]int, 0, len(indices))
	right := make([]int, 0, len(indices))
	for _, idx := range indices {
		if X[idx][best.feature] <= best.threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}

	leftChild := t.buildNode(X, y, left, depth+1, rng)
	rightChild := t.buildNode(X, y, right, depth+1, rng)
	t.nodes[nodeIdx].Left = leftChild
	t.nodes[nodeIdx].Right = rightChild

	return nodeIdx
}

type splitInfo struct {
	feature   int
	threshold float64
	gain      float64
}

// findBestSplit searches a random subset of features (all of them when
// maxFeatures <= 0) for the threshold with the largest sum-of-squares
// reduction over the parent node.
func (t *regressionTree) findBestSplit(X [][]float64, y []float64, indices []int, parentSSE float64, rng *rand.Rand) splitInfo {
	nFeatures := len(X[indices[0]])
	features := t.sampleFeatures(nFeatures, rng)

	best := splitInfo{feature: -1, gain: 0}
	for _, j := range features {
		if s := t.bestSplitForFeature(X, y, indices, j, parentSSE); s.gain > best.gain {
			best = s
		}
	}
	return best
}

func (t *regressionTree) sampleFeatures(nFeatures int, rng *rand.Rand) []int {
	features := make([]int, nFeatures)
	for i := range features {
		features[i] = i
	}
	if t.maxFeatures <= 0 || t.maxFeatures >= nFeatures {
		return features
	}
	rng.Shuffle(nFeatures, func(i, j int) {
		features[i], features[j] = features[j], features[i]
	})
	return features[:t.maxFeatures]
}

// bestSplitForFeature scans split points between distinct consecutive
// values of one feature using running sums, so each candidate costs
// O(1) after the sort.
func (t *regressionTree) bestSplitForFeature(X [][]float64, y []float64, indices []int, feature int, parentSSE float64) splitInfo {
	sorted := make([]int, len(indices))
	copy(sorted, indices)
	sort.Slice(sorted, func(a, b int) bool {
		return X[sorted[a]][feature] < X[sorted[b]][feature]
	})

	n := len(sorted)
	var totalSum float64
	for _, idx := range sorted {
		totalSum += y[idx]
	}

	best := splitInfo{feature: -1, gain: 0}
	var leftSum, leftSumSq float64
	var totalSumSq float64
	for _, idx := range sorted {
		totalSumSq += y[idx] * y[idx]
	}

	for i := 0; i < n-1; i++ {
		idx := sorted[i]
		leftSum += y[idx]
		leftSumSq += y[idx] * y[idx]

		// Only split between distinct feature values.
		cur := X[idx][feature]
		next := X[sorted[i+1]][feature]
		if cur == next {
			continue
		}

		nLeft := i + 1
		nRight := n - nLeft
		if nLeft < t.minSamplesLeaf || nRight < t.minSamplesLeaf {
			continue
		}

		rightSum := totalSum - leftSum
		rightSumSq := totalSumSq - leftSumSq
		leftSSE := leftSumSq - leftSum*leftSum/float64(nLeft)
		rightSSE := rightSumSq - rightSum*rightSum/float64(nRight)

		gain := parentSSE - leftSSE - rightSSE
		if gain > best.gain {
			best = splitInfo{
				feature:   feature,
				threshold: (cur + next) / 2,
				gain:      gain,
			}
		}
	}
	return best
}

// predict walks the tree for one sample.
func (t *regressionTree) predict(x []float64) float64 {
	nodeIdx := 0
	for {
		node := &t.nodes[nodeIdx]
		if node.Left == -1 {
			return node.Value
		}
		if x[node.Feature] <= node.Threshold {
			nodeIdx = node.Left
		} else {
			nodeIdx = node.Right
		}
	}
}

// accumulateImportance adds each split's gain to its feature's bucket.
func (t *regressionTree) accumulateImportance(importance []float64) {
	for i := range t.nodes {
		node := &t.nodes[i]
		if node.Left != -1 {
			importance[node.Feature] += node.Gain
		}
	}
}

func meanAndSSE(y []float64, indices []int) (mean, sse float64) {
	n := float64(len(indices))
	if n == 0 {
		return 0, 0
	}
	var sum, sumSq float64
	for _, idx := range indices {
		sum += y[idx]
		sumSq += y[idx] * y[idx]
	}
	mean = sum / n
	sse = sumSq - sum*sum/n
	if sse < 0 {
		// Guard against cancellation on near-constant targets.
		sse = 0
	}
	return mean, sse
}
