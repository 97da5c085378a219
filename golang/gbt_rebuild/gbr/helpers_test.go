package gbr

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

//randomTree grows a random tree whose nodes are numbered in pre-order.
func randomTree(rng *rand.Rand, group, maxDepth, nFeatures int) FlatTree {
	tree := FlatTree{Group: group}
	var grow func(depth int) int
	grow = func(depth int) int {
		id := len(tree.TreeNodes)
		node := NewTreeNode()
		node.TreeNodeId = id
		tree.TreeNodes = append(tree.TreeNodes, node)
		if depth == maxDepth || rng.Intn(3) == 0 {
			tree.TreeNodes[id].LeafValue = rng.NormFloat64()
			return id
		}
		tree.TreeNodes[id].FeatureNumber = rng.Intn(nFeatures)
		tree.TreeNodes[id].Threshold = rng.Float64()
		left := grow(depth + 1)
		right := grow(depth + 1)
		tree.TreeNodes[id].LeftIndex = left
		tree.TreeNodes[id].RightIndex = right
		return id
	}
	grow(0)
	return tree
}

func randomEnsemble(rng *rand.Rand, nGroups, treesPerGroup, maxDepth, nFeatures int) *Ensemble {
	ensemble := &Ensemble{NGroups: nGroups, BaseScore: 0.5}
	for g := 0; g < nGroups; g++ {
		for i := 0; i < treesPerGroup; i++ {
			ensemble.Trees = append(ensemble.Trees, randomTree(rng, g, maxDepth, nFeatures))
		}
	}
	return ensemble
}

func randomFeatures(rng *rand.Rand, rows, cols int) *mat.Dense {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = rng.Float64()
	}
	return mat.NewDense(rows, cols, data)
}

//stumpEnsemble is a regression ensemble of one tree: f0 < 0.5 ? 1 : 2.
func stumpEnsemble() *Ensemble {
	return &Ensemble{
		NGroups: 1,
		Trees: []FlatTree{{
			Group: 0,
			TreeNodes: []TreeNode{
				{TreeNodeId: 0, FeatureNumber: 0, Threshold: 0.5, LeftIndex: 1, RightIndex: 2},
				{TreeNodeId: 1, LeftIndex: -1, RightIndex: -1, LeafValue: 1},
				{TreeNodeId: 2, LeftIndex: -1, RightIndex: -1, LeafValue: 2},
			},
		}},
	}
}
