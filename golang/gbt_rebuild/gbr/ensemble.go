package gbr

import (
	"encoding/json"
	"os"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

//TreeNode is a node of a flat tree. Tree is stored in an array. LeftIndex and RightIndex are equal to -1
//when the current node is a leaf otherwise they contain array indices of children.
type TreeNode struct {
	TreeNodeId            int
	FeatureNumber         int
	Threshold             float64
	LeftIndex, RightIndex int // -1, -1 if it is a leaf
	LeafValue             float64
}

//NewTreeNode creates a node without children.
func NewTreeNode() TreeNode {
	return TreeNode{TreeNodeId: 0, FeatureNumber: 0, Threshold: 0, LeftIndex: -1, RightIndex: -1, LeafValue: 0}
}

//IsLeaf returns whether this node has no children.
func (node TreeNode) IsLeaf() bool {
	return node.LeftIndex == -1 && node.RightIndex == -1
}

//FlatTree is one tree of an ensemble. The root is TreeNodes[0].
type FlatTree struct {
	Group     int
	TreeNodes []TreeNode
}

type levelIndex struct {
	index, level int
}

//TraverseBFS reports every node of the tree to the visitor, level by level, left before right.
func (tree FlatTree) TraverseBFS(visitor TreeVisitor) error {
	if len(tree.TreeNodes) == 0 {
		return errors.New("empty tree")
	}
	var pending queue[levelIndex]
	pending.Push(levelIndex{0, 0})
	visited := 0
	for pending.Len() > 0 {
		current, _ := pending.Pop()
		visited++
		if visited > len(tree.TreeNodes) {
			return errors.Newf("tree visits more than its %d nodes, children links form a cycle", len(tree.TreeNodes))
		}
		node := tree.TreeNodes[current.index]
		if node.IsLeaf() {
			if !visitor.OnLeafVisit(current.level, node.LeafValue) {
				return nil
			}
			continue
		}
		for _, child := range [2]int{node.LeftIndex, node.RightIndex} {
			if child < 0 || child >= len(tree.TreeNodes) {
				return errors.Newf("node %d references child %d outside of the %d tree nodes",
					current.index, child, len(tree.TreeNodes))
			}
		}
		if !visitor.OnSplitVisit(current.level, node.FeatureNumber, node.Threshold) {
			return nil
		}
		pending.Push(levelIndex{node.LeftIndex, current.level + 1})
		pending.Push(levelIndex{node.RightIndex, current.level + 1})
	}
	return nil
}

//PredictRow infers the value of the tree for one row of features. Values below the threshold go left.
func (tree FlatTree) PredictRow(row []float64) (float64, error) {
	if len(tree.TreeNodes) == 0 {
		return 0, errors.New("empty tree")
	}
	ind := 0
	for steps := 0; !tree.TreeNodes[ind].IsLeaf(); steps++ {
		node := tree.TreeNodes[ind]
		if steps >= len(tree.TreeNodes) {
			return 0, errors.New("prediction path is longer than the tree")
		}
		if node.FeatureNumber < 0 || node.FeatureNumber >= len(row) {
			return 0, errors.Newf("feature index %d out of range for a row of %d features", node.FeatureNumber, len(row))
		}
		if row[node.FeatureNumber] < node.Threshold {
			ind = node.LeftIndex
		} else {
			ind = node.RightIndex
		}
		if ind < 0 || ind >= len(tree.TreeNodes) {
			return 0, errors.Newf("node %d references child %d outside of the tree", node.TreeNodeId, ind)
		}
	}
	return tree.TreeNodes[ind].LeafValue, nil
}

//Flatten converts a captured tree into its array form. Nodes are numbered in pre-order.
func (t *Tree) Flatten(group int) (FlatTree, error) {
	if err := t.Validate(); err != nil {
		return FlatTree{}, err
	}
	flat := FlatTree{Group: group, TreeNodes: make([]TreeNode, 0, t.NNodes)}
	type task struct {
		node   Node
		parent int
		slot   int
	}
	stack := []task{{node: t.Root, parent: -1}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		id := len(flat.TreeNodes)
		treeNode := NewTreeNode()
		treeNode.TreeNodeId = id
		switch n := top.node.(type) {
		case *Leaf:
			treeNode.LeafValue = n.Response
		case *Split:
			treeNode.FeatureNumber = n.FeatureIndex
			treeNode.Threshold = n.Threshold
			stack = append(stack, task{n.Right, id, RightSlot}, task{n.Left, id, LeftSlot})
		}
		flat.TreeNodes = append(flat.TreeNodes, treeNode)
		if top.parent >= 0 {
			if top.slot == LeftSlot {
				flat.TreeNodes[top.parent].LeftIndex = id
			} else {
				flat.TreeNodes[top.parent].RightIndex = id
			}
		}
	}
	return flat, nil
}

//Ensemble is a trained tree ensemble. Scores of the trees of one group are summed;
//NGroups is 1 for regression and binary classification.
type Ensemble struct {
	NGroups   int
	BaseScore float64
	Trees     []FlatTree
}

//NumberOfTrees implements TraversableModel.
func (ensemble *Ensemble) NumberOfTrees() int {
	return len(ensemble.Trees)
}

//TraverseBFS implements TraversableModel.
func (ensemble *Ensemble) TraverseBFS(treeIndex int, visitor TreeVisitor) error {
	if treeIndex < 0 || treeIndex >= len(ensemble.Trees) {
		return errors.Newf("tree index %d out of range [0, %d)", treeIndex, len(ensemble.Trees))
	}
	return ensemble.Trees[treeIndex].TraverseBFS(visitor)
}

//TreesPerGroup returns the size of the per-group blocks. Trees of one group must be
//stored contiguously and every group must have the same number of trees.
func (ensemble *Ensemble) TreesPerGroup() (int, error) {
	if ensemble.NGroups <= 0 {
		return 0, errors.Newf("ensemble has %d groups", ensemble.NGroups)
	}
	n := len(ensemble.Trees)
	if n == 0 {
		return 1, nil
	}
	if n%ensemble.NGroups != 0 {
		return 0, errors.Newf("%d trees cannot be split into %d equal groups", n, ensemble.NGroups)
	}
	perGroup := n / ensemble.NGroups
	for i, tree := range ensemble.Trees {
		if want := GroupIndexOf(i, perGroup); tree.Group != want {
			return 0, errors.Newf("tree %d belongs to group %d, expected group %d for contiguous blocks of %d trees",
				i, tree.Group, want, perGroup)
		}
	}
	return perGroup, nil
}

//PredictRaw infers the raw scores of the ensemble: one row per sample, one column per group.
func (ensemble *Ensemble) PredictRaw(features *mat.Dense) (prediction *mat.Dense, err error) {
	if ensemble.NGroups <= 0 {
		return nil, errors.Newf("ensemble has %d groups", ensemble.NGroups)
	}
	h, w := features.Dims()
	if h == 0 {
		return nil, errors.New("no rows to predict")
	}
	prediction = mat.NewDense(h, ensemble.NGroups, nil)
	for p := 0; p < h; p++ {
		for g := 0; g < ensemble.NGroups; g++ {
			prediction.Set(p, g, ensemble.BaseScore)
		}
	}

	for treeInd, tree := range ensemble.Trees {
		if tree.Group < 0 || tree.Group >= ensemble.NGroups {
			return nil, errors.Newf("tree %d belongs to group %d outside of [0, %d)", treeInd, tree.Group, ensemble.NGroups)
		}
	}

	row := make([]float64, w)
	for p := 0; p < h; p++ {
		mat.Row(row, p, features)
		for treeInd, tree := range ensemble.Trees {
			value, err := tree.PredictRow(row)
			if err != nil {
				return nil, errors.Wrapf(err, "tree %d, row %d", treeInd, p)
			}
			prediction.Set(p, tree.Group, prediction.At(p, tree.Group)+value)
		}
	}
	return prediction, nil
}

//PredictClasses returns the most probable class of every row. A single group is a binary
//classifier predicting class 1 for positive raw scores.
func (ensemble *Ensemble) PredictClasses(features *mat.Dense) ([]int, error) {
	raw, err := ensemble.PredictRaw(features)
	if err != nil {
		return nil, err
	}
	h, w := raw.Dims()
	classes := make([]int, h)
	if w == 1 {
		for p := 0; p < h; p++ {
			if raw.At(p, 0) > 0 {
				classes[p] = 1
			}
		}
		return classes, nil
	}

	scores := tensor.New(tensor.WithShape(h, w), tensor.WithBacking(mat.DenseCopyOf(raw).RawMatrix().Data))
	best, err := scores.Argmax(1)
	if err != nil {
		return nil, errors.Wrap(err, "argmax over groups")
	}
	switch data := best.Data().(type) {
	case []int:
		copy(classes, data)
	case int:
		classes[0] = data
	default:
		return nil, errors.AssertionFailedf("unexpected argmax result %T", data)
	}
	return classes, nil
}

//Save writes the ensemble as indented JSON.
func (ensemble *Ensemble) Save(filename string) (err error) {
	dest, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "can't open file %s to write", filename)
	}
	defer func() { err = errors.CombineErrors(err, dest.Close()) }()

	modelByteRepr, err := json.MarshalIndent(ensemble, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding ensemble")
	}
	_, err = dest.Write(modelByteRepr)
	return err
}

//LoadModel reads an ensemble written by Save.
func LoadModel(filename string) (*Ensemble, error) {
	source, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer source.Close()

	ensemble := &Ensemble{}
	if err := json.NewDecoder(source).Decode(ensemble); err != nil {
		return nil, errors.Wrapf(err, "decoding model %s", filename)
	}
	if ensemble.NGroups == 0 {
		ensemble.NGroups = 1
	}
	return ensemble, nil
}
