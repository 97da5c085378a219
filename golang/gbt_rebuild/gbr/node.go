package gbr

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

//Node is a node of a captured tree. It is either a *Leaf or a *Split.
type Node interface {
	isNode()
}

//Leaf is a terminal node carrying the prediction of the tree for samples reaching it.
type Leaf struct {
	Response float64
}

//Split is an internal node. Samples with feature FeatureIndex below Threshold go to Left,
//the rest go to Right. Both children are owned by the split.
type Split struct {
	FeatureIndex int
	Threshold    float64
	Left, Right  Node
}

func (*Leaf) isNode()  {}
func (*Split) isNode() {}

//complete reports whether both children of the split are set.
func (s *Split) complete() bool {
	return s.Left != nil && s.Right != nil
}

//Tree is one captured tree: its root and the number of nodes visited while capturing it.
type Tree struct {
	Root   Node
	NNodes int
}

type pathNode struct {
	node Node
	path string
}

//walk visits nodes in pre-order (parent, left subtree, right subtree). The walk stops
//when fn returns false. Missing children of a split are passed to fn as nil.
func (t *Tree) walk(fn func(n Node, path string, depth int) bool) {
	type item struct {
		pathNode
		depth int
	}
	stack := []item{{pathNode{t.Root, "root"}, 0}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(top.node, top.path, top.depth) {
			return
		}
		if split, ok := top.node.(*Split); ok {
			stack = append(stack,
				item{pathNode{split.Right, top.path + ".R"}, top.depth + 1},
				item{pathNode{split.Left, top.path + ".L"}, top.depth + 1},
			)
		}
	}
}

//CountNodes returns the number of nodes reachable from the root.
func (t *Tree) CountNodes() int {
	count := 0
	t.walk(func(n Node, _ string, _ int) bool {
		if n != nil {
			count++
		}
		return true
	})
	return count
}

//Depth returns the level of the deepest node; a single leaf has depth 0.
func (t *Tree) Depth() int {
	maxDepth := 0
	t.walk(func(n Node, _ string, depth int) bool {
		if n != nil && depth > maxDepth {
			maxDepth = depth
		}
		return true
	})
	return maxDepth
}

//Validate checks that the tree is a complete binary tree and that NNodes matches
//the number of reachable nodes.
func (t *Tree) Validate() error {
	if t == nil || t.Root == nil {
		return structuralErrorf("tree has no root")
	}
	var err error
	t.walk(func(n Node, path string, _ int) bool {
		switch n := n.(type) {
		case nil:
			err = structuralErrorf("node %s is missing", path)
		case *Split:
			if n.Left == nil && n.Right == nil {
				err = structuralErrorf("split node %s has no children", path)
			} else if !n.complete() {
				err = structuralErrorf("split node %s has exactly one child", path)
			} else if n.FeatureIndex < 0 {
				err = structuralErrorf("split node %s has negative feature index %d", path, n.FeatureIndex)
			}
		}
		return err == nil
	})
	if err != nil {
		return err
	}
	if count := t.CountNodes(); count != t.NNodes {
		return structuralErrorf("tree declares %d nodes but %d are reachable", t.NNodes, count)
	}
	return nil
}

//PredictRow returns the response of the leaf the row falls into.
func (t *Tree) PredictRow(row []float64) (float64, error) {
	node := t.Root
	for {
		switch n := node.(type) {
		case *Leaf:
			return n.Response, nil
		case *Split:
			if n.FeatureIndex >= len(row) {
				return 0, errors.Newf("feature index %d out of range for a row of %d features", n.FeatureIndex, len(row))
			}
			if row[n.FeatureIndex] < n.Threshold {
				node = n.Left
			} else {
				node = n.Right
			}
		default:
			return 0, structuralErrorf("prediction reached a missing node")
		}
	}
}

//String renders the tree one node per line, children indented under their parent.
func (t *Tree) String() string {
	var sb strings.Builder
	t.walk(func(n Node, _ string, depth int) bool {
		sb.WriteString(strings.Repeat("  ", depth))
		switch n := n.(type) {
		case *Leaf:
			fmt.Fprintf(&sb, "leaf %g\n", n.Response)
		case *Split:
			fmt.Fprintf(&sb, "split f%d < %g\n", n.FeatureIndex, n.Threshold)
		default:
			sb.WriteString("<missing>\n")
		}
		return true
	})
	return sb.String()
}
