package gbr

import (
	"github.com/cockroachdb/errors"
)

type treeUnderConstruction struct {
	tree      FlatTree
	nodeCount int
	isSplit   []bool
}

//EnsembleBuilder assembles an Ensemble node by node. It implements ModelBuilder[*Ensemble].
type EnsembleBuilder struct {
	nGroups    int
	baseScore  float64
	nextHandle TreeHandle
	order      []TreeHandle
	trees      map[TreeHandle]*treeUnderConstruction
}

var _ ModelBuilder[*Ensemble] = (*EnsembleBuilder)(nil)

//NewEnsembleBuilder creates a builder for an ensemble with nGroups tree groups.
func NewEnsembleBuilder(nGroups int) *EnsembleBuilder {
	return &EnsembleBuilder{
		nGroups:    nGroups,
		nextHandle: 1,
		trees:      make(map[TreeHandle]*treeUnderConstruction),
	}
}

//SetBaseScore sets the constant added to every group score of the built ensemble.
func (b *EnsembleBuilder) SetBaseScore(baseScore float64) {
	b.baseScore = baseScore
}

//CreateTree implements TreeBuilder.
func (b *EnsembleBuilder) CreateTree(nodeCount, groupIndex int) (TreeHandle, error) {
	if nodeCount <= 0 {
		return 0, errors.Newf("tree must have at least one node, got %d", nodeCount)
	}
	if groupIndex < 0 || groupIndex >= b.nGroups {
		return 0, errors.Newf("group index %d out of range [0, %d)", groupIndex, b.nGroups)
	}
	handle := b.nextHandle
	b.nextHandle++
	b.trees[handle] = &treeUnderConstruction{
		tree:      FlatTree{Group: groupIndex, TreeNodes: make([]TreeNode, 0, nodeCount)},
		nodeCount: nodeCount,
		isSplit:   make([]bool, 0, nodeCount),
	}
	b.order = append(b.order, handle)
	return handle, nil
}

//AddSplitNode implements TreeBuilder.
func (b *EnsembleBuilder) AddSplitNode(tree TreeHandle, parent NodeID, slot int, featureIndex int, threshold float64) (NodeID, error) {
	if featureIndex < 0 {
		return 0, errors.Newf("negative feature index %d", featureIndex)
	}
	node := NewTreeNode()
	node.FeatureNumber = featureIndex
	node.Threshold = threshold
	return b.addNode(tree, parent, slot, node, true)
}

//AddLeafNode implements TreeBuilder.
func (b *EnsembleBuilder) AddLeafNode(tree TreeHandle, parent NodeID, slot int, response float64) (NodeID, error) {
	node := NewTreeNode()
	node.LeafValue = response
	return b.addNode(tree, parent, slot, node, false)
}

func (b *EnsembleBuilder) addNode(handle TreeHandle, parent NodeID, slot int, node TreeNode, isSplit bool) (NodeID, error) {
	t, ok := b.trees[handle]
	if !ok {
		return 0, errors.Newf("unknown tree handle %d", handle)
	}
	nodes := t.tree.TreeNodes
	if len(nodes) == t.nodeCount {
		return 0, errors.Newf("tree %d already holds the %d nodes it was created with", handle, t.nodeCount)
	}
	if slot != LeftSlot && slot != RightSlot {
		return 0, errors.Newf("slot %d is neither left nor right", slot)
	}

	id := NodeID(len(nodes))
	if parent == NoParent {
		if len(nodes) > 0 {
			return 0, errors.Newf("tree %d already has a root", handle)
		}
		if slot != LeftSlot {
			return 0, errors.Newf("root must use slot %d, got %d", LeftSlot, slot)
		}
	} else {
		if parent < 0 || int(parent) >= len(nodes) {
			return 0, errors.Newf("parent %d was not added to tree %d", parent, handle)
		}
		if !t.isSplit[parent] {
			return 0, errors.Newf("parent %d of tree %d is a leaf", parent, handle)
		}
		p := &nodes[parent]
		childIndex := &p.LeftIndex
		if slot == RightSlot {
			childIndex = &p.RightIndex
		}
		if *childIndex != -1 {
			return 0, errors.Newf("slot %d of parent %d in tree %d is already taken by node %d", slot, parent, handle, *childIndex)
		}
		*childIndex = int(id)
	}

	node.TreeNodeId = int(id)
	t.tree.TreeNodes = append(nodes, node)
	t.isSplit = append(t.isSplit, isSplit)
	return id, nil
}

//Model implements ModelBuilder. Every tree must be complete.
func (b *EnsembleBuilder) Model() (*Ensemble, error) {
	ensemble := &Ensemble{NGroups: b.nGroups, BaseScore: b.baseScore, Trees: make([]FlatTree, 0, len(b.order))}
	for i, handle := range b.order {
		t := b.trees[handle]
		if len(t.tree.TreeNodes) != t.nodeCount {
			return nil, structuralErrorf("tree %d has %d of its %d nodes", i, len(t.tree.TreeNodes), t.nodeCount)
		}
		for id, node := range t.tree.TreeNodes {
			if t.isSplit[id] && (node.LeftIndex == -1 || node.RightIndex == -1) {
				return nil, structuralErrorf("tree %d: split node %d is missing a child", i, id)
			}
		}
		ensemble.Trees = append(ensemble.Trees, t.tree)
	}
	return ensemble, nil
}
