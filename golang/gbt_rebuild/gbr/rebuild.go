package gbr

import (
	"github.com/cockroachdb/errors"
)

//NodeID identifies a node inside one tree under construction.
type NodeID int

//TreeHandle identifies a tree under construction in a ModelBuilder.
type TreeHandle int

//NoParent is passed as the parent of a root node.
const NoParent NodeID = -1

//Slots of a split node.
const (
	LeftSlot  = 0
	RightSlot = 1
)

//TreeBuilder accepts trees node by node. A node can only reference a parent whose
//id was already returned.
type TreeBuilder interface {
	CreateTree(nodeCount, groupIndex int) (TreeHandle, error)
	AddSplitNode(tree TreeHandle, parent NodeID, slot int, featureIndex int, threshold float64) (NodeID, error)
	AddLeafNode(tree TreeHandle, parent NodeID, slot int, response float64) (NodeID, error)
}

//ModelBuilder is a TreeBuilder that finalizes everything it received into a model.
type ModelBuilder[M any] interface {
	TreeBuilder
	Model() (M, error)
}

//ParentSlot addresses the child slot of an already emitted node.
type ParentSlot struct {
	ParentID NodeID
	Slot     int
}

var rootSlot = ParentSlot{ParentID: NoParent, Slot: LeftSlot}

//GroupIndexOf returns the group of tree i when groups are contiguous blocks of treesPerGroup trees.
func GroupIndexOf(i, treesPerGroup int) int {
	return i / treesPerGroup
}

//Rebuild validates every tree and then emits them one after another into builder.
//Tree i is created in group i/treesPerGroup.
func Rebuild(trees []*Tree, treesPerGroup int, builder TreeBuilder) error {
	if treesPerGroup <= 0 {
		return errors.Newf("trees per group must be positive, got %d", treesPerGroup)
	}
	for i, tree := range trees {
		if err := tree.Validate(); err != nil {
			return errors.Wrapf(err, "tree %d", i)
		}
	}
	for i, tree := range trees {
		handle, err := builder.CreateTree(tree.NNodes, GroupIndexOf(i, treesPerGroup))
		if err != nil {
			return errors.Wrapf(err, "creating tree %d", i)
		}
		if err := emitTree(builder, handle, tree.Root); err != nil {
			return errors.Wrapf(err, "tree %d", i)
		}
	}
	return nil
}

//RebuildModel rebuilds the trees and returns the finished model.
func RebuildModel[M any](trees []*Tree, treesPerGroup int, builder ModelBuilder[M]) (model M, err error) {
	if err = Rebuild(trees, treesPerGroup, builder); err != nil {
		return model, err
	}
	return builder.Model()
}

type emitTask struct {
	node Node
	slot ParentSlot
}

//emitTree emits the subtree in pre-order. The right child is pushed before the left one
//so the left subtree is emitted first.
func emitTree(builder TreeBuilder, handle TreeHandle, root Node) error {
	stack := []emitTask{{node: root, slot: rootSlot}}
	for len(stack) > 0 {
		task := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch n := task.node.(type) {
		case *Split:
			id, err := builder.AddSplitNode(handle, task.slot.ParentID, task.slot.Slot, n.FeatureIndex, n.Threshold)
			if err != nil {
				return errors.Wrapf(err, "adding split node under parent %d slot %d", task.slot.ParentID, task.slot.Slot)
			}
			stack = append(stack,
				emitTask{node: n.Right, slot: ParentSlot{ParentID: id, Slot: RightSlot}},
				emitTask{node: n.Left, slot: ParentSlot{ParentID: id, Slot: LeftSlot}},
			)
		case *Leaf:
			if _, err := builder.AddLeafNode(handle, task.slot.ParentID, task.slot.Slot, n.Response); err != nil {
				return errors.Wrapf(err, "adding leaf node under parent %d slot %d", task.slot.ParentID, task.slot.Slot)
			}
		default:
			return errors.AssertionFailedf("missing node under parent %d slot %d", task.slot.ParentID, task.slot.Slot)
		}
	}
	return nil
}
