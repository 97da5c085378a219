package gbr

import (
	"context"

	"github.com/cockroachdb/errors"
)

//TreeVisitor receives the nodes of a tree in breadth-first order. Returning false
//asks the traversal to stop.
type TreeVisitor interface {
	OnLeafVisit(level int, response float64) bool
	OnSplitVisit(level int, featureIndex int, threshold float64) bool
}

//TraversableModel is a trained model able to walk its trees level by level.
type TraversableModel interface {
	NumberOfTrees() int
	TraverseBFS(treeIndex int, visitor TreeVisitor) error
}

type pendingParent struct {
	split *Split
	level int
}

//TreeCapture rebuilds explicit trees from a breadth-first stream of node visits,
//tree after tree. Each split waits in a FIFO until both of its children arrived.
type TreeCapture struct {
	trees            []*Tree
	started          int
	pending          queue[pendingParent]
	permissiveLevels bool
	logger           Logger
	err              error
}

//CaptureOption configures a TreeCapture.
type CaptureOption func(*TreeCapture)

//WithPermissiveLevels disables the check that every child sits exactly one level below
//its parent. Remaining protocol checks stay active.
func WithPermissiveLevels() CaptureOption {
	return func(c *TreeCapture) { c.permissiveLevels = true }
}

//WithCaptureLogger sets the logger used by CaptureModel.
func WithCaptureLogger(logger Logger) CaptureOption {
	return func(c *TreeCapture) { c.logger = logger }
}

//NewTreeCapture creates a capture expecting exactly nTrees trees.
func NewTreeCapture(nTrees int, opts ...CaptureOption) *TreeCapture {
	if nTrees < 0 {
		nTrees = 0
	}
	c := &TreeCapture{trees: make([]*Tree, nTrees), logger: NoopLogger{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

//OnLeafVisit implements TreeVisitor.
func (c *TreeCapture) OnLeafVisit(level int, response float64) bool {
	if c.err != nil {
		return false
	}
	leaf := &Leaf{Response: response}
	if level == 0 {
		return c.startTree(leaf, "leaf")
	}
	return c.attach(level, leaf, "leaf")
}

//OnSplitVisit implements TreeVisitor.
func (c *TreeCapture) OnSplitVisit(level int, featureIndex int, threshold float64) bool {
	if c.err != nil {
		return false
	}
	if featureIndex < 0 {
		treeIndex := c.currentIndex()
		if level == 0 {
			treeIndex = c.started
		}
		return c.fail(protocolErrorf("tree %d: split at level %d has negative feature index %d",
			treeIndex, level, featureIndex))
	}
	split := &Split{FeatureIndex: featureIndex, Threshold: threshold}
	if level == 0 {
		return c.startTree(split, "split")
	}
	return c.attach(level, split, "split")
}

func (c *TreeCapture) currentIndex() int {
	return c.started - 1
}

func (c *TreeCapture) fail(err error) bool {
	c.err = err
	return false
}

func (c *TreeCapture) startTree(root Node, kind string) bool {
	if n := c.pending.Len(); n > 0 {
		return c.fail(protocolErrorf("tree %d: %s root arrived while tree %d still has %d split nodes waiting for children",
			c.started, kind, c.currentIndex(), n))
	}
	if c.started == len(c.trees) {
		return c.fail(protocolErrorf("tree %d: %s root arrived but only %d trees were expected",
			c.started, kind, len(c.trees)))
	}
	c.trees[c.started] = &Tree{Root: root, NNodes: 1}
	c.started++
	if split, ok := root.(*Split); ok {
		c.pending.Push(pendingParent{split: split, level: 0})
	}
	return true
}

func (c *TreeCapture) attach(level int, node Node, kind string) bool {
	if c.started == 0 {
		return c.fail(protocolErrorf("%s at level %d arrived before any root", kind, level))
	}
	if level < 0 {
		return c.fail(protocolErrorf("tree %d: %s has negative level %d", c.currentIndex(), kind, level))
	}
	parent, ok := c.pending.Front()
	if !ok {
		return c.fail(protocolErrorf("tree %d: %s at level %d has no split node waiting for a child",
			c.currentIndex(), kind, level))
	}
	if !c.permissiveLevels && level != parent.level+1 {
		return c.fail(protocolErrorf("tree %d: %s at level %d cannot be a child of the pending split at level %d",
			c.currentIndex(), kind, level, parent.level))
	}
	c.trees[c.currentIndex()].NNodes++
	if parent.split.Left == nil {
		parent.split.Left = node
	} else {
		parent.split.Right = node
		c.pending.Pop()
	}
	if split, ok := node.(*Split); ok {
		c.pending.Push(pendingParent{split: split, level: level})
	}
	return true
}

//Err returns the first protocol violation seen, if any.
func (c *TreeCapture) Err() error {
	return c.err
}

//Trees finishes the capture and returns one validated tree per expected tree.
func (c *TreeCapture) Trees() ([]*Tree, error) {
	if c.err != nil {
		return nil, c.err
	}
	if n := c.pending.Len(); n > 0 {
		return nil, protocolErrorf("tree %d is incomplete: %d split nodes are waiting for children",
			c.currentIndex(), n)
	}
	if c.started != len(c.trees) {
		return nil, protocolErrorf("captured %d trees, expected %d", c.started, len(c.trees))
	}
	for i, tree := range c.trees {
		if err := tree.Validate(); err != nil {
			return nil, errors.Wrapf(err, "tree %d", i)
		}
	}
	return c.trees, nil
}

//CaptureModel traverses every tree of the model and returns the captured trees.
func CaptureModel(ctx context.Context, model TraversableModel, opts ...CaptureOption) ([]*Tree, error) {
	nTrees := model.NumberOfTrees()
	c := NewTreeCapture(nTrees, opts...)
	for i := 0; i < nTrees; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := model.TraverseBFS(i, c); err != nil {
			if c.err != nil {
				return nil, c.err
			}
			return nil, errors.Wrapf(err, "traversing tree %d", i)
		}
		if c.err != nil {
			return nil, c.err
		}
		if c.started != i+1 {
			return nil, protocolErrorf("traversal of tree %d produced %d roots", i, c.started-i)
		}
		if n := c.pending.Len(); n > 0 {
			return nil, protocolErrorf("tree %d is incomplete: %d split nodes are waiting for children", i, n)
		}
		c.logger.Infof("captured tree %d: %d nodes", i, c.trees[i].NNodes)
	}
	return c.Trees()
}
