package gbr

import (
	"fmt"
	"path"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
)

//GraphDescription returns the description of a tree node for tree rendering as a graph
func (node TreeNode) GraphDescription() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintln("id: ", node.TreeNodeId))
	if node.IsLeaf() {
		sb.WriteString(fmt.Sprintf("%6.5f", node.LeafValue))
	} else {
		sb.WriteString(fmt.Sprintf("f_%d < %6.5f", node.FeatureNumber, node.Threshold))
	}
	return sb.String()
}

func recurrentDraw(g *cgraph.Graph, tree FlatTree, nodeNumber int, parentNode *cgraph.Node, depth int) error {
	if depth > len(tree.TreeNodes) {
		return errors.New("children links form a cycle")
	}
	treeNode := tree.TreeNodes[nodeNumber]
	currentNode, err := g.CreateNode(fmt.Sprint(treeNode.TreeNodeId))
	if err != nil {
		return err
	}

	if parentNode != nil {
		if _, err := g.CreateEdge("", parentNode, currentNode); err != nil {
			return err
		}
	}

	currentNode.Set("label", treeNode.GraphDescription())
	if treeNode.IsLeaf() {
		currentNode.Set("shape", "box")
		return nil
	}
	for _, child := range [2]int{treeNode.LeftIndex, treeNode.RightIndex} {
		if child < 0 || child >= len(tree.TreeNodes) {
			return errors.Newf("node %d references child %d outside of the %d tree nodes",
				nodeNumber, child, len(tree.TreeNodes))
		}
	}
	if err := recurrentDraw(g, tree, treeNode.LeftIndex, currentNode, depth+1); err != nil {
		return err
	}
	return recurrentDraw(g, tree, treeNode.RightIndex, currentNode, depth+1)
}

//DrawGraph builds a graphviz graph of the tree. The caller closes both returned values.
func (tree FlatTree) DrawGraph() (*graphviz.Graphviz, *cgraph.Graph, error) {
	if len(tree.TreeNodes) == 0 {
		return nil, nil, errors.New("empty tree")
	}
	graphViz := graphviz.New()
	graph, err := graphViz.Graph()
	if err != nil {
		_ = graphViz.Close()
		return nil, nil, err
	}

	if err := recurrentDraw(graph, tree, 0, nil, 0); err != nil {
		_ = graph.Close()
		_ = graphViz.Close()
		return nil, nil, err
	}
	return graphViz, graph, nil
}

var graphvizType = map[string]graphviz.Format{
	"png": graphviz.PNG,
	"svg": graphviz.SVG,
	"jpg": graphviz.JPG,
	"dot": graphviz.XDOT,
}

//RenderTrees renders every tree of the ensemble into picturesDirectory as
//<dumpPrefix>_<tree number>.<figureType>.
func (ensemble *Ensemble) RenderTrees(dumpPrefix, figureType, picturesDirectory string) error {
	format, ok := graphvizType[figureType]
	if !ok {
		return errors.Newf("unknown figure type %q", figureType)
	}

	for graphInd, currentTree := range ensemble.Trees {
		filename := fmt.Sprintf("%s_%05d.%s", dumpPrefix, graphInd, figureType)
		graphViz, graph, err := currentTree.DrawGraph()
		if err != nil {
			return errors.Wrapf(err, "drawing tree %d", graphInd)
		}
		err = graphViz.RenderFilename(graph, format, path.Join(picturesDirectory, filename))
		_ = graph.Close()
		_ = graphViz.Close()
		if err != nil {
			return errors.Wrapf(err, "rendering tree %d", graphInd)
		}
	}
	return nil
}
