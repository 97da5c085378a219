package gbr

import (
	"encoding/json"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/cockroachdb/errors"
)

type xgbModel struct {
	Learner struct {
		Attributes struct {
			BestIteration json.Number `json:"best_iteration"`
		} `json:"attributes"`
		GradientBooster struct {
			Model struct {
				TreeInfo []int     `json:"tree_info"`
				Trees    []xgbTree `json:"trees"`
			} `json:"model"`
		} `json:"gradient_booster"`
		Objective struct {
			Name string `json:"name"`
		} `json:"objective"`
		ModelParams struct {
			BaseScore  string      `json:"base_score"`
			NumClass   json.Number `json:"num_class"`
			NumFeature json.Number `json:"num_feature"`
		} `json:"learner_model_param"`
	} `json:"learner"`
}

type xgbTree struct {
	LeftChildren    []int     `json:"left_children"`
	RightChildren   []int     `json:"right_children"`
	SplitConditions []float64 `json:"split_conditions"`
	SplitIndices    []int     `json:"split_indices"`
	TreeParam       struct {
		NumNodes json.Number `json:"num_nodes"`
	} `json:"tree_param"`
}

//logisticObjectives store base_score as a probability; the margin is its logit.
var logisticObjectives = map[string]bool{
	"binary:logistic": true,
	"binary:logitraw": true,
	"reg:logistic":    true,
}

//baseMargin converts base_score into the offset added to the summed tree outputs.
func baseMargin(objective string, baseScore float64) (float64, error) {
	if !logisticObjectives[objective] {
		return baseScore, nil
	}
	if baseScore <= 0 || baseScore >= 1 {
		return 0, errors.Newf("base_score %g of objective %s is not a probability in (0, 1)", baseScore, objective)
	}
	return math.Log(baseScore / (1 - baseScore)), nil
}

func (xt xgbTree) flatten(group int) (FlatTree, error) {
	numNodes, err := xt.TreeParam.NumNodes.Int64()
	if err != nil {
		return FlatTree{}, errors.Wrap(err, "parsing num_nodes")
	}
	n := int(numNodes)
	for _, l := range []int{len(xt.LeftChildren), len(xt.RightChildren), len(xt.SplitConditions), len(xt.SplitIndices)} {
		if l != n {
			return FlatTree{}, errors.Newf("tree declares %d nodes but a node array has %d entries", n, l)
		}
	}
	tree := FlatTree{Group: group, TreeNodes: make([]TreeNode, n)}
	for i := 0; i < n; i++ {
		node := NewTreeNode()
		node.TreeNodeId = i
		if xt.LeftChildren[i] == -1 {
			node.LeafValue = xt.SplitConditions[i]
		} else {
			node.FeatureNumber = xt.SplitIndices[i]
			node.Threshold = xt.SplitConditions[i]
			node.LeftIndex = xt.LeftChildren[i]
			node.RightIndex = xt.RightChildren[i]
		}
		tree.TreeNodes[i] = node
	}
	return tree, nil
}

//LoadXGBoostJSON reads a model saved by XGBoost in its JSON format. Trees are regrouped into
//contiguous per-class blocks; missing-value routing is not kept. BaseScore holds the margin,
//so logistic objectives get the logit of base_score.
func LoadXGBoostJSON(r io.Reader) (*Ensemble, error) {
	var x xgbModel
	if err := json.NewDecoder(r).Decode(&x); err != nil {
		return nil, errors.Wrap(err, "decoding XGBoost JSON")
	}

	nGroups := 1
	if x.Learner.ModelParams.NumClass != "" {
		numClass, err := x.Learner.ModelParams.NumClass.Int64()
		if err != nil {
			return nil, errors.Wrap(err, "parsing num_class")
		}
		if numClass > 1 {
			nGroups = int(numClass)
		}
	}

	ensemble := &Ensemble{NGroups: nGroups}
	if x.Learner.ModelParams.BaseScore != "" {
		baseScore, err := strconv.ParseFloat(x.Learner.ModelParams.BaseScore, 64)
		if err != nil {
			return nil, errors.Wrap(err, "parsing base_score")
		}
		if ensemble.BaseScore, err = baseMargin(x.Learner.Objective.Name, baseScore); err != nil {
			return nil, err
		}
	}

	model := x.Learner.GradientBooster.Model
	if len(model.TreeInfo) != len(model.Trees) {
		return nil, errors.Newf("tree_info has %d entries for %d trees", len(model.TreeInfo), len(model.Trees))
	}
	trees := model.Trees
	if x.Learner.Attributes.BestIteration != "" {
		bestIteration, err := x.Learner.Attributes.BestIteration.Int64()
		if err != nil {
			return nil, errors.Wrap(err, "parsing best_iteration")
		}
		if keep := (int(bestIteration) + 1) * nGroups; keep < len(trees) {
			trees = trees[:keep]
		}
	}

	for i, xt := range trees {
		group := model.TreeInfo[i]
		if group < 0 || group >= nGroups {
			return nil, errors.Newf("tree %d belongs to class %d outside of [0, %d)", i, group, nGroups)
		}
		tree, err := xt.flatten(group)
		if err != nil {
			return nil, errors.Wrapf(err, "tree %d", i)
		}
		ensemble.Trees = append(ensemble.Trees, tree)
	}
	sort.SliceStable(ensemble.Trees, func(i, j int) bool {
		return ensemble.Trees[i].Group < ensemble.Trees[j].Group
	})
	if _, err := ensemble.TreesPerGroup(); err != nil {
		return nil, err
	}
	return ensemble, nil
}
