package gbr

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestPredictRaw(t *testing.T) {
	ensemble := stumpEnsemble()
	ensemble.BaseScore = 10
	features := mat.NewDense(3, 1, []float64{0.1, 0.5, 0.9})
	prediction, err := ensemble.PredictRaw(features)
	require.NoError(t, err)
	require.Equal(t, []float64{11, 12, 12}, mat.Col(nil, 0, prediction))

	_, err = ensemble.PredictRaw(mat.NewDense(1, 1, []float64{0}))
	require.NoError(t, err)

	wide := &Ensemble{NGroups: 1, Trees: []FlatTree{{TreeNodes: []TreeNode{
		{FeatureNumber: 3, LeftIndex: 1, RightIndex: 2},
		{LeftIndex: -1, RightIndex: -1},
		{LeftIndex: -1, RightIndex: -1},
	}}}}
	_, err = wide.PredictRaw(features)
	require.EqualError(t, err, "tree 0, row 0: feature index 3 out of range for a row of 1 features")

	twice := stumpEnsemble()
	twice.Trees = append(twice.Trees, twice.Trees[0])
	prediction, err = twice.PredictRaw(features)
	require.NoError(t, err)
	require.Equal(t, []float64{2, 4, 4}, mat.Col(nil, 0, prediction))

	twice.Trees[1].Group = 3
	_, err = twice.PredictRaw(features)
	require.EqualError(t, err, "tree 1 belongs to group 3 outside of [0, 1)")
}

func TestPredictClasses(t *testing.T) {
	binary := stumpEnsemble()
	binary.BaseScore = -1.5
	features := mat.NewDense(2, 1, []float64{0.1, 0.9})
	classes, err := binary.PredictClasses(features)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1}, classes)

	leaf := func(group int, value float64) FlatTree {
		return FlatTree{Group: group, TreeNodes: []TreeNode{{LeftIndex: -1, RightIndex: -1, LeafValue: value}}}
	}
	stump := stumpEnsemble().Trees[0]
	stump.Group = 2
	multi := &Ensemble{NGroups: 3, Trees: []FlatTree{leaf(0, 1.5), leaf(1, 0.5), stump}}
	classes, err = multi.PredictClasses(features)
	require.NoError(t, err)
	require.Equal(t, []int{0, 2}, classes)

	classes, err = multi.PredictClasses(mat.NewDense(1, 1, []float64{0.9}))
	require.NoError(t, err)
	require.Equal(t, []int{2}, classes)
}

func TestTreesPerGroup(t *testing.T) {
	e := &Ensemble{NGroups: 2, Trees: []FlatTree{{Group: 0}, {Group: 0}, {Group: 1}, {Group: 1}}}
	perGroup, err := e.TreesPerGroup()
	require.NoError(t, err)
	require.Equal(t, 2, perGroup)

	e.Trees = e.Trees[:3]
	_, err = e.TreesPerGroup()
	require.EqualError(t, err, "3 trees cannot be split into 2 equal groups")

	_, err = (&Ensemble{}).TreesPerGroup()
	require.EqualError(t, err, "ensemble has 0 groups")
}

func TestSaveLoadModel(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "model.json")
	ensemble := stumpEnsemble()
	ensemble.BaseScore = 0.25
	require.NoError(t, ensemble.Save(filename))

	loaded, err := LoadModel(filename)
	require.NoError(t, err)
	require.Equal(t, ensemble, loaded)

	_, err = LoadModel(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestCapturedTreeHelpers(t *testing.T) {
	tree := &Tree{
		Root: &Split{FeatureIndex: 0, Threshold: 0.5,
			Left:  &Leaf{Response: 1},
			Right: &Split{FeatureIndex: 1, Threshold: 2, Left: &Leaf{Response: 2}, Right: &Leaf{Response: 3}},
		},
		NNodes: 5,
	}
	require.NoError(t, tree.Validate())
	require.Equal(t, 2, tree.Depth())
	require.Equal(t, 5, tree.CountNodes())
	require.Equal(t, "split f0 < 0.5\n  leaf 1\n  split f1 < 2\n    leaf 2\n    leaf 3\n", tree.String())

	for _, tc := range []struct {
		row  []float64
		want float64
	}{
		{[]float64{0.1, 5}, 1},
		{[]float64{0.7, 1}, 2},
		{[]float64{0.7, 2}, 3},
	} {
		got, err := tree.PredictRow(tc.row)
		require.NoError(t, err)
		require.Equal(t, tc.want, got)

		flat, err := tree.Flatten(0)
		require.NoError(t, err)
		got, err = flat.PredictRow(tc.row)
		require.NoError(t, err)
		require.Equal(t, tc.want, got)
	}
}
