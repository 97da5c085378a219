package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tarstars/traversed_model_builder/golang/gbt_rebuild/gbr"
	"gonum.org/v1/gonum/mat"
)

func sourceModel() *gbr.Ensemble {
	leaf := func(id int, value float64) gbr.TreeNode {
		return gbr.TreeNode{TreeNodeId: id, LeftIndex: -1, RightIndex: -1, LeafValue: value}
	}
	return &gbr.Ensemble{
		NGroups: 2,
		Trees: []gbr.FlatTree{
			{Group: 0, TreeNodes: []gbr.TreeNode{
				{TreeNodeId: 0, FeatureNumber: 0, Threshold: 0.5, LeftIndex: 1, RightIndex: 2},
				leaf(1, 1), leaf(2, -1),
			}},
			{Group: 1, TreeNodes: []gbr.TreeNode{
				{TreeNodeId: 0, FeatureNumber: 1, Threshold: 0.5, LeftIndex: 1, RightIndex: 2},
				leaf(1, -1), leaf(2, 1),
			}},
		},
	}
}

func TestRunRebuildAndPredict(t *testing.T) {
	dir := t.TempDir()
	sourceFile := filepath.Join(dir, "source.json")
	require.NoError(t, sourceModel().Save(sourceFile))

	featuresFile := filepath.Join(dir, "features.npy")
	require.NoError(t, gbr.WriteNpy(featuresFile, mat.NewDense(2, 2, []float64{
		0.1, 0.1,
		0.9, 0.9,
	})))
	targetFile := filepath.Join(dir, "target.npy")
	require.NoError(t, gbr.WriteNpy(targetFile, mat.NewDense(2, 1, []float64{0, 1})))

	config := RebuildConfig{
		FileNameSource:   sourceFile,
		FileNameModel:    filepath.Join(dir, "rebuilt.json"),
		FileNameFeatures: featuresFile,
		FileNameTarget:   targetFile,
	}
	require.NoError(t, runRebuild(context.Background(), config, gbr.NoopLogger{}))

	rebuilt, err := gbr.LoadModel(config.FileNameModel)
	require.NoError(t, err)
	require.Equal(t, sourceModel(), rebuilt)

	predictionFile := filepath.Join(dir, "prediction.npy")
	require.NoError(t, runPredict(PredictConfig{
		ModelFileName:      config.FileNameModel,
		DataFileName:       featuresFile,
		PredictionFileName: predictionFile,
		Classes:            true,
	}))
	prediction, err := gbr.ReadNpy(predictionFile)
	require.NoError(t, err)
	require.Equal(t, []float64{0, 1}, mat.Col(nil, 0, prediction))
}

func TestDecodeConfig(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "config.json")
	raw, err := json.Marshal(map[string]interface{}{
		"filename_source":   "xgb.json",
		"source_format":     "xgboost",
		"filename_model":    "out.json",
		"permissive_levels": true,
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filename, raw, 0o644))

	var config RebuildConfig
	require.NoError(t, decodeConfig(filename, &config))
	require.Equal(t, RebuildConfig{
		FileNameSource:   "xgb.json",
		SourceFormat:     "xgboost",
		FileNameModel:    "out.json",
		PermissiveLevels: true,
	}, config)

	require.NoError(t, os.WriteFile(filename, []byte(`{"unknown_field": 1}`), 0o644))
	require.Error(t, decodeConfig(filename, &config))

	_, err = loadSource("model.bin", "protobuf")
	require.EqualError(t, err, `unknown source format "protobuf", expected "ensemble" or "xgboost"`)
}
