package main

import (
	"encoding/json"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/tarstars/traversed_model_builder/golang/gbt_rebuild/gbr"
)

//RebuildConfig describes a capture and rebuild run.
type RebuildConfig struct {
	FileNameSource   string `json:"filename_source"`
	SourceFormat     string `json:"source_format"`
	FileNameModel    string `json:"filename_model"`
	FileNameFeatures string `json:"filename_features"`
	FileNameTarget   string `json:"filename_target"`
	Task             string `json:"task"`
	PermissiveLevels bool   `json:"permissive_levels"`
}

type PredictConfig struct {
	ModelFileName      string `json:"filename_model"`
	DataFileName       string `json:"filename_features"`
	PredictionFileName string `json:"filename_prediction"`
	Classes            bool   `json:"classes"`
}

type GraphConfig struct {
	ModelFileName     string `json:"filename_model"`
	FigureType        string `json:"figure_type"`
	PicturesDirectory string `json:"pictures_directory"`
	DumpPrefix        string `json:"dump_prefix"`
}

func decodeConfig(srcConfig string, out interface{}) (err error) {
	file, err := os.Open(srcConfig)
	if err != nil {
		return err
	}
	defer func() { err = errors.CombineErrors(err, file.Close()) }()

	decoder := json.NewDecoder(file)
	decoder.DisallowUnknownFields()
	return errors.Wrapf(decoder.Decode(out), "decoding config %s", srcConfig)
}

//loadSource reads either a saved ensemble or an XGBoost JSON model.
func loadSource(filename, format string) (*gbr.Ensemble, error) {
	switch format {
	case "", "ensemble":
		return gbr.LoadModel(filename)
	case "xgboost":
		f, err := os.Open(filename)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return gbr.LoadXGBoostJSON(f)
	default:
		return nil, errors.Newf("unknown source format %q, expected \"ensemble\" or \"xgboost\"", format)
	}
}
