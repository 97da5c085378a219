package main

import (
	"github.com/spf13/cobra"
	"github.com/tarstars/traversed_model_builder/golang/gbt_rebuild/gbr"
	"gonum.org/v1/gonum/mat"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "predict raw scores or classes with a saved model",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var predictConfig PredictConfig
		if err := decodeConfig(configFile, &predictConfig); err != nil {
			return err
		}
		return runPredict(predictConfig)
	},
}

func runPredict(predictConfig PredictConfig) error {
	features, err := gbr.ReadNpy(predictConfig.DataFileName)
	if err != nil {
		return err
	}
	clf, err := gbr.LoadModel(predictConfig.ModelFileName)
	if err != nil {
		return err
	}

	var prediction *mat.Dense
	if predictConfig.Classes {
		classes, err := clf.PredictClasses(features)
		if err != nil {
			return err
		}
		prediction = mat.NewDense(len(classes), 1, nil)
		for p, class := range classes {
			prediction.Set(p, 0, float64(class))
		}
	} else if prediction, err = clf.PredictRaw(features); err != nil {
		return err
	}
	return gbr.WriteNpy(predictConfig.PredictionFileName, prediction)
}
