package main

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/tarstars/traversed_model_builder/golang/gbt_rebuild/gbr"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "capture the trees of a model and rebuild them into a new model",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var config RebuildConfig
		if err := decodeConfig(configFile, &config); err != nil {
			return err
		}
		return runRebuild(context.Background(), config, gbr.DefaultLogger{})
	},
}

func runRebuild(ctx context.Context, config RebuildConfig, logger gbr.Logger) error {
	source, err := loadSource(config.FileNameSource, config.SourceFormat)
	if err != nil {
		return err
	}
	logger.Infof("loaded %d trees in %d groups from %s", source.NumberOfTrees(), source.NGroups, config.FileNameSource)

	opts := []gbr.CaptureOption{gbr.WithCaptureLogger(logger)}
	if config.PermissiveLevels {
		opts = append(opts, gbr.WithPermissiveLevels())
	}
	rebuilt, err := gbr.RebuildEnsemble(ctx, source, opts...)
	if err != nil {
		return err
	}

	if config.FileNameFeatures != "" {
		if err := verifyRebuilt(source, rebuilt, config, logger); err != nil {
			return err
		}
	}

	if err := rebuilt.Save(config.FileNameModel); err != nil {
		return err
	}
	logger.Infof("rebuilt model saved to %s", config.FileNameModel)
	return nil
}

func verifyRebuilt(source, rebuilt *gbr.Ensemble, config RebuildConfig, logger gbr.Logger) error {
	ds, err := gbr.ReadDataset(config.FileNameFeatures, config.FileNameTarget)
	if err != nil {
		return err
	}
	mismatches, err := gbr.ComparePredictions(source, rebuilt, ds.Features)
	if err != nil {
		return err
	}
	logger.Infof("%d of %d rows predicted differently", mismatches, gbr.Height(ds.Features))
	if mismatches != 0 {
		return errors.Newf("rebuilt model disagrees with the source model on %d rows", mismatches)
	}
	if ds.Target == nil {
		return nil
	}

	switch config.Task {
	case "", "classification":
		for _, m := range []struct {
			name  string
			model *gbr.Ensemble
		}{{"source", source}, {"rebuilt", rebuilt}} {
			classes, err := m.model.PredictClasses(ds.Features)
			if err != nil {
				return err
			}
			nErrors, err := gbr.ClassificationErrors(classes, ds.Target)
			if err != nil {
				return err
			}
			logger.Infof("%s model: %d classification errors", m.name, nErrors)
		}
	case "regression":
		for _, m := range []struct {
			name  string
			model *gbr.Ensemble
		}{{"source", source}, {"rebuilt", rebuilt}} {
			prediction, err := m.model.PredictRaw(ds.Features)
			if err != nil {
				return err
			}
			rmse, err := gbr.Rmse(ds.Target, prediction)
			if err != nil {
				return err
			}
			logger.Infof("RMSE for %s model = %g", m.name, rmse)
		}
	default:
		return errors.Newf("unknown task %q", config.Task)
	}
	return nil
}
