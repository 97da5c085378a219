package main

import (
	"github.com/spf13/cobra"
	"github.com/tarstars/traversed_model_builder/golang/gbt_rebuild/gbr"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "render the trees of a saved model",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var graphConfig GraphConfig
		if err := decodeConfig(configFile, &graphConfig); err != nil {
			return err
		}
		clf, err := gbr.LoadModel(graphConfig.ModelFileName)
		if err != nil {
			return err
		}
		return clf.RenderTrees(graphConfig.DumpPrefix, graphConfig.FigureType, graphConfig.PicturesDirectory)
	},
}
