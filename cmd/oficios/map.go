package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/trechoscriticos/oficios/internal/oficio"
)

var mapOpts oficio.MapOptions

var mapCmd = &cobra.Command{
	Use:   "map [layer files]",
	Short: "Render a map of vector layers",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		mapOpts.Layers = args
		if err := oficio.RenderMap(mapOpts, logLevel); err != nil {
			log.Fatal().Err(err).Msg("failed to render map")
		}
	},
}

func init() {
	mapCmd.Flags().StringVarP(&mapOpts.Out, "out", "o", "map.png", "The PNG file to write.")
	mapCmd.Flags().StringVarP(&mapOpts.Reference, "reference", "r", "", "A layer drawn beneath the others.")
	mapCmd.Flags().StringVarP(&mapOpts.LabelAttribute, "label", "l", oficio.LabelAttribute, "The attribute holding each layer's legend label.")
	mapCmd.Flags().StringSliceVarP(&mapOpts.Colors, "colors", "c", nil, "One color per layer, by name or hex.")
	mapCmd.Flags().StringSliceVar(&mapOpts.Legend, "legend", nil, "Legend labels replacing the computed ones.")
	mapCmd.Flags().StringVar(&mapOpts.Anchor, "legend-loc", "", "The legend location, e.g. \"lower center\".")
	mapCmd.Flags().StringVarP(&mapOpts.Scale, "scale", "s", "", `The scale bar: "auto" or "length,label,thickness,offset,legend,bar,arrow".`)
	mapCmd.Flags().Float64Var(&mapOpts.DPI, "dpi", 0, "The output resolution.")
	mapCmd.Flags().BoolVar(&mapOpts.NoBasemap, "no-basemap", false, "Draw without the tile backdrop.")
}
