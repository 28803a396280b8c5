package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/trechoscriticos/oficios/internal/oficio"
)

var localOpts oficio.LocalOptions

var generateCmd = &cobra.Command{
	Use:   "generate [survey files]",
	Short: "Generate memos from survey files",
	Long: `Generate one memo per survey file. Files are named after the memo id and
	end with the suffix of their type unless --type is given. With --dir every
	survey file of the directory is processed.`,
	Run: func(cmd *cobra.Command, args []string) {
		localOpts.Paths = args
		if err := oficio.Local(localOpts, logLevel); err != nil {
			log.Fatal().Err(err).Msg("failed to generate memos")
		}
	},
}

func init() {
	generateCmd.Flags().StringVarP(&localOpts.Dir, "dir", "d", "", "Generate a memo for every survey file in this directory.")
	generateCmd.Flags().StringVarP(&localOpts.Type, "type", "t", "", "The memo type, by name or suffix. Defaults to the file suffix.")
	generateCmd.Flags().StringVarP(&localOpts.Scale, "scale", "s", "", `The scale bar: "auto" or "length,label,thickness,offset,legend,bar,arrow".`)
	generateCmd.Flags().BoolVarP(&localOpts.Bundle, "bundle", "b", false, "Zip the report directory of each memo.")
	generateCmd.Flags().BoolVar(&localOpts.NoBasemap, "no-basemap", false, "Draw maps without the tile backdrop.")
	generateCmd.Flags().BoolVar(&localOpts.NoUpload, "no-upload", false, "Do not upload to the output bucket.")
}
