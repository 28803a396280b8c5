package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/trechoscriticos/oficios/internal/oficio"
)

var importLayer string

var importCmd = &cobra.Command{
	Use:   "import [sre file]",
	Short: "Load the SRE network into the database",
	Long: `Replace the segment table of DATABASE_URL with the features of an SRE file.
	Defaults to SRE_PATH.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var path string
		if len(args) > 0 {
			path = args[0]
		}
		if err := oficio.ImportSegments(path, importLayer, logLevel); err != nil {
			log.Fatal().Err(err).Msg("failed to import segments")
		}
	},
}

func init() {
	importCmd.Flags().StringVarP(&importLayer, "layer", "l", "", "The layer of multi-layer files. Defaults to SRE_LAYER.")
}
