package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/trechoscriticos/oficios/internal/oficio"
	"github.com/trechoscriticos/oficios/internal/trechos"
)

var (
	trechosOut    string
	trechosBuffer float64
)

var trechosCmd = &cobra.Command{
	Use:   "trechos",
	Short: "Export the tracked segments as buffered polygons",
	Run: func(cmd *cobra.Command, args []string) {
		if err := oficio.ExportTrechos(trechosOut, trechosBuffer, logLevel); err != nil {
			log.Fatal().Err(err).Msg("failed to export segments")
		}
	},
}

func init() {
	trechosCmd.Flags().StringVarP(&trechosOut, "out", "o", "sre_psv_trechos_prioritarios.json", "The GeoJSON file to write.")
	trechosCmd.Flags().Float64Var(&trechosBuffer, "buffer", trechos.DefaultBuffer, "The buffer distance in metres.")
}
