package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	envFile     string
	logLevelInt int
	logLevel    zerolog.Level = 1
	// The root command of our program
	rootCmd = &cobra.Command{
		Use:   "oficios",
		Short: "Generates road defect memos with their location maps.",
		Long: `Generates the memos sent about critical road segments. Each memo is filled
		from a Word template with the segment data and a map of the surveyed defects.`,
	}
)

func main() {
	rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Bind our args to the command
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "The env file to read.")
	rootCmd.PersistentFlags().IntVar(&logLevelInt, "log", 1, "The logging level to use.")

	rootCmd.AddCommand(generateCmd, mapCmd, trechosCmd, importCmd)
}

func initConfig() {
	setLogLevel()

	err := godotenv.Load(envFile)
	if err != nil {
		log.Info().Err(err).Msg("failed to load env file")
	}
}

func setLogLevel() {
	logLevel = zerolog.Level(logLevelInt)
}
