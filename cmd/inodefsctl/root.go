package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	imagePath string
	verbose   bool
	log       = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   "inodefsctl",
	Short: "Format, inspect, and exercise an inodefs volume image",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetLevel(logrus.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&imagePath, "image", "", "path to the volume image file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	_ = rootCmd.MarkPersistentFlagRequired("image")

	_ = viper.BindPFlag("image", rootCmd.PersistentFlags().Lookup("image"))
	viper.SetEnvPrefix("INODEFSCTL")
	viper.AutomaticEnv()

	rootCmd.AddCommand(formatCmd, statCmd, lsCmd, touchCmd, catCmd, rmCmd, writeCmd)
}
