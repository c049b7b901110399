package cmd

import (
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"

	"github.com/panic-app/panic-server/dev/config"
	"github.com/panic-app/panic-server/server"
	"github.com/panic-app/panic-server/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start a panic server",
	Long:  `The panic server houses the user, trusted-contact & incident APIs`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start(serverConfig(), isDevEnv)
	},
}

var serverConfigFile string

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringVar(&serverConfigFile, "sconfig", "", "Config file for server")
}

func serverConfig() *viper.Viper {
	vConfig := viper.New()

	if isDevEnv {
		serverConfigFile = devConfigFilePath()
	}

	vConfig.SetConfigFile(serverConfigFile)
	vConfig.AutomaticEnv() // read in environment variables that match

	if err := vConfig.ReadInConfig(); err != nil {
		log.Panic(fmt.Sprintf("error reading server config file: %v", err))
	}

	return vConfig
}

// devConfigFilePath returns the dev server.yml path, seeding the file
// with the default dev config when it doesn't exist yet.
func devConfigFilePath() string {
	workingDir, err := os.Getwd()
	if err != nil {
		log.Panic(err)
	}

	configDir := filepath.Join(workingDir, "dev", "config")
	if err = utils.CreateDirIfNotExist(configDir); err != nil {
		log.Panic(err)
	}

	configFilePath := filepath.Join(configDir, "server.yml")
	if !utils.FileExist(configFilePath) {
		if err = ioutil.WriteFile(configFilePath, []byte(config.SERVER_YML), 0600); err != nil {
			log.Panic(err)
		}
	}

	return configFilePath
}
