// @title GMSA Voting API
// @version 1.0
// @description Backend API for anonymous, encrypted elections with audited administration

// @securityDefinitions.apikey BearerToken
// @in header
// @name Authorization
package main

import (
	_ "github.com/manaf-dev/gmsa-voting-app/docs"

	"github.com/manaf-dev/gmsa-voting-app/api"
	"github.com/manaf-dev/gmsa-voting-app/logging"
	"github.com/spf13/viper"
)

func main() {
	logging.BootstrapLogger()

	// Load env
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logging.Log.Errorf("Failed to read config file: %v", err)
		panic("Failed to read config file: " + err.Error())
	}

	// Read config
	config := api.ReadConfig()

	// Start the service (inside the lambda)
	service := api.NewServer(config)
	service.Start()
}
