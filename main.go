// @title JuSense Polls API
// @version 1.0
// @description Backend API for creating polls, collecting votes and streaming live results

// @securityDefinitions.apikey BearerToken
// @in header
// @name Authorization
package main

import (
	_ "github.com/sayan40020805/jusense-polls/docs"

	"github.com/spf13/viper"

	"github.com/sayan40020805/jusense-polls/api"
	"github.com/sayan40020805/jusense-polls/logging"
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

	// Start the service
	service := api.NewServer(config)
	service.Start()
}
