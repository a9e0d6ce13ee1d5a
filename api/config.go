package api

import (
	"sync"

	"github.com/spf13/viper"

	"github.com/sayan40020805/jusense-polls/logging"
)

type Config struct {
	StorageConfig
	ServerConfig
	AuthConfig
}

type StorageConfig struct {
	// Driver selects the poll store: "dynamo" or "memory".
	Driver         string
	TableNamePolls string
	TableNameVotes string
}

type ServerConfig struct {
	Port int
}

type AuthConfig struct {
	// TokenSecret verifies the HMAC signature on bearer tokens issued by the
	// account service.
	TokenSecret string
}

var settingsOnce sync.Once

func ReadConfig() *Config {

	var conf = &Config{
		StorageConfig: StorageConfig{
			Driver:         viper.GetString("storage.driver"),
			TableNamePolls: viper.GetString("storage.TableNamePolls"),
			TableNameVotes: viper.GetString("storage.TableNameVotes"),
		},
		ServerConfig: ServerConfig{
			Port: viper.GetInt("server.port"),
		},
		AuthConfig: AuthConfig{
			TokenSecret: viper.GetString("auth.tokenSecret"),
		},
	}

	settingsOnce.Do(func() {
		logging.Log.Print("Reading settings!")
	})

	return conf
}
