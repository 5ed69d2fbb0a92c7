package api

import (
	"sync"
	"time"

	"github.com/manaf-dev/gmsa-voting-app/logging"
	"github.com/spf13/viper"
)

type Config struct {
	StorageConfig
	ServerConfig
	SecurityConfig
	NotifierConfig
}

type StorageConfig struct {
	// Driver selects the storage backend: "dynamo" or "memory".
	Driver              string
	TableNameElections  string
	TableNamePositions  string
	TableNameCandidates string
	TableNameVotes      string
	TableNameAuditLog   string
	TableNameSessions   string
	TableNameRateLimits string
	TableNameResults    string
}

type ServerConfig struct {
	Port              int
	ReconcileInterval time.Duration
}

type SecurityConfig struct {
	AuthSecret        string
	EncryptionKey     string
	VoteHashSecret    string
	AnonymizationSalt string
	SigningKeyFile    string
}

type NotifierConfig struct {
	SMSEnabled bool
	SMSBaseURL string
	SMSAPIKey  string
	SMSSender  string
}

var settingsOnce sync.Once

func ReadConfig() *Config {

	var conf = &Config{
		StorageConfig: StorageConfig{
			Driver:              getStringOrDefault("storage.Driver", "dynamo"),
			TableNameElections:  viper.GetString("storage.TableNameElections"),
			TableNamePositions:  viper.GetString("storage.TableNamePositions"),
			TableNameCandidates: viper.GetString("storage.TableNameCandidates"),
			TableNameVotes:      viper.GetString("storage.TableNameVotes"),
			TableNameAuditLog:   viper.GetString("storage.TableNameAuditLog"),
			TableNameSessions:   viper.GetString("storage.TableNameSessions"),
			TableNameRateLimits: viper.GetString("storage.TableNameRateLimits"),
			TableNameResults:    viper.GetString("storage.TableNameResults"),
		},
		ServerConfig: ServerConfig{
			Port:              viper.GetInt("server.port"),
			ReconcileInterval: time.Duration(getIntOrDefault("server.ReconcileIntervalSeconds", 60)) * time.Second,
		},
		SecurityConfig: SecurityConfig{
			AuthSecret:        getString("security.AuthSecret"),
			EncryptionKey:     viper.GetString("security.VoteEncryptionKey"),
			VoteHashSecret:    viper.GetString("security.VoteHashSecret"),
			AnonymizationSalt: viper.GetString("security.AnonymizationSalt"),
			SigningKeyFile:    getStringOrDefault("security.SigningKeyFile", "vote_signing_key.pem"),
		},
		NotifierConfig: NotifierConfig{
			SMSEnabled: getBoolOrDefault("notifier.SMSEnabled", false),
			SMSBaseURL: viper.GetString("notifier.SMSBaseURL"),
			SMSAPIKey:  viper.GetString("notifier.SMSAPIKey"),
			SMSSender:  getStringOrDefault("notifier.SMSSender", "GMSA"),
		},
	}

	settingsOnce.Do(func() {
		logging.Log.Print("Reading settings!")
	})

	return conf
}

func getString(name string) string {
	if viper.IsSet(name) {
		v := viper.GetString(name)
		logging.Log.Printf("found '%s' in viper", name)
		return v
	}
	logging.Log.Fatalf("required environment variable '%s' is missing", name)
	return ""
}

func getIntOrDefault(name string, def int) int {
	if viper.IsSet(name) {
		v := viper.GetInt(name)
		logging.Log.Printf("found '%s' in viper", name)
		return v
	}
	logging.Log.Printf("could not find '%s' in viper! Returning default", name)
	return def
}

func getBoolOrDefault(name string, def bool) bool {
	if viper.IsSet(name) {
		v := viper.GetBool(name)
		logging.Log.Printf("found '%s' in viper", name)
		return v
	}
	logging.Log.Printf("could not find '%s' in viper! Returning default", name)
	return def
}

func getStringOrDefault(name string, def string) string {
	if viper.IsSet(name) {
		v := viper.GetString(name)
		logging.Log.Printf("found '%s' in viper", name)
		return v
	}
	logging.Log.Printf("could not find '%s' in viper! Returning default", name)
	return def
}
