package config

import (
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds agent process settings. Values come from an optional YAML
// file named by AGENT_CONFIG, with environment variables taking precedence.
type Config struct {
	Host          string `yaml:"host"`
	Port          string `yaml:"port"`
	LogLevel      string `yaml:"logLevel"`
	MongoURI      string `yaml:"mongoUri"`
	MongoDatabase string `yaml:"mongoDatabase"`
	RedisURL      string `yaml:"redisUrl"`
	JWTSecret     string `yaml:"jwtSecret"`
}

func LoadConfig() *Config {
	cfg := &Config{
		Host:          "0.0.0.0",
		Port:          "8000",
		LogLevel:      "info",
		MongoDatabase: "locagent",
	}

	if path := os.Getenv("AGENT_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("config: cannot read %s: %v", path, err)
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			log.Printf("config: cannot parse %s: %v", path, err)
		}
	}

	cfg.Host = getEnv("HOST", cfg.Host)
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.MongoURI = getEnv("MONGODB_URI", cfg.MongoURI)
	cfg.MongoDatabase = getEnv("MONGODB_DATABASE", cfg.MongoDatabase)
	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	return cfg
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return strings.TrimSpace(value)
}
