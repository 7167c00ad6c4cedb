package environment

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

type EnvConfig struct {
	SqlxConnString   string
	NatsURL          string
	RedisAddr        string
	RedisPassword    string
	TaskQueueURL     string
	ResponseQueueURL string
	AWSRegion        string
}

// ReadEnvConfig loads .env when present and assembles connection
// settings. Missing .env is fine in containerized deploys where the
// variables arrive through the environment.
func ReadEnvConfig() *EnvConfig {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("failed to load .env file: %v", err)
	}

	result := &EnvConfig{}

	dbHost := getenvDefault("DB_HOST", "localhost")
	dbPort := getenvDefault("DB_PORT", "5432")
	dbUser := os.Getenv("DB_USER")
	dbPass := os.Getenv("DB_PASS")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := getenvDefault("DB_SSLMODE", "disable")

	result.SqlxConnString = fmt.Sprintf(
		`host=%s port=%s user=%s password=%s dbname=%s sslmode=%s`,
		dbHost, dbPort, dbUser, dbPass, dbName, dbSslMode)

	result.NatsURL = getenvDefault("NATS_URL", "nats://localhost:4222")

	redisHost := getenvDefault("REDIS_HOST", "localhost")
	redisPort := getenvDefault("REDIS_PORT", "6379")
	result.RedisAddr = fmt.Sprintf("%s:%s", redisHost, redisPort)
	result.RedisPassword = os.Getenv("REDIS_PASS")

	result.TaskQueueURL = os.Getenv("TASK_QUEUE_URL")
	result.ResponseQueueURL = os.Getenv("RESPONSE_QUEUE_URL")
	result.AWSRegion = getenvDefault("AWS_REGION", "eu-central-1")

	return result
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
