package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	JWTSecret   string
	MySQLDSN    string
	MongoURI    string
	MongoDBName string

	HTTPAddr             string
	LogLevel             string
	QRMaxValidityMinutes int
}

func Load() *Config {
	/*
		START names the env file (.env-local, .env.docker);
		a missing file is fine when the variables are already exported
	*/
	if file := os.Getenv("START"); file != "" {
		if err := godotenv.Load(file); err != nil {
			log.Printf("env file %q not loaded: %v", file, err)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg := &Config{
		JWTSecret:   mustGet("JWT_SECRET"),
		MySQLDSN:    mustGet("MYSQL_DSN"),
		MongoURI:    mustGet("MONGO_URI"),
		MongoDBName: mustGet("MONGO_DB_NAME"),

		HTTPAddr: get("HTTP_ADDR", ":8082"),
		LogLevel: get("LOG_LEVEL", "info"),
	}

	maxValidity, err := strconv.Atoi(get("QR_MAX_VALIDITY_MINUTES", "60"))
	if err != nil || maxValidity < 1 {
		log.Fatalf("QR_MAX_VALIDITY_MINUTES must be a positive integer")
	}
	cfg.QRMaxValidityMinutes = maxValidity

	return cfg
}

func get(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func mustGet(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("%s is not set in environment", key)
	}
	return v
}
