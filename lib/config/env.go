// Package config loads local development configuration.
package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// LoadDotEnv loads a .env file into the process environment for local runs.
// Deployed functions take their configuration from SSM, so a missing file is
// not an error.
func LoadDotEnv() {
	if _, err := os.Stat(".env"); err != nil {
		return
	}
	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Warn("failed to load .env file")
	}
}
