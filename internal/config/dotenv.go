package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

const (
	// Dir is the per-project and per-user selfup directory.
	Dir = ".selfup"
	// EnvFileName is the name of the environment variables file.
	EnvFileName = ".env"
)

// LoadDotEnv loads environment variables from <baseDir>/.selfup/.env if it exists.
// Variables already set in the environment win over the file.
// A missing file is not an error.
func LoadDotEnv(baseDir string) error {
	envPath := filepath.Join(baseDir, Dir, EnvFileName)

	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		return nil
	}

	return godotenv.Load(envPath)
}

// LoadDotEnvFromCwd loads .selfup/.env from the working directory.
func LoadDotEnvFromCwd() error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	return LoadDotEnv(cwd)
}
