package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnvConfig names the environment variable that points at a config file.
const EnvConfig = "SELFUP_CONFIG"

// FileNames are tried in order in every search directory.
var FileNames = []string{"selfup.toml", "selfup.yaml", "selfup.yml"}

// Find returns the config file to load. An explicit flag path wins,
// then $SELFUP_CONFIG, then the working directory, then the directory
// holding the running executable.
func Find(flagPath string) (string, error) {
	if flagPath != "" {
		return flagPath, nil
	}
	if env := strings.TrimSpace(os.Getenv(EnvConfig)); env != "" {
		return env, nil
	}

	var dirs []string
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, cwd)
	}
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		dirs = append(dirs, filepath.Dir(exe))
	}

	if path, ok := findIn(dirs); ok {
		return path, nil
	}

	return "", fmt.Errorf("%w: looked for %s in %s", ErrConfigNotFound,
		strings.Join(FileNames, ", "), strings.Join(dirs, ", "))
}

func findIn(dirs []string) (string, bool) {
	for _, dir := range dirs {
		for _, name := range FileNames {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
				return path, true
			}
		}
	}
	return "", false
}
