package source

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"
)

// tokenChain lists where a host token may come from, in priority order.
type tokenChain struct {
	envVars  []string
	config   string
	fallback func() string
}

func (c tokenChain) resolve() string {
	for _, name := range c.envVars {
		if token := os.Getenv(name); token != "" {
			return token
		}
	}
	if c.config != "" {
		return c.config
	}
	if c.fallback != nil {
		return c.fallback()
	}
	return ""
}

// ResolveToken finds the API token for kind.
// Priority order:
//  1. SELFUP_GITHUB_TOKEN / SELFUP_GITLAB_TOKEN env var
//  2. GITHUB_TOKEN / GITLAB_TOKEN env var
//  3. configToken
//  4. `gh auth token` (GitHub only)
//
// An empty result means anonymous access.
func ResolveToken(kind, configToken string) string {
	switch strings.ToLower(kind) {
	case KindGitLab:
		return tokenChain{
			envVars: []string{"SELFUP_GITLAB_TOKEN", "GITLAB_TOKEN"},
			config:  configToken,
		}.resolve()
	default:
		return tokenChain{
			envVars:  []string{"SELFUP_GITHUB_TOKEN", "GITHUB_TOKEN"},
			config:   configToken,
			fallback: ghCLIToken,
		}.resolve()
	}
}

var ghCLIToken = func() string {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, "gh", "auth", "token").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
