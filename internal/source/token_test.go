package source

import "testing"

func TestResolveToken(t *testing.T) {
	orig := ghCLIToken
	t.Cleanup(func() { ghCLIToken = orig })
	ghCLIToken = func() string { return "from-gh" }

	tests := []struct {
		name   string
		kind   string
		env    map[string]string
		config string
		want   string
	}{
		{name: "selfup env wins", kind: "github", env: map[string]string{"SELFUP_GITHUB_TOKEN": "a", "GITHUB_TOKEN": "b"}, config: "c", want: "a"},
		{name: "generic env", kind: "github", env: map[string]string{"GITHUB_TOKEN": "b"}, config: "c", want: "b"},
		{name: "config", kind: "github", config: "c", want: "c"},
		{name: "gh cli fallback", kind: "github", want: "from-gh"},
		{name: "gitlab env", kind: "gitlab", env: map[string]string{"GITLAB_TOKEN": "gl"}, want: "gl"},
		{name: "gitlab has no cli fallback", kind: "gitlab", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, name := range []string{"SELFUP_GITHUB_TOKEN", "GITHUB_TOKEN", "SELFUP_GITLAB_TOKEN", "GITLAB_TOKEN"} {
				t.Setenv(name, tt.env[name])
			}
			if got := ResolveToken(tt.kind, tt.config); got != tt.want {
				t.Errorf("ResolveToken() = %q, want %q", got, tt.want)
			}
		})
	}
}
