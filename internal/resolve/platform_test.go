package resolve

import (
	"testing"

	"github.com/valksor/go-selfup/internal/version"
)

func TestPlatformMatches(t *testing.T) {
	tests := []struct {
		platform Platform
		name     string
		want     bool
	}{
		{Platform{"linux", "amd64"}, "tool_1.0.0_linux_amd64.tar.gz", true},
		{Platform{"linux", "amd64"}, "tool-Linux-x86_64.tar.gz", true},
		{Platform{"linux", "amd64"}, "tool-linux-x86-64", true},
		{Platform{"linux", "amd64"}, "tool_linux_arm64.tar.gz", false},
		{Platform{"linux", "amd64"}, "tool_linux_amd64.tar.gz.sha256", false},
		{Platform{"linux", "amd64"}, "tool_linux_amd64.tar.gz.sig", false},
		{Platform{"linux", "amd64"}, "checksums.txt", false},
		{Platform{"linux", "amd64"}, "tool_darwin_amd64", false},
		{Platform{"linux", "amd64"}, "linuxtool_amd64", false},
		{Platform{"linux", "arm64"}, "tool-linux-aarch64.tar.xz", true},
		{Platform{"linux", "386"}, "tool_linux_i686", true},
		{Platform{"linux", "386"}, "tool_linux_x86_64", false},
		{Platform{"linux", "arm"}, "tool_linux_armv7.tar.gz", true},
		{Platform{"darwin", "arm64"}, "tool-macOS-arm64.zip", true},
		{Platform{"darwin", "arm64"}, "tool_darwin_universal.tar.gz", true},
		{Platform{"darwin", "amd64"}, "tool-osx-x64", true},
		{Platform{"windows", "amd64"}, "tool_Windows_x86_64.zip", true},
		{Platform{"windows", "amd64"}, "tool-win64-amd64.exe", true},
		{Platform{"windows", "amd64"}, "tool_windows_universal.zip", false},
		{Platform{"freebsd", "amd64"}, "tool_freebsd_amd64.tar.gz", true},
	}

	for _, tt := range tests {
		t.Run(tt.platform.String()+" "+tt.name, func(t *testing.T) {
			if got := tt.platform.Matches(tt.name); got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestIsSidecar(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"checksums.txt", true},
		{"tool_1.0.0_checksums.txt", true},
		{"SHA256SUMS", true},
		{"SHA512SUMS.txt", true},
		{"tool.tar.gz.sha256", true},
		{"tool.tar.gz.asc", true},
		{"tool.pem", true},
		{"tool_linux_amd64.tar.gz", false},
		{"tool.exe", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSidecar(tt.name); got != tt.want {
				t.Errorf("IsSidecar(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestSelectorTemplate(t *testing.T) {
	sel := Selector{
		Platform: Platform{OS: "linux", Arch: "amd64"},
		Template: "{{name}}_{{version}}_{{os}}_{{arch}}",
		Name:     "tool",
	}
	v := version.MustParse("1.2.3")

	tests := []struct {
		name string
		want bool
	}{
		{"tool_1.2.3_linux_amd64", true},
		{"tool_1.2.3_linux_amd64.tar.gz", true},
		{"TOOL_1.2.3_Linux_amd64.zip", true},
		{"tool_1.2.3_linux_amd64.exe", true},
		{"tool_1.2.3_linux_amd64.tar.gz.sha256", false},
		{"tool_1.2.3_linux_amd64-debug.tar.gz", false},
		{"tool_1.2.4_linux_amd64.tar.gz", false},
		{"other_1.2.3_linux_amd64", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sel.Matches(tt.name, v); got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestSelectorPickFirstInListingOrder(t *testing.T) {
	got, ok := linuxAMD64.Pick(assets("tool_linux_amd64.tar.gz", "tool_linux_amd64.zip"), version.MustParse("1.0.0"))
	if !ok || got.Name != "tool_linux_amd64.tar.gz" {
		t.Errorf("Pick() = %q, %v, want first match", got.Name, ok)
	}
}
