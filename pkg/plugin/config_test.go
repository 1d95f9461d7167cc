package plugin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSettings = `servers:
  depsvc:
    command: deps-analyzer
    args: ["--stdio"]
    envs:
      GRAMMAR_DIR: /opt/grammars
    tool_allow_list:
      - analyze_dependencies
      - generate_grammar
  remote:
    server_type: sse
    base_url: https://deps.example.com/mcp
    headers:
      Authorization: Bearer token
`

func TestLoadSettings(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleSettings), 0o644))

	settings, err := LoadSettings(path)
	require.NoError(t, err)
	require.Len(t, settings.Servers, 2)

	depsvc := settings.Servers["depsvc"]
	assert.Equal(t, "deps-analyzer", depsvc.Command)
	assert.Equal(t, []string{"--stdio"}, depsvc.Args)
	assert.Equal(t, "/opt/grammars", depsvc.Envs["GRAMMAR_DIR"])
	assert.Equal(t, []string{"analyze_dependencies", "generate_grammar"}, depsvc.ToolAllowList)

	remote := settings.Servers["remote"]
	assert.Equal(t, ServerTypeSSE, remote.ServerType)
	assert.Equal(t, "https://deps.example.com/mcp", remote.BaseURL)
}

func TestLoadSettingsPrecedence(t *testing.T) {
	tmpDir := t.TempDir()
	first := filepath.Join(tmpDir, "first.yaml")
	second := filepath.Join(tmpDir, "second.yaml")
	require.NoError(t, os.WriteFile(first, []byte("servers:\n  a:\n    command: one\n"), 0o644))
	require.NoError(t, os.WriteFile(second, []byte("servers:\n  a:\n    command: two\n"), 0o644))

	settings, err := LoadSettings(first, second)
	require.NoError(t, err)
	assert.Equal(t, "one", settings.Servers["a"].Command)
}

func TestLoadSettingsMissingFiles(t *testing.T) {
	settings, err := LoadSettings(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, settings.Servers)
}

func TestLoadSettingsMalformed(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("servers: [not a map"), 0o644))

	_, err := LoadSettings(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse settings file")
}

func TestSettingsFromViper(t *testing.T) {
	v := viper.New()
	v.Set("plugins.servers.depsvc.command", "deps-analyzer")
	v.Set("plugins.servers.depsvc.args", []string{"--stdio"})

	settings, err := SettingsFromViper(v)
	require.NoError(t, err)
	require.Contains(t, settings.Servers, "depsvc")
	assert.Equal(t, "deps-analyzer", settings.Servers["depsvc"].Command)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  ServerConfig
		wantErr string
	}{
		{name: "stdio with command", config: ServerConfig{Command: "svc"}},
		{name: "sse with url", config: ServerConfig{BaseURL: "http://localhost:9000"}},
		{
			name:    "stdio without command",
			config:  ServerConfig{ServerType: ServerTypeStdio},
			wantErr: "command is required",
		},
		{
			name:    "sse without url",
			config:  ServerConfig{ServerType: ServerTypeSSE},
			wantErr: "base_url is required",
		},
		{
			name:    "nothing set",
			config:  ServerConfig{},
			wantErr: "server_type must be stdio or sse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := &Settings{Servers: map[string]ServerConfig{"x": tt.config}}
			err := settings.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestManagerGetNotConfigured(t *testing.T) {
	m, err := NewManager(&Settings{Servers: map[string]ServerConfig{}})
	require.NoError(t, err)

	_, err = m.Get("depsvc")
	require.Error(t, err)

	var notConfigured *NotConfiguredError
	require.True(t, errors.As(err, &notConfigured))
	assert.Equal(t, "depsvc", notConfigured.Server)
	assert.Contains(t, notConfigured.Error(), "settings.yaml")
}

func TestNewManagerRejectsBadConfig(t *testing.T) {
	_, err := NewManager(&Settings{Servers: map[string]ServerConfig{
		"bad": {ServerType: ServerTypeStdio},
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server 'bad'")
}
