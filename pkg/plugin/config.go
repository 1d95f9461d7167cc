// Package plugin manages connections to external tool services spoken to
// over the MCP protocol. A settings file declares how each service is
// launched (a stdio command or an SSE endpoint); the manager builds and
// initializes the clients.
package plugin

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ServerType selects the transport used to reach a service
type ServerType string

const (
	// ServerTypeStdio launches the service as a child process
	ServerTypeStdio ServerType = "stdio"
	// ServerTypeSSE connects to an already-running HTTP service
	ServerTypeSSE ServerType = "sse"
)

// ServerConfig is the launch descriptor for one service
type ServerConfig struct {
	ServerType ServerType        `json:"server_type,omitempty" yaml:"server_type,omitempty" mapstructure:"server_type"`
	Command    string            `json:"command,omitempty" yaml:"command,omitempty" mapstructure:"command"`
	Args       []string          `json:"args,omitempty" yaml:"args,omitempty" mapstructure:"args"`
	Envs       map[string]string `json:"envs,omitempty" yaml:"envs,omitempty" mapstructure:"envs"`
	BaseURL    string            `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`
	Headers    map[string]string `json:"headers,omitempty" yaml:"headers,omitempty" mapstructure:"headers"`
	// ToolAllowList restricts which tools of the service are exposed.
	ToolAllowList []string `json:"tool_allow_list,omitempty" yaml:"tool_allow_list,omitempty" mapstructure:"tool_allow_list"`
}

// Settings is the full plugin settings document
type Settings struct {
	Servers map[string]ServerConfig `json:"servers" yaml:"servers" mapstructure:"servers"`
}

// NotConfiguredError reports that a named service has no launch descriptor.
// The remedy is a settings file entry, not a retry.
type NotConfiguredError struct {
	Server string
}

func (e *NotConfiguredError) Error() string {
	return fmt.Sprintf("plugin server '%s' is not configured; add it to .trophy/settings.yaml", e.Server)
}

// DefaultSettingsPaths returns the settings file locations in precedence
// order: repo-local first, then user-global.
func DefaultSettingsPaths() []string {
	paths := []string{filepath.Join(".trophy", "settings.yaml")}
	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".trophy", "settings.yaml"))
	}
	return paths
}

// LoadSettings reads the first settings file that exists among the given
// paths. No file at all yields empty settings, not an error.
func LoadSettings(paths ...string) (*Settings, error) {
	if len(paths) == 0 {
		paths = DefaultSettingsPaths()
	}

	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var settings Settings
		if err := yaml.Unmarshal(content, &settings); err != nil {
			return nil, errors.Wrapf(err, "failed to parse settings file '%s'", path)
		}
		return &settings, nil
	}

	return &Settings{Servers: map[string]ServerConfig{}}, nil
}

// SettingsFromViper decodes plugin settings from the loaded viper
// configuration (the `plugins` key of config.yaml).
func SettingsFromViper(v *viper.Viper) (*Settings, error) {
	settings := &Settings{Servers: map[string]ServerConfig{}}
	if !v.IsSet("plugins.servers") {
		return settings, nil
	}

	if err := mapstructure.Decode(v.Get("plugins"), settings); err != nil {
		return nil, errors.Wrap(err, "failed to decode plugin settings")
	}
	return settings, nil
}

// Validate checks every launch descriptor for the fields its transport needs
func (s *Settings) Validate() error {
	for name, server := range s.Servers {
		if err := server.validate(); err != nil {
			return errors.Wrapf(err, "server '%s'", name)
		}
	}
	return nil
}

func (c ServerConfig) validate() error {
	switch c.effectiveType() {
	case ServerTypeStdio:
		if c.Command == "" {
			return errors.New("command is required for stdio server")
		}
	case ServerTypeSSE:
		if c.BaseURL == "" {
			return errors.New("base_url is required for sse server")
		}
	default:
		return errors.New("server_type must be stdio or sse, or command/base_url must be set")
	}
	return nil
}

// effectiveType infers the transport from the populated fields when
// server_type is omitted.
func (c ServerConfig) effectiveType() ServerType {
	if c.ServerType != "" {
		return c.ServerType
	}
	if c.BaseURL != "" {
		return ServerTypeSSE
	}
	if c.Command != "" {
		return ServerTypeStdio
	}
	return ""
}
