package plugin

import (
	"context"
	"fmt"
	"slices"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/pkg/errors"

	"github.com/trophyhq/trophy/pkg/logger"
	"github.com/trophyhq/trophy/pkg/version"
)

// NewClient builds an MCP client for one launch descriptor
func NewClient(config ServerConfig) (*client.Client, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	switch config.effectiveType() {
	case ServerTypeStdio:
		envArgs := make([]string, 0, len(config.Envs))
		for k, v := range config.Envs {
			envArgs = append(envArgs, fmt.Sprintf("%s=%s", k, v))
		}
		tp := transport.NewStdio(config.Command, envArgs, config.Args...)
		return client.NewClient(tp), nil
	case ServerTypeSSE:
		tp, err := transport.NewSSE(config.BaseURL, transport.WithHeaders(config.Headers))
		if err != nil {
			return nil, err
		}
		return client.NewClient(tp), nil
	default:
		return nil, errors.New("invalid server type")
	}
}

// Manager owns the clients for all configured services
type Manager struct {
	clients   map[string]*client.Client
	allowList map[string][]string
}

// NewManager builds clients for every server in the settings
func NewManager(settings *Settings) (*Manager, error) {
	m := &Manager{
		clients:   make(map[string]*client.Client),
		allowList: make(map[string][]string),
	}
	for name, config := range settings.Servers {
		c, err := NewClient(config)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to build client for server '%s'", name)
		}
		m.clients[name] = c
		m.allowList[name] = config.ToolAllowList
	}
	return m, nil
}

// Initialize starts and handshakes every client
func (m *Manager) Initialize(ctx context.Context) error {
	for name, c := range m.clients {
		logger.G(ctx).WithField("server", name).Debug("initializing plugin client")

		initReq := mcp.InitializeRequest{}
		initReq.Params.ClientInfo = mcp.Implementation{
			Name:    "trophy",
			Version: version.Version,
		}
		initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION

		if err := c.Start(ctx); err != nil {
			return errors.Wrapf(err, "failed to start plugin server '%s'", name)
		}
		if _, err := c.Initialize(ctx, initReq); err != nil {
			return errors.Wrapf(err, "failed to initialize plugin server '%s'", name)
		}

		logger.G(ctx).WithField("server", name).Debug("initialized plugin client")
	}
	return nil
}

// Close shuts down every client
func (m *Manager) Close(ctx context.Context) error {
	for name, c := range m.clients {
		if err := c.Close(); err != nil {
			logger.G(ctx).WithField("server", name).WithError(err).Error("failed to close plugin client")
		}
	}
	return nil
}

// Get returns the client for a named server
func (m *Manager) Get(name string) (*client.Client, error) {
	c, ok := m.clients[name]
	if !ok {
		return nil, &NotConfiguredError{Server: name}
	}
	return c, nil
}

// ListTools lists the tools of every server, filtered by each server's
// allow list.
func (m *Manager) ListTools(ctx context.Context) (map[string][]mcp.Tool, error) {
	tools := make(map[string][]mcp.Tool)
	for name, c := range m.clients {
		result, err := c.ListTools(ctx, mcp.ListToolsRequest{})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to list tools of server '%s'", name)
		}
		for _, tool := range result.Tools {
			if toolAllowed(tool, m.allowList[name]) {
				tools[name] = append(tools[name], tool)
			}
		}
	}
	return tools, nil
}

func toolAllowed(tool mcp.Tool, allowList []string) bool {
	return len(allowList) == 0 || slices.Contains(allowList, tool.GetName())
}
