// Package setup registers and unregisters the todo MCP server with supported
// coding agents (Claude Code, Cursor, Codex, OpenCode).
package setup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ServerName is the key the MCP server is registered under in agent configs.
const ServerName = "todo"

// Supported agents.
const (
	AgentClaudeCode = "claude-code"
	AgentCursor     = "cursor"
	AgentCodex      = "codex"
	AgentOpencode   = "opencode"
)

// Agents lists every supported agent in display order.
var Agents = []string{AgentClaudeCode, AgentCursor, AgentCodex, AgentOpencode}

// ErrUnknownAgent is returned for an agent name not in Agents.
var ErrUnknownAgent = errors.New("unknown agent")

// Options selects where an agent's configuration lives and how the server is launched.
type Options struct {
	// ConfigDir overrides the agent's config directory (~/.claude, ~/.cursor, ~/.codex).
	ConfigDir string
	// Project installs into the current project instead of the user's home.
	Project bool
	// DataDir, when set, is passed to the server as --data-dir.
	DataDir string

	// Home and WorkDir default to the user's home and the working directory.
	Home    string
	WorkDir string
}

// Result describes what Install or Uninstall did.
type Result struct {
	Changed bool
	Message string
}

func changed(f string, a ...any) Result { return Result{Changed: true, Message: fmt.Sprintf(f, a...)} }
func unchanged(msg string) Result      { return Result{Message: msg} }

// Install registers the MCP server with agent.
func Install(agent string, opts Options) (Result, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return Result{}, err
	}
	switch agent {
	case AgentClaudeCode, AgentCursor:
		path := mcpJSONPath(agent, opts)
		added, err := installMCPServers(path, mcpEntry(opts))
		if err != nil {
			return Result{}, fmt.Errorf("setup %s: %w", agent, err)
		}
		if added {
			return changed("Installed: mcpServers in %s", path), nil
		}
	case AgentCodex:
		path := filepath.Join(agentDir(".codex", opts), "config.toml")
		added, err := appendTOMLMCPSection(path, opts)
		if err != nil {
			return Result{}, fmt.Errorf("setup %s: %w", agent, err)
		}
		if added {
			return changed("Installed: mcp_servers.%s in %s", ServerName, path), nil
		}
	case AgentOpencode:
		path := opencodePath(opts)
		added, err := installOpencodeMCP(path, opts)
		if err != nil {
			return Result{}, fmt.Errorf("setup %s: %w", agent, err)
		}
		if added {
			return changed("Installed: mcp in %s", path), nil
		}
	default:
		return Result{}, fmt.Errorf("%w %q (want %s)", ErrUnknownAgent, agent, strings.Join(Agents, ", "))
	}
	return unchanged("Already installed"), nil
}

// Uninstall removes the MCP server registration from agent.
func Uninstall(agent string, opts Options) (Result, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return Result{}, err
	}
	var (
		path    string
		removed bool
	)
	switch agent {
	case AgentClaudeCode, AgentCursor:
		path = mcpJSONPath(agent, opts)
		removed, err = uninstallJSONEntry(path, "mcpServers")
	case AgentCodex:
		path = filepath.Join(agentDir(".codex", opts), "config.toml")
		removed, err = removeTOMLMCPSection(path)
	case AgentOpencode:
		path = opencodePath(opts)
		removed, err = uninstallJSONEntry(path, "mcp")
	default:
		return Result{}, fmt.Errorf("%w %q (want %s)", ErrUnknownAgent, agent, strings.Join(Agents, ", "))
	}
	if err != nil {
		return Result{}, fmt.Errorf("uninstall %s: %w", agent, err)
	}
	if removed {
		return changed("Removed: %s from %s", ServerName, path), nil
	}
	return unchanged("Nothing to remove"), nil
}

// ---------------------------------------------------------------------------
// Paths
// ---------------------------------------------------------------------------

func (o Options) withDefaults() (Options, error) {
	if o.Home == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return o, fmt.Errorf("setup: %w", err)
		}
		o.Home = home
	}
	if o.WorkDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return o, fmt.Errorf("setup: %w", err)
		}
		o.WorkDir = wd
	}
	return o, nil
}

// agentDir returns the agent's dot-directory in the project or the home dir.
//
//revive:disable:flag-parameter
func agentDir(dotDir string, o Options) string {
	if o.ConfigDir != "" {
		return o.ConfigDir
	}
	if o.Project {
		return filepath.Join(o.WorkDir, dotDir)
	}
	return filepath.Join(o.Home, dotDir)
}

//revive:enable:flag-parameter

func mcpJSONPath(agent string, o Options) string {
	if agent == AgentCursor {
		return filepath.Join(agentDir(".cursor", o), "mcp.json")
	}
	if o.Project {
		return filepath.Join(filepath.Dir(agentDir(".claude", o)), ".mcp.json")
	}
	return filepath.Join(o.Home, ".claude.json")
}

func opencodePath(o Options) string {
	if o.Project {
		return filepath.Join(o.WorkDir, "opencode.json")
	}
	return filepath.Join(o.Home, ".config", "opencode", "opencode.json")
}

// ---------------------------------------------------------------------------
// Server entries
// ---------------------------------------------------------------------------

func serverArgs(o Options) []string {
	if o.DataDir != "" {
		return []string{"--data-dir", o.DataDir, "mcp"}
	}
	return []string{"mcp"}
}

func mcpEntry(o Options) map[string]any {
	return map[string]any{
		"command": ServerName,
		"args":    serverArgs(o),
		"type":    "stdio",
	}
}

func opencodeEntry(o Options) map[string]any {
	return map[string]any{
		"type":    "local",
		"command": append([]string{ServerName}, serverArgs(o)...),
	}
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

// readJSON returns the object stored at path, or an empty map when the file
// is missing. A file that is not a JSON object is an error so it is never
// overwritten.
func readJSON(path string) (map[string]any, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- agent config path built from known locations
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]any), nil
	}
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return make(map[string]any), nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if m == nil {
		m = make(map[string]any)
	}
	return m, nil
}

func writeJSON(path string, data map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644) // #nosec G306 -- agent config files (MCP server entries) do not contain secrets
}

func installJSONEntry(path, section string, entry map[string]any) (bool, error) {
	data, err := readJSON(path)
	if err != nil {
		return false, err
	}
	servers, _ := data[section].(map[string]any)
	if servers == nil {
		servers = make(map[string]any)
		data[section] = servers
	}
	if _, exists := servers[ServerName]; exists {
		return false, nil
	}
	servers[ServerName] = entry
	return true, writeJSON(path, data)
}

func uninstallJSONEntry(path, section string) (bool, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	data, err := readJSON(path)
	if err != nil {
		return false, err
	}
	servers, _ := data[section].(map[string]any)
	if _, exists := servers[ServerName]; !exists {
		return false, nil
	}
	delete(servers, ServerName)
	if len(servers) == 0 {
		delete(data, section)
	}
	if len(data) == 0 {
		return true, os.Remove(path)
	}
	return true, writeJSON(path, data)
}

func installMCPServers(path string, entry map[string]any) (bool, error) {
	return installJSONEntry(path, "mcpServers", entry)
}

func installOpencodeMCP(path string, o Options) (bool, error) {
	return installJSONEntry(path, "mcp", opencodeEntry(o))
}

// ---------------------------------------------------------------------------
// TOML helpers (Codex config.toml)
// ---------------------------------------------------------------------------

const tomlHeader = "[mcp_servers." + ServerName + "]"

type tomlServer struct {
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
}

// readTOML parses path into a map. A missing file yields an empty map.
func readTOML(path string) (map[string]any, []byte, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- agent config path built from known locations
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]any), nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	m := make(map[string]any)
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return m, data, nil
}

func hasTOMLServer(m map[string]any) bool {
	servers, _ := m["mcp_servers"].(map[string]any)
	_, ok := servers[ServerName]
	return ok
}

// appendTOMLMCPSection appends the server table as text so existing comments
// and key order in config.toml are kept.
func appendTOMLMCPSection(path string, o Options) (bool, error) {
	m, existing, err := readTOML(path)
	if err != nil {
		return false, err
	}
	if hasTOMLServer(m) {
		return false, nil
	}
	body, err := toml.Marshal(tomlServer{Command: ServerName, Args: serverArgs(o)})
	if err != nil {
		return false, err
	}

	var buf bytes.Buffer
	if len(existing) > 0 {
		buf.Write(bytes.TrimRight(existing, "\n"))
		buf.WriteString("\n\n")
	}
	buf.WriteString(tomlHeader + "\n")
	buf.Write(body)

	if err := toml.Unmarshal(buf.Bytes(), &map[string]any{}); err != nil {
		return false, fmt.Errorf("%s: refusing to write invalid TOML: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	return true, os.WriteFile(path, buf.Bytes(), 0o644) // #nosec G306 -- agent TOML config is not a sensitive credential file
}

// removeTOMLMCPSection drops the server table header and its key-value pairs
// up to the next table header or EOF.
func removeTOMLMCPSection(path string) (bool, error) {
	m, data, err := readTOML(path)
	if err != nil {
		return false, err
	}
	if data == nil || !hasTOMLServer(m) {
		return false, nil
	}

	lines := strings.Split(string(data), "\n")
	result := make([]string, 0, len(lines))
	inSection := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == tomlHeader {
			inSection = true
			continue
		}
		if inSection && strings.HasPrefix(trimmed, "[") {
			inSection = false
		}
		if !inSection {
			result = append(result, line)
		}
	}
	cleaned := strings.TrimRight(strings.Join(result, "\n"), "\n") + "\n"

	after := make(map[string]any)
	if err := toml.Unmarshal([]byte(cleaned), &after); err != nil || hasTOMLServer(after) {
		return false, fmt.Errorf("%s: %s is not a standalone table; edit the file by hand", path, tomlHeader)
	}
	if strings.TrimSpace(cleaned) == "" {
		return true, os.Remove(path)
	}
	return true, os.WriteFile(path, []byte(cleaned), 0o644) // #nosec G306 -- agent TOML config is not a sensitive credential file
}
