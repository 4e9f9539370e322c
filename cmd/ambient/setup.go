package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

const serverKey = "ambient"

func newInitCmd(a *app) *cobra.Command {
	var (
		force bool
		dir   string
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter .ambient/config.yaml and externs directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := defaultConfig()
			cfg.Externs = []string{dir}
			if err := writeConfig(a.configPath, cfg, force); err != nil {
				return err
			}
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("create %s: %w", dir, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", a.configPath)
			fmt.Fprintf(cmd.OutOrStdout(), "put externs files in %s/ and run: ambient check\n", dir)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config")
	cmd.Flags().StringVar(&dir, "dir", "externs", "Directory holding the project's externs")
	return cmd
}

// agent describes how one MCP client is found and configured.
type agent struct {
	id   string
	name string

	// binary is set for agents configured through their own CLI.
	binary string

	// configPath and serversKey are set for agents configured by editing a
	// JSON file. markers are directories whose presence means the agent is
	// used in this project; with no markers the config's parent directory
	// must exist.
	configPath func() string
	serversKey string
	markers    []string
	extra      map[string]string
}

// foundAgent is an agent detected on this machine.
type foundAgent struct {
	agent
	path       string
	configured bool
}

// Replaceable for testing.
var (
	lookPath = exec.LookPath
	statPath = os.Stat
	runCLI   = func(name string, args ...string) error {
		cmd := exec.Command(name, args...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		return cmd.Run()
	}
)

var knownAgents = []agent{
	{id: "claude_code", name: "Claude Code", binary: "claude"},
	{id: "openai_codex", name: "OpenAI Codex", binary: "codex"},
	{
		id: "vscode", name: "VS Code",
		configPath: func() string { return filepath.Join(".vscode", "mcp.json") },
		serversKey: "servers", markers: []string{".vscode"},
		extra: map[string]string{"type": "stdio"},
	},
	{
		id: "cursor", name: "Cursor",
		configPath: func() string { return filepath.Join(".cursor", "mcp.json") },
		serversKey: "mcpServers", markers: []string{".cursor"},
	},
	{id: "claude_desktop", name: "Claude Desktop", configPath: desktopConfigPath, serversKey: "mcpServers"},
}

func desktopConfigPath() string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Claude", "claude_desktop_config.json")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Claude", "claude_desktop_config.json")
	default:
		return filepath.Join(home, ".config", "Claude", "claude_desktop_config.json")
	}
}

func newSetupCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Register `ambient serve` with the MCP clients found on this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetup(a.stdin, cmd.OutOrStdout(), detectAgents(), yes)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Configure every detected client without asking")
	return cmd
}

func detectAgents() []foundAgent {
	var found []foundAgent
	for _, ag := range knownAgents {
		if ag.binary != "" {
			if _, err := lookPath(ag.binary); err == nil {
				found = append(found, foundAgent{agent: ag, configured: hasServer(".mcp.json", "mcpServers")})
			}
			continue
		}

		path := ag.configPath()
		present := false
		for _, m := range ag.markers {
			if _, err := statPath(m); err == nil {
				present = true
				break
			}
		}
		if len(ag.markers) == 0 {
			_, err := statPath(filepath.Dir(path))
			present = err == nil
		}
		if present {
			found = append(found, foundAgent{agent: ag, path: path, configured: hasServer(path, ag.serversKey)})
		}
	}
	return found
}

// hasServer reports whether the JSON config at path already lists us.
func hasServer(path, serversKey string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var config map[string]any
	if json.Unmarshal(data, &config) != nil {
		return false
	}
	servers, _ := config[serversKey].(map[string]any)
	_, ok := servers[serverKey]
	return ok
}

// addServer merges our server entry into existing JSON under serversKey.
// Returns nil, nil when the entry is already present.
func addServer(existing []byte, serversKey string, extra map[string]string) ([]byte, error) {
	config := make(map[string]any)
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &config); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	}
	servers, ok := config[serversKey].(map[string]any)
	if !ok {
		servers = make(map[string]any)
	}
	if _, exists := servers[serverKey]; exists {
		return nil, nil
	}

	entry := map[string]any{"command": "ambient", "args": []any{"serve"}}
	for k, v := range extra {
		entry[k] = v
	}
	servers[serverKey] = entry
	config[serversKey] = servers

	out, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

func configure(f foundAgent) error {
	if f.binary != "" {
		return runCLI(f.binary, "mcp", "add", "--scope", "project", serverKey, "--", "ambient", "serve")
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	existing, err := os.ReadFile(f.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	merged, err := addServer(existing, f.serversKey, f.extra)
	if err != nil || merged == nil {
		return err
	}
	return os.WriteFile(f.path, merged, 0644)
}

func runSetup(r io.Reader, w io.Writer, found []foundAgent, yes bool) error {
	if len(found) == 0 {
		fmt.Fprintln(w, "No supported MCP clients detected.")
		return nil
	}
	in := bufio.NewScanner(r)

	for _, f := range found {
		if f.configured {
			fmt.Fprintf(w, "  = %s already configured\n", f.name)
			continue
		}
		if !yes && !confirm(in, w, fmt.Sprintf("Add ambient to %s? [Y/n] ", f.name)) {
			fmt.Fprintf(w, "  - %s skipped\n", f.name)
			continue
		}
		if err := configure(f); err != nil {
			fmt.Fprintf(w, "  ! %s: %v\n", f.name, err)
			continue
		}
		if f.path != "" {
			fmt.Fprintf(w, "  + %s configured (%s)\n", f.name, f.path)
		} else {
			fmt.Fprintf(w, "  + %s configured\n", f.name)
		}
	}
	return nil
}

// confirm asks a yes/no question. Empty input and EOF mean yes.
func confirm(in *bufio.Scanner, w io.Writer, question string) bool {
	fmt.Fprint(w, question)
	if !in.Scan() {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(in.Text())) {
	case "", "y", "yes":
		return true
	}
	return false
}
