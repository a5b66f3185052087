package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/danieljhkim/blockpad/internal/config"
	"github.com/danieljhkim/blockpad/internal/engine"
)

// setupTestEnv points BLOCKPAD_ROOT at a temporary directory.
func setupTestEnv(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	t.Setenv(config.RootEnv, root)
	t.Setenv(config.LogLevelEnv, "error")
	return root
}

// resetFlags restores every flag to its default, since cobra keeps parsed
// values between executions.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCommand executes the root command with args and stdin, returning
// stdout.
func runCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var bufOut, bufErr bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&bufOut)
	rootCmd.SetErr(&bufErr)
	rootCmd.SetIn(strings.NewReader(stdin))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		out, errOut = os.Stdout, os.Stderr
	})

	err := rootCmd.Execute()
	return bufOut.String(), err
}

// decodeEvents decodes the stream of JSON objects printed by open --json,
// keeping attach and detach events.
func decodeEvents(t *testing.T, output string) []surfaceEvent {
	t.Helper()
	var events []surfaceEvent
	dec := json.NewDecoder(strings.NewReader(output))
	for {
		var ev surfaceEvent
		err := dec.Decode(&ev)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("invalid JSON output: %v, output: %q", err, output)
		}
		if ev.Event == "attach" || ev.Event == "detach" {
			events = append(events, ev)
		}
	}
	return events
}

func listWorkspaces(t *testing.T, args ...string) workspaceListResult {
	t.Helper()
	output, err := runCommand(t, "", append([]string{"ls", "--json"}, args...)...)
	if err != nil {
		t.Fatalf("ls error = %v", err)
	}
	var result workspaceListResult
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("expected valid JSON output, got error: %v, output: %q", err, output)
	}
	return result
}

func TestLsCommand_FirstRun(t *testing.T) {
	root := setupTestEnv(t)

	result := listWorkspaces(t)
	if len(result.Workspaces) != 1 || result.Workspaces[0] != config.DefaultWorkspaceID {
		t.Errorf("expected [%s], got %v", config.DefaultWorkspaceID, result.Workspaces)
	}
	if result.Selected != config.DefaultWorkspaceID {
		t.Errorf("expected %s to be selected, got %q", config.DefaultWorkspaceID, result.Selected)
	}

	data, err := os.ReadFile(filepath.Join(root, "state", "workspaces.json"))
	if err != nil {
		t.Fatalf("expected the workspace list to be persisted: %v", err)
	}
	var saved []string
	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatalf("persisted list is not JSON: %v", err)
	}
	if len(saved) != 1 || saved[0] != config.DefaultWorkspaceID {
		t.Errorf("persisted list = %v", saved)
	}
}

func TestLsCommand_TableOutput(t *testing.T) {
	setupTestEnv(t)

	output, err := runCommand(t, "", "ls")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(output, "Workspaces") || !strings.Contains(output, config.DefaultWorkspaceID) {
		t.Errorf("unexpected ls output: %q", output)
	}
}

func TestAddAndRmCommands(t *testing.T) {
	setupTestEnv(t)

	if _, err := runCommand(t, "", "add", "notes"); err != nil {
		t.Fatalf("add error = %v", err)
	}
	result := listWorkspaces(t)
	want := []string{config.DefaultWorkspaceID, "notes"}
	if strings.Join(result.Workspaces, ",") != strings.Join(want, ",") {
		t.Errorf("workspaces = %v, want %v", result.Workspaces, want)
	}

	_, err := runCommand(t, "", "add", "notes")
	if !errors.Is(err, engine.ErrExists) {
		t.Errorf("expected ErrExists for a duplicate add, got %v", err)
	}

	if _, err := runCommand(t, "", "add", "../escape"); err == nil {
		t.Error("expected error for an invalid workspace id")
	}

	if _, err := runCommand(t, "", "rm", config.DefaultWorkspaceID); err != nil {
		t.Fatalf("rm error = %v", err)
	}
	result = listWorkspaces(t)
	if strings.Join(result.Workspaces, ",") != "notes" {
		t.Errorf("workspaces after rm = %v", result.Workspaces)
	}
	if result.Selected != "notes" {
		t.Errorf("expected the first listed workspace to be selected, got %q", result.Selected)
	}

	_, err = runCommand(t, "", "rm", "missing")
	if !errors.Is(err, engine.ErrNotFound) {
		t.Errorf("expected ErrNotFound for an unknown id, got %v", err)
	}
}

func TestOpenCommand_BootstrapsOnce(t *testing.T) {
	root := setupTestEnv(t)

	for i := 0; i < 2; i++ {
		output, err := runCommand(t, "", "open", "--json")
		if err != nil {
			t.Fatalf("open #%d error = %v", i, err)
		}

		events := decodeEvents(t, output)
		if len(events) != 2 || events[0].Event != "attach" || events[1].Event != "detach" {
			t.Fatalf("open #%d events = %+v", i, events)
		}
		attach := events[0]
		if attach.Workspace != config.DefaultWorkspaceID || attach.Page != "page0" {
			t.Errorf("open #%d attached %s/%s", i, attach.Workspace, attach.Page)
		}

		var flavours []string
		for _, b := range attach.Blocks {
			flavours = append(flavours, b.Flavour)
		}
		want := "core:page,core:surface,core:frame,core:paragraph"
		if strings.Join(flavours, ",") != want {
			t.Errorf("open #%d outline = %v, want %s", i, flavours, want)
		}
		if attach.Blocks[3].Depth != 2 {
			t.Errorf("expected the paragraph under the frame, got depth %d", attach.Blocks[3].Depth)
		}
	}

	if _, err := os.Stat(filepath.Join(root, "docs", config.DefaultWorkspaceID+".cbor")); err != nil {
		t.Errorf("expected the document to be saved: %v", err)
	}
}

func TestOpenCommand_TextOutput(t *testing.T) {
	setupTestEnv(t)

	output, err := runCommand(t, "", "open")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	for _, want := range []string{"Workspace " + config.DefaultWorkspaceID, "core:paragraph", `type="text"`, "closed " + config.DefaultWorkspaceID} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got %q", want, output)
		}
	}
}

func TestOpenCommand_UnknownWorkspace(t *testing.T) {
	setupTestEnv(t)

	_, err := runCommand(t, "", "open", "nope")
	if err == nil || !strings.Contains(err.Error(), "blockpad add nope") {
		t.Errorf("expected a hint to add the workspace, got %v", err)
	}
}

func TestOpenCommand_NoWorkspaces(t *testing.T) {
	setupTestEnv(t)

	if _, err := runCommand(t, "", "rm", config.DefaultWorkspaceID); err != nil {
		t.Fatalf("rm error = %v", err)
	}
	_, err := runCommand(t, "", "open")
	if err == nil || !strings.Contains(err.Error(), "no workspaces") {
		t.Errorf("expected no workspaces error, got %v", err)
	}
}

func TestOpenCommand_WatchSwitchesWorkspaces(t *testing.T) {
	setupTestEnv(t)

	if _, err := runCommand(t, "", "add", "notes"); err != nil {
		t.Fatalf("add error = %v", err)
	}

	output, err := runCommand(t, "missing\n\nnotes\n", "open", "--watch", "--json")
	if err != nil {
		t.Fatalf("open --watch error = %v", err)
	}

	var got []string
	for _, ev := range decodeEvents(t, output) {
		got = append(got, ev.Event+" "+ev.Workspace)
	}
	want := []string{
		"attach " + config.DefaultWorkspaceID,
		"detach " + config.DefaultWorkspaceID,
		"attach notes",
		"detach notes",
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestStatusCommand(t *testing.T) {
	setupTestEnv(t)

	if _, err := runCommand(t, "", "add", "notes"); err != nil {
		t.Fatalf("add error = %v", err)
	}
	output, err := runCommand(t, "", "status", "--json")
	if err != nil {
		t.Fatalf("status error = %v", err)
	}

	var result engine.StatusResult
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("expected valid JSON output, got error: %v, output: %q", err, output)
	}
	if result.Selected != config.DefaultWorkspaceID {
		t.Errorf("selected = %q", result.Selected)
	}
	if result.Connected != 1 {
		t.Errorf("expected one connected provider, got %d", result.Connected)
	}
	if len(result.Workspaces) != 2 {
		t.Fatalf("expected 2 workspaces, got %+v", result.Workspaces)
	}
	if ws := result.Workspaces[0]; !ws.Loaded || ws.State != "connected" || ws.Error != "" {
		t.Errorf("selected workspace status = %+v", ws)
	}
	if ws := result.Workspaces[1]; ws.Loaded {
		t.Errorf("unselected workspace should not be loaded: %+v", ws)
	}
}

func TestEphemeralFlag(t *testing.T) {
	root := setupTestEnv(t)

	if _, err := runCommand(t, "", "add", "scratch", "--ephemeral"); err != nil {
		t.Fatalf("add error = %v", err)
	}
	result := listWorkspaces(t, "--ephemeral")
	if strings.Join(result.Workspaces, ",") != config.DefaultWorkspaceID {
		t.Errorf("ephemeral sessions should not share state, got %v", result.Workspaces)
	}
	if _, err := os.Stat(filepath.Join(root, "state")); !os.IsNotExist(err) {
		t.Errorf("expected nothing written under the root, stat err = %v", err)
	}
}

func TestConfigFile(t *testing.T) {
	root := setupTestEnv(t)

	cfgPath := filepath.Join(root, "custom.yaml")
	if err := os.WriteFile(cfgPath, []byte("default_workspace: inbox\nwatch: false\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	result := listWorkspaces(t, "--config", cfgPath)
	if strings.Join(result.Workspaces, ",") != "inbox" {
		t.Errorf("expected the configured default workspace, got %v", result.Workspaces)
	}

	if err := os.WriteFile(cfgPath, []byte("default_workspace: [oops"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := runCommand(t, "", "ls", "--config", cfgPath); err == nil {
		t.Error("expected error for a malformed config file")
	}
}
