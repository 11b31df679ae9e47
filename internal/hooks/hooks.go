// Package hooks runs user-configured shell commands before and after a round.
package hooks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
)

// Lifecycle points a hook can be attached to.
const (
	BeforeRound = "before_round"
	AfterRound  = "after_round"
)

// HookConfig defines a single hook command.
type HookConfig struct {
	Command          string `yaml:"command" json:"command"`
	WorkingDirectory string `yaml:"working_directory,omitempty" json:"working_directory,omitempty"`
	ExitCodes        []int  `yaml:"exit_codes,omitempty" json:"exit_codes,omitempty"`
	ErrorOnFail      bool   `yaml:"error_on_fail,omitempty" json:"error_on_fail,omitempty"`
}

// HooksConfig holds all round lifecycle hooks.
type HooksConfig struct {
	BeforeRound []HookConfig `yaml:"before_round,omitempty" json:"before_round,omitempty"`
	AfterRound  []HookConfig `yaml:"after_round,omitempty" json:"after_round,omitempty"`
}

// RoundEnv describes the round a hook runs for. It is exposed to the hook
// process as FORGE_* environment variables; empty fields are omitted.
type RoundEnv struct {
	RunID        string
	Genre        string
	Winner       string
	ArtifactPath string
	Degraded     bool
}

func (e RoundEnv) vars() []string {
	m := map[string]string{
		"FORGE_RUN_ID":   e.RunID,
		"FORGE_GENRE":    e.Genre,
		"FORGE_WINNER":   e.Winner,
		"FORGE_ARTIFACT": e.ArtifactPath,
	}
	if e.Degraded {
		m["FORGE_DEGRADED"] = strconv.FormatBool(true)
	}
	out := make([]string, 0, len(m))
	for k, v := range m {
		if v != "" {
			out = append(out, k+"="+v)
		}
	}
	sort.Strings(out)
	return out
}

// Runner executes hook commands at lifecycle points.
type Runner struct {
	Verbose bool
}

// Execute runs all hooks for a given lifecycle point in order.
// name identifies the lifecycle point (e.g. "before_round") for logging and error context.
func (r *Runner) Execute(ctx context.Context, name string, hooks []HookConfig, env RoundEnv) error {
	for i, h := range hooks {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("hook %s: context canceled: %w", name, err)
		}

		if err := r.runHook(ctx, name, i, h, env); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runHook(ctx context.Context, name string, index int, h HookConfig, env RoundEnv) error {
	if strings.TrimSpace(h.Command) == "" {
		return fmt.Errorf("hook %s[%d]: empty command", name, index)
	}

	parts := strings.Fields(h.Command)
	//nolint:gosec // hook commands come from the project's own .forge.yaml
	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	cmd.Env = append(os.Environ(), env.vars()...)
	if h.WorkingDirectory != "" {
		cmd.Dir = h.WorkingDirectory
	}

	output, err := cmd.CombinedOutput()

	if r.Verbose && len(output) > 0 {
		fmt.Printf("[hook:%s] %s\n", name, string(output))
	}

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			// command not found, permission denied, ...
			if h.ErrorOnFail {
				return fmt.Errorf("hook %s[%d]: %w", name, index, err)
			}
			fmt.Printf("[WARN] hook %s[%d] failed: %v\n", name, index, err)
			return nil
		}
		exitCode = exitErr.ExitCode()
	}

	if !isAcceptableExit(exitCode, h.ExitCodes) {
		if h.ErrorOnFail {
			return fmt.Errorf("hook %s[%d]: command exited with code %d", name, index, exitCode)
		}
		fmt.Printf("[WARN] hook %s[%d] exited with code %d (continuing)\n", name, index, exitCode)
	}
	return nil
}

// isAcceptableExit checks whether exitCode is in the allowed list.
// An empty allowedCodes list defaults to allowing only exit code 0.
func isAcceptableExit(exitCode int, allowedCodes []int) bool {
	if len(allowedCodes) == 0 {
		return exitCode == 0
	}
	for _, code := range allowedCodes {
		if exitCode == code {
			return true
		}
	}
	return false
}
