package hooks

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunHook(t *testing.T) {
	// Determine a portable true/false command
	trueCmd := "true"
	falseCmd := "false"
	if runtime.GOOS == "windows" {
		trueCmd = "cmd /c exit 0"
		falseCmd = "cmd /c exit 1"
	}

	tests := []struct {
		name      string
		hook      HookConfig
		wantErr   bool
		errSubstr string
	}{
		{
			name: "command succeeds",
			hook: HookConfig{Command: trueCmd},
		},
		{
			name:      "empty command returns error",
			hook:      HookConfig{Command: ""},
			wantErr:   true,
			errSubstr: "empty command",
		},
		{
			name:      "whitespace-only command returns error",
			hook:      HookConfig{Command: "   "},
			wantErr:   true,
			errSubstr: "empty command",
		},
		{
			name:      "non-zero exit with error_on_fail",
			hook:      HookConfig{Command: falseCmd, ErrorOnFail: true},
			wantErr:   true,
			errSubstr: "exited with code 1",
		},
		{
			name: "non-zero exit without error_on_fail continues",
			hook: HookConfig{Command: falseCmd},
		},
		{
			name: "custom acceptable exit codes",
			hook: HookConfig{Command: falseCmd, ExitCodes: []int{1}, ErrorOnFail: true},
		},
		{
			name:      "zero exit outside acceptable codes",
			hook:      HookConfig{Command: trueCmd, ExitCodes: []int{3}, ErrorOnFail: true},
			wantErr:   true,
			errSubstr: "exited with code 0",
		},
		{
			name:    "missing binary with error_on_fail",
			hook:    HookConfig{Command: "forge-no-such-binary-xyz", ErrorOnFail: true},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := &Runner{}
			err := r.runHook(context.Background(), BeforeRound, 0, tc.hook, RoundEnv{})

			if !tc.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tc.errSubstr != "" {
				require.Contains(t, err.Error(), tc.errSubstr)
			}
		})
	}
}

func TestExecute_ExposesRoundEnvironment(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a POSIX shell script")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "check.sh")
	out := filepath.Join(dir, "out.txt")
	body := "#!/bin/sh\necho \"$FORGE_RUN_ID $FORGE_GENRE $FORGE_WINNER $FORGE_DEGRADED\" > " + out + "\n"
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))

	r := &Runner{}
	err := r.Execute(context.Background(), AfterRound, []HookConfig{{Command: script, ErrorOnFail: true}}, RoundEnv{
		RunID:    "run-1",
		Genre:    "fantasy",
		Winner:   "Mythic Forge",
		Degraded: true,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "run-1 fantasy Mythic Forge true\n", string(data))
}

func TestRoundEnvOmitsEmptyFields(t *testing.T) {
	vars := RoundEnv{Genre: "noir"}.vars()
	require.Equal(t, []string{"FORGE_GENRE=noir"}, vars)
}

func TestExecute_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &Runner{}
	err := r.Execute(ctx, BeforeRound, []HookConfig{{Command: "echo hello"}}, RoundEnv{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "context canceled")
}

func TestExecute_ContextTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Millisecond)
	defer cancel()
	time.Sleep(5 * time.Millisecond)

	r := &Runner{}
	err := r.Execute(ctx, BeforeRound, []HookConfig{{Command: "echo hello"}}, RoundEnv{})
	require.Error(t, err)
}
