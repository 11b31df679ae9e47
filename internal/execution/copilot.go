package execution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	copilot "github.com/github/copilot-sdk/go"
)

// CopilotEngine sends completions through the GitHub Copilot SDK. Every
// request gets its own session inside a scratch working directory.
type CopilotEngine struct {
	defaultModelID string

	client copilotClient

	startOnce sync.Once
	startErr  error

	workspacesMu sync.Mutex
	workspaces   []string // workspaces to clean up at Shutdown
}

// CopilotEngineBuilder builds a CopilotEngine with options
type CopilotEngineBuilder struct {
	engine *CopilotEngine
}

type CopilotEngineBuilderOptions struct {
	NewCopilotClient func(clientOptions *copilot.ClientOptions) copilotClient
}

// NewCopilotEngineBuilder creates a builder for CopilotEngine
//   - defaultModelID - used when a request names no model. Can be blank, which
//     means the copilot CLI will choose its own model.
func NewCopilotEngineBuilder(defaultModelID string, options *CopilotEngineBuilderOptions) *CopilotEngineBuilder {
	copilotOptions := &copilot.ClientOptions{
		LogLevel:  "error",
		AutoStart: copilot.Bool(false),
	}

	var client copilotClient
	if options == nil || options.NewCopilotClient == nil {
		client = newCopilotClient(copilotOptions)
	} else {
		client = options.NewCopilotClient(copilotOptions)
	}

	return &CopilotEngineBuilder{
		engine: &CopilotEngine{
			defaultModelID: defaultModelID,
			client:         client,
		},
	}
}

func (b *CopilotEngineBuilder) Build() *CopilotEngine {
	return b.engine
}

// Initialize is a no-op; the client starts on first use.
func (e *CopilotEngine) Initialize(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// start runs client.Start exactly once. The copilot client's own autostart
// misbehaves when several goroutines trigger it at the same time.
func (e *CopilotEngine) start(ctx context.Context) error {
	e.startOnce.Do(func() {
		e.startErr = e.client.Start(ctx)
	})
	if e.startErr != nil {
		return fmt.Errorf("copilot failed to start: %w", e.startErr)
	}
	return nil
}

// Probe checks that a session can be opened for modelID.
func (e *CopilotEngine) Probe(ctx context.Context, modelID string) error {
	if err := e.start(ctx); err != nil {
		return err
	}

	workspaceDir, err := e.newWorkspace()
	if err != nil {
		return err
	}

	if _, err := e.client.CreateSession(ctx, &copilot.SessionConfig{
		Model:               modelID,
		OnPermissionRequest: allowAllTools,
		WorkingDirectory:    workspaceDir,
	}); err != nil {
		return fmt.Errorf("model %s is not available: %w", modelID, err)
	}
	return nil
}

// Complete opens a session, sends the prompt and waits for the session to go
// idle. Session errors come back as errors so the caller can retry them.
func (e *CopilotEngine) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	if req == nil {
		return nil, errors.New("nil req was passed to CopilotEngine.Complete")
	}

	if err := e.start(ctx); err != nil {
		return nil, err
	}

	modelID := e.defaultModelID
	if req.ModelID != "" {
		modelID = req.ModelID
	}

	workspaceDir, err := e.newWorkspace()
	if err != nil {
		return nil, err
	}

	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, req.timeout())
	defer cancel()

	session, err := e.client.CreateSession(ctx, &copilot.SessionConfig{
		Model:               modelID,
		OnPermissionRequest: allowAllTools,
		WorkingDirectory:    workspaceDir,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	eventsCollector := NewSessionEventsCollector()

	unsubscribe := session.On(eventsCollector.On)
	defer unsubscribe()

	unsubscribe = session.On(sessionToSlog)
	defer unsubscribe()

	slog.Debug("Sending prompt", "agent", req.AgentName, "model", modelID, "session", session.SessionID())

	if _, err := session.SendAndWait(ctx, copilot.MessageOptions{
		Prompt: buildPrompt(req),
	}); err != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, fmt.Errorf("completion timed out after %s: %w", req.timeout(), ctxErr)
		}
		return nil, fmt.Errorf("failed to send prompt: %w", err)
	}

	if msg := eventsCollector.ErrorMessage(); msg != "" {
		return nil, fmt.Errorf("copilot session %s failed: %s", session.SessionID(), msg)
	}

	if tools := eventsCollector.ToolCalls(); len(tools) > 0 {
		slog.Debug("Model used tools", "agent", req.AgentName, "tools", tools)
	}

	text := strings.TrimSpace(eventsCollector.Output())
	if text == "" {
		return nil, ErrEmptyCompletion
	}

	return &CompletionResponse{
		Text:      text,
		ModelID:   modelID,
		SessionID: session.SessionID(),
		Duration:  time.Since(start),
	}, nil
}

// Shutdown cleans up resources
func (e *CopilotEngine) Shutdown(ctx context.Context) error {
	if err := e.client.Stop(); err != nil {
		// Log but continue cleanup
		slog.Info("failed to stop client", "error", err)
	}

	// safe now that every session is gone
	workspaces := func() []string {
		e.workspacesMu.Lock()
		defer e.workspacesMu.Unlock()
		workspaces := e.workspaces
		e.workspaces = nil
		return workspaces
	}()

	for _, ws := range workspaces {
		if err := os.RemoveAll(ws); err != nil {
			slog.Warn("failed to cleanup stale workspace", "path", ws, "error", err)
		}
	}

	return nil
}

func (e *CopilotEngine) newWorkspace() (string, error) {
	dir, err := os.MkdirTemp("", "forge-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp workspace: %w", err)
	}

	e.workspacesMu.Lock()
	e.workspaces = append(e.workspaces, dir)
	e.workspacesMu.Unlock()

	return dir, nil
}

func buildPrompt(req *CompletionRequest) string {
	if req.SystemPrompt == "" {
		return req.Prompt
	}
	return req.SystemPrompt + "\n\n" + req.Prompt
}

func allowAllTools(request copilot.PermissionRequest, invocation copilot.PermissionInvocation) (copilot.PermissionRequestResult, error) {
	// value for 'Kind' came from the permissions_test.go in the Copilot SDK.
	return copilot.PermissionRequestResult{Kind: "approved"}, nil
}
