// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// startPollInterval is the delay between readiness checks after a launch.
const startPollInterval = 500 * time.Millisecond

// firstExisting returns the first candidate path that exists.
func firstExisting(candidates []string) (string, bool) {
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

// launchAndWait starts "ollama serve" detached and polls until the server
// answers or readyTimeout elapses.
func (c *Client) launchAndWait(ctx context.Context, ollamaPath string, configure func(*exec.Cmd), readyTimeout, checkTimeout time.Duration) error {
	cmd := exec.Command(ollamaPath, "serve")
	cmd.Env = os.Environ()
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil
	configure(cmd)

	if err := cmd.Start(); err != nil {
		return &ClientError{
			Type:    ErrTypeConnection,
			Message: fmt.Sprintf("failed to start Ollama (path: %s)", ollamaPath),
			Cause:   err,
		}
	}

	// Release the process so it keeps running after we exit
	if cmd.Process != nil {
		_ = cmd.Process.Release()
	}

	out := c.config.StartupOutput
	deadline := time.Now().Add(readyTimeout)
	startTime := time.Now()
	var lastErr error

	fmt.Fprintf(out, "Starting Ollama service...\n")

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return &ClientError{
				Type:    ErrTypeCancelled,
				Message: "Ollama startup cancelled",
				Cause:   ctx.Err(),
			}
		default:
		}

		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		lastErr = c.CheckRunning(checkCtx)
		cancel()

		if lastErr == nil {
			fmt.Fprintf(out, "Ollama service started (%.1fs)\n", time.Since(startTime).Seconds())
			return nil
		}

		fmt.Fprintf(out, "\rStarting Ollama service... %.1fs elapsed", time.Since(startTime).Seconds())
		time.Sleep(startPollInterval)
	}

	fmt.Fprintf(out, "\n")

	return &ClientError{
		Type:    ErrTypeNotRunning,
		Message: fmt.Sprintf("Ollama started but not responding after %s (path: %s)", readyTimeout, ollamaPath),
		Cause:   lastErr,
	}
}
