package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const (
	serverBinaryName   = "tubegrab-server"
	serverStartTimeout = 15 * time.Second
	serverPollInterval = 250 * time.Millisecond
	readyProbeTimeout  = 2 * time.Second
)

// Ready reports whether the server is accepting downloads
func (c *apiClient) Ready() error {
	return c.do(http.MethodGet, "/ready", nil, nil)
}

// serverStarter brings up a local server when the CLI finds none answering
type serverStarter struct {
	client       *apiClient
	configPath   string
	findBinary   func() (string, error)
	launch       func(ctx context.Context, binary string, args []string) error
	pollInterval time.Duration
	startTimeout time.Duration
	out          io.Writer
}

func newServerStarter(baseURL, configPath string) *serverStarter {
	return &serverStarter{
		client:       newAPIClient(baseURL, readyProbeTimeout),
		configPath:   configPath,
		findBinary:   findServerBinary,
		launch:       launchServer,
		pollInterval: serverPollInterval,
		startTimeout: serverStartTimeout,
		out:          os.Stderr,
	}
}

// ensure returns nil once the server answers /ready, starting it first if it
// is local and not running
func (s *serverStarter) ensure(ctx context.Context) error {
	if s.client.Ready() == nil {
		return nil
	}
	if !isLoopbackURL(s.client.baseURL) {
		return fmt.Errorf("server at %s is not ready", s.client.baseURL)
	}

	binary, err := s.findBinary()
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "Server not running, starting %s...\n", binary)
	ctx, cancel := context.WithTimeout(ctx, s.startTimeout)
	defer cancel()

	if err := s.launch(ctx, binary, s.serverArgs()); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	if err := s.waitReady(ctx); err != nil {
		return err
	}

	fmt.Fprintln(s.out, "Server started")
	return nil
}

func (s *serverStarter) serverArgs() []string {
	if s.configPath == "" {
		return nil
	}
	return []string{"-config", s.configPath}
}

func (s *serverStarter) waitReady(ctx context.Context) error {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	var lastErr error
	for {
		if lastErr = s.client.Ready(); lastErr == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("server not ready within %v: %w", s.startTimeout, lastErr)
		case <-ticker.C:
		}
	}
}

// isLoopbackURL reports whether rawURL points at this machine
func isLoopbackURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// findServerBinary looks next to the CLI binary first, then on PATH
func findServerBinary() (string, error) {
	if execPath, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(execPath), serverBinaryName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	if path, err := exec.LookPath(serverBinaryName); err == nil {
		return path, nil
	}
	return "", fmt.Errorf("%s binary not found next to the CLI or on PATH", serverBinaryName)
}

// launchServer runs the server binary, which detaches itself and exits
func launchServer(ctx context.Context, binary string, args []string) error {
	output, err := exec.CommandContext(ctx, binary, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
