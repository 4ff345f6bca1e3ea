package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

const defaultPprofHTTPAddress = ":8081"

// pprofSession is a background "go tool pprof -http" process together with
// the temporary export it reads.
type pprofSession struct {
	process *os.Process
	cleanup func()
}

// sessionManager tracks the pprof processes started by this server.
type sessionManager struct {
	mu       sync.Mutex
	sessions map[int]*pprofSession
}

func newSessionManager() *sessionManager {
	return &sessionManager{sessions: make(map[int]*pprofSession)}
}

func (m *sessionManager) add(s *pprofSession) int {
	pid := s.process.Pid
	m.mu.Lock()
	m.sessions[pid] = s
	m.mu.Unlock()
	return pid
}

// remove forgets pid and returns its session.
func (m *sessionManager) remove(pid int) (*pprofSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[pid]
	if ok {
		delete(m.sessions, pid)
	}
	return s, ok
}

// drain forgets every session and returns them.
func (m *sessionManager) drain() map[int]*pprofSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	sessions := m.sessions
	m.sessions = make(map[int]*pprofSession)
	return sessions
}

// terminate interrupts the process, falling back to kill, and then removes
// the temporary export.
func (s *pprofSession) terminate(pid int) error {
	defer s.cleanup()

	zap.S().Infof("Sending Interrupt signal to PID %d...", pid)
	if err := s.process.Signal(os.Interrupt); err != nil {
		zap.S().Warnf("Failed to send Interrupt to PID %d: %v. Trying Kill.", pid, err)
		if err := s.process.Signal(os.Kill); err != nil {
			return fmt.Errorf("failed to terminate PID %d: %w", pid, err)
		}
	}

	_, err := s.process.Wait()
	if err != nil && !strings.Contains(err.Error(), "no child processes") && !strings.Contains(err.Error(), "signal:") {
		zap.S().Warnf("Error waiting for PID %d after signaling: %v", pid, err)
	}
	return nil
}

// handleOpenInteractivePprof serves "open_interactive_pprof".
func (h *toolHandlers) handleOpenInteractivePprof(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments

	profileURI, err := requiredString(args, "profile_uri")
	if err != nil {
		return nil, err
	}
	httpAddress := optionalString(args, "http_address", defaultPprofHTTPAddress)

	zap.S().Infof("Handling open_interactive_pprof: URI=%s, Address=%s", profileURI, httpAddress)

	if _, err := exec.LookPath("go"); err != nil {
		zap.S().Error("'go' command not found in PATH")
		return nil, fmt.Errorf("'go' command not found in PATH, cannot start pprof")
	}

	doc, err := loadProfile(ctx, profileURI)
	if err != nil {
		return nil, err
	}
	// The export has to outlive this request; the session owns it from here.
	pprofPath, cleanup, err := writeTempPprof(doc)
	if err != nil {
		return nil, err
	}

	cmdArgs := []string{"tool", "pprof", "-http=" + httpAddress, pprofPath}
	zap.S().Infof("Starting in background: go %s", strings.Join(cmdArgs, " "))

	// Not bound to ctx: the process must survive the request.
	cmd := exec.Command("go", cmdArgs...)
	if err := cmd.Start(); err != nil {
		cleanup()
		zap.S().Errorf("Error starting 'go tool pprof' in background: %v", err)
		return nil, fmt.Errorf("failed to start 'go tool pprof': %w", err)
	}
	pid := h.sessions.add(&pprofSession{process: cmd.Process, cleanup: cleanup})

	zap.S().Infof("Started 'go tool pprof' in background with PID: %d", pid)
	resultText := fmt.Sprintf("Started 'go tool pprof' (PID: %d) for '%s', listening on about %s.", pid, profileURI, httpAddress)
	resultText += "\nUse 'disconnect_pprof_session' with this PID to stop it."
	return textResult(resultText), nil
}

// handleDisconnectPprofSession serves "disconnect_pprof_session".
func (h *toolHandlers) handleDisconnectPprofSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments

	pidFloat, ok := args["pid"].(float64)
	if !ok {
		return nil, fmt.Errorf("missing or invalid required argument: pid (number)")
	}
	pid := int(pidFloat)
	if pid <= 0 {
		return nil, fmt.Errorf("invalid PID: %d", pid)
	}

	zap.S().Infof("Handling disconnect_pprof_session for PID: %d", pid)

	session, ok := h.sessions.remove(pid)
	if !ok {
		zap.S().Warnf("PID %d not found in running pprof sessions", pid)
		return nil, fmt.Errorf("no running pprof session with PID %d", pid)
	}
	if err := session.terminate(pid); err != nil {
		return nil, err
	}

	resultText := fmt.Sprintf("Sent termination signal to PID %d.", pid)
	zap.S().Info(resultText)
	return textResult(resultText), nil
}

// setupSignalHandler stops every tracked pprof process on SIGINT or SIGTERM.
func (m *sessionManager) setupSignalHandler() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigs
		zap.S().Infof("Received signal: %s. Cleaning up running pprof processes...", sig)
		m.terminateAll()
	}()
}

func (m *sessionManager) terminateAll() {
	sessions := m.drain()
	if len(sessions) == 0 {
		zap.S().Info("No running pprof processes to terminate.")
		return
	}

	zap.S().Infof("Terminating %d pprof processes", len(sessions))
	var wg sync.WaitGroup
	for pid, s := range sessions {
		wg.Add(1)
		go func(pid int, s *pprofSession) {
			defer wg.Done()
			if err := s.terminate(pid); err != nil {
				zap.S().Warn(err)
			}
		}(pid, s)
	}
	wg.Wait()
	zap.S().Info("Cleanup finished.")
}
