package git

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// GitSync versions the template library with git. Templates are static,
// version-controlled text; this is their whole lifecycle story, so the
// library doubles as a working tree.
type GitSync struct {
	baseDir string
	enabled bool
	logger  *zap.Logger
}

// NewGitSync creates a new GitSync instance for the library directory
func NewGitSync(baseDir string, logger *zap.Logger) *GitSync {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GitSync{
		baseDir: baseDir,
		logger:  logger,
	}
}

// IsEnabled returns true if git sync is available and enabled
func (g *GitSync) IsEnabled() bool {
	return g.enabled && g.isGitInitialized()
}

// Initialize checks if git is set up and enables sync if available
func (g *GitSync) Initialize() error {
	if !g.isGitInitialized() {
		g.enabled = false
		return nil // Not an error, just not available
	}

	if !g.hasRemote() {
		g.enabled = false
		return nil
	}

	g.enabled = true
	return nil
}

// SetupRepository initializes git in the library and wires up the remote
func (g *GitSync) SetupRepository(repoURL string) error {
	if repoURL == "" {
		return fmt.Errorf("repository URL cannot be empty")
	}

	if !g.isGitInitialized() {
		if err := g.runGitCommand("init"); err != nil {
			return fmt.Errorf("failed to initialize git repository: %w", err)
		}
	}

	if g.hasRemote() {
		if err := g.runGitCommand("remote", "set-url", "origin", repoURL); err != nil {
			return fmt.Errorf("failed to update remote: %w", err)
		}
	} else {
		if err := g.runGitCommand("remote", "add", "origin", repoURL); err != nil {
			return fmt.Errorf("failed to add remote: %w", err)
		}
	}

	g.enabled = true
	g.logger.Info("git sync configured", zap.String("remote", repoURL))
	return nil
}

// Sync commits local changes, pulls the remote, and pushes
func (g *GitSync) Sync(ctx context.Context) error {
	if !g.IsEnabled() {
		return fmt.Errorf("git sync is not configured")
	}

	if g.hasLocalChanges() {
		if err := g.runGitCommand("add", "-A"); err != nil {
			return fmt.Errorf("failed to stage changes: %w", err)
		}
		message := fmt.Sprintf("Update template library (%s)", time.Now().Format("2006-01-02 15:04"))
		if err := g.runGitCommand("commit", "-m", message); err != nil {
			return fmt.Errorf("failed to commit changes: %w", err)
		}
	}

	if err := g.runGitCommandContext(ctx, "pull", "--rebase", "origin", g.currentBranch()); err != nil {
		return fmt.Errorf("failed to pull from remote: %w", err)
	}

	if err := g.runGitCommandContext(ctx, "push", "origin", g.currentBranch()); err != nil {
		return fmt.Errorf("failed to push to remote: %w", err)
	}

	g.logger.Debug("library synced")
	return nil
}

// StartPeriodicSync syncs in the background until the context is cancelled
func (g *GitSync) StartPeriodicSync(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := g.Sync(ctx); err != nil {
					g.logger.Warn("periodic sync failed", zap.Error(err))
				}
			}
		}
	}()
}

// Status returns a short human-readable sync status
func (g *GitSync) Status() string {
	if !g.isGitInitialized() {
		return "git not initialized"
	}
	if !g.hasRemote() {
		return "no remote configured"
	}
	if g.hasLocalChanges() {
		return "local changes pending"
	}
	return "clean"
}

func (g *GitSync) isGitInitialized() bool {
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = g.baseDir
	return cmd.Run() == nil
}

func (g *GitSync) hasRemote() bool {
	cmd := exec.Command("git", "remote")
	cmd.Dir = g.baseDir
	output, err := cmd.Output()
	return err == nil && strings.TrimSpace(string(output)) != ""
}

func (g *GitSync) hasLocalChanges() bool {
	cmd := exec.Command("git", "status", "--porcelain")
	cmd.Dir = g.baseDir
	output, err := cmd.Output()
	return err == nil && strings.TrimSpace(string(output)) != ""
}

func (g *GitSync) currentBranch() string {
	cmd := exec.Command("git", "rev-parse", "--abbrev-ref", "HEAD")
	cmd.Dir = g.baseDir
	output, err := cmd.Output()
	if err != nil {
		return "master"
	}
	branch := strings.TrimSpace(string(output))
	if branch == "" || branch == "HEAD" {
		return "master"
	}
	return branch
}

func (g *GitSync) runGitCommand(args ...string) error {
	return g.runGitCommandContext(context.Background(), args...)
}

func (g *GitSync) runGitCommandContext(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.baseDir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git %s: %s", strings.Join(args, " "), strings.TrimSpace(string(output)))
	}
	return nil
}
