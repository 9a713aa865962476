//go:build e2e && unix

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// RepoOption is a function that configures repository creation
type RepoOption func(*repoOptions)

type repoOptions struct {
	withCommit bool
	dirty      bool
	branch     string
	files      map[string]string // filename -> contents
}

// WithCommit creates the repository with an initial commit
func WithCommit(commit bool) RepoOption {
	return func(opts *repoOptions) {
		opts.withCommit = commit
	}
}

// WithDirtyState leaves a modified file behind
func WithDirtyState() RepoOption {
	return func(opts *repoOptions) {
		opts.dirty = true
	}
}

// WithBranch switches to a named branch before the first commit
func WithBranch(name string) RepoOption {
	return func(opts *repoOptions) {
		opts.branch = name
	}
}

// WithFiles creates the repository with specific files and contents
func WithFiles(files map[string]string) RepoOption {
	return func(opts *repoOptions) {
		opts.files = files
	}
}

// CreateTestWorkspace creates a temporary directory for test repositories
func (tf *TUITestFramework) CreateTestWorkspace() (string, error) {
	tmpDir, err := filepath.EvalSymlinks(tf.t.TempDir())
	if err != nil {
		return "", err
	}
	tf.workspace = tmpDir
	return tmpDir, nil
}

// CreateTestRepo creates a Mercurial repository in the workspace
func (tf *TUITestFramework) CreateTestRepo(name string, options ...RepoOption) (string, error) {
	if tf.workspace == "" {
		return "", fmt.Errorf("workspace not created")
	}

	repoPath := filepath.Join(tf.workspace, name)
	if err := os.MkdirAll(repoPath, 0755); err != nil {
		return "", err
	}
	if _, err := tf.Hg(repoPath, "init"); err != nil {
		return "", err
	}

	opts := &repoOptions{withCommit: true}
	for _, opt := range options {
		opt(opts)
	}

	files := opts.files
	if files == nil {
		files = map[string]string{"README.md": "# " + name + "\n"}
	}
	for filename, content := range files {
		if err := os.WriteFile(filepath.Join(repoPath, filename), []byte(content), 0644); err != nil {
			return "", err
		}
	}

	if opts.branch != "" {
		if _, err := tf.Hg(repoPath, "branch", opts.branch); err != nil {
			return "", err
		}
	}

	if opts.withCommit {
		if _, err := tf.Hg(repoPath, "commit", "--addremove", "--message", "Initial commit"); err != nil {
			return "", err
		}
	}

	if opts.dirty {
		for filename := range files {
			f, err := os.OpenFile(filepath.Join(repoPath, filename), os.O_APPEND|os.O_WRONLY, 0644)
			if err != nil {
				return "", err
			}
			_, err = f.WriteString("changed\n")
			f.Close()
			if err != nil {
				return "", err
			}
			break
		}
	}

	return repoPath, nil
}

// Hg runs hg in dir with the isolated environment and returns its output
func (tf *TUITestFramework) Hg(dir string, args ...string) (string, error) {
	cmd := exec.Command("hg", args...)
	cmd.Dir = dir
	cmd.Env = tf.env()
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("hg %s: %w\n%s", strings.Join(args, " "), err, out)
	}
	return string(out), nil
}

// RunCLI runs the hggrip binary without a terminal and returns its output
func (tf *TUITestFramework) RunCLI(stdin string, args ...string) (string, error) {
	args = append([]string{"--config", tf.configPath()}, args...)
	cmd := exec.Command(binPath, args...)
	cmd.Dir = tf.workspace
	cmd.Env = tf.env()
	cmd.Stdin = strings.NewReader(stdin)
	out, err := cmd.CombinedOutput()
	return string(out), err
}
