package processor

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/acarl005/stripansi"

	engctx "github.com/blendle/automaat/internal/engine/context"
)

// ShellCommand spawns a subprocess inside (a subdirectory of) the job
// workspace.
type ShellCommand struct {
	Command   string   `json:"command"`
	Arguments []string `json:"arguments,omitempty"`
	Stdin     *string  `json:"stdin,omitempty"`
	Cwd       *string  `json:"cwd,omitempty"`
	Paths     []string `json:"paths,omitempty"`
}

// Error kinds specific to ShellCommand.
const (
	KindCommand = "Command"
)

func (p *ShellCommand) Name() string { return "Shell Command" }

// Validate checks that Cwd and every entry of Paths are plain relative
// paths (I5).
func (p *ShellCommand) Validate() error {
	if p.Cwd != nil {
		if err := validateNormalPath(*p.Cwd); err != nil {
			return err
		}
	}
	for _, path := range p.Paths {
		if err := validateNormalPath(path); err != nil {
			return err
		}
	}
	return nil
}

// Run executes Command with Arguments inside the resolved working
// directory, with Paths prepended to PATH. On non-zero exit it fails with
// the ANSI-stripped, right-trimmed stderr (or a generic message if stderr
// was empty); on success it returns ANSI-stripped, right-trimmed stdout.
func (p *ShellCommand) Run(ctx context.Context, ectx *engctx.Context) (*string, error) {
	workspace := ectx.WorkspacePath()

	cwd := workspace
	if p.Cwd != nil && *p.Cwd != "" {
		cwd = filepath.Join(workspace, *p.Cwd)
	}

	cmd := exec.CommandContext(ctx, p.Command, p.Arguments...)
	cmd.Dir = cwd
	cmd.Env = append(os.Environ(), "PATH="+extendedPath(workspace, p.Paths))

	if p.Stdin != nil {
		cmd.Stdin = strings.NewReader(*p.Stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			message := stripAndTrim(stderr.String())
			if message == "" {
				message = "unknown error during command execution"
			}
			return nil, newError(KindCommand, "%s", message)
		}
		return nil, wrapError(KindIO, err, "IO error: %s", err)
	}

	return textOrNil(stripAndTrim(stdout.String())), nil
}

func extendedPath(workspace string, paths []string) string {
	extra := make([]string, 0, len(paths))
	for _, p := range paths {
		extra = append(extra, filepath.Join(workspace, p))
	}
	extra = append(extra, os.Getenv("PATH"))
	return strings.Join(extra, string(os.PathListSeparator))
}

func stripAndTrim(s string) string {
	return strings.TrimRight(stripansi.Strip(s), " \t\r\n")
}

func textOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
