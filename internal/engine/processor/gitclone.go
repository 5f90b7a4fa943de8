package processor

import (
	"context"
	"net/url"
	"os/exec"
	"path/filepath"

	engctx "github.com/blendle/automaat/internal/engine/context"
)

// GitClone clones a remote repository into the job workspace, optionally
// authenticating with a plaintext username/password pair.
type GitClone struct {
	URL      string  `json:"url"`
	Username *string `json:"username,omitempty"`
	Password *string `json:"password,omitempty"`
	Path     *string `json:"path,omitempty"`
}

const (
	KindGit = "Git"
)

func (p *GitClone) Name() string { return "Git Clone" }

// Validate checks that Path, if set, is a plain relative path (I5).
func (p *GitClone) Validate() error {
	if p.Path != nil {
		if err := validateNormalPath(*p.Path); err != nil {
			return err
		}
	}
	return nil
}

// Run clones URL into <workspace>/<path?> using shelled-out `git`, injecting
// plaintext credentials into the remote URL when both Username and Password
// are set. The credentials are carried as plaintext userinfo in the URL.
func (p *GitClone) Run(ctx context.Context, ectx *engctx.Context) (*string, error) {
	dest := ectx.WorkspacePath()
	if p.Path != nil && *p.Path != "" {
		dest = filepath.Join(dest, *p.Path)
	}

	cloneURL, err := p.credentialedURL()
	if err != nil {
		return nil, wrapError(KindGit, err, "invalid repository url: %s", err)
	}

	cmd := exec.CommandContext(ctx, "git", "clone", "--quiet", cloneURL, dest)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, wrapError(KindGit, err, "git error: %s", stripAndTrim(string(out)))
	}

	return nil, nil
}

func (p *GitClone) credentialedURL() (string, error) {
	if p.Username == nil || p.Password == nil {
		return p.URL, nil
	}

	u, err := url.Parse(p.URL)
	if err != nil {
		return "", err
	}
	u.User = url.UserPassword(*p.Username, *p.Password)
	return u.String(), nil
}
