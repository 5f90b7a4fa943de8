package processor

import (
	"path/filepath"
	"strings"
)

// validateNormalPath rejects anything other than a plain relative path made
// up of ordinary components: no "..", no leading "/", no Windows drive
// prefix. This mirrors the original's check against
// `path::Component::Normal` for every component of the path (ground truth:
// automaat-processor-git-clone and automaat-processor-shell-command both
// validate paths this way).
func validateNormalPath(path string) error {
	if path == "" {
		return nil
	}
	if filepath.IsAbs(path) {
		return newError(KindPath, "only sibling or child paths are accessible")
	}
	if strings.HasPrefix(path, "/") || strings.Contains(path, `\`) {
		return newError(KindPath, "only sibling or child paths are accessible")
	}
	if len(path) >= 2 && path[1] == ':' &&
		(('a' <= path[0] && path[0] <= 'z') || ('A' <= path[0] && path[0] <= 'Z')) {
		return newError(KindPath, "only sibling or child paths are accessible")
	}

	for _, component := range strings.Split(filepath.ToSlash(path), "/") {
		switch component {
		case "", ".":
			continue
		case "..":
			return newError(KindPath, "only sibling or child paths are accessible")
		}
	}
	return nil
}

const KindPath = "Path"
