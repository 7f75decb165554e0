package probe

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	scerrors "github.com/Aman-CERP/shipcheck/internal/errors"
)

// VCSStatus is the working-tree state reported by a VCSProbe.
type VCSStatus struct {
	Clean   bool
	Changes int
}

// VCSProbe reports whether the working tree at dir has uncommitted changes.
type VCSProbe interface {
	Status(ctx context.Context, dir string) (VCSStatus, error)
}

// Git implements VCSProbe with `git status --porcelain`.
type Git struct {
	// Bin overrides the git executable. Empty means "git" on PATH.
	Bin string
}

// Status implements VCSProbe.
func (g Git) Status(ctx context.Context, dir string) (VCSStatus, error) {
	bin := g.Bin
	if bin == "" {
		bin = "git"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return VCSStatus{}, scerrors.ProbeUnavailable("vcs", err)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, "-C", dir, "status", "--porcelain")
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		cause := err
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			cause = fmt.Errorf("%w: %s", err, msg)
		}
		return VCSStatus{}, scerrors.ProbeUnavailable("vcs", cause).WithDetail("dir", dir)
	}
	return ParsePorcelain(out), nil
}

// ParsePorcelain counts changed entries in `git status --porcelain` output.
func ParsePorcelain(out []byte) VCSStatus {
	changes := 0
	for _, line := range strings.Split(string(out), "\n") {
		if strings.TrimSpace(line) != "" {
			changes++
		}
	}
	return VCSStatus{Clean: changes == 0, Changes: changes}
}
