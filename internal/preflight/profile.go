package preflight

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Aman-CERP/shipcheck/internal/finding"
)

func (ev *evaluation) profileSubject(field string) string {
	s := "build." + ev.profile
	if field != "" {
		s += "." + field
	}
	return s
}

func checkBuildProfile(ev *evaluation) []finding.Finding {
	if _, ok := ev.profiles[ev.profile]; !ok {
		return []finding.Finding{finding.Failf(ev.profileSubject(""), "profile %q is not defined; autoIncrement and env checks skipped", ev.profile)}
	}
	return []finding.Finding{finding.Passf(ev.profileSubject(""), "defined")}
}

func checkAutoIncrement(ev *evaluation) []finding.Finding {
	subject := ev.profileSubject("autoIncrement")
	if v, ok := ev.profiles[ev.profile].AutoIncrement.(bool); ok && v {
		return []finding.Finding{finding.Passf(subject, "autoIncrement is true")}
	}
	return []finding.Finding{finding.Failf(subject, "autoIncrement is not true")}
}

func checkEnv(ev *evaluation) []finding.Finding {
	subject := ev.profileSubject("env")
	keys := ev.profiles[ev.profile].EnvKeys()
	if len(keys) == 0 {
		return []finding.Finding{finding.Warnf(subject, "no environment variables declared")}
	}
	return []finding.Finding{finding.Passf(subject, "%s", strings.Join(keys, ", "))}
}

const subjectProjectID = "extra.eas.projectId"

func checkProjectID(ev *evaluation) []finding.Finding {
	if out, ok := ev.wrongType(finding.Fail, subjectProjectID, "a string", "extra.eas.projectId", "extra.eas", "extra"); ok {
		return out
	}
	if strings.TrimSpace(ev.cfg.ProjectID) == "" {
		return []finding.Finding{finding.Failf(subjectProjectID, "not set; the project is not linked to a build service project")}
	}
	return []finding.Finding{finding.Passf(subjectProjectID, "%s", ev.cfg.ProjectID)}
}

func checkLockfile(ev *evaluation) []finding.Finding {
	for _, name := range ev.lockfile {
		info, err := os.Stat(filepath.Join(ev.cfg.ProjectRoot, name))
		if err == nil && !info.IsDir() {
			return []finding.Finding{finding.Passf("lockfile", "%s", name)}
		}
	}
	return []finding.Finding{finding.Failf("lockfile", "none of %s found in project root", strings.Join(ev.lockfile, ", "))}
}

func checkVCSClean(ev *evaluation) []finding.Finding {
	const subject = "vcs"
	if ev.vcs == nil {
		return []finding.Finding{finding.Warnf(subject, "working tree state not checked")}
	}
	status, err := ev.vcs.Status(ev.ctx, ev.cfg.ProjectRoot)
	if err != nil {
		ev.logger.Warn("VCS probe unavailable", slog.String("error", err.Error()))
		return []finding.Finding{finding.Warnf(subject, "cannot determine working tree state: %v", err)}
	}
	if !status.Clean {
		return []finding.Finding{finding.Warnf(subject, "%d uncommitted change(s); the build uploads the working tree as-is", status.Changes)}
	}
	return []finding.Finding{finding.Passf(subject, "working tree clean")}
}
