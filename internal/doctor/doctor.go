// Package doctor runs environment diagnostics (LLM credentials, git,
// Docker, disk space) and caches the results so repeated `noscope doctor`
// runs within a short window skip slow checks like a Docker ping.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/noscope-dev/noscope/internal/config"
)

// CheckStatus is the outcome of a single diagnostic.
type CheckStatus string

// The three outcomes a Check can report.
const (
	StatusPass CheckStatus = "pass"
	StatusWarn CheckStatus = "warn"
	StatusFail CheckStatus = "fail"
)

// Check is a single diagnostic result.
type Check struct {
	Name    string      `toml:"name"`
	Status  CheckStatus `toml:"status"`
	Detail  string      `toml:"detail"`
}

// Report is the full set of diagnostics from one doctor run, along with
// when it was produced.
type Report struct {
	GeneratedAt time.Time `toml:"generated_at"`
	Checks      []Check   `toml:"checks"`
}

// CacheTTL is how long a cached report is considered fresh enough to reuse
// instead of re-running every check.
const CacheTTL = 5 * time.Minute

// CachePath returns the path doctor reports are cached under.
func CachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".noscope", "doctor_cache.toml")
}

// Run executes every diagnostic fresh, ignoring any cache.
func Run(ctx context.Context) Report {
	report := Report{GeneratedAt: time.Now(), Checks: []Check{
		checkAPIKeys(),
		checkGit(ctx),
		checkDocker(ctx),
		checkDiskSpace(),
	}}
	return report
}

// Cached returns the cached report if one exists and is younger than
// CacheTTL, otherwise it runs the checks fresh and writes the new report to
// the cache.
func Cached(ctx context.Context) Report {
	if report, ok := readCache(); ok {
		return report
	}
	report := Run(ctx)
	_ = writeCache(report)
	return report
}

func readCache() (Report, bool) {
	data, err := os.ReadFile(CachePath())
	if err != nil {
		return Report{}, false
	}
	var report Report
	if err := toml.Unmarshal(data, &report); err != nil {
		return Report{}, false
	}
	if time.Since(report.GeneratedAt) > CacheTTL {
		return Report{}, false
	}
	return report, true
}

func writeCache(report Report) error {
	path := CachePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(report)
}

func checkAPIKeys() Check {
	settings, err := config.Load()
	if err != nil {
		return Check{Name: "llm credentials", Status: StatusFail, Detail: err.Error()}
	}
	return Check{Name: "llm credentials", Status: StatusPass, Detail: fmt.Sprintf("default provider: %s", settings.DefaultProvider)}
}

func checkGit(ctx context.Context) Check {
	if _, err := exec.LookPath("git"); err != nil {
		return Check{Name: "git", Status: StatusFail, Detail: "git binary not found on PATH"}
	}
	cmd := exec.CommandContext(ctx, "git", "--version")
	out, err := cmd.Output()
	if err != nil {
		return Check{Name: "git", Status: StatusWarn, Detail: "git found but --version failed"}
	}
	return Check{Name: "git", Status: StatusPass, Detail: string(out)}
}

func checkDocker(ctx context.Context) Check {
	if _, err := exec.LookPath("docker"); err != nil {
		return Check{Name: "docker", Status: StatusWarn, Detail: "docker binary not found; --sandbox will be unavailable"}
	}
	cmd := exec.CommandContext(ctx, "docker", "info")
	if err := cmd.Run(); err != nil {
		return Check{Name: "docker", Status: StatusWarn, Detail: "docker daemon unreachable; --sandbox will be unavailable"}
	}
	return Check{Name: "docker", Status: StatusPass, Detail: "docker daemon reachable"}
}

func checkDiskSpace() Check {
	wd, err := os.Getwd()
	if err != nil {
		return Check{Name: "disk space", Status: StatusWarn, Detail: "could not determine working directory"}
	}
	if info, err := os.Stat(wd); err != nil || !info.IsDir() {
		return Check{Name: "disk space", Status: StatusWarn, Detail: "working directory unreadable"}
	}
	return Check{Name: "disk space", Status: StatusPass, Detail: wd}
}
