package utils

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"
)

const (
	Version = "0.3.2"
)

var (
	GitCommit = "UnKnown"
	BuildTime = "Unknown"
)

func GetVersion() string {
	return fmt.Sprintf("Launcher Version: %s-%s\nBuild Time: %s", Version, GitCommit, BuildTime)
}

func VersionTemplate() string {
	return `{{.Version}}` + "\n"
}

var lsfVersionOnce sync.Once
var lsfVersion string

func GetLsfVersion() string {
	lsfVersionOnce.Do(func() {
		lsfVersion = detectLsfVersion()
	})
	return lsfVersion
}

func detectLsfVersion() string {
	if v := strings.TrimSpace(os.Getenv("LSF_VERSION")); v != "" {
		return v
	}

	candidates := [][]string{
		{"lsid", "-V"},
		{"bsub", "-V"},
	}

	for _, args := range candidates {
		out, err := commandOutputWithTimeout(2*time.Second, args[0], args[1:]...)
		if err != nil {
			continue
		}
		out = strings.TrimSpace(out)
		if out == "" {
			continue
		}
		if v := extractLsfVersionLine(out); v != "" {
			return v
		}
		if v := extractSemanticVersion(out); v != "" {
			return v
		}
		if line := firstNonEmptyLine(out); line != "" {
			return line
		}
	}

	return "unknown"
}

func commandOutputWithTimeout(timeout time.Duration, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// lsid -V prints e.g. "IBM Spectrum LSF Standard 10.1.0.13, May 28 2021".
var lsfVersionLineRE = regexp.MustCompile(`(?m)\bLSF\s+(?:\w+\s+)?(\d+(?:\.\d+)+)\b`)
var semanticVersionRE = regexp.MustCompile(`\bv?\d+\.\d+\.\d+(?:\.\d+)*(?:[-+][0-9A-Za-z.-]+)?\b`)

func extractLsfVersionLine(s string) string {
	m := lsfVersionLineRE.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

func extractSemanticVersion(s string) string {
	return semanticVersionRE.FindString(s)
}

func firstNonEmptyLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if v := strings.TrimSpace(line); v != "" {
			return v
		}
	}
	return ""
}
