package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ParseOnOff accepts the spellings a sysfs style switch takes.
func ParseOnOff(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "1", "enable", "enabled", "yes", "true":
		return true, nil
	case "off", "0", "disable", "disabled", "no", "false":
		return false, nil
	}
	return false, fmt.Errorf("%q: expected on or off", s)
}

func WriteJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

func OpenLogFile(filename string) (*os.File, error) {
	return os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
}

// Distribution kernels append anything to the release; only the leading
// numbers count.
var kernelRelease = regexp.MustCompile(`^(\d+\.\d+(?:\.\d+)?)`)

func ParseKernelVersion(release string) (*semver.Version, error) {
	match := kernelRelease.FindStringSubmatch(strings.TrimSpace(release))
	if len(match) < 2 {
		return nil, fmt.Errorf("failed to parse kernel version: %s", release)
	}
	return semver.NewVersion(match[1])
}

// CheckVersion fails when release is older than minVersion.
func CheckVersion(release, minVersion string) error {
	current, err := ParseKernelVersion(release)
	if err != nil {
		return err
	}
	c, err := semver.NewConstraint(">= " + minVersion)
	if err != nil {
		return fmt.Errorf("minimum kernel version %q: %w", minVersion, err)
	}
	if !c.Check(current) {
		return fmt.Errorf("current kernel version %s is less than %s, please upgrade your kernel", current, minVersion)
	}
	return nil
}

func CheckKernelVersion(minVersion string) error {
	cmd := exec.Command("uname", "-r")
	output, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("failed to get kernel version: %v", err)
	}
	return CheckVersion(string(output), minVersion)
}
