package common

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/veloxq/veloxq-go/pkg/configs/profiles"
)

// ProfileMarker is the file naming the profile of a project directory.
// EnvFile is the per-project veloxqenv file next to it.
const (
	ProfileMarker = ".veloxqprofile"
	EnvFile       = "veloxqenv"
)

type Flags struct {
	Profile      string `flag:"profile" help:"veloxqprofile name to use"`
	ProfileStore string `flag:"profile-store" help:"path to veloxqprofile store file"`
	Env          string `flag:"env" help:"path to veloxqenv file"`
	Verbose      bool   `flag:"verbose" alias:"v" help:"show verbose error messages"`
}

type detection struct {
	home string
}

// DetectOption adjusts how Flags detects its defaults.
type DetectOption func(*detection)

// WithHome derives the profile store path from home instead of
// consulting the environment.
func WithHome(home string) DetectOption {
	return func(d *detection) { d.home = home }
}

// findUp walks from dir towards the filesystem root and returns the
// first regular file named name.
func findUp(dir string, name string) (string, bool) {
	for {
		candidate := path.Join(dir, name)
		if s, err := os.Stat(candidate); err == nil && s.Mode().IsRegular() {
			return candidate, true
		}
		next := path.Dir(dir)
		if next == dir {
			return "", false
		}
		dir = next
	}
}

// Detect fills Flags with their default values, walking from the
// directory `from` up to the filesystem root.
//
// The profile name is taken from the first `.veloxqprofile` file found
// on the way (its first line); without one, the absolute path of
// `from` itself is used, so each project directory gets its own
// profile by default. The veloxqenv path is the first `veloxqenv`
// file found the same way. The profile store defaults to
// profiles.StorePath(), which honors VELOXQ_PROFILE_STORE.
func Detect(from string, opt ...DetectOption) (Flags, error) {
	det := detection{}
	for _, o := range opt {
		o(&det)
	}

	store := ""
	if home := det.home; home != "" {
		store = path.Join(home, ".veloxq", "profiles")
	} else {
		s, err := profiles.StorePath()
		if err != nil {
			return Flags{}, err
		}
		store = s
	}

	if abs, err := filepath.Abs(from); err == nil {
		from = abs
	}

	profile := from
	if marker, ok := findUp(from, ProfileMarker); ok {
		content, err := os.ReadFile(marker)
		if err != nil {
			return Flags{}, err
		}
		firstline, _, _ := strings.Cut(string(content), "\n")
		profile = strings.TrimSpace(firstline)
	}

	env := path.Join(from, EnvFile)
	if found, ok := findUp(from, EnvFile); ok {
		env = found
	}

	return Flags{
		Profile:      profile,
		ProfileStore: store,
		Env:          env,
	}, nil
}
