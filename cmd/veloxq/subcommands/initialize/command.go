package initialize

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/veloxq/veloxq-go/cmd/veloxq/subcommands/common"
	"github.com/veloxq/veloxq-go/pkg/configs/profiles"
	"github.com/youta-t/flarc"
)

const ARG_PROFILE_FILE = "VELOXQ_PROFILE_FILE"

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Register a veloxqprofile and mark this directory as a VeloxQ project.",
		struct{}{},
		flarc.Args{
			{
				Name: ARG_PROFILE_FILE, Required: true,
				Help: "filepath to a veloxqprofile file, which you received from your admin.",
			},
		},
		common.NewTaskWithFlags(Task(common.ProfileMarker)),
		flarc.WithDescription(`
Register a new veloxqprofile into your profile store.

A "veloxqprofile" is a YAML file naming a VeloxQ API endpoint and the
key to authenticate with. "{{ .Command }}" registers the given
veloxqprofile into your profile store and writes a ".veloxqprofile"
marker so commands run in this directory use it.

The name of the profile is given by "--profile" ( default: current filepath ).
`),
	)
}

func Task(markerFile string) common.TaskWithFlags[struct{}] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		cf common.Flags,
		cl flarc.Commandline[struct{}],
		params []any,
	) error {
		profFile := cl.Args()[ARG_PROFILE_FILE][0]

		store, err := profiles.LoadProfileStore(cf.ProfileStore)
		if errors.Is(err, profiles.ErrProfileStoreNotFound) {
			store = profiles.ProfileStore{}
		} else if err != nil {
			return fmt.Errorf(
				"failed to load profile store (%s): %w", cf.ProfileStore, err,
			)
		}

		newProf := new(profiles.Profile)
		{
			content, err := os.ReadFile(profFile)
			if err != nil {
				return fmt.Errorf("failed to read profile file (%s): %w", profFile, err)
			}
			if err := yaml.Unmarshal(content, newProf); err != nil {
				return fmt.Errorf("failed to parse profile file (%s): %w", profFile, err)
			}
		}
		if err := newProf.Verify(); err != nil {
			return fmt.Errorf("%s: %w", profFile, err)
		}

		profName := cf.Profile
		store[profName] = newProf
		if err := store.Save(cf.ProfileStore); err != nil {
			return fmt.Errorf(
				"failed to save profile store (%s): %w", cf.ProfileStore, err,
			)
		}
		logger.Printf("profile %s is saved to %s", profName, cf.ProfileStore)

		f, err := os.OpenFile(markerFile, os.O_RDWR|os.O_CREATE|os.O_TRUNC, os.FileMode(0600))
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", markerFile, err)
		}
		defer f.Close()
		if _, err := f.Write([]byte(profName)); err != nil {
			return fmt.Errorf("failed to write %s: %w", markerFile, err)
		}

		return nil
	}
}
