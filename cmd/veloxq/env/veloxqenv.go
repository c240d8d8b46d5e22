package env

import (
	"os"

	"github.com/veloxq/veloxq-api-types/solvers"
	"gopkg.in/yaml.v3"
)

// VeloxQEnv carries per-project defaults, read from a veloxqenv file.
//
// Subcommands use these values when the corresponding flag is not
// given: the problem to file uploads under, the backend to run on, and
// solver parameter overrides.
type VeloxQEnv struct {
	Problem    string              `yaml:"problem"`
	Backend    string              `yaml:"backend"`
	Parameters *solvers.Parameters `yaml:"parameters"`
}

func New() *VeloxQEnv {
	return new(VeloxQEnv)
}

// ParametersOrDefault returns the parameter overrides from the env
// file, or the platform defaults when the file has none.
func (e *VeloxQEnv) ParametersOrDefault() solvers.Parameters {
	if e.Parameters != nil {
		return *e.Parameters
	}
	return solvers.New()
}

// LoadVeloxQEnv reads a veloxqenv file. A missing file is not an
// error; it yields an empty env.
func LoadVeloxQEnv(filepath string) (*VeloxQEnv, error) {
	env := VeloxQEnv{}

	content, err := os.ReadFile(filepath)
	if err != nil {
		if os.IsNotExist(err) {
			return &env, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(content, &env); err != nil {
		return nil, err
	}

	return &env, nil
}
