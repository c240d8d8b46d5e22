package env_test

import (
	"testing"

	venv "github.com/veloxq/veloxq-go/cmd/veloxq/env"
)

func TestLoadVeloxQEnv(t *testing.T) {

	t.Run("it reads problem, backend and parameter overrides", func(t *testing.T) {
		result, err := venv.LoadVeloxQEnv("./testdata/veloxqenv_test.yaml")
		if err != nil {
			t.Fatalf("failed to parse env.: %v", err)
		}

		if result.Problem != "lattice-experiments" {
			t.Errorf("unmatch problem: %s", result.Problem)
		}
		if result.Backend != "VeloxQH100_2" {
			t.Errorf("unmatch backend: %s", result.Backend)
		}

		params := result.ParametersOrDefault()
		if params.NumRep != 256 {
			t.Errorf("unmatch num_rep: %d", params.NumRep)
		}
		if params.NumSteps != 10000 {
			t.Errorf("num_steps should fall back to the default: %d", params.NumSteps)
		}
		if params.Extra["beta"] != 0.25 {
			t.Errorf("unmatch extra parameter: %v", params.Extra)
		}
	})

	t.Run("when no file is at the path, an empty VeloxQEnv should be created", func(t *testing.T) {
		env, err := venv.LoadVeloxQEnv("./testdata/no-such-env.yaml")
		if err != nil {
			t.Fatalf("unexpected error occured:%v", err)
		}

		if env.Problem != "" || env.Backend != "" || env.Parameters != nil {
			t.Errorf("unexpected data:%v", env)
		}

		params := env.ParametersOrDefault()
		if params.NumRep != 4096 || params.NumSteps != 10000 || params.Timeout != 30 {
			t.Errorf("parameters should be the platform defaults: %+v", params)
		}
	})
}
