package solvers

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/veloxq/veloxq-api-types/internal/utils/cmp"
	"gopkg.in/yaml.v3"
)

// Parameters configures a VeloxQ solver run.
//
// NumRep is the number of repetitions, NumSteps the number of annealing
// steps, Timeout the solver-side limit in seconds. Extra holds any
// further solver-specific keys; on the wire all keys are flattened into
// one object, so parameters written for a newer solver pass through
// older clients untouched.
type Parameters struct {
	NumRep   int
	NumSteps int
	Timeout  int
	Extra    map[string]any
}

// New returns Parameters with the platform defaults.
func New() Parameters {
	return Parameters{
		NumRep:   4096,
		NumSteps: 10000,
		Timeout:  30,
	}
}

func (p Parameters) Equal(o Parameters) bool {
	return p.NumRep == o.NumRep &&
		p.NumSteps == o.NumSteps &&
		p.Timeout == o.Timeout &&
		cmp.MapEqualWith(p.Extra, o.Extra, reflect.DeepEqual)
}

// implement encoding/json.Marshaler
//
// Known fields and Extra are emitted as one flat object with snake_case
// keys, the shape "POST jobs" takes in its solvers[].parameters.
func (p Parameters) MarshalJSON() ([]byte, error) {
	flat := map[string]any{}
	for k, v := range p.Extra {
		flat[k] = v
	}
	flat["num_rep"] = p.NumRep
	flat["num_steps"] = p.NumSteps
	flat["timeout"] = p.Timeout
	return json.Marshal(flat)
}

// implement encoding/json.Unmarshaler
//
// Missing known keys fall back to the platform defaults.
func (p *Parameters) UnmarshalJSON(b []byte) error {
	known := new(struct {
		NumRep   *int `json:"num_rep"`
		NumSteps *int `json:"num_steps"`
		Timeout  *int `json:"timeout"`
	})
	if err := json.Unmarshal(b, known); err != nil {
		return err
	}

	flat := map[string]any{}
	if err := json.Unmarshal(b, &flat); err != nil {
		return err
	}

	*p = fill(known.NumRep, known.NumSteps, known.Timeout, flat)
	return nil
}

// implement gopkg.in/yaml.v3 Unmarshaler, for parameter files.
func (p *Parameters) UnmarshalYAML(node *yaml.Node) error {
	known := new(struct {
		NumRep   *int `yaml:"num_rep"`
		NumSteps *int `yaml:"num_steps"`
		Timeout  *int `yaml:"timeout"`
	})
	if err := node.Decode(known); err != nil {
		return err
	}

	flat := map[string]any{}
	if err := node.Decode(&flat); err != nil {
		return fmt.Errorf("parameters should be a mapping: %w", err)
	}

	*p = fill(known.NumRep, known.NumSteps, known.Timeout, flat)
	return nil
}

func fill(numRep, numSteps, timeout *int, flat map[string]any) Parameters {
	p := New()
	if numRep != nil {
		p.NumRep = *numRep
	}
	if numSteps != nil {
		p.NumSteps = *numSteps
	}
	if timeout != nil {
		p.Timeout = *timeout
	}

	delete(flat, "num_rep")
	delete(flat, "num_steps")
	delete(flat, "timeout")
	if len(flat) != 0 {
		p.Extra = flat
	}
	return p
}
