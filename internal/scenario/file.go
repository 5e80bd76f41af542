package scenario

import (
	"fmt"
	"os"

	"github.com/Veraticus/spice-lens/internal/common"
	"github.com/Veraticus/spice-lens/internal/model"
	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of a scenario file.
type File struct {
	Scenarios []model.Scenario `yaml:"scenarios"`
}

// LoadFile reads and validates the scenarios in a YAML file.
func LoadFile(path string) ([]model.Scenario, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path is provided by the user
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates YAML scenario data.
func Parse(data []byte) ([]model.Scenario, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, common.NewUserError("scenario file is not valid YAML", fmt.Errorf("%w: %v", common.ErrInvalidScenario, err))
	}
	if len(file.Scenarios) == 0 {
		return nil, common.NewUserError("scenario file has no scenarios", common.ErrInvalidScenario)
	}

	for i, sc := range file.Scenarios {
		if err := Validate(sc); err != nil {
			return nil, fmt.Errorf("scenario %d (%s): %w", i+1, sc.Name, err)
		}
	}
	return file.Scenarios, nil
}
