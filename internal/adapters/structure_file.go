package adapters

import (
	"os"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"
)

// structureFile is the YAML shape of the navigation-structure override
// file:
//
//	tables:
//	  file_type: file_types
//	  campaign: production_campaigns
type structureFile struct {
	Tables map[string]string `yaml:"tables"`
}

// StructureFileAdapter loads category -> table overrides from a YAML file.
type StructureFileAdapter struct{}

func NewStructureFileAdapter() StructureFileAdapter {
	return StructureFileAdapter{}
}

func (a StructureFileAdapter) LoadOverrides(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("structure override file not found").
			WithCause(err)
	}
	var file structureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse structure override yaml").
			WithCause(err)
	}
	return file.Tables, nil
}
