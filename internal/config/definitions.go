package config

import (
	"errors"
	"fmt"
	"os"

	sigsyaml "sigs.k8s.io/yaml"

	"ecsboss/internal/ecs"
	"ecsboss/internal/structure"
)

// ValidationError reports a definition file that parsed but does not describe
// a usable resource.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation checks if an error is a ValidationError.
func IsValidation(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// LoadTaskDefinition reads and validates a task definition file.
func LoadTaskDefinition(path string) (*ecs.TaskDefinition, error) {
	raw, err := loadStructure(path)
	if err != nil {
		return nil, err
	}
	if err := ValidateTaskStructure(raw); err != nil {
		return nil, err
	}
	return ecs.NewTaskDefinition(raw), nil
}

// LoadServiceDefinition reads and validates a service definition file. The
// service's cluster comes from the file's cluster field.
func LoadServiceDefinition(path string) (*ecs.Service, error) {
	raw, err := loadStructure(path)
	if err != nil {
		return nil, err
	}
	if err := ValidateServiceStructure(raw); err != nil {
		return nil, err
	}
	cluster, _ := raw["cluster"].(string)
	return ecs.NewService(cluster, raw), nil
}

// loadStructure parses a JSON or YAML definition file into a JSON-shaped
// structure.
func loadStructure(path string) (structure.Structure, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var raw structure.Structure
	if err := sigsyaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return raw, nil
}

// ValidateTaskStructure checks the fields a task definition must carry before
// it can be merged and registered.
func ValidateTaskStructure(raw structure.Structure) error {
	if _, ok := raw["family"].(string); !ok {
		return NewValidationError("family", "required and must be a string")
	}
	containers, ok := raw["containerDefinitions"].([]interface{})
	if !ok || len(containers) == 0 {
		return NewValidationError("containerDefinitions", "required and must be a non-empty list")
	}
	for _, element := range containers {
		container, ok := element.(map[string]interface{})
		if !ok {
			return NewValidationError("containerDefinitions", "every container must be a mapping")
		}
		name, _ := container["name"].(string)
		if name == "" {
			return NewValidationError("containerDefinitions", "every container needs a name")
		}
		if err := validateEnvironment(name, container["environment"]); err != nil {
			return err
		}
	}
	return nil
}

// validateEnvironment rejects non-string names and values early. The API
// would accept numbers here and coerce them, which hides typos like an
// unquoted port number in YAML.
func validateEnvironment(container string, environment interface{}) error {
	if environment == nil {
		return nil
	}
	pairs, ok := environment.([]interface{})
	if !ok {
		return NewValidationError(
			fmt.Sprintf("containerDefinitions[%s].environment", container),
			"must be a list of name/value pairs")
	}
	for _, element := range pairs {
		pair, ok := element.(map[string]interface{})
		if !ok {
			return NewValidationError(
				fmt.Sprintf("containerDefinitions[%s].environment", container),
				"every entry must be a name/value mapping")
		}
		if _, ok := pair["name"].(string); !ok {
			return NewValidationError(
				fmt.Sprintf("containerDefinitions[%s].environment", container),
				"names must be strings")
		}
		if _, ok := pair["value"].(string); !ok {
			return NewValidationError(
				fmt.Sprintf("containerDefinitions[%s].environment", container),
				"values must be strings, quote numbers and booleans")
		}
	}
	return nil
}

// ValidateServiceStructure checks the fields a service definition must carry.
func ValidateServiceStructure(raw structure.Structure) error {
	for _, field := range []string{"cluster", "serviceName", "taskDefinition"} {
		if value, ok := raw[field].(string); !ok || value == "" {
			return NewValidationError(field, "required and must be a string")
		}
	}
	if balancers, ok := raw["loadBalancers"].([]interface{}); ok && len(balancers) > 0 {
		if role, ok := raw["role"].(string); !ok || role == "" {
			return NewValidationError("role", "required when loadBalancers is set")
		}
	}
	return nil
}
