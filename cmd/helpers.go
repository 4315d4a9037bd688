package cmd

import (
	"fmt"
	"time"

	"github.com/briandowns/spinner"

	"ecsboss/internal/config"
	"ecsboss/internal/ecs"
)

// loadTaskFile loads and validates the configured task definition file.
func loadTaskFile() (*ecs.TaskDefinition, error) {
	def, err := config.LoadTaskDefinition(rootTaskFile)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rootTaskFile, err)
	}
	return def, nil
}

// loadServiceFile loads and validates the configured service definition file.
func loadServiceFile() (*ecs.Service, error) {
	service, err := config.LoadServiceDefinition(rootServiceFile)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rootServiceFile, err)
	}
	return service, nil
}

// newSpinner creates the progress spinner used while polling remote state.
func newSpinner(suffix string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + suffix
	return s
}
