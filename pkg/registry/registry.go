// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return &reg, nil
}

// Find returns the activity serving taskType.
func (r *ActivityRegistry) Find(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// Validate checks required fields, unique ids and task types, known
// statuses, parseable timeouts and that every schema compiles. All problems
// are reported together.
func (r *ActivityRegistry) Validate() error {
	var problems []string
	ids := make(map[string]bool)
	taskTypes := make(map[string]bool)

	for i, a := range r.Activities {
		name := a.ID
		if name == "" {
			name = fmt.Sprintf("#%d", i)
			problems = append(problems, fmt.Sprintf("activity %s missing required field: ID", name))
		}
		if a.DisplayName == "" {
			problems = append(problems, fmt.Sprintf("activity %s missing required field: DisplayName", name))
		}
		if a.TaskType == "" {
			problems = append(problems, fmt.Sprintf("activity %s missing required field: TaskType", name))
		}
		if a.Category == "" {
			problems = append(problems, fmt.Sprintf("activity %s missing required field: Category", name))
		}

		if a.ID != "" && ids[a.ID] {
			problems = append(problems, fmt.Sprintf("duplicate activity id: %s", a.ID))
		}
		ids[a.ID] = true
		if a.TaskType != "" && taskTypes[a.TaskType] {
			problems = append(problems, fmt.Sprintf("duplicate task type: %s", a.TaskType))
		}
		taskTypes[a.TaskType] = true

		switch a.ImplementationStatus {
		case StatusPlanned, StatusInProgress, StatusCompleted, StatusVerified:
		default:
			problems = append(problems, fmt.Sprintf("activity %s has unknown status %q", name, a.ImplementationStatus))
		}

		if a.Timeout != "" {
			if _, err := time.ParseDuration(a.Timeout); err != nil {
				problems = append(problems, fmt.Sprintf("activity %s has invalid timeout %q", name, a.Timeout))
			}
		}

		for label, schema := range map[string]map[string]interface{}{"inputSchema": a.InputSchema, "outputSchema": a.OutputSchema} {
			if len(schema) == 0 {
				continue
			}
			if _, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema)); err != nil {
				problems = append(problems, fmt.Sprintf("activity %s %s does not compile: %v", name, label, err))
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("registry invalid: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Missing lists the task types with no registry entry.
func (r *ActivityRegistry) Missing(taskTypes []string) []string {
	var missing []string
	for _, tt := range taskTypes {
		if _, ok := r.Find(tt); !ok {
			missing = append(missing, tt)
		}
	}
	return missing
}
