// Package jobspec loads transcoding job templates and derives per-asset jobs from them.
//
// Templates are decoded permissively: fields this package does not model are kept
// and written back out, so a template may use any engine feature.
package jobspec

import (
	"encoding/json"
	"fmt"
)

// FileGroupType is the output group type whose destination points at object storage.
const FileGroupType = "FILE_GROUP_SETTINGS"

// Job is a transcoding job document.
type Job struct {
	Role                 string            `json:"Role"`
	Priority             int               `json:"Priority"`
	AccelerationSettings map[string]any    `json:"AccelerationSettings" validate:"required"`
	Settings             Settings          `json:"Settings"`
	UserMetadata         map[string]string `json:"UserMetadata"`

	// Extra holds top-level fields not modelled above, such as Queue or Tags.
	Extra map[string]any `json:"-"`
}

// Settings holds the inputs and output groups of a job.
type Settings struct {
	TimecodeConfig map[string]any   `json:"TimecodeConfig" validate:"required"`
	Inputs         []map[string]any `json:"Inputs" validate:"min=1"`
	OutputGroups   []map[string]any `json:"OutputGroups" validate:"min=1"`

	// Extra holds settings not modelled above, such as AdAvailOffset.
	Extra map[string]any `json:"-"`
}

var (
	jobFields      = []string{"Role", "Priority", "AccelerationSettings", "Settings", "UserMetadata"}
	settingsFields = []string{"TimecodeConfig", "Inputs", "OutputGroups"}
)

// UnmarshalJSON decodes the modelled fields and keeps the rest in Extra.
func (j *Job) UnmarshalJSON(data []byte) error {
	type plain Job
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := extraFields(data, jobFields)
	if err != nil {
		return err
	}
	*j = Job(p)
	j.Extra = extra
	return nil
}

// MarshalJSON encodes the modelled fields followed by Extra.
func (j Job) MarshalJSON() ([]byte, error) {
	type plain Job
	return withExtra(plain(j), j.Extra)
}

// UnmarshalJSON decodes the modelled fields and keeps the rest in Extra.
func (s *Settings) UnmarshalJSON(data []byte) error {
	type plain Settings
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := extraFields(data, settingsFields)
	if err != nil {
		return err
	}
	*s = Settings(p)
	s.Extra = extra
	return nil
}

// MarshalJSON encodes the modelled fields followed by Extra.
func (s Settings) MarshalJSON() ([]byte, error) {
	type plain Settings
	return withExtra(plain(s), s.Extra)
}

// Clone returns a deep copy of the job.
func (j *Job) Clone() (*Job, error) {
	data, err := json.Marshal(j)
	if err != nil {
		return nil, fmt.Errorf("clone job: %w", err)
	}
	var out Job
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("clone job: %w", err)
	}
	return &out, nil
}

// FirstVideoDescription returns the video description of the first output of
// the first output group, which the resize policy writes to.
func (j *Job) FirstVideoDescription() (map[string]any, error) {
	if len(j.Settings.OutputGroups) == 0 {
		return nil, fmt.Errorf("job has no output groups")
	}
	outputs, ok := j.Settings.OutputGroups[0]["Outputs"].([]any)
	if !ok || len(outputs) == 0 {
		return nil, fmt.Errorf("first output group has no outputs")
	}
	output, ok := outputs[0].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("first output is not an object")
	}
	vd, ok := output["VideoDescription"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("first output has no VideoDescription")
	}
	return vd, nil
}

func extraFields(data []byte, known []string) (map[string]any, error) {
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

func withExtra(v any, extra map[string]any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}

	var merged map[string]any
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, val := range extra {
		if _, exists := merged[k]; !exists {
			merged[k] = val
		}
	}
	return json.Marshal(merged)
}
