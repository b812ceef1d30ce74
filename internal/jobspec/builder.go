package jobspec

import (
	"path"
	"strconv"

	domainerrors "github.com/crawlora/aws-platform-engineering/internal/errors"
	"github.com/crawlora/aws-platform-engineering/internal/events"
	"github.com/crawlora/aws-platform-engineering/internal/probe"
)

// BuildInput is everything a job derives from besides its template.
type BuildInput struct {
	Source            events.SourceReference
	DestinationBucket string
	Role              string
	GUID              string
	Probe             *probe.Result
	MaxWidth          int
	MaxHeight         int
}

// InputPath is the source URI written into the job's first input.
func (in BuildInput) InputPath() string {
	return in.Source.URI()
}

// OutputPath is the destination directory, mirroring the source key's directory.
func (in BuildInput) OutputPath() string {
	return "s3://" + path.Join(in.DestinationBucket, in.Source.Dir())
}

// Metadata returns the user metadata attached to the job. All values are strings.
func (in BuildInput) Metadata(width, height int) map[string]string {
	format := in.Probe.Format
	return map[string]string{
		"guid":        in.GUID,
		"source_name": in.Source.Key,
		"width":       strconv.Itoa(width),
		"height":      strconv.Itoa(height),
		"format":      format.FormatName,
		"duration":    format.Duration,
		"size":        format.Size,
		"bit_rate":    format.BitRate,
	}
}

// Build derives the job for one asset from the template. The template is not modified.
func Build(tmpl *Job, in BuildInput) (*Job, error) {
	if in.Probe == nil {
		return nil, domainerrors.Newf(domainerrors.CodeJobSettings, "Failed to update the job settings: no probe result")
	}
	width, height, ok := probe.WidthHeight(in.Probe)
	if !ok {
		return nil, domainerrors.Newf(domainerrors.CodeJobSettings, "Failed to update the job settings: input has no video stream")
	}

	job, err := tmpl.Clone()
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeJobSettings, "Failed to update the job settings")
	}

	if err := UpdateSettings(job, in.InputPath(), in.OutputPath(), in.Metadata(width, height), in.Role); err != nil {
		return nil, err
	}
	if err := ApplyResize(job, width, height, in.MaxWidth, in.MaxHeight); err != nil {
		return nil, err
	}
	return job, nil
}

// UpdateSettings points the job at its source and destination and sets role and metadata.
// Every file output group writes below outputPath.
func UpdateSettings(job *Job, inputPath, outputPath string, metadata map[string]string, role string) error {
	fail := func(format string, args ...any) error {
		return domainerrors.Newf(domainerrors.CodeJobSettings, "Failed to update the job settings: "+format, args...)
	}

	if len(job.Settings.Inputs) == 0 {
		return fail("job has no inputs")
	}
	job.Settings.Inputs[0]["FileInput"] = inputPath

	for i, group := range job.Settings.OutputGroups {
		settings, ok := group["OutputGroupSettings"].(map[string]any)
		if !ok {
			return fail("output group %d has no OutputGroupSettings", i)
		}
		if settings["Type"] != FileGroupType {
			continue
		}
		fileSettings, ok := settings["FileGroupSettings"].(map[string]any)
		if !ok {
			return fail("output group %d has no FileGroupSettings", i)
		}
		fileSettings["Destination"] = outputPath + "/"
	}

	job.Role = role
	job.UserMetadata = metadata
	return nil
}

// ApplyResize bounds the longer side of the first output to its maximum.
// The other side is removed so the engine derives it from the aspect ratio.
// A square input is treated as landscape.
func ApplyResize(job *Job, width, height, maxWidth, maxHeight int) error {
	vd, err := job.FirstVideoDescription()
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeJobSettings, "Failed to apply the resize policy")
	}
	if width <= 0 || height <= 0 {
		return domainerrors.Newf(domainerrors.CodeJobSettings, "Failed to apply the resize policy: invalid dimensions %dx%d", width, height)
	}

	if width >= height {
		vd["Width"] = min(width, maxWidth)
		delete(vd, "Height")
	} else {
		vd["Height"] = min(height, maxHeight)
		delete(vd, "Width")
	}
	return nil
}
