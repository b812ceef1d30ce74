package jobspec

import (
	"context"

	domainerrors "github.com/crawlora/aws-platform-engineering/internal/errors"
	"github.com/crawlora/aws-platform-engineering/internal/events"
	"github.com/crawlora/aws-platform-engineering/internal/validation"
)

const templateErrorMessage = "Failed to download and validate the json file. Please check its contents and location"

// ParseTemplate decodes a job template and checks its structural invariants:
// acceleration and timecode settings present, at least one input and one output group.
func ParseTemplate(data []byte, v *validation.Validator) (*Job, error) {
	job, err := events.Parse[Job](data, events.Permissive, v).Unwrap()
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeTemplate, templateErrorMessage)
	}
	return &job, nil
}

// ObjectGetter reads whole objects from storage.
type ObjectGetter interface {
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
}

// Loader reads the job template from a fixed storage location.
type Loader struct {
	objects   ObjectGetter
	bucket    string
	key       string
	validator *validation.Validator
}

// NewLoader creates a template loader.
func NewLoader(objects ObjectGetter, bucket, key string, v *validation.Validator) *Loader {
	return &Loader{objects: objects, bucket: bucket, key: key, validator: v}
}

// Load downloads and parses the template. Every call reads storage again so a
// template update takes effect on the next invocation.
func (l *Loader) Load(ctx context.Context) (*Job, error) {
	data, err := l.objects.GetObject(ctx, l.bucket, l.key)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeTemplate, templateErrorMessage)
	}
	return ParseTemplate(data, l.validator)
}
