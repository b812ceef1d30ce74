package engine

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/mediaconvert"

	domainerrors "github.com/crawlora/aws-platform-engineering/internal/errors"
	"github.com/crawlora/aws-platform-engineering/internal/jobspec"
	"github.com/crawlora/aws-platform-engineering/internal/ratelimit"
)

const defaultQueue = "Default"

// MediaConvert is an Engine backed by AWS Elemental MediaConvert.
type MediaConvert struct {
	client  *mediaconvert.Client
	limiter *ratelimit.KeyedRateLimiter
}

// NewMediaConvert creates a client for an account-specific endpoint.
// CreateJob calls are limited to submitRPS per queue.
func NewMediaConvert(cfg aws.Config, endpoint string, submitRPS float64, optFns ...func(*mediaconvert.Options)) *MediaConvert {
	opts := append([]func(*mediaconvert.Options){func(o *mediaconvert.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}}, optFns...)

	return &MediaConvert{
		client:  mediaconvert.NewFromConfig(cfg, opts...),
		limiter: ratelimit.New(submitRPS, 1),
	}
}

// CreateJob submits the job. Failures are not retried.
func (m *MediaConvert) CreateJob(ctx context.Context, job *jobspec.Job) (string, error) {
	input, err := createJobInput(job)
	if err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeSubmission, "Error submitting job to MediaConvert")
	}

	queue := aws.ToString(input.Queue)
	if queue == "" {
		queue = defaultQueue
	}
	if err := m.limiter.Wait(ctx, queue); err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeSubmission, "Error submitting job to MediaConvert")
	}

	out, err := m.client.CreateJob(ctx, input)
	if err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeSubmission, "Error submitting job to MediaConvert")
	}
	if out.Job == nil {
		return "", nil
	}
	return aws.ToString(out.Job.Id), nil
}

// GetJob fetches a job by id.
func (m *MediaConvert) GetJob(ctx context.Context, id string) (*JobDetails, error) {
	out, err := m.client.GetJob(ctx, &mediaconvert.GetJobInput{Id: aws.String(id)})
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeJobDetails, "Error processing job details")
	}
	if out.Job == nil {
		return nil, domainerrors.Newf(domainerrors.CodeJobDetails, "Error processing job details: job %s not returned", id)
	}

	details := &JobDetails{
		ID:       aws.ToString(out.Job.Id),
		Status:   string(out.Job.Status),
		Document: out.Job,
	}
	if s := out.Job.Settings; s != nil && len(s.Inputs) > 0 {
		details.InputFile = aws.ToString(s.Inputs[0].FileInput)
	}
	return details, nil
}

// createJobInput maps the job document onto the SDK request. The SDK types use
// the same PascalCase names as the document, so unmodelled template fields such
// as Queue or StatusUpdateInterval are carried over as well.
func createJobInput(job *jobspec.Job) (*mediaconvert.CreateJobInput, error) {
	doc, err := json.Marshal(job)
	if err != nil {
		return nil, err
	}
	var input mediaconvert.CreateJobInput
	if err := json.Unmarshal(doc, &input); err != nil {
		return nil, err
	}
	if len(job.AccelerationSettings) == 0 {
		input.AccelerationSettings = nil
	}
	return &input, nil
}
