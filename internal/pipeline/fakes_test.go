package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/crawlora/aws-platform-engineering/internal/engine"
	domainerrors "github.com/crawlora/aws-platform-engineering/internal/errors"
	"github.com/crawlora/aws-platform-engineering/internal/jobspec"
	"github.com/crawlora/aws-platform-engineering/internal/logger"
	"github.com/crawlora/aws-platform-engineering/internal/metrics"
	"github.com/crawlora/aws-platform-engineering/internal/notify"
	"github.com/crawlora/aws-platform-engineering/internal/probe"
	"github.com/crawlora/aws-platform-engineering/internal/storage"
	"github.com/crawlora/aws-platform-engineering/internal/validation"
)

const testTopic = "arn:aws:sns:eu-west-1:123456789012:media"

type object struct {
	body        []byte
	contentType string
	metadata    map[string]string
}

type copyCall struct {
	src         storage.Location
	dstBucket   string
	contentType string
}

// memStore is an in-memory storage.ObjectStore.
type memStore struct {
	mu       sync.Mutex
	objects  map[string]object
	copies   []copyCall
	deletes  []storage.Location
	presigns []storage.Location
	copyErr  error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string]object{}}
}

func (m *memStore) put(bucket, key string, body []byte) {
	m.objects[bucket+"/"+key] = object{body: body}
}

func (m *memStore) PresignGet(_ context.Context, bucket, key string, expiry time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.presigns = append(m.presigns, storage.Location{Bucket: bucket, Key: key})
	return fmt.Sprintf("https://%s.s3.example.com/%s?X-Amz-Expires=%d", bucket, key, int(expiry.Seconds())), nil
}

func (m *memStore) GetObject(_ context.Context, bucket, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[bucket+"/"+key]
	if !ok {
		return nil, domainerrors.Newf(domainerrors.CodeStorage, "failed to get s3://%s/%s", bucket, key)
	}
	return obj.body, nil
}

func (m *memStore) GetRange(ctx context.Context, bucket, key string, offset, length int64) ([]byte, error) {
	body, err := m.GetObject(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	end := min(offset+length, int64(len(body)))
	return body[offset:end], nil
}

func (m *memStore) PutObject(_ context.Context, bucket, key string, body []byte, contentType string, metadata map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[bucket+"/"+key] = object{body: body, contentType: contentType, metadata: metadata}
	return nil
}

func (m *memStore) CopyObject(_ context.Context, src storage.Location, dstBucket, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.copyErr != nil {
		return m.copyErr
	}
	m.copies = append(m.copies, copyCall{src: src, dstBucket: dstBucket, contentType: contentType})
	obj := m.objects[src.Bucket+"/"+src.Key]
	m.objects[dstBucket+"/"+src.Key] = object{body: obj.body, contentType: contentType, metadata: storage.ContentTypeMetadata(contentType)}
	return nil
}

func (m *memStore) DeleteObject(_ context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, storage.Location{Bucket: bucket, Key: key})
	delete(m.objects, bucket+"/"+key)
	return nil
}

type fakeProber struct {
	result *probe.Result
	err    error
	urls   []string
}

func (f *fakeProber) Probe(_ context.Context, url string) (*probe.Result, error) {
	f.urls = append(f.urls, url)
	return f.result, f.err
}

type fakeTemplates struct {
	job   *jobspec.Job
	err   error
	loads int
}

func (f *fakeTemplates) Load(context.Context) (*jobspec.Job, error) {
	f.loads++
	if f.err != nil {
		return nil, f.err
	}
	return f.job.Clone()
}

type fakeEngine struct {
	mu        sync.Mutex
	created   []*jobspec.Job
	createErr error
	details   *engine.JobDetails
	getErr    error
	lookups   int
}

func (f *fakeEngine) CreateJob(_ context.Context, job *jobspec.Job) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, job)
	return fmt.Sprintf("job-%d", len(f.created)), nil
}

func (f *fakeEngine) GetJob(context.Context, string) (*engine.JobDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	return f.details, f.getErr
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []notify.Message
	topics   []string
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, msg notify.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.messages = append(p.messages, msg)
	return nil
}

func (p *recordingPublisher) diagnostics() []*notify.DiagnosticMessage {
	var out []*notify.DiagnosticMessage
	for _, m := range p.messages {
		if d, ok := m.(*notify.DiagnosticMessage); ok {
			out = append(out, d)
		}
	}
	return out
}

func (p *recordingPublisher) statuses() []*notify.JobStatusMessage {
	var out []*notify.JobStatusMessage
	for _, m := range p.messages {
		if s, ok := m.(*notify.JobStatusMessage); ok {
			out = append(out, s)
		}
	}
	return out
}

type staticContentType struct {
	contentType string
	err         error
	calls       []storage.Location
}

func (s *staticContentType) Resolve(_ context.Context, bucket, key string) (string, error) {
	s.calls = append(s.calls, storage.Location{Bucket: bucket, Key: key})
	return s.contentType, s.err
}

type dedupEntry struct {
	done    bool
	expires time.Time
}

// memDedup is an in-memory dedup.Store with a manual clock.
type memDedup struct {
	mu      sync.Mutex
	now     time.Time
	lease   time.Duration
	ttl     time.Duration
	claimed map[string]dedupEntry
	err     error
}

func newMemDedup() *memDedup {
	return &memDedup{
		now:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		lease:   15 * time.Minute,
		ttl:     24 * time.Hour,
		claimed: map[string]dedupEntry{},
	}
}

func (d *memDedup) advance(by time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.now = d.now.Add(by)
	for k, e := range d.claimed {
		if !d.now.Before(e.expires) {
			delete(d.claimed, k)
		}
	}
}

func (d *memDedup) Claim(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return false, d.err
	}
	if _, ok := d.claimed[key]; ok {
		return false, nil
	}
	d.claimed[key] = dedupEntry{expires: d.now.Add(d.lease)}
	return true, nil
}

func (d *memDedup) Complete(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.claimed[key] = dedupEntry{done: true, expires: d.now.Add(d.ttl)}
	return nil
}

func (d *memDedup) Release(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.claimed, key)
	return nil
}

func (d *memDedup) Close() error { return nil }

type harness struct {
	store     *memStore
	publisher *recordingPublisher
	reporter  *notify.Reporter
	metrics   *metrics.Metrics
	log       *logger.Logger
}

func newHarness() *harness {
	pub := &recordingPublisher{}
	return &harness{
		store:     newMemStore(),
		publisher: pub,
		reporter:  notify.NewReporter(pub, testTopic, "eu-west-1", nil, logger.Discard()),
		metrics:   metrics.New(),
		log:       logger.Discard(),
	}
}

func loadTemplate(t *testing.T) *jobspec.Job {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "jobspec", "testdata", "job-config.json"))
	require.NoError(t, err)
	job, err := jobspec.ParseTemplate(data, validation.New())
	require.NoError(t, err)
	return job
}

func storageEvent(bucket, key string) []byte {
	return []byte(fmt.Sprintf(`{"Records":[{"eventSource":"aws:s3","s3":{"bucket":{"name":%q},"object":{"key":%q,"size":1024}}}]}`, bucket, key))
}

func jobEvent(jobID, status, outputGroupDetails string) []byte {
	detail := fmt.Sprintf(`{"jobId":%q,"status":%q,"queue":"arn:aws:mediaconvert:eu-west-1:123456789012:queues/Default"`, jobID, status)
	if outputGroupDetails != "" {
		detail += `,"outputGroupDetails":` + outputGroupDetails
	}
	detail += "}"
	return []byte(fmt.Sprintf(`{
		"version": "0",
		"id": "5c1a2b3c-0000-4000-8000-000000000000",
		"detail-type": "MediaConvert Job State Change",
		"source": "aws.mediaconvert",
		"account": "123456789012",
		"time": "2024-05-01T12:00:00Z",
		"region": "eu-west-1",
		"resources": [],
		"detail": %s
	}`, detail))
}

func testJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 160, 90))
	for y := range 90 {
		for x := range 160 {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}
