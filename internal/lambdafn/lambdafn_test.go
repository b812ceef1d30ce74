package lambdafn

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crawlora/aws-platform-engineering/internal/pipeline"
)

type recordingHandler struct {
	inv pipeline.Invocation
	raw []byte
	err error
}

func (h *recordingHandler) Handle(_ context.Context, inv pipeline.Invocation, raw []byte) error {
	h.inv = inv
	h.raw = raw
	return h.err
}

type countingFlusher struct{ flushes int }

func (f *countingFlusher) Flush() { f.flushes++ }

func TestNewHandler_PassesInvocationAndRawEvent(t *testing.T) {
	lambdacontext.LogGroupName = "/aws/lambda/dev-submit-video"
	t.Cleanup(func() { lambdacontext.LogGroupName = "" })

	h := &recordingHandler{}
	flusher := &countingFlusher{}
	ctx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{AwsRequestID: "7f2c-req"})
	raw := json.RawMessage(`{"Records":[]}`)

	require.NoError(t, NewHandler(h, flusher)(ctx, raw))

	assert.Equal(t, "7f2c-req", h.inv.RequestID)
	assert.Equal(t, "/aws/lambda/dev-submit-video", h.inv.LogGroup)
	assert.JSONEq(t, `{"Records":[]}`, string(h.raw))
	assert.Equal(t, 1, flusher.flushes)
}

func TestNewHandler_ReturnsFatalErrorsAfterFlushing(t *testing.T) {
	boom := errors.New("boom")
	h := &recordingHandler{err: boom}
	flusher := &countingFlusher{}

	err := NewHandler(h, flusher)(context.Background(), json.RawMessage(`{}`))

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, flusher.flushes)
}

func TestInvocation_WithoutLambdaContext(t *testing.T) {
	inv := Invocation(context.Background())
	assert.Empty(t, inv.RequestID)
}
