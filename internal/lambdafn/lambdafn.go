// Package lambdafn hosts one pipeline on the AWS Lambda runtime.
package lambdafn

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/samber/do/v2"

	"github.com/crawlora/aws-platform-engineering/internal/config"
	"github.com/crawlora/aws-platform-engineering/internal/di"
	"github.com/crawlora/aws-platform-engineering/internal/notify"
	"github.com/crawlora/aws-platform-engineering/internal/pipeline"
)

// Flusher sends buffered telemetry before the runtime freezes the process.
type Flusher interface {
	Flush()
}

// Run loads the configuration for fn, builds its pipeline and blocks serving
// invocations. Startup failures exit the process so the runtime reports them.
func Run(fn config.Function) {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(fn); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config for %s: %v\n", fn, err)
		os.Exit(1)
	}

	injector := di.NewContainer(cfg, fn)
	h, err := di.Handler(injector, fn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build %s: %v\n", fn, err)
		os.Exit(1)
	}
	reporter := do.MustInvoke[*notify.Reporter](injector)

	lambda.StartWithOptions(NewHandler(h, reporter), lambda.WithEnableSIGTERM(func() {
		_ = injector.Shutdown()
	}))
}

// NewHandler adapts a pipeline to the Lambda handler signature. The raw event is
// handed over untouched so each pipeline applies its own decode policy.
func NewHandler(h pipeline.Handler, telemetry Flusher) func(context.Context, json.RawMessage) error {
	return func(ctx context.Context, raw json.RawMessage) error {
		defer telemetry.Flush()
		return h.Handle(ctx, Invocation(ctx), raw)
	}
}

// Invocation reads the request id and log group the runtime attaches to ctx.
func Invocation(ctx context.Context) pipeline.Invocation {
	inv := pipeline.Invocation{LogGroup: lambdacontext.LogGroupName}
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		inv.RequestID = lc.AwsRequestID
	}
	return inv
}
