package sdk

import (
	"GridForge/internal/config"
	"GridForge/internal/pipeline"
	"GridForge/internal/pipeline/storage"
	"GridForge/pkg/ffmpeg"
	"context"

	"go.uber.org/zap"
)

// Client wires the discovery, composition and publish stages from one
// Config. The CLI, the API server and the Temporal worker all build their
// pipeline through it.
type Client struct {
	discoverer *pipeline.Discoverer
	composer   *pipeline.Composer
	publisher  *pipeline.Publisher
	workflow   *pipeline.Workflow
	logger     *zap.Logger
}

// NewClient builds a client around runner. A nil storage disables
// publishing.
func NewClient(cfg *config.Config, runner ffmpeg.Runner, st storage.Storage, logger *zap.Logger) *Client {
	discoverer := pipeline.NewDiscoverer(cfg.Discovery, logger)
	composer := pipeline.NewComposer(runner, cfg.Compose, logger)
	publisher := pipeline.NewPublisher(st, cfg.Storage, cfg.Pipeline.Retry, logger)
	return &Client{
		discoverer: discoverer,
		composer:   composer,
		publisher:  publisher,
		workflow:   pipeline.NewWorkflow(discoverer, composer, publisher, logger),
		logger:     logger,
	}
}

func (c *Client) DiscoverVideos(ctx context.Context, root string) ([]string, error) {
	return c.discoverer.Discover(ctx, root)
}

// PlanGrid builds the ffmpeg invocation for inputs without running it.
func (c *Client) PlanGrid(inputs []string, output string) (*pipeline.Plan, error) {
	return c.composer.Plan(inputs, output)
}

func (c *Client) ComposeGrid(ctx context.Context, inputs []string, output string) (*pipeline.ComposeResult, error) {
	return c.composer.Compose(ctx, inputs, output)
}

func (c *Client) RunWorkflow(ctx context.Context, root, output string) (*pipeline.Result, error) {
	return c.workflow.Run(ctx, pipeline.Request{Root: root, Output: output})
}

// Executor returns the in-process executor.
func (c *Client) Executor() pipeline.Executor {
	return c.workflow
}

// Activities returns the Temporal activities backed by the same stages.
func (c *Client) Activities() *pipeline.Activities {
	return pipeline.NewActivities(c.discoverer, c.composer, c.publisher, c.logger)
}
