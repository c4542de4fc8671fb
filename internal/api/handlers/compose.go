package handlers

import (
	"GridForge/internal/config"
	"GridForge/internal/job"
	"GridForge/internal/pipeline"
	types "GridForge/pkg"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

// ComposeRequest is the body of POST /compose. Relative paths are taken
// against the server's input root and output directory. Overrides are
// applied on top of the server's compose config, keyed like the config file.
type ComposeRequest struct {
	Root      string                 `json:"root"`
	Output    string                 `json:"output"`
	Overrides map[string]interface{} `json:"overrides,omitempty"`
}

// ComposeHandler accepts composition requests and runs them in the
// background, at most server.max_concurrent_jobs at a time. Roots must lie
// under server.input_root and outputs under server.output_dir.
type ComposeHandler struct {
	ctx        context.Context
	jobManager *job.Manager
	executor   pipeline.Executor
	defaults   types.ComposeConfig
	inputRoot  string
	outputDir  string
	slots      chan struct{}
	wg         sync.WaitGroup
	logger     *zap.Logger
}

func NewComposeHandler(ctx context.Context, jobManager *job.Manager, executor pipeline.Executor, defaults types.ComposeConfig, serverCfg types.ServerConfig, logger *zap.Logger) *ComposeHandler {
	maxConcurrent := serverCfg.MaxConcurrentJobs
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &ComposeHandler{
		ctx:        ctx,
		jobManager: jobManager,
		executor:   executor,
		defaults:   defaults,
		inputRoot:  serverCfg.InputRoot,
		outputDir:  serverCfg.OutputDir,
		slots:      make(chan struct{}, maxConcurrent),
		logger:     logger,
	}
}

// Handle validates the request, records a pending job and returns its ID
// immediately.
func (h *ComposeHandler) Handle(w http.ResponseWriter, r *http.Request) {
	// A JSON content type forces a CORS preflight for browser requests.
	if mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mediaType != "application/json" {
		http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
		return
	}

	var req ComposeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid compose request", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Root = strings.TrimSpace(req.Root)
	req.Output = strings.TrimSpace(req.Output)
	if req.Root == "" || req.Output == "" {
		http.Error(w, "root and output are required", http.StatusBadRequest)
		return
	}

	root, err := confine(h.inputRoot, req.Root, true)
	if err != nil {
		h.logger.Warn("Rejected compose root", zap.String("root", req.Root), zap.Error(err))
		http.Error(w, "root must be inside the input root", http.StatusBadRequest)
		return
	}
	output, err := confine(h.outputDir, req.Output, false)
	if err != nil {
		h.logger.Warn("Rejected compose output", zap.String("output", req.Output), zap.Error(err))
		http.Error(w, "output must be inside the output directory", http.StatusBadRequest)
		return
	}
	req.Root, req.Output = root, output

	cfg, err := h.composeConfig(req.Overrides)
	if err != nil {
		h.logger.Warn("Invalid compose overrides", zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	createdJob, err := h.jobManager.Create(r.Context(), req.Root, req.Output)
	if err != nil {
		http.Error(w, "Failed to create job", http.StatusInternalServerError)
		return
	}

	h.wg.Add(1)
	go h.run(createdJob.ID, pipeline.Request{Root: req.Root, Output: req.Output, Compose: &cfg})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"job_id":  createdJob.ID,
		"message": "Composition queued",
	})
}

// composeConfig decodes overrides onto a copy of the defaults.
func (h *ComposeHandler) composeConfig(overrides map[string]interface{}) (types.ComposeConfig, error) {
	cfg := h.defaults
	if len(overrides) > 0 {
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			ErrorUnused:      true,
		})
		if err != nil {
			return cfg, err
		}
		if err := decoder.Decode(overrides); err != nil {
			return cfg, fmt.Errorf("invalid overrides: %w", err)
		}
	}
	if err := config.ValidateCompose(&cfg); err != nil {
		return cfg, fmt.Errorf("invalid overrides: %w", err)
	}
	return cfg, nil
}

func (h *ComposeHandler) run(jobID uuid.UUID, req pipeline.Request) {
	defer h.wg.Done()

	select {
	case h.slots <- struct{}{}:
	case <-h.ctx.Done():
		h.finish(jobID, nil, h.ctx.Err())
		return
	}
	defer func() { <-h.slots }()

	if err := h.jobManager.Start(h.ctx, jobID); err != nil {
		h.logger.Error("Failed to start job", zap.String("job_id", jobID.String()), zap.Error(err))
	}

	result, err := h.executor.Run(h.ctx, req)
	h.finish(jobID, result, err)
}

func (h *ComposeHandler) finish(jobID uuid.UUID, result *pipeline.Result, runErr error) {
	// The job outcome is recorded even when the server is shutting down.
	ctx := context.WithoutCancel(h.ctx)
	if err := h.jobManager.Finish(ctx, jobID, result, runErr); err != nil {
		h.logger.Error("Failed to finish job", zap.String("job_id", jobID.String()), zap.Error(err))
		return
	}
	if runErr != nil && !errors.Is(runErr, pipeline.ErrNoInputs) {
		h.logger.Error("Composition job failed", zap.String("job_id", jobID.String()), zap.Error(runErr))
	}
}

// Wait blocks until every accepted job has finished.
func (h *ComposeHandler) Wait() {
	h.wg.Wait()
}
