package pipeline

import (
	types "GridForge/pkg"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"
	"go.uber.org/zap/zaptest"
)

type GridComposeWorkflowTestSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite

	env    *testsuite.TestWorkflowEnvironment
	runner *fakeRunner
}

func (s *GridComposeWorkflowTestSuite) SetupTest() {
	s.env = s.NewTestWorkflowEnvironment()
	s.runner = &fakeRunner{}
}

func (s *GridComposeWorkflowTestSuite) AfterTest(_, _ string) {
	s.env.AssertExpectations(s.T())
}

func (s *GridComposeWorkflowTestSuite) register(runner *fakeRunner) {
	s.registerWithPublisher(runner, nil)
}

func (s *GridComposeWorkflowTestSuite) registerWithPublisher(runner *fakeRunner, publisher *Publisher) {
	logger := zaptest.NewLogger(s.T())
	activities := NewActivities(
		NewDiscoverer(testDiscoveryConfig(), logger),
		NewComposer(runner, types.DefaultComposeConfig(), logger),
		publisher,
		logger,
	)
	s.env.RegisterWorkflow(GridComposeWorkflow)
	s.env.RegisterActivity(activities.DiscoverActivity)
	s.env.RegisterActivity(activities.ComposeActivity)
	s.env.RegisterActivity(activities.PublishActivity)
}

func (s *GridComposeWorkflowTestSuite) Test_Success() {
	root := s.T().TempDir()
	touch(s.T(), root, "a.mp4", "b.mp4", "c.mp4")
	output := filepath.Join(s.T().TempDir(), "out.mp4")
	s.register(s.runner)

	s.env.ExecuteWorkflow(GridComposeWorkflow, WorkflowInput{Root: root, Output: output, Publish: true})

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
	var result Result
	s.NoError(s.env.GetWorkflowResult(&result))
	s.Equal(StateSucceeded, result.State)
	s.Equal(2, result.GridSize)
	s.Equal(2, result.Rows)
	s.Len(result.Inputs, 3)
	s.Empty(result.StorageKey)
	s.Len(s.runner.Calls(), 1)
}

func (s *GridComposeWorkflowTestSuite) Test_EmptyRootSkips() {
	s.register(s.runner)

	s.env.ExecuteWorkflow(GridComposeWorkflow, WorkflowInput{Root: s.T().TempDir(), Output: "out.mp4"})

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
	var result Result
	s.NoError(s.env.GetWorkflowResult(&result))
	s.Equal(StateSkipped, result.State)
	s.Empty(s.runner.Calls())
}

func (s *GridComposeWorkflowTestSuite) Test_DiscoveryFailure() {
	s.register(s.runner)
	root := filepath.Join(s.T().TempDir(), "absent")

	s.env.ExecuteWorkflow(GridComposeWorkflow, WorkflowInput{Root: root, Output: "out.mp4"})

	s.True(s.env.IsWorkflowCompleted())
	err := fromTemporalError(s.env.GetWorkflowError())
	var discErr *DiscoveryError
	s.Require().ErrorAs(err, &discErr)
	s.Equal(DiscoveryNotFound, discErr.Kind)
	s.Equal(root, discErr.Root)
	s.Empty(s.runner.Calls())
}

func (s *GridComposeWorkflowTestSuite) Test_CompositionFailureIsNotRetried() {
	root := s.T().TempDir()
	touch(s.T(), root, "a.mp4")
	runner := failingRunner("Unknown encoder 'h264_nvenc'")
	s.register(runner)

	s.env.ExecuteWorkflow(GridComposeWorkflow, WorkflowInput{Root: root, Output: filepath.Join(s.T().TempDir(), "out.mp4")})

	s.True(s.env.IsWorkflowCompleted())
	err := fromTemporalError(s.env.GetWorkflowError())
	var compErr *CompositionError
	s.Require().ErrorAs(err, &compErr)
	s.Contains(compErr.Diagnostic, "Unknown encoder")
	s.Len(runner.Calls(), 1)
}

func (s *GridComposeWorkflowTestSuite) Test_PublishFailureKeepsComposite() {
	root := s.T().TempDir()
	touch(s.T(), root, "a.mp4", "b.mp4")
	output := writeOutput(s.T(), "grid")
	st := &flakyStorage{failures: 10}
	publisher := NewPublisher(st, types.StorageConfig{Type: "local", Prefix: "grids"}, testRetryConfig(), zaptest.NewLogger(s.T()))
	s.registerWithPublisher(s.runner, publisher)

	s.env.ExecuteWorkflow(GridComposeWorkflow, WorkflowInput{Root: root, Output: output, Publish: true})

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
	var result Result
	s.NoError(s.env.GetWorkflowResult(&result))
	s.Equal(StateSucceeded, result.State)
	s.Empty(result.StorageKey)
	s.Contains(result.PublishError, "connection reset by peer")
	s.Equal(3, st.attempts)

	final, err := resultFromWorkflow(result)
	var pubErr *PublishError
	s.Require().ErrorAs(err, &pubErr)
	s.Equal(output, pubErr.Output)
	s.Equal(StateSucceeded, final.State)
}

func TestGridComposeWorkflowTestSuite(t *testing.T) {
	suite.Run(t, new(GridComposeWorkflowTestSuite))
}

func TestFromTemporalError(t *testing.T) {
	err := temporal.NewNonRetryableApplicationError("boom", compositionErrorType, nil, CompositionFailure{
		Output:     "out.mp4",
		ExitCode:   1,
		Diagnostic: "Conversion failed!",
	})
	var compErr *CompositionError
	require.ErrorAs(t, fromTemporalError(err), &compErr)
	assert.Equal(t, "out.mp4", compErr.Output)
	assert.Equal(t, 1, compErr.ExitCode)
	assert.Equal(t, "Conversion failed!", compErr.Diagnostic)

	plain := errors.New("network down")
	assert.Same(t, plain, fromTemporalError(plain))

	other := temporal.NewApplicationError("other", "SomethingElse")
	assert.Equal(t, other, fromTemporalError(other))
}

func TestResultFromWorkflow(t *testing.T) {
	result, err := resultFromWorkflow(Result{State: StateSucceeded, Output: "out.mp4", StorageKey: "grids/out.mp4"})
	require.NoError(t, err)
	assert.Equal(t, "grids/out.mp4", result.StorageKey)

	result, err = resultFromWorkflow(Result{State: StateSkipped})
	assert.ErrorIs(t, err, ErrNoInputs)
	assert.Equal(t, StateSkipped, result.State)

	result, err = resultFromWorkflow(Result{State: StateSucceeded, Output: "out.mp4", PublishError: "bucket gone"})
	var pubErr *PublishError
	require.ErrorAs(t, err, &pubErr)
	assert.Equal(t, "out.mp4", pubErr.Output)
	assert.EqualError(t, pubErr.Err, "bucket gone")
	assert.Equal(t, StateSucceeded, result.State)
}
