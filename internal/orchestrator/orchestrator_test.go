package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/operatorservice/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/converter"
	"go.temporal.io/sdk/mocks"
	"google.golang.org/grpc"

	"github.com/shaiso/postflow/internal/domain"
	"github.com/shaiso/postflow/internal/mq"
	"github.com/shaiso/postflow/internal/publication"
)

func newTestStarter(c *mocks.Client) *Starter {
	return NewStarter(StarterConfig{Client: c, TaskQueue: "postflow"})
}

func startedRun(id, runID string) *mocks.WorkflowRun {
	run := &mocks.WorkflowRun{}
	run.On("GetID").Return(id)
	run.On("GetRunID").Return(runID)
	return run
}

func TestStarter_ScheduledStartJoinsExisting(t *testing.T) {
	c := &mocks.Client{}
	var options client.StartWorkflowOptions
	c.On("ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			options = args.Get(1).(client.StartWorkflowOptions)
		}).
		Return(startedRun("post_p1", "r1"), nil)

	req := domain.PublicationRequest{TaskRoute: "x", PostID: "p1", OrganizationID: "org1"}
	exec, err := newTestStarter(c).Start(context.Background(), req, SourceScheduler)
	require.NoError(t, err)

	assert.Equal(t, Execution{WorkflowID: "post_p1", RunID: "r1"}, exec)
	assert.Equal(t, "post_p1", options.ID)
	assert.Equal(t, "postflow", options.TaskQueue)
	assert.Equal(t, enumspb.WORKFLOW_ID_CONFLICT_POLICY_USE_EXISTING, options.WorkflowIDConflictPolicy)

	postID, ok := options.TypedSearchAttributes.GetKeyword(publication.SearchAttrPostID)
	assert.True(t, ok)
	assert.Equal(t, "p1", postID)

	orgID, ok := options.TypedSearchAttributes.GetKeyword(publication.SearchAttrOrganizationID)
	assert.True(t, ok)
	assert.Equal(t, "org1", orgID)

	c.AssertExpectations(t)
}

func TestStarter_ImmediateStartTerminatesExisting(t *testing.T) {
	c := &mocks.Client{}
	c.On("ExecuteWorkflow", mock.Anything,
		mock.MatchedBy(func(o client.StartWorkflowOptions) bool {
			return o.WorkflowIDConflictPolicy == enumspb.WORKFLOW_ID_CONFLICT_POLICY_TERMINATE_EXISTING
		}),
		mock.Anything,
		mock.MatchedBy(func(req domain.PublicationRequest) bool { return req.PublishImmediately }),
	).Return(startedRun("post_p1", "r2"), nil)

	req := domain.PublicationRequest{TaskRoute: "x", PostID: "p1", OrganizationID: "org1", PublishImmediately: true}
	_, err := newTestStarter(c).Start(context.Background(), req, SourceAPI)
	require.NoError(t, err)
	c.AssertExpectations(t)
}

func TestStarter_RejectsIncompleteRequest(t *testing.T) {
	c := &mocks.Client{}

	_, err := newTestStarter(c).Start(context.Background(), domain.PublicationRequest{PostID: "p1"}, SourceAPI)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	c.AssertNotCalled(t, "ExecuteWorkflow")
}

func TestStarter_StartError(t *testing.T) {
	c := &mocks.Client{}
	c.On("ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("frontend unavailable"))

	req := domain.PublicationRequest{TaskRoute: "x", PostID: "p1", OrganizationID: "org1"}
	_, err := newTestStarter(c).Start(context.Background(), req, SourceScheduler)
	assert.ErrorContains(t, err, "frontend unavailable")
}

func TestStarter_Poke(t *testing.T) {
	c := &mocks.Client{}
	c.On("SignalWorkflow", mock.Anything, "post_p1", "", publication.SignalPoke, nil).Return(nil)

	require.NoError(t, newTestStarter(c).Poke(context.Background(), "p1"))
	c.AssertExpectations(t)
}

func TestStarter_PokeUnknownExecution(t *testing.T) {
	c := &mocks.Client{}
	c.On("SignalWorkflow", mock.Anything, "post_p2", "", publication.SignalPoke, nil).
		Return(serviceerror.NewNotFound("workflow not found"))

	err := newTestStarter(c).Poke(context.Background(), "p2")
	assert.ErrorIs(t, err, ErrExecutionNotFound)
}

func TestStarter_Progress(t *testing.T) {
	want := publication.Progress{
		Phase:     publication.PhasePlugs,
		Published: []domain.PublishResult{{ItemID: "p1", ExternalID: "ext-1"}},
		Poked:     true,
	}
	payloads, err := converter.GetDefaultDataConverter().ToPayloads(want)
	require.NoError(t, err)

	c := &mocks.Client{}
	c.On("QueryWorkflow", mock.Anything, "post_p1", "", publication.QueryProgress).
		Return(client.NewValue(payloads), nil)

	got, err := newTestStarter(c).Progress(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestHandlePostDue_StartsScheduledRun(t *testing.T) {
	c := &mocks.Client{}
	c.On("ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything,
		domain.PublicationRequest{TaskRoute: "linkedin", PostID: "p1", OrganizationID: "org1"},
	).Return(startedRun("post_p1", "r1"), nil)

	o := New(Config{Starter: newTestStarter(c)})
	delivery := &mq.Delivery{Message: mq.Message{
		Type: mq.MessageTypePostDue,
		Payload: map[string]any{
			"post_id":         "p1",
			"organization_id": "org1",
			"provider":        "linkedin",
		},
	}}

	require.NoError(t, o.handlePostDue(context.Background(), delivery))
	c.AssertExpectations(t)
}

func TestHandlePostDue_BadPayloadIsPermanent(t *testing.T) {
	o := New(Config{Starter: newTestStarter(&mocks.Client{})})
	delivery := &mq.Delivery{Message: mq.Message{Payload: map[string]any{"post_id": 42}}}

	err := o.handlePostDue(context.Background(), delivery)
	assert.ErrorIs(t, err, mq.ErrPermanent)
}

func TestHandlePostDue_MissingProviderIsPermanent(t *testing.T) {
	o := New(Config{Starter: newTestStarter(&mocks.Client{})})
	delivery := &mq.Delivery{Message: mq.Message{Payload: map[string]any{
		"post_id":         "p1",
		"organization_id": "org1",
	}}}

	err := o.handlePostDue(context.Background(), delivery)
	assert.ErrorIs(t, err, mq.ErrPermanent)
}

func TestHandlePostDue_TransientStartErrorRequeues(t *testing.T) {
	c := &mocks.Client{}
	c.On("ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, serviceerror.NewUnavailable("frontend down"))

	o := New(Config{Starter: newTestStarter(c)})
	delivery := &mq.Delivery{Message: mq.Message{Payload: map[string]any{
		"post_id":         "p1",
		"organization_id": "org1",
		"provider":        "x",
	}}}

	err := o.handlePostDue(context.Background(), delivery)
	require.Error(t, err)
	assert.NotErrorIs(t, err, mq.ErrPermanent)
}

func TestHandlePostDue_Stopped(t *testing.T) {
	o := New(Config{Starter: newTestStarter(&mocks.Client{})})
	o.Stop()

	err := o.handlePostDue(context.Background(), &mq.Delivery{})
	assert.ErrorIs(t, err, ErrOrchestratorStopped)
}

// fakeOperator — operator service с двумя нужными методами.
type fakeOperator struct {
	operatorservice.OperatorServiceClient

	existing map[string]enumspb.IndexedValueType
	added    map[string]enumspb.IndexedValueType
	listErr  error
}

func (f *fakeOperator) ListSearchAttributes(_ context.Context, req *operatorservice.ListSearchAttributesRequest, _ ...grpc.CallOption) (*operatorservice.ListSearchAttributesResponse, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &operatorservice.ListSearchAttributesResponse{CustomAttributes: f.existing}, nil
}

func (f *fakeOperator) AddSearchAttributes(_ context.Context, req *operatorservice.AddSearchAttributesRequest, _ ...grpc.CallOption) (*operatorservice.AddSearchAttributesResponse, error) {
	f.added = req.GetSearchAttributes()
	return &operatorservice.AddSearchAttributesResponse{}, nil
}

func TestRegisterSearchAttributes_AddsMissing(t *testing.T) {
	op := &fakeOperator{existing: map[string]enumspb.IndexedValueType{
		"organizationId": enumspb.INDEXED_VALUE_TYPE_KEYWORD,
	}}

	added, err := RegisterSearchAttributes(context.Background(), op, "default", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"postId"}, added)
	assert.Equal(t, map[string]enumspb.IndexedValueType{"postId": enumspb.INDEXED_VALUE_TYPE_KEYWORD}, op.added)
}

func TestRegisterSearchAttributes_NothingMissing(t *testing.T) {
	op := &fakeOperator{existing: map[string]enumspb.IndexedValueType{
		"organizationId": enumspb.INDEXED_VALUE_TYPE_KEYWORD,
		"postId":         enumspb.INDEXED_VALUE_TYPE_KEYWORD,
	}}

	added, err := RegisterSearchAttributes(context.Background(), op, "default", nil)
	require.NoError(t, err)
	assert.Empty(t, added)
	assert.Nil(t, op.added)
}

func TestRegisterSearchAttributes_ListError(t *testing.T) {
	op := &fakeOperator{listErr: errors.New("permission denied")}

	_, err := RegisterSearchAttributes(context.Background(), op, "default", nil)
	assert.ErrorContains(t, err, "permission denied")
}
