package graph

import (
	"context"
	"errors"
	"testing"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmc-chatbot/server/internal/agent/graph/nodes"
	"github.com/pmc-chatbot/server/internal/agent/model"
	"github.com/pmc-chatbot/server/internal/agent/prompts"
	errx "github.com/pmc-chatbot/server/internal/core/error"
	"github.com/pmc-chatbot/server/internal/knowledge"
)

// stubChatModel is a canned-reply chat model for pipeline tests.
type stubChatModel struct {
	reply     string
	err       error
	gotPrompt string
	calls     int
}

func (m *stubChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	m.calls++
	if len(input) > 0 && input[len(input)-1] != nil {
		m.gotPrompt = input[len(input)-1].Content
	}
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *stubChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported in stub")
}

// fakeStatusClient records lookups and returns a canned record or error.
type fakeStatusClient struct {
	rec   model.StatusRecord
	err   error
	calls []string
}

func (f *fakeStatusClient) Lookup(ctx context.Context, identifier string) (model.StatusRecord, error) {
	f.calls = append(f.calls, identifier)
	return f.rec, f.err
}

const testCorpus = knowledge.Corpus("DEPARTMENT: Health\nSERVICE: Birth Certificate\nService ID: service-101\n")

func newTestRunner(t *testing.T, cm einomodel.BaseChatModel, status *fakeStatusClient) Runner {
	t.Helper()
	runnable, err := BuildGraph(context.Background(), &GraphConfig{
		ChatModel:    cm,
		ModelName:    "stub-model",
		Composer:     prompts.NewComposer(testCorpus, model.ConversationConfig{MaxTurns: 5}),
		StatusClient: status,
		Helpline:     "020-25501000",
	})
	require.NoError(t, err)
	return &pipelineRunner{runnable: runnable}
}

func TestPipeline_IdentifierRoutesToStatusLookup(t *testing.T) {
	status := &fakeStatusClient{rec: model.StatusRecord{Token: "PL10000004252600772", AppStatus: "APPROVED", Remark: "done"}}
	cm := &stubChatModel{reply: "should not be called"}
	runner := newTestRunner(t, cm, status)

	res, err := runner.Invoke(context.Background(), model.QueryInput{Message: "PL10000004252600772 status?"})
	require.NoError(t, err)

	require.Equal(t, []string{"PL10000004252600772"}, status.calls)
	assert.Zero(t, cm.calls)
	assert.True(t, res.IsTracking)
	assert.False(t, res.NeedsIdentifier)
	assert.Contains(t, res.Response, "PL10000004252600772")
	assert.Contains(t, res.Response, "approved")
}

func TestPipeline_TrackingKeywordsWithoutIdentifier(t *testing.T) {
	status := &fakeStatusClient{}
	cm := &stubChatModel{reply: "should not be called"}
	runner := newTestRunner(t, cm, status)

	res, err := runner.Invoke(context.Background(), model.QueryInput{Message: "track my application"})
	require.NoError(t, err)

	assert.Empty(t, status.calls)
	assert.Zero(t, cm.calls)
	assert.Equal(t, nodes.ClarifyingPrompt, res.Response)
	assert.True(t, res.IsTracking)
	assert.True(t, res.NeedsIdentifier)
}

func TestPipeline_LookupTimeoutBecomesApology(t *testing.T) {
	status := &fakeStatusClient{err: errx.Timeout(errors.New("deadline"), "the status service timed out, please try again later")}
	runner := newTestRunner(t, &stubChatModel{}, status)

	res, err := runner.Invoke(context.Background(), model.QueryInput{Message: "PL10000004252600772 status?"})
	require.NoError(t, err)

	assert.True(t, res.IsTracking)
	assert.Contains(t, res.Response, "try again later")
	assert.Contains(t, res.Response, "020-25501000")
}

func TestPipeline_GeneralQuestionGoesToModel(t *testing.T) {
	status := &fakeStatusClient{}
	cm := &stubChatModel{reply: "For a birth certificate use service-101. LINK:http://example.com"}
	runner := newTestRunner(t, cm, status)

	res, err := runner.Invoke(context.Background(), model.QueryInput{Message: "how do I get a birth certificate?"})
	require.NoError(t, err)

	assert.Empty(t, status.calls)
	assert.Equal(t, 1, cm.calls)
	assert.Contains(t, cm.gotPrompt, string(testCorpus))
	assert.Contains(t, cm.gotPrompt, "USER QUESTION: how do I get a birth certificate?")
	assert.False(t, res.IsTracking)
	assert.Equal(t, []string{"service-101"}, res.ServiceReferences)
}

func TestPipeline_HistoryReachesPrompt(t *testing.T) {
	cm := &stubChatModel{reply: "Sure."}
	runner := newTestRunner(t, cm, &fakeStatusClient{})

	_, err := runner.Invoke(context.Background(), model.QueryInput{
		Message: "and what about renewals?",
		History: []model.ChatTurn{
			{Role: "user", Content: "tell me about trade licenses"},
			{Role: "assistant", Content: "Trade licenses are issued by the licensing department."},
		},
	})
	require.NoError(t, err)

	assert.Contains(t, cm.gotPrompt, "USER: tell me about trade licenses")
	assert.Contains(t, cm.gotPrompt, "ASSISTANT: Trade licenses are issued by the licensing department.")
}

func TestPipeline_ModelSentinelMarksTracking(t *testing.T) {
	cm := &stubChatModel{reply: "TRACK_APPLICATION_REQUEST please provide your application number"}
	runner := newTestRunner(t, cm, &fakeStatusClient{})

	res, err := runner.Invoke(context.Background(), model.QueryInput{Message: "I submitted something last week, what now?"})
	require.NoError(t, err)

	assert.True(t, res.IsTracking)
	assert.Equal(t, "please provide your application number", res.Response)
}

func TestPipeline_EmptyInputRejected(t *testing.T) {
	runner := newTestRunner(t, &stubChatModel{reply: "x"}, &fakeStatusClient{})

	_, err := runner.Invoke(context.Background(), model.QueryInput{Message: "   "})
	require.Error(t, err)
	assert.Equal(t, errx.KindEmptyInput, errx.KindOf(err))
}

func TestPipeline_ModelFailureSurfacesAsModelError(t *testing.T) {
	cm := &stubChatModel{err: errors.New("boom")}
	runner := newTestRunner(t, cm, &fakeStatusClient{})

	_, err := runner.Invoke(context.Background(), model.QueryInput{Message: "how do I apply?"})
	require.Error(t, err)
	assert.Equal(t, errx.KindModelError, errx.KindOf(err))
}

func TestPipeline_EmptyCompletionIsModelError(t *testing.T) {
	cm := &stubChatModel{reply: "   "}
	runner := newTestRunner(t, cm, &fakeStatusClient{})

	_, err := runner.Invoke(context.Background(), model.QueryInput{Message: "how do I apply?"})
	require.Error(t, err)
	assert.Equal(t, errx.KindModelError, errx.KindOf(err))
}

func TestPipeline_NilModelUsesPlaceholder(t *testing.T) {
	runner := newTestRunner(t, nil, &fakeStatusClient{})

	res, err := runner.Invoke(context.Background(), model.QueryInput{Message: "how do I get a birth certificate?"})
	require.NoError(t, err)

	assert.Contains(t, res.Response, "not configured")
	assert.Contains(t, res.Response, "how do I get a birth certificate?")
	assert.Empty(t, res.ServiceReferences)
	assert.False(t, res.IsTracking)
}

func TestPipeline_PlaceholderSkipsOutputShaping(t *testing.T) {
	runner := newTestRunner(t, nil, &fakeStatusClient{})

	// The placeholder echoes the user text; references and the short-list
	// caveat must not be derived from that echo.
	res, err := runner.Invoke(context.Background(), model.QueryInput{Message: "what documents do I need for service-123?"})
	require.NoError(t, err)

	assert.Empty(t, res.ServiceReferences)
	assert.NotContains(t, res.Response, "may be incomplete")
	assert.Contains(t, res.Response, "not configured")
}

func TestPipeline_HungModelResolvesAsTimeout(t *testing.T) {
	cm := &hangingChatModel{}
	status := &fakeStatusClient{}
	runnable, err := BuildGraph(context.Background(), &GraphConfig{
		ChatModel:    cm,
		ModelName:    "stub-model",
		Composer:     prompts.NewComposer(testCorpus, model.ConversationConfig{MaxTurns: 5}),
		StatusClient: status,
		Helpline:     "020-25501000",
	})
	require.NoError(t, err)
	runner := &pipelineRunner{runnable: runnable, timeout: 50 * time.Millisecond}

	_, err = runner.Invoke(context.Background(), model.QueryInput{Message: "how do I apply?"})
	require.Error(t, err)
	assert.Equal(t, errx.KindTimeout, errx.KindOf(err))
	assert.Contains(t, err.Error(), "try again later")
}

// hangingChatModel never replies; it only honours context cancellation.
type hangingChatModel struct{}

func (m *hangingChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (m *hangingChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported in stub")
}

func TestPipeline_TrackingStillWorksWithoutModel(t *testing.T) {
	status := &fakeStatusClient{rec: model.StatusRecord{Token: "T1234567", AppStatus: "PENDING", Remark: "queued"}}
	runner := newTestRunner(t, nil, status)

	res, err := runner.Invoke(context.Background(), model.QueryInput{Message: "status of T1234567"})
	require.NoError(t, err)

	assert.True(t, res.IsTracking)
	assert.Contains(t, res.Response, "pending review")
}
