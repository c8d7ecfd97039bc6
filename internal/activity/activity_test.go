package activity

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shaiso/postflow/internal/dedupe"
	"github.com/shaiso/postflow/internal/domain"
	"github.com/shaiso/postflow/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"
)

var errBrokerDown = errors.New("broker down")

type fixture struct {
	acts         *Activities
	posts        *fakePosts
	integrations *fakeIntegrations
	plugs        *fakePlugs
	events       *fakeEvents
	provider     *fakeProvider
	redis        *miniredis.Miniredis
	env          *testsuite.TestActivityEnvironment
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	f := &fixture{
		posts: newFakePosts(),
		integrations: newFakeIntegrations(
			domain.Integration{ID: "i1", ProviderIdentifier: "x", Token: "db-token"},
		),
		plugs:    &fakePlugs{},
		events:   &fakeEvents{},
		provider: &fakeProvider{id: "x", commentable: true, plugs: map[string]bool{"autoRepostPost": true}},
		redis:    mr,
	}

	acts, err := New(Config{
		Posts:        f.posts,
		Integrations: f.integrations,
		Plugs:        f.plugs,
		Events:       f.events,
		Providers:    provider.NewRegistry(f.provider),
		Dedupe:       dedupe.New(dedupe.Config{Client: goredis.NewClient(&goredis.Options{Addr: mr.Addr()})}),
	})
	require.NoError(t, err)
	f.acts = acts

	var suite testsuite.WorkflowTestSuite
	f.env = suite.NewTestActivityEnvironment()
	f.env.RegisterActivity(acts)
	return f
}

func integ() domain.Integration {
	return domain.Integration{ID: "i1", OrganizationID: "org1", Name: "acme", ProviderIdentifier: "x", Token: "tok"}
}

func requireAppErrType(t *testing.T, err error, errType string) {
	t.Helper()
	require.Error(t, err)
	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr), "expected ApplicationError, got %v", err)
	assert.Equal(t, errType, appErr.Type())
}

func TestNew_MissingDependency(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrMissingDependency)
}

func TestPostSocial_Success(t *testing.T) {
	f := newFixture(t)

	val, err := f.env.ExecuteActivity(f.acts.PostSocial, integ(), []domain.PostItem{{ID: "p1", Content: "hi"}})
	require.NoError(t, err)

	var results []domain.PublishResult
	require.NoError(t, val.Get(&results))
	require.Len(t, results, 1)
	assert.Equal(t, "ext-p1", results[0].ExternalID)
}

func TestPostSocial_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		errType string
	}{
		{"refresh needed", provider.RefreshNeeded("expired"), ErrTypeRefreshToken},
		{"bad body", provider.BadBody("too long"), ErrTypeBadBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.provider.postErr = tt.err

			_, err := f.env.ExecuteActivity(f.acts.PostSocial, integ(), []domain.PostItem{{ID: "p1"}})
			requireAppErrType(t, err, tt.errType)
		})
	}
}

func TestPostSocial_TransportErrorIsRetryable(t *testing.T) {
	f := newFixture(t)
	f.provider.postErr = provider.ErrBridgeRequest

	_, err := f.env.ExecuteActivity(f.acts.PostSocial, integ(), []domain.PostItem{{ID: "p1"}})
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		assert.NotEqual(t, ErrTypeRefreshToken, appErr.Type())
		assert.NotEqual(t, ErrTypeBadBody, appErr.Type())
		assert.False(t, appErr.NonRetryable())
	}
}

func TestPostSocial_UnknownProvider(t *testing.T) {
	f := newFixture(t)
	unknown := integ()
	unknown.ProviderIdentifier = "myspace"

	_, err := f.env.ExecuteActivity(f.acts.PostSocial, unknown, []domain.PostItem{{ID: "p1"}})
	requireAppErrType(t, err, errTypeUnknownProvider)
}

func TestPostComment_PassesAnchorAndParent(t *testing.T) {
	f := newFixture(t)

	_, err := f.env.ExecuteActivity(f.acts.PostComment, "ext-p1", "ext-c1", integ(), []domain.PostItem{{ID: "c2"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"ext-p1/ext-c1"}, f.provider.comments)
}

func TestIsCommentable(t *testing.T) {
	f := newFixture(t)

	val, err := f.env.ExecuteActivity(f.acts.IsCommentable, integ())
	require.NoError(t, err)

	var ok bool
	require.NoError(t, val.Get(&ok))
	assert.True(t, ok)
}

func TestRefreshToken_Success(t *testing.T) {
	f := newFixture(t)
	f.provider.refresh = domain.Token{AccessToken: "new", RefreshToken: "r2", ExpiresIn: 60}

	val, err := f.env.ExecuteActivity(f.acts.RefreshToken, integ())
	require.NoError(t, err)

	var token domain.Token
	require.NoError(t, val.Get(&token))
	assert.Equal(t, "new", token.AccessToken)
	assert.Equal(t, "new", f.integrations.saved["i1"].AccessToken)
	assert.False(t, f.integrations.refreshNeeded["i1"])
}

func TestRefreshToken_FailureReturnsEmptyToken(t *testing.T) {
	f := newFixture(t)
	f.provider.refreshErr = provider.RefreshNeeded("revoked")

	val, err := f.env.ExecuteActivity(f.acts.RefreshToken, integ())
	require.NoError(t, err)

	var token domain.Token
	require.NoError(t, val.Get(&token))
	assert.True(t, token.IsEmpty())
	assert.True(t, f.integrations.refreshNeeded["i1"])
	assert.Empty(t, f.integrations.saved)
}

func TestUpdatePostAndChangeState(t *testing.T) {
	f := newFixture(t)

	_, err := f.env.ExecuteActivity(f.acts.UpdatePost, "p1", "ext-1", "https://social/1")
	require.NoError(t, err)
	assert.Equal(t, "ext-1", f.posts.published["p1"].ExternalID)

	items := []domain.PostItem{{ID: "p1"}, {ID: "c1"}}
	_, err = f.env.ExecuteActivity(f.acts.ChangeState, "p1", domain.PostStateError, "bad body", items)
	require.NoError(t, err)
	assert.Equal(t, domain.PostStateError, f.posts.states["p1"])
	assert.Equal(t, domain.PostStateError, f.posts.states["c1"])
	assert.Equal(t, "bad body", f.posts.causes["c1"])
}

func TestInAppNotification_PublishesAndClaims(t *testing.T) {
	f := newFixture(t)
	n := domain.Notification{OrganizationID: "org1", Title: "t", Body: "b", Severity: domain.SeveritySuccess}

	_, err := f.env.ExecuteActivity(f.acts.InAppNotification, n)
	require.NoError(t, err)

	require.Len(t, f.events.notifications, 1)
	assert.Equal(t, "t", f.events.notifications[0].Title)
	assert.Len(t, f.redis.Keys(), 1)
}

func TestOnce_SkipsClaimedAndReleasesOnFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	calls := 0
	effect := func() error { calls++; return nil }

	require.NoError(t, f.acts.once(ctx, "wf:run:1", effect))
	require.NoError(t, f.acts.once(ctx, "wf:run:1", effect))
	assert.Equal(t, 1, calls)

	err := f.acts.once(ctx, "wf:run:2", func() error { return errBrokerDown })
	require.ErrorIs(t, err, errBrokerDown)
	assert.False(t, f.redis.Exists("postflow:dedupe:wf:run:2"))
}

func TestSendWebhooks_FiltersByIntegration(t *testing.T) {
	f := newFixture(t)
	f.plugs.webhooks = []domain.Webhook{
		{ID: "w1", URL: "https://a", IntegrationIDs: []string{"i1"}},
		{ID: "w2", URL: "https://b", IntegrationIDs: []string{"i9"}},
		{ID: "w3", URL: "https://c"},
	}

	_, err := f.env.ExecuteActivity(f.acts.SendWebhooks, "ext-1", "org1", "i1")
	require.NoError(t, err)

	require.Len(t, f.events.webhooks, 2)
	assert.Equal(t, "w1", f.events.webhooks[0].WebhookID)
	assert.Equal(t, "w3", f.events.webhooks[1].WebhookID)
	assert.Equal(t, "ext-1", f.events.webhooks[0].ExternalID)
}

func TestSendWebhooks_PublishFailure(t *testing.T) {
	f := newFixture(t)
	f.plugs.webhooks = []domain.Webhook{{ID: "w1"}, {ID: "w2"}}
	f.events.failWebhook = "w2"

	_, err := f.env.ExecuteActivity(f.acts.SendWebhooks, "ext-1", "org1", "i1")
	require.Error(t, err)

	// Claim первого webhook остаётся, claim второго снят.
	assert.Len(t, f.redis.Keys(), 1)
}

func TestInternalPlugs_FiltersBySupport(t *testing.T) {
	f := newFixture(t)
	settings := `{"plugs":[
		{"function":"autoRepostPost","integration":"i2","delay":60000,"data":{"likes":"10"}},
		{"function":"unknown","integration":"i2","delay":1000},
		{"function":"autoRepostPost","integration":"","delay":1000}
	]}`

	val, err := f.env.ExecuteActivity(f.acts.InternalPlugs, integ(), settings)
	require.NoError(t, err)

	var tasks []domain.PlugTask
	require.NoError(t, val.Get(&tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, domain.PlugKindInternal, tasks[0].Kind)
	assert.Equal(t, int64(60000), tasks[0].DelayMs)
	assert.Equal(t, "10", tasks[0].Data["likes"])
}

func TestInternalPlugs_InvalidSettings(t *testing.T) {
	f := newFixture(t)

	val, err := f.env.ExecuteActivity(f.acts.InternalPlugs, integ(), "{not json")
	require.NoError(t, err)

	var tasks []domain.PlugTask
	require.NoError(t, val.Get(&tasks))
	assert.Empty(t, tasks)
}

func TestGlobalPlugs(t *testing.T) {
	f := newFixture(t)
	f.plugs.global = []domain.GlobalPlug{{ID: "g1", Function: "likes", DelayMs: 1000, TotalRuns: 3}}

	val, err := f.env.ExecuteActivity(f.acts.GlobalPlugs, integ())
	require.NoError(t, err)

	var plugs []domain.GlobalPlug
	require.NoError(t, val.Get(&plugs))
	require.Len(t, plugs, 1)
	assert.Equal(t, 3, plugs[0].TotalRuns)
}

func TestProcessInternalPlug_UsesStoredToken(t *testing.T) {
	f := newFixture(t)
	task := domain.NewInternalPlug("i1", "autoRepostPost", 0, nil)

	_, err := f.env.ExecuteActivity(f.acts.ProcessInternalPlug, task, "ext-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"db-token"}, f.provider.plugCallsBy)
}

func TestProcessInternalPlug_RefreshNeeded(t *testing.T) {
	f := newFixture(t)
	f.provider.plugErr = provider.RefreshNeeded("")
	task := domain.NewInternalPlug("i1", "autoRepostPost", 0, nil)

	_, err := f.env.ExecuteActivity(f.acts.ProcessInternalPlug, task, "ext-1")
	requireAppErrType(t, err, ErrTypeRefreshToken)
}

func TestProcessPlug_Satisfied(t *testing.T) {
	f := newFixture(t)
	f.provider.satisfied = true
	task := domain.NewGlobalPlug("g1", "i1", "likes", 1000, nil)

	val, err := f.env.ExecuteActivity(f.acts.ProcessPlug, task, "ext-1")
	require.NoError(t, err)

	var satisfied bool
	require.NoError(t, val.Get(&satisfied))
	assert.True(t, satisfied)
}

func TestGetIntegrationByID_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.env.ExecuteActivity(f.acts.GetIntegrationByID, "org1", "missing")
	require.Error(t, err)
}
