package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/noit/research-api/internal/domain"
	"github.com/noit/research-api/internal/logging"
	"github.com/noit/research-api/internal/orchestrator"
	"github.com/noit/research-api/internal/repository/sqlstore"
	"github.com/noit/research-api/internal/service"
	"github.com/noit/research-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrchestrator struct {
	answer    string
	err       error
	gotModel  string
	block     bool
	gotCtxErr error
}

func (f *fakeOrchestrator) Answer(ctx context.Context, question, model string) (string, error) {
	f.gotModel = model
	if f.block {
		<-ctx.Done()
		f.gotCtxErr = ctx.Err()
		return "", ctx.Err()
	}
	return f.answer, f.err
}

func (f *fakeOrchestrator) Name() string { return "fake" }

func newQueryService(t *testing.T, orch orchestrator.Orchestrator, timeout time.Duration) (*service.QueryService, *testutil.TestDB, domain.Identity) {
	t.Helper()
	testDB := testutil.NewTestDB(t)
	ledger := service.NewQueryLedger(sqlstore.NewQueryRepository(testDB.DB))
	svc := service.NewQueryService(ledger, orch, "default-model", timeout, logging.Discard())

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	return svc, testDB, domain.Identity{UserID: user.ID, Email: user.Email}
}

func TestQueryService_Ask(t *testing.T) {
	tests := []struct {
		name      string
		model     string
		wantModel string
	}{
		{name: "explicit model", model: "llama3", wantModel: "llama3"},
		{name: "default model", model: "", wantModel: "default-model"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orch := &fakeOrchestrator{answer: "42"}
			svc, _, identity := newQueryService(t, orch, time.Second)

			record, err := svc.Ask(context.Background(), identity, "meaning of life?", tt.model)
			require.NoError(t, err)
			require.NotNil(t, record.Answer)
			assert.Equal(t, "42", *record.Answer)
			assert.NotZero(t, record.ID)
			assert.Equal(t, tt.wantModel, orch.gotModel)
			assert.Equal(t, tt.wantModel, record.Meta.Data().Model)
			assert.Equal(t, "fake", record.Meta.Data().Orchestrator)
		})
	}
}

func TestQueryService_AskWithEcho(t *testing.T) {
	svc, _, identity := newQueryService(t, orchestrator.Echo{}, time.Second)

	record, err := svc.Ask(context.Background(), identity, "hello", "")
	require.NoError(t, err)
	require.NotNil(t, record.Answer)
	assert.Equal(t, "(Dev fallback) You asked: hello", *record.Answer)
}

func TestQueryService_AskOrchestratorFailure(t *testing.T) {
	upstream := errors.New("upstream exploded")
	svc, _, identity := newQueryService(t, &fakeOrchestrator{err: upstream}, time.Second)
	ctx := context.Background()

	record, err := svc.Ask(ctx, identity, "will this fail?", "")
	assert.ErrorIs(t, err, service.ErrAnswerUnavailable)
	assert.ErrorIs(t, err, upstream)
	require.NotNil(t, record)
	assert.Nil(t, record.Answer)

	history, err := svc.History(ctx, identity)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "will this fail?", history[0].Question)
	assert.Nil(t, history[0].Answer)
}

func TestQueryService_AskTimeout(t *testing.T) {
	orch := &fakeOrchestrator{block: true}
	svc, _, identity := newQueryService(t, orch, 20*time.Millisecond)

	record, err := svc.Ask(context.Background(), identity, "slow?", "")
	assert.ErrorIs(t, err, service.ErrAnswerUnavailable)
	assert.ErrorIs(t, orch.gotCtxErr, context.DeadlineExceeded)
	require.NotNil(t, record)
	assert.Nil(t, record.Answer)
}

func TestQueryService_History(t *testing.T) {
	svc, testDB, identity := newQueryService(t, &fakeOrchestrator{answer: "a"}, time.Second)
	ctx := context.Background()

	other, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	testutil.SeedQueries(t, testDB.DB, other, 3)

	for _, q := range []string{"one", "two", "three"} {
		_, err := svc.Ask(ctx, identity, q, "")
		require.NoError(t, err)
	}

	history, err := svc.History(ctx, identity)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "three", history[0].Question)
	assert.Equal(t, "one", history[2].Question)
	for _, q := range history {
		assert.Equal(t, identity.UserID, q.UserID)
	}
}
