//go:build integration

package integration

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	appissuance "github.com/awr/backend/internal/application/issuance"
	"github.com/awr/backend/internal/domain/issuance"
	"github.com/awr/backend/internal/domain/shared"
	"github.com/awr/backend/internal/infrastructure/auth"
	"github.com/awr/backend/internal/infrastructure/bridge"
	"github.com/awr/backend/internal/infrastructure/cache"
	"github.com/awr/backend/internal/infrastructure/config"
	"github.com/awr/backend/internal/infrastructure/persistence"
	"github.com/awr/backend/internal/interfaces/http/handler"
	"github.com/awr/backend/internal/interfaces/http/middleware"
	"github.com/awr/backend/internal/interfaces/http/router"
	"github.com/awr/backend/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	requester = issuance.Actor{Username: "alice", Role: issuance.RoleRequester}
	qaLead    = issuance.Actor{Username: "qa.lead", Role: issuance.RoleQA}
)

// gatedBridge blocks each run until release is closed
type gatedBridge struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func newGatedBridge() *gatedBridge {
	return &gatedBridge{started: make(chan struct{}, 16), release: make(chan struct{})}
}

func (g *gatedBridge) RunWorkerAction(ctx context.Context, _ bridge.WorkOrder) (*bridge.Result, error) {
	g.calls.Add(1)
	g.started <- struct{}{}
	select {
	case <-g.release:
		return &bridge.Result{Outcome: bridge.OutcomeSuccess}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type instantBridge struct{}

func (instantBridge) RunWorkerAction(context.Context, bridge.WorkOrder) (*bridge.Result, error) {
	return &bridge.Result{Outcome: bridge.OutcomeSuccess, File: "/final/copy.docx"}, nil
}

func newService(db *gorm.DB, worker appissuance.WorkerBridge, opts ...appissuance.Option) *appissuance.WorkflowService {
	return appissuance.NewWorkflowService(
		persistence.NewGormTransactionScope(db),
		persistence.NewGormRequestRepository(db),
		persistence.NewGormQueueRepository(db),
		persistence.NewGormDuplicateReferenceChecker(db),
		worker,
		opts...,
	)
}

func submission(ref string) appissuance.SubmitRequestInput {
	return appissuance.SubmitRequestInput{
		Type:              "RM",
		DocumentReference: "DOC-" + ref,
		Comment:           "incoming raw material",
		Items: []appissuance.SubmitItemInput{{
			MaterialOrProduct: "Lactose monohydrate",
			BatchNo:           "LB-" + ref,
			CrossReference:    ref,
			QtyRequired:       decimal.NewFromInt(2),
		}},
		Submitter: requester,
	}
}

func TestSequence_ConcurrentCallersGetDistinctValues(t *testing.T) {
	tdb := NewTestDB(t)
	scope := persistence.NewGormTransactionScope(tdb.DB)

	const n = 20
	values := make([]int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := scope.Execute(context.Background(), func(repos appissuance.TransactionalRepositories) error {
				v, err := repos.SequenceGenerator().NextSequenceValue(context.Background())
				values[i] = v
				return err
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	seen := make(map[int64]bool, n)
	for _, v := range values {
		assert.False(t, seen[v], "value %d handed out twice", v)
		seen[v] = true
	}
	for v := int64(1); v <= n; v++ {
		assert.True(t, seen[v], "value %d missing", v)
	}
}

func TestSubmit_ConcurrentSubmissionsGetUniqueNumbers(t *testing.T) {
	tdb := NewTestDB(t)
	service := newService(tdb.DB, instantBridge{}, appissuance.WithAllowDuplicateReferences(true))

	const n = 10
	numbers := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := service.SubmitRequest(context.Background(), submission(fmt.Sprintf("AR-%d", i)))
			if assert.NoError(t, err) {
				numbers <- res.Request.RequestNo
			}
		}(i)
	}
	wg.Wait()
	close(numbers)

	unique := make(map[string]bool)
	for no := range numbers {
		assert.False(t, unique[no], "request number %s assigned twice", no)
		unique[no] = true
	}
	assert.Len(t, unique, n)
}

func TestApplyTransition_OnlyOneConcurrentWriterWins(t *testing.T) {
	tdb := NewTestDB(t)
	service := newService(tdb.DB, instantBridge{})
	res, err := service.SubmitRequest(context.Background(), submission("AR-RACE"))
	require.NoError(t, err)
	itemID := res.Request.Items[0].ID

	repo := persistence.NewGormRequestRepository(tdb.DB)
	const n = 8
	var wins, conflicts atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tr, err := issuance.NewIssueTransition(decimal.NewFromInt(1), fmt.Sprintf("qa%d", i), time.Now())
			if !assert.NoError(t, err) {
				return
			}
			err = repo.ApplyTransition(context.Background(), itemID, tr)
			switch {
			case err == nil:
				wins.Add(1)
			case shared.ErrorCode(err) == shared.CodeConflict:
				conflicts.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, wins.Load())
	assert.EqualValues(t, n-1, conflicts.Load())
}

func TestApproveAndIssue_LeaseKeepsSecondOperatorOut(t *testing.T) {
	tdb := NewTestDB(t)
	worker := newGatedBridge()
	lease := cache.NewInMemoryLeaseStore()
	defer lease.Close()
	service := newService(tdb.DB, worker, appissuance.WithActionLease(lease, time.Minute))

	res, err := service.SubmitRequest(context.Background(), submission("AR-LEASE"))
	require.NoError(t, err)
	itemID := res.Request.Items[0].ID

	firstDone := make(chan error, 1)
	go func() {
		_, err := service.ApproveAndIssue(context.Background(), appissuance.IssueInput{
			ItemID: itemID, Qty: decimal.NewFromInt(2), Actor: qaLead,
		})
		firstDone <- err
	}()
	<-worker.started

	_, err = service.ApproveAndIssue(context.Background(), appissuance.IssueInput{
		ItemID: itemID, Qty: decimal.NewFromInt(2), Actor: issuance.Actor{Username: "qa.two", Role: issuance.RoleQA},
	})
	assert.Equal(t, shared.CodeConflict, shared.ErrorCode(err))

	close(worker.release)
	require.NoError(t, <-firstDone)
	assert.EqualValues(t, 1, worker.calls.Load())
	assert.Equal(t, 0, lease.Size())
}

func TestHTTP_FullLifecycleWithJWT(t *testing.T) {
	tdb := NewTestDB(t)
	service := newService(tdb.DB, instantBridge{})

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                "integration-secret-0123456789abcdef",
		AccessTokenExpiration: time.Hour,
		Issuer:                "awr-test",
	})

	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
	engine := gin.New()
	engine.Use(middleware.RequestID())
	router.NewRouter(engine, router.WithMiddleware(middleware.JWTAuthMiddleware(jwtService))).
		Register(handler.NewAwrHandler(service, nil)).
		Setup()

	bearer := func(actor issuance.Actor) map[string]string {
		tok, err := jwtService.GenerateAccessToken(actor.Username, actor.Role)
		require.NoError(t, err)
		return map[string]string{"Authorization": "Bearer " + tok.Token}
	}
	alice, qa := bearer(requester), bearer(qaLead)

	w := testutil.PerformRequest(t, engine, http.MethodGet, "/api/v1/awr/queues/mine", nil, nil)
	testutil.AssertErrorResponse(t, w, http.StatusUnauthorized, shared.CodeUnauthorized)

	w = testutil.PerformRequest(t, engine, http.MethodPost, "/api/v1/awr/requests", map[string]any{
		"awr_type":           "STABILITY",
		"document_reference": "STB-2025-04",
		"comment":            "6 month pull",
		"items": []map[string]any{
			{"material_product": "Tablet A", "batch_no": "TA-1", "ar_no": "AR-100", "qty_required": "3"},
		},
	}, alice)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	submitted := testutil.DecodeData[appissuance.SubmitResult](t, w)
	itemID := submitted.Request.Items[0].ID

	w = testutil.PerformRequest(t, engine, http.MethodPost, fmt.Sprintf("/api/v1/awr/items/%d/issue", itemID),
		map[string]any{"qty": "3"}, alice)
	testutil.AssertErrorResponse(t, w, http.StatusForbidden, shared.CodeForbidden)

	w = testutil.PerformRequest(t, engine, http.MethodPost, fmt.Sprintf("/api/v1/awr/items/%d/issue", itemID),
		map[string]any{"qty": "3"}, qa)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = testutil.PerformRequest(t, engine, http.MethodPost, fmt.Sprintf("/api/v1/awr/items/%d/receive", itemID), nil, alice)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = testutil.PerformRequest(t, engine, http.MethodPost, fmt.Sprintf("/api/v1/awr/items/%d/void", itemID),
		map[string]any{"remark": "study cancelled"}, alice)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	voided := testutil.DecodeData[appissuance.ItemActionResult](t, w)
	assert.Equal(t, "Voided", voided.Status)
	assert.Equal(t, "Voided", voided.RequestStatus)

	w = testutil.PerformRequest(t, engine, http.MethodGet, "/api/v1/awr/requests?search=ar-100", nil, qa)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	page := testutil.DecodeData[[]appissuance.QueueItemDTO](t, w)
	require.Len(t, page, 1)
	assert.Equal(t, "alice", page[0].PreparedBy)
	assert.Equal(t, "qa.lead", page[0].IssuedBy)
	assert.Equal(t, "alice", page[0].ReceivedBy)
	assert.Equal(t, "alice", page[0].ReturnedBy)
}
