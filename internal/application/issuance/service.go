package issuance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/awr/backend/internal/domain/issuance"
	"github.com/awr/backend/internal/domain/shared"
	"github.com/awr/backend/internal/infrastructure/bridge"
	"github.com/awr/backend/internal/infrastructure/cache"
	"github.com/awr/backend/internal/infrastructure/telemetry"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// DefaultLeaseTTL bounds how long an item stays locked if a holder dies
const DefaultLeaseTTL = 5 * time.Minute

// WorkerBridge runs one worker action. *bridge.Bridge implements it.
type WorkerBridge interface {
	RunWorkerAction(ctx context.Context, order bridge.WorkOrder) (*bridge.Result, error)
}

// DocumentArchive locates archived copies and signs download links
type DocumentArchive interface {
	FindDocument(ctx context.Context, requestNo, awrNo string) (string, error)
	PresignDownload(ctx context.Context, key string) (string, time.Time, error)
}

// WorkflowService drives requests through submission, issuance, printing,
// voiding and rejection
type WorkflowService struct {
	txScope         TransactionScope
	requests        issuance.RequestRepository
	queues          issuance.QueueRepository
	checker         issuance.DuplicateReferenceChecker
	worker          WorkerBridge
	lease           issuance.ActionLease
	leaseTTL        time.Duration
	archive         DocumentArchive
	allowDuplicates bool
	now             func() time.Time
	validate        *validator.Validate
	logger          *zap.Logger
}

// Option configures a WorkflowService
type Option func(*WorkflowService)

// WithLogger sets the service logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *WorkflowService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithActionLease guards worker actions with a per-item lease
func WithActionLease(lease issuance.ActionLease, ttl time.Duration) Option {
	return func(s *WorkflowService) {
		s.lease = lease
		if ttl > 0 {
			s.leaseTTL = ttl
		}
	}
}

// WithDocumentArchive enables download links for archived copies
func WithDocumentArchive(archive DocumentArchive) Option {
	return func(s *WorkflowService) {
		s.archive = archive
	}
}

// WithAllowDuplicateReferences turns duplicate reference collisions into warnings only
func WithAllowDuplicateReferences(allow bool) Option {
	return func(s *WorkflowService) {
		s.allowDuplicates = allow
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *WorkflowService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewWorkflowService creates a new WorkflowService
func NewWorkflowService(
	txScope TransactionScope,
	requests issuance.RequestRepository,
	queues issuance.QueueRepository,
	checker issuance.DuplicateReferenceChecker,
	worker WorkerBridge,
	opts ...Option,
) *WorkflowService {
	s := &WorkflowService{
		txScope:  txScope,
		requests: requests,
		queues:   queues,
		checker:  checker,
		worker:   worker,
		leaseTTL: DefaultLeaseTTL,
		now:      time.Now,
		validate: newValidator(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitRequest validates and stores a new request with a freshly assigned
// request number. Duplicate references block the submission unless duplicates
// are allowed or the caller acknowledged them.
func (s *WorkflowService) SubmitRequest(ctx context.Context, input SubmitRequestInput) (*SubmitResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "workflow.submit", telemetry.AttrActor, input.Submitter.Username)
	defer span.End()

	if err := input.Submitter.Validate(); err != nil {
		return nil, err
	}
	if err := s.validateStruct(input); err != nil {
		return nil, err
	}
	awrType, ok := issuance.ParseAwrType(input.Type)
	if !ok {
		return nil, issuance.NewValidationError(fmt.Sprintf("invalid AWR type %q", input.Type))
	}

	items := make([]issuance.NewItemParams, len(input.Items))
	for i, it := range input.Items {
		items[i] = issuance.NewItemParams{
			MaterialOrProduct: it.MaterialOrProduct,
			BatchNo:           it.BatchNo,
			CrossReference:    it.CrossReference,
			QtyRequired:       it.QtyRequired,
		}
	}
	now := s.now()
	req, err := issuance.NewRequest(issuance.NewRequestParams{
		Type:              awrType,
		DocumentReference: input.DocumentReference,
		Comment:           input.Comment,
		PreparedBy:        input.Submitter.Username,
		Items:             items,
	}, now)
	if err != nil {
		return nil, err
	}

	warnings, err := s.checker.FindDuplicates(ctx, req.CrossReferences(), nil)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to check duplicate references: %w", err)
	}
	if len(warnings) > 0 && !s.allowDuplicates && !input.AcknowledgeDuplicates {
		s.logger.Info("Submission blocked by duplicate references",
			zap.String("prepared_by", req.PreparedBy),
			zap.Strings("warnings", warnings),
		)
		return nil, issuance.NewDuplicateReferenceError(warnings)
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		seq, err := repos.SequenceGenerator().NextSequenceValue(ctx)
		if err != nil {
			return err
		}
		if err := req.AssignNumber(issuance.FormatRequestNo(now, seq)); err != nil {
			return err
		}
		return repos.RequestRepo().Create(ctx, req)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, asTransactionError(err)
	}

	telemetry.SetAttributes(span, telemetry.AttrRequestNo, req.RequestNo)
	s.logger.Info("Request submitted",
		zap.String("request_no", req.RequestNo),
		zap.String("prepared_by", req.PreparedBy),
		zap.Int("items", len(req.Items)),
		zap.Int("warnings", len(warnings)),
	)
	return &SubmitResult{Request: toRequestDTO(req), Warnings: warnings}, nil
}

// ApproveAndIssue generates the controlled copy for a pending item and marks
// it Issued. The store is only touched after the worker succeeded.
func (s *WorkflowService) ApproveAndIssue(ctx context.Context, input IssueInput) (*ItemActionResult, error) {
	transition, err := issuance.NewIssueTransition(input.Qty, input.Actor.Username, s.now())
	if err != nil {
		return nil, err
	}
	return s.runWorkerAction(ctx, input.ItemID, input.Actor, transition, func(entry issuance.QueueEntry) bridge.WorkOrder {
		return bridge.NewGenerateOrder(entry, input.Qty, input.Actor.Username)
	})
}

// PrintAndReceive prints an issued item and marks it Received. A cancelled
// print leaves the item Issued so it can be retried.
func (s *WorkflowService) PrintAndReceive(ctx context.Context, input ReceiveInput) (*ItemActionResult, error) {
	transition, err := issuance.NewReceiveTransition(input.Actor.Username, s.now())
	if err != nil {
		return nil, err
	}
	return s.runWorkerAction(ctx, input.ItemID, input.Actor, transition, func(entry issuance.QueueEntry) bridge.WorkOrder {
		return bridge.NewPrintOrder(entry, input.Actor.Username)
	})
}

// Void marks an issued item Voided with the operator's remark
func (s *WorkflowService) Void(ctx context.Context, input VoidInput) (*ItemActionResult, error) {
	if err := input.Actor.Validate(); err != nil {
		return nil, err
	}
	transition, err := issuance.NewVoidTransition(input.Actor.Username, input.Remark, s.now())
	if err != nil {
		return nil, err
	}
	return s.storeOnly(ctx, input.ItemID, input.Actor, transition)
}

// Reject marks a pending item RejectedByQa with the reviewer's comment
func (s *WorkflowService) Reject(ctx context.Context, input RejectInput) (*ItemActionResult, error) {
	if err := input.Actor.Validate(); err != nil {
		return nil, err
	}
	transition, err := issuance.NewRejectTransition(input.Actor.Username, input.Comment, s.now())
	if err != nil {
		return nil, err
	}
	return s.storeOnly(ctx, input.ItemID, input.Actor, transition)
}

// FindDuplicates lists collisions between referenceInput and active items
func (s *WorkflowService) FindDuplicates(ctx context.Context, referenceInput string, excludeRequestID *int64) ([]string, error) {
	if strings.TrimSpace(referenceInput) == "" {
		return []string{}, nil
	}
	return s.checker.FindDuplicates(ctx, referenceInput, excludeRequestID)
}

// runWorkerAction is the shared path of ApproveAndIssue and PrintAndReceive
func (s *WorkflowService) runWorkerAction(
	ctx context.Context,
	itemID int64,
	actor issuance.Actor,
	transition issuance.Transition,
	buildOrder func(issuance.QueueEntry) bridge.WorkOrder,
) (*ItemActionResult, error) {
	action := transition.Action
	ctx, span := telemetry.StartSpan(ctx, "workflow."+action.Verb(),
		telemetry.AttrItemID, itemID,
		telemetry.AttrAction, string(action),
		telemetry.AttrActor, actor.Username,
	)
	defer span.End()

	entry, err := s.checkPrecondition(ctx, itemID, actor, action)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.AttrRequestNo, entry.RequestNo)

	release, err := s.acquireLease(ctx, itemID, action, entry.Status)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	defer release()

	// Another operator may have finished the action between the first read
	// and taking the lease
	if entry, err = s.requests.FindItem(ctx, itemID); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if entry.Status != action.From() {
		err = issuance.NewConflictError(itemID, action, entry.Status)
		telemetry.RecordError(span, err)
		return nil, err
	}

	log := s.logger.With(
		zap.String("action", string(action)),
		zap.Int64("item_id", itemID),
		zap.String("request_no", entry.RequestNo),
		zap.String("actor", actor.Username),
	)

	result, err := s.worker.RunWorkerAction(ctx, buildOrder(*entry))
	if err != nil {
		telemetry.RecordError(span, err)
		log.Warn("Worker action did not succeed, item left unchanged", zap.Error(err))
		return nil, asBridgeError(err)
	}

	out, err := s.persist(ctx, entry.RequestID, itemID, transition)
	if err != nil {
		telemetry.RecordError(span, err)
		log.Error("Worker succeeded but the transition could not be stored", zap.Error(err))
		return nil, err
	}
	out.RequestNo = entry.RequestNo
	out.File = result.File
	out.ArchiveKey = result.ArchiveKey

	log.Info("Item transitioned",
		zap.String("status", out.Status),
		zap.String("file", result.File),
		zap.Duration("worker_duration", result.Duration),
	)
	return out, nil
}

func (s *WorkflowService) storeOnly(ctx context.Context, itemID int64, actor issuance.Actor, transition issuance.Transition) (*ItemActionResult, error) {
	action := transition.Action
	ctx, span := telemetry.StartSpan(ctx, "workflow."+action.Verb(),
		telemetry.AttrItemID, itemID,
		telemetry.AttrAction, string(action),
		telemetry.AttrActor, actor.Username,
	)
	defer span.End()

	entry, err := s.checkPrecondition(ctx, itemID, actor, action)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	out, err := s.persist(ctx, entry.RequestID, itemID, transition)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	out.RequestNo = entry.RequestNo

	s.logger.Info("Item transitioned",
		zap.String("action", string(action)),
		zap.Int64("item_id", itemID),
		zap.String("request_no", entry.RequestNo),
		zap.String("actor", actor.Username),
		zap.String("status", out.Status),
	)
	return out, nil
}

// checkPrecondition verifies the role and loads the item in the action's source status
func (s *WorkflowService) checkPrecondition(ctx context.Context, itemID int64, actor issuance.Actor, action issuance.Action) (*issuance.QueueEntry, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if action.RequiresApprover() && !actor.Role.CanApprove() {
		return nil, issuance.NewForbiddenError(actor, action)
	}
	entry, err := s.requests.FindItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if entry.Status != action.From() {
		return nil, issuance.NewConflictError(itemID, action, entry.Status)
	}
	return entry, nil
}

// acquireLease takes the item's action lease. The returned func releases it.
func (s *WorkflowService) acquireLease(ctx context.Context, itemID int64, action issuance.Action, current issuance.ItemStatus) (func(), error) {
	if s.lease == nil {
		return func() {}, nil
	}
	key := cache.ItemLeaseKey(itemID)
	ok, err := s.lease.Acquire(ctx, key, s.leaseTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire action lease for item %d: %w", itemID, err)
	}
	if !ok {
		return nil, shared.NewDomainError(shared.CodeConflict,
			fmt.Sprintf("cannot %s item %d: another action is in progress (status %s)", action.Verb(), itemID, current))
	}
	return func() {
		if err := s.lease.Release(context.WithoutCancel(ctx), key); err != nil {
			s.logger.Warn("Failed to release action lease", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

// persist applies the transition and refreshes the header in one transaction
func (s *WorkflowService) persist(ctx context.Context, requestID, itemID int64, transition issuance.Transition) (*ItemActionResult, error) {
	var headerStatus issuance.ItemStatus
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.RequestRepo().ApplyTransition(ctx, itemID, transition); err != nil {
			return err
		}
		status, err := repos.RequestRepo().RefreshHeaderStatus(ctx, requestID)
		if err != nil {
			return err
		}
		headerStatus = status
		return nil
	})
	if err != nil {
		return nil, asTransactionError(err)
	}
	return &ItemActionResult{
		ItemID:        itemID,
		Status:        transition.To.String(),
		StatusDisplay: transition.To.DisplayName(),
		RequestID:     requestID,
		RequestStatus: headerStatus.String(),
	}, nil
}

// asTransactionError keeps domain errors and wraps everything else as a rollback
func asTransactionError(err error) error {
	if shared.IsDomainError(err) {
		return err
	}
	return issuance.NewTransactionError(err)
}

// asBridgeError converts a worker failure into a domain error with the bridge code
func asBridgeError(err error) error {
	var be *bridge.Error
	if errors.As(err, &be) {
		return shared.WrapDomainError(be.Code, be.Message, be)
	}
	return shared.WrapDomainError(issuance.CodeBridgeFailure, "worker action failed", err)
}
