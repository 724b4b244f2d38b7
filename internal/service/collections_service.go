package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/tiendaflex/collections-engine/internal/config"
	"github.com/tiendaflex/collections-engine/internal/domain"
	"github.com/tiendaflex/collections-engine/internal/planner"
	"github.com/tiendaflex/collections-engine/internal/query"
	"github.com/tiendaflex/collections-engine/internal/repository"
	customError "github.com/tiendaflex/collections-engine/pkg/errors"
	"github.com/tiendaflex/collections-engine/pkg/money"
)

const (
	dateLayout  = "2006-01-02"
	saleLockTTL = 30 * time.Second
)

// CollectionsService is the mutation authority over the payment ledger and
// the entry point for plan generation and collection queries. Mutations for
// the same sale are serialized; different sales proceed in parallel.
type CollectionsService struct {
	SaleRepo    repository.SaleRepository
	PaymentRepo repository.PaymentRepository
	redis       *redis.Client
	locker      *redislock.Client
	config      *config.Config
	logger      *logrus.Logger
	saleLocks   sync.Map
}

func NewCollectionsService(
	saleRepo repository.SaleRepository,
	paymentRepo repository.PaymentRepository,
	redisClient *redis.Client,
	cfg *config.Config,
	logger *logrus.Logger,
) *CollectionsService {
	var locker *redislock.Client
	if redisClient != nil {
		locker = redislock.New(redisClient)
	}

	return &CollectionsService{
		SaleRepo:    saleRepo,
		PaymentRepo: paymentRepo,
		redis:       redisClient,
		locker:      locker,
		config:      cfg,
		logger:      logger,
	}
}

// RegisterSale ingests a sale from the sales subsystem. Financing terms are
// validated through the planner before anything is persisted. For financed
// sales the initial payment is recorded directly as completed, since it
// represents cash received at sale time.
func (s *CollectionsService) RegisterSale(ctx context.Context, req *domain.RegisterSaleRequest) (*domain.RegisterSaleResponse, error) {
	total, err := money.FromDecimal(req.Total)
	if err != nil {
		return nil, customError.WrapValidation(err.Error())
	}
	initialAmount, err := money.FromDecimal(req.InitialAmount)
	if err != nil {
		return nil, customError.WrapValidation(err.Error())
	}
	initialDate, err := time.Parse(dateLayout, req.InitialDate)
	if err != nil {
		return nil, customError.WrapValidation("initial_date must be formatted as YYYY-MM-DD")
	}
	if req.InstallmentCount > s.config.Business.MaxInstallments {
		return nil, customError.WrapValidation(fmt.Sprintf("installment_count exceeds the maximum of %d", s.config.Business.MaxInstallments))
	}

	existing, err := s.SaleRepo.GetBySaleID(ctx, req.SaleID)
	if err == nil && existing != nil {
		return nil, customError.WrapSaleAlreadyExists(req.SaleID)
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapDatabaseError(err)
	}

	sale := &domain.Sale{
		ID:               req.SaleID,
		ClientID:         req.ClientID,
		ClientName:       req.ClientName,
		Total:            total,
		InstallmentCount: req.InstallmentCount,
		CreatedAt:        time.Now(),
	}

	initial := domain.InitialPayment{Amount: initialAmount, Date: initialDate}
	schedule, err := planner.GeneratePlan(*sale, initial)
	if err != nil {
		return nil, err
	}

	if err = s.SaleRepo.Create(ctx, sale); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	resp := &domain.RegisterSaleResponse{Sale: sale, Schedule: schedule}

	// Sales settled at purchase carry no ledger rows.
	if sale.InstallmentCount == 0 {
		return resp, nil
	}

	now := time.Now()
	payment := &domain.Payment{
		ID:                uuid.New(),
		SaleID:            sale.ID,
		ClientName:        sale.ClientName,
		InstallmentNumber: 1,
		TotalInstallments: sale.InstallmentCount,
		Amount:            schedule[0].Amount,
		Method:            req.Method,
		Date:              initialDate,
		Notes:             req.Notes,
		Status:            domain.PaymentStatusCompleted,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err = s.PaymentRepo.Create(ctx, payment); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.invalidatePlan(ctx, sale.ID)
	s.logger.WithFields(logrus.Fields{
		"sale_id":      sale.ID,
		"installments": sale.InstallmentCount,
		"total":        sale.Total.String(),
	}).Info("sale registered")

	resp.InitialPayment = payment
	return resp, nil
}

// RecordPayment appends a pending payment against an installment slot.
// Exactly one of two concurrent calls for the same slot succeeds.
func (s *CollectionsService) RecordPayment(ctx context.Context, req *domain.RecordPaymentRequest) (*domain.Payment, error) {
	amount, err := money.FromDecimal(req.Amount)
	if err != nil {
		return nil, customError.WrapValidation(err.Error())
	}
	if amount <= 0 {
		return nil, customError.WrapValidation("amount must be greater than zero")
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, customError.WrapValidation("date must be formatted as YYYY-MM-DD")
	}

	sale, err := s.SaleRepo.GetBySaleID(ctx, req.SaleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapSaleNotFound(req.SaleID)
		}
		return nil, customError.WrapDatabaseError(err)
	}
	if sale.InstallmentCount == 0 {
		return nil, customError.WrapValidation("sale is not financed")
	}
	if req.InstallmentNumber > sale.InstallmentCount {
		return nil, customError.WrapValidation(fmt.Sprintf("installment_number exceeds the plan's %d installments", sale.InstallmentCount))
	}

	release := s.lockSale(ctx, sale.ID)
	defer release()

	_, err = s.PaymentRepo.GetActiveBySlot(ctx, sale.ID, req.InstallmentNumber)
	if err == nil {
		return nil, customError.WrapDuplicateInstallment(sale.ID, req.InstallmentNumber)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapDatabaseError(err)
	}

	now := time.Now()
	payment := &domain.Payment{
		ID:                uuid.New(),
		SaleID:            sale.ID,
		ClientName:        sale.ClientName,
		InstallmentNumber: req.InstallmentNumber,
		TotalInstallments: sale.InstallmentCount,
		Amount:            amount,
		Method:            req.Method,
		Date:              date,
		Notes:             req.Notes,
		Status:            domain.PaymentStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err = s.PaymentRepo.Create(ctx, payment); err != nil {
		if errors.Is(err, customError.ErrDuplicateInstallment) {
			return nil, customError.WrapDuplicateInstallment(sale.ID, req.InstallmentNumber)
		}
		return nil, customError.WrapDatabaseError(err)
	}

	s.invalidatePlan(ctx, sale.ID)
	return payment, nil
}

// ProcessPayment transitions a pending payment to completed. The method,
// date and notes recorded at creation were provisional; the values supplied
// here replace them (empty notes keep the prior text).
func (s *CollectionsService) ProcessPayment(ctx context.Context, paymentID uuid.UUID, req *domain.ProcessPaymentRequest) (*domain.Payment, error) {
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, customError.WrapValidation("date must be formatted as YYYY-MM-DD")
	}

	payment, err := s.getPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	release := s.lockSale(ctx, payment.SaleID)
	defer release()

	payment, err = s.getPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != domain.PaymentStatusPending {
		return nil, customError.WrapAlreadyProcessed(paymentID, payment.Status)
	}

	payment.Method = req.Method
	payment.Date = date
	if req.Notes != "" {
		payment.Notes = req.Notes
	}
	payment.Status = domain.PaymentStatusCompleted
	payment.UpdatedAt = time.Now()

	if err = s.PaymentRepo.Update(ctx, payment); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.invalidatePlan(ctx, payment.SaleID)
	s.logger.WithFields(logrus.Fields{
		"payment_id":  payment.ID,
		"sale_id":     payment.SaleID,
		"installment": payment.InstallmentNumber,
	}).Info("payment completed")

	return payment, nil
}

// CancelPayment transitions a pending payment to cancelled, freeing its slot
// for a new record. The row itself stays on the ledger.
func (s *CollectionsService) CancelPayment(ctx context.Context, paymentID uuid.UUID) (*domain.Payment, error) {
	payment, err := s.getPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	release := s.lockSale(ctx, payment.SaleID)
	defer release()

	payment, err = s.getPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != domain.PaymentStatusPending {
		return nil, customError.WrapAlreadyProcessed(paymentID, payment.Status)
	}

	payment.Status = domain.PaymentStatusCancelled
	payment.UpdatedAt = time.Now()

	if err = s.PaymentRepo.Update(ctx, payment); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.invalidatePlan(ctx, payment.SaleID)
	return payment, nil
}

// GetPlan returns the installment schedule for a sale, anchored on its
// recorded initial payment. A financed sale with no initial payment yet has
// no plan to show.
func (s *CollectionsService) GetPlan(ctx context.Context, saleID string) ([]domain.InstallmentSlot, error) {
	if cached, ok := s.cachedPlan(ctx, saleID); ok {
		return cached, nil
	}

	sale, err := s.SaleRepo.GetBySaleID(ctx, saleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapSaleNotFound(saleID)
		}
		return nil, customError.WrapDatabaseError(err)
	}
	if sale.InstallmentCount == 0 {
		return []domain.InstallmentSlot{}, nil
	}

	initial, err := s.PaymentRepo.GetActiveBySlot(ctx, saleID, 1)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []domain.InstallmentSlot{}, nil
		}
		return nil, customError.WrapDatabaseError(err)
	}

	schedule, err := planner.GeneratePlan(*sale, domain.InitialPayment{
		Amount: initial.Amount,
		Date:   initial.Date,
	})
	if err != nil {
		return nil, err
	}

	s.cachePlan(ctx, saleID, schedule)
	return schedule, nil
}

// QueryPayments serves the filtered, sorted ledger view. Status is resolved
// live at call time, never read from a stored label.
func (s *CollectionsService) QueryPayments(ctx context.Context, filter query.Filter, sort query.Sort) ([]domain.PaymentView, error) {
	rows, err := s.PaymentRepo.ListActive(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	payments := make([]domain.Payment, 0, len(rows))
	for _, row := range rows {
		payments = append(payments, *row)
	}

	return query.Query(payments, filter, sort, time.Now())
}

// ReportOverdue logs a summary of pending payments whose due date has passed.
// Nothing is written back: overdue remains a derived state.
func (s *CollectionsService) ReportOverdue(ctx context.Context) (int, error) {
	pending, err := s.PaymentRepo.ListPending(ctx)
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}

	now := time.Now()
	overdue := 0
	for _, p := range pending {
		if query.ResolveStatus(*p, now) != domain.DerivedStatusOverdue {
			continue
		}
		overdue++
		s.logger.WithFields(logrus.Fields{
			"payment_id":  p.ID,
			"sale_id":     p.SaleID,
			"client":      p.ClientName,
			"installment": p.InstallmentNumber,
			"due_date":    p.Date.Format(dateLayout),
			"amount":      p.Amount.String(),
		}).Warn("installment overdue")
	}

	return overdue, nil
}

// ReportUpcoming logs pending payments due within the configured lead window.
func (s *CollectionsService) ReportUpcoming(ctx context.Context) (int, error) {
	pending, err := s.PaymentRepo.ListPending(ctx)
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	horizon := today.AddDate(0, 0, s.config.Business.ReminderLeadDays)
	upcoming := 0
	for _, p := range pending {
		if p.Date.Before(today) || p.Date.After(horizon) {
			continue
		}
		upcoming++
		s.logger.WithFields(logrus.Fields{
			"payment_id":  p.ID,
			"sale_id":     p.SaleID,
			"client":      p.ClientName,
			"installment": p.InstallmentNumber,
			"due_date":    p.Date.Format(dateLayout),
		}).Info("installment due soon")
	}

	return upcoming, nil
}

func (s *CollectionsService) getPayment(ctx context.Context, paymentID uuid.UUID) (*domain.Payment, error) {
	payment, err := s.PaymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapPaymentNotFound(paymentID)
		}
		return nil, customError.WrapDatabaseError(err)
	}
	return payment, nil
}

// lockSale serializes ledger mutations per sale. A process-local mutex covers
// single-instance deployments; when Redis is configured a distributed lock is
// taken on top so multiple instances cannot race either. If the distributed
// lock cannot be obtained the partial unique index still guarantees that only
// one recorder wins a slot.
func (s *CollectionsService) lockSale(ctx context.Context, saleID string) func() {
	value, _ := s.saleLocks.LoadOrStore(saleID, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()

	if s.locker == nil {
		return mu.Unlock
	}

	lock, err := s.locker.Obtain(ctx, "lock:sale:"+saleID, saleLockTTL, nil)
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			s.logger.WithField("sale_id", saleID).Warn("could not obtain redis lock; proceeding with local lock only")
		} else {
			s.logger.WithField("sale_id", saleID).WithError(err).Warn("error obtaining redis lock; proceeding with local lock only")
		}
		return mu.Unlock
	}

	return func() {
		_ = lock.Release(ctx)
		mu.Unlock()
	}
}

func planCacheKey(saleID string) string {
	return fmt.Sprintf("plan:%s", saleID)
}

func (s *CollectionsService) cachedPlan(ctx context.Context, saleID string) ([]domain.InstallmentSlot, bool) {
	if s.redis == nil {
		return nil, false
	}

	raw, err := s.redis.Get(ctx, planCacheKey(saleID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.WithError(err).Warn("plan cache read failed")
		}
		return nil, false
	}

	var schedule []domain.InstallmentSlot
	if err := json.Unmarshal(raw, &schedule); err != nil {
		return nil, false
	}

	return schedule, true
}

func (s *CollectionsService) cachePlan(ctx context.Context, saleID string, schedule []domain.InstallmentSlot) {
	if s.redis == nil {
		return
	}

	raw, err := json.Marshal(schedule)
	if err != nil {
		return
	}

	if err := s.redis.Set(ctx, planCacheKey(saleID), raw, s.config.GetPlanCacheTTL()).Err(); err != nil {
		s.logger.WithError(err).Warn("plan cache write failed")
	}
}

func (s *CollectionsService) invalidatePlan(ctx context.Context, saleID string) {
	if s.redis == nil {
		return
	}

	if err := s.redis.Del(ctx, planCacheKey(saleID)).Err(); err != nil {
		s.logger.WithError(err).Warn("plan cache invalidation failed")
	}
}
