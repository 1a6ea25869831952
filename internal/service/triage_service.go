package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"triagedesk/internal/apperr"
	"triagedesk/internal/model"
	"triagedesk/internal/urgency"
	"triagedesk/pkg/metrics"
	"triagedesk/pkg/util"
)

// Stores the triage service needs. Kept minimal so tests can substitute
// in-memory fakes.
type CustomerStore interface {
	FindByEmail(ctx context.Context, email string) (*model.Customer, error)
	Create(ctx context.Context, c *model.Customer) error
}

type MessageStore interface {
	Create(ctx context.Context, m *model.Message) error
}

type ProfileStore interface {
	LoanStatus(ctx context.Context, customerID string) (string, error)
}

// DedupGuard is the bulk-import duplicate check. May be nil, in which case
// every record is processed.
type DedupGuard interface {
	AcquireOnce(ctx context.Context, scope, key string) bool
}

// TriageService ingests customer messages and agent replies. Urgency is
// computed exactly once, at ingestion, from the content and the customer's
// loan status at that moment.
type TriageService struct {
	customers CustomerStore
	messages  MessageStore
	profiles  ProfileStore
	deduper   DedupGuard
	logger    *zap.Logger
}

func NewTriageService(
	customers CustomerStore,
	messages MessageStore,
	profiles ProfileStore,
	deduper DedupGuard,
	logger *zap.Logger,
) *TriageService {
	return &TriageService{
		customers: customers,
		messages:  messages,
		profiles:  profiles,
		deduper:   deduper,
		logger:    logger,
	}
}

type SubmitRequest struct {
	CustomerEmail string  `json:"customer_email"`
	CustomerName  string  `json:"customer_name"`
	Content       string  `json:"content"`
	Phone         *string `json:"phone"`
}

// Submit validates, finds or creates the customer, scores the content and
// appends the message.
func (s *TriageService) Submit(ctx context.Context, req SubmitRequest) (*model.Message, error) {
	if strings.TrimSpace(req.CustomerEmail) == "" || strings.TrimSpace(req.Content) == "" {
		metrics.MessagesIngested.WithLabelValues("submit", "failed").Inc()
		return nil, apperr.Validation("customer_email and content are required")
	}

	msg, err := s.ingest(ctx, req)
	if err != nil {
		metrics.MessagesIngested.WithLabelValues("submit", "failed").Inc()
		return nil, err
	}

	metrics.MessagesIngested.WithLabelValues("submit", "success").Inc()
	return msg, nil
}

func (s *TriageService) ingest(ctx context.Context, req SubmitRequest) (*model.Message, error) {
	customer, err := s.findOrCreateCustomer(ctx, req)
	if err != nil {
		return nil, err
	}

	loanStatus, err := s.profiles.LoanStatus(ctx, customer.ID)
	if err != nil {
		return nil, apperr.Storage("failed to load customer profile", err)
	}

	score := urgency.Score(req.Content, loanStatus)
	metrics.ObserveUrgency(score)

	msg := &model.Message{
		CustomerID:   customer.ID,
		Content:      req.Content,
		MessageType:  model.MessageTypeCustomer,
		UrgencyScore: score,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, apperr.Storage("failed to save message", err)
	}

	s.logger.Info("Message ingested",
		zap.String("message_id", msg.ID),
		zap.String("customer_id", customer.ID),
		zap.Int("urgency_score", score),
	)

	return msg, nil
}

func (s *TriageService) findOrCreateCustomer(ctx context.Context, req SubmitRequest) (*model.Customer, error) {
	customer, err := s.customers.FindByEmail(ctx, req.CustomerEmail)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.Storage("failed to look up customer", err)
	}

	name := req.CustomerName
	if name == "" {
		name = "Unknown"
	}
	customer = &model.Customer{
		Email: req.CustomerEmail,
		Name:  name,
		Phone: req.Phone,
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, apperr.Storage("failed to create customer", err)
	}
	return customer, nil
}

type ImportRecord struct {
	CustomerEmail string  `json:"customer_email"`
	CustomerName  string  `json:"customer_name"`
	Content       string  `json:"content"`
	Phone         *string `json:"phone"`
}

// ImportResult is the aggregate outcome of a bulk import. A partial batch
// failure is a normal result, never an error: Success+Failed always equals
// the number of input records and Errors has one entry per failed record.
type ImportResult struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
}

// Import processes records strictly in order, independently: a failed
// record is recorded and iteration continues. There is no rollback and no
// retry.
func (s *TriageService) Import(ctx context.Context, records []ImportRecord) ImportResult {
	result := ImportResult{Errors: []string{}}

	for _, rec := range records {
		if strings.TrimSpace(rec.CustomerEmail) == "" || strings.TrimSpace(rec.Content) == "" {
			result.Failed++
			result.Errors = append(result.Errors,
				fmt.Sprintf("missing required fields for record: %s", truncate(rec.Content, 50)))
			metrics.MessagesIngested.WithLabelValues("import", "failed").Inc()
			continue
		}

		if s.deduper != nil && !s.deduper.AcquireOnce(ctx, "import", util.RecordKey(rec.CustomerEmail, rec.Content)) {
			result.Failed++
			result.Errors = append(result.Errors,
				fmt.Sprintf("duplicate record skipped for %s: %s", rec.CustomerEmail, truncate(rec.Content, 50)))
			metrics.MessagesIngested.WithLabelValues("import", "failed").Inc()
			continue
		}

		_, err := s.ingest(ctx, SubmitRequest{
			CustomerEmail: rec.CustomerEmail,
			CustomerName:  rec.CustomerName,
			Content:       rec.Content,
			Phone:         rec.Phone,
		})
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors,
				fmt.Sprintf("failed to import record for %s: %s", rec.CustomerEmail, apperr.As(err).Message))
			metrics.MessagesIngested.WithLabelValues("import", "failed").Inc()
			continue
		}

		result.Success++
		metrics.MessagesIngested.WithLabelValues("import", "success").Inc()
	}

	return result
}

// Reply appends an agent-typed message for a customer. Urgency applies only
// to customer messages, so none is computed here.
func (s *TriageService) Reply(ctx context.Context, customerID, content, agentID string) (*model.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperr.Validation("reply content is required")
	}
	if agentID == "" {
		return nil, apperr.Validation("agent identity is required")
	}

	msg := &model.Message{
		CustomerID:  customerID,
		Content:     content,
		MessageType: model.MessageTypeAgent,
		AgentID:     &agentID,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, apperr.Storage("failed to save reply", err)
	}

	s.logger.Info("Reply sent",
		zap.String("message_id", msg.ID),
		zap.String("customer_id", customerID),
		zap.String("agent_id", agentID),
	)

	return msg, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
