package subscriber

import (
	"context"

	"github.com/sangkips/investify-docs/internal/domain/event"
	"github.com/sangkips/investify-docs/internal/domain/repository"
	"github.com/sangkips/investify-docs/pkg/email"
	"github.com/sangkips/investify-docs/pkg/logger"
)

// DocumentMailer sends document emails
type DocumentMailer interface {
	Enabled() bool
	SendDocumentEmail(to string, data email.DocumentEmail) error
}

// EmailSubscriber emails new documents to the customer and records the recipient
type EmailSubscriber struct {
	tenantRepo   repository.TenantRepository
	documentRepo repository.DocumentRepository
	mailer       DocumentMailer
	logger       *logger.Logger
}

// NewEmailSubscriber creates a new email subscriber
func NewEmailSubscriber(
	tenantRepo repository.TenantRepository,
	documentRepo repository.DocumentRepository,
	mailer DocumentMailer,
	log *logger.Logger,
) *EmailSubscriber {
	return &EmailSubscriber{
		tenantRepo:   tenantRepo,
		documentRepo: documentRepo,
		mailer:       mailer,
		logger:       log,
	}
}

func (s *EmailSubscriber) Name() string { return "email" }

func (s *EmailSubscriber) Topics() []string { return []string{event.DocumentCreated} }

func (s *EmailSubscriber) Handle(ctx context.Context, evt *event.DocumentEvent) error {
	if evt.CustomerEmail == "" || !s.mailer.Enabled() {
		return nil
	}

	tenant, err := s.tenantRepo.GetByID(ctx, evt.TenantID)
	if err != nil {
		return err
	}
	if tenant == nil || !tenant.Settings.EmailNotifications {
		return nil
	}

	data := email.DocumentEmail{
		DocumentID:     evt.DocumentID.String(),
		DocumentTitle:  evt.Kind.Title(),
		DocumentNumber: evt.DocumentNumber,
		CustomerName:   evt.CustomerName,
		CompanyName:    evt.CompanyName,
		Currency:       evt.Currency,
		IssuedOn:       evt.OccurredAt.Format("02 Jan 2006"),
	}
	if data.CompanyName == "" {
		data.CompanyName = tenant.Name
	}
	if evt.After != nil {
		data.Total = evt.After.TotalAmount.StringFixed(2)
	}

	if err := s.mailer.SendDocumentEmail(evt.CustomerEmail, data); err != nil {
		return err
	}

	if err := s.documentRepo.AppendEmailRecipient(ctx, evt.DocumentID, evt.CustomerEmail); err != nil {
		// The email went out; a retry would send it twice.
		s.logger.Errorw("failed to record email recipient",
			"document_id", evt.DocumentID,
			"error", err,
		)
	}

	s.logger.Infow("document emailed",
		"document_id", evt.DocumentID,
		"document_number", evt.DocumentNumber,
	)
	return nil
}
