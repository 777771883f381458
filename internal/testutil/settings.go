package testutil

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/sangkips/investify-docs/internal/domain/entity"
	infraRepo "github.com/sangkips/investify-docs/internal/infrastructure/repository"
)

// InMemoryTemplateSettingsStore implements repository.TemplateSettingsRepository.
// Settings are stored as JSON, as the database does.
type InMemoryTemplateSettingsStore struct {
	mu       sync.Mutex
	settings map[uuid.UUID][]byte
	Err      error
}

func NewInMemoryTemplateSettingsStore() *InMemoryTemplateSettingsStore {
	return &InMemoryTemplateSettingsStore{settings: make(map[uuid.UUID][]byte)}
}

func (s *InMemoryTemplateSettingsStore) GetByTenantID(ctx context.Context, tenantID uuid.UUID) (*entity.TemplateSettings, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.settings[tenantID]
	if !ok {
		return nil, nil
	}
	var out entity.TemplateSettings
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *InMemoryTemplateSettingsStore) Save(ctx context.Context, settings *entity.TemplateSettings) error {
	if s.Err != nil {
		return s.Err
	}
	if settings.ID == uuid.Nil {
		settings.ID = uuid.New()
	}
	raw, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[settings.TenantID] = raw
	return nil
}

// InMemoryAuditLogStore implements repository.AuditLogRepository
type InMemoryAuditLogStore struct {
	mu   sync.Mutex
	logs []entity.AuditLog
}

func NewInMemoryAuditLogStore() *InMemoryAuditLogStore {
	return &InMemoryAuditLogStore{}
}

func (s *InMemoryAuditLogStore) Create(ctx context.Context, log *entity.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	s.logs = append(s.logs, *log)
	return nil
}

func (s *InMemoryAuditLogStore) ListByResource(ctx context.Context, resourceID uuid.UUID) ([]entity.AuditLog, error) {
	tenantID, _ := infraRepo.GetTenantID(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.AuditLog
	for _, l := range s.logs {
		if l.ResourceID == resourceID && l.TenantID == tenantID {
			out = append(out, l)
		}
	}
	return out, nil
}
