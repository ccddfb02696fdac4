package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/adreach/backend/internal/draft"
	"github.com/adreach/backend/internal/models"
	"github.com/adreach/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const templateNameMaxRunes = 50

type TemplateService struct {
	templateRepo *repositories.TemplateRepo
	log          *zap.Logger
}

func NewTemplateService(templateRepo *repositories.TemplateRepo, log *zap.Logger) *TemplateService {
	return &TemplateService{templateRepo: templateRepo, log: log}
}

func (s *TemplateService) Save(ctx context.Context, userID uuid.UUID, name string, d draft.Draft) (*models.Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = d.CampaignName
	}
	if name == "" {
		return nil, fmt.Errorf("템플릿 이름을 입력해주세요")
	}
	if len([]rune(name)) > templateNameMaxRunes {
		return nil, fmt.Errorf("템플릿 이름은 %d자 이내로 입력해주세요", templateNameMaxRunes)
	}

	t := &models.Template{
		UserID:  userID,
		Name:    name,
		Payload: d,
	}
	if err := s.templateRepo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TemplateService) List(ctx context.Context, userID uuid.UUID) ([]models.Template, error) {
	return s.templateRepo.List(ctx, userID)
}

func (s *TemplateService) Get(ctx context.Context, id, userID uuid.UUID) (*models.Template, error) {
	return s.templateRepo.GetByID(ctx, id, userID)
}

func (s *TemplateService) Rename(ctx context.Context, id, userID uuid.UUID, name string) error {
	t, err := s.templateRepo.GetByID(ctx, id, userID)
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("템플릿 이름을 입력해주세요")
	}
	if len([]rune(name)) > templateNameMaxRunes {
		return fmt.Errorf("템플릿 이름은 %d자 이내로 입력해주세요", templateNameMaxRunes)
	}
	t.Name = name
	return s.templateRepo.Update(ctx, t)
}

func (s *TemplateService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return s.templateRepo.Delete(ctx, id, userID)
}
