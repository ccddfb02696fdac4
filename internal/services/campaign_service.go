package services

import (
	"context"
	"fmt"
	"time"

	"github.com/adreach/backend/internal/draft"
	"github.com/adreach/backend/internal/events"
	"github.com/adreach/backend/internal/models"
	"github.com/adreach/backend/internal/observability"
	"github.com/adreach/backend/internal/pricing"
	"github.com/adreach/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Campaign timestamps in the payload are wall-clock Seoul time.
var seoulTZ = time.FixedZone("KST", 9*3600)

type CampaignService struct {
	campaignRepo *repositories.CampaignRepo
	creditRepo   *repositories.CreditRepo
	steps        pricing.Steps
	publisher    events.Publisher
	log          *zap.Logger
}

func NewCampaignService(
	campaignRepo *repositories.CampaignRepo,
	creditRepo *repositories.CreditRepo,
	steps pricing.Steps,
	publisher events.Publisher,
	log *zap.Logger,
) *CampaignService {
	return &CampaignService{
		campaignRepo: campaignRepo,
		creditRepo:   creditRepo,
		steps:        steps,
		publisher:    publisher,
		log:          log,
	}
}

// Estimate is the cost breakdown shown in the composer's bottom bar.
type Estimate struct {
	UnitCost      int `json:"unitCost"`
	Recipients    int `json:"recipients"`
	TotalCost     int `json:"totalCost"`
	RequiredTopUp int `json:"requiredTopUp"`
}

// EstimateCost prices a draft against the advertiser's balance without
// touching anything.
func (s *CampaignService) EstimateCost(ctx context.Context, userID uuid.UUID, d draft.Draft) (*Estimate, error) {
	balance, err := s.creditRepo.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	unit := s.steps.UnitCost(filtersOf(d))
	total := pricing.TotalCost(unit, d.Recipients())
	return &Estimate{
		UnitCost:      unit,
		Recipients:    d.Recipients(),
		TotalCost:     total,
		RequiredTopUp: pricing.RequiredTopUp(total, balance),
	}, nil
}

// Submit freezes the draft into a campaign, debits its total cost and queues
// it for review. The debit is what makes submission atomic: if the balance
// check loses a race, the just-created campaign is cancelled again.
func (s *CampaignService) Submit(ctx context.Context, userID uuid.UUID, d draft.Draft) (*models.Campaign, error) {
	if err := d.Validate(); err != nil {
		observability.CampaignSubmits.WithLabelValues("invalid").Inc()
		return nil, err
	}

	unit := s.steps.UnitCost(filtersOf(d))
	total := pricing.TotalCost(unit, d.Recipients())

	c := &models.Campaign{
		UserID:     userID,
		Name:       d.CampaignName,
		Medium:     d.AdMedium,
		Payload:    d,
		UnitCost:   unit,
		Recipients: d.Recipients(),
		TotalCost:  total,
		Status:     models.CampaignStatusPendingApproval,
	}
	if d.SendPolicy == draft.PolicyBatch {
		at, err := parseBatchSendAt(d.BatchSendDate, d.BatchSendTime)
		if err != nil {
			return nil, err
		}
		c.BatchSendAt = &at
	}

	if err := s.campaignRepo.Create(ctx, c); err != nil {
		observability.CampaignSubmits.WithLabelValues("error").Inc()
		return nil, err
	}

	if _, err := s.creditRepo.Debit(ctx, userID, total, &c.ID, d.CampaignName); err != nil {
		// Balance changed between the UI estimate and now; roll the
		// campaign back so it never reaches review unpaid.
		if cErr := s.campaignRepo.UpdateStatus(ctx, c.ID, c.Status, models.CampaignStatusCancelled); cErr != nil {
			s.log.Error("failed to cancel unpaid campaign",
				zap.String("campaign_id", c.ID.String()), zap.Error(cErr))
		}
		observability.CampaignSubmits.WithLabelValues("insufficient_balance").Inc()
		return nil, err
	}

	_ = s.publisher.Publish(ctx, events.UserStream(userID.String()), events.Event{
		Type: events.EventCampaignSubmitted,
		Payload: map[string]any{
			"campaign_id": c.ID.String(),
			"name":        c.Name,
			"total_cost":  c.TotalCost,
		},
	})
	_ = s.publisher.Publish(ctx, events.UserStream(userID.String()), events.Event{
		Type:    events.EventBalanceRefreshed,
		Payload: map[string]any{"user_id": userID.String()},
	})

	observability.CampaignSubmits.WithLabelValues("ok").Inc()
	s.log.Info("campaign submitted",
		zap.String("campaign_id", c.ID.String()),
		zap.String("user_id", userID.String()),
		zap.Int("total_cost", total),
	)
	return c, nil
}

func (s *CampaignService) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Campaign, error) {
	c, err := s.campaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, fmt.Errorf("campaign not found")
	}
	return c, nil
}

func (s *CampaignService) List(ctx context.Context, userID uuid.UUID, f repositories.CampaignFilter) ([]models.Campaign, error) {
	f.UserID = &userID
	return s.campaignRepo.List(ctx, f)
}

// Cancel stops a campaign that has not started sending and refunds its
// total cost.
func (s *CampaignService) Cancel(ctx context.Context, id, userID uuid.UUID) error {
	c, err := s.GetByID(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := s.Transition(ctx, c, models.CampaignStatusCancelled); err != nil {
		return err
	}

	if _, err := s.creditRepo.Credit(ctx, userID, c.TotalCost, models.CreditTxRefund, &c.ID, c.Name); err != nil {
		s.log.Error("refund after cancel failed",
			zap.String("campaign_id", c.ID.String()), zap.Error(err))
		return err
	}
	_ = s.publisher.Publish(ctx, events.UserStream(userID.String()), events.Event{
		Type:    events.EventBalanceRefreshed,
		Payload: map[string]any{"user_id": userID.String()},
	})
	return nil
}

// Transition validates and performs a status change, publishing the change
// to the advertiser's event stream.
func (s *CampaignService) Transition(ctx context.Context, c *models.Campaign, newStatus string) error {
	if !models.IsValidTransition(c.Status, newStatus) {
		return fmt.Errorf("invalid transition from %s to %s", c.Status, newStatus)
	}

	oldStatus := c.Status
	if err := s.campaignRepo.UpdateStatus(ctx, c.ID, oldStatus, newStatus); err != nil {
		return err
	}
	c.Status = newStatus

	_ = s.publisher.Publish(ctx, events.UserStream(c.UserID.String()), events.Event{
		Type: events.EventCampaignStatusChanged,
		Payload: map[string]any{
			"campaign_id": c.ID.String(),
			"old_status":  oldStatus,
			"new_status":  newStatus,
		},
	})
	return nil
}

// ListDueBatch is used by the worker's send sweep.
func (s *CampaignService) ListDueBatch(ctx context.Context) ([]models.Campaign, error) {
	return s.campaignRepo.ListDueBatch(ctx)
}

func filtersOf(d draft.Draft) pricing.Filters {
	return pricing.Filters{
		Gender:        d.HasGenderFilter(),
		Age:           d.HasAgeFilter(),
		Location:      d.HasLocationFilter(),
		Industry:      d.HasIndustryFilter(),
		Amount:        d.HasAmountFilter(),
		CarouselFirst: d.CarouselFirst,
	}
}

func parseBatchSendAt(date, clock string) (time.Time, error) {
	if clock == "" {
		clock = "00:00"
	}
	at, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, seoulTZ)
	if err != nil {
		return time.Time{}, fmt.Errorf("일괄 발송 일시가 올바르지 않습니다: %w", err)
	}
	return at, nil
}
