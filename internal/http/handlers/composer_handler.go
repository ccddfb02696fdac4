package handlers

import (
	"bufio"
	"context"
	"time"

	"github.com/adreach/backend/internal/composer"
	"github.com/adreach/backend/internal/config"
	"github.com/adreach/backend/internal/draft"
	"github.com/adreach/backend/internal/events"
	"github.com/adreach/backend/internal/http/dto"
	"github.com/adreach/backend/internal/linkpreview"
	"github.com/adreach/backend/internal/middleware"
	"github.com/adreach/backend/internal/observability"
	"github.com/adreach/backend/internal/repositories"
	"github.com/adreach/backend/internal/services"
	"github.com/adreach/backend/internal/snapshot"
	"github.com/adreach/backend/internal/stream"
	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

type ComposerHandler struct {
	manager   *composer.Manager
	ai        composer.Streamer
	store     snapshot.Store
	campaigns *services.CampaignService
	previews  *linkpreview.Fetcher
	userRepo  *repositories.UserRepo
	publisher events.Publisher
	cfg       *config.Config
	log       *zap.Logger
}

func NewComposerHandler(
	manager *composer.Manager,
	ai composer.Streamer,
	store snapshot.Store,
	campaigns *services.CampaignService,
	previews *linkpreview.Fetcher,
	userRepo *repositories.UserRepo,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *ComposerHandler {
	return &ComposerHandler{
		manager:   manager,
		ai:        ai,
		store:     store,
		campaigns: campaigns,
		previews:  previews,
		userRepo:  userRepo,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
	}
}

// StartSession drops any previous session and opens a fresh one.
func (h *ComposerHandler) StartSession(c *fiber.Ctx) error {
	var req dto.StartSessionRequest
	_ = c.BodyParser(&req)

	userID := middleware.GetUserID(c)
	industry := req.Industry
	if industry == "" {
		if u, err := h.userRepo.GetByID(c.Context(), userID); err == nil {
			industry = u.Industry
		}
	}

	s := h.manager.Start(userID, industry)
	observability.ActiveSessions.Inc()
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: dto.SessionResponse{
		Restored: false,
		Messages: s.Turns(),
		Draft:    s.Draft(),
	}})
}

// ResumeSession returns the live session, or rehydrates it from the
// persisted snapshot. Returning from an external payment flow inside the
// restore window additionally refreshes the balance the client shows.
func (h *ComposerHandler) ResumeSession(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	ctx := c.Context()

	if at, ok, err := h.store.PaymentCompletedAt(ctx, userID.String()); err == nil && ok {
		if time.Since(at) <= h.cfg.PaymentRestoreWindow {
			_ = h.publisher.Publish(ctx, events.UserStream(userID.String()), events.Event{
				Type:    events.EventBalanceRefreshed,
				Payload: map[string]any{"user_id": userID.String()},
			})
		}
		// The marker is one-shot either way; an expired one is just stale.
		_ = h.store.ClearPaymentCompleted(ctx, userID.String())
	}

	industry := ""
	if u, err := h.userRepo.GetByID(ctx, userID); err == nil {
		industry = u.Industry
	}

	s, restored, err := h.manager.Resume(ctx, userID, industry)
	if err != nil {
		h.log.Error("resume failed", zap.String("user_id", userID.String()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	if restored {
		observability.ActiveSessions.Inc()
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.SessionResponse{
		Restored: restored,
		Messages: s.Turns(),
		Draft:    s.Draft(),
	}})
}

// PostMessage feeds one user message into the session. A sequencer question
// comes back as plain JSON; a generation turn is relayed as an SSE stream,
// one frame per decoded event.
func (h *ComposerHandler) PostMessage(c *fiber.Ctx) error {
	var req dto.ChatMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.Message == "" && req.AttachedFile == nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "message is required"})
	}

	s, err := h.session(c)
	if err != nil {
		return nil
	}

	// The stream is bounded by its own deadline, not the client connection:
	// a dropped client must not abort the upstream mid-generation, or the
	// session would hold a half-applied turn on resume.
	streamCtx, cancelStream := context.WithTimeout(
		context.Background(), time.Duration(h.cfg.AIStreamMaxSeconds)*time.Second)

	started := time.Now()
	res, err := s.HandleUserMessage(streamCtx, h.ai, req.Message, req.AttachedFile)
	if err != nil {
		cancelStream()
		h.log.Warn("generation failed to start", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Error: "generation unavailable"})
	}

	if res.Question != nil {
		cancelStream()
		return c.JSON(dto.SuccessResponse{OK: true, Data: dto.QuestionResponse{Question: *res.Question}})
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		for ev := range res.Events {
			frame, err := stream.MarshalFrame(ev)
			if err != nil {
				continue
			}
			if _, err := w.Write(frame); err != nil {
				// Client went away; the pump keeps applying events to the
				// session so the state is intact on resume.
				for range res.Events {
				}
				break
			}
			_ = w.Flush()
			observability.StreamFrames.WithLabelValues(stream.Kind(ev)).Inc()
		}
		cancelStream()
		observability.AIStreamLatency.Observe(time.Since(started).Seconds())
	}))
	return nil
}

// GetDraft returns the form-state mirror.
func (h *ComposerHandler) GetDraft(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return nil
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: s.Draft()})
}

// PatchDraft applies direct user edits under the session lock.
func (h *ComposerHandler) PatchDraft(c *fiber.Ctx) error {
	var req dto.DraftPatchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	s, err := h.session(c)
	if err != nil {
		return nil
	}

	var editErr error
	updated := s.EditDraft(func(d *draft.Draft) {
		editErr = applyPatch(d, req)
	})
	if editErr != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: editErr.Error()})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: updated})
}

// Estimate prices the current draft against the balance.
func (h *ComposerHandler) Estimate(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return nil
	}
	est, err := h.campaigns.EstimateCost(c.Context(), middleware.GetUserID(c), s.Draft())
	if err != nil {
		h.log.Error("estimate failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: est})
}

// Submit turns the draft into a pending campaign and discards the session.
func (h *ComposerHandler) Submit(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return nil
	}

	userID := middleware.GetUserID(c)
	campaign, err := h.campaigns.Submit(c.Context(), userID, s.Draft())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	if err := h.manager.Discard(c.Context(), userID); err != nil {
		h.log.Warn("failed to discard session after submit",
			zap.String("user_id", userID.String()), zap.Error(err))
	}
	observability.ActiveSessions.Dec()

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: campaign})
}

// PaymentCompleted marks the return point of an external top-up flow so the
// next resume inside the window refreshes the balance.
func (h *ComposerHandler) PaymentCompleted(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if err := h.store.MarkPaymentCompleted(c.Context(), userID.String(), time.Now()); err != nil {
		h.log.Error("failed to mark payment completed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// LinkPreview fetches Open Graph metadata for a button destination.
func (h *ComposerHandler) LinkPreview(c *fiber.Ctx) error {
	var req dto.LinkPreviewRequest
	if err := c.BodyParser(&req); err != nil || req.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "url is required"})
	}

	p, err := h.previews.Fetch(c.Context(), req.URL)
	if err != nil {
		h.log.Debug("link preview failed", zap.String("url", req.URL), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Error: "preview unavailable"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: p})
}

// session returns the live session, rehydrating from the snapshot store if
// needed. On failure the 500 response is already written; callers just
// return the error.
func (h *ComposerHandler) session(c *fiber.Ctx) (*composer.Session, error) {
	userID := middleware.GetUserID(c)
	if s, ok := h.manager.Get(userID); ok {
		return s, nil
	}
	s, _, err := h.manager.Resume(c.Context(), userID, "")
	if err != nil {
		h.log.Error("session resume failed", zap.Error(err))
		_ = c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
		return nil, err
	}
	return s, nil
}

func applyPatch(d *draft.Draft, req dto.DraftPatchRequest) error {
	if req.CampaignName != nil {
		d.CampaignName = *req.CampaignName
	}
	if req.AdMedium != nil {
		d.AdMedium = *req.AdMedium
	}
	if req.TemplateTitle != nil {
		d.TemplateTitle = *req.TemplateTitle
	}
	if req.SMSTextContent != nil {
		d.SMSTextContent = *req.SMSTextContent
	}
	if req.ImageURL != nil {
		d.ImageURL = *req.ImageURL
	}
	if req.CarouselFirst != nil {
		d.CarouselFirst = *req.CarouselFirst
	}

	if req.TargetGender != nil {
		d.TargetGender = *req.TargetGender
	}
	if req.FemaleRatio != nil {
		d.SetFemaleRatio(*req.FemaleRatio)
	}
	if req.MaleRatio != nil {
		d.SetMaleRatio(*req.MaleRatio)
	}

	if req.AddAge != nil {
		d.AddAge(*req.AddAge)
	}
	if req.RemoveAge != nil {
		d.RemoveAge(*req.RemoveAge)
	}
	if req.AddLocation != nil {
		d.AddLocation(req.AddLocation.City, req.AddLocation.District)
	}
	if req.RemoveLocation != nil {
		d.RemoveLocation(req.RemoveLocation.City, req.RemoveLocation.District)
	}

	if req.AddButton != nil {
		if err := d.AddButton(*req.AddButton); err != nil {
			return err
		}
	}
	if req.RemoveButton != nil {
		d.RemoveButton(*req.RemoveButton)
	}

	if req.TopLevelIndustry != nil {
		d.TopLevelIndustry = *req.TopLevelIndustry
	}
	if req.Industry != nil {
		d.Industry = *req.Industry
	}
	if req.CardAmount != nil {
		d.CardAmount = *req.CardAmount
	}
	if req.CardStartTime != nil {
		d.CardStartTime = *req.CardStartTime
	}
	if req.CardEndTime != nil {
		d.CardEndTime = *req.CardEndTime
	}

	if req.SendPolicy != nil {
		d.SendPolicy = *req.SendPolicy
	}
	if req.ValidityStart != nil {
		d.ValidityStart = *req.ValidityStart
	}
	if req.ValidityEnd != nil {
		d.ValidityEnd = *req.ValidityEnd
	}
	if req.MaxRecipients != nil {
		d.MaxRecipients = *req.MaxRecipients
	}
	if req.BatchSendDate != nil {
		d.BatchSendDate = *req.BatchSendDate
	}
	if req.BatchSendTime != nil {
		d.BatchSendTime = *req.BatchSendTime
	}
	if req.BatchRecipients != nil {
		d.BatchRecipients = *req.BatchRecipients
	}
	return nil
}
