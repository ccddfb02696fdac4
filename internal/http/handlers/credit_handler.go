package handlers

import (
	"strconv"

	"github.com/adreach/backend/internal/events"
	"github.com/adreach/backend/internal/http/dto"
	"github.com/adreach/backend/internal/middleware"
	"github.com/adreach/backend/internal/models"
	"github.com/adreach/backend/internal/repositories"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type CreditHandler struct {
	creditRepo *repositories.CreditRepo
	publisher  events.Publisher
	log        *zap.Logger
}

func NewCreditHandler(creditRepo *repositories.CreditRepo, publisher events.Publisher, log *zap.Logger) *CreditHandler {
	return &CreditHandler{creditRepo: creditRepo, publisher: publisher, log: log}
}

func (h *CreditHandler) GetBalance(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	balance, err := h.creditRepo.Balance(c.Context(), userID)
	if err != nil {
		h.log.Error("balance lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.BalanceResponse{Balance: balance}})
}

// TopUp credits the account. The payment itself is handled by the external
// PG; this endpoint records its settled result.
func (h *CreditHandler) TopUp(c *fiber.Ctx) error {
	var req dto.TopUpRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.Amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "amount must be positive"})
	}

	userID := middleware.GetUserID(c)
	entry, err := h.creditRepo.Credit(c.Context(), userID, req.Amount, models.CreditTxTopUp, nil, "")
	if err != nil {
		h.log.Error("top-up failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	_ = h.publisher.Publish(c.Context(), events.UserStream(userID.String()), events.Event{
		Type:    events.EventPaymentReceived,
		Payload: map[string]any{"amount": req.Amount, "balance": entry.BalanceAfter},
	})

	return c.JSON(dto.SuccessResponse{OK: true, Data: entry})
}

func (h *CreditHandler) ListTransactions(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	limit, offset := 20, 0
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			offset = n
		}
	}

	txs, err := h.creditRepo.ListTransactions(c.Context(), userID, limit, offset)
	if err != nil {
		h.log.Error("list transactions failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: txs})
}
