package handlers

import (
	"github.com/adreach/backend/internal/http/dto"
	"github.com/adreach/backend/internal/repositories"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type MetaHandler struct {
	industryRepo *repositories.IndustryRepo
	log          *zap.Logger
}

func NewMetaHandler(industryRepo *repositories.IndustryRepo, log *zap.Logger) *MetaHandler {
	return &MetaHandler{industryRepo: industryRepo, log: log}
}

type MetaOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

var ageBrackets = []MetaOption{
	{ID: "all", Label: "전체"},
	{ID: "10s", Label: "10대"},
	{ID: "20s", Label: "20대"},
	{ID: "30s", Label: "30대"},
	{ID: "40s", Label: "40대"},
	{ID: "50s", Label: "50대"},
	{ID: "60s", Label: "60대 이상"},
}

// CityOption is one selectable city with its district list. The "all"
// district is implicit on the client side and not listed here.
type CityOption struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	Districts []string `json:"districts"`
}

var cities = []CityOption{
	{ID: "seoul", Label: "서울", Districts: []string{"강남구", "서초구", "송파구", "강동구", "마포구", "용산구", "종로구", "중구", "성동구", "광진구", "영등포구", "구로구", "관악구", "동작구", "노원구", "강북구", "은평구", "서대문구"}},
	{ID: "busan", Label: "부산", Districts: []string{"해운대구", "수영구", "부산진구", "동래구", "남구", "중구", "사하구", "금정구"}},
	{ID: "incheon", Label: "인천", Districts: []string{"연수구", "남동구", "부평구", "계양구", "서구", "미추홀구"}},
	{ID: "daegu", Label: "대구", Districts: []string{"수성구", "중구", "동구", "서구", "남구", "북구", "달서구"}},
	{ID: "daejeon", Label: "대전", Districts: []string{"유성구", "서구", "중구", "동구", "대덕구"}},
	{ID: "gwangju", Label: "광주", Districts: []string{"동구", "서구", "남구", "북구", "광산구"}},
	{ID: "ulsan", Label: "울산", Districts: []string{"남구", "중구", "동구", "북구", "울주군"}},
	{ID: "gyeonggi", Label: "경기", Districts: []string{"수원시", "성남시", "고양시", "용인시", "부천시", "안산시", "안양시", "화성시", "평택시", "의정부시"}},
}

var cardAmounts = []MetaOption{
	{ID: "all", Label: "전체"},
	{ID: "10000", Label: "1만원 이상"},
	{ID: "30000", Label: "3만원 이상"},
	{ID: "50000", Label: "5만원 이상"},
	{ID: "100000", Label: "10만원 이상"},
}

func (h *MetaHandler) GetAgeBrackets(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{OK: true, Data: ageBrackets})
}

func (h *MetaHandler) GetCardAmounts(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{OK: true, Data: cardAmounts})
}

func (h *MetaHandler) GetCities(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{OK: true, Data: cities})
}

func (h *MetaHandler) GetIndustries(c *fiber.Ctx) error {
	parent := c.Query("parent")
	if parent != "" {
		industries, err := h.industryRepo.ListChildren(c.Context(), parent)
		if err != nil {
			h.log.Error("list child industries failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
		}
		return c.JSON(dto.SuccessResponse{OK: true, Data: industries})
	}

	industries, err := h.industryRepo.ListTopLevel(c.Context())
	if err != nil {
		h.log.Error("list industries failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: industries})
}
