package dto

import (
	"github.com/adreach/backend/internal/draft"
	"github.com/adreach/backend/internal/models"
)

type AuthLoginRequest struct {
	Email        string  `json:"email"`
	BusinessName *string `json:"businessName,omitempty"`
	Industry     string  `json:"industry,omitempty"`
}

type SetIndustryRequest struct {
	Industry string `json:"industry"`
}

// Composer

type StartSessionRequest struct {
	Industry string `json:"industry,omitempty"`
}

type ChatMessageRequest struct {
	Message      string               `json:"message"`
	AttachedFile *models.AttachedFile `json:"attachedFile,omitempty"`
}

// LocationOp names one city/district tuple for add/remove operations.
type LocationOp struct {
	City     string `json:"city"`
	District string `json:"district,omitempty"`
}

// DraftPatchRequest carries one or more edits to the live draft. Scalar
// pointers overwrite the field; the op fields run the corresponding list
// mutation with its collapse rules.
type DraftPatchRequest struct {
	CampaignName   *string `json:"campaignName,omitempty"`
	AdMedium       *string `json:"adMedium,omitempty"`
	TemplateTitle  *string `json:"templateTitle,omitempty"`
	SMSTextContent *string `json:"smsTextContent,omitempty"`
	ImageURL       *string `json:"imageUrl,omitempty"`
	CarouselFirst  *bool   `json:"carouselFirst,omitempty"`

	TargetGender *string `json:"targetGender,omitempty"`
	FemaleRatio  *int    `json:"femaleRatio,omitempty"`
	MaleRatio    *int    `json:"maleRatio,omitempty"`

	AddAge         *string     `json:"addAge,omitempty"`
	RemoveAge      *string     `json:"removeAge,omitempty"`
	AddLocation    *LocationOp `json:"addLocation,omitempty"`
	RemoveLocation *LocationOp `json:"removeLocation,omitempty"`

	AddButton    *draft.Button `json:"addButton,omitempty"`
	RemoveButton *int          `json:"removeButton,omitempty"`

	TopLevelIndustry *string `json:"topLevelIndustry,omitempty"`
	Industry         *string `json:"industry,omitempty"`
	CardAmount       *string `json:"cardAmount,omitempty"`
	CardStartTime    *string `json:"cardStartTime,omitempty"`
	CardEndTime      *string `json:"cardEndTime,omitempty"`

	SendPolicy      *string `json:"sendPolicy,omitempty"`
	ValidityStart   *string `json:"validityStart,omitempty"`
	ValidityEnd     *string `json:"validityEnd,omitempty"`
	MaxRecipients   *int    `json:"maxRecipients,omitempty"`
	BatchSendDate   *string `json:"batchSendDate,omitempty"`
	BatchSendTime   *string `json:"batchSendTime,omitempty"`
	BatchRecipients *int    `json:"batchRecipients,omitempty"`
}

type LinkPreviewRequest struct {
	URL string `json:"url"`
}

// Templates

type SaveTemplateRequest struct {
	Name string `json:"name,omitempty"`
}

type RenameTemplateRequest struct {
	Name string `json:"name"`
}

// Credits

type TopUpRequest struct {
	Amount int `json:"amount"` // whole KRW
}
