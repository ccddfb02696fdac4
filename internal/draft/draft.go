package draft

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	SentinelAll = "all"

	MaxAges    = 5
	MaxCities  = 5
	MaxButtons = 2

	TitleMaxRunes       = 20
	ButtonLabelMaxRunes = 8
	SMSBodyMaxRunes     = 100

	MediumNaverTalkTalk = "naver_talktalk"
	MediumSMS           = "sms"

	PolicyRealtime = "realtime"
	PolicyBatch    = "batch"

	LinkTypeWeb = "web"
	LinkTypeApp = "app"
)

// Button is one call-to-action on the message template. Web buttons carry a
// single URL; app buttons carry one or both store links.
type Button struct {
	Label      string `json:"label"`
	LinkType   string `json:"linkType"`
	WebURL     string `json:"webUrl,omitempty"`
	IOSURL     string `json:"iosUrl,omitempty"`
	AndroidURL string `json:"androidUrl,omitempty"`
}

// Location is one targeting tuple. Districts holds ["all"] when the whole
// city is selected.
type Location struct {
	City      string   `json:"city"`
	Districts []string `json:"districts"`
}

// RecommendationSection mirrors the structured targeting table the AI
// attaches to its final answer.
type RecommendationSection struct {
	Section string   `json:"section"`
	Items   []string `json:"items"`
}

// Draft is the campaign form state: template fields, targeting filters and
// delivery policy. It has two writers, decoded AI events and direct user
// edits, which both overwrite fields outright.
type Draft struct {
	CampaignName string `json:"campaignName"`
	AdMedium     string `json:"adMedium"`

	TemplateTitle  string                  `json:"templateTitle"`
	SMSTextContent string                  `json:"smsTextContent"`
	ImageURL       string                  `json:"imageUrl,omitempty"`
	Buttons        []Button                `json:"buttons,omitempty"`
	QuickReplies   []string                `json:"quickReplies,omitempty"`
	Recommendation []RecommendationSection `json:"recommendation,omitempty"`

	TargetGender     string     `json:"targetGender"`
	FemaleRatio      int        `json:"femaleRatio"`
	MaleRatio        int        `json:"maleRatio"`
	TargetAges       []string   `json:"targetAges"`
	Locations        []Location `json:"locations,omitempty"`
	TopLevelIndustry string     `json:"topLevelIndustry"`
	Industry         string     `json:"industry"`
	CardAmount       string     `json:"cardAmount"`
	CardStartTime    string     `json:"cardStartTime"`
	CardEndTime      string     `json:"cardEndTime"`

	CarouselFirst bool `json:"carouselFirst,omitempty"`

	SendPolicy      string `json:"sendPolicy"`
	ValidityStart   string `json:"validityStart"`
	ValidityEnd     string `json:"validityEnd"`
	MaxRecipients   int    `json:"maxRecipients"`
	BatchSendDate   string `json:"batchSendDate,omitempty"`
	BatchSendTime   string `json:"batchSendTime,omitempty"`
	BatchRecipients int    `json:"batchRecipients"`
}

// New returns a draft with the product defaults.
func New() *Draft {
	return &Draft{
		CampaignName:     "캠페인01",
		AdMedium:         MediumNaverTalkTalk,
		TargetGender:     SentinelAll,
		FemaleRatio:      70,
		MaleRatio:        30,
		TargetAges:       []string{SentinelAll},
		TopLevelIndustry: SentinelAll,
		Industry:         SentinelAll,
		CardAmount:       "10000",
		CardStartTime:    "08:00",
		CardEndTime:      "18:00",
		SendPolicy:       PolicyRealtime,
		MaxRecipients:    30,
		BatchSendTime:    "00:00",
		BatchRecipients:  30,
	}
}

// AddAge adds an age bracket. Selecting "all" collapses the list to just
// "all"; adding a concrete bracket while "all" is selected replaces it.
// At most MaxAges concrete brackets are kept; overflow is a no-op.
func (d *Draft) AddAge(age string) {
	if age == "" {
		return
	}
	if age == SentinelAll {
		d.TargetAges = []string{SentinelAll}
		return
	}
	if contains(d.TargetAges, SentinelAll) {
		d.TargetAges = []string{age}
		return
	}
	if contains(d.TargetAges, age) || len(d.TargetAges) >= MaxAges {
		return
	}
	d.TargetAges = append(d.TargetAges, age)
}

func (d *Draft) RemoveAge(age string) {
	out := d.TargetAges[:0]
	for _, a := range d.TargetAges {
		if a != age {
			out = append(out, a)
		}
	}
	d.TargetAges = out
}

// AddLocation adds a city/district tuple with the same collapse rules as
// ages: city "all" replaces the whole list, district "all" replaces that
// city's district list. At most MaxCities city entries are kept.
func (d *Draft) AddLocation(city, district string) {
	if city == "" {
		return
	}
	if city == SentinelAll {
		d.Locations = []Location{{City: SentinelAll, Districts: []string{SentinelAll}}}
		return
	}

	idx := d.locationIndex(city)
	if district == SentinelAll || district == "" {
		if idx >= 0 {
			d.Locations[idx].Districts = []string{SentinelAll}
			return
		}
		if len(d.Locations) >= MaxCities {
			return
		}
		d.Locations = append(d.Locations, Location{City: city, Districts: []string{SentinelAll}})
		return
	}

	if idx >= 0 {
		entry := &d.Locations[idx]
		if contains(entry.Districts, SentinelAll) || contains(entry.Districts, district) {
			return
		}
		entry.Districts = append(entry.Districts, district)
		return
	}
	if len(d.Locations) >= MaxCities {
		return
	}
	d.Locations = append(d.Locations, Location{City: city, Districts: []string{district}})
}

// RemoveLocation removes one district from a city entry. Removing the "all"
// district, or the last remaining district, drops the city entry entirely.
func (d *Draft) RemoveLocation(city, district string) {
	idx := d.locationIndex(city)
	if idx < 0 {
		return
	}
	if district == SentinelAll {
		d.Locations = append(d.Locations[:idx], d.Locations[idx+1:]...)
		return
	}
	entry := &d.Locations[idx]
	out := entry.Districts[:0]
	for _, dd := range entry.Districts {
		if dd != district {
			out = append(out, dd)
		}
	}
	if len(out) == 0 {
		d.Locations = append(d.Locations[:idx], d.Locations[idx+1:]...)
		return
	}
	entry.Districts = out
}

func (d *Draft) locationIndex(city string) int {
	for i, l := range d.Locations {
		if l.City == city {
			return i
		}
	}
	return -1
}

// SetFemaleRatio sets the female percentage and forces the male side to the
// complement; the pair always sums to 100.
func (d *Draft) SetFemaleRatio(pct int) {
	pct = clampPct(pct)
	d.FemaleRatio = pct
	d.MaleRatio = 100 - pct
}

func (d *Draft) SetMaleRatio(pct int) {
	pct = clampPct(pct)
	d.MaleRatio = pct
	d.FemaleRatio = 100 - pct
}

// AddButton appends a button up to the MaxButtons cap.
func (d *Draft) AddButton(b Button) error {
	if len(d.Buttons) >= MaxButtons {
		return fmt.Errorf("버튼은 최대 %d개까지 추가할 수 있습니다", MaxButtons)
	}
	if err := b.Validate(); err != nil {
		return err
	}
	d.Buttons = append(d.Buttons, b)
	return nil
}

func (d *Draft) RemoveButton(i int) {
	if i < 0 || i >= len(d.Buttons) {
		return
	}
	d.Buttons = append(d.Buttons[:i], d.Buttons[i+1:]...)
}

// HasLocationFilter reports whether location actually restricts the
// audience: an empty list or a single nationwide entry does not.
func (d *Draft) HasLocationFilter() bool {
	if len(d.Locations) == 0 {
		return false
	}
	if len(d.Locations) == 1 && d.Locations[0].City == SentinelAll {
		return false
	}
	return true
}

func (d *Draft) HasIndustryFilter() bool {
	return d.TopLevelIndustry != SentinelAll || d.Industry != SentinelAll
}

func (d *Draft) HasAmountFilter() bool {
	return d.CardAmount != SentinelAll
}

func (d *Draft) HasGenderFilter() bool {
	return d.TargetGender != SentinelAll
}

func (d *Draft) HasAgeFilter() bool {
	if len(d.TargetAges) == 0 {
		return false
	}
	return !(len(d.TargetAges) == 1 && d.TargetAges[0] == SentinelAll)
}

// Recipients is the per-day (realtime) or per-batch recipient count the
// total cost is computed over.
func (d *Draft) Recipients() int {
	if d.SendPolicy == PolicyBatch {
		return d.BatchRecipients
	}
	return d.MaxRecipients
}

// Validate checks the fields a submission requires. Messages are shown to
// the advertiser as-is.
func (d *Draft) Validate() error {
	if strings.TrimSpace(d.CampaignName) == "" {
		return fmt.Errorf("캠페인 이름을 입력해주세요")
	}
	if strings.TrimSpace(d.SMSTextContent) == "" && d.ImageURL == "" {
		return fmt.Errorf("캠페인 내용과 이미지가 필요합니다")
	}
	if n := len([]rune(d.TemplateTitle)); n > TitleMaxRunes {
		return fmt.Errorf("템플릿 제목은 %d자 이내로 입력해주세요", TitleMaxRunes)
	}
	if d.FemaleRatio+d.MaleRatio != 100 {
		return fmt.Errorf("성별 비율의 합이 100이어야 합니다")
	}
	for _, b := range d.Buttons {
		if err := b.Validate(); err != nil {
			return err
		}
	}
	if d.SendPolicy == PolicyBatch && d.BatchSendDate == "" {
		return fmt.Errorf("일괄 발송 날짜를 선택해주세요")
	}
	return nil
}

// Validate checks a single button: label length, link type, and that the
// destinations required by the link type are present with a scheme.
func (b Button) Validate() error {
	if strings.TrimSpace(b.Label) == "" {
		return fmt.Errorf("버튼 이름을 입력해주세요")
	}
	if n := len([]rune(b.Label)); n > ButtonLabelMaxRunes {
		return fmt.Errorf("버튼 이름은 %d자 이내로 입력해주세요", ButtonLabelMaxRunes)
	}
	switch b.LinkType {
	case LinkTypeWeb:
		if b.WebURL == "" {
			return fmt.Errorf("웹링크 주소를 입력해주세요")
		}
		if !validURL(b.WebURL) {
			return fmt.Errorf("유효하지 않은 URL입니다")
		}
	case LinkTypeApp:
		if b.IOSURL == "" && b.AndroidURL == "" {
			return fmt.Errorf("iOS 또는 Android 링크 중 하나는 입력해주세요")
		}
		for _, u := range []string{b.IOSURL, b.AndroidURL} {
			if u != "" && !validURL(u) {
				return fmt.Errorf("유효하지 않은 URL입니다")
			}
		}
	default:
		return fmt.Errorf("버튼 링크 유형이 올바르지 않습니다")
	}
	return nil
}

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}

func clampPct(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
