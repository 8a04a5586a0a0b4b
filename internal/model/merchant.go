package model

import "time"

type SkillCategory string

const (
	SkillElectrician  SkillCategory = "Electrician"
	SkillPlumber      SkillCategory = "Plumber"
	SkillACTechnician SkillCategory = "AC Technician"
	SkillCarpenter    SkillCategory = "Carpenter"
	SkillPainter      SkillCategory = "Painter"
)

var SkillCategories = []SkillCategory{
	SkillElectrician, SkillPlumber, SkillACTechnician, SkillCarpenter, SkillPainter,
}

func (s SkillCategory) Valid() bool {
	for _, c := range SkillCategories {
		if c == s {
			return true
		}
	}
	return false
}

type Availability string

const (
	AvailabilityOnline  Availability = "online"
	AvailabilityOffline Availability = "offline"
)

func (a Availability) Valid() bool {
	return a == AvailabilityOnline || a == AvailabilityOffline
}

const (
	DefaultRating  = 4.5
	MaxAboutLength = 500
)

type MerchantProfile struct {
	ID                 string        `json:"_id" bson:"_id"`
	UserID             string        `json:"userId" bson:"userId"`
	SkillCategory      SkillCategory `json:"skillCategory" bson:"skillCategory"`
	YearsExperience    int           `json:"yearsExperience" bson:"yearsExperience"`
	About              string        `json:"about" bson:"about"`
	Price              float64       `json:"price" bson:"price"`
	Rating             float64       `json:"rating" bson:"rating"`
	PreviousWorkImages []string      `json:"previousWorkImages" bson:"previousWorkImages"`
	ProfilePicture     string        `json:"profilePicture" bson:"profilePicture"`
	Availability       Availability  `json:"availability" bson:"availability"`
	CNIC               string        `json:"cnic" bson:"cnic"`
	Certifications     []string      `json:"certifications" bson:"certifications"`
	CreatedAt          time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// NewMerchantProfile returns a profile with the platform defaults applied.
func NewMerchantProfile(id, userID string, skill SkillCategory, now time.Time) *MerchantProfile {
	if skill == "" {
		skill = SkillElectrician
	}
	return &MerchantProfile{
		ID:                 id,
		UserID:             userID,
		SkillCategory:      skill,
		Rating:             DefaultRating,
		Availability:       AvailabilityOffline,
		PreviousWorkImages: []string{},
		Certifications:     []string{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func (p *MerchantProfile) Clone() *MerchantProfile {
	c := *p
	c.PreviousWorkImages = cloneStrings(p.PreviousWorkImages)
	c.Certifications = cloneStrings(p.Certifications)
	return &c
}

func cloneStrings(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
