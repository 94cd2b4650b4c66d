package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Specialization is the category a doctor practices in.
type Specialization string

const (
	Cardiology    Specialization = "cardiology"
	Dermatology   Specialization = "dermatology"
	Pediatrics    Specialization = "pediatrics"
	Orthopedics   Specialization = "orthopedics"
	Neurology     Specialization = "neurology"
	Gynecology    Specialization = "gynecology"
	Psychiatry    Specialization = "psychiatry"
	Dentistry     Specialization = "dentistry"
	Ophthalmology Specialization = "ophthalmology"
	General       Specialization = "general"
)

var specializationNames = map[Specialization]string{
	Cardiology:    "Cardiology",
	Dermatology:   "Dermatology",
	Pediatrics:    "Pediatrics",
	Orthopedics:   "Orthopedics",
	Neurology:     "Neurology",
	Gynecology:    "Gynecology",
	Psychiatry:    "Psychiatry",
	Dentistry:     "Dentistry",
	Ophthalmology: "Ophthalmology",
	General:       "General Medicine",
}

// Specializations lists every known category in display order.
func Specializations() []Specialization {
	return []Specialization{
		Cardiology, Dermatology, Pediatrics, Orthopedics, Neurology,
		Gynecology, Psychiatry, Dentistry, Ophthalmology, General,
	}
}

// Valid reports whether s is one of the known categories.
func (s Specialization) Valid() bool {
	_, ok := specializationNames[s]
	return ok
}

// DisplayName returns the human readable category name.
func (s Specialization) DisplayName() string {
	if name, ok := specializationNames[s]; ok {
		return name
	}
	return string(s)
}

type Doctor struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Name           string          `gorm:"size:100;not null" json:"name"`
	Specialization Specialization  `gorm:"size:50;not null;default:general;index" json:"specialization"`
	Experience     int             `gorm:"not null;default:0;check:experience >= 0" json:"experience"`
	Hospital       string          `gorm:"size:200" json:"hospital"`
	Address        string          `gorm:"type:text" json:"address"`
	City           string          `gorm:"size:100" json:"city"`
	Fee            decimal.Decimal `gorm:"type:decimal(8,2);not null;check:fee >= 0" json:"fee"`
	Description    string          `gorm:"type:text" json:"description"`
	Rating         decimal.Decimal `gorm:"type:decimal(3,1);not null;default:0" json:"rating"`
	ReviewCount    int             `gorm:"not null;default:0" json:"review_count"`
	IsAvailable    bool            `gorm:"not null" json:"is_available"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// DisplayFee formats the consultation fee in rupees.
func (d Doctor) DisplayFee() string {
	return fmt.Sprintf("INR %s", d.Fee.StringFixed(2))
}
