package models

import (
	"reviewdraw/pkg/domain"
)

// Category groups experts. IDs and names are unique.
type Category struct {
	ID   domain.CategoryID `json:"category_id"`
	Name string            `json:"name"`
}

type Gender int

const (
	GenderFemale Gender = 0
	GenderMale   Gender = 1
)

// Expert is a reviewer in the directory. ID is the globally unique identity key.
// Display attributes are opaque to the draw; only CategoryID and InService matter there.
type Expert struct {
	ID         domain.ExpertKey  `json:"id"`
	Name       string            `json:"name"`
	CategoryID domain.CategoryID `json:"category_id"`
	InService  bool              `json:"in_service"`
	Gender     Gender            `json:"gender"`
	BirthDate  string            `json:"birth_date,omitempty"`
	WorkUnit   string            `json:"work_unit,omitempty"`
	Department string            `json:"department,omitempty"`
	Title      string            `json:"professional_title,omitempty"`
	Discipline string            `json:"discipline,omitempty"`
	Contact    string            `json:"contact,omitempty"`
	Internal   bool              `json:"internal"`
}

// ExpertFilter narrows directory listings. Zero values match everything.
type ExpertFilter struct {
	CategoryID    domain.CategoryID
	InServiceOnly bool
}

func (f ExpertFilter) Matches(e Expert) bool {
	if f.CategoryID != "" && e.CategoryID != f.CategoryID {
		return false
	}
	if f.InServiceOnly && !e.InService {
		return false
	}
	return true
}
