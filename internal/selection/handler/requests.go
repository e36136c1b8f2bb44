package handler

import (
	"strconv"
	"strings"
	"time"

	"reviewdraw/internal/selection/models"
	"reviewdraw/internal/selection/service"
	"reviewdraw/pkg/domain"
	dErrors "reviewdraw/pkg/domain-errors"
)

const (
	maxRequirements = 64
	maxAvoid        = 256
	maxNameLength   = 200
	maxReasonLength = 500
)

type ProjectRequest struct {
	Name             string `json:"name"`
	OrganizationUnit string `json:"organization_unit"`
	ExtractDate      string `json:"extract_date"`
	Supervisor       string `json:"supervisor"`
}

type RequirementRequest struct {
	CategoryID     string   `json:"category_id"`
	Count          int      `json:"count"`
	AvoidExpertIDs []string `json:"avoid_expert_ids"`
}

// AllocateRequest is the body of POST /selections.
type AllocateRequest struct {
	Project      ProjectRequest       `json:"project"`
	Requirements []RequirementRequest `json:"requirements"`
	// AvoidExpertIDs is excluded from every requirement.
	AvoidExpertIDs []string `json:"avoid_expert_ids"`

	parsed service.AllocateCommand
}

func (r *AllocateRequest) Normalize() {
	r.Project.Name = strings.TrimSpace(r.Project.Name)
	r.Project.OrganizationUnit = strings.TrimSpace(r.Project.OrganizationUnit)
	r.Project.ExtractDate = strings.TrimSpace(r.Project.ExtractDate)
	r.Project.Supervisor = strings.TrimSpace(r.Project.Supervisor)
}

// Validate checks the request shape and parses it into a command. Batch
// semantics (duplicate categories, pool sizes) are left to the service.
func (r *AllocateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Requirements) > maxRequirements {
		return dErrors.New(dErrors.CodeValidation, "too many requirements")
	}
	if len(r.AvoidExpertIDs) > maxAvoid {
		return dErrors.New(dErrors.CodeValidation, "too many avoided experts")
	}
	if len(r.Project.Name) > maxNameLength {
		return dErrors.New(dErrors.CodeValidation, "project.name is too long")
	}

	if r.Project.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "project.name is required")
	}
	if len(r.Requirements) == 0 {
		return dErrors.New(dErrors.CodeValidation, "requirements must not be empty")
	}

	reqs := make([]models.Requirement, 0, len(r.Requirements))
	for i, rr := range r.Requirements {
		categoryID, err := domain.ParseCategoryID(rr.CategoryID)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, "requirements["+strconv.Itoa(i)+"].category_id is required")
		}
		if rr.Count < 1 {
			return dErrors.New(dErrors.CodeValidation, "requirements["+strconv.Itoa(i)+"].count must be at least 1")
		}
		if len(rr.AvoidExpertIDs) > maxAvoid {
			return dErrors.New(dErrors.CodeValidation, "too many avoided experts")
		}
		reqs = append(reqs, models.Requirement{
			CategoryID: categoryID,
			Count:      rr.Count,
			Avoid:      expertKeys(rr.AvoidExpertIDs),
		})
	}

	r.parsed = service.AllocateCommand{
		Project: service.ProjectInput{
			Name:             r.Project.Name,
			OrganizationUnit: r.Project.OrganizationUnit,
			ExtractDate:      r.Project.ExtractDate,
			Supervisor:       r.Project.Supervisor,
		},
		Requirements: reqs,
		Avoid:        expertKeys(r.AvoidExpertIDs),
	}
	return nil
}

func (r *AllocateRequest) Command() service.AllocateCommand {
	return r.parsed
}

// ReplaceRequest is the body of POST /selections/{id}/replacements.
type ReplaceRequest struct {
	ExpertID string `json:"expert_id"`
	Reason   string `json:"reason"`

	parsedExpertID domain.ExpertKey
}

func (r *ReplaceRequest) Normalize() {
	r.Reason = strings.TrimSpace(r.Reason)
}

// Validate requires an expert id. An empty reason passes through so the
// service reports it with its own error kind.
func (r *ReplaceRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Reason) > maxReasonLength {
		return dErrors.New(dErrors.CodeValidation, "reason is too long")
	}
	key, err := domain.ParseExpertKey(r.ExpertID)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "expert_id is required")
	}
	r.parsedExpertID = key
	return nil
}

func (r *ReplaceRequest) Command(id domain.RecordID) service.ReplaceCommand {
	return service.ReplaceCommand{RecordID: id, ExpertID: r.parsedExpertID, Reason: r.Reason}
}

func expertKeys(raw []string) []domain.ExpertKey {
	if len(raw) == 0 {
		return nil
	}
	out := make([]domain.ExpertKey, 0, len(raw))
	for _, s := range raw {
		if key, err := domain.ParseExpertKey(s); err == nil {
			out = append(out, key)
		}
	}
	return out
}

// parseListFilter reads ?status=&q=&since=&until=&limit=. Dates accept
// RFC 3339 or YYYY-MM-DD.
func parseListFilter(q map[string][]string) (models.Filter, error) {
	get := func(key string) string {
		if v := q[key]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}

	var filter models.Filter
	if s := get("status"); s != "" {
		status := models.Status(strings.ToLower(s))
		if !status.IsValid() {
			return models.Filter{}, dErrors.New(dErrors.CodeValidation, "status must be clean or amended")
		}
		filter.Status = status
	}
	filter.ProjectQuery = get("q")

	var err error
	if filter.Since, err = parseTime(get("since")); err != nil {
		return models.Filter{}, dErrors.New(dErrors.CodeValidation, "since must be RFC 3339 or YYYY-MM-DD")
	}
	if filter.Until, err = parseTime(get("until")); err != nil {
		return models.Filter{}, dErrors.New(dErrors.CodeValidation, "until must be RFC 3339 or YYYY-MM-DD")
	}
	if s := get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return models.Filter{}, dErrors.New(dErrors.CodeValidation, "limit must be a non-negative integer")
		}
		filter.Limit = n
	}
	return filter, nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}
