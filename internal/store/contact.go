package store

import (
	"context"
	"time"

	"realty_backend/internal/model"
	"realty_backend/pkg/apperror"
	"realty_backend/pkg/query"

	"gorm.io/gorm"
)

type ContactFilter struct {
	Status     string
	Priority   string
	PropertyID *int
	AssignedTo string
	Search     string

	Sort   string
	Order  string
	Limit  int
	Offset int
}

type ContactPage struct {
	Contacts []model.ContactInquiry `json:"contacts"`
	Total    int64                  `json:"total"`
	Limit    int                    `json:"limit"`
	Offset   int                    `json:"offset"`
}

var contactSpec = query.Spec{
	Table: "contact_inquiries",
	Filters: []query.Filter{
		{Key: "status", Op: query.Equal, Columns: []string{"status"}},
		{Key: "priority", Op: query.Equal, Columns: []string{"priority"}},
		{Key: "property_id", Op: query.Equal, Columns: []string{"property_id"}},
		{Key: "assigned_to", Op: query.EqualFold, Columns: []string{"assigned_to"}},
		{Key: "search", Op: query.Contains, Columns: []string{"name", "email", "subject", "message"}},
	},
	Sorts: map[string]string{
		"created_at": "created_at",
		"updated_at": "updated_at",
		"status":     "status",
		"priority":   "priority",
		"name":       "name",
	},
	DefaultSort: "created_at",
}

type ContactStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewContactStore(db *gorm.DB) *ContactStore {
	return &ContactStore{db: db, now: time.Now}
}

func (s *ContactStore) Create(ctx context.Context, c *model.ContactInquiry) error {
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return apperror.Internal("Failed to save inquiry", err)
	}
	return nil
}

func (s *ContactStore) List(ctx context.Context, f ContactFilter) (*ContactPage, error) {
	q := contactSpec.Build(query.Params{
		Values: map[string]any{
			"status":      f.Status,
			"priority":    f.Priority,
			"property_id": f.PropertyID,
			"assigned_to": f.AssignedTo,
			"search":      f.Search,
		},
		Sort:   f.Sort,
		Order:  f.Order,
		Limit:  f.Limit,
		Offset: f.Offset,
	})

	var total int64
	if err := countRows(ctx, s.db, q, &total); err != nil {
		return nil, apperror.Internal("Failed to count inquiries", err)
	}
	contacts := []model.ContactInquiry{}
	if err := scanRows(ctx, s.db, q, &contacts); err != nil {
		return nil, apperror.Internal("Failed to fetch inquiries", err)
	}
	return &ContactPage{Contacts: contacts, Total: total, Limit: q.Limit, Offset: q.Offset}, nil
}

// Get loads an inquiry with its linked property, if any.
func (s *ContactStore) Get(ctx context.Context, id uint) (*model.ContactInquiry, error) {
	var c model.ContactInquiry
	if err := s.db.WithContext(ctx).Preload("Property").First(&c, id).Error; err != nil {
		return nil, notFoundOr(err, "Inquiry")
	}
	return &c, nil
}

// UpdateStatus applies the admin workflow change. Moving to "contacted" for
// the first time stamps contacted_at.
func (s *ContactStore) UpdateStatus(ctx context.Context, id uint, u model.InquiryUpdate) (*model.ContactInquiry, error) {
	if u.Empty() {
		return nil, apperror.Validation("status", "Nothing to update")
	}
	if u.Status != nil && !model.ValidInquiryStatus(string(*u.Status)) {
		return nil, apperror.Validationf("status", "Invalid status %q", *u.Status)
	}
	if u.Priority != nil && !model.ValidInquiryPriority(string(*u.Priority)) {
		return nil, apperror.Validationf("priority", "Invalid priority %q", *u.Priority)
	}

	var c model.ContactInquiry
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, notFoundOr(err, "Inquiry")
	}

	updates := map[string]any{}
	if u.Status != nil {
		updates["status"] = *u.Status
		if *u.Status == model.InquiryStatusContacted && c.ContactedAt == nil {
			updates["contacted_at"] = s.now()
		}
	}
	if u.Priority != nil {
		updates["priority"] = *u.Priority
	}
	if u.AssignedTo != nil {
		updates["assigned_to"] = *u.AssignedTo
	}
	if u.AdminNotes != nil {
		updates["admin_notes"] = *u.AdminNotes
	}

	if err := s.db.WithContext(ctx).Model(&c).Updates(updates).Error; err != nil {
		return nil, apperror.Internal("Failed to update inquiry", err)
	}
	return s.Get(ctx, id)
}

func (s *ContactStore) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&model.ContactInquiry{}, id)
	if result.Error != nil {
		return apperror.Internal("Failed to delete inquiry", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("Inquiry")
	}
	return nil
}

func (s *ContactStore) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := s.db.WithContext(ctx).Model(&model.ContactInquiry{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, apperror.Internal("Failed to count inquiries", err)
	}

	counts := make(map[string]int64, len(model.InquiryStatuses))
	for _, st := range model.InquiryStatuses {
		counts[string(st)] = 0
	}
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

func (s *ContactStore) Recent(ctx context.Context, limit int) ([]model.ContactInquiry, error) {
	if limit <= 0 {
		limit = 5
	}
	contacts := []model.ContactInquiry{}
	err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&contacts).Error
	if err != nil {
		return nil, apperror.Internal("Failed to fetch inquiries", err)
	}
	return contacts, nil
}

// CountSince counts inquiries received at or after since.
func (s *ContactStore) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.ContactInquiry{}).
		Where("created_at >= ?", since).
		Count(&n).Error
	if err != nil {
		return 0, apperror.Internal("Failed to count inquiries", err)
	}
	return n, nil
}
