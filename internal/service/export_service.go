package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"coursebook/internal/errors"
	"coursebook/internal/model"
	"coursebook/internal/repository"
)

// ExportService produces downloadable participant lists.
type ExportService interface {
	ParticipantsCSV(ctx context.Context, actor *model.User, courseID uuid.UUID) (data []byte, filename string, err error)
}

type exportService struct {
	courseRepo repository.CourseRepository
	regRepo    repository.RegistrationRepository
}

// NewExportService creates a new export service.
func NewExportService(courseRepo repository.CourseRepository, regRepo repository.RegistrationRepository) ExportService {
	return &exportService{courseRepo: courseRepo, regRepo: regRepo}
}

// ParticipantsCSV renders the active participants of a course as CSV.
// Restricted to the course's leader and admins.
func (s *exportService) ParticipantsCSV(ctx context.Context, actor *model.User, courseID uuid.UUID) ([]byte, string, error) {
	course, err := s.courseRepo.FindByID(ctx, courseID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, "", errors.ErrCourseNotFound
		}
		return nil, "", fmt.Errorf("find course: %w", err)
	}
	if !canMutate(actor, course) {
		return nil, "", errors.ErrForbidden
	}

	regs, err := s.regRepo.ListActiveByCourse(ctx, courseID)
	if err != nil {
		return nil, "", fmt.Errorf("list registrations: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"Course", "Date", "Name", "Email", "Phone", "Status", "Registered at"})
	for _, reg := range regs {
		name, email, phone := "", "", ""
		if reg.User != nil {
			name = reg.User.FullName()
			email = reg.User.Email
			phone = reg.User.Phone
		}
		_ = w.Write([]string{
			course.Title,
			course.Date.Format("2006-01-02"),
			name,
			email,
			phone,
			string(reg.Status),
			reg.SignupAt.Format("2006-01-02 15:04"),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", fmt.Errorf("write csv: %w", err)
	}

	filename := fmt.Sprintf("participants_%s_%s.csv", course.Date.Format("2006-01-02"), course.ID)
	return buf.Bytes(), filename, nil
}
