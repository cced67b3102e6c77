package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/clinical"
)

// GormConsultationRepository implements clinical.ConsultationRepository using GORM
type GormConsultationRepository struct {
	db *gorm.DB
}

// NewGormConsultationRepository creates a new GormConsultationRepository
func NewGormConsultationRepository(db *gorm.DB) *GormConsultationRepository {
	return &GormConsultationRepository{db: db}
}

// FindByID finds a consultation by ID
func (r *GormConsultationRepository) FindByID(ctx context.Context, id uuid.UUID) (*clinical.Consultation, error) {
	var consultation clinical.Consultation
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		First(&consultation, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &consultation, nil
}

// FindByVisit returns all consultations for a visit
func (r *GormConsultationRepository) FindByVisit(ctx context.Context, visitID uuid.UUID) ([]*clinical.Consultation, error) {
	var consultations []*clinical.Consultation
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("visit_id = ?", visitID).
		Order("created_at ASC").
		Find(&consultations).Error; err != nil {
		return nil, err
	}
	return consultations, nil
}

// FindLastAttendingDoctor returns the doctor from the patient's most
// recently updated consultation that has one assigned
func (r *GormConsultationRepository) FindLastAttendingDoctor(ctx context.Context, patientID uuid.UUID) (*uuid.UUID, error) {
	var consultation clinical.Consultation
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("patient_id = ? AND doctor_id IS NOT NULL", patientID).
		Order("updated_at DESC").
		First(&consultation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return consultation.DoctorID, nil
}

// Save creates or updates a consultation
func (r *GormConsultationRepository) Save(ctx context.Context, consultation *clinical.Consultation) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Save(consultation).Error
}

var _ clinical.ConsultationRepository = (*GormConsultationRepository)(nil)
