package patient

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger.With().Str("component", "patient").Logger()}
}

func (s *Service) CreatePatient(ctx context.Context, in NewPatient) (*Patient, error) {
	name, ok := BuildFullName(in.FullName, in.FirstName, in.LastName)
	if !ok {
		return nil, ErrNameRequired
	}
	p := &Patient{
		FullName:  name,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Phone:     in.Phone,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	s.logger.Info().Int64("patient_id", p.ID).Msg("patient created")
	return p, nil
}

// GetPatient returns ErrNotFound for unknown ids.
func (s *Service) GetPatient(ctx context.Context, id int64) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// UpdatePatient applies the keys present in upd. Touching any name field
// re-derives the display name, using stored first/last names for the keys
// not sent. A derivation that yields nothing keeps the stored name.
func (s *Service) UpdatePatient(ctx context.Context, id int64, upd Update) (*Patient, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	p := *existing
	upd.FirstName.Apply(&p.FirstName)
	upd.LastName.Apply(&p.LastName)
	upd.Email.Apply(&p.Email)
	upd.Phone.Apply(&p.Phone)

	if upd.touchesName() {
		if name, ok := BuildFullName(upd.FullName.Value, p.FirstName, p.LastName); ok {
			p.FullName = name
		}
	}

	if err := s.repo.Update(ctx, &p); err != nil {
		return nil, fmt.Errorf("update patient %d: %w", id, err)
	}
	s.logger.Info().Int64("patient_id", id).Msg("patient updated")
	return &p, nil
}

// DeletePatient removes the patient. Storage cascades the delete to the
// patient's appointments.
func (s *Service) DeletePatient(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("patient_id", id).Msg("patient deleted")
	return nil
}
