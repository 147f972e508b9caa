package applicant

import (
	"context"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/trezcool/ppdb/core"
	"github.com/trezcool/ppdb/core/region"
)

var ErrNotFound = errors.New("not found")

type (
	Repository interface {
		GetAddress(ctx context.Context, userID int) (region.AddressRecord, error)
		// UpsertAddress creates or replaces the address of userID.
		UpsertAddress(ctx context.Context, userID int, rec region.AddressRecord) error
		GetPriorSchool(ctx context.Context, userID int) (PriorSchool, error)
		UpsertPriorSchool(ctx context.Context, userID int, ps PriorSchool) error

		// QueryRegistrants applies AND on the set QueryFilter fields and returns one page plus the total count.
		// QueryFilter.Search does a case-insensitive match on the registrant name, NISN, registration code or user email.
		QueryRegistrants(ctx context.Context, filter QueryFilter, page core.Page, orderings ...core.DBOrdering) ([]Registrant, int, error)
		GetRegistrant(ctx context.Context, userID int) (Registrant, error)
		UpdateRegistrantStatus(ctx context.Context, userID int, status string) error
		// ExportRegistrants lists every registrant of an academic year with their address and prior school.
		ExportRegistrants(ctx context.Context, academicYear string) ([]RegistrantDetail, error)
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		logger  core.Logger
	}
)

func NewService(repo Repository, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{repo: repo, mailSvc: mailSvc, logger: logger}
}

// GetAddress returns ErrNotFound when the applicant has not filled their address yet.
func (svc *Service) GetAddress(ctx context.Context, userID int) (region.AddressRecord, error) {
	return svc.repo.GetAddress(ctx, userID)
}

// FindAddress is GetAddress with a missing address reported as nil.
func (svc *Service) FindAddress(ctx context.Context, userID int) (*region.AddressRecord, error) {
	rec, err := svc.repo.GetAddress(ctx, userID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (svc *Service) SaveAddress(ctx context.Context, userID int, rec region.AddressRecord) error {
	return errors.Wrap(svc.repo.UpsertAddress(ctx, userID, rec), "upserting address")
}

func (svc *Service) GetPriorSchool(ctx context.Context, userID int) (PriorSchool, error) {
	return svc.repo.GetPriorSchool(ctx, userID)
}

func (svc *Service) SavePriorSchool(ctx context.Context, userID int, ps PriorSchool) error {
	return errors.Wrap(svc.repo.UpsertPriorSchool(ctx, userID, ps), "upserting prior school")
}

// QueryRegistrants returns the registrants of the page and the number of pages.
func (svc *Service) QueryRegistrants(
	ctx context.Context,
	filter QueryFilter,
	page core.Page,
	orderings ...core.DBOrdering,
) ([]Registrant, int, error) {
	filter.Clean()
	page.Clean()
	regs, total, err := svc.repo.QueryRegistrants(ctx, filter, page, orderings...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying registrants")
	}
	return regs, page.TotalPages(total), nil
}

func (svc *Service) GetRegistrant(ctx context.Context, userID int) (RegistrantDetail, error) {
	reg, err := svc.repo.GetRegistrant(ctx, userID)
	if err != nil {
		return RegistrantDetail{}, err
	}
	detail := RegistrantDetail{Registrant: reg}

	if detail.Address, err = svc.FindAddress(ctx, userID); err != nil {
		return RegistrantDetail{}, errors.Wrap(err, "getting address")
	}
	ps, err := svc.repo.GetPriorSchool(ctx, userID)
	switch {
	case err == nil:
		detail.PriorSchool = &ps
	case errors.Cause(err) != ErrNotFound:
		return RegistrantDetail{}, errors.Wrap(err, "getting prior school")
	}
	return detail, nil
}

// SetStatus changes the status of a registration and emails the applicant about it.
func (svc *Service) SetStatus(ctx context.Context, userID int, status string) (Registrant, error) {
	reg, err := svc.repo.GetRegistrant(ctx, userID)
	if err != nil {
		return Registrant{}, err
	}
	if reg.Status == status {
		return reg, nil
	}
	if err := svc.repo.UpdateRegistrantStatus(ctx, userID, status); err != nil {
		return Registrant{}, errors.Wrap(err, "updating status")
	}
	reg.Status = status
	svc.sendStatusMail(reg)
	return reg, nil
}

func (svc *Service) sendStatusMail(reg Registrant) {
	if reg.UserEmail == "" {
		svc.logger.Warn("registrant without email", map[string]interface{}{"user_id": reg.UserID})
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: reg.UserName, Address: reg.UserEmail}},
		Subject:      "Registration status",
		TemplateName: "registration_status",
		TemplateData: map[string]interface{}{
			"Name":             reg.UserName,
			"RegistrationCode": reg.RegistrationCode,
			"Status":           reg.Status,
		},
	})
}

func (svc *Service) Export(ctx context.Context, academicYear string) ([]RegistrantDetail, error) {
	academicYear = core.CleanString(academicYear)
	if academicYear == "" {
		return nil, core.NewFieldError("academic_year", "this field is required")
	}
	regs, err := svc.repo.ExportRegistrants(ctx, academicYear)
	return regs, errors.Wrap(err, "exporting registrants")
}
