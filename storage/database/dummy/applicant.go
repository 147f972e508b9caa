package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/ppdb/core"
	"github.com/trezcool/ppdb/core/applicant"
	"github.com/trezcool/ppdb/core/region"
)

type applicantRepository struct {
	db *DB
}

var _ applicant.Repository = (*applicantRepository)(nil) // interface compliance check

func NewApplicantRepository(db *DB) applicant.Repository {
	return &applicantRepository{db: db}
}

func (repo *applicantRepository) GetAddress(_ context.Context, userID int) (region.AddressRecord, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rec, ok := repo.db.addresses[userID]; ok {
		return rec, nil
	}
	return region.AddressRecord{}, applicant.ErrNotFound
}

func (repo *applicantRepository) UpsertAddress(_ context.Context, userID int, rec region.AddressRecord) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.addresses[userID] = rec
	return nil
}

func (repo *applicantRepository) GetPriorSchool(_ context.Context, userID int) (applicant.PriorSchool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if ps, ok := repo.db.priorSchools[userID]; ok {
		return ps, nil
	}
	return applicant.PriorSchool{}, applicant.ErrNotFound
}

func (repo *applicantRepository) UpsertPriorSchool(_ context.Context, userID int, ps applicant.PriorSchool) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.priorSchools[userID] = ps
	return nil
}

func matches(reg applicant.Registrant, filter applicant.QueryFilter) bool {
	if filter.Status != "" && reg.Status != filter.Status {
		return false
	}
	if filter.LevelID != 0 && (!reg.LevelID.Valid || reg.LevelID.Int != filter.LevelID) {
		return false
	}
	if filter.Search != "" {
		search := strings.ToLower(filter.Search)
		for _, s := range []string{reg.Name, reg.NISN, reg.RegistrationCode, reg.UserEmail} {
			if strings.Contains(strings.ToLower(s), search) {
				return true
			}
		}
		return false
	}
	return true
}

func (repo *applicantRepository) query(filter applicant.QueryFilter) []applicant.Registrant {
	regs := make([]applicant.Registrant, 0, len(repo.db.registrants))
	for _, reg := range repo.db.registrants {
		if matches(*reg, filter) {
			regs = append(regs, *reg)
		}
	}
	return regs
}

func (repo *applicantRepository) QueryRegistrants(
	_ context.Context,
	filter applicant.QueryFilter,
	page core.Page,
	orderings ...core.DBOrdering,
) ([]applicant.Registrant, int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	regs := repo.query(filter)
	// newest first, then by the requested orderings (name or created_at)
	sort.SliceStable(regs, func(i, j int) bool {
		if !regs[i].CreatedAt.Equal(regs[j].CreatedAt) {
			return regs[i].CreatedAt.After(regs[j].CreatedAt)
		}
		return regs[i].UserID < regs[j].UserID
	})
	for k := len(orderings) - 1; k >= 0; k-- {
		ord := orderings[k]
		sort.SliceStable(regs, func(i, j int) bool {
			a, b := regs[i], regs[j]
			if !ord.Ascending {
				a, b = b, a
			}
			switch ord.Field {
			case "name":
				return a.Name < b.Name
			case "registration_code":
				return a.RegistrationCode < b.RegistrationCode
			case "created_at":
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return false
		})
	}

	total := len(regs)
	start := page.Offset()
	if start > total {
		start = total
	}
	end := start + page.Limit
	if end > total {
		end = total
	}
	return regs[start:end], total, nil
}

func (repo *applicantRepository) GetRegistrant(_ context.Context, userID int) (applicant.Registrant, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if reg, ok := repo.db.registrants[userID]; ok {
		return *reg, nil
	}
	return applicant.Registrant{}, applicant.ErrNotFound
}

func (repo *applicantRepository) UpdateRegistrantStatus(_ context.Context, userID int, status string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	reg, ok := repo.db.registrants[userID]
	if !ok {
		return applicant.ErrNotFound
	}
	reg.Status = status
	return nil
}

func (repo *applicantRepository) ExportRegistrants(_ context.Context, academicYear string) ([]applicant.RegistrantDetail, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	details := make([]applicant.RegistrantDetail, 0)
	for _, reg := range repo.db.registrants {
		if !reg.AcademicYear.Valid || reg.AcademicYear.String != academicYear {
			continue
		}
		detail := applicant.RegistrantDetail{Registrant: *reg}
		if rec, ok := repo.db.addresses[reg.UserID]; ok {
			detail.Address = &rec
		}
		if ps, ok := repo.db.priorSchools[reg.UserID]; ok {
			detail.PriorSchool = &ps
		}
		details = append(details, detail)
	}
	sort.Slice(details, func(i, j int) bool { return details[i].RegistrationCode < details[j].RegistrationCode })
	return details, nil
}
