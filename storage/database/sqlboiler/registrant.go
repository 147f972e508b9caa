package boiledrepos

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/drivers"
	"github.com/volatiletech/sqlboiler/v4/queries"
	"github.com/volatiletech/sqlboiler/v4/queries/qm"

	"github.com/trezcool/ppdb/core"
	"github.com/trezcool/ppdb/core/applicant"
	"github.com/trezcool/ppdb/core/region"
)

// dialect is what sqlboiler's psql driver declares for the models it generates.
var dialect = drivers.Dialect{
	LQ:                   '"',
	RQ:                   '"',
	UseIndexPlaceholders: true,
	UseDefaultKeyword:    true,
}

// OrderingFields maps the API ordering fields to registrant columns.
var OrderingFields = map[string]string{
	"name":              "r.name",
	"registration_code": "r.registration_code",
	"created_at":        "r.created_at",
}

var registrantColumns = []string{
	"r.user_id",
	"r.registration_code",
	"r.status",
	"r.nisn",
	"r.name",
	"r.level_id",
	"l.name AS level",
	"s.name AS school",
	"r.academic_year_id",
	"y.name AS academic_year",
	"u.name AS user_name",
	"u.phone AS user_phone",
	"u.email AS user_email",
	"r.created_at",
}

// RegistrantRepository reads registrations with query mods over a hand-declared dialect.
type RegistrantRepository struct {
	exec core.DBExecutor
}

func NewRegistrantRepository(exec core.DBExecutor) *RegistrantRepository {
	return &RegistrantRepository{exec: exec}
}

func (repo RegistrantRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func newQuery(mods ...qm.QueryMod) *queries.Query {
	q := &queries.Query{}
	queries.SetDialect(q, &dialect)
	queries.SetFrom(q, "registrants AS r")
	qm.Apply(q, mods...)
	return q
}

func joinMods() []qm.QueryMod {
	return []qm.QueryMod{
		qm.InnerJoin("users AS u ON u.id = r.user_id"),
		qm.LeftOuterJoin("levels AS l ON l.id = r.level_id"),
		qm.LeftOuterJoin("schools AS s ON s.id = r.school_id"),
		qm.LeftOuterJoin("academic_years AS y ON y.id = r.academic_year_id"),
	}
}

func filterMods(filter applicant.QueryFilter) []qm.QueryMod {
	var mods []qm.QueryMod
	if filter.Search != "" {
		val := "%" + filter.Search + "%"
		mods = append(mods, qm.Where(
			"(r.name ILIKE ? OR r.nisn ILIKE ? OR r.registration_code ILIKE ? OR u.email ILIKE ?)",
			val, val, val, val))
	}
	if filter.Status != "" {
		mods = append(mods, qm.Where("r.status = ?", filter.Status))
	}
	if filter.LevelID != 0 {
		mods = append(mods, qm.Where("r.level_id = ?", filter.LevelID))
	}
	return mods
}

func orderMod(orderings []core.DBOrdering) qm.QueryMod {
	orderList := make([]string, 0, len(orderings)+1)
	for _, ord := range core.AllowedOrderings(orderings, OrderingFields) {
		orderList = append(orderList, ord.String())
	}
	if len(orderList) == 0 {
		orderList = append(orderList, "r.created_at DESC")
	}
	orderList = append(orderList, "r.user_id ASC")
	return qm.OrderBy(strings.Join(orderList, ", "))
}

func (repo RegistrantRepository) QueryRegistrants(
	ctx context.Context,
	filter applicant.QueryFilter,
	page core.Page,
	orderings ...core.DBOrdering,
) ([]applicant.Registrant, int, error) {
	exec := repo.getExec(nil)
	mods := append(joinMods(), filterMods(filter)...)

	countQ := newQuery(mods...)
	queries.SetCount(countQ)
	var total int
	if err := countQ.QueryRowContext(ctx, exec).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "counting registrants")
	}
	if total == 0 {
		return []applicant.Registrant{}, 0, nil
	}

	mods = append(mods,
		qm.Select(registrantColumns...),
		orderMod(orderings),
		qm.Limit(page.Limit),
		qm.Offset(page.Offset()),
	)
	regs := make([]applicant.Registrant, 0, page.Limit)
	if err := newQuery(mods...).Bind(ctx, exec, &regs); err != nil {
		return nil, 0, errors.Wrap(err, "querying registrants")
	}
	return regs, total, nil
}

func (repo RegistrantRepository) GetRegistrant(ctx context.Context, userID int) (applicant.Registrant, error) {
	mods := append(joinMods(),
		qm.Select(registrantColumns...),
		qm.Where("r.user_id = ?", userID),
		qm.Limit(1),
	)
	var regs []applicant.Registrant
	if err := newQuery(mods...).Bind(ctx, repo.getExec(nil), &regs); err != nil {
		return applicant.Registrant{}, errors.Wrap(err, "getting registrant")
	}
	if len(regs) == 0 {
		return applicant.Registrant{}, applicant.ErrNotFound
	}
	return regs[0], nil
}

func (repo RegistrantRepository) UpdateRegistrantStatus(ctx context.Context, userID int, status string) error {
	res, err := queries.Raw("UPDATE registrants SET status = $1 WHERE user_id = $2", status, userID).
		ExecContext(ctx, repo.getExec(nil))
	if err != nil {
		return errors.Wrap(err, "updating registrant status")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "updating registrant status")
	}
	if n == 0 {
		return applicant.ErrNotFound
	}
	return nil
}

// exportRow is a registrant joined with their optional address (a_) and prior school (ps_).
type exportRow struct {
	applicant.Registrant `boil:",bind"`

	AProvince      null.String  `boil:"a_province"`
	ACity          null.String  `boil:"a_city"`
	ADistrict      null.String  `boil:"a_district"`
	AVillage       null.String  `boil:"a_village"`
	AStreetAddress null.String  `boil:"a_street_address"`
	APostalCode    null.String  `boil:"a_postal_code"`
	ADistanceKm    null.Float64 `boil:"a_distance_km"`
	ATransportMode null.String  `boil:"a_transport_mode"`
	HasAddress     bool         `boil:"has_address"`

	PSNPSN      null.String `boil:"ps_npsn"`
	PSName      null.String `boil:"ps_name"`
	PSProvince  null.String `boil:"ps_province"`
	PSCity      null.String `boil:"ps_city"`
	PSDistrict  null.String `boil:"ps_district"`
	PSVillage   null.String `boil:"ps_village"`
	HasPriorSch bool        `boil:"has_prior_school"`
}

func (row exportRow) detail() applicant.RegistrantDetail {
	detail := applicant.RegistrantDetail{Registrant: row.Registrant}
	if row.HasAddress {
		detail.Address = &region.AddressRecord{
			Province:      row.AProvince.String,
			City:          row.ACity.String,
			District:      row.ADistrict.String,
			Village:       row.AVillage.String,
			StreetAddress: row.AStreetAddress.String,
			PostalCode:    row.APostalCode.String,
			DistanceKm:    row.ADistanceKm,
			TransportMode: row.ATransportMode.String,
		}
	}
	if row.HasPriorSch {
		detail.PriorSchool = &applicant.PriorSchool{
			NPSN:     row.PSNPSN.String,
			Name:     row.PSName.String,
			Province: row.PSProvince.String,
			City:     row.PSCity.String,
			District: row.PSDistrict.String,
			Village:  row.PSVillage.String,
		}
	}
	return detail
}

func (repo RegistrantRepository) ExportRegistrants(ctx context.Context, academicYear string) ([]applicant.RegistrantDetail, error) {
	cols := append([]string{}, registrantColumns...)
	cols = append(cols,
		"a.province AS a_province",
		"a.city AS a_city",
		"a.district AS a_district",
		"a.village AS a_village",
		"a.street_address AS a_street_address",
		"a.postal_code AS a_postal_code",
		"a.distance_km AS a_distance_km",
		"a.transport_mode AS a_transport_mode",
		"(a.user_id IS NOT NULL) AS has_address",
		"ps.npsn AS ps_npsn",
		"ps.name AS ps_name",
		"ps.province AS ps_province",
		"ps.city AS ps_city",
		"ps.district AS ps_district",
		"ps.village AS ps_village",
		"(ps.user_id IS NOT NULL) AS has_prior_school",
	)
	mods := append(joinMods(),
		qm.LeftOuterJoin("addresses AS a ON a.user_id = r.user_id"),
		qm.LeftOuterJoin("prior_schools AS ps ON ps.user_id = r.user_id"),
		qm.Select(cols...),
		qm.Where("y.name = ?", academicYear),
		qm.OrderBy("r.registration_code ASC"),
	)

	var rows []exportRow
	if err := newQuery(mods...).Bind(ctx, repo.getExec(nil), &rows); err != nil {
		return nil, errors.Wrap(err, "exporting registrants")
	}
	details := make([]applicant.RegistrantDetail, 0, len(rows))
	for _, row := range rows {
		details = append(details, row.detail())
	}
	return details, nil
}
