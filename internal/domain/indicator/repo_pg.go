package indicator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/indicators/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// StorePG reads cohorts and events from the e-SUS AB analytical schema.
type StorePG struct{ pool *pgxpool.Pool }

func NewStorePG(pool *pgxpool.Pool) *StorePG {
	return &StorePG{pool: pool}
}

func (r *StorePG) conn(_ context.Context) queryable {
	return r.pool
}

const personCols = `pec.co_seq_fat_cidadao_pec, COALESCE(c.no_cidadao, ''),
	COALESCE(c.nu_cpf, ''), COALESCE(c.nu_cns, ''), c.dt_nascimento,
	COALESCE(UPPER(c.no_sexo), ''), COALESCE(c.st_ativo, 0) = 1, COALESCE(c.st_faleceu, 0) = 1,
	COALESCE(TRIM(te.no_equipe), ''), COALESCE(TRIM(te.nu_ine::text), ''),
	COALESCE((SELECT TRIM(tt.nu_micro_area::text) FROM tb_fat_cidadao_territorio tt
		WHERE tt.co_fat_cidadao_pec = pec.co_seq_fat_cidadao_pec AND tt.nu_micro_area IS NOT NULL
		LIMIT 1), '')`

const personFrom = `tb_fat_cidadao_pec pec
	JOIN tb_cidadao c ON pec.co_cidadao = c.co_seq_cidadao`

const linkedTeamJoin = `LEFT JOIN tb_dim_equipe te ON pec.co_dim_equipe_vinc = te.co_seq_dim_equipe`

func scanPerson(row pgx.Row, anchor **time.Time) (*Person, error) {
	var p Person
	var birth *time.Time
	dest := []interface{}{&p.Key, &p.Name, &p.CPF, &p.CNS, &birth, &p.Sex,
		&p.Active, &p.Deceased, &p.TeamName, &p.TeamCode, &p.Subarea}
	if anchor != nil {
		dest = append(dest, anchor)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if birth != nil {
		p.BirthDate = Day(*birth)
	}
	return &p, nil
}

// cohortQuery builds the selection for one cohort kind. The anchor column
// is always last.
func cohortQuery(q CohortQuery) *db.Query {
	ref := q.Ref()
	c := q.Cohort
	var query *db.Query

	switch c.Kind {
	case CohortPregnancy:
		tl := q.Timeline
		query = db.NewQuery(personFrom, personCols+", g.anchor")
		query.Join(`JOIN LATERAL (
			SELECT t.dt_registro AS anchor, ai.co_dim_equipe_1 AS equipe
			FROM tb_fat_atendimento_individual ai
			JOIN tb_dim_tempo t ON ai.co_dim_tempo = t.co_seq_dim_tempo
			WHERE ai.co_fat_cidadao_pec = pec.co_seq_fat_cidadao_pec
			  AND ai.nu_idade_gestacional_semanas > 0
			  AND t.dt_registro <= ?::date
			  AND t.dt_registro >= ?::date
			ORDER BY t.dt_registro DESC
			LIMIT 1) g ON g.anchor + ?::int >= ?::date`,
			ref, AddMonths(ref, -tl.LookbackMonths), tl.ViabilityDays, ref)
		query.Join(`LEFT JOIN tb_dim_equipe te ON g.equipe = te.co_seq_dim_equipe`)

	case CohortAttended:
		p := q.Filter.Period
		monthClause := ""
		args := []interface{}{accessCodes, p.From, p.Ref}
		if len(p.Months) > 0 {
			monthClause = "AND to_char(t.dt_registro, 'YYYY-MM') = ANY(?)"
			args = append(args, p.Months)
		}
		query = db.NewQuery(personFrom, personCols+", a.anchor")
		query.Join(`JOIN LATERAL (
			SELECT MIN(t.dt_registro) AS anchor,
			       (ARRAY_AGG(ai.co_dim_equipe_1 ORDER BY t.dt_registro DESC))[1] AS equipe
			FROM tb_fat_atendimento_individual ai
			JOIN tb_dim_tempo t ON ai.co_dim_tempo = t.co_seq_dim_tempo
			JOIN tb_dim_cbo cbo ON ai.co_dim_cbo_1 = cbo.co_seq_dim_cbo
			WHERE ai.co_fat_cidadao_pec = pec.co_seq_fat_cidadao_pec
			  AND cbo.nu_cbo = ANY(?)
			  AND t.dt_registro BETWEEN ? AND ? `+monthClause+`
			HAVING COUNT(*) > 0) a ON TRUE`, args...)
		query.Join(`LEFT JOIN tb_dim_equipe te ON a.equipe = te.co_seq_dim_equipe`)

	case CohortDiagnosis:
		query = db.NewQuery(personFrom, personCols+", dx.anchor")
		query.Join(linkedTeamJoin)
		query.Join(`JOIN LATERAL (
			SELECT MIN(t.dt_registro) AS anchor
			FROM tb_fat_atendimento_individual ai
			JOIN tb_dim_tempo t ON ai.co_dim_tempo = t.co_seq_dim_tempo
			WHERE ai.co_fat_cidadao_pec = pec.co_seq_fat_cidadao_pec
			  AND t.dt_registro <= ?
			  AND (ai.ds_filtro_ciaps ~* ? OR ai.ds_filtro_cids ~* ?)
			HAVING COUNT(*) > 0) dx ON TRUE`,
			ref, c.CIAP.PrefixPattern(), c.CID.PrefixPattern())

	default:
		query = db.NewQuery(personFrom, personCols+", c.dt_nascimento")
		query.Join(linkedTeamJoin)
	}

	query.WhereIf(c.RequireActive, "c.st_ativo = 1 AND COALESCE(c.st_faleceu, 0) = 0")
	query.WhereIf(c.LinkedOnly, "te.no_equipe IS NOT NULL AND TRIM(te.no_equipe) <> ''")
	query.WhereIf(c.Sex != "", "UPPER(c.no_sexo) = ?", strings.ToUpper(c.Sex))
	if c.AgeBounded() {
		query.Where("c.dt_nascimento <= ?", ref)
	}
	query.WhereIf(c.MaxAgeDays > 0, "(?::date - c.dt_nascimento) <= ?", ref, c.MaxAgeDays)
	query.WhereIf(c.MinAgeYears > 0, "EXTRACT(YEAR FROM age(?::date, c.dt_nascimento)) >= ?", ref, c.MinAgeYears)
	query.WhereIf(c.MaxAgeYears > 0, "EXTRACT(YEAR FROM age(?::date, c.dt_nascimento)) <= ?", ref, c.MaxAgeYears)

	if team := strings.TrimSpace(q.Filter.Team); team != "" {
		query.Where("(TRIM(te.nu_ine::text) = ? OR TRIM(te.no_equipe) = ?)", team, team)
	}
	if sub := strings.TrimSpace(q.Filter.Subarea); sub != "" {
		query.Where(`EXISTS (SELECT 1 FROM tb_fat_cidadao_territorio tt
			WHERE tt.co_fat_cidadao_pec = pec.co_seq_fat_cidadao_pec
			  AND LTRIM(TRIM(tt.nu_micro_area::text), '0') = LTRIM(?, '0'))`, sub)
	}
	query.OrderBy("c.no_cidadao, pec.co_seq_fat_cidadao_pec")
	return query
}

func (r *StorePG) Cohort(ctx context.Context, q CohortQuery) ([]Member, int, error) {
	query := cohortQuery(q)

	var total int
	if err := r.conn(ctx).QueryRow(ctx, query.CountSQL(), query.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count cohort: %w", err)
	}
	if total == 0 {
		return nil, 0, nil
	}

	rows, err := r.conn(ctx).Query(ctx, query.DataSQL(q.Limit, q.Offset), query.DataArgs(q.Limit, q.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("select cohort: %w", err)
	}
	defer rows.Close()
	var members []Member
	for rows.Next() {
		var anchor *time.Time
		p, err := scanPerson(rows, &anchor)
		if err != nil {
			return nil, 0, fmt.Errorf("scan cohort member: %w", err)
		}
		m := Member{Person: *p}
		if anchor != nil {
			m.Anchor = Day(*anchor)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("select cohort: %w", err)
	}
	return members, total, nil
}

func (r *StorePG) Person(ctx context.Context, key int64) (*Person, error) {
	q := db.NewQuery(personFrom, personCols).Join(linkedTeamJoin)
	q.Where("pec.co_seq_fat_cidadao_pec = ?", key)
	p, err := scanPerson(r.conn(ctx).QueryRow(ctx, q.SQL(), q.Args()...), nil)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get person %d: %w", key, err)
	}
	return p, nil
}

// eventSource maps an event kind onto its fact table. Every source selects
// the same column layout so one scanner serves them all.
type eventSource struct {
	from   string
	person string
	cols   string
}

var eventSources = map[EventKind]eventSource{
	KindConsultation: {
		from: `tb_fat_atendimento_individual ai
			JOIN tb_dim_tempo t ON ai.co_dim_tempo = t.co_seq_dim_tempo
			LEFT JOIN tb_dim_cbo cbo ON ai.co_dim_cbo_1 = cbo.co_seq_dim_cbo
			LEFT JOIN tb_dim_equipe te ON ai.co_dim_equipe_1 = te.co_seq_dim_equipe
			LEFT JOIN tb_dim_tipo_atendimento ta ON ai.co_dim_tipo_atendimento = ta.co_seq_dim_tipo_atendimento`,
		person: "ai.co_fat_cidadao_pec",
		cols: `ai.co_fat_cidadao_pec, t.dt_registro, COALESCE(cbo.nu_cbo, ''), COALESCE(TRIM(te.no_equipe), ''),
			COALESCE(ai.nu_pressao_sistolica, 0)::float8, COALESCE(ai.nu_peso, 0)::float8, COALESCE(ai.nu_altura, 0)::float8,
			COALESCE(ai.nu_idade_gestacional_semanas, 0)::int,
			COALESCE(ai.ds_filtro_ciaps, '') || '|' || COALESCE(ai.ds_filtro_cids, ''),
			COALESCE(UPPER(TRIM(ta.ds_tipo_atendimento)), ''), '', ''`,
	},
	KindHomeVisit: {
		from: `tb_fat_visita_domiciliar vd
			JOIN tb_dim_tempo t ON vd.co_dim_tempo = t.co_seq_dim_tempo
			LEFT JOIN tb_dim_cbo cbo ON vd.co_dim_cbo = cbo.co_seq_dim_cbo
			LEFT JOIN tb_dim_equipe te ON vd.co_dim_equipe = te.co_seq_dim_equipe`,
		person: "vd.co_fat_cidadao_pec",
		cols: `vd.co_fat_cidadao_pec, t.dt_registro, COALESCE(cbo.nu_cbo, ''), COALESCE(TRIM(te.no_equipe), ''),
			0::float8, COALESCE(vd.nu_peso, 0)::float8, COALESCE(vd.nu_altura, 0)::float8,
			0, '', '', '', ''`,
	},
	KindVaccination: {
		from: `tb_fat_vacinacao vac
			JOIN tb_dim_tempo t ON vac.co_dim_tempo = t.co_seq_dim_tempo
			LEFT JOIN tb_dim_equipe te ON vac.co_dim_equipe = te.co_seq_dim_equipe`,
		person: "vac.co_fat_cidadao_pec",
		cols: `vac.co_fat_cidadao_pec, t.dt_registro, '', COALESCE(TRIM(te.no_equipe), ''),
			0::float8, 0::float8, 0::float8, 0, '', '',
			COALESCE(vac.ds_filtro_imunobiologico, ''), COALESCE(vac.nu_dose::text, '')`,
	},
	KindProcedure: {
		from: `tb_fat_proced_atend pa
			JOIN tb_dim_tempo t ON pa.co_dim_tempo = t.co_seq_dim_tempo
			LEFT JOIN tb_dim_cbo cbo ON pa.co_dim_cbo = cbo.co_seq_dim_cbo
			LEFT JOIN tb_dim_equipe te ON pa.co_dim_equipe = te.co_seq_dim_equipe`,
		person: "pa.co_fat_cidadao_pec",
		cols: `pa.co_fat_cidadao_pec, t.dt_registro, COALESCE(cbo.nu_cbo, ''), COALESCE(TRIM(te.no_equipe), ''),
			0::float8, 0::float8, 0::float8, 0, '', '',
			COALESCE(pa.ds_filtro_procedimento, ''), ''`,
	},
	KindDentalVisit: {
		from: `tb_fat_atendimento_odonto ao
			JOIN tb_dim_tempo t ON ao.co_dim_tempo = t.co_seq_dim_tempo
			LEFT JOIN tb_dim_cbo cbo ON ao.co_dim_cbo_1 = cbo.co_seq_dim_cbo
			LEFT JOIN tb_dim_equipe te ON ao.co_dim_equipe_1 = te.co_seq_dim_equipe`,
		person: "ao.co_fat_cidadao_pec",
		cols: `ao.co_fat_cidadao_pec, t.dt_registro, COALESCE(cbo.nu_cbo, ''), COALESCE(TRIM(te.no_equipe), ''),
			0::float8, 0::float8, 0::float8, 0, '', '', '', ''`,
	},
}

func eventQuery(kind EventKind, keys []int64, from, to time.Time) (*db.Query, error) {
	src, ok := eventSources[kind]
	if !ok {
		return nil, fmt.Errorf("no event source for kind %q", kind)
	}
	q := db.NewQuery(src.from, src.cols)
	q.Where(src.person+" = ANY(?)", keys)
	q.Where("t.dt_registro <= ?", Day(to))
	q.WhereIf(!from.IsZero(), "t.dt_registro >= ?", Day(from))
	q.OrderBy(src.person + ", t.dt_registro")
	return q, nil
}

func (r *StorePG) Events(ctx context.Context, kind EventKind, keys []int64, from, to time.Time) ([]Event, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	q, err := eventQuery(kind, keys, from, to)
	if err != nil {
		return nil, err
	}
	rows, err := r.conn(ctx).Query(ctx, q.SQL(), q.Args()...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", kind, err)
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		e := Event{Kind: kind}
		if err := rows.Scan(&e.Person, &e.Date, &e.RoleCode, &e.Team,
			&e.Systolic, &e.Weight, &e.Height, &e.GestationalWeeks,
			&e.Diagnoses, &e.CareType, &e.Codes, &e.Dose); err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		e.Date = Day(e.Date)
		out = append(out, e)
	}
	return out, rows.Err()
}
