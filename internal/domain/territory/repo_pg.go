package territory

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/indicators/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(_ context.Context) queryable {
	return r.pool
}

func (r *repoPG) ListTeams(ctx context.Context) ([]Team, error) {
	q := db.NewQuery("tb_dim_equipe e", "DISTINCT COALESCE(TRIM(e.nu_ine::text), ''), TRIM(e.no_equipe)")
	q.Where("e.st_registro_valido = ?", 1)
	q.Where("e.no_equipe IS NOT NULL")
	q.Where("(e.no_equipe ILIKE ? OR e.no_equipe ILIKE ? OR e.no_equipe ILIKE ? OR e.no_equipe ILIKE ?)",
		"ESF%", "PSF%", "UBS%", "EAP%")
	q.OrderBy("2")

	rows, err := r.conn(ctx).Query(ctx, q.SQL(), q.Args()...)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()
	var teams []Team
	for rows.Next() {
		var t Team
		if err := rows.Scan(&t.Code, &t.Name); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (r *repoPG) ListSubareas(ctx context.Context, team string) ([]string, error) {
	var q *db.Query
	team = strings.TrimSpace(team)
	if team == "" {
		q = db.NewQuery("tb_fat_cidadao_territorio tt", "DISTINCT TRIM(tt.nu_micro_area::text)")
	} else {
		q = db.NewQuery(`tb_fat_cidadao_territorio tt
			JOIN tb_fat_cidadao_pec pec ON tt.co_fat_cidadao_pec = pec.co_seq_fat_cidadao_pec
			JOIN tb_dim_equipe te ON pec.co_dim_equipe_vinc = te.co_seq_dim_equipe`,
			"DISTINCT TRIM(tt.nu_micro_area::text)")
		if IsNumeric(team) {
			q.Where("TRIM(te.nu_ine::text) = ?", team)
		} else {
			q.Where("TRIM(te.no_equipe) = ?", team)
		}
	}
	q.Where("tt.nu_micro_area IS NOT NULL")
	q.OrderBy("1")

	rows, err := r.conn(ctx).Query(ctx, q.SQL(), q.Args()...)
	if err != nil {
		return nil, fmt.Errorf("list subareas: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan subarea: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
