package sqlite

import (
	"database/sql"
	"strings"
	"time"

	"intelligent-scheduler/internal/dispatch/repository"
)

const runColumns = `run_id, user_id, source, status, created_tasks, outcomes, error, created_at, started_at, finished_at`

// buildListQuery builds the WHERE + ORDER + LIMIT clause for ListRuns.
func (r *implRepository) buildListQuery(opt repository.ListRunsOptions) (string, []any) {
	var conditions []string
	var args []any

	if opt.UserID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, opt.UserID)
	}
	if len(opt.Statuses) > 0 {
		conditions = append(conditions, "status IN (?"+strings.Repeat(",?", len(opt.Statuses)-1)+")")
		for _, s := range opt.Statuses {
			args = append(args, string(s))
		}
	}

	where := "1=1"
	if len(conditions) > 0 {
		where = strings.Join(conditions, " AND ")
	}
	clause := where + " ORDER BY created_at ASC"
	if opt.Limit > 0 {
		clause += " LIMIT ?"
		args = append(args, opt.Limit)
	}
	return clause, args
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func toNullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func fromNullMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMillis(v.Int64)
	return &t
}
