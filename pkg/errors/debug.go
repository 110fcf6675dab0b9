package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"
)

// ErrorDump flattens an error chain for structured logs. Backend fields are
// filled for whichever cart state driver produced the failure.
type ErrorDump struct {
	TopMessage string         `json:"top_message"`
	Code       Code           `json:"code,omitempty"`
	Details    map[string]any `json:"details,omitempty"`

	Chain []string `json:"chain,omitempty"`

	Backend string `json:"backend,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
	PGMessage    string `json:"pg_message,omitempty"`

	SQLiteCode     int `json:"sqlite_code,omitempty"`
	SQLiteExtended int `json:"sqlite_extended,omitempty"`

	RedisMessage string `json:"redis_message,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
		if details, ok := te.Details().(map[string]any); ok {
			d.Details = details
		}
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	switch {
	case dumpPostgres(err, &d):
		d.Backend = "postgres"
	case dumpSQLite(err, &d):
		d.Backend = "sqlite"
	case dumpRedis(err, &d):
		d.Backend = "redis"
	}
	return d
}

func dumpPostgres(err error, d *ErrorDump) bool {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		d.PGCode = pgxErr.Code
		d.PGConstraint = pgxErr.ConstraintName
		d.PGTable = pgxErr.TableName
		d.PGDetail = pgxErr.Detail
		d.PGMessage = pgxErr.Message
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		d.PGCode = string(pqErr.Code)
		d.PGConstraint = pqErr.Constraint
		d.PGTable = pqErr.Table
		d.PGDetail = pqErr.Detail
		d.PGMessage = pqErr.Message
		return true
	}
	return false
}

func dumpSQLite(err error, d *ErrorDump) bool {
	var liteErr sqlite3.Error
	if !errors.As(err, &liteErr) {
		return false
	}
	d.SQLiteCode = int(liteErr.Code)
	d.SQLiteExtended = int(liteErr.ExtendedCode)
	return true
}

func dumpRedis(err error, d *ErrorDump) bool {
	var redisErr redis.Error
	if !errors.As(err, &redisErr) {
		return false
	}
	d.RedisMessage = redisErr.Error()
	return true
}
