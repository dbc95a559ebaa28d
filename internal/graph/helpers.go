package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// recordString reads a string column. Null, missing and mistyped values read as "".
func recordString(record *neo4j.Record, key string) string {
	v, _, err := neo4j.GetRecordValue[string](record, key)
	if err != nil {
		return ""
	}
	return v
}

// recordInt reads an integer column. Bolt integers arrive as int64.
func recordInt(record *neo4j.Record, key string) int {
	v, _, err := neo4j.GetRecordValue[int64](record, key)
	if err != nil {
		return 0
	}
	return int(v)
}

// collectRows maps every remaining row of result with fn
func collectRows[T any](ctx context.Context, result neo4j.ResultWithContext, fn func(*neo4j.Record) T) ([]T, error) {
	rows := []T{}
	for result.Next(ctx) {
		rows = append(rows, fn(result.Record()))
	}
	return rows, result.Err()
}
