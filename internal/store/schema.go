package store

import (
	"context"
	"fmt"
	"strings"

	entsql "entgo.io/ent/dialect/sql"
)

// Table names.
const (
	tableSequence      = "global_sequence"
	tableContent       = "content"
	tableSkills        = "skills"
	tablePrerequisites = "skill_prerequisites"
	tableMastery       = "student_mastery"
	tableAttempts      = "attempts"
	tableGaps          = "skill_gaps"
	tableQValues       = "q_values"
	tableSnapshots     = "qtable_snapshots"
	tableBandit        = "format_bandit"
)

// Column types understood by both SQLite and Postgres.
const (
	typeInt   = "bigint"
	typeText  = "text"
	typeFloat = "double precision"
	typeBool  = "boolean"

	notNull = "NOT NULL"
)

type columnDef struct {
	name  string
	typ   string
	attrs []string
}

type indexDef struct {
	name    string
	unique  bool
	columns []string
}

type tableDef struct {
	name    string
	columns []columnDef
	primary []string
	indexes []indexDef
}

func col(name, typ string, attrs ...string) columnDef {
	return columnDef{name: name, typ: typ, attrs: attrs}
}

// tables is the full schema. Timestamps are stored as unix microseconds.
var tables = []tableDef{
	{
		name: tableSequence,
		columns: []columnDef{
			col("id", typeInt, notNull),
			col("next_val", typeInt, notNull, "DEFAULT 1"),
		},
		primary: []string{"id"},
	},
	{
		name: tableContent,
		columns: []columnDef{
			col("id", typeInt, notNull),
			col("topic", typeText, notNull),
			col("difficulty", typeInt, notNull),
			col("correct_answer", typeText, notNull),
			col("format", typeText, notNull, "DEFAULT ''"),
			col("skill_id", typeText, notNull, "DEFAULT ''"),
			col("prompt", typeText, notNull, "DEFAULT ''"),
		},
		primary: []string{"id"},
		indexes: []indexDef{
			{name: "content_skill_id", columns: []string{"skill_id"}},
			{name: "content_topic", columns: []string{"topic"}},
		},
	},
	{
		name: tableSkills,
		columns: []columnDef{
			col("id", typeText, notNull),
			col("name", typeText, notNull),
			col("description", typeText, notNull, "DEFAULT ''"),
			col("category", typeText, notNull),
			col("topic", typeText, notNull),
			col("tier", typeText, notNull),
			col("estimated_hours", typeFloat, notNull),
		},
		primary: []string{"id"},
	},
	{
		name: tablePrerequisites,
		columns: []columnDef{
			col("skill_id", typeText, notNull),
			col("prerequisite_id", typeText, notNull),
			col("position", typeInt, notNull),
		},
		primary: []string{"skill_id", "prerequisite_id"},
	},
	{
		name: tableMastery,
		columns: []columnDef{
			col("student_id", typeText, notNull),
			col("skill_id", typeText, notNull),
			col("level", typeInt, notNull),
			col("total_attempts", typeInt, notNull),
			col("correct_attempts", typeInt, notNull),
			col("total_practice_secs", typeFloat, notNull),
			col("placement_level", typeInt, notNull, "DEFAULT 0"),
			col("last_assessed_at", typeInt, notNull),
			col("mastered_at", typeInt),
			col("version", typeInt, notNull),
		},
		primary: []string{"student_id", "skill_id"},
	},
	{
		name: tableAttempts,
		columns: []columnDef{
			col("id", typeText, notNull),
			col("sequence", typeInt, notNull),
			col("student_id", typeText, notNull),
			col("content_id", typeInt, notNull),
			col("skill_id", typeText, notNull, "DEFAULT ''"),
			col("topic", typeText, notNull),
			col("difficulty", typeInt, notNull),
			col("correct", typeBool, notNull),
			col("time_spent", typeFloat, notNull),
			col("pre_state", typeText, notNull),
			col("action", typeInt, notNull),
			col("reward", typeFloat, notNull),
			col("post_state", typeText, notNull),
			col("created_at", typeInt, notNull),
		},
		primary: []string{"id"},
		indexes: []indexDef{
			{name: "attempts_sequence", unique: true, columns: []string{"sequence"}},
			{name: "attempts_student_sequence", columns: []string{"student_id", "sequence"}},
		},
	},
	{
		name: tableGaps,
		columns: []columnDef{
			col("id", typeInt, notNull),
			col("student_id", typeText, notNull),
			col("topic", typeText, notNull),
			col("proficiency_level", typeFloat, notNull),
			col("target_level", typeFloat, notNull),
			col("severity", typeText, notNull),
			col("priority", typeInt, notNull),
			col("estimated_hours", typeFloat, notNull),
			col("progress_percentage", typeFloat, notNull, "DEFAULT 0"),
			col("addressed", typeBool, notNull, "DEFAULT FALSE"),
			col("assessed_at", typeInt, notNull),
		},
		primary: []string{"id"},
		indexes: []indexDef{
			{name: "skill_gaps_student_topic", unique: true, columns: []string{"student_id", "topic"}},
		},
	},
	{
		name: tableQValues,
		columns: []columnDef{
			col("state", typeInt, notNull),
			col("action", typeInt, notNull),
			col("value", typeFloat, notNull),
			col("updated_at", typeInt, notNull),
		},
		primary: []string{"state", "action"},
	},
	{
		name: tableBandit,
		columns: []columnDef{
			col("student_id", typeText, notNull),
			col("format", typeText, notNull),
			col("pulls", typeInt, notNull),
			col("total_reward", typeFloat, notNull),
			col("updated_at", typeInt, notNull),
		},
		primary: []string{"student_id", "format"},
	},
	{
		name: tableSnapshots,
		columns: []columnDef{
			col("id", typeInt, notNull),
			col("created_at", typeInt, notNull),
			col("data", typeText, notNull),
		},
		primary: []string{"id"},
	},
}

// createTable renders CREATE TABLE IF NOT EXISTS with identifiers quoted
// for the store's dialect.
func createTable(d *entsql.DialectBuilder, t tableDef) string {
	return d.String(func(b *entsql.Builder) {
		b.WriteString("CREATE TABLE IF NOT EXISTS ").Ident(t.name).Pad()
		b.Wrap(func(b *entsql.Builder) {
			for i, c := range t.columns {
				if i > 0 {
					b.Comma()
				}
				b.Ident(c.name).Pad().WriteString(c.typ)
				if len(c.attrs) > 0 {
					b.Pad().WriteString(strings.Join(c.attrs, " "))
				}
			}
			b.Comma().WriteString("PRIMARY KEY ")
			b.Wrap(func(b *entsql.Builder) { b.IdentComma(t.primary...) })
		})
	})
}

func createIndex(d *entsql.DialectBuilder, tbl string, idx indexDef) string {
	return d.String(func(b *entsql.Builder) {
		b.WriteString("CREATE ")
		if idx.unique {
			b.WriteString("UNIQUE ")
		}
		b.WriteString("INDEX IF NOT EXISTS ").Ident(idx.name).WriteString(" ON ").Ident(tbl).Pad()
		b.Wrap(func(b *entsql.Builder) { b.IdentComma(idx.columns...) })
	})
}

// migrate creates missing tables and indexes.
func (s *Store) migrate(ctx context.Context) error {
	d := s.builder()
	var stmts []string
	for _, t := range tables {
		stmts = append(stmts, createTable(d, t))
		for _, idx := range t.indexes {
			stmts = append(stmts, createIndex(d, t.name, idx))
		}
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("%s: %w", q, err)
		}
	}
	return nil
}
