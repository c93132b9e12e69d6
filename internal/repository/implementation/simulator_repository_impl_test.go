package implementation

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type capturedQuery struct {
	sql  string
	vars []interface{}
}

// dryRunDB builds statements without a server and records the last query.
func dryRunDB(t *testing.T) (*gorm.DB, *capturedQuery) {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost user=coach dbname=coach sslmode=disable"}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               gormlogger.Discard,
	})
	require.NoError(t, err)
	captured := &capturedQuery{}
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("test:capture", func(tx *gorm.DB) {
		captured.sql = tx.Statement.SQL.String()
		captured.vars = tx.Statement.Vars
	}))
	return db, captured
}

func TestSimulatorRepositories_Lookups(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	tests := []struct {
		name      string
		lookup    func(db *gorm.DB) error
		wantTable string
		wantWhere string
	}{
		{
			name: "profile by id",
			lookup: func(db *gorm.DB) error {
				_, err := NewSimProfileRepository(db).FindById(ctx, id)
				return err
			},
			wantTable: `"sim_profiles"`,
			wantWhere: "WHERE id = $1",
		},
		{
			name: "run by id",
			lookup: func(db *gorm.DB) error {
				_, err := NewSimulatorRunRepository(db).FindById(ctx, id)
				return err
			},
			wantTable: `"simulator_runs"`,
			wantWhere: "WHERE id = $1",
		},
		{
			name: "run by session",
			lookup: func(db *gorm.DB) error {
				_, err := NewSimulatorRunRepository(db).FindBySession(ctx, id)
				return err
			},
			wantTable: `"simulator_runs"`,
			wantWhere: "WHERE session_id = $1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, captured := dryRunDB(t)

			require.NoError(t, tt.lookup(db))

			assert.Contains(t, captured.sql, tt.wantTable)
			assert.Contains(t, captured.sql, tt.wantWhere)
			require.NotEmpty(t, captured.vars)
			assert.Equal(t, id, captured.vars[0])
		})
	}
}
