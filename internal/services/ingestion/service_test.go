package ingestion

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"trade-reconciliation-backend/internal/models"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: conn, PreferSimpleProtocol: true}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestCreateBatchPersistsProcessingState(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "ingest_batches"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	svc := NewIngestionService(db, nil, time.UTC)
	batch, err := svc.CreateBatch(models.SourceExchange, "dropcopy.csv")

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, batch.ID)
	assert.Equal(t, BatchProcessing, batch.Status)
	assert.Equal(t, models.SourceExchange, batch.Source)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBatchReturnsInsertError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	svc := NewIngestionService(db, nil, time.UTC)
	batch, err := svc.CreateBatch(models.SourceBank, "fills.csv")

	require.Error(t, err)
	assert.Nil(t, batch, "no batch ID should be handed out when the insert fails")
	assert.NoError(t, mock.ExpectationsWereMet())
}
