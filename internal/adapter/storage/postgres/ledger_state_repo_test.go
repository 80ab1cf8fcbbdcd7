package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerStateRepo_Get(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerStateRepo(mock)
	s := newTestLedgerState()

	mock.ExpectQuery("SELECT .+ FROM ledger_state WHERE id = 1").
		WillReturnRows(ledgerStateRow(s))

	result, err := repo.Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, ownerAddr, result.Owner)
	assert.True(t, s.TotalBalance.Equal(result.TotalBalance))
	assert.Equal(t, uint64(2), result.NextProposalID)
	assert.Equal(t, "abc123", result.LastEventHash)
	assert.Equal(t, uint64(5), result.EventCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerStateRepo_Get_NotInitialized(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerStateRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM ledger_state").
		WillReturnRows(pgxmock.NewRows([]string{
			"owner", "total_balance", "next_proposal_id", "last_event_hash", "event_count", "created_at", "updated_at",
		}))

	result, err := repo.Get(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerStateRepo_GetForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerStateRepo(mock)
	s := newTestLedgerState()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM ledger_state WHERE id = 1 FOR UPDATE").
		WillReturnRows(ledgerStateRow(s))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetForUpdate(context.Background(), tx)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, s.Owner, result.Owner)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerStateRepo_GetForUpdate_QueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerStateRepo(mock)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM ledger_state .+ FOR UPDATE").
		WillReturnError(errors.New("lock timeout"))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	_, err = repo.GetForUpdate(context.Background(), tx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get ledger state for update")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerStateRepo_Init(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerStateRepo(mock)
	s := newTestLedgerState()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO ledger_state .+ ON CONFLICT \\(id\\) DO NOTHING").
		WithArgs(s.Owner, s.TotalBalance.String(), s.NextProposalID,
			s.LastEventHash, s.EventCount, s.CreatedAt, s.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	assert.NoError(t, repo.Init(context.Background(), tx, s))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerStateRepo_Init_AlreadyInitialized(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerStateRepo(mock)
	s := newTestLedgerState()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO ledger_state").
		WithArgs(s.Owner, s.TotalBalance.String(), s.NextProposalID,
			s.LastEventHash, s.EventCount, s.CreatedAt, s.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Init(context.Background(), tx, s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already initialized")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerStateRepo_Update(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerStateRepo(mock)
	s := newTestLedgerState()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE ledger_state SET total_balance").
		WithArgs(s.TotalBalance.String(), s.NextProposalID, s.LastEventHash, s.EventCount, s.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	assert.NoError(t, repo.Update(context.Background(), tx, s))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerStateRepo_Update_Missing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerStateRepo(mock)
	s := newTestLedgerState()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE ledger_state").
		WithArgs(s.TotalBalance.String(), s.NextProposalID, s.LastEventHash, s.EventCount, s.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Update(context.Background(), tx, s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledger state not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}
