package repository_test

import (
	"log/slog"
	"regexp"
	"testing"

	"github.com/UnknownOlympus/hermes/internal/models"
	"github.com/UnknownOlympus/hermes/internal/repository"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fetchPostalCodesQuery = `
		SELECT postal_code, COALESCE(locality, ''), COALESCE(region, '')
		FROM public.postal_codes
		WHERE postal_code IS NOT NULL AND postal_code <> ''
		ORDER BY postal_code ASC
		LIMIT $1;
	`

var postalCodeColumns = []string{"postal_code", "locality", "region"}

func TestFetchPostalCodes(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()
	limit := 10

	t.Run("error - query postal codes", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(fetchPostalCodesQuery)).
			WithArgs(limit).
			WillReturnError(assert.AnError)

		addresses, err := repo.FetchPostalCodes(ctx, limit)

		require.Nil(t, addresses)
		require.Error(t, err)
		require.ErrorContains(t, err, "failed to query postal codes")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - scan postal code", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(fetchPostalCodesQuery)).
			WithArgs(limit).
			WillReturnRows(
				pgxmock.NewRows([]string{"postal_code", "locality"}).AddRow("10115", "Berlin"),
			)

		addresses, err := repo.FetchPostalCodes(ctx, limit)

		require.Nil(t, addresses)
		require.Error(t, err)
		require.ErrorContains(t, err, "failed to scan postal code")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - rows error", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(fetchPostalCodesQuery)).
			WithArgs(limit).
			WillReturnRows(
				pgxmock.NewRows(postalCodeColumns).AddRow("10115", "Berlin", "Berlin").
					RowError(1, assert.AnError),
			)

		addresses, err := repo.FetchPostalCodes(ctx, limit)

		require.Nil(t, addresses)
		require.Error(t, err)
		require.ErrorContains(t, err, "failed to read row")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - fetch postal codes", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(fetchPostalCodesQuery)).
			WithArgs(limit).
			WillReturnRows(
				pgxmock.NewRows(postalCodeColumns).
					AddRow("10115", "Berlin", "Berlin").
					AddRow("80331", "München", "Bayern"),
			)

		addresses, err := repo.FetchPostalCodes(ctx, limit)

		require.NoError(t, err)
		assert.Equal(t, []models.Address{
			{PostalCode: "10115", Locality: "Berlin", Region: "Berlin"},
			{PostalCode: "80331", Locality: "München", Region: "Bayern"},
		}, addresses)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
