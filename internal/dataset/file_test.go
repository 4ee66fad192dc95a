package dataset_test

import (
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Flaque/filet"
	"github.com/UnknownOlympus/hermes/internal/dataset"
	"github.com/UnknownOlympus/hermes/internal/metrics"
	"github.com/UnknownOlympus/hermes/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSource_Load(t *testing.T) {
	defer filet.CleanUp(t)
	logger := slog.Default()
	ctx := t.Context()

	t.Run("reads the default field mapping", func(t *testing.T) {
		content := "1,Berlin,10115,Berlin\n2,München,80331,Bayern,extra\n"
		file := filet.TmpFile(t, "", content)

		source := dataset.NewFileSource(file.Name(), dataset.DefaultFieldMapping, logger, nil)
		keys, err := source.Load(ctx)

		require.NoError(t, err)
		assert.Equal(t, models.NewKeySet(
			models.Address{PostalCode: "10115", Locality: "Berlin", Region: "Berlin"},
			models.Address{PostalCode: "80331", Locality: "München", Region: "Bayern"},
		), keys)
	})

	t.Run("malformed line is skipped and later lines are loaded", func(t *testing.T) {
		content := "1,Berlin,10115,Berlin\nbroken,line\n3,Hamburg,20095,Hamburg\n"
		file := filet.TmpFile(t, "", content)
		reg := prometheus.NewRegistry()
		appMetrics := metrics.NewMetrics(reg)

		source := dataset.NewFileSource(file.Name(), dataset.DefaultFieldMapping, logger, appMetrics)
		keys, err := source.Load(ctx)

		require.NoError(t, err)
		assert.Equal(t, []string{"10115", "20095"}, keys.PostalCodes())
		assert.InDelta(t, 1, testutil.ToFloat64(appMetrics.MalformedLines), 0)
	})

	t.Run("duplicates collapse by full value only", func(t *testing.T) {
		content := strings.Join([]string{
			"1,Berlin,10115,Berlin",
			"2,Berlin,10115,Berlin",
			"3,Berlin Mitte,10115,Berlin",
		}, "\n")
		file := filet.TmpFile(t, "", content)

		source := dataset.NewFileSource(file.Name(), dataset.DefaultFieldMapping, logger, nil)
		keys, err := source.Load(ctx)

		require.NoError(t, err)
		assert.Equal(t, 2, keys.Len())
		assert.Equal(t, []string{"10115"}, keys.PostalCodes())
	})

	t.Run("blank lines, BOM and CRLF are tolerated", func(t *testing.T) {
		content := "\uFEFF1,Berlin,10115,Berlin\r\n\r\n2, München ,80331,Bayern\r\n"
		file := filet.TmpFile(t, "", content)

		source := dataset.NewFileSource(file.Name(), dataset.DefaultFieldMapping, logger, nil)
		keys, err := source.Load(ctx)

		require.NoError(t, err)
		assert.Equal(t, models.NewKeySet(
			models.Address{PostalCode: "10115", Locality: "Berlin", Region: "Berlin"},
			models.Address{PostalCode: "80331", Locality: "München", Region: "Bayern"},
		), keys)
	})

	t.Run("empty postal code is skipped", func(t *testing.T) {
		file := filet.TmpFile(t, "", "1,Berlin, ,Berlin\n2,Hamburg,20095,Hamburg\n")

		source := dataset.NewFileSource(file.Name(), dataset.DefaultFieldMapping, logger, nil)
		keys, err := source.Load(ctx)

		require.NoError(t, err)
		assert.Equal(t, []string{"20095"}, keys.PostalCodes())
	})

	t.Run("custom field mapping", func(t *testing.T) {
		file := filet.TmpFile(t, "", "10115,Berlin,Berlin\n")
		mapping := dataset.FieldMapping{Key: 0, Locality: 1, Region: 2}

		source := dataset.NewFileSource(file.Name(), mapping, logger, nil)
		keys, err := source.Load(ctx)

		require.NoError(t, err)
		assert.Equal(t, models.NewKeySet(
			models.Address{PostalCode: "10115", Locality: "Berlin", Region: "Berlin"},
		), keys)
	})

	t.Run("overlong line is skipped and later lines are loaded", func(t *testing.T) {
		longLine := "x," + strings.Repeat("a", 70000) + ",99999,R"
		content := "x,Berlin,10115,Berlin\n" + longLine + "\nx,München,80331,Bayern\n"
		file := filet.TmpFile(t, "", content)
		reg := prometheus.NewRegistry()
		appMetrics := metrics.NewMetrics(reg)

		source := dataset.NewFileSource(file.Name(), dataset.DefaultFieldMapping, logger, appMetrics)
		keys, err := source.Load(ctx)

		require.NoError(t, err)
		assert.Equal(t, []string{"10115", "80331"}, keys.PostalCodes())
		assert.InDelta(t, 1, testutil.ToFloat64(appMetrics.MalformedLines), 0)
	})

	t.Run("overlong last line without newline", func(t *testing.T) {
		content := "x,Berlin,10115,Berlin\n" + strings.Repeat("9", 70*1024)
		file := filet.TmpFile(t, "", content)

		source := dataset.NewFileSource(file.Name(), dataset.DefaultFieldMapping, logger, nil)
		keys, err := source.Load(ctx)

		require.NoError(t, err)
		assert.Equal(t, []string{"10115"}, keys.PostalCodes())
	})

	t.Run("last line without newline is loaded", func(t *testing.T) {
		file := filet.TmpFile(t, "", "x,Berlin,10115,Berlin\nx,Hamburg,20095,Hamburg")

		source := dataset.NewFileSource(file.Name(), dataset.DefaultFieldMapping, logger, nil)
		keys, err := source.Load(ctx)

		require.NoError(t, err)
		assert.Equal(t, []string{"10115", "20095"}, keys.PostalCodes())
	})

	t.Run("missing file is an error", func(t *testing.T) {
		dir := filet.TmpDir(t, "")
		source := dataset.NewFileSource(filepath.Join(dir, "missing.csv"), dataset.DefaultFieldMapping, logger, nil)

		keys, err := source.Load(ctx)

		require.Error(t, err)
		assert.Nil(t, keys)
		assert.Contains(t, err.Error(), "failed to open dataset")
	})
}

func TestParseFieldMapping(t *testing.T) {
	t.Parallel()

	t.Run("default order", func(t *testing.T) {
		t.Parallel()
		mapping, err := dataset.ParseFieldMapping("2,1,3")

		require.NoError(t, err)
		assert.Equal(t, dataset.DefaultFieldMapping, mapping)
		assert.Equal(t, 4, mapping.MinFields())
	})

	t.Run("spaces are ignored", func(t *testing.T) {
		t.Parallel()
		mapping, err := dataset.ParseFieldMapping(" 0, 5 ,1")

		require.NoError(t, err)
		assert.Equal(t, dataset.FieldMapping{Key: 0, Locality: 5, Region: 1}, mapping)
		assert.Equal(t, 6, mapping.MinFields())
	})

	t.Run("wrong number of indices", func(t *testing.T) {
		t.Parallel()
		_, err := dataset.ParseFieldMapping("2,1")

		require.ErrorIs(t, err, dataset.ErrInvalidFieldMapping)
	})

	t.Run("not a number", func(t *testing.T) {
		t.Parallel()
		_, err := dataset.ParseFieldMapping("2,x,3")

		require.ErrorIs(t, err, dataset.ErrInvalidFieldMapping)
	})

	t.Run("negative index", func(t *testing.T) {
		t.Parallel()
		_, err := dataset.ParseFieldMapping("2,-1,3")

		require.ErrorIs(t, err, dataset.ErrInvalidFieldMapping)
	})
}
