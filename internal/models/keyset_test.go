package models_test

import (
	"testing"

	"github.com/UnknownOlympus/hermes/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestKeySet(t *testing.T) {
	t.Parallel()

	t.Run("collapses exact duplicates only", func(t *testing.T) {
		t.Parallel()
		set := models.NewKeySet(
			models.Address{PostalCode: "10115", Locality: "Berlin", Region: "Berlin"},
			models.Address{PostalCode: "10115", Locality: "Berlin", Region: "Berlin"},
			models.Address{PostalCode: "10115", Locality: "Berlin Mitte", Region: "Berlin"},
		)

		assert.Equal(t, 2, set.Len())
	})

	t.Run("add reports whether the address is new", func(t *testing.T) {
		t.Parallel()
		set := models.NewKeySet()
		addr := models.Address{PostalCode: "80331", Locality: "München", Region: "Bayern"}

		assert.True(t, set.Add(addr))
		assert.False(t, set.Add(addr))
	})

	t.Run("postal codes are distinct and sorted", func(t *testing.T) {
		t.Parallel()
		set := models.NewKeySet(
			models.Address{PostalCode: "80331", Locality: "München"},
			models.Address{PostalCode: "10115", Locality: "Berlin"},
			models.Address{PostalCode: "10115", Locality: "Berlin Mitte"},
		)

		assert.Equal(t, []string{"10115", "80331"}, set.PostalCodes())
	})

	t.Run("empty set has no postal codes", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, models.NewKeySet().PostalCodes())
	})
}

func TestAddressCompare(t *testing.T) {
	t.Parallel()
	berlin := models.Address{PostalCode: "10115", Locality: "Berlin", Region: "Berlin"}
	munich := models.Address{PostalCode: "80331", Locality: "München", Region: "Bayern"}

	assert.Equal(t, -1, berlin.Compare(munich))
	assert.Equal(t, 1, munich.Compare(berlin))
	assert.Equal(t, 0, berlin.Compare(berlin))
	assert.Equal(t, -1, berlin.Compare(models.Address{PostalCode: "10115", Locality: "Berlin", Region: "Brandenburg"}))
}
