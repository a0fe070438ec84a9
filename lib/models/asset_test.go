package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsset_ComputeAvailable(t *testing.T) {
	asset := Asset{
		Quantity:         100,
		ReservedQuantity: 30,
		DamagedCount:     5,
		MissingCount:     2,
	}

	assert.Equal(t, int64(63), asset.ComputeAvailable())

	asset.ReservedQuantity = 0
	assert.Equal(t, int64(93), asset.ComputeAvailable())
}
