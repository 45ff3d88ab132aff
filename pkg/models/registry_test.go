package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionDescriptorIdentityPath(t *testing.T) {
	d := CollectionDescriptor{
		Body: "Mars", HostID: "VO1", InstrumentID: "VISA", ProductType: "EDR", DatasetID: "VO1/VO2-M-VIS-2-EDR-V2.0",
	}
	assert.Equal(t, "mars/vo1/visa/edr/vo1_vo2_m_vis_2_edr_v2_0", d.IdentityPath())
}

func TestCollectionDescriptorValidate(t *testing.T) {
	d := CollectionDescriptor{ProductCount: 0, HasValidFootprints: true}
	require.Error(t, d.Validate())

	d.ProductCount = 10
	d.HasValidFootprints = false
	require.Error(t, d.Validate())

	d.HasValidFootprints = true
	require.NoError(t, d.Validate())
}

func TestNewCollectionDescriptorFromIIPTSet(t *testing.T) {
	raw := IIPTSet{
		IHID: "VO1", IID: "VISA", PT: "EDR", DataSetID: "VO1/VO2-M-VIS-2-EDR-V2.0",
		NumberProducts:    "1234",
		HasValidFootprint: "TRUE",
		MinOrbit:          "10",
		MaxOrbit:          "",
	}
	d := NewCollectionDescriptorFromIIPTSet("mars", raw)
	assert.Equal(t, "mars", d.Body)
	assert.Equal(t, 1234, d.ProductCount)
	assert.True(t, d.HasValidFootprints)
	require.NotNil(t, d.MinOrbit)
	assert.Equal(t, 10, *d.MinOrbit)
	assert.Nil(t, d.MaxOrbit)
}
