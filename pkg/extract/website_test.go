package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCrawlerIsFile(t *testing.T) {
	c := &Crawler{}
	assert.True(t, c.IsFile("https://ode.rsl.wustl.edu/mars/vo1/VOLDESC.CAT"))
	assert.False(t, c.IsFile("https://ode.rsl.wustl.edu/mars/vo1/"))
	assert.False(t, c.IsFile("https://ode.rsl.wustl.edu/mars/vo1"))
}

func TestClassifyCatalogFile(t *testing.T) {
	cases := map[string]string{
		"MISSION.CAT":  "mission",
		"HOST.CAT":     "instrument_host",
		"INST.CAT":     "instrument",
		"DATASET.CAT":  "dataset",
		"REF.CAT":      "reference",
		"PERSON.CAT":   "personnel",
	}
	for name, want := range cases {
		got, ok := classifyCatalogFile(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
	_, ok := classifyCatalogFile("VOLDESC.CAT")
	assert.False(t, ok)
}

func TestFirstPathSegment(t *testing.T) {
	assert.Equal(t, "vo_1001", firstPathSegment("/vo_1001/catalog/mission.cat"))
	assert.Equal(t, "vo_1001", firstPathSegment("vo_1001/catalog/mission.cat"))
}

func TestNextVolumeIDGuess(t *testing.T) {
	assert.Equal(t, "vo_1001", nextVolumeIDGuess("VO_1001", 1))
	assert.Equal(t, "VO_1001", nextVolumeIDGuess("VO_1001", 2))
	assert.Equal(t, "VO_100", nextVolumeIDGuess("VO_1001", 3))
}
