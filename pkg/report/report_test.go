package report

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollectorRecordsAndRendersMarkdown(t *testing.T) {
	c := NewCollector()
	c.Report("collection-1", errors.New("boom"))
	c.Report("collection-2", errors.New("kaboom"))

	assert.Equal(t, 2, c.Len())
	md := c.Markdown()
	assert.Contains(t, md, "collection-1")
	assert.Contains(t, md, "boom")
}

func TestMultiFansOutToEverySink(t *testing.T) {
	a, b := NewCollector(), NewCollector()
	m := Multi{a, b}
	m.Report("r", errors.New("x"))

	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 1, b.Len())
}
