package agenttask

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSpecsOrder(t *testing.T) {
	specs := DefaultSpecs()

	require.Len(t, specs, 3)
	assert.Equal(t, SectionProduct, specs[0].Section)
	assert.Equal(t, SectionPrice, specs[1].Section)
	assert.Equal(t, SectionNews, specs[2].Section)

	for _, s := range specs {
		assert.NotEmpty(t, s.Goal)
	}
}
