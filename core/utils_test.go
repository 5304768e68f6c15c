package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/tutorhub/core"
)

func TestCleanString(t *testing.T) {
	assert.Equal(t, "Hello", core.CleanString("  Hello\t "))
	assert.Equal(t, "hello@test.cm", core.CleanString(" Hello@Test.cm ", true))
}

func TestMonthBounds(t *testing.T) {
	start, end, err := core.MonthBounds("2021-03")
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2021, 4, 1, 0, 0, 0, 0, time.UTC), end)

	// December rolls into the next year
	start, end, err = core.MonthBounds("2021-12")
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), end)
	assert.True(t, end.After(start))

	for _, period := range []string{"", "2021", "03-2021", "2021-13", "2021-0", "20xx-03"} {
		_, _, err = core.MonthBounds(period)
		assert.True(t, core.IsInvalidInput(err), period)
	}
}
