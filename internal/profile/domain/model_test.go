package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenderAndLayouts(t *testing.T) {
	g, err := Gender(1)
	assert.NoError(t, err)
	assert.Equal(t, "Female", g)

	_, err = Gender(2)
	assert.Error(t, err)

	ts := time.Date(2024, time.March, 5, 9, 7, 0, 0, time.UTC)
	assert.Equal(t, "2024 Mar 05", FormatBirthday(ts))
	assert.Equal(t, "2024 Mar 05 09:07", FormatFirstLogin(ts))
}
