// Package testutil provides shared test helpers for the exprql packages.
package testutil

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bawdo/exprql/internal/quoting"
)

// AssertSQL checks that the rendered SQL matches want exactly.
func AssertSQL(t testing.TB, got, want string) {
	t.Helper()
	assert.Equal(t, want, got, "rendered SQL differs")
}

// AssertNoError fails the test immediately if err is non-nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	require.NoError(t, err)
}

// AssertErrorIs fails the test unless err matches target.
func AssertErrorIs(t testing.TB, err, target error) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, target)
}

// AssertParity checks that sql carries exactly n bind markers. marker is
// "?" for positional dialects or the prefix of numbered markers such as
// "$", ":" or "@p".
func AssertParity(t testing.TB, sql, marker string, n int) {
	t.Helper()
	assert.Equal(t, n, CountPlaceholders(sql, marker), "placeholders in %q", sql)
}

// CountPlaceholders counts bind markers outside quoted text.
func CountPlaceholders(sql, marker string) int {
	count := 0
	for i := 0; i < len(sql); {
		if j := quoting.SkipQuoted(sql, i); j > i {
			i = j
			continue
		}
		if strings.HasPrefix(sql[i:], marker) {
			end := i + len(marker)
			if marker == "?" {
				count++
				i = end
				continue
			}
			if end < len(sql) && sql[end] >= '0' && sql[end] <= '9' {
				count++
				for end < len(sql) && sql[end] >= '0' && sql[end] <= '9' {
					end++
				}
				i = end
				continue
			}
		}
		i++
	}
	return count
}

// Golden returns a goldie instance reading fixtures from testdata/golden
// with a .sql suffix.
func Golden(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".sql"),
	)
}
