package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	cases := []struct {
		in   string
		want ComplaintStatus
		ok   bool
	}{
		{"Pending", StatusPending, true},
		{"in progress", StatusInProgress, true},
		{"In Progress", StatusInProgress, true},
		{"InProgress", StatusInProgress, true},
		{" RESOLVED ", StatusResolved, true},
		{"Closed", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseStatus(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseCategory(t *testing.T) {
	c, ok := ParseCategory("plumbing")
	assert.True(t, ok)
	assert.Equal(t, CategoryPlumbing, c)

	_, ok = ParseCategory("Wifi")
	assert.False(t, ok)
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to ComplaintStatus
		ok       bool
	}{
		{StatusPending, StatusPending, true},
		{StatusPending, StatusInProgress, true},
		{StatusPending, StatusResolved, true},
		{StatusInProgress, StatusInProgress, true},
		{StatusInProgress, StatusResolved, true},
		{StatusInProgress, StatusPending, false},
		{StatusResolved, StatusPending, false},
		{StatusResolved, StatusInProgress, false},
		{StatusResolved, StatusResolved, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestAllowedFromIsACopy(t *testing.T) {
	from := AllowedFrom(StatusResolved)
	from[0] = StatusResolved
	assert.False(t, CanTransition(StatusResolved, StatusResolved))
}
