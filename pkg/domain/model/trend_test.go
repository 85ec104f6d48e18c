package model_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/clinboard/clinboard/pkg/domain/model"
)

func TestWeekStart(t *testing.T) {
	monday := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "monday maps to itself",
			in:   time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
			want: monday,
		},
		{
			name: "midweek maps back to monday",
			in:   time.Date(2025, 3, 12, 15, 30, 0, 0, time.UTC),
			want: monday,
		},
		{
			name: "sunday belongs to the preceding monday",
			in:   time.Date(2025, 3, 16, 23, 59, 59, 0, time.UTC),
			want: monday,
		},
		{
			name: "non-UTC input is normalized",
			in:   time.Date(2025, 3, 11, 1, 0, 0, 0, time.FixedZone("JST", 9*3600)),
			want: monday,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gt.Equal(t, model.WeekStart(tc.in), tc.want)
		})
	}
}
