package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SmithSonNguyen/UTE-WebsiteLuyenThiTiengAnh-BE/internal/models"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func monWedTwoWeeks(t *testing.T) models.ClassSchedule {
	t.Helper()
	return models.ClassSchedule{
		Days:          []string{"Monday", "Wednesday"},
		StartDate:     mustDate(t, "2025-01-06"),
		DurationWeeks: 2,
	}
}

func TestGenerateSessionDates(t *testing.T) {
	tests := []struct {
		name     string
		schedule models.ClassSchedule
		want     []string
		wantErr  error
	}{
		{
			name:     "monday wednesday over two weeks",
			schedule: monWedTwoWeeks(t),
			want:     []string{"2025-01-06", "2025-01-08", "2025-01-13", "2025-01-15"},
		},
		{
			name: "day order does not matter",
			schedule: models.ClassSchedule{
				Days:          []string{"Wednesday", "Monday"},
				StartDate:     mustDate(t, "2025-01-06"),
				DurationWeeks: 2,
			},
			want: []string{"2025-01-06", "2025-01-08", "2025-01-13", "2025-01-15"},
		},
		{
			name: "explicit end date wins over duration",
			schedule: models.ClassSchedule{
				Days:          []string{"Monday", "Wednesday"},
				StartDate:     mustDate(t, "2025-01-06"),
				EndDate:       mustDate(t, "2025-01-08"),
				DurationWeeks: 10,
			},
			want: []string{"2025-01-06", "2025-01-08"},
		},
		{
			name: "start date mid week skips earlier weekdays",
			schedule: models.ClassSchedule{
				Days:          []string{"Monday", "Wednesday"},
				StartDate:     mustDate(t, "2025-01-08"), // a Wednesday
				DurationWeeks: 1,
			},
			want: []string{"2025-01-08", "2025-01-13"},
		},
		{
			name: "single day window",
			schedule: models.ClassSchedule{
				Days:      []string{"Monday"},
				StartDate: mustDate(t, "2025-01-06"),
				EndDate:   mustDate(t, "2025-01-06"),
			},
			want: []string{"2025-01-06"},
		},
		{
			name: "selected weekday never occurs in window",
			schedule: models.ClassSchedule{
				Days:      []string{"Friday"},
				StartDate: mustDate(t, "2025-01-06"),
				EndDate:   mustDate(t, "2025-01-08"),
			},
			want: []string{},
		},
		{
			name: "no weekdays selected",
			schedule: models.ClassSchedule{
				StartDate:     mustDate(t, "2025-01-06"),
				DurationWeeks: 2,
			},
			wantErr: ErrInvalidSchedule,
		},
		{
			name: "unknown weekday label",
			schedule: models.ClassSchedule{
				Days:          []string{"Funday"},
				StartDate:     mustDate(t, "2025-01-06"),
				DurationWeeks: 2,
			},
			wantErr: ErrInvalidSchedule,
		},
		{
			name: "end date before start date",
			schedule: models.ClassSchedule{
				Days:      []string{"Monday"},
				StartDate: mustDate(t, "2025-01-06"),
				EndDate:   mustDate(t, "2025-01-01"),
			},
			wantErr: ErrInvalidSchedule,
		},
		{
			name: "neither end date nor duration",
			schedule: models.ClassSchedule{
				Days:      []string{"Monday"},
				StartDate: mustDate(t, "2025-01-06"),
			},
			wantErr: ErrInvalidSchedule,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dates, err := GenerateSessionDates(tt.schedule)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			got := make([]string, 0, len(dates))
			for _, d := range dates {
				got = append(got, FormatDate(d))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateSessionDatesInvariants(t *testing.T) {
	s := models.ClassSchedule{
		Days:          []string{"Tuesday", "Saturday", "Sunday"},
		StartDate:     mustDate(t, "2025-03-05"),
		DurationWeeks: 6,
	}
	dates, err := GenerateSessionDates(s)
	require.NoError(t, err)
	require.NotEmpty(t, dates)

	start := DateOnly(s.StartDate)
	end, err := EffectiveEndDate(s)
	require.NoError(t, err)

	allowed := map[time.Weekday]bool{time.Tuesday: true, time.Saturday: true, time.Sunday: true}
	seen := map[string]bool{}
	for i, d := range dates {
		assert.False(t, d.Before(start), "date %s before start", FormatDate(d))
		assert.False(t, d.After(end), "date %s after end", FormatDate(d))
		assert.True(t, allowed[d.Weekday()], "date %s on unselected weekday %s", FormatDate(d), d.Weekday())
		assert.False(t, seen[FormatDate(d)], "duplicate date %s", FormatDate(d))
		seen[FormatDate(d)] = true
		if i > 0 {
			assert.True(t, dates[i-1].Before(d), "dates not sorted at index %d", i)
		}
	}

	// Same input yields the same calendar.
	again, err := GenerateSessionDates(s)
	require.NoError(t, err)
	assert.Equal(t, dates, again)
}

func TestDateToSessionNumber(t *testing.T) {
	s := monWedTwoWeeks(t)

	n, err := DateToSessionNumber(s, mustDate(t, "2025-01-13"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = DateToSessionNumber(s, mustDate(t, "2025-01-06"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// A Tuesday inside the window is not a session date.
	_, err = DateToSessionNumber(s, mustDate(t, "2025-01-07"))
	assert.ErrorIs(t, err, ErrDateNotInSchedule)

	// A Monday outside the window is not a session date either.
	_, err = DateToSessionNumber(s, mustDate(t, "2025-01-20"))
	assert.ErrorIs(t, err, ErrDateNotInSchedule)

	// Time-of-day on the target is ignored.
	n, err = DateToSessionNumber(s, time.Date(2025, 1, 15, 20, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestSessionNumberToDate(t *testing.T) {
	s := monWedTwoWeeks(t)

	d, err := SessionNumberToDate(s, 2)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-08", FormatDate(d))

	_, err = SessionNumberToDate(s, 0)
	assert.ErrorIs(t, err, ErrSessionNumberOutOfRange)

	_, err = SessionNumberToDate(s, 5)
	assert.ErrorIs(t, err, ErrSessionNumberOutOfRange)
}

func TestSessionNumberRoundTrip(t *testing.T) {
	s := models.ClassSchedule{
		Days:          []string{"Monday", "Thursday", "Friday"},
		StartDate:     mustDate(t, "2025-02-03"),
		DurationWeeks: 4,
	}
	total, err := TotalSessions(s)
	require.NoError(t, err)
	require.Equal(t, 12, total)

	for n := 1; n <= total; n++ {
		d, err := SessionNumberToDate(s, n)
		require.NoError(t, err)
		back, err := DateToSessionNumber(s, d)
		require.NoError(t, err)
		assert.Equal(t, n, back)
	}
}

func TestEffectiveEndDate(t *testing.T) {
	s := monWedTwoWeeks(t)
	end, err := EffectiveEndDate(s)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-19", FormatDate(end))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-01-06")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("06/01/2025")
	assert.Error(t, err)

	_, err = ParseDate("not-a-date")
	assert.Error(t, err)
}
