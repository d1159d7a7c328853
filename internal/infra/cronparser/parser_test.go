package cronparser_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skillcoder/admission-scheduler/internal/infra/cronparser"
)

type nextAfterCase struct {
	name      string
	giveSpec  string
	giveTZ    string
	giveAfter time.Time
	want      time.Time
	wantErr   error
	wantAny   bool
}

func TestParser_NextAfter(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 2, 15, 7, 2, 30, 0, time.UTC)

	tests := []nextAfterCase{
		{
			name:      "every five minutes",
			giveSpec:  "*/5 * * * *",
			giveAfter: base,
			want:      time.Date(2026, 2, 15, 7, 5, 0, 0, time.UTC),
		},
		{
			name:      "surrounding whitespace is ignored",
			giveSpec:  "  40 7 * * *  ",
			giveAfter: base,
			want:      time.Date(2026, 2, 15, 7, 40, 0, 0, time.UTC),
		},
		{
			name:      "hourly descriptor",
			giveSpec:  "@hourly",
			giveAfter: base,
			want:      time.Date(2026, 2, 15, 8, 0, 0, 0, time.UTC),
		},
		{
			name:      "tz shifts the wall clock",
			giveSpec:  "0 8 * * *",
			giveTZ:    "Europe/Berlin",
			giveAfter: base,
			want:      time.Date(2026, 2, 16, 7, 0, 0, 0, time.UTC),
		},
		{
			name:      "inline CRON_TZ wins over tz",
			giveSpec:  "CRON_TZ=UTC 0 14 * * *",
			giveTZ:    "America/New_York",
			giveAfter: base,
			want:      time.Date(2026, 2, 15, 14, 0, 0, 0, time.UTC),
		},
		{
			name:      "unknown tz",
			giveSpec:  "* * * * *",
			giveTZ:    "Mars/Olympus",
			giveAfter: base,
			wantErr:   cronparser.ErrUnknownTimezone,
		},
		{
			name:      "malformed spec",
			giveSpec:  "invalid",
			giveAfter: base,
			wantAny:   true,
		},
		{
			name:      "seconds field is rejected",
			giveSpec:  "0 */5 * * * *",
			giveAfter: base,
			wantAny:   true,
		},
	}

	p := cronparser.New()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := p.NextAfter(tt.giveSpec, tt.giveTZ, tt.giveAfter)

			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.wantAny:
				require.Error(t, err)
			default:
				require.NoError(t, err)
				require.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
			}
		})
	}
}

func TestParser_NextAfterIsStable(t *testing.T) {
	t.Parallel()

	p := cronparser.New()
	after := time.Date(2026, 2, 15, 7, 0, 0, 0, time.UTC)

	first, err := p.NextAfter("*/5 * * * *", "UTC", after)
	require.NoError(t, err)

	second, err := p.NextAfter("*/5 * * * *", "UTC", first)
	require.NoError(t, err)
	require.Equal(t, 5*time.Minute, second.Sub(first))
}
