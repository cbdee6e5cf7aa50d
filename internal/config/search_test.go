package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"sigawatch/internal/components/telemetry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const searchFile = `
- title: Passport Lisboa
  entity_opt: 1
  service_opt:
    tema: 22002
    subtema: 22005
    motivo: 22007
  location_opt:
    distrito: 11
    localidade: 58
    local_atendimento: "01-AC"
  max_days: 30
  start_time: "08:00"
  end_time: "20:00"
  frequency: 5
- title: Missing entity
  service_opt:
    tema: 1
    subtema: 2
    motivo: 3
  location_opt:
    distrito: 11
  max_days: 30
  start_time: "08:00"
  end_time: "20:00"
  frequency: 5
- title: Whole district
  entity_opt: 4
  service_opt:
    tema: 1
    subtema: 2
    motivo: 3
  location_opt:
    distrito: 13
    localidade:
    local_atendimento:
  max_days: 0
  start_time: "00:00"
  end_time: "23:59"
  frequency: 10
- title: Bad time
  entity_opt: 4
  service_opt: {tema: 1, subtema: 2, motivo: 3}
  location_opt: {distrito: 13}
  max_days: 1
  start_time: "8h"
  end_time: "20:00"
  frequency: 10
- not a search
`

func TestParseSearches(t *testing.T) {
	rec := telemetry.NewRecorder()
	searches, err := ParseSearches([]byte(searchFile), rec)
	require.NoError(t, err)

	expected := []Search{
		{
			Title:     "Passport Lisboa",
			EntityOpt: 1,
			Service:   ServiceOption{Tema: 22002, Subtema: 22005, Motivo: 22007},
			Location:  LocationOption{Distrito: 11, Localidade: 58, LocalAtendimento: "01-AC"},
			MaxDays:   30,
			StartTime: "08:00",
			EndTime:   "20:00",
			Frequency: 5,
		},
		{
			Title:     "Whole district",
			EntityOpt: 4,
			Service:   ServiceOption{Tema: 1, Subtema: 2, Motivo: 3},
			Location:  LocationOption{Distrito: 13},
			MaxDays:   0,
			StartTime: "00:00",
			EndTime:   "23:59",
			Frequency: 10,
		},
	}
	if diff := cmp.Diff(expected, searches); diff != "" {
		t.Fatalf("searches mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, rec.Find(telemetry.LevelNameWarning, report_search_item), 3)
	require.Len(t, rec.Find(telemetry.LevelNameInfo, "2 out of 5 configurations were successfully imported"), 1)
}

func TestParseSearchesNumericServiceDesk(t *testing.T) {
	searches, err := ParseSearches([]byte(`
- title: numeric desk
  entity_opt: 1
  service_opt: {tema: 1, subtema: 2, motivo: 3}
  location_opt: {distrito: 1, localidade: 2, local_atendimento: 304}
  max_days: 3
  start_time: "08:00"
  end_time: "18:00"
  frequency: 1
`), telemetry.NewRecorder())
	require.NoError(t, err)
	require.Len(t, searches, 1)
	require.Equal(t, Code("304"), searches[0].Location.LocalAtendimento)
	require.True(t, searches[0].HasServiceDesk())
	require.Equal(t, "1", searches[0].EntityID())
}

func TestParseSearchesNotAList(t *testing.T) {
	_, err := ParseSearches([]byte(`title: alone`), telemetry.NewRecorder())
	require.Error(t, err)
}

func TestLoadSearchesMissingFile(t *testing.T) {
	_, err := LoadSearches(filepath.Join(t.TempDir(), "none.yaml"), telemetry.NewRecorder())
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	search := Search{
		Title:     "x",
		EntityOpt: 1,
		Service:   ServiceOption{Tema: 1, Subtema: 1, Motivo: 1},
		Location:  LocationOption{Distrito: 1},
		StartTime: "08:00",
		EndTime:   "25:00",
		Frequency: 1,
	}
	err := search.Validate()
	require.True(t, errors.Is(err, ErrInvalid))
	require.Contains(t, err.Error(), "EndTime")

	search.EndTime = "20:00"
	require.NoError(t, search.Validate())
}

func TestValidateClockIsZeroPadded(t *testing.T) {
	cases := []struct {
		value string
		valid bool
	}{
		{value: "08:00", valid: true},
		{value: "00:00", valid: true},
		{value: "23:59", valid: true},
		{value: "8:00", valid: false},
		{value: "08:0", valid: false},
		{value: "24:00", valid: false},
		{value: "08:60", valid: false},
		{value: " 08:00", valid: false},
	}
	for _, c := range cases {
		search := Search{
			Title:     "x",
			EntityOpt: 1,
			Service:   ServiceOption{Tema: 1, Subtema: 1, Motivo: 1},
			Location:  LocationOption{Distrito: 1},
			StartTime: c.value,
			EndTime:   "23:59",
			Frequency: 1,
		}
		err := search.Validate()
		if c.valid {
			require.NoError(t, err, c.value)
			continue
		}
		require.ErrorIs(t, err, ErrInvalid, c.value)
		require.Contains(t, err.Error(), "StartTime (clock)", c.value)
	}
}

func TestHasServiceDesk(t *testing.T) {
	cases := []struct {
		localidade int
		desk       Code
		expected   bool
	}{
		{localidade: 58, desk: "01-AC", expected: true},
		{localidade: 0, desk: "01-AC", expected: false},
		{localidade: 58, desk: "", expected: false},
		{localidade: 0, desk: "", expected: false},
	}
	for _, c := range cases {
		s := Search{Location: LocationOption{Localidade: c.localidade, LocalAtendimento: c.desk}}
		require.Equal(t, c.expected, s.HasServiceDesk(), "%+v", c)
	}
}
