package siga

import (
	"strconv"
	"time"

	"sigawatch/internal/config"
)

const (
	StepEntity      = "set_entity"
	StepCategory    = "set_category"
	StepSubcategory = "set_subcategory"
	StepMotive      = "set_motive"
	StepTwo         = "set_step_two"
	StepDistrict    = "set_district"
	StepLocal       = "set_local"
	StepServiceDesk = "set_service_desk"
	StepThree       = "set_step_three"
)

// ScanCheckpoint is the progress screenshot taken right before the results are scanned.
const ScanCheckpoint = 4

// Stage is one step of the booking form.
type Stage struct {
	Name string
	// Checkpoint is the number of the progress screenshot taken before the stage runs, 0 for none.
	Checkpoint int
	// Guard skips the stage when it returns false, a nil Guard always runs.
	Guard func(config.Search) bool

	run func(*runState) error
}

// Runs reports whether the stage applies to the search.
func (s Stage) Runs(search config.Search) bool {
	return s.Guard == nil || s.Guard(search)
}

func dropdown(
	name, selector string,
	timeout time.Duration,
	value func(config.Search) string,
	set func(*NotificationHeader, string),
) Stage {
	return Stage{
		Name: name,
		run: func(r *runState) error {
			label, err := r.selectOption(name, selector, value(r.search), timeout)
			if err != nil {
				return err
			}
			set(&r.header, label)
			return nil
		},
	}
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

// Stages is the booking form in the order it must be filled. Each stage
// starts from the page the previous one left.
var Stages = []Stage{
	{Name: StepEntity, Checkpoint: 1, run: setEntity},
	dropdown(
		StepCategory, "#IdCategoria", 10*time.Second,
		func(s config.Search) string { return itoa(s.Service.Tema) },
		func(h *NotificationHeader, l string) { h.Category = l },
	),
	dropdown(
		StepSubcategory, "#IdSubcategoria", 30*time.Second,
		func(s config.Search) string { return itoa(s.Service.Subtema) },
		func(h *NotificationHeader, l string) { h.Subcategory = l },
	),
	dropdown(
		StepMotive, "#IdMotivo", 30*time.Second,
		func(s config.Search) string { return itoa(s.Service.Motivo) },
		func(h *NotificationHeader, l string) { h.Motive = l },
	),
	{Name: StepTwo, Checkpoint: 2, run: advance(StepTwo, false)},
	dropdown(
		StepDistrict, "#IdDistrito", 20*time.Second,
		func(s config.Search) string { return itoa(s.Location.Distrito) },
		func(h *NotificationHeader, l string) { h.District = l },
	),
	dropdown(
		StepLocal, "#IdLocalidade", 20*time.Second,
		func(s config.Search) string { return itoa(s.Location.Localidade) },
		func(h *NotificationHeader, l string) { h.Local = l },
	),
	withGuard(
		dropdown(
			StepServiceDesk, "#IdLocalAtendimento", 20*time.Second,
			func(s config.Search) string { return s.Location.LocalAtendimento.String() },
			func(h *NotificationHeader, l string) { h.ServiceDesk = l },
		),
		config.Search.HasServiceDesk,
	),
	{Name: StepThree, Checkpoint: 3, run: advance(StepThree, true)},
}

func withGuard(s Stage, guard func(config.Search) bool) Stage {
	s.Guard = guard
	return s
}
