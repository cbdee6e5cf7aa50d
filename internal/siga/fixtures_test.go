package siga

import (
	"context"
	"sync"
	"time"

	"sigawatch/internal/browser/browsertest"
	"sigawatch/internal/components/chrono"
	"sigawatch/internal/config"
)

var lisbon, _ = time.LoadLocation("Europe/Lisbon")

// 03-10-2024 10:15:00
var testNow = time.Date(2024, time.October, 3, 10, 15, 0, 0, lisbon)

func testClock() chrono.FixedTime {
	return chrono.FixedTime{At: testNow}
}

func testSearch() config.Search {
	return config.Search{
		Title:     "passport",
		EntityOpt: 1,
		Service: config.ServiceOption{
			Tema:    22002,
			Subtema: 22005,
			Motivo:  22007,
		},
		Location: config.LocationOption{
			Distrito:         11,
			Localidade:       58,
			LocalAtendimento: "01-AC",
		},
		MaxDays:   30,
		StartTime: "08:00",
		EndTime:   "20:00",
		Frequency: 5,
	}
}

const resultsPage = `<html><body>
<div class="schedule-list">
  <div class="col-md-5 m-1" title="Lisboa - Loja do Cidadão">
    <span>15-10-2024 09:30 Quinta-feira</span>
  </div>
  <div class="col-md-5 m-1" title="Lisboa - Loja do Cidadão">
    <span>16-10-2024 11:00</span>
  </div>
  <div class="col-md-5 m-2" title="Lisboa - Laranjeiras">
    <span>01-01-2099 10:00</span>
  </div>
  <div class="col-md-5 m-3" title="Lisboa - Marvila">
    <span>amanhã 10:00</span>
  </div>
</div>
</body></html>`

// happySession is a page on which every stage of testSearch succeeds.
func happySession() *browsertest.Session {
	s := browsertest.NewSession()
	for _, selector := range []string{
		entityProbeSelector,
		"#IdCategoria",
		"#IdSubcategoria",
		"#IdMotivo",
		nextProbeSelector,
		nextButtonSelector,
		"#IdDistrito",
		"#IdLocalidade",
		"#IdLocalAtendimento",
	} {
		s.Present[selector] = true
	}
	s.Buttons[entityButtonSelector] = []browsertest.Button{
		{Attrs: map[string]string{"id": "3", "title": "AT"}},
		{Attrs: map[string]string{"id": "1", "title": "IRN"}},
	}
	s.Options["#IdCategoria"] = map[string]string{"22002": "Cartão de Cidadão"}
	s.Options["#IdSubcategoria"] = map[string]string{"22005": "Pedido"}
	s.Options["#IdMotivo"] = map[string]string{"22007": "Renovação"}
	s.Options["#IdDistrito"] = map[string]string{"11": "Lisboa"}
	s.Options["#IdLocalidade"] = map[string]string{"58": "Lisboa", "0": "Todas"}
	s.Options["#IdLocalAtendimento"] = map[string]string{"01-AC": "Loja do Cidadão"}
	s.HTML = resultsPage
	return s
}

type dispatchCall struct {
	header NotificationHeader
	slots  map[string][]string
	groups []string
}

type fakeDispatcher struct {
	mu    sync.Mutex
	calls []dispatchCall
	panic bool
}

func (d *fakeDispatcher) Dispatch(_ context.Context, header NotificationHeader, slots *SlotTable) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.panic {
		panic("dispatch exploded")
	}
	d.calls = append(d.calls, dispatchCall{
		header: header,
		slots:  slots.Map(),
		groups: slots.Groups(),
	})
	slots.Clear()
}
