package siga

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"sigawatch/internal/browser"
	"sigawatch/internal/components/assert"
	"sigawatch/internal/components/chrono"
	"sigawatch/internal/components/telemetry"
	"sigawatch/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const (
	report_scan_content     = "content"
	report_scan_error_panel = "error-panel"
)

const (
	slotRowSelector    = `div.schedule-list div[class^="col-md-5 m-"]`
	errorPanelProbe    = ".error-message"
	errorPanelSelector = "div.error-message div.col-md-12.no_padding"
	errorPanelTimeout  = 20 * time.Second
	slotTextLength     = 18
	slotDateLayout     = "02-01-2006"
)

var slotDate = regexp.MustCompile(`\d{2}-\d{2}-\d{4}`)

// Scanner reads the free slots off the results page.
type Scanner struct {
	time chrono.TimeAPI
	tel  telemetry.API
}

func NewScanner(time chrono.TimeAPI, tel telemetry.API) Scanner {
	assert.NotNil(time)
	assert.NotNil(tel)
	return Scanner{
		time: time,
		tel:  telemetry.NewScopedAPI("scanner", tel),
	}
}

// Cutoff is the last moment a slot may fall on to be kept.
func Cutoff(now time.Time, maxDays int) time.Time {
	return now.AddDate(0, 0, maxDays)
}

// Scan returns the slots listed no later than maxDays from now. A results
// page that only shows the site's error panel is an empty result, not an error.
func (s Scanner) Scan(session browser.Session, maxDays int) (SlotTable, error) {
	cutoff := Cutoff(s.time.Now(), maxDays)
	s.tel.ReportInfo("max date to search for time slots", "cutoff", cutoff.Format(slotDateLayout))

	html, err := session.Content()
	if err != nil {
		err = fmt.Errorf("read results page: %w", err)
		s.tel.ReportBroken(report_scan_content, err)
		return SlotTable{}, err
	}
	table, err := ParseSlots(html, cutoff)
	if err != nil {
		s.tel.ReportBroken(report_scan_content, err)
		return SlotTable{}, err
	}

	if !table.Empty() {
		s.tel.ReportInfo(
			"slots found",
			"groups", table.Len(),
			"slots", table.Count(),
			"table", table.Map(),
		)
	}
	s.reportErrorPanel(session)

	return table, nil
}

func (s Scanner) reportErrorPanel(session browser.Session) {
	if !Probe(session, errorPanelProbe, 0) {
		return
	}
	err := session.WaitVisible(errorPanelSelector, errorPanelTimeout)
	if err != nil {
		s.tel.ReportWarning(report_scan_error_panel, err)
		return
	}
	heading, err := session.Text(errorPanelSelector+" h5", errorPanelTimeout)
	if err != nil {
		s.tel.ReportWarning(report_scan_error_panel, err)
		return
	}
	s.tel.ReportInfo("site message", "message", heading)
}

// ParseSlots extracts the slots of a results page. Each row contributes the
// leading text of its first span, grouped by the row's title, when that text
// holds a DD-MM-YYYY date no later than cutoff. Every other row is skipped.
func ParseSlots(html string, cutoff time.Time) (SlotTable, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return SlotTable{}, fmt.Errorf("parse results page: %w", err)
	}

	var table SlotTable
	doc.Find(slotRowSelector).Each(func(_ int, row *goquery.Selection) {
		text := htmlutil.Truncate(htmlutil.SelectionText(row.Find("span").First()), slotTextLength)
		token := slotDate.FindString(text)
		if token == "" {
			return
		}
		date, err := time.ParseInLocation(slotDateLayout, token, cutoff.Location())
		if err != nil {
			return
		}
		if date.After(cutoff) {
			return
		}
		table.Add(row.AttrOr("title", ""), text)
	})
	return table, nil
}
