package config

import (
	"fmt"
	"os"

	"sigawatch/internal/components/telemetry"

	"gopkg.in/yaml.v3"
)

const (
	report_load_searches = "load-searches"
	report_search_item   = "load-searches.item"
)

// DefaultSearchFile is the search file read when none is given.
const DefaultSearchFile = "search_config.yaml"

// LoadSearches reads a YAML list of searches. Entries that fail to decode or validate
// are reported and skipped, they never fail the whole file.
func LoadSearches(path string, tel telemetry.API) ([]Search, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read search file: %w", err)
	}
	tel.ReportInfo("search file loaded", "path", path)
	return ParseSearches(contents, tel)
}

// ParseSearches is LoadSearches on an in-memory document.
func ParseSearches(contents []byte, tel telemetry.API) ([]Search, error) {
	var items []yaml.Node
	err := yaml.Unmarshal(contents, &items)
	if err != nil {
		return nil, fmt.Errorf("parse search file: %w", err)
	}

	searches := make([]Search, 0, len(items))
	for i, item := range items {
		index := i + 1

		var search Search
		err := item.Decode(&search)
		if err == nil {
			err = search.Validate()
		}
		if err != nil {
			tel.ReportWarning(report_search_item, fmt.Errorf("configuration #%d: %w", index, err))
			continue
		}
		tel.ReportDebug("configuration is valid", "index", index, "title", search.Title)
		searches = append(searches, search)
	}

	tel.ReportInfo(fmt.Sprintf(
		"%d out of %d configurations were successfully imported",
		len(searches), len(items),
	))
	if len(items) > 0 && len(searches) == 0 {
		tel.ReportWarning(report_load_searches, "no valid searches")
	}
	return searches, nil
}
