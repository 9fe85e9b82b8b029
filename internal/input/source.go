// Package input reads the ordered URL task list from a CSV dataset.
package input

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/zoror2/Final-repo-Bhargav-Phishin-project/internal/extractor"
)

// CSVSource materializes URL tasks from a tabular file. Row order defines
// the task index, which must be stable across runs; the file is read the
// same way every time.
//
// Two layouts are accepted: a `url` column with an optional `label` column
// (label defaults to 0), or a `Domain` column as found in the Majestic
// Million dataset, from which https URLs are synthesized with label 0.
type CSVSource struct {
	path string
}

// NewCSVSource returns a source reading from path.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

// Tasks reads and returns the full ordered task list.
func (s *CSVSource) Tasks() ([]extractor.URLTask, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open input %s: %w", s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read input header: %w", err)
	}
	urlCol, labelCol, domainCol := -1, -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "url":
			urlCol = i
		case "label":
			labelCol = i
		case "domain":
			domainCol = i
		}
	}
	if urlCol < 0 && domainCol < 0 {
		return nil, fmt.Errorf("input %s has neither a url nor a Domain column", s.path)
	}

	var tasks []extractor.URLTask
	index := uint64(0)
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read input row %d: %w", index, err)
		}

		var rawURL string
		switch {
		case urlCol >= 0 && urlCol < len(row) && strings.TrimSpace(row[urlCol]) != "":
			rawURL = strings.TrimSpace(row[urlCol])
		case domainCol >= 0 && domainCol < len(row) && strings.TrimSpace(row[domainCol]) != "":
			rawURL = "https://" + strings.TrimSpace(row[domainCol])
		default:
			return nil, fmt.Errorf("input row %d has no url or domain value", index)
		}

		label := 0
		if labelCol >= 0 && labelCol < len(row) {
			if v, err := strconv.Atoi(strings.TrimSpace(row[labelCol])); err == nil {
				label = v
			}
		}

		tasks = append(tasks, extractor.URLTask{
			Index: index,
			URL:   rawURL,
			Label: label,
		})
		index++
	}
	return tasks, nil
}
