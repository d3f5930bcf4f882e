// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package jobstore

import (
	"fmt"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/telekom/failed-job-deactivator/pkg/notification"
)

// Entry is one detected job as written by the detection phase.
type Entry struct {
	Job    string              `yaml:"job"`
	Action notification.Action `yaml:"action"`
	Reason string              `yaml:"reason"`
}

type rawEntry struct {
	Job    string `yaml:"job"`
	Action string `yaml:"action"`
	Reason string `yaml:"reason"`
}

// UnmarshalYAML parses the action name.
func (e *Entry) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw rawEntry
	if err := unmarshal(&raw); err != nil {
		return err
	}
	action, err := notification.ParseAction(raw.Action)
	if err != nil {
		return fmt.Errorf("job %q: %w", raw.Job, err)
	}
	*e = Entry{Job: raw.Job, Action: action, Reason: raw.Reason}
	return nil
}

type batchFile struct {
	Detected []Entry `yaml:"detected"`
}

// LoadBatch reads a batch file. Entries keep their file order.
func LoadBatch(path string) ([]Entry, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("trying to open batch file %s: %w", path, err)
	}

	var file batchFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("error unmarshaling YAML %s: %w", path, err)
	}
	for i, e := range file.Detected {
		if strings.TrimSpace(e.Job) == "" {
			return nil, fmt.Errorf("batch file %s: entry %d has no job", path, i)
		}
	}
	return file.Detected, nil
}

// Filter keeps the entries whose job name matches at least one pattern.
// No patterns means no filtering. Patterns use path.Match syntax, so "*"
// does not cross a "/" folder separator.
func Filter(entries []Entry, patterns []string) ([]Entry, error) {
	if len(patterns) == 0 {
		return entries, nil
	}
	for _, p := range patterns {
		if _, err := path.Match(p, ""); err != nil {
			return nil, fmt.Errorf("invalid job pattern %q: %w", p, err)
		}
	}

	var out []Entry
	for _, e := range entries {
		for _, p := range patterns {
			if matched, _ := path.Match(p, e.Job); matched {
				out = append(out, e)
				break
			}
		}
	}
	return out, nil
}

// Resolve looks every entry up in the store. Names the store does not know
// are returned separately and left out of the batch.
func Resolve(store *Store, entries []Entry) ([]notification.DetectedJob, []string) {
	batch := make([]notification.DetectedJob, 0, len(entries))
	var unknown []string
	for _, e := range entries {
		record := store.Get(e.Job)
		if record == nil {
			unknown = append(unknown, e.Job)
			continue
		}
		batch = append(batch, notification.DetectedJob{
			Action: e.Action,
			Reason: e.Reason,
			Job:    record,
		})
	}
	return batch, unknown
}
