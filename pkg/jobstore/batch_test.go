package jobstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telekom/failed-job-deactivator/pkg/notification"
)

func TestLoadBatch(t *testing.T) {
	path := writeFile(t, "batch.yaml", `detected:
  - job: team/nightly
    action: deactivate
    reason: 5 failed builds in a row
  - job: team/old
    action: DELETE
    reason: inactive for 90 days
`)

	entries, err := LoadBatch(path)
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Job: "team/nightly", Action: notification.ActionDeactivate, Reason: "5 failed builds in a row"},
		{Job: "team/old", Action: notification.ActionDelete, Reason: "inactive for 90 days"},
	}, entries)
}

func TestLoadBatchEmpty(t *testing.T) {
	entries, err := LoadBatch(writeFile(t, "batch.yaml", "detected: []\n"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLoadBatchErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{name: "unknown action", content: "detected:\n  - job: a\n    action: archive\n", errMsg: `unknown action "archive"`},
		{name: "missing job", content: "detected:\n  - action: delete\n", errMsg: "entry 0 has no job"},
		{name: "invalid yaml", content: "detected: {", errMsg: "error unmarshaling YAML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBatch(writeFile(t, "batch.yaml", tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestFilter(t *testing.T) {
	entries := []Entry{
		{Job: "team/nightly"},
		{Job: "team/release"},
		{Job: "other/nightly"},
		{Job: "top"},
	}

	tests := []struct {
		name     string
		patterns []string
		want     []string
	}{
		{name: "no patterns", patterns: nil, want: []string{"team/nightly", "team/release", "other/nightly", "top"}},
		{name: "folder wildcard", patterns: []string{"team/*"}, want: []string{"team/nightly", "team/release"}},
		{name: "star does not cross folders", patterns: []string{"*"}, want: []string{"top"}},
		{name: "any folder", patterns: []string{"*/nightly"}, want: []string{"team/nightly", "other/nightly"}},
		{name: "several patterns keep order", patterns: []string{"top", "team/r*"}, want: []string{"team/release", "top"}},
		{name: "exact", patterns: []string{"other/nightly"}, want: []string{"other/nightly"}},
		{name: "no match", patterns: []string{"nope"}, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Filter(entries, tt.patterns)
			require.NoError(t, err)
			var names []string
			for _, e := range got {
				names = append(names, e.Job)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestFilterInvalidPattern(t *testing.T) {
	_, err := Filter([]Entry{{Job: "a"}}, []string{"[invalid"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid job pattern")
}

func TestResolve(t *testing.T) {
	s, _ := openStore(t, testJobs)
	entries := []Entry{
		{Job: "team/release", Action: notification.ActionDelete, Reason: "gone"},
		{Job: "team/missing", Action: notification.ActionDeactivate, Reason: "red"},
		{Job: "team/nightly", Action: notification.ActionDeactivate, Reason: "red"},
	}

	batch, unknown := Resolve(s, entries)

	assert.Equal(t, []string{"team/missing"}, unknown)
	require.Len(t, batch, 2)
	assert.Equal(t, "team/release", batch[0].Job.FullName())
	assert.Equal(t, notification.ActionDelete, batch[0].Action)
	assert.Equal(t, "gone", batch[0].Reason)
	assert.Equal(t, "team/nightly", batch[1].Job.FullName())
}
