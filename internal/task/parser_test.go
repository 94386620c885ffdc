package task

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChecklist(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
		want     []DesiredTask
	}{
		{
			name:     "empty document",
			markdown: "",
			want:     nil,
		},
		{
			name:     "no checklist items",
			markdown: "# Heading\n\nJust prose, no tasks here.\n",
			want:     nil,
		},
		{
			name:     "basic open and completed items",
			markdown: "- [ ] First task\n- [x] Second task\n",
			want: []DesiredTask{
				{Text: "First task", Completed: false, Order: 0},
				{Text: "Second task", Completed: true, Order: 1},
			},
		},
		{
			name:     "uppercase X counts as completed",
			markdown: "- [X] Shout it\n",
			want: []DesiredTask{
				{Text: "Shout it", Completed: true, Order: 0},
			},
		},
		{
			name:     "all bullet styles accepted",
			markdown: "- [ ] dash\n* [ ] star\n+ [ ] plus\n",
			want: []DesiredTask{
				{Text: "dash", Order: 0},
				{Text: "star", Order: 1},
				{Text: "plus", Order: 2},
			},
		},
		{
			name:     "nested items flattened at top level",
			markdown: "- [ ] parent\n  - [x] child\n    - [ ] grandchild\n",
			want: []DesiredTask{
				{Text: "parent", Order: 0},
				{Text: "child", Completed: true, Order: 1},
				{Text: "grandchild", Order: 2},
			},
		},
		{
			name:     "blank lines and prose skipped",
			markdown: "## Tasks\n\n- [ ] real task\n\nsome notes\n- not a checkbox\n- [] malformed\n",
			want: []DesiredTask{
				{Text: "real task", Order: 0},
			},
		},
		{
			name:     "internal whitespace preserved verbatim",
			markdown: "- [ ] keep   internal    spacing\n",
			want: []DesiredTask{
				{Text: "keep   internal    spacing", Order: 0},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseChecklist(tt.markdown))
		})
	}
}

func TestParseChecklistTruncatesLongText(t *testing.T) {
	long := strings.Repeat("a", MaxTextLen+100)
	tasks := ParseChecklist("- [ ] " + long + "\n")
	require.Len(t, tasks, 1)
	assert.Len(t, tasks[0].Text, MaxTextLen)
}
