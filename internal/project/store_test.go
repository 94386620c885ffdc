package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir())
}

func TestInitAndLoad(t *testing.T) {
	s := newTestStore(t)
	assert.False(t, s.Initialized())

	p, err := s.Init("my-service")
	require.NoError(t, err)
	assert.Equal(t, "my-service", p.Name)
	assert.True(t, s.Initialized())

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "my-service", loaded.Name)
	assert.NotNil(t, loaded.Parents)

	_, err = s.Init("again")
	assert.Error(t, err, "re-init must not clobber the manifest")
}

func TestSpecLifecycle(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Init("p")
	require.NoError(t, err)

	sp, err := s.CreateSpec("Payment API overhaul")
	require.NoError(t, err)
	assert.Equal(t, "payment-api-overhaul", sp.Slug)

	slugs, err := s.ListSpecs()
	require.NoError(t, err)
	assert.Equal(t, []string{"payment-api-overhaul"}, slugs)

	_, err = s.CreateSpec("Payment API overhaul")
	assert.Error(t, err, "duplicate slug rejected")

	loaded, err := s.GetSpec("payment-api-overhaul")
	require.NoError(t, err)
	assert.Equal(t, "Payment API overhaul", loaded.Title)
	assert.Contains(t, loaded.Body, "## Tasks")
}

func TestUpdateTasksRoundTrip(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Init("p")
	require.NoError(t, err)
	_, err = s.CreateSpec("Sync work")
	require.NoError(t, err)

	checklist := "- [ ] parse the feed\n- [x] write the schema"
	sp, err := s.UpdateTasks("sync-work", checklist)
	require.NoError(t, err)

	tasks := sp.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "parse the feed", tasks[0].Text)
	assert.False(t, tasks[0].Completed)
	assert.True(t, tasks[1].Completed)

	// Reload from disk: front matter and body survive.
	reloaded, err := s.GetSpec("sync-work")
	require.NoError(t, err)
	assert.Equal(t, "Sync work", reloaded.Title)
	require.Len(t, reloaded.Tasks(), 2)
}

func TestSetParent(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Init("p")
	require.NoError(t, err)

	require.NoError(t, s.SetParent("some-spec", "linear:abc123"))
	p, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "linear:abc123", p.Parents["some-spec"])
}

func TestTasksSectionExtraction(t *testing.T) {
	body := "# Title\n\nprose\n\n## Tasks\n\n- [ ] one\n- [ ] two\n\n## Notes\n\n- [ ] not a task for syncing\n"

	section := TasksSection(body)
	assert.Contains(t, section, "- [ ] one")
	assert.NotContains(t, section, "not a task")

	assert.Equal(t, "", TasksSection("# No tasks here\n"))
}

func TestReplaceTasksSection(t *testing.T) {
	body := "# Title\n\n## Tasks\n\n- [ ] old\n\n## Notes\n\nkeep me\n"
	out := ReplaceTasksSection(body, "- [ ] new one")

	assert.NotContains(t, out, "- [ ] old")
	assert.Contains(t, out, "- [ ] new one")
	assert.Contains(t, out, "## Notes")
	assert.Contains(t, out, "keep me")

	// Appends when the section is missing.
	out = ReplaceTasksSection("# Bare\n", "- [ ] first")
	assert.Contains(t, out, "## Tasks")
	assert.Contains(t, out, "- [ ] first")
}
