package plan

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/foundryhq/foundry/internal/task"
	"github.com/foundryhq/foundry/internal/tracker"
)

// Compute diffs the desired checklist against a snapshot of existing
// sub-issues and returns the operations required to converge the tracker.
//
// Guarantees:
//   - Pure: no I/O, deterministic output for identical inputs.
//   - Foreign immunity: issues without the ownership label are never
//     referenced by any list.
//   - Fixed point: applying the plan and recomputing yields an empty plan.
func Compute(desired []task.DesiredTask, existing []tracker.SubIssue) Plan {
	var p Plan

	entries := resolveKeys(desired, &p)

	desiredByKey := make(map[string]task.DesiredTask, len(entries))
	for _, e := range entries {
		desiredByKey[e.key] = e.t
	}

	// Partition. Foreign issues (no foundry label) are invisible from here
	// on: never matched, never updated, never closed.
	var owned []tracker.SubIssue
	for _, iss := range existing {
		if iss.Foundry {
			owned = append(owned, iss)
		}
	}

	ownedByKey, extraClose := indexOwned(owned, &p)

	recoverUntagged(owned, entries, ownedByKey)

	// Creates: desired keys with no owned counterpart, Markdown order.
	for _, e := range entries {
		if _, ok := ownedByKey[e.key]; ok {
			continue
		}
		p.ToCreate = append(p.ToCreate, CreateOp{
			Title:     task.Humanize(e.t.Text),
			TaskKey:   e.key,
			Completed: e.t.Completed,
		})
	}

	// Closes: owned keys with no desired counterpart, plus duplicate-key
	// losers, ascending id.
	closeSet := make(map[string]bool)
	for _, id := range extraClose {
		closeSet[id] = true
	}
	for key, iss := range ownedByKey {
		if _, ok := desiredByKey[key]; !ok && iss.Open {
			closeSet[iss.ID] = true
		}
	}
	for id := range closeSet {
		p.ToClose = append(p.ToClose, id)
	}
	sort.Strings(p.ToClose)

	// Updates and state reconciliation for keys present on both sides,
	// in lexicographic key order for determinism.
	keys := make([]string, 0, len(ownedByKey))
	for key := range ownedByKey {
		if _, ok := desiredByKey[key]; ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		d := desiredByKey[key]
		iss := ownedByKey[key]

		wantTitle := task.Humanize(d.Text)
		if wantTitle != iss.Title && !manuallyRenamed(iss) {
			p.ToUpdate = append(p.ToUpdate, UpdateOp{ID: iss.ID, Title: wantTitle})
		}

		switch {
		case !d.Completed && !iss.Open:
			p.ToReopen = append(p.ToReopen, iss.ID)
		case d.Completed && iss.Open:
			p.ToComplete = append(p.ToComplete, iss.ID)
		}
	}

	return p
}

// resolveKeys slugs each desired task, dropping empty slugs and suffixing
// duplicates (-2, -3, ...) in Markdown order so keys are unique within the
// plan. Duplicates are legal but an anti-pattern, so they warn.
func resolveKeys(desired []task.DesiredTask, p *Plan) []desiredEntry {
	taken := make(map[string]bool, len(desired))
	entries := make([]desiredEntry, 0, len(desired))

	for _, d := range desired {
		key := task.Key(d.Text)
		if key == "" {
			p.Diagnostics = append(p.Diagnostics,
				fmt.Sprintf("dropped task %d: text %q produces an empty key", d.Order, d.Text))
			continue
		}
		if taken[key] {
			p.Diagnostics = append(p.Diagnostics,
				fmt.Sprintf("duplicate task text at position %d (key %q); identity is unstable if duplicates are reordered", d.Order, key))
			for n := 2; ; n++ {
				candidate := fmt.Sprintf("%s-%d", key, n)
				if !taken[candidate] {
					key = candidate
					break
				}
			}
		}
		taken[key] = true
		entries = append(entries, desiredEntry{key: key, t: d})
	}
	return entries
}

// indexOwned maps owned issues by their stamped task key. When two owned
// issues share a key (a create race in the tracker), the lowest id wins
// and the rest are scheduled for close with a diagnostic.
func indexOwned(owned []tracker.SubIssue, p *Plan) (map[string]tracker.SubIssue, []string) {
	byKey := make(map[string]tracker.SubIssue)
	var extraClose []string

	// Ascending id pass makes "lowest id is canonical" fall out naturally.
	sorted := make([]tracker.SubIssue, len(owned))
	copy(sorted, owned)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	for _, iss := range sorted {
		if iss.TaskKey == "" {
			continue
		}
		if canonical, ok := byKey[iss.TaskKey]; ok {
			if iss.Open {
				extraClose = append(extraClose, iss.ID)
			}
			p.Diagnostics = append(p.Diagnostics,
				fmt.Sprintf("issues %s and %s share task key %q; keeping %s, closing %s",
					canonical.ID, iss.ID, iss.TaskKey, canonical.ID, iss.ID))
			continue
		}
		byKey[iss.TaskKey] = iss
	}
	return byKey, extraClose
}

// recoverUntagged performs the one-time recovery match for owned issues
// whose task key stamp is missing: an issue is adopted by the first desired
// key (Markdown order) whose humanized title equals the issue's current
// title, compared case-insensitively with whitespace collapsed. Each key
// adopts at most one issue.
func recoverUntagged(owned []tracker.SubIssue, entries []desiredEntry, ownedByKey map[string]tracker.SubIssue) {
	var untagged []tracker.SubIssue
	for _, iss := range owned {
		if iss.TaskKey == "" {
			untagged = append(untagged, iss)
		}
	}
	if len(untagged) == 0 {
		return
	}
	sort.Slice(untagged, func(i, j int) bool { return untagged[i].ID < untagged[j].ID })

	for _, iss := range untagged {
		issTitle := normalizeTitle(iss.Title)
		for _, e := range entries {
			if _, claimed := ownedByKey[e.key]; claimed {
				continue
			}
			if normalizeTitle(task.Humanize(e.t.Text)) == issTitle {
				adopted := iss
				adopted.TaskKey = e.key
				ownedByKey[e.key] = adopted
				break
			}
		}
	}
}

// manuallyRenamed is the heuristic that keeps the engine from fighting
// humans over titles: if the current title no longer slugs back to the
// stamped key, somebody renamed it in the tracker, and we leave it alone.
func manuallyRenamed(iss tracker.SubIssue) bool {
	return task.Key(iss.Title) != iss.TaskKey
}

var titleSpace = regexp.MustCompile(`\s+`)

func normalizeTitle(s string) string {
	return strings.ToLower(titleSpace.ReplaceAllString(strings.TrimSpace(s), " "))
}
