// Package linear adapts the Tracker capability to Linear's GraphQL API.
//
// Transient/permanent classification lives here, at the boundary: 429s,
// 5xx and network errors come back as tracker transient errors, everything
// else as permanent. The engine above never inspects HTTP details.
package linear

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"sync"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/foundryhq/foundry/internal/tracker"
)

// taskKeyFooter is the description marker stamping foundry's identity on a
// sub-issue. Ownership recognition requires both this and the label.
var taskKeyFooter = regexp.MustCompile(`<!-- task_key: ([a-z0-9-]+) -->`)

// Client implements tracker.Tracker against Linear.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	sem     *semaphore.Weighted

	mu     sync.Mutex
	teams  map[string]string     // issue id -> team id
	labels map[string]string     // team id -> foundry label id
	states map[string]teamStates // team id -> resolved workflow states
}

type teamStates struct {
	completed string // terminal state used for complete/close
	unstarted string // state used for reopen
}

// New builds a Client from cfg. The zero rate/concurrency values fall back
// to the ConfigFromEnv defaults.
func New(cfg Config) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.MaxConcurrent),
		sem:     semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		teams:   make(map[string]string),
		labels:  make(map[string]string),
		states:  make(map[string]teamStates),
	}
}

// ListChildren implements tracker.Tracker.
func (c *Client) ListChildren(ctx context.Context, parentID string) ([]tracker.SubIssue, error) {
	const query = `query($id: String!) {
	  issue(id: $id) {
	    children(first: 250) {
	      nodes {
	        id
	        title
	        description
	        state { type }
	        labels { nodes { name } }
	      }
	    }
	  }
	}`

	var resp struct {
		Issue *struct {
			Children struct {
				Nodes []struct {
					ID          string `json:"id"`
					Title       string `json:"title"`
					Description string `json:"description"`
					State       struct {
						Type string `json:"type"`
					} `json:"state"`
					Labels struct {
						Nodes []struct {
							Name string `json:"name"`
						} `json:"nodes"`
					} `json:"labels"`
				} `json:"nodes"`
			} `json:"children"`
		} `json:"issue"`
	}
	if err := c.do(ctx, query, map[string]any{"id": parentID}, &resp); err != nil {
		return nil, err
	}
	if resp.Issue == nil {
		return nil, tracker.Permanent("parent issue not found: "+parentID, nil)
	}

	issues := make([]tracker.SubIssue, 0, len(resp.Issue.Children.Nodes))
	for _, n := range resp.Issue.Children.Nodes {
		iss := tracker.SubIssue{
			ID:    n.ID,
			Title: n.Title,
			Open:  n.State.Type != "completed" && n.State.Type != "canceled",
		}
		if m := taskKeyFooter.FindStringSubmatch(n.Description); m != nil {
			iss.TaskKey = m[1]
		}
		for _, l := range n.Labels.Nodes {
			if l.Name == tracker.OwnershipLabel {
				iss.Foundry = true
				break
			}
		}
		issues = append(issues, iss)
	}
	sort.Slice(issues, func(i, j int) bool { return issues[i].ID < issues[j].ID })
	return issues, nil
}

// CreateSubIssue implements tracker.Tracker. New issues carry the foundry
// label and the task key footer in the description, and start directly in
// a completed state when completed is true.
func (c *Client) CreateSubIssue(ctx context.Context, parentID, title, taskKey string, completed bool) (string, error) {
	teamID, err := c.teamOf(ctx, parentID)
	if err != nil {
		return "", err
	}
	labelID, err := c.ensureLabel(ctx, teamID)
	if err != nil {
		return "", err
	}

	input := map[string]any{
		"teamId":      teamID,
		"parentId":    parentID,
		"title":       title,
		"description": fmt.Sprintf("<!-- task_key: %s -->", taskKey),
		"labelIds":    []string{labelID},
	}
	if completed {
		st, err := c.statesOf(ctx, teamID)
		if err != nil {
			return "", err
		}
		input["stateId"] = st.completed
	}

	const mutation = `mutation($input: IssueCreateInput!) {
	  issueCreate(input: $input) {
	    success
	    issue { id }
	  }
	}`

	var resp struct {
		IssueCreate struct {
			Success bool `json:"success"`
			Issue   *struct {
				ID string `json:"id"`
			} `json:"issue"`
		} `json:"issueCreate"`
	}
	if err := c.do(ctx, mutation, map[string]any{"input": input}, &resp); err != nil {
		return "", err
	}
	if !resp.IssueCreate.Success || resp.IssueCreate.Issue == nil {
		return "", tracker.Permanent("issueCreate reported failure", nil)
	}
	return resp.IssueCreate.Issue.ID, nil
}

// UpdateTitle implements tracker.Tracker.
func (c *Client) UpdateTitle(ctx context.Context, id, title string) error {
	const mutation = `mutation($id: String!, $input: IssueUpdateInput!) {
	  issueUpdate(id: $id, input: $input) { success }
	}`

	var resp struct {
		IssueUpdate struct {
			Success bool `json:"success"`
		} `json:"issueUpdate"`
	}
	vars := map[string]any{"id": id, "input": map[string]any{"title": title}}
	if err := c.do(ctx, mutation, vars, &resp); err != nil {
		return err
	}
	if !resp.IssueUpdate.Success {
		return tracker.Permanent("issueUpdate reported failure for "+id, nil)
	}
	return nil
}

// SetState implements tracker.Tracker, mapping open=true to the team's
// first unstarted state and open=false to its first completed state.
func (c *Client) SetState(ctx context.Context, id string, open bool) error {
	teamID, err := c.teamOf(ctx, id)
	if err != nil {
		return err
	}
	st, err := c.statesOf(ctx, teamID)
	if err != nil {
		return err
	}
	stateID := st.completed
	if open {
		stateID = st.unstarted
	}

	const mutation = `mutation($id: String!, $input: IssueUpdateInput!) {
	  issueUpdate(id: $id, input: $input) { success }
	}`

	var resp struct {
		IssueUpdate struct {
			Success bool `json:"success"`
		} `json:"issueUpdate"`
	}
	vars := map[string]any{"id": id, "input": map[string]any{"stateId": stateID}}
	if err := c.do(ctx, mutation, vars, &resp); err != nil {
		return err
	}
	if !resp.IssueUpdate.Success {
		return tracker.Permanent("issueUpdate reported failure for "+id, nil)
	}
	return nil
}

// teamOf resolves and caches the team owning an issue.
func (c *Client) teamOf(ctx context.Context, issueID string) (string, error) {
	c.mu.Lock()
	if id, ok := c.teams[issueID]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	const query = `query($id: String!) {
	  issue(id: $id) { team { id } }
	}`

	var resp struct {
		Issue *struct {
			Team struct {
				ID string `json:"id"`
			} `json:"team"`
		} `json:"issue"`
	}
	if err := c.do(ctx, query, map[string]any{"id": issueID}, &resp); err != nil {
		return "", err
	}
	if resp.Issue == nil || resp.Issue.Team.ID == "" {
		return "", tracker.Permanent("issue not found: "+issueID, nil)
	}

	c.mu.Lock()
	c.teams[issueID] = resp.Issue.Team.ID
	c.mu.Unlock()
	return resp.Issue.Team.ID, nil
}

// ensureLabel finds or creates the foundry ownership label for a team.
func (c *Client) ensureLabel(ctx context.Context, teamID string) (string, error) {
	c.mu.Lock()
	if id, ok := c.labels[teamID]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	const query = `query($name: String!) {
	  issueLabels(filter: { name: { eq: $name } }, first: 10) {
	    nodes { id }
	  }
	}`

	var found struct {
		IssueLabels struct {
			Nodes []struct {
				ID string `json:"id"`
			} `json:"nodes"`
		} `json:"issueLabels"`
	}
	if err := c.do(ctx, query, map[string]any{"name": tracker.OwnershipLabel}, &found); err != nil {
		return "", err
	}

	var labelID string
	if len(found.IssueLabels.Nodes) > 0 {
		labelID = found.IssueLabels.Nodes[0].ID
	} else {
		const mutation = `mutation($input: IssueLabelCreateInput!) {
		  issueLabelCreate(input: $input) {
		    success
		    issueLabel { id }
		  }
		}`

		var created struct {
			IssueLabelCreate struct {
				Success    bool `json:"success"`
				IssueLabel *struct {
					ID string `json:"id"`
				} `json:"issueLabel"`
			} `json:"issueLabelCreate"`
		}
		vars := map[string]any{"input": map[string]any{
			"name":   tracker.OwnershipLabel,
			"teamId": teamID,
		}}
		if err := c.do(ctx, mutation, vars, &created); err != nil {
			return "", err
		}
		if !created.IssueLabelCreate.Success || created.IssueLabelCreate.IssueLabel == nil {
			return "", tracker.Permanent("issueLabelCreate reported failure", nil)
		}
		labelID = created.IssueLabelCreate.IssueLabel.ID
	}

	c.mu.Lock()
	c.labels[teamID] = labelID
	c.mu.Unlock()
	return labelID, nil
}

// statesOf resolves and caches the workflow states used for state changes:
// the team's first completed-type state and first unstarted-type state
// (falling back to backlog), both by board position.
func (c *Client) statesOf(ctx context.Context, teamID string) (teamStates, error) {
	c.mu.Lock()
	if st, ok := c.states[teamID]; ok {
		c.mu.Unlock()
		return st, nil
	}
	c.mu.Unlock()

	const query = `query($id: String!) {
	  team(id: $id) {
	    states {
	      nodes { id type position }
	    }
	  }
	}`

	var resp struct {
		Team *struct {
			States struct {
				Nodes []struct {
					ID       string  `json:"id"`
					Type     string  `json:"type"`
					Position float64 `json:"position"`
				} `json:"nodes"`
			} `json:"states"`
		} `json:"team"`
	}
	if err := c.do(ctx, query, map[string]any{"id": teamID}, &resp); err != nil {
		return teamStates{}, err
	}
	if resp.Team == nil {
		return teamStates{}, tracker.Permanent("team not found: "+teamID, nil)
	}

	nodes := resp.Team.States.Nodes
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Position < nodes[j].Position })

	var st teamStates
	for _, n := range nodes {
		switch n.Type {
		case "completed":
			if st.completed == "" {
				st.completed = n.ID
			}
		case "unstarted", "backlog":
			if st.unstarted == "" {
				st.unstarted = n.ID
			}
		}
	}
	if st.completed == "" || st.unstarted == "" {
		return teamStates{}, tracker.Permanent("team "+teamID+" lacks required workflow states", nil)
	}

	c.mu.Lock()
	c.states[teamID] = st
	c.mu.Unlock()
	return st, nil
}

// graphqlError is one entry of a GraphQL errors array.
type graphqlError struct {
	Message string `json:"message"`
}

// do posts one GraphQL request, honoring the rate limit and concurrency
// cap, and classifies every failure path.
func (c *Client) do(ctx context.Context, query string, vars map[string]any, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.sem.Release(1)

	body, err := json.Marshal(map[string]any{"query": query, "variables": vars})
	if err != nil {
		return tracker.Permanent("encoding request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return tracker.Permanent("building request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.cfg.Token)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return tracker.Transient("network error", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return tracker.Transient("reading response", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return tracker.Transient("rate limited", fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode >= 500:
		return tracker.Transient("server error", fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return tracker.Permanent(fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(data, 200)), nil)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphqlError  `json:"errors"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return tracker.Permanent("decoding response", err)
	}
	if len(envelope.Errors) > 0 {
		return tracker.Permanent("graphql: "+envelope.Errors[0].Message, nil)
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return tracker.Permanent("decoding data", err)
		}
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
