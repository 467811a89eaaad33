// Package notify posts remediation results to Slack through an incoming
// webhook, formatted as Block Kit messages.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/keyreaper/keyreaper/internal/classify"
	"github.com/keyreaper/keyreaper/internal/gitmeta"
	"github.com/keyreaper/keyreaper/internal/types"
)

type Payload struct {
	Blocks []Block `json:"blocks"`
}

type Block struct {
	Type     string    `json:"type"`
	Text     *Text     `json:"text,omitempty"`
	Fields   []Text    `json:"fields,omitempty"`
	Elements []Element `json:"elements,omitempty"`
}

type Text struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type Element struct {
	Type  string `json:"type"`
	Text  *Text  `json:"text,omitempty"`
	URL   string `json:"url,omitempty"`
	Style string `json:"style,omitempty"`
}

func mrkdwn(s string) *Text   { return &Text{Type: "mrkdwn", Text: s} }
func plain(s string) *Text    { return &Text{Type: "plain_text", Text: s} }
func divider() Block          { return Block{Type: "divider"} }
func section(t *Text) Block   { return Block{Type: "section", Text: t} }
func fields(ts ...Text) Block { return Block{Type: "section", Fields: ts} }

type Notifier struct {
	webhookURL string
	client     *http.Client
}

func NewNotifier(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts a payload to the webhook. Slack answers incoming webhooks with
// a plain 200 "ok"; anything else is a failure worth surfacing.
func (n *Notifier) Send(ctx context.Context, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding slack payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting to slack: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 1024)) //nolint:errcheck
		return fmt.Errorf("slack webhook returned %d: %s", resp.StatusCode, string(text))
	}
	return nil
}

func statusTag(s types.Status) string {
	switch s {
	case types.StatusDeactivated:
		return "[done]"
	case types.StatusFailed:
		return "[failed]"
	case types.StatusNotFound:
		return "[not found]"
	}
	return "[?]"
}

// BuildIncidentMessage renders a remediation report as a Slack incident
// alert: summary, per-key outcome sections, the general catalog and action
// buttons linking back to the offending commit and the run.
func BuildIncidentMessage(r types.Report, gc gitmeta.Context) Payload {
	blocks := []Block{
		{Type: "header", Text: plain("Secret leak detected and auto-remediation complete")},
	}

	total := len(r.AWSKeys) + len(r.GeneralSecrets)
	deactivated := 0
	for _, k := range r.AWSKeys {
		if k.Status == types.StatusDeactivated {
			deactivated++
		}
	}
	actor := gc.Actor
	if actor == "" {
		actor = "N/A"
	}
	summary := fmt.Sprintf("*%d leaked secret(s) detected*\n", total)
	if len(r.AWSKeys) > 0 {
		summary += fmt.Sprintf("• AWS keys: %d (deactivated: %d)\n", len(r.AWSKeys), deactivated)
	}
	if len(r.GeneralSecrets) > 0 {
		summary += fmt.Sprintf("• General secrets: %d\n", len(r.GeneralSecrets))
	}
	summary += "• Commit author: " + actor
	blocks = append(blocks, section(mrkdwn(summary)), divider())

	if len(r.AWSKeys) > 0 {
		blocks = append(blocks, section(mrkdwn("*AWS Access Keys (auto-deactivated)*")))
		for i, k := range r.AWSKeys {
			owner := "Unknown"
			if k.UserName != nil && *k.UserName != "" {
				owner = *k.UserName
			}
			text := fmt.Sprintf(
				"*#%d* %s\n• Key ID: `%s`\n• Owner: %s\n• Location: %s (Line %d)\n• Status: %s\n• Confidence: %.1f%%",
				i+1, statusTag(k.Status), k.AccessKeyID, owner, k.Path, k.Line, k.Message, k.Confidence*100,
			)
			blocks = append(blocks, section(mrkdwn(text)))
		}
		blocks = append(blocks, divider())
	}

	if len(r.GeneralSecrets) > 0 {
		blocks = append(blocks, section(mrkdwn("*General secrets (manual review required)*")))
		for i, g := range r.GeneralSecrets {
			text := fmt.Sprintf(
				"*#%d*\n• Type: %s\n• Location: %s (Line %d)\n• Preview: `%s`\n• Confidence: %.1f%%",
				i+1, g.SecretType, g.Path, g.Line, g.Preview, g.Confidence*100,
			)
			blocks = append(blocks, section(mrkdwn(text)))
		}
		blocks = append(blocks, divider())
	}

	var elements []Element
	if url := gc.CommitURL(); url != "" {
		elements = append(elements, Element{
			Type:  "button",
			Text:  plain("View offending commit"),
			URL:   url,
			Style: "danger",
		})
	}
	if url := gc.RunURL(); url != "" {
		elements = append(elements, Element{
			Type: "button",
			Text: plain("View run logs"),
			URL:  url,
		})
	}
	if len(elements) > 0 {
		blocks = append(blocks, Block{Type: "actions", Elements: elements})
	}

	return Payload{Blocks: blocks}
}

// BuildClassifierMessage summarizes a classifier pass: how much noise the
// model filtered out of the raw scanner output.
func BuildClassifierMessage(sum classify.Summary, backend classify.Backend, gc gitmeta.Context) Payload {
	filtered := 0.0
	if sum.Total > 0 {
		filtered = float64(sum.PredictedFalse) / float64(sum.Total) * 100
	}
	blocks := []Block{
		{Type: "header", Text: plain("Secret classification complete")},
		section(mrkdwn(fmt.Sprintf("*The classifier filtered %.1f%% of raw findings as noise*", filtered))),
		divider(),
		fields(
			Text{Type: "mrkdwn", Text: fmt.Sprintf("*Total findings*\n%d", sum.Total)},
			Text{Type: "mrkdwn", Text: fmt.Sprintf("*Actionable (Y)*\n%d", sum.PredictedTrue)},
		),
		fields(
			Text{Type: "mrkdwn", Text: fmt.Sprintf("*Filtered (N)*\n%d", sum.PredictedFalse)},
			Text{Type: "mrkdwn", Text: fmt.Sprintf("*Errors*\n%d", sum.Errors)},
		),
		section(mrkdwn(fmt.Sprintf("• Backend: %s\n• Fallback used: %t", backend, sum.FallbackUsed))),
	}
	if url := gc.RunURL(); url != "" {
		blocks = append(blocks, Block{
			Type: "actions",
			Elements: []Element{{
				Type:  "button",
				Text:  plain("View detailed results"),
				URL:   url,
				Style: "primary",
			}},
		})
	}
	return Payload{Blocks: blocks}
}
