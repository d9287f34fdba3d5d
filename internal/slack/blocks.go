package slack

import (
	"fmt"
	"strings"

	slackapi "github.com/slack-go/slack"

	"github.com/emiliopalmerini/effortmap/internal/effort"
)

// EffortBlocks builds the Block Kit message for one effort graph: header,
// inline chart image, and the workstream distribution as text. Percentages
// come from the shared normalizer so the text agrees with the chart.
// shareURL, when non-empty, appends a link button.
func EffortBlocks(graph *effort.Graph, chartURL, shareURL string) []slackapi.Block {
	blocks := []slackapi.Block{
		slackapi.NewHeaderBlock(plainText(graph.Name)),
		slackapi.NewImageBlock(chartURL, fmt.Sprintf("%s effort distribution chart", graph.Name), "", nil),
		slackapi.NewSectionBlock(markdown("*Workstream Distribution:*"), nil, nil),
		slackapi.NewSectionBlock(markdown(distributionText(graph.Workstreams)), nil, nil),
	}

	if shareURL != "" {
		button := slackapi.NewButtonBlockElement("view_effort", graph.ID, plainText("View Interactive Chart"))
		button.URL = shareURL
		blocks = append(blocks, slackapi.NewActionBlock("effort_actions", button))
	}

	return blocks
}

// LinkPromptBlocks is the response for a command that requires a linked
// account: an explanation plus an OAuth button.
func LinkPromptBlocks(linkURL string) []slackapi.Block {
	button := slackapi.NewButtonBlockElement("link_account", "link", plainText("Link Account"))
	button.URL = linkURL
	button.Style = slackapi.StylePrimary

	return []slackapi.Block{
		slackapi.NewSectionBlock(markdown("Your Slack account isn't linked yet. Link it to manage your efforts from Slack."), nil, nil),
		slackapi.NewActionBlock("link_actions", button),
	}
}

// EffortListBlocks lists a user's graphs with their workstream summaries.
func EffortListBlocks(graphs []effort.Graph) []slackapi.Block {
	blocks := []slackapi.Block{
		slackapi.NewHeaderBlock(plainText("Your Efforts")),
	}
	for i := range graphs {
		g := &graphs[i]
		text := fmt.Sprintf("*%s*\n%s", g.Name, distributionText(g.Workstreams))
		blocks = append(blocks, slackapi.NewSectionBlock(markdown(text), nil, nil))
	}
	return blocks
}

func distributionText(workstreams []effort.Workstream) string {
	percentages := effort.Percentages(workstreams)
	lines := make([]string, len(workstreams))
	for i, ws := range workstreams {
		lines[i] = fmt.Sprintf("• *%s*: %.1f%%", ws.Name, percentages[i])
	}
	return strings.Join(lines, "\n")
}

func plainText(s string) *slackapi.TextBlockObject {
	return slackapi.NewTextBlockObject(slackapi.PlainTextType, s, false, false)
}

func markdown(s string) *slackapi.TextBlockObject {
	return slackapi.NewTextBlockObject(slackapi.MarkdownType, s, false, false)
}
