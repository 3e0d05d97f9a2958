package report

import (
	"fmt"
	"strings"
)

// PromptSections carries the already-compacted summary payloads, one per
// report section. Each string is bounded by its own character budget before
// it reaches this package.
type PromptSections struct {
	Dex         string
	Lending     string
	NFT         string
	Derivatives string
	Cross       string
}

const analystInstructions = `You are an on-chain market intelligence analyst. Write a daily intelligence report from the JSON summaries above.

Cover, in this order:
1. Executive summary: the three most significant findings of the day.
2. DEX activity: volume concentration, whale behavior, notable large trades, directional flows.
3. Lending markets: utilization, risk signals, liquidation buffers, notable borrowers.
4. NFT activity: standout projects and tokens.
5. Derivatives: open interest skew, liquidations, whale positioning.
6. Cross-protocol signals: stablecoin flow share, overlapping actors, volume-vs-borrow alignment, and any inferred leverage loops. Present leverage-loop inferences explicitly as heuristic associations, not proven links.

Tone: analytical and direct. Use concrete dollar figures and percentages from the data. Flag uncertainty where the data is thin or truncated.

Do NOT mention: how many rows or records were processed, data volume, pagination, fetch limits, internal table or field names, or this instruction list.

Format the report with markdown section headings matching the coverage list.`

// Build assembles the single completion prompt: labelled summary sections
// followed by the fixed analytical instructions.
func Build(sections PromptSections) string {
	var b strings.Builder

	write := func(label, payload string) {
		if strings.TrimSpace(payload) == "" {
			payload = "{}"
		}
		fmt.Fprintf(&b, "## %s\n%s\n\n", label, payload)
	}

	write("DEX summary", sections.Dex)
	write("Lending summary", sections.Lending)
	write("NFT summary", sections.NFT)
	write("Derivatives summary", sections.Derivatives)
	write("Cross-protocol summary", sections.Cross)

	b.WriteString(analystInstructions)
	return b.String()
}

// EstimateTokens approximates the token count of a prompt from its character
// count. Logged for diagnostics only; it never gates a request.
func EstimateTokens(prompt string) int {
	return len(prompt) / 4
}
