package engine

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/qualbot/qualbot/internal/category"
	"github.com/qualbot/qualbot/internal/llm"
	"github.com/qualbot/qualbot/internal/session"
	"github.com/qualbot/qualbot/internal/vectordb"
)

const systemPrompt = `You are an assistant for a qualifications and accreditation agency.
Answer the user's question using only the reference passages provided.
Cite the source document name when it is relevant. If the passages do not
contain the information needed, say that you don't know rather than guessing.`

// buildPrompt assembles the grounded conversation sent to the completion
// service: system instructions, the retrieved passages truncated to the
// character budget, the recent history, and the category-framed question.
func buildPrompt(cat category.Category, query string, results []vectordb.Result, history []session.Turn, budget int) []llm.Message {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleSystem, Content: "Reference passages:\n\n" + renderPassages(results, budget)},
	}

	for _, turn := range history {
		messages = append(messages,
			llm.Message{Role: llm.RoleUser, Content: turn.Query},
			llm.Message{Role: llm.RoleAssistant, Content: turn.Answer},
		)
	}

	framed := fmt.Sprintf("Regarding %s: %s", cat.Title(), query)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: framed})

	return messages
}

// renderPassages lists passages in score order until the character budget
// runs out. At least one passage is always included, truncated if needed,
// so the model never receives an empty reference block.
func renderPassages(results []vectordb.Result, budget int) string {
	if len(results) == 0 {
		return "(none)"
	}
	if budget <= 0 {
		budget = 6000
	}

	var sb strings.Builder
	for i, r := range results {
		block := fmt.Sprintf("[%d] %s (passage %d)\n%s\n\n", i+1, r.Passage.Document, r.Passage.Index+1, r.Passage.Text)
		if sb.Len()+len(block) > budget {
			if i == 0 {
				cut := budget
				for cut > 0 && !utf8.RuneStart(block[cut]) {
					cut--
				}
				sb.WriteString(block[:cut])
			}
			break
		}
		sb.WriteString(block)
	}
	return strings.TrimSpace(sb.String())
}
