package rag

import (
	"fmt"
	"strings"

	"github.com/arturoeanton/vitaldocs-rag/internal/domain"
)

// RefusalMessage is returned verbatim when the guidelines do not cover a question.
const RefusalMessage = "I cannot answer this based on the provided clinical guidelines. Please consult the full CDC guidelines at cdc.gov."

// NoContextInstruction is the system prompt used when retrieval found nothing.
const NoContextInstruction = `You are VitalDocs AI. No relevant clinical guidelines were found for this query. Respond EXACTLY with: "` + RefusalMessage + `"`

// ContextSeparator joins rendered context blocks.
const ContextSeparator = "\n\n---\n\n"

const contextInstruction = `You are VitalDocs AI, a clinical decision support assistant for US healthcare professionals.
Your knowledge comes EXCLUSIVELY from the following CDC clinical guidelines.

CRITICAL RULES:
1. ONLY answer using the provided context below.
2. You MUST cite every source you use. After each sentence or paragraph that uses information from a source, append the citation marker in EXACTLY this format: [Source N: <exact title from context>] where N matches the source number in the context below. Copy the title verbatim; never shorten, paraphrase or reformat it.
3. If the context does not contain enough information, respond EXACTLY with: "%s" and nothing else.
4. Do NOT speculate, invent data, or use general knowledge outside this context.
5. End your response with a brief reminder that this is a clinical decision support tool, not a substitute for professional judgment.

CITATION FORMAT EXAMPLE:
"Measles prodrome includes fever, cough, and coryza. %s Koplik spots are pathognomonic and appear before the rash. %s"

--- CLINICAL GUIDELINES CONTEXT ---
%s
--- END OF CONTEXT ---`

// PromptContext is the assembled system prompt for one chat turn.
type PromptContext struct {
	System     string
	Context    string
	HasContext bool
}

// RenderContext renders each result as a numbered block, numbering from 1 in retrieval order.
func RenderContext(results []domain.RetrievalResult) string {
	blocks := make([]string, len(results))
	for i, r := range results {
		blocks[i] = FormatCitation(i+1, r.Title) + "\n" + r.Content
	}
	return strings.Join(blocks, ContextSeparator)
}

// Assemble picks the system instruction for the retrieved results.
func Assemble(results []domain.RetrievalResult) PromptContext {
	if len(results) == 0 {
		return PromptContext{System: NoContextInstruction}
	}
	rendered := RenderContext(results)
	example := FormatCitation(1, "CDC Clinical Overview of Measles")
	return PromptContext{
		System:     fmt.Sprintf(contextInstruction, RefusalMessage, example, example, rendered),
		Context:    rendered,
		HasContext: true,
	}
}
