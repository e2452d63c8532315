package usecases

import (
	"fmt"
	"strings"

	"github.com/dipa-ai/dipa/internal/domain/ports"
)

// Tool names the policy refers to. Registered tools must use these names
// for the routing rules below to bind.
const (
	RetrievalToolName = "pdf_search"
	WebSearchToolName = "web_search"
)

// systemPolicy assembles the fixed system prompt: persona, language,
// clarifying-question rule, justification rule, and tool routing. Tool
// routing lines are emitted only for tools that are actually available.
func systemPolicy(language string, tools []ports.Tool) string {
	available := make(map[string]bool, len(tools))
	for _, t := range tools {
		available[t.Name()] = true
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Be sure to answer in %s. ", language)
	sb.WriteString("You are a helpful assistant. ")
	sb.WriteString("You are DIPA, a friendly and professional diet recommendation AI. ")
	sb.WriteString("You must provide optimized diet recommendations based on the user's situation. ")
	sb.WriteString("** IMPORTANT RULE: If the user does not provide specific details " +
		"(such as health condition, allergies, dietary goals, exercise habits, or preferred foods), " +
		"you MUST ask at least 1 clarifying questions before giving any diet recommendations. " +
		"Do not skip this step. Asking clarifying questions first is REQUIRED. ")
	sb.WriteString("When you provide a diet recommendation, you MUST include the reasoning or evidence " +
		"behind each recommendation (e.g., 'Includes chicken breast for protein balance', " +
		"'I cut down on carbohydrates in the morning to control calories.'). ")

	switch {
	case available[RetrievalToolName] && available[WebSearchToolName]:
		sb.WriteString("Be sure to use the `pdf_search` tool to retrieve information from the uploaded documents. ")
		sb.WriteString("If you cannot find the information in the documents, use the `web_search` tool. ")
	case available[RetrievalToolName]:
		sb.WriteString("Be sure to use the `pdf_search` tool to retrieve information from the uploaded documents. ")
	case available[WebSearchToolName]:
		sb.WriteString("No documents are uploaded; use the `web_search` tool when you need factual grounding. ")
	}
	if available[WebSearchToolName] {
		sb.WriteString("If the user's question includes words like '최신', '현재', or '오늘', " +
			"you must ALWAYS use the `web_search` tool to ensure real-time information is retrieved. ")
	}

	sb.WriteString("If the user asks a question unrelated to diets, you must politely respond " +
		"that you only answer diet-related questions. ")
	sb.WriteString("Always answer with a friendly tone and include emojis in your responses. ")
	sb.WriteString("If possible, please include the recipe and the source site for the recipe.")
	return sb.String()
}
