package llm

import "fmt"

// SystemPrompt is the fixed planner instruction sent with every request.
const SystemPrompt = `You are an HR query planner.

Rules:
- Use ONLY the provided schema
- Do NOT invent doctypes or fields
- For Select fields, use values EXACTLY as shown in schema options
- Prefer canonical identity fields (e.g., employee_name over first_name)
- Use date literals like today, yesterday, this_week instead of guessing dates
- Output ONLY valid JSON
- No explanations, no markdown
- If unsure, set confidence below 0.6`

const userPromptTemplate = `Available Schema:
%s

User Query:
"%s"

Return a JSON object with:
- action
- doctype
- fields
- filters
- joins
- confidence`

// RenderUserPrompt fills the schema/query template.
func RenderUserPrompt(schemaText, query string) string {
	return fmt.Sprintf(userPromptTemplate, schemaText, query)
}
