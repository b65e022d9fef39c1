package extract

import (
	"fmt"
	"strings"

	"github.com/proplens/proplens/internal/model"
)

const schedulePromptTemplate = `You are a Data Engineer. Extract construction tasks from this table fragment.

Context:
- Columns: ID | Task Name | Duration | Start | Finish

Instructions:
1. Return ONLY valid JSON with a key 'tasks'.
2. Schema: { "task_id": int, "task_name": str, "duration_days": int, "start_date": "YYYY-MM-DD", "finish_date": "YYYY-MM-DD" }
3. CRITICAL: Do NOT merge multiple rows into one task. Keep task_name short and precise.
4. If a row has multiple unrelated concepts, split them or pick the main one.
5. Skip rows where ID is empty or not a number.

Table Data:
%s`

const regulatoryPromptTemplate = `Extract 'Regulatory Rules' from this text.
Return a JSON object: { "rules": [ { "rule_id": "...", "rule_summary": "...", "measurement_basis": "..." } ] }

Text:
%s`

// BuildPrompt renders the chunk's rows into the prompt for its content kind.
// Table rows are pipe-joined so the model sees one row per line.
func BuildPrompt(chunk Chunk) string {
	switch chunk.Kind {
	case KindRegulatory:
		return fmt.Sprintf(regulatoryPromptTemplate, renderRows(chunk.Rows))
	default:
		return fmt.Sprintf(schedulePromptTemplate, renderRows(chunk.Rows))
	}
}

func renderRows(rows []model.RawRow) string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row.Cells) > 0 {
			lines = append(lines, strings.Join(row.Cells, " | "))
			continue
		}
		lines = append(lines, row.Text)
	}
	return strings.Join(lines, "\n")
}
