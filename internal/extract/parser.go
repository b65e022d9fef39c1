package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/proplens/proplens/internal/model"
)

var (
	jsonBlockRe    = regexp.MustCompile(`(?s)(\{.*\}|\[.*\])`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
	nonNameRe      = regexp.MustCompile(`^[\d\W]+$`)
	durationDaysRe = regexp.MustCompile(`(\d+)\s*d`)
	digitsRe       = regexp.MustCompile(`\d+`)
)

// Date layouts seen across real schedules; tried in order.
var dateLayouts = []string{
	"02-Jan-06", "02-Jan-2006", "2006-01-02",
	"01/02/06", "01/02/2006", "02.01.06",
}

var headerLikeNames = map[string]struct{}{
	"task name":   {},
	"task":        {},
	"name":        {},
	"activity":    {},
	"description": {},
}

type rawTask struct {
	TaskID       json.RawMessage `json:"task_id"`
	TaskName     string          `json:"task_name"`
	DurationDays json.RawMessage `json:"duration_days"`
	StartDate    string          `json:"start_date"`
	FinishDate   string          `json:"finish_date"`
	Building     string          `json:"building"`
}

type rawRule struct {
	RuleID           string `json:"rule_id"`
	RuleSummary      string `json:"rule_summary"`
	MeasurementBasis string `json:"measurement_basis"`
}

type taskEnvelope struct {
	Tasks []rawTask `json:"tasks"`
}

type ruleEnvelope struct {
	Rules []rawRule `json:"rules"`
}

// ParseResponse turns raw model output for one chunk into a validated commit
// unit. Individual malformed elements are dropped with a recorded reason; only
// an undecodable response fails the whole chunk.
func ParseResponse(chunk Chunk, rawText string) (*CommitUnit, *ChunkError) {
	cleaned := extractJSONBlock(rawText)
	if cleaned == "" {
		return nil, newChunkError(ClassParseFailure, nil, "no JSON block in model output")
	}
	unit := &CommitUnit{DocumentID: chunk.DocumentID, ChunkIndex: chunk.Index}
	switch chunk.Kind {
	case KindRegulatory:
		if err := parseRules(cleaned, unit); err != nil {
			return nil, err
		}
	default:
		if err := parseTasks(cleaned, unit); err != nil {
			return nil, err
		}
	}
	buildSemanticChunks(unit)
	return unit, nil
}

// extractJSONBlock strips markdown code fences and keeps the first top-level
// object or array, tolerating prose around the payload.
func extractJSONBlock(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return jsonBlockRe.FindString(s)
}

func parseTasks(cleaned string, unit *CommitUnit) *ChunkError {
	var envelope taskEnvelope
	if err := json.Unmarshal([]byte(cleaned), &envelope); err != nil {
		// some models answer with a bare array
		var bare []rawTask
		if arrErr := json.Unmarshal([]byte(cleaned), &bare); arrErr != nil {
			return newChunkError(ClassParseFailure, err, "undecodable task payload")
		}
		envelope.Tasks = bare
	}
	now := time.Now().UnixMilli()
	for _, raw := range envelope.Tasks {
		task, reason := validateTask(raw)
		if reason != "" {
			unit.Dropped = append(unit.Dropped, DroppedRow{Reason: reason, Raw: raw.TaskName})
			continue
		}
		task.DocumentID = unit.DocumentID
		task.ChunkIndex = unit.ChunkIndex
		task.Ctime = now
		unit.Tasks = append(unit.Tasks, *task)
	}
	return nil
}

func parseRules(cleaned string, unit *CommitUnit) *ChunkError {
	var envelope ruleEnvelope
	if err := json.Unmarshal([]byte(cleaned), &envelope); err != nil {
		var bare []rawRule
		if arrErr := json.Unmarshal([]byte(cleaned), &bare); arrErr != nil {
			return newChunkError(ClassParseFailure, err, "undecodable rule payload")
		}
		envelope.Rules = bare
	}
	now := time.Now().UnixMilli()
	for _, raw := range envelope.Rules {
		ruleID := cleanText(raw.RuleID)
		summary := cleanText(raw.RuleSummary)
		if ruleID == "" {
			unit.Dropped = append(unit.Dropped, DroppedRow{Reason: "missing rule_id", Raw: summary})
			continue
		}
		if summary == "" {
			unit.Dropped = append(unit.Dropped, DroppedRow{Reason: "missing rule_summary", Raw: ruleID})
			continue
		}
		basis := cleanText(raw.MeasurementBasis)
		if basis == "" {
			basis = "N/A"
		}
		unit.Rules = append(unit.Rules, model.RegulatoryRule{
			DocumentID:       unit.DocumentID,
			ChunkIndex:       unit.ChunkIndex,
			RuleID:           ruleID,
			RuleSummary:      summary,
			MeasurementBasis: basis,
			Ctime:            now,
		})
	}
	return nil
}

func validateTask(raw rawTask) (*model.ProjectTask, string) {
	taskID, ok := coerceInt(raw.TaskID)
	if !ok || taskID <= 0 {
		return nil, "missing or non-numeric task_id"
	}
	if taskID > 99999 {
		return nil, "task_id out of range"
	}
	name := cleanTaskName(raw.TaskName)
	if name == "" {
		return nil, "invalid task_name"
	}
	duration, _ := coerceDuration(raw.DurationDays)
	task := &model.ProjectTask{
		TaskID:       taskID,
		TaskName:     name,
		DurationDays: duration,
		Building:     cleanText(raw.Building),
	}
	if raw.StartDate != "" {
		t, parsed := parseDateFlexible(raw.StartDate)
		if !parsed {
			return nil, fmt.Sprintf("unparseable start_date %q", raw.StartDate)
		}
		task.StartDate = &t
	}
	if raw.FinishDate != "" {
		t, parsed := parseDateFlexible(raw.FinishDate)
		if !parsed {
			return nil, fmt.Sprintf("unparseable finish_date %q", raw.FinishDate)
		}
		task.FinishDate = &t
	}
	return task, ""
}

func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// cleanTaskName rejects garbage names: overlong text, numeric or symbol-only
// strings, and column headers that leaked into the data rows.
func cleanTaskName(name string) string {
	name = cleanText(name)
	if name == "" || len(name) > 200 {
		return ""
	}
	if nonNameRe.MatchString(name) {
		return ""
	}
	if _, ok := headerLikeNames[strings.ToLower(name)]; ok {
		return ""
	}
	return name
}

// coerceInt accepts numbers, numeric strings and float-typed ids.
func coerceInt(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return int(n), true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if v, convErr := strconv.Atoi(s); convErr == nil {
			return v, true
		}
	}
	return 0, false
}

// coerceDuration accepts 10, "10", "10 d" and "10 days".
func coerceDuration(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return int(n), true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	s = strings.ToLower(strings.TrimSpace(s))
	if m := durationDaysRe.FindStringSubmatch(s); m != nil {
		v, _ := strconv.Atoi(m[1])
		return v, true
	}
	if m := digitsRe.FindString(s); m != "" {
		v, _ := strconv.Atoi(m)
		return v, true
	}
	return 0, false
}

func parseDateFlexible(s string) (time.Time, bool) {
	s = cleanText(s)
	s = strings.TrimSpace(strings.ReplaceAll(s, "|", ""))
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// buildSemanticChunks derives the vector payload for a commit unit: one
// row-level chunk per entity plus a per-building summary of the unit's tasks.
// IDs are deterministic per provenance so a re-commit overwrites in place.
func buildSemanticChunks(unit *CommitUnit) {
	seq := 0
	nextID := func() string {
		id := fmt.Sprintf("%s:%d:%d", unit.DocumentID, unit.ChunkIndex, seq)
		seq++
		return id
	}
	provenance := func(meta map[string]string) map[string]string {
		meta["document_id"] = unit.DocumentID
		meta["chunk_index"] = strconv.Itoa(unit.ChunkIndex)
		return meta
	}

	for _, task := range unit.Tasks {
		var sb strings.Builder
		fmt.Fprintf(&sb, "Task %d: %s. Duration: %d days.", task.TaskID, task.TaskName, task.DurationDays)
		if task.StartDate != nil {
			fmt.Fprintf(&sb, " Start: %s.", task.StartDate.Format("2006-01-02"))
		}
		if task.FinishDate != nil {
			fmt.Fprintf(&sb, " Finish: %s.", task.FinishDate.Format("2006-01-02"))
		}
		unit.Chunks = append(unit.Chunks, model.SemanticChunk{
			ID:   nextID(),
			Text: sb.String(),
			Metadata: provenance(map[string]string{
				"type":     "task",
				"building": task.Building,
				"task_id":  strconv.Itoa(task.TaskID),
				"source":   "Schedule",
			}),
		})
	}
	for _, summary := range summarizeByBuilding(unit.Tasks) {
		unit.Chunks = append(unit.Chunks, model.SemanticChunk{
			ID:   nextID(),
			Text: summary.text,
			Metadata: provenance(map[string]string{
				"type":     "summary",
				"building": summary.building,
				"source":   "Schedule",
			}),
		})
	}
	for _, rule := range unit.Rules {
		unit.Chunks = append(unit.Chunks, model.SemanticChunk{
			ID:   nextID(),
			Text: fmt.Sprintf("Rule %s: %s Measurement basis: %s", rule.RuleID, rule.RuleSummary, rule.MeasurementBasis),
			Metadata: provenance(map[string]string{
				"type":    "rule",
				"rule_id": rule.RuleID,
				"source":  "URA",
			}),
		})
	}
}

type buildingSummary struct {
	building string
	text     string
}

func summarizeByBuilding(tasks []model.ProjectTask) []buildingSummary {
	if len(tasks) == 0 {
		return nil
	}
	groups := map[string][]model.ProjectTask{}
	for _, t := range tasks {
		building := t.Building
		if building == "" {
			building = "UNSPECIFIED"
		}
		groups[building] = append(groups[building], t)
	}
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	summaries := make([]buildingSummary, 0, len(names))
	for _, building := range names {
		rows := groups[building]
		total := 0
		longest := rows[0]
		for _, t := range rows {
			total += t.DurationDays
			if t.DurationDays > longest.DurationDays {
				longest = t
			}
		}
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].DurationDays > rows[j].DurationDays })
		lines := []string{
			fmt.Sprintf("%s — Summary:", building),
			fmt.Sprintf("Total tasks: %d", len(rows)),
			fmt.Sprintf("Total duration: %d days", total),
			fmt.Sprintf("Longest task: %s (%d days)", longest.TaskName, longest.DurationDays),
		}
		for _, t := range rows {
			lines = append(lines, fmt.Sprintf("- %s (%d days)", t.TaskName, t.DurationDays))
		}
		summaries = append(summaries, buildingSummary{building: building, text: strings.Join(lines, "\n")})
	}
	return summaries
}
