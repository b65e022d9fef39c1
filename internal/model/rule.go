package model

type RegulatoryRule struct {
	ID               int64  `json:"id"`
	DocumentID       string `json:"document_id"`
	ChunkIndex       int    `json:"chunk_index"`
	RuleID           string `json:"rule_id"`
	RuleSummary      string `json:"rule_summary"`
	MeasurementBasis string `json:"measurement_basis"`
	Ctime            int64  `json:"ctime"`
}
