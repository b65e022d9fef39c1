package model

type DocumentType string

const (
	DocTypeSchedule   DocumentType = "project_schedule"
	DocTypeRegulatory DocumentType = "ura_circular"
)

func (t DocumentType) Valid() bool {
	return t == DocTypeSchedule || t == DocTypeRegulatory
}

const (
	DocumentStatePending    = 1
	DocumentStateExtracting = 2
	DocumentStateExtracted  = 3
	DocumentStateFailed     = 4
)

type Document struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	DocType DocumentType `json:"doc_type"`
	State   int          `json:"state"`
	Ctime   int64        `json:"ctime"`
	Mtime   int64        `json:"mtime"`
}
