package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// DocumentStatus represents the lifecycle state of a receipt or invoice
type DocumentStatus int

const (
	DocumentStatusActive    DocumentStatus = 0
	DocumentStatusCancelled DocumentStatus = 1
	DocumentStatusRefunded  DocumentStatus = 2
)

var documentStatusNames = [...]string{"active", "cancelled", "refunded"}

func (s DocumentStatus) String() string {
	if s < 0 || int(s) >= len(documentStatusNames) {
		return "unknown"
	}
	return documentStatusNames[s]
}

// ParseDocumentStatus maps the API name back to a status.
func ParseDocumentStatus(name string) (DocumentStatus, error) {
	for i, n := range documentStatusNames {
		if n == name {
			return DocumentStatus(i), nil
		}
	}
	return DocumentStatusActive, fmt.Errorf("unknown document status %q", name)
}

// IsTerminal reports whether no further transition is allowed.
func (s DocumentStatus) IsTerminal() bool {
	return s == DocumentStatusCancelled || s == DocumentStatusRefunded
}

// CanTransitionTo encodes active -> {cancelled, refunded}; both targets are terminal.
func (s DocumentStatus) CanTransitionTo(next DocumentStatus) bool {
	return s == DocumentStatusActive && next.IsTerminal()
}

func (s DocumentStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *DocumentStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = DocumentStatus(i)
		return nil
	}
	status, err := ParseDocumentStatus(str)
	if err != nil {
		return err
	}
	*s = status
	return nil
}

func (s DocumentStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *DocumentStatus) Scan(value interface{}) error {
	if value == nil {
		*s = DocumentStatusActive
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = DocumentStatus(v)
	case int32:
		*s = DocumentStatus(v)
	case int:
		*s = DocumentStatus(v)
	default:
		return fmt.Errorf("failed to scan DocumentStatus: unsupported type %T", value)
	}
	return nil
}
