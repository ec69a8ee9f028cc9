package export

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONExporter exports sessions as one indented JSON document
type JSONExporter struct{}

func (e *JSONExporter) Export(session *Session, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(session)
}

func (e *JSONExporter) Extension() string {
	return "json"
}

// JSONLExporter exports one turn per line
type JSONLExporter struct{}

func (e *JSONLExporter) Export(session *Session, w io.Writer) error {
	enc := json.NewEncoder(w)
	for _, turn := range session.Turns {
		if err := enc.Encode(turn); err != nil {
			return fmt.Errorf("encode turn %d: %w", turn.Seq, err)
		}
	}
	return nil
}

func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
