package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/itchyny/gojq"
	"gopkg.in/yaml.v3"
)

// printer writes command results as json or yaml, optionally through a
// jq filter. Table output is left to each command.
type printer struct {
	w      io.Writer
	format string
	jq     string
}

// structured reports whether the command should skip its table
func (p *printer) structured() bool {
	return p.format == "json" || p.format == "yaml" || p.jq != ""
}

func (p *printer) print(v any) error {
	plain, err := toPlain(v)
	if err != nil {
		return err
	}
	if p.jq == "" {
		return p.encode(plain)
	}

	query, err := gojq.Parse(p.jq)
	if err != nil {
		return fmt.Errorf("parse --jq: %w", err)
	}
	iter := query.Run(plain)
	for {
		out, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, ok := out.(error); ok {
			return fmt.Errorf("run --jq: %w", err)
		}
		if err := p.encode(out); err != nil {
			return err
		}
	}
}

func (p *printer) encode(v any) error {
	if p.format == "yaml" {
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// toPlain round-trips v through JSON so gojq and yaml see only maps,
// slices and scalars, with the same field names the API uses.
func toPlain(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var plain any
	if err := json.Unmarshal(raw, &plain); err != nil {
		return nil, err
	}
	return plain, nil
}
