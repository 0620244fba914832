package validation

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"
)

// MergePatcher applies RFC 7386 merge patches restricted to a set of fields
type MergePatcher struct {
	allowed map[string]bool
}

// NewMergePatcher creates a patcher that only lets the given top-level fields change
func NewMergePatcher(fields ...string) *MergePatcher {
	allowed := make(map[string]bool, len(fields))
	for _, f := range fields {
		allowed[f] = true
	}
	return &MergePatcher{allowed: allowed}
}

// Apply merges patch into current (any JSON-marshalable value) and decodes
// the result into out. Unknown fields and null deletions are rejected.
func (p *MergePatcher) Apply(current any, patch []byte, out any) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(patch, &fields); err != nil {
		return fmt.Errorf("patch must be a JSON object: %w", err)
	}
	if len(fields) == 0 {
		return FieldErrors{"patch": "must change at least one field"}
	}

	problems := FieldErrors{}
	for name, raw := range fields {
		if !p.allowed[name] {
			problems[name] = "cannot be patched"
			continue
		}
		if string(raw) == "null" {
			problems[name] = "cannot be removed"
		}
	}
	if len(problems) > 0 {
		return problems
	}

	original, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("failed to encode current document: %w", err)
	}

	merged, err := jsonpatch.MergePatch(original, patch)
	if err != nil {
		return fmt.Errorf("failed to apply merge patch: %w", err)
	}

	if err := json.Unmarshal(merged, out); err != nil {
		return fmt.Errorf("failed to decode patched document: %w", err)
	}
	return nil
}
