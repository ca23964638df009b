package pipeline

import (
	"fmt"
	"strings"

	"github.com/wicketmedia/stumpsearch/helper"
	"github.com/wicketmedia/stumpsearch/model"
)

// DefaultNormalizer renders the tags of a record as short prose in a
// fixed field order, so identical tag sets always produce identical
// descriptions. Missing fields are omitted.
func DefaultNormalizer() NormalizeFunc {
	return func(record *model.ImageRecord) (string, error) {
		if record == nil || strings.TrimSpace(record.ImageID) == "" {
			return "", helper.NewError("validate record", fmt.Errorf("missing image reference: %w", model.ErrValidation))
		}
		if record.Tags.Empty() {
			return "", helper.NewError("validate record", fmt.Errorf("record %s has no tags: %w", record.ImageID, model.ErrValidation))
		}

		fields := []struct {
			label string
			value string
		}{
			{"Action", record.Tags.Action},
			{"Event", record.Tags.Event},
			{"Mood", record.Tags.Mood},
			{"Player", record.Tags.Player},
			{"Location", record.Tags.SubLocation},
		}

		var parts []string
		for _, field := range fields {
			value := strings.TrimSpace(field.value)
			if value == "" {
				continue
			}
			parts = append(parts, fmt.Sprintf("%s: %s", field.label, value))
		}

		return strings.Join(parts, ". ") + ".", nil
	}
}
