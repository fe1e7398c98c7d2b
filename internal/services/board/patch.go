package board

import (
	"fmt"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/crewboard/boardapi/internal/auth"
	"github.com/crewboard/boardapi/internal/db/models"
)

// taskPatch is the decoded form of an update payload. Field pointers are set
// only for keys that carried a non-null value; key presence (including
// explicit nulls, which clear the field) is tracked separately in present.
type taskPatch struct {
	Title       *string        `mapstructure:"title"`
	GroupID     *string        `mapstructure:"group_id"`
	OwnerID     *string        `mapstructure:"owner_id"`
	Owner       *string        `mapstructure:"owner"`
	Status      *models.Status `mapstructure:"status"`
	StartDate   *time.Time     `mapstructure:"start_date"`
	DueDate     *time.Time     `mapstructure:"due_date"`
	Dropdown    *string        `mapstructure:"dropdown"`
	AssigneeIDs *[]string      `mapstructure:"assignee_ids"`

	present map[string]struct{}
}

func (p *taskPatch) has(key string) bool {
	_, ok := p.present[key]
	return ok
}

// decodeTaskPatch decodes a sanitized field map into a typed patch.
// Null values are stripped before decoding so mapstructure only sees
// concrete values; their keys stay recorded as present-and-cleared.
func decodeTaskPatch(fields map[string]any) (*taskPatch, error) {
	patch := &taskPatch{present: make(map[string]struct{}, len(fields))}

	values := make(map[string]any, len(fields))
	for k, v := range fields {
		patch.present[k] = struct{}{}
		if v != nil {
			values[k] = v
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: dateDecodeHook,
		Result:     patch,
	})
	if err != nil {
		return nil, fmt.Errorf("build patch decoder: %w", err)
	}
	if err := decoder.Decode(values); err != nil {
		return nil, fmt.Errorf("decode task patch: %w: %v", auth.ErrInvalidInput, err)
	}
	return patch, nil
}

// dateDecodeHook parses date strings as RFC 3339 timestamps or bare
// YYYY-MM-DD dates.
func dateDecodeHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(time.Time{}) {
		return data, nil
	}
	raw := data.(string)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q", raw)
	}
	return t, nil
}
