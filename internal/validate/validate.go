// Package validate turns untyped group records into model.GroupDetails.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/jmehdipour/group-load/internal/model"
)

var ErrInvalidRecord = errors.New("invalid group record")

// ValidationError names the offending field. It unwraps to ErrInvalidRecord.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrInvalidRecord, e.Reason)
	}
	return fmt.Sprintf("%s: %s %s", ErrInvalidRecord, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidRecord }

var (
	groupRequired  = []string{"group_id", "group_name", "group_type", "effective_date"}
	memberRequired = []string{"member_id", "first_name", "last_name", "email"}
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// Group checks required fields and shapes, then decodes raw into a typed group.
// Member id uniqueness and a non-empty member list are not enforced.
func Group(raw map[string]any) (model.GroupDetails, error) {
	if len(raw) == 0 {
		return model.GroupDetails{}, &ValidationError{Reason: "record is empty"}
	}

	for _, f := range groupRequired {
		if err := requireString(raw, f, f); err != nil {
			return model.GroupDetails{}, err
		}
	}

	v, ok := raw["members"]
	if !ok || v == nil {
		return model.GroupDetails{}, &ValidationError{Field: "members", Reason: "is required"}
	}
	members, ok := asSlice(v)
	if !ok {
		return model.GroupDetails{}, &ValidationError{Field: "members", Reason: "must be a list"}
	}
	for i, m := range members {
		mm, ok := asMap(m)
		if !ok {
			return model.GroupDetails{}, &ValidationError{Field: fmt.Sprintf("members[%d]", i), Reason: "must be an object"}
		}
		for _, f := range memberRequired {
			if err := requireString(mm, f, fmt.Sprintf("members[%d].%s", i, f)); err != nil {
				return model.GroupDetails{}, err
			}
		}
	}

	var g model.GroupDetails
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     &g,
		TagName:    "json",
		DecodeHook: mapstructure.DecodeHookFuncType(timestampHook),
	})
	if err != nil {
		return model.GroupDetails{}, fmt.Errorf("build decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return model.GroupDetails{}, &ValidationError{Reason: err.Error()}
	}

	applyDefaults(&g, time.Now().UTC())
	return g, nil
}

// GroupID reads group_id from a raw record without validating the rest.
func GroupID(raw map[string]any) (string, bool) {
	s, ok := raw["group_id"].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

func applyDefaults(g *model.GroupDetails, now time.Time) {
	if g.Status == "" {
		g.Status = model.DefaultStatus
	}
	if g.Members == nil {
		g.Members = []model.GroupMember{}
	}
	for i := range g.Members {
		if g.Members[i].Status == "" {
			g.Members[i].Status = model.DefaultStatus
		}
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = now
	}
	if g.UpdatedAt.IsZero() {
		g.UpdatedAt = now
	}
}

func requireString(m map[string]any, key, field string) error {
	v, ok := m[key]
	if !ok || v == nil {
		return &ValidationError{Field: field, Reason: "is required"}
	}
	s, ok := v.(string)
	if !ok {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("must be a string, got %T", v)}
	}
	if strings.TrimSpace(s) == "" {
		return &ValidationError{Field: field, Reason: "must not be empty"}
	}
	return nil
}

func asSlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func asMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

var timeType = reflect.TypeOf(time.Time{})

func timestampHook(from, to reflect.Type, data any) (any, error) {
	if to != timeType || from.Kind() != reflect.String {
		return data, nil
	}
	s := strings.TrimSpace(reflect.ValueOf(data).String())
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return nil, fmt.Errorf("unsupported timestamp %q", s)
}
