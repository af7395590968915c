package access

import (
	"strings"

	"github.com/boddenberg/payments-backoffice-go/internal/domain"
)

// FieldPolicy answers per-field questions for one user. Overrides can hide
// a field the configuration shows, but never show one it hides. A field is
// editable only while it is visible, even if the configuration lists it as
// mutable without listing it as visible.
type FieldPolicy struct {
	visible    map[string]struct{}
	mutable    map[string]struct{}
	searchable map[string]struct{}
	overrides  domain.FieldOverrides
}

// NewFieldPolicy builds a policy from a resolved configuration and the
// user's persisted visibility overrides (may be nil).
func NewFieldPolicy(cfg domain.FieldConfig, overrides domain.FieldOverrides) *FieldPolicy {
	return &FieldPolicy{
		visible:    toSet(cfg.VisibleFields),
		mutable:    toSet(cfg.MutableFields),
		searchable: toSet(cfg.SearcheableFields),
		overrides:  overrides,
	}
}

// IsFieldVisible reports whether name is visible to the role set and not
// hidden by the user.
func (p *FieldPolicy) IsFieldVisible(name string) bool {
	if _, ok := p.visible[name]; !ok {
		return false
	}
	if show, ok := p.overrides[name]; ok && !show {
		return false
	}
	return true
}

// IsFieldEditable reports whether name is mutable. Hidden fields are never
// editable.
func (p *FieldPolicy) IsFieldEditable(name string) bool {
	if !p.IsFieldVisible(name) {
		return false
	}
	_, ok := p.mutable[name]
	return ok
}

// IsFieldSearchable reports whether name may be used as a search input.
func (p *FieldPolicy) IsFieldSearchable(name string) bool {
	_, ok := p.searchable[name]
	return ok
}

// VisibleFields returns the visible catalog fields in catalog order.
func (p *FieldPolicy) VisibleFields() []string {
	var out []string
	for _, f := range Catalog {
		if p.IsFieldVisible(f) {
			out = append(out, f)
		}
	}
	return out
}

// Project keeps only the visible keys of record.
func (p *FieldPolicy) Project(record map[string]any) map[string]any {
	out := make(map[string]any, len(record))
	for k, v := range record {
		if p.IsFieldVisible(k) {
			out[k] = v
		}
	}
	return out
}

// SearchParams keeps the searchable, non-blank values of params, trimmed.
func (p *FieldPolicy) SearchParams(params domain.UserSearchParams) domain.UserSearchParams {
	out := make(domain.UserSearchParams, len(params))
	for k, v := range params {
		v = strings.TrimSpace(v)
		if v == "" || !p.IsFieldSearchable(k) {
			continue
		}
		out[k] = v
	}
	return out
}

func toSet(fields []string) map[string]struct{} {
	s := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		s[f] = struct{}{}
	}
	return s
}
