package access

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/boddenberg/payments-backoffice-go/internal/domain"
)

// Input types of search-form fields.
const (
	InputText   = "text"
	InputEmail  = "email"
	InputTel    = "tel"
	InputSelect = "select"
)

type optionTemplate struct {
	value    string
	labelKey string
}

type fieldTemplate struct {
	labelKey       string
	inputType      string
	placeholderKey string
	options        []optionTemplate
}

// formTemplates holds the rendering metadata of searchable fields. Fields
// the backend marks searchable without a template here are not rendered.
var formTemplates = map[string]fieldTemplate{
	FieldID:        {labelKey: "field.id", inputType: InputText, placeholderKey: "field.id.placeholder"},
	FieldName:      {labelKey: "field.name", inputType: InputText, placeholderKey: "field.name.placeholder"},
	FieldSurname:   {labelKey: "field.surname", inputType: InputText, placeholderKey: "field.surname.placeholder"},
	FieldEmail:     {labelKey: "field.email", inputType: InputEmail, placeholderKey: "field.email.placeholder"},
	FieldPhone:     {labelKey: "field.phone", inputType: InputTel},
	FieldCellPhone: {labelKey: "field.cellPhone", inputType: InputTel},
	FieldDocument:  {labelKey: "field.document", inputType: InputText},
	FieldDocumentType: {labelKey: "field.documentType", inputType: InputSelect, options: []optionTemplate{
		{"DNI", "user.document.dni"}, {"CUIT", "user.document.cuit"}, {"PASSPORT", "user.document.pass"},
	}},
	FieldUserType: {labelKey: "field.userType", inputType: InputSelect, options: []optionTemplate{
		{"personal", "user.type.personal"}, {"business", "user.type.business"},
	}},
	FieldStatus: {labelKey: "field.status", inputType: InputSelect, options: []optionTemplate{
		{domain.UserActive, "user.status.active"}, {domain.UserBlocked, "user.status.blocked"},
	}},
}

// Translator resolves display labels.
type Translator interface {
	Translate(key, lang string) string
}

// BuildSearchForm instantiates the search form for cfg's searchable fields in
// catalog order.
func BuildSearchForm(cfg domain.FieldConfig, tr Translator, lang string) []domain.FormField {
	out := []domain.FormField{}
	for _, name := range unionFields(cfg.SearcheableFields) {
		tpl, ok := formTemplates[name]
		if !ok {
			continue
		}
		f := domain.FormField{
			Name:      name,
			Label:     tr.Translate(tpl.labelKey, lang),
			InputType: tpl.inputType,
		}
		if tpl.placeholderKey != "" {
			f.Placeholder = tr.Translate(tpl.placeholderKey, lang)
		}
		for _, o := range tpl.options {
			f.Options = append(f.Options, domain.Option{Value: o.value, Label: tr.Translate(o.labelKey, lang)})
		}
		out = append(out, f)
	}
	return out
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// minLengths are the minimum character counts of specific search fields.
// Fields not listed only need to be non-empty.
var minLengths = map[string]int{
	FieldName:      3,
	FieldSurname:   3,
	FieldID:        1,
	FieldPhone:     1,
	FieldCellPhone: 1,
}

// ValidateSearch checks that at least one field is filled and every filled
// field is specific enough to search on. It returns *domain.ErrValidation.
func ValidateSearch(values domain.UserSearchParams) error {
	filled := 0
	for _, name := range sortedKeys(values) {
		v := strings.TrimSpace(values[name])
		if v == "" {
			continue
		}
		filled++
		if n, ok := minLengths[name]; ok && utf8.RuneCountInString(v) < n {
			return &domain.ErrValidation{Field: name, Message: fmt.Sprintf("must be at least %d characters", n)}
		}
		if name == FieldEmail && !emailPattern.MatchString(v) {
			return &domain.ErrValidation{Field: name, Message: "must be a valid email address"}
		}
	}
	if filled == 0 {
		return &domain.ErrValidation{Field: "search", Message: "at least one field is required"}
	}
	return nil
}

// CanSearch reports whether values pass ValidateSearch.
func CanSearch(values domain.UserSearchParams) bool {
	return ValidateSearch(values) == nil
}

func sortedKeys(m domain.UserSearchParams) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return unionFields(keys)
}
