package access

import (
	"sort"
	"sync"

	"github.com/boddenberg/payments-backoffice-go/internal/domain"
)

// defaultFieldConfigs is the built-in role to field configuration table.
var defaultFieldConfigs = map[domain.Role]domain.FieldConfig{
	domain.RoleConfigurador: {
		VisibleFields:     Catalog,
		MutableFields:     []string{FieldName, FieldSurname, FieldEmail, FieldPhone, FieldCellPhone, FieldAddress, FieldCity, FieldCountry},
		SearcheableFields: []string{FieldID, FieldName, FieldSurname, FieldEmail, FieldPhone, FieldCellPhone, FieldDocument},
	},
	domain.RoleCompensador: {
		VisibleFields:     []string{FieldID, FieldName, FieldSurname, FieldEmail, FieldDocument, FieldUserType, FieldStatus},
		SearcheableFields: []string{FieldID, FieldName, FieldSurname, FieldEmail, FieldDocument},
	},
	domain.RoleOperador: {
		VisibleFields:     []string{FieldID, FieldName, FieldSurname, FieldEmail, FieldPhone, FieldCellPhone, FieldStatus, FieldCreatedAt},
		MutableFields:     []string{FieldPhone, FieldCellPhone},
		SearcheableFields: []string{FieldID, FieldName, FieldSurname, FieldEmail, FieldPhone, FieldCellPhone},
	},
	domain.RoleAnalista: {
		VisibleFields:     []string{FieldID, FieldName, FieldSurname, FieldEmail, FieldCountry, FieldUserType, FieldStatus, FieldCreatedAt},
		SearcheableFields: []string{FieldID, FieldEmail, FieldUserType, FieldStatus},
	},
	domain.RoleAdmin: {
		VisibleFields:     Catalog,
		MutableFields:     Catalog,
		SearcheableFields: Catalog,
	},
}

// Resolver maps role sets to field configurations. Companies may replace the
// configuration of individual roles; roles without a company entry use the
// built-in table.
type Resolver struct {
	mu        sync.RWMutex
	defaults  map[domain.Role]domain.FieldConfig
	companies map[string]map[domain.Role]domain.FieldConfig
}

// NewResolver returns a resolver loaded with the built-in role table.
func NewResolver() *Resolver {
	return NewResolverWithTable(defaultFieldConfigs)
}

// NewResolverWithTable returns a resolver over a custom role table.
func NewResolverWithTable(table map[domain.Role]domain.FieldConfig) *Resolver {
	defaults := make(map[domain.Role]domain.FieldConfig, len(table))
	for r, c := range table {
		defaults[r] = c
	}
	return &Resolver{
		defaults:  defaults,
		companies: make(map[string]map[domain.Role]domain.FieldConfig),
	}
}

// SetCompanyConfig overrides the configuration of role for one company.
func (r *Resolver) SetCompanyConfig(companyID string, role domain.Role, cfg domain.FieldConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.companies[companyID]
	if !ok {
		m = make(map[domain.Role]domain.FieldConfig)
		r.companies[companyID] = m
	}
	m[role] = cfg
}

// ResolveConfig returns the union of the built-in configurations of roles.
func (r *Resolver) ResolveConfig(roles domain.RoleSet) domain.FieldConfig {
	return r.ResolveCompanyConfig("", roles)
}

// ResolveCompanyConfig returns the union of the configurations of roles,
// preferring companyID's overrides. A role with no entry contributes nothing.
func (r *Resolver) ResolveCompanyConfig(companyID string, roles domain.RoleSet) domain.FieldConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var cfgs []domain.FieldConfig
	for role := range roles {
		if c, ok := r.companies[companyID][role]; ok {
			cfgs = append(cfgs, c)
			continue
		}
		if c, ok := r.defaults[role]; ok {
			cfgs = append(cfgs, c)
		}
	}
	return Union(cfgs...)
}

// Union merges field configurations set-wise. Fields are returned in
// catalog order, followed by any fields unknown to the catalog sorted by name.
func Union(cfgs ...domain.FieldConfig) domain.FieldConfig {
	var visible, mutable, searchable [][]string
	for _, c := range cfgs {
		visible = append(visible, c.VisibleFields)
		mutable = append(mutable, c.MutableFields)
		searchable = append(searchable, c.SearcheableFields)
	}
	return domain.FieldConfig{
		VisibleFields:     unionFields(visible...),
		MutableFields:     unionFields(mutable...),
		SearcheableFields: unionFields(searchable...),
	}
}

func unionFields(lists ...[]string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, l := range lists {
		for _, f := range l {
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ii, iok := catalogIndex[out[i]]
		ji, jok := catalogIndex[out[j]]
		switch {
		case iok && jok:
			return ii < ji
		case iok != jok:
			return iok
		}
		return out[i] < out[j]
	})
	return out
}
