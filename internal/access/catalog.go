// Package access resolves what a backoffice user may see, edit, search and
// do, based on the roles they hold.
//
// Multiple roles combine by union: a field is visible if any held role shows
// it, and a capability is granted if any held role grants it. Unknown roles
// or companies resolve to an empty configuration with no capabilities.
package access

// Field names of the customer profile catalog, in display order.
const (
	FieldID           = "id"
	FieldName         = "name"
	FieldSurname      = "surname"
	FieldEmail        = "email"
	FieldPhone        = "phone"
	FieldCellPhone    = "cellPhone"
	FieldDocument     = "document"
	FieldDocumentType = "documentType"
	FieldBirthDate    = "birthDate"
	FieldAddress      = "address"
	FieldCity         = "city"
	FieldCountry      = "country"
	FieldUserType     = "userType"
	FieldStatus       = "status"
	FieldCreatedAt    = "createdAt"
)

// Catalog is the fixed set of profile fields known to the backoffice.
var Catalog = []string{
	FieldID, FieldName, FieldSurname, FieldEmail, FieldPhone, FieldCellPhone,
	FieldDocument, FieldDocumentType, FieldBirthDate, FieldAddress, FieldCity,
	FieldCountry, FieldUserType, FieldStatus, FieldCreatedAt,
}

var catalogIndex = func() map[string]int {
	m := make(map[string]int, len(Catalog))
	for i, f := range Catalog {
		m[f] = i
	}
	return m
}()

// IsCatalogField reports whether name is a catalog field.
func IsCatalogField(name string) bool {
	_, ok := catalogIndex[name]
	return ok
}
