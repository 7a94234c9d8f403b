// Package policy derives what a requester may do to an issue. Every handler
// and service consults these functions instead of combining owner and admin
// checks on its own.
package policy

import (
	"cleanstreet-be/models"
)

// FieldName is a mutable issue field, named by its wire key.
type FieldName string

const (
	FieldTitle       FieldName = "issueTitle"
	FieldType        FieldName = "issueType"
	FieldPriority    FieldName = "priorityLevel"
	FieldAddress     FieldName = "address"
	FieldLandmark    FieldName = "landmark"
	FieldDescription FieldName = "description"
	FieldStatus      FieldName = "status"
)

// OwnerFields are the descriptive fields only the reporter may change.
var OwnerFields = []FieldName{FieldTitle, FieldType, FieldPriority, FieldAddress, FieldLandmark, FieldDescription}

// AdminFields are the fields only an admin may change.
var AdminFields = []FieldName{FieldStatus}

// FieldSet is an unordered set of field names.
type FieldSet map[FieldName]struct{}

func (s FieldSet) Has(f FieldName) bool {
	_, ok := s[f]
	return ok
}

func (s FieldSet) add(fields ...FieldName) {
	for _, f := range fields {
		s[f] = struct{}{}
	}
}

// RoleLabel describes the requester's relation to an issue for display.
// It carries no authorization weight.
type RoleLabel string

const (
	LabelOwnerAdmin RoleLabel = "OwnerAdmin"
	LabelOwner      RoleLabel = "Owner"
	LabelAdmin      RoleLabel = "Admin"
	LabelViewOnly   RoleLabel = "ViewOnly"
)

func isOwner(r models.Requester, issue *models.Issue) bool {
	return issue.IsReporter(r.ID)
}

func isAdmin(r models.Requester) bool {
	return r.IsAuthenticated() && r.IsAdmin()
}

// EditableFields returns the union of owner fields (when r reported the
// issue) and admin fields (when r is an admin). Empty means view-only.
func EditableFields(r models.Requester, issue *models.Issue) FieldSet {
	set := FieldSet{}
	if isOwner(r, issue) {
		set.add(OwnerFields...)
	}
	if isAdmin(r) {
		set.add(AdminFields...)
	}
	return set
}

// CanDelete reports whether r may delete the issue.
func CanDelete(r models.Requester, issue *models.Issue) bool {
	return isOwner(r, issue) || isAdmin(r)
}

// CanDeleteComment reports whether r may remove c.
func CanDeleteComment(r models.Requester, c *models.Comment) bool {
	if !r.IsAuthenticated() {
		return false
	}
	return c.User.ID == r.ID || isAdmin(r)
}

// Label names r's relation to the issue.
func Label(r models.Requester, issue *models.Issue) RoleLabel {
	owner, admin := isOwner(r, issue), isAdmin(r)
	switch {
	case owner && admin:
		return LabelOwnerAdmin
	case owner:
		return LabelOwner
	case admin:
		return LabelAdmin
	default:
		return LabelViewOnly
	}
}

// Access is the display summary sent to clients alongside an issue.
type Access struct {
	Label          RoleLabel   `json:"label"`
	EditableFields []FieldName `json:"editableFields"`
}

// Describe returns r's label and editable fields, owner fields first.
func Describe(r models.Requester, issue *models.Issue) Access {
	set := EditableFields(r, issue)
	fields := []FieldName{}
	for _, group := range [][]FieldName{OwnerFields, AdminFields} {
		for _, f := range group {
			if set.Has(f) {
				fields = append(fields, f)
			}
		}
	}
	return Access{Label: Label(r, issue), EditableFields: fields}
}
