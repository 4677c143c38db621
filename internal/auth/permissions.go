package auth

// Resource names guarded by the permission matrix. These mirror the
// protected surfaces of the wider application; the auth core only
// answers yes/no for (role, resource, action) triples.
const (
	ResourceProducts  = "products"
	ResourceInventory = "inventory"
	ResourceSales     = "sales"
	ResourceCustomers = "customers"
	ResourceSuppliers = "suppliers"
	ResourceReports   = "reports"
	ResourceUsers     = "users"
	ResourceAudit     = "audit"
)

// Action names used across resources.
const (
	ActionCreate = "create"
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// PermissionMatrix is an immutable role → resource → allowed-actions
// table, loaded once at startup and injected into the service. Lookups
// fail closed: an unknown role, resource or action yields false.
type PermissionMatrix struct {
	grants map[Role]map[string]map[string]struct{}
}

// NewPermissionMatrix builds a matrix from a role → resource → actions
// table. The input is copied; later mutation of the argument does not
// affect the matrix.
func NewPermissionMatrix(table map[Role]map[string][]string) *PermissionMatrix {
	grants := make(map[Role]map[string]map[string]struct{}, len(table))
	for role, resources := range table {
		byResource := make(map[string]map[string]struct{}, len(resources))
		for resource, actions := range resources {
			set := make(map[string]struct{}, len(actions))
			for _, a := range actions {
				set[a] = struct{}{}
			}
			byResource[resource] = set
		}
		grants[role] = byResource
	}
	return &PermissionMatrix{grants: grants}
}

// Allows reports whether the role may perform the action on the resource.
// It has no side effects and is safe for concurrent use without locking.
func (m *PermissionMatrix) Allows(role Role, resource, action string) bool {
	byResource, ok := m.grants[role]
	if !ok {
		return false
	}
	actions, ok := byResource[resource]
	if !ok {
		return false
	}
	_, ok = actions[action]
	return ok
}

// ActionsFor returns the actions granted to a role on a resource.
// Returns nil for unknown role or resource. The slice is a copy.
func (m *PermissionMatrix) ActionsFor(role Role, resource string) []string {
	byResource, ok := m.grants[role]
	if !ok {
		return nil
	}
	actions, ok := byResource[resource]
	if !ok {
		return nil
	}
	result := make([]string, 0, len(actions))
	for a := range actions {
		result = append(result, a)
	}
	return result
}

// DefaultPermissions returns the standard PharmaTrack authorisation
// table. This is the single source of truth for what each role can do.
func DefaultPermissions() *PermissionMatrix {
	all := []string{ActionCreate, ActionRead, ActionUpdate, ActionDelete}

	return NewPermissionMatrix(map[Role]map[string][]string{
		RoleAdmin: {
			ResourceProducts:  all,
			ResourceInventory: all,
			ResourceSales:     all,
			ResourceCustomers: all,
			ResourceSuppliers: all,
			ResourceReports:   {ActionRead},
			ResourceUsers:     all,
			ResourceAudit:     {ActionRead},
		},
		RoleManager: {
			ResourceProducts:  all,
			ResourceInventory: {ActionCreate, ActionRead, ActionUpdate},
			ResourceSales:     {ActionCreate, ActionRead, ActionUpdate},
			ResourceCustomers: all,
			ResourceSuppliers: all,
			ResourceReports:   {ActionRead},
			ResourceUsers:     {ActionRead},
		},
		RolePharmacist: {
			ResourceProducts:  {ActionRead, ActionUpdate},
			ResourceInventory: {ActionRead, ActionUpdate},
			ResourceSales:     {ActionCreate, ActionRead},
			ResourceCustomers: {ActionCreate, ActionRead, ActionUpdate},
			ResourceReports:   {ActionRead},
		},
		RoleAssistant: {
			ResourceProducts:  {ActionRead},
			ResourceInventory: {ActionRead},
			ResourceSales:     {ActionRead},
			ResourceCustomers: {ActionRead},
		},
	})
}
