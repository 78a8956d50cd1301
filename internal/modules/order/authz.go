package order

import (
	"github.com/witchakorn/marketgo-backend/internal/modules/user"
)

// CanAccessOrder decides whether u may act on o. sellerHasProduct reports
// whether the order contains a product owned by u (only consulted for
// sellers; callers resolve it with Repository.SellerHasProductInOrder).
//
//   - admin: always allowed
//   - seller: allowed when one of their products is in the order, or when
//     they are the order's customer
//   - customer: allowed only for their own orders
//   - any other role: denied
//
// Pure decision over loaded entities; callers must resolve order existence
// (NotFound) before consulting it.
func CanAccessOrder(u *user.User, o *Order, sellerHasProduct bool) bool {
	switch u.Role {
	case user.RoleAdmin:
		return true
	case user.RoleSeller:
		return sellerHasProduct || o.CustomerID == u.UUID
	case user.RoleCustomer:
		return o.CustomerID == u.UUID
	default:
		return false
	}
}
