package user

type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleSeller   Role = "SELLER"
)

// User is the subset of an account the order flow needs: who to bill and
// which role the caller holds.
type User struct {
	ID          string
	Name        string
	Email       string
	PhoneNumber *string
	Role        Role
}

func (u *User) Phone() string {
	if u.PhoneNumber == nil {
		return ""
	}
	return *u.PhoneNumber
}
