package domain

// Identity is the user profile returned by the identity service's
// getUserById call. It is attached to views at read time and never stored.
type Identity struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Username  string  `json:"username,omitempty"`
	FirstName string  `json:"firstName,omitempty"`
	LastName  string  `json:"lastName,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Avatar    *string `json:"avatar,omitempty"`
}
