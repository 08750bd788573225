// Package registration defines the account registration payload sent by the probe
// and the rules a payload must satisfy before it is worth sending.
package registration

// Request is the JSON body accepted by the registration endpoint.
type Request struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	// BirthDate is an ISO 8601 calendar date (YYYY-MM-DD).
	BirthDate string `json:"birth_date" validate:"required,datetime=2006-01-02"`
}

// Fixed values of the default probe account.
const (
	DefaultEmail     = "testuser@example.com"
	DefaultPassword  = "password123"
	DefaultFirstName = "John"
	DefaultLastName  = "Doe"
	DefaultBirthDate = "1995-05-15"
)

// Default returns the fixed registration payload used when nothing overrides it.
func Default() Request {
	return Request{
		Email:     DefaultEmail,
		Password:  DefaultPassword,
		FirstName: DefaultFirstName,
		LastName:  DefaultLastName,
		BirthDate: DefaultBirthDate,
	}
}
