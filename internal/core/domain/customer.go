package domain

import "fmt"

// Customer is the minimal profile the order ledger needs from the customer directory.
type Customer struct {
	ID          string
	Forename    string
	Surname     string
	HouseNumber int
	Postcode    string
}

func (c Customer) Validate() error {
	if c.Forename == "" || c.Surname == "" || c.Postcode == "" {
		return fmt.Errorf("%w: customer requires forename, surname and postcode", ErrInvalidInput)
	}
	return CheckLength(c.Forename, c.Surname, c.Postcode)
}

func CustomerNotFound(id string) error {
	return fmt.Errorf("%w: the customer %s could not be found", ErrNotFound, id)
}

func CustomerNotMatched() error {
	return fmt.Errorf("%w: no customer matches the given details", ErrNotFound)
}
