package model

// Account is a row in accounts/accounts.csv. Accounts are identified by the
// dense rank the parser derives from their trailing balance marker; the file
// only gives those numbers a human name.
type Account struct {
	ID          int
	Name        string
	Description string
}
