package importer

import "io"

// CreditAgricoleParser reads the Crédit Agricole "Téléchargement des
// opérations" xlsx export: one or more account sections, each introduced by
// a "Solde au DD/MM/YYYY <amount>" line and a Date/Libellé/Débit/Crédit
// header row.
type CreditAgricoleParser struct{}

func (p *CreditAgricoleParser) Format() string { return "ca" }

func (p *CreditAgricoleParser) Parse(r io.Reader) (*Statement, error) {
	grid, err := ReadWorkbook(r)
	if err != nil {
		return nil, err
	}
	return ParseGrid(grid)
}
