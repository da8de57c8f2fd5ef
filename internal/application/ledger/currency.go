package ledger

import "golang.org/x/text/currency"

// validCurrency reporta si code es un código ISO 4217 de tres letras.
func validCurrency(code string) bool {
	if len(code) != 3 {
		return false
	}
	_, err := currency.ParseISO(code)
	return err == nil
}
