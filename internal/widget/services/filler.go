package services

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	sampleNames   = []string{"Ana López", "Carlos Ruiz", "María Pérez", "Juan García", "Lucía Martínez"}
	sampleStreets = []string{"Av. Central 123", "Calle Nueva 45", "Boulevard Sol 89", "Calle Las Flores 12", "Pasaje Verde 7"}
)

// RemoveDiacritics folds accented letters to their base form ("Pérez" -> "Perez").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// SampleForm fills a checkout form with test data that passes validation.
func SampleForm(rng *rand.Rand) Form {
	name := RemoveDiacritics(sampleNames[rng.IntN(len(sampleNames))])
	street := RemoveDiacritics(sampleStreets[rng.IntN(len(sampleStreets))])
	local := strings.Join(strings.Fields(strings.ToLower(name)), ".")
	return Form{
		Name:    name,
		Email:   fmt.Sprintf("%s%d@example.com", local, 100+rng.IntN(900)),
		Address: street,
		Phone:   fmt.Sprintf("5%d", 10000000+rng.IntN(89999999)),
		Card:    []byte("4242 4242 4242 4242"),
		Expiry:  "12/30",
		CVC:     []byte("123"),
	}
}
