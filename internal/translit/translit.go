// Package translit turns Cyrillic personal names into directory-safe Latin
// account names.
package translit

import (
	"errors"
	"strings"
)

// ErrMalformedName is returned when a full name has fewer than two words.
var ErrMalformedName = errors.New("full name must contain at least a surname and a given name")

// table is keyed by a single rune, so substitution order never matters.
var table = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "kh", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "sch",
	'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",

	'А': "A", 'Б': "B", 'В': "V", 'Г': "G", 'Д': "D", 'Е': "E", 'Ё': "E",
	'Ж': "Zh", 'З': "Z", 'И': "I", 'Й': "Y", 'К': "K", 'Л': "L", 'М': "M",
	'Н': "N", 'О': "O", 'П': "P", 'Р': "R", 'С': "S", 'Т': "T", 'У': "U",
	'Ф': "F", 'Х': "Kh", 'Ц': "Ts", 'Ч': "Ch", 'Ш': "Sh", 'Щ': "Sch",
	'Ъ': "", 'Ы': "Y", 'Ь': "", 'Э': "E", 'Ю': "Yu", 'Я': "Ya",

	// Ukrainian. Lower-case ґ, ї and є are dropped and the capitals map to
	// lower-case Latin. і and І are not mapped.
	'ґ': "", 'ї': "", 'є': "",
	'Ґ': "g", 'Ї': "i", 'Є': "e",
}

// removed lists characters that may not appear in account identifiers.
const removed = `,?~!@#$%^&*()-=+:;<>'"\/№[]{}—`

// Transliterate maps every Cyrillic letter to its Latin spelling and drops
// punctuation. Any other rune, including spaces and Latin letters, is copied
// unchanged.
func Transliterate(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if latin, ok := table[r]; ok {
			b.WriteString(latin)
			continue
		}
		if strings.ContainsRune(removed, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
