package translit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransliterate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Иванов", "Ivanov"},
		{"петров", "petrov"},
		{"Жукова", "Zhukova"},
		{"Щербаков", "Scherbakov"},
		{"Хачатурян", "Khachaturyan"},
		{"Цой", "Tsoy"},
		{"Юлия", "Yuliya"},
		{"Подъячев", "Podyachev"},
		{"Ильич", "Ilich"},
		{"Ёлкин", "Elkin"},
		{"Їжак Ґудзь Євген", "izhak gudz evgen"},
		{"Київ", "Kiv"},
		{"Олексій", "Oleksіy"},
		{"Ґаврилюк", "gavrilyuk"},
		{"Римма-Мария", "RimmaMariya"},
		{"О'Брайен", "OBrayen"},
		{"№5 [тест]", "5 test"},
		{"Smith", "Smith"},
		{"", ""},
		{"日本", "日本"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Transliterate(tt.in))
		})
	}
}

func TestTransliterate_ASCIINoOp(t *testing.T) {
	for _, s := range []string{"john", "Doe", "a.b_c", "user42", "Mary Ann"} {
		assert.Equal(t, s, Transliterate(s))
	}
}

func TestTransliterate_Idempotent(t *testing.T) {
	for _, s := range []string{"Иванов Иван", "Щукин-Ёжиков", "О'Нил", "mixed Смесь 123"} {
		once := Transliterate(s)
		assert.Equal(t, once, Transliterate(once), s)
	}
}

func TestGenerateUsername(t *testing.T) {
	tests := []struct {
		name     string
		fullName string
		want     Name
	}{
		{
			name:     "cyrillic surname first",
			fullName: "Иванов Иван",
			want:     Name{Surname: "Иванов", GivenName: "Иван", Username: "ivan.ivanov"},
		},
		{
			name:     "patronymic ignored",
			fullName: "Петрова Анна Сергеевна",
			want:     Name{Surname: "Петрова", GivenName: "Анна", Username: "anna.petrova"},
		},
		{
			name:     "ascii passes through lower-cased",
			fullName: "Smith John",
			want:     Name{Surname: "Smith", GivenName: "John", Username: "john.smith"},
		},
		{
			name:     "extra whitespace",
			fullName: "  Сидоров \t Пётр  ",
			want:     Name{Surname: "Сидоров", GivenName: "Пётр", Username: "petr.sidorov"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GenerateUsername(tt.fullName)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateUsername_Malformed(t *testing.T) {
	for _, in := range []string{"", "   ", "Иванов"} {
		_, err := GenerateUsername(in)
		assert.True(t, errors.Is(err, ErrMalformedName), "input %q", in)
	}
}

func TestUsernameFromParts(t *testing.T) {
	assert.Equal(t, "john.doe", UsernameFromParts("John", "Doe"))
	assert.Equal(t, "olga.kim", UsernameFromParts("Ольга", "Ким"))
}
