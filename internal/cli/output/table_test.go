package output

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/ipagw/pkg/directory"
)

func TestTableData(t *testing.T) {
	table := NewTableData("Surname", "Given name", "Username")
	assert.Equal(t, []string{"Surname", "Given name", "Username"}, table.Headers())
	assert.Empty(t, table.Rows())

	table.AddRow("Ivanov", "Ivan", "ivan.ivanov")
	require.Len(t, table.Rows(), 1)
	assert.Equal(t, []string{"Ivanov", "Ivan", "ivan.ivanov"}, table.Rows()[0])
}

func TestPrintTable(t *testing.T) {
	table := NewTableData("Surname", "Username")
	table.AddRow("Ivanov", "ivan.ivanov")
	table.AddRow("Щукин", "petr.schukin")

	var buf bytes.Buffer
	require.NoError(t, PrintTable(&buf, table))

	out := buf.String()
	assert.Contains(t, out, "SURNAME")
	assert.Contains(t, out, "ivan.ivanov")
	assert.Contains(t, out, "Щукин")
}

func TestKeyValueTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, KeyValueTable(&buf, [][2]string{{"Username", "ivan.ivanov"}, {"Status", "enabled"}}))

	out := buf.String()
	assert.Contains(t, out, "Username")
	assert.Contains(t, out, "ivan.ivanov")
	assert.Contains(t, out, ":")
}

func TestUserPairs(t *testing.T) {
	exp := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	pairs := UserPairs(&directory.User{
		UID:                "ivan.ivanov",
		CommonName:         "Ivan Ivanov",
		Mail:               []string{"ivan@x.com", "i@x.com"},
		Groups:             []string{"ipausers", "devs"},
		PasswordExpiration: &exp,
		Disabled:           true,
	})

	got := map[string]string{}
	for _, p := range pairs {
		got[p[0]] = p[1]
	}
	assert.Equal(t, [2]string{"Username", "ivan.ivanov"}, pairs[0])
	assert.Equal(t, "ivan@x.com, i@x.com", got["Email"])
	assert.Equal(t, "ipausers, devs", got["Groups"])
	assert.Equal(t, "2026-01-02T03:04:05Z", got["Password expires"])
	assert.Equal(t, "disabled", got["Status"])
	assert.NotContains(t, got, "Title")
}
