package bytesize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ByteSize
		wantErr bool
	}{
		{name: "plain", input: "1048576", want: MiB},
		{name: "zero", input: "0", want: 0},
		{name: "bytes suffix", input: "512b", want: 512},
		{name: "binary", input: "10MiB", want: 10 * MiB},
		{name: "binary short", input: "10Mi", want: 10 * MiB},
		{name: "decimal", input: "10MB", want: 10 * MB},
		{name: "decimal short", input: "512K", want: 512 * KB},
		{name: "gibibytes", input: "1GiB", want: GiB},
		{name: "case insensitive", input: "10mib", want: 10 * MiB},
		{name: "spaces", input: "  10 MiB ", want: 10 * MiB},
		{name: "fraction", input: "1.5MiB", want: ByteSize(1.5 * float64(MiB))},
		{name: "empty", input: "", wantErr: true},
		{name: "unit only", input: "MiB", wantErr: true},
		{name: "unknown unit", input: "10PB", wantErr: true},
		{name: "negative", input: "-1", wantErr: true},
		{name: "two dots", input: "1.2.3M", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "10MiB", (10 * MiB).String())
	assert.Equal(t, "2GiB", (2 * GiB).String())
	assert.Equal(t, "1536KiB", ByteSize(1536*1024).String())
	assert.Equal(t, "1000B", KB.String())
	assert.Equal(t, "0B", ByteSize(0).String())
}

func TestTextRoundTrip(t *testing.T) {
	for _, size := range []ByteSize{0, 1, KB, 10 * MiB, 3 * GiB, 1536 * KiB} {
		text, err := size.MarshalText()
		require.NoError(t, err)

		var back ByteSize
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, size, back, "round trip of %s", text)
	}

	var b ByteSize
	assert.Error(t, b.UnmarshalText([]byte("lots")))
}
