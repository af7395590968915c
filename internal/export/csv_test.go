package export_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boddenberg/payments-backoffice-go/internal/export"
)

func TestWrite_QuotesSpecialCharacters(t *testing.T) {
	var buf bytes.Buffer
	err := export.Write(&buf, []string{"ID", "Merchant", "Note"}, [][]string{
		{"1", "Shop, Inc.", `say "hi"`},
		{"2", "Plain", "line1\nline2"},
	})
	require.NoError(t, err)

	want := "ID,Merchant,Note\n" +
		`1,"Shop, Inc.","say ""hi"""` + "\n" +
		"2,Plain,\"line1\nline2\"\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteMapped(t *testing.T) {
	type item struct {
		id   string
		cost int
	}
	var buf bytes.Buffer
	err := export.WriteMapped(&buf, []string{"id", "cost"}, []item{{"a", 1}, {"b", 2}}, func(it item) []string {
		return []string{it.id, string(rune('0' + it.cost))}
	})
	require.NoError(t, err)
	assert.Equal(t, "id,cost\na,1\nb,2\n", buf.String())
}

func TestWrite_HeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.Write(&buf, []string{"a", "b"}, nil))
	assert.Equal(t, "a,b\n", buf.String())
}

func TestFilename(t *testing.T) {
	now := time.Date(2024, 2, 9, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "transactions_2024-02-09.csv", export.Filename("transactions", now))
}
