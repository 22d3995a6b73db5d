package fileio

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	excelize "github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

func TestReadCSVSemicolonWithBOM(t *testing.T) {
	data := "\xEF\xBB\xBFŠifra;Naziv;JMJ;Cijena;Dobavljač\n" +
		"A1;Ajvar blagi 680g;kom;3,49;Podravka\n" +
		";;;;\n" +
		"A2;\"Paprika; crvena\";kg;1.234,50;Vindija\n"

	maps, err := ReadAnyMaps(strings.NewReader(data), "cjenik.csv", 0)
	require.NoError(t, err)
	require.Len(t, maps, 2, "empty rows are dropped")
	assert.Equal(t, "A1", maps[0]["Šifra"])
	assert.Equal(t, "Paprika; crvena", maps[1]["Naziv"])

	arts := ToArticles(maps, DefaultColumns(), "Metro")
	require.Len(t, arts, 2)
	assert.Equal(t, "Ajvar blagi 680g", arts[0].Name)
	assert.Equal(t, "kom", arts[0].Unit)
	assert.Equal(t, "3.49", arts[0].Price.String())
	assert.Equal(t, "Podravka", arts[0].Supplier)
	assert.Equal(t, "Metro", arts[0].Source)
	assert.Equal(t, "1234.5", arts[1].Price.String())
}

func TestReadCSVWindows1250(t *testing.T) {
	utf := "Naziv,Cijena,Napomena\n" +
		"Čokolada mliječna,1.99,ćevapčići i đuveč za večeru\n" +
		"Ćevapčići smrznuti,5.49,čajna kobasica i ćufte\n" +
		"Đuveč povrtni,2.10,čokoladni krem i ćevapi\n"
	enc, err := charmap.Windows1250.NewEncoder().String(utf)
	require.NoError(t, err)

	maps, err := ReadAnyMaps(strings.NewReader(enc), "stari.csv", 1)
	require.NoError(t, err)
	require.Len(t, maps, 3)
	for _, m := range maps {
		assert.True(t, utf8.ValidString(m["Naziv"]), m["Naziv"])
	}
	assert.Contains(t, maps[0]["Naziv"], "okolada")
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Troškovnik 2025"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"R.B.", "Naziv", "JMJ", "Težina", "Količina"}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]interface{}{"1.", "Ajvar", "kom", "0,68", 12}))
	require.NoError(t, f.SetSheetRow(sheet, "A5", &[]interface{}{"", "Povrće"}))
	require.NoError(t, f.SetSheetRow(sheet, "A6", &[]interface{}{2, "Čaj", "kom", "", 4}))
	require.NoError(t, f.SetSheetRow(sheet, "A7", &[]interface{}{"1", "Ajvar ponovno", "kom", "1", 1}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	maps, err := ReadAnyMaps(bytes.NewReader(buf.Bytes()), "troskovnik.xlsx", 0)
	require.NoError(t, err)

	lines, warnings := ToLines(maps, DefaultColumns())
	require.Len(t, lines, 2)
	assert.Equal(t, 1, lines[0].LineNumber)
	assert.Equal(t, "Ajvar", lines[0].Name)
	assert.Equal(t, 0.68, lines[0].Weight)
	assert.Equal(t, 12.0, lines[0].RequestedQuantity)
	assert.Equal(t, 2, lines[1].LineNumber)
	assert.Zero(t, lines[1].Weight)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "line 1")
}

func TestReadAnyMapsRejectsUnknownExtension(t *testing.T) {
	_, err := ReadAnyMaps(strings.NewReader("x"), "notes.pdf", 0)
	assert.Error(t, err)
}

func TestDetectHeaderRow(t *testing.T) {
	rows := [][]string{
		{"Cjenik 2024"},
		{""},
		{"Šifra", "Naziv", "Cijena"},
		{"1", "Ajvar", "2,5"},
	}
	assert.Equal(t, 3, detectHeaderRow(rows))
	assert.Equal(t, 1, detectHeaderRow([][]string{{"1", "2"}}))
}

func TestPickHeaderNamesBlankAndRepeatedCells(t *testing.T) {
	h := pickHeader([][]string{{"Naziv", "", "Cijena", "Cijena", " Naziv  "}}, 1)
	assert.Equal(t, []string{"Naziv", "Column 2", "Cijena", "Cijena (2)", "Naziv (2)"}, h)
}

func TestResolveKey(t *testing.T) {
	headers := []string{"Šifra artikla", "Naziv", "JMJ", "Nabavna cijena (EUR)", "Dobavljač", "Kom. pakiranje"}
	cols := DefaultColumns()

	assert.Equal(t, "Šifra artikla", resolveKey(headers, cols.Code))
	assert.Equal(t, "Naziv", resolveKey(headers, cols.Name))
	assert.Equal(t, "JMJ", resolveKey(headers, cols.Unit))
	assert.Equal(t, "Nabavna cijena (EUR)", resolveKey(headers, cols.Price))
	assert.Equal(t, "Dobavljač", resolveKey(headers, cols.Supplier))
	assert.Equal(t, "", resolveKey(headers, cols.Quantity), "short alternatives match exactly only")
	assert.Equal(t, "", resolveKey(headers, ""))
	assert.Equal(t, "JMJ", resolveKey(headers, "JMJ"))
}

func TestColumnsMerge(t *testing.T) {
	c := DefaultColumns().Merge(Columns{Price: "MPC s PDV", Name: "  "})
	assert.Equal(t, "MPC s PDV", c.Price)
	assert.Equal(t, DefaultColumns().Name, c.Name)
}

func TestToWeightEntriesAndHistory(t *testing.T) {
	maps := []map[string]string{
		{"Šifra": "A1", "Težina kg": "0,5", "Naziv": "Ajvar", "PDV": "5", "Grupa": "Konzerve"},
		{"Šifra": "A2", "Težina kg": "?", "Naziv": "Čaj"},
		{"Šifra": "A4", "Težina kg": "1x2", "Naziv": "Krivo upisano"},
		{"Šifra": "", "Težina kg": "1", "Naziv": "Bez šifre"},
		{"Šifra": "A3", "Težina kg": "-1", "Naziv": "Krivo"},
	}
	ws := ToWeightEntries(maps, DefaultColumns())
	require.Len(t, ws, 1)
	assert.Equal(t, "A1", ws[0].Code)
	assert.Equal(t, 0.5, ws[0].WeightKg)
	assert.Equal(t, 5.0, ws[0].PdvStopa)
	assert.Equal(t, "Konzerve", ws[0].Group)

	hist := ToHistory([]map[string]string{
		{"Naziv": "Ajvar", "Cijena": "2,99", "Datum": "15.03.2024."},
		{"Naziv": "Naziv", "Cijena": "Cijena"},
		{"Naziv": "Čaj", "Cijena": "n/a"},
	}, DefaultColumns())
	require.Len(t, hist, 2, "repeated header rows are skipped")
	assert.Equal(t, "2024-03-15", hist[0].Date)
	assert.True(t, hist[1].Price.IsZero())
}

func TestParseVat(t *testing.T) {
	for in, want := range map[string]float64{"25": 25, "25%": 25, " 5,0 % ": 5, "PDV": 0, "": 0} {
		assert.Equal(t, want, parseVat(in), in)
	}
}

func TestNormalizeDate(t *testing.T) {
	cases := map[string]string{
		"15.03.2024.": "2024-03-15",
		"15.03.2024":  "2024-03-15",
		"5.3.2024":    "2024-03-05",
		"2024-03-15":  "2024-03-15",
		" ":           "",
		"ožujak":      "ožujak",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeDate(in), in)
	}
}

func TestParseLineNumber(t *testing.T) {
	for in, want := range map[string]int{"12": 12, "12.": 12, "12,0": 12, " 7 ": 7} {
		n, ok := parseLineNumber(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, n, in)
	}
	for _, in := range []string{"", "0", "-3", "1,5", "Ukupno"} {
		_, ok := parseLineNumber(in)
		assert.False(t, ok, in)
	}
}
