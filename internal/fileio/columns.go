package fileio

import (
	"regexp"
	"sort"
	"strings"
)

// Columns names the wanted header of each field. A value may list alternatives: "naziv|opis".
type Columns struct {
	Name     string `json:"name,omitempty"`
	Code     string `json:"code,omitempty"`
	Unit     string `json:"unit,omitempty"`
	Price    string `json:"price,omitempty"`
	Supplier string `json:"supplier,omitempty"`
	Date     string `json:"date,omitempty"`
	Tariff   string `json:"tariff,omitempty"`
	Vat      string `json:"vat,omitempty"`
	Weight   string `json:"weight,omitempty"`
	Group    string `json:"group,omitempty"`
	Line     string `json:"line,omitempty"`
	Quantity string `json:"quantity,omitempty"`
	Comment  string `json:"comment,omitempty"`
}

// DefaultColumns covers the headers seen in Croatian stock lists and supplier price lists.
func DefaultColumns() Columns {
	return Columns{
		Name:     "naziv|naziv artikla|opis|artikl|proizvod|name",
		Code:     "šifra|šifra artikla|kataloški broj|kod|barkod|code",
		Unit:     "jmj|j.m.|jm|jedinica mjere|mjera|unit",
		Price:    "cijena|nabavna cijena|vpc|mpc|jedinična cijena|price",
		Supplier: "dobavljač|proizvođač|supplier",
		Date:     "datum|datum cijene|date",
		Tariff:   "tarifni broj|tarifa",
		Vat:      "pdv|pdv %|stopa pdv|pdv stopa|vat",
		Weight:   "težina|težina kg|masa|neto masa|weight",
		Group:    "grupa|kategorija|group",
		Line:     "rb|r.b.|redni broj|stavka|line",
		Quantity: "količina|kol|tražena količina|quantity",
		Comment:  "napomena|komentar|comment",
	}
}

// Merge overrides the receiver with every non-empty field of o.
func (c Columns) Merge(o Columns) Columns {
	pick := func(dst *string, v string) {
		if strings.TrimSpace(v) != "" {
			*dst = v
		}
	}
	pick(&c.Name, o.Name)
	pick(&c.Code, o.Code)
	pick(&c.Unit, o.Unit)
	pick(&c.Price, o.Price)
	pick(&c.Supplier, o.Supplier)
	pick(&c.Date, o.Date)
	pick(&c.Tariff, o.Tariff)
	pick(&c.Vat, o.Vat)
	pick(&c.Weight, o.Weight)
	pick(&c.Group, o.Group)
	pick(&c.Line, o.Line)
	pick(&c.Quantity, o.Quantity)
	pick(&c.Comment, o.Comment)
	return c
}

var rxNonWord = regexp.MustCompile(`[^\p{L}\p{N}%]+`)

// normHeaderKey lowercases, folds Croatian diacritics and reduces punctuation to single spaces.
func normHeaderKey(s string) string {
	s = strings.ToLower(normalizeCell(s))
	s = strings.NewReplacer("š", "s", "č", "c", "ć", "c", "ž", "z", "đ", "d").Replace(s)
	s = rxNonWord.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// resolveKey finds the real header for want among the header set: exact match first, then
// normalized match, then the longest alternative contained in (or containing) the header.
func resolveKey(headers []string, want string) string {
	want = strings.TrimSpace(want)
	if want == "" {
		return ""
	}
	alts := strings.Split(want, "|")
	norm := make([]string, 0, len(alts))
	for _, a := range alts {
		a = strings.TrimSpace(a)
		for _, h := range headers {
			if h == a {
				return h
			}
		}
		if n := normHeaderKey(a); n != "" {
			norm = append(norm, n)
		}
	}

	for _, n := range norm {
		for _, h := range headers {
			if normHeaderKey(h) == n {
				return h
			}
		}
	}

	best, bestScore := "", 0
	for _, h := range headers {
		nh := normHeaderKey(h)
		for _, n := range norm {
			// short alternatives ("jm", "rb") only match exactly
			if len(n) < 4 {
				continue
			}
			if containsWord(nh, n) && len(n) > bestScore {
				best, bestScore = h, len(n)
			}
		}
	}
	return best
}

func containsWord(hay, needle string) bool {
	return hay == needle ||
		strings.HasPrefix(hay, needle+" ") ||
		strings.HasSuffix(hay, " "+needle) ||
		strings.Contains(hay, " "+needle+" ")
}

// headerResolver caches resolved keys for one file.
type headerResolver struct {
	headers []string
	cache   map[string]string
}

func newHeaderResolver(maps []map[string]string) *headerResolver {
	r := &headerResolver{cache: make(map[string]string)}
	if len(maps) > 0 {
		for k := range maps[0] {
			r.headers = append(r.headers, k)
		}
		// deterministic tie-breaking
		sort.Strings(r.headers)
	}
	return r
}

func (r *headerResolver) key(want string) string {
	if k, ok := r.cache[want]; ok {
		return k
	}
	k := resolveKey(r.headers, want)
	r.cache[want] = k
	return k
}

func (r *headerResolver) get(rec map[string]string, want string) string {
	k := r.key(want)
	if k == "" {
		return ""
	}
	return strings.TrimSpace(rec[k])
}
