package service

import (
	"regexp"
	"strconv"
	"strings"

	"troskovnik-service/internal/workbook/model"
)

// Units understood by the weight parser (also used for gluing "20 kg" -> "20kg").
const weightUnitWord = `kg|gr|ml|g|l|t`

// "20 kg" -> "20kg"
var reAttachNumUnit = regexp.MustCompile(`(\d+(?:\.\d+)?)\s+(` + weightUnitWord + `)\b`)

// A number starts at the beginning of the text or after a character that cannot be
// part of it, so "6x1.5l" yields 1.5 and never the "5l" tail.
const numStart = `(?:^|[^\d.])`

var (
	// "2550/1000g": net / drained mass
	reNetDrained = regexp.MustCompile(numStart + `(\d+(?:\.\d+)?)/(\d+(?:\.\d+)?)(gr|g|ml)\b`)
	// "500ml", "1l", "2.5kg", "1t", "300gr", "300g"
	reUnitLiteral = regexp.MustCompile(numStart + `(\d+(?:\.\d+)?)(ml|kg|gr|g|l|t)\b`)
	// "3/1" packaging, read as kg
	rePackaging = regexp.MustCompile(numStart + `(\d+(?:\.\d+)?)/1\b`)
)

var unitToKg = map[string]float64{
	"ml": 0.001,
	"l":  1,
	"kg": 1,
	"t":  1000,
	"gr": 0.001,
	"g":  0.001,
}

// weightRule turns one regex match into kilograms. Rules run in order; the first rule
// producing a positive value wins and, within a rule, the largest match wins.
type weightRule struct {
	name string
	re   *regexp.Regexp
	kg   func(m []string) float64
}

var weightRules = []weightRule{
	{
		name: "net/drained",
		re:   reNetDrained,
		kg: func(m []string) float64 {
			return max(atof(m[1]), atof(m[2])) / 1000
		},
	},
	{
		name: "unit literal",
		re:   reUnitLiteral,
		kg: func(m []string) float64 {
			return atof(m[1]) * unitToKg[m[2]]
		},
	},
	{
		name: "packaging",
		re:   rePackaging,
		kg: func(m []string) float64 {
			return atof(m[1])
		},
	},
}

// normalizeWeightText lower-cases, turns decimal commas into points and glues number+unit.
func normalizeWeightText(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, ",", ".")
	s = strings.Join(strings.Fields(s), " ")
	prev := ""
	for s != prev {
		prev = s
		s = reAttachNumUnit.ReplaceAllString(s, "$1$2")
	}
	return s
}

// ParseWeight extracts a weight in kg from free product text, 0 when nothing is recognised.
func ParseWeight(text string) float64 {
	norm := normalizeWeightText(text)
	for _, r := range weightRules {
		best := 0.0
		for _, m := range r.re.FindAllStringSubmatch(norm, -1) {
			if v := r.kg(m); v > best {
				best = v
			}
		}
		if best > 0 {
			return best
		}
	}
	return 0
}

// InferWeight derives the weight in kg of a product.
// Priority: weight table (ours only, even when 0) > text patterns > unit "kg" for external > 0.
func InferWeight(table WeightLookup, name, unit, code, source string) float64 {
	if code != "" && table != nil {
		if e, ok := table.Get(code); ok && Classify(source, code, table) == Ours {
			return e.WeightKg
		}
	}
	if w := ParseWeight(name); w > 0 {
		return w
	}
	if strings.EqualFold(strings.TrimSpace(unit), "kg") && Classify(source, code, table) != Ours {
		return 1
	}
	return 0
}

func articleWeight(a model.Article, table WeightLookup) float64 {
	return InferWeight(table, a.Name, a.Unit, a.Code, a.Source)
}

func atof(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
