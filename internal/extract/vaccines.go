package extract

import (
	"regexp"
	"strings"
)

// VaccineVocabulary is the fixed set of names searched for in research text.
var VaccineVocabulary = []string{
	"Yellow Fever",
	"Typhoid",
	"Hepatitis A",
	"Hepatitis B",
	"Rabies",
	"Japanese Encephalitis",
	"Malaria",
	"Tetanus",
	"Diphtheria",
	"Measles",
	"Mumps",
	"Rubella",
	"Polio",
	"COVID-19",
	"Cholera",
	"Meningococcal",
	"Tuberculosis",
	"Influenza",
}

const (
	requirementWindow = 200
	destinationWindow = 500
	contextLimit      = 300
	defaultContext    = "Vaccine mentioned for travel to destination(s)."
)

var requirementKeywords = []string{"required", "mandatory", "must", "compulsory", "obligatory"}

// VaccineFact is what the research text says about one vaccine.
type VaccineFact struct {
	Name         string
	Required     bool
	Context      string
	Destinations []string
}

// FindVaccines reports every vocabulary vaccine mentioned in text, in
// vocabulary order. Negated requirement language is not special-cased.
func FindVaccines(text string, destinations []string) []VaccineFact {
	lower := strings.ToLower(text)
	facts := make([]VaccineFact, 0)
	for _, vaccine := range VaccineVocabulary {
		mention := mentionPattern(vaccine)
		positions := mention.FindAllStringIndex(lower, -1)
		if len(positions) == 0 {
			continue
		}
		facts = append(facts, VaccineFact{
			Name:         vaccine,
			Required:     isRequired(lower, positions),
			Context:      vaccineContext(text, vaccine),
			Destinations: applicableDestinations(lower, positions, destinations),
		})
	}
	return facts
}

func mentionPattern(vaccine string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToLower(vaccine)) + `\b`)
}

// isRequired scans the same line, up to requirementWindow characters after
// each mention, for mandatory language.
func isRequired(lower string, positions [][]int) bool {
	for _, position := range positions {
		window := lower[position[0]:]
		if newline := strings.IndexByte(window, '\n'); newline >= 0 {
			window = window[:newline]
		}
		end := min(len(window), position[1]-position[0]+requirementWindow)
		window = window[:end]
		for _, keyword := range requirementKeywords {
			if strings.Contains(window, keyword) {
				return true
			}
		}
	}
	return false
}

func vaccineContext(text, vaccine string) string {
	lines := strings.Split(text, "\n")
	needle := strings.ToLower(vaccine)
	collected := make([]string, 0)
	for index, line := range lines {
		if !strings.Contains(strings.ToLower(line), needle) {
			continue
		}
		collected = append(collected, lines[index:min(index+3, len(lines))]...)
	}
	context := strings.Join(collected, " ")
	if len(context) > contextLimit {
		context = context[:contextLimit] + "..."
	}
	if strings.TrimSpace(context) == "" {
		return defaultContext
	}
	return context
}

// applicableDestinations keeps destinations whose country name occurs within
// destinationWindow characters of a mention; no match means all of them.
func applicableDestinations(lower string, positions [][]int, destinations []string) []string {
	applicable := make([]string, 0, len(destinations))
	for _, destination := range destinations {
		country := strings.ToLower(CountryPart(destination))
		if country == "" {
			continue
		}
		for _, position := range positions {
			start := max(0, position[0]-destinationWindow)
			end := min(len(lower), position[0]+destinationWindow)
			if strings.Contains(lower[start:end], country) {
				applicable = append(applicable, destination)
				break
			}
		}
	}
	if len(applicable) == 0 {
		return append([]string(nil), destinations...)
	}
	return applicable
}

// CountryPart returns the text after the last comma, e.g. "Japan" for
// "Tokyo, Japan".
func CountryPart(destination string) string {
	if index := strings.LastIndex(destination, ","); index >= 0 {
		return strings.TrimSpace(destination[index+1:])
	}
	return strings.TrimSpace(destination)
}

// HumanList renders "A", "A and B" or "A, B, and C".
func HumanList(values []string) string {
	switch len(values) {
	case 0:
		return ""
	case 1:
		return values[0]
	case 2:
		return values[0] + " and " + values[1]
	default:
		return strings.Join(values[:len(values)-1], ", ") + ", and " + values[len(values)-1]
	}
}
