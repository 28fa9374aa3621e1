package extract

import (
	"regexp"
	"strings"
)

// ProseRecord is what the heuristic miner could recover from one block of
// unstructured text. Zero values mean "not found".
type ProseRecord struct {
	Name        string
	Type        string
	Price       float64
	Currency    string
	Location    string
	Description string
}

var (
	numberedHeadingPattern = regexp.MustCompile(`^\s*(?:\d+[.)]|#{1,6})\s+`)
	boldPattern            = regexp.MustCompile(`\*\*([^*\n]+)\*\*|__([^_\n]+)__`)
	venueNamePattern       = regexp.MustCompile(`\b((?:[A-Z][\w'&.-]*\s+){0,5}(?:Hotel|Hostel|Resort|Inn|Guesthouse|Guest House|Lodge|Suites|Apartments|Motel|Ryokan|Villa|B&B))\b`)
	capitalizedPhrase      = regexp.MustCompile(`\b([A-Z][\w'&-]+(?:\s+(?:de|la|le|del|of|the|&)?\s*[A-Z][\w'&-]+)+)\b`)
	codePricePattern       = regexp.MustCompile(`\b(USD|EUR|GBP|JPY|AUD|CAD|CHF|CNY|INR|BRL|MXN|THB|SGD|NZD|KRW|IDR|VND|ZAR|SEK|NOK|DKK|TRY|PLN|CZK|HUF|PEN|COP|ARS|CLP)\s?(\d[\d,]*(?:\.\d+)?)`)
	priceCodePattern       = regexp.MustCompile(`(\d[\d,]*(?:\.\d+)?)\s?(USD|EUR|GBP|JPY|AUD|CAD|CHF|CNY|INR|BRL|MXN|THB|SGD|NZD|KRW|IDR|VND|ZAR|SEK|NOK|DKK|TRY|PLN|CZK|HUF|PEN|COP|ARS|CLP)\b`)
	symbolPricePattern     = regexp.MustCompile(`(R\$|US\$|[$€£¥₹])\s?(\d[\d,]*(?:\.\d+)?)`)
	labeledLocationPattern = regexp.MustCompile(`(?i)\b(?:location|neighbou?rhood|area)\s*:\s*([^\n;.]+)`)
	nearLocationPattern    = regexp.MustCompile(`\b(?:near|in)\s+((?:the\s+)?[A-Z][\w'-]*(?:\s+[A-Z][\w'-]*)*)`)
	markdownNoisePattern   = regexp.MustCompile("[*_`#>]+")
)

var venueTypes = []struct {
	pattern *regexp.Regexp
	label   string
}{
	{regexp.MustCompile(`\bguest houses?\b`), "guesthouse"},
	{regexp.MustCompile(`\bguesthouses?\b`), "guesthouse"},
	{regexp.MustCompile(`\bhostels?\b`), "hostel"},
	{regexp.MustCompile(`\bresorts?\b`), "resort"},
	{regexp.MustCompile(`\bryokans?\b`), "ryokan"},
	{regexp.MustCompile(`\bb&bs?\b`), "bed and breakfast"},
	{regexp.MustCompile(`\bbed and breakfasts?\b`), "bed and breakfast"},
	{regexp.MustCompile(`\bapartments?\b`), "apartment"},
	{regexp.MustCompile(`\bmotels?\b`), "motel"},
	{regexp.MustCompile(`\blodges?\b`), "lodge"},
	{regexp.MustCompile(`\bvillas?\b`), "villa"},
	{regexp.MustCompile(`\binns?\b`), "inn"},
	{regexp.MustCompile(`\bhotels?\b`), "hotel"},
}

var currencySymbols = map[string]string{
	"$":   "USD",
	"US$": "USD",
	"R$":  "BRL",
	"€":   "EUR",
	"£":   "GBP",
	"¥":   "JPY",
	"₹":   "INR",
}

// MineProse splits text into blocks on blank lines and numbered headings and
// keeps the blocks that yield at least a name or a venue type.
func MineProse(text string) []ProseRecord {
	records := make([]ProseRecord, 0)
	for _, block := range splitBlocks(text) {
		record := mineBlock(block)
		if record.Name == "" && record.Type == "" {
			continue
		}
		records = append(records, record)
	}
	return records
}

func splitBlocks(text string) []string {
	blocks := make([]string, 0)
	current := make([]string, 0)
	flush := func() {
		if joined := strings.TrimSpace(strings.Join(current, "\n")); joined != "" {
			blocks = append(blocks, joined)
		}
		current = current[:0]
	}

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if numberedHeadingPattern.MatchString(line) {
			flush()
		}
		current = append(current, line)
	}
	flush()
	return blocks
}

func mineBlock(block string) ProseRecord {
	firstLine := block
	if index := strings.IndexByte(block, '\n'); index >= 0 {
		firstLine = block[:index]
	}
	firstLine = numberedHeadingPattern.ReplaceAllString(firstLine, "")

	record := ProseRecord{
		Name:        mineName(block, firstLine),
		Type:        mineType(block),
		Location:    mineLocation(block),
		Description: mineDescription(block),
	}
	record.Price, record.Currency = minePrice(block)
	return record
}

func mineName(block, firstLine string) string {
	if matches := boldPattern.FindStringSubmatch(block); matches != nil {
		return cleanName(firstNonBlank(matches[1], matches[2]))
	}
	if match := capitalizedPhrase.FindString(firstLine); match != "" {
		return cleanName(match)
	}
	if match := venueNamePattern.FindString(block); match != "" {
		return cleanName(match)
	}
	return ""
}

func cleanName(name string) string {
	return strings.Trim(strings.TrimSpace(name), ":-–,. ")
}

func mineType(block string) string {
	lower := strings.ToLower(block)
	for _, venue := range venueTypes {
		if venue.pattern.MatchString(lower) {
			return venue.label
		}
	}
	return ""
}

func minePrice(block string) (float64, string) {
	if matches := codePricePattern.FindStringSubmatch(block); matches != nil {
		return parseNumber(matches[2]), matches[1]
	}
	if matches := priceCodePattern.FindStringSubmatch(block); matches != nil {
		return parseNumber(matches[1]), matches[2]
	}
	if matches := symbolPricePattern.FindStringSubmatch(block); matches != nil {
		return parseNumber(matches[2]), currencySymbols[matches[1]]
	}
	return 0, ""
}

func mineLocation(block string) string {
	if matches := labeledLocationPattern.FindStringSubmatch(block); matches != nil {
		return strings.Trim(markdownNoisePattern.ReplaceAllString(matches[1], ""), " .,")
	}
	if matches := nearLocationPattern.FindStringSubmatch(block); matches != nil {
		return strings.TrimSpace(matches[1])
	}
	return ""
}

func mineDescription(block string) string {
	cleaned := numberedHeadingPattern.ReplaceAllString(block, "")
	cleaned = markdownNoisePattern.ReplaceAllString(cleaned, "")
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	return truncate(cleaned, 300)
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
