package enrichment

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const maxSlugLength = 60

var slugPattern = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// Slug turns name into a filename-safe token.
func Slug(name string) string {
	s := slugPattern.ReplaceAllString(name, "-")
	s = strings.ToLower(strings.Trim(s, "-"))
	if len(s) > maxSlugLength {
		s = s[:maxSlugLength]
	}
	return s
}

// FallbackDescription is the deterministic copy used when no text provider
// answered.
func FallbackDescription(name string, notes *string, price *float64) string {
	var info []string
	if notes != nil && *notes != "" {
		info = append(info, *notes)
	}
	if price != nil {
		info = append(info, fmt.Sprintf("Price: %.2f", *price))
	}
	extra := ""
	if len(info) > 0 {
		extra = ". " + strings.Join(info, " | ")
	}
	return name + ": A versatile choice that combines quality, style and performance. " +
		"Ideal for anyone looking for everyday practicality and a design that stands out effortlessly. " +
		"It offers a dependable experience with details that elevate every use and a value you notice from the very first moment" +
		extra + "."
}

func describePrompt(name string, notes *string, price *float64) string {
	notesText := "—"
	if notes != nil && *notes != "" {
		notesText = *notes
	}
	priceText := "—"
	if price != nil {
		priceText = strconv.FormatFloat(*price, 'f', -1, 64)
	}

	var b strings.Builder
	b.WriteString("Act as a senior copywriter. Write ONE paragraph (80-120 words) in a persuasive, clear tone, ")
	b.WriteString("with no emoji or lists, avoiding clichés. Focus on real benefits and differentiators.\n")
	fmt.Fprintf(&b, "Product: %s\n", name)
	fmt.Fprintf(&b, "Seller notes: %s\n", notesText)
	fmt.Fprintf(&b, "Price: %s\n", priceText)
	b.WriteString("Deliver ONLY the paragraph.")
	return b.String()
}
