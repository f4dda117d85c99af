package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

const (
	sectionRuleWidthConstant            = 60
	sectionRuleCharacterConstant        = "-"
	sectionTemplateConstant             = "\n%s\n%s\n"
	missingValuePlaceholderConstant     = "N/A"
	relativePastSuffixConstant          = "ago"
	relativeFutureSuffixConstant        = "from now"
	timestampWithRelativeTemplate       = "%s (%s)"
	structuredFormatJSONConstant        = "json"
	structuredFormatYAMLConstant        = "yaml"
	jsonIndentConstant                  = "  "
	yamlIndentConstant                  = 2
	unsupportedStructuredFormatTemplate = "unsupported output format %q"
)

// WriteSection prints a heading followed by a horizontal rule.
func WriteSection(writer io.Writer, palette Palette, title string) error {
	_, writeError := fmt.Fprintf(writer, sectionTemplateConstant, palette.Heading(title), strings.Repeat(sectionRuleCharacterConstant, sectionRuleWidthConstant))
	return writeError
}

// ValueOrPlaceholder returns value, or N/A when it is blank.
func ValueOrPlaceholder(value string) string {
	if len(strings.TrimSpace(value)) == 0 {
		return missingValuePlaceholderConstant
	}
	return value
}

// RelativeTime renders moment relative to now, such as "3 hours ago".
func RelativeTime(moment time.Time, now time.Time) string {
	if moment.IsZero() {
		return missingValuePlaceholderConstant
	}
	return humanize.RelTime(moment, now, relativePastSuffixConstant, relativeFutureSuffixConstant)
}

// Timestamp renders moment in RFC 3339 followed by its relative age.
func Timestamp(moment time.Time, now time.Time) string {
	if moment.IsZero() {
		return missingValuePlaceholderConstant
	}
	return fmt.Sprintf(timestampWithRelativeTemplate, moment.UTC().Format(time.RFC3339), RelativeTime(moment, now))
}

// WriteStructured encodes value as indented JSON or YAML according to format.
func WriteStructured(writer io.Writer, format string, value any) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case structuredFormatJSONConstant:
		encoder := json.NewEncoder(writer)
		encoder.SetIndent("", jsonIndentConstant)
		return encoder.Encode(value)
	case structuredFormatYAMLConstant:
		encoder := yaml.NewEncoder(writer)
		encoder.SetIndent(yamlIndentConstant)
		if encodeError := encoder.Encode(value); encodeError != nil {
			return encodeError
		}
		return encoder.Close()
	default:
		return fmt.Errorf(unsupportedStructuredFormatTemplate, format)
	}
}
