package permission

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Iron-Ham/claudeflow/internal/event"
)

// typeRule maps keyword substrings to a request type. Rules are checked in
// order and the first hit wins.
type typeRule struct {
	keywords    []string
	typ         RequestType
	description string
}

var typeRules = []typeRule{
	{[]string{"permission"}, TypeConfirmation, "Permission request"},
	{[]string{"confirm", "continue"}, TypeConfirmation, "Confirmation required"},
	{[]string{"access", "read", "write", "create", "delete"}, TypeFileAccess, "File access request"},
	{[]string{"network", "internet", "http", "https"}, TypeNetworkAccess, "Network access request"},
	{[]string{"exec", "run", "command", "shell"}, TypeSystemCommand, "System command request"},
	{[]string{"input", "enter", "type"}, TypeUserInput, "User input required"},
}

const defaultDescription = "Attention required"

// Classify infers the request type and a short description from an
// attention event's source and details. Matching is case-insensitive
// substring search; the source and the details are checked separately so a
// keyword cannot straddle the two.
func Classify(source string, details map[string]any) (RequestType, string) {
	sourceText := strings.ToLower(source)
	detailsText := strings.ToLower(detailText(details))

	for _, rule := range typeRules {
		for _, kw := range rule.keywords {
			if strings.Contains(detailsText, kw) || strings.Contains(sourceText, kw) {
				return rule.typ, rule.description
			}
		}
	}
	return TypeUnknown, defaultDescription
}

// detailText flattens detail values into one string, in key order. The raw
// hook line is skipped because it repeats the other hook fields as JSON.
func detailText(details map[string]any) string {
	if len(details) == 0 {
		return ""
	}
	keys := make([]string, 0, len(details))
	for k := range details {
		if k == event.DetailLine {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprint(&b, details[k])
	}
	return b.String()
}
