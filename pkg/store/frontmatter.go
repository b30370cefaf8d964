package store

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const frontmatterDelimiter = "---"

// splitFrontmatter returns the YAML block and the remaining body.
// ok is false when content has no frontmatter at all.
func splitFrontmatter(content string) (yamlContent, body string, ok bool, err error) {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, frontmatterDelimiter) {
		return "", content, false, nil
	}

	rest := content[len(frontmatterDelimiter):]
	idx := strings.Index(rest, "\n"+frontmatterDelimiter)
	if idx == -1 {
		return "", "", false, fmt.Errorf("unclosed frontmatter delimiter")
	}

	yamlContent = rest[:idx]
	body = rest[idx+len("\n"+frontmatterDelimiter):]
	return yamlContent, strings.TrimLeft(body, "\n"), true, nil
}

// ParseHabit splits a habit.md file into YAML frontmatter and description.
func ParseHabit(content string) (*Habit, error) {
	yamlContent, body, ok, err := splitFrontmatter(content)
	if err != nil {
		return nil, err
	}
	if !ok {
		// No frontmatter, so the whole file is the description
		return &Habit{Description: body}, nil
	}

	var h Habit
	if err := yaml.Unmarshal([]byte(yamlContent), &h); err != nil {
		return nil, fmt.Errorf("parsing frontmatter YAML: %w", err)
	}

	h.Description = body
	return &h, nil
}

// SerializeHabit renders a Habit back to markdown with YAML frontmatter.
func SerializeHabit(h *Habit) (string, error) {
	yamlBytes, err := yaml.Marshal(h)
	if err != nil {
		return "", fmt.Errorf("serializing frontmatter YAML: %w", err)
	}

	var b strings.Builder
	b.WriteString(frontmatterDelimiter)
	b.WriteString("\n")
	b.WriteString(strings.TrimRight(string(yamlBytes), "\n"))
	b.WriteString("\n")
	b.WriteString(frontmatterDelimiter)
	b.WriteString("\n")
	if h.Description != "" {
		b.WriteString("\n")
		b.WriteString(h.Description)
		if !strings.HasSuffix(h.Description, "\n") {
			b.WriteString("\n")
		}
	}

	return b.String(), nil
}

type logFile struct {
	Entries []LogEntry `yaml:"entries"`
}

// ParseLogs decodes a log.yaml file. HabitID is stamped on every entry
// since the file itself lives under the habit's directory.
func ParseLogs(habitID string, data []byte) ([]LogEntry, error) {
	var f logFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing log YAML: %w", err)
	}
	for i := range f.Entries {
		f.Entries[i].HabitID = habitID
	}
	return f.Entries, nil
}

// SerializeLogs renders entries sorted by date.
func SerializeLogs(entries []LogEntry) ([]byte, error) {
	sorted := make([]LogEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date < sorted[j].Date
	})

	data, err := yaml.Marshal(logFile{Entries: sorted})
	if err != nil {
		return nil, fmt.Errorf("serializing log YAML: %w", err)
	}
	return data, nil
}

// ParseOrder parses an order.md file into an Order struct.
func ParseOrder(content string) (*Order, error) {
	var o Order

	yamlContent, body, ok, err := splitFrontmatter(content)
	if err != nil {
		return nil, fmt.Errorf("%w in order.md", err)
	}
	if ok {
		if err := yaml.Unmarshal([]byte(yamlContent), &o); err != nil {
			return nil, fmt.Errorf("parsing order frontmatter: %w", err)
		}
	}

	// Parse numbered list
	for _, line := range strings.Split(strings.TrimSpace(body), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		// Strip leading "1. ", "2. ", etc.
		num, item, found := strings.Cut(line, ".")
		if found && num != "" && strings.Trim(num, "0123456789") == "" {
			line = strings.TrimSpace(item)
		}
		if line != "" {
			o.Items = append(o.Items, line)
		}
	}

	return &o, nil
}

// SerializeOrder renders an Order back to markdown.
func SerializeOrder(o *Order) string {
	var b strings.Builder
	b.WriteString(frontmatterDelimiter)
	b.WriteString("\n")
	yamlBytes, _ := yaml.Marshal(struct {
		Updated string `yaml:"updated"`
	}{
		Updated: o.Updated.UTC().Format("2006-01-02T15:04:05Z"),
	})
	b.WriteString(strings.TrimRight(string(yamlBytes), "\n"))
	b.WriteString("\n")
	b.WriteString(frontmatterDelimiter)
	b.WriteString("\n\n")

	for i, item := range o.Items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item)
	}

	return b.String()
}
