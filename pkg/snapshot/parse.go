package snapshot

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"net/url"
	"strings"
)

// Parse reads an uploaded follower/following export into entries. Three
// formats are recognized, tried in order: the Instagram JSON export, a CSV
// export from third-party tools, and a plain list of handles. Usernames are
// normalized and deduplicated preserving first-seen order.
func Parse(r io.Reader, filename string) ([]Entry, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	text := strings.TrimPrefix(string(raw), "\ufeff")
	stripped := strings.TrimSpace(text)
	if stripped == "" {
		return nil, nil
	}

	name := strings.ToLower(filename)

	var rows []Entry
	if looksLikeJSON(name, stripped) {
		rows = parseJSONExport(stripped)
	}
	if len(rows) == 0 && looksLikeCSV(name, stripped) {
		rows = parseCSVExport(stripped)
	}
	if len(rows) == 0 {
		rows = parsePlainList(stripped)
	}

	return dedupe(rows), nil
}

// dedupe normalizes usernames and keeps the first occurrence of each
func dedupe(rows []Entry) []Entry {
	seen := make(map[string]bool, len(rows))
	var out []Entry
	for _, row := range rows {
		normalized := NormalizeUsername(row.Username)
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		out = append(out, Entry{
			Username: normalized,
			FullName: strings.TrimSpace(row.FullName),
		})
	}
	return out
}

func looksLikeJSON(filename, contents string) bool {
	return strings.HasSuffix(filename, ".json") ||
		strings.HasPrefix(contents, "[") ||
		strings.HasPrefix(contents, "{")
}

func looksLikeCSV(filename, contents string) bool {
	if strings.HasSuffix(filename, ".csv") {
		return true
	}
	header := firstLine(contents)
	return strings.Contains(header, ",") || strings.Contains(header, ";")
}

func firstLine(contents string) string {
	if idx := strings.IndexByte(contents, '\n'); idx >= 0 {
		return contents[:idx]
	}
	return contents
}

// Column names third-party exports use for the handle and the display name
var (
	usernameColumns = []string{"username", "handle", "user", "profile url", "profile"}
	fullNameColumns = []string{"full_name", "name", "title"}
)

func parseCSVExport(contents string) []Entry {
	header := firstLine(contents)
	delimiter := ','
	if strings.Contains(header, ";") && !strings.Contains(header, ",") {
		delimiter = ';'
	}

	reader := csv.NewReader(strings.NewReader(contents))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil || len(records) == 0 {
		return nil
	}

	columns := make(map[string]int, len(records[0]))
	for i, col := range records[0] {
		columns[strings.ToLower(strings.TrimSpace(col))] = i
	}

	usernameIdx, ok := findColumn(columns, usernameColumns)
	if !ok {
		// No recognizable header; let the plain-list parser take over
		return nil
	}
	fullNameIdx, hasFullName := findColumn(columns, fullNameColumns)

	var rows []Entry
	for _, record := range records[1:] {
		if usernameIdx >= len(record) {
			continue
		}
		entry := Entry{Username: record[usernameIdx]}
		if hasFullName && fullNameIdx < len(record) {
			entry.FullName = record[fullNameIdx]
		}
		if entry.Username != "" {
			rows = append(rows, entry)
		}
	}
	return rows
}

func findColumn(columns map[string]int, candidates []string) (int, bool) {
	for _, name := range candidates {
		if idx, ok := columns[name]; ok {
			return idx, true
		}
	}
	return 0, false
}

func parsePlainList(contents string) []Entry {
	var rows []Entry
	for _, line := range strings.Split(contents, "\n") {
		cleaned := strings.TrimSpace(line)
		if cleaned == "" {
			continue
		}
		switch {
		case strings.Contains(cleaned, ","):
			username, fullName, _ := strings.Cut(cleaned, ",")
			rows = append(rows, Entry{Username: username, FullName: fullName})
		case strings.Contains(cleaned, " - "):
			username, fullName, _ := strings.Cut(cleaned, " - ")
			rows = append(rows, Entry{Username: username, FullName: fullName})
		default:
			rows = append(rows, Entry{Username: cleaned})
		}
	}
	return rows
}

func parseJSONExport(contents string) []Entry {
	var payload interface{}
	if err := json.Unmarshal([]byte(contents), &payload); err != nil {
		return nil
	}

	type key struct{ username, fullName string }
	seen := make(map[key]bool)
	var entries []Entry

	add := func(username, fullName string) {
		if username == "" {
			return
		}
		k := key{username, fullName}
		if seen[k] {
			return
		}
		seen[k] = true
		entries = append(entries, Entry{Username: username, FullName: fullName})
	}

	var extract func(obj interface{}, contextName string)
	extract = func(obj interface{}, contextName string) {
		switch v := obj.(type) {
		case map[string]interface{}:
			if list, ok := v["string_list_data"].([]interface{}); ok {
				displayName := stringField(v, "title")
				if displayName == "" {
					displayName = stringField(v, "name")
				}
				if displayName == "" {
					displayName = contextName
				}
				for _, raw := range list {
					item, ok := raw.(map[string]interface{})
					if !ok {
						continue
					}
					username := stringField(item, "value")
					if username == "" {
						username = usernameFromHref(stringField(item, "href"))
					}
					fullName := displayName
					if fullName == "" {
						fullName = stringField(item, "title")
					}
					if fullName == "" {
						fullName = stringField(item, "name")
					}
					add(username, fullName)
				}
				return
			}

			if username := stringField(v, "username"); username != "" {
				fullName := stringField(v, "full_name")
				if fullName == "" {
					fullName = stringField(v, "name")
				}
				add(username, fullName)
			}

			if value, ok := v["value"]; ok {
				if username, ok := value.(string); ok {
					fullName := stringField(v, "title")
					if fullName == "" {
						fullName = stringField(v, "name")
					}
					if fullName == "" {
						fullName = contextName
					}
					add(username, fullName)
				}
			}

			childContext := stringField(v, "title")
			if childContext == "" {
				childContext = contextName
			}
			for name, value := range v {
				if name == "string_list_data" {
					continue
				}
				switch value.(type) {
				case map[string]interface{}, []interface{}:
					extract(value, childContext)
				}
			}

		case []interface{}:
			for _, item := range v {
				extract(item, contextName)
			}
		}
	}

	extract(payload, "")
	return entries
}

func stringField(m map[string]interface{}, name string) string {
	if v, ok := m[name].(string); ok {
		return v
	}
	return ""
}

func usernameFromHref(href string) string {
	if href == "" {
		return ""
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	path := strings.Trim(parsed.Path, "/")
	if path == "" {
		return ""
	}
	segment, _, _ := strings.Cut(path, "/")
	return segment
}
