package ideas

import "strings"

// CleanCandidates extracts domain names from raw model output. Models
// occasionally prepend numbering or bullets despite instructions, so for
// each non-empty line the last whitespace-separated token is taken. Order
// of lines is preserved.
func CleanCandidates(raw string) []string {
	var out []string
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		d := strings.Trim(fields[len(fields)-1], ".,;:`*\"'")
		if d == "" {
			continue
		}
		out = append(out, d)
	}
	return out
}
