package ingest

import "strings"

// MaxChunkLen is the byte budget of a single chunk.
const MaxChunkLen = 2000

// splitIntoChunks packs whole lines into chunks of at most maxLen bytes.
// Lines longer than maxLen are cut on rune boundaries.
func splitIntoChunks(content string, maxLen int) []string {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	if len(content) <= maxLen {
		return []string{content}
	}

	var chunks []string
	var buf strings.Builder

	flush := func() {
		if chunk := strings.TrimSpace(buf.String()); chunk != "" {
			chunks = append(chunks, chunk)
		}
		buf.Reset()
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		for len(line) > maxLen {
			cut := runeCut(line, maxLen)
			flush()
			buf.WriteString(line[:cut])
			flush()
			line = line[cut:]
		}

		if buf.Len()+len(line)+1 > maxLen {
			flush()
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}

	flush()
	return chunks
}

// runeCut returns the largest index <= n that starts a rune in s.
func runeCut(s string, n int) int {
	for n > 0 && n < len(s) && !isRuneStart(s[n]) {
		n--
	}
	if n == 0 {
		return 1
	}
	return n
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
