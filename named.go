package record

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/syssam/record/dialect"
)

// expandNamed rewrites the :named placeholders of a synthesized statement
// into the positional style of the target dialect and collects the bound
// values in placeholder order. The same placeholder may appear more than
// once (e.g. in an IN list and its ORDER BY expression); each occurrence
// emits its own positional argument. A placeholder without a bind entry is
// an error: the bind map must cover every placeholder exactly.
//
// The scan skips quoted strings ('…', "…", `…`), line and block comments,
// and Postgres :: casts, so raw predicate text cannot corrupt the rewrite.
func expandNamed(query, dialectName string, binds Binds) (string, []any, error) {
	var (
		b    strings.Builder
		args = make([]any, 0, len(binds))
		n    = 0
		i    = 0
	)
	b.Grow(len(query) + 8)
	for i < len(query) {
		c := query[i]
		switch c {
		case '\'', '"', '`':
			j, err := skipQuoted(query, i)
			if err != nil {
				return "", nil, err
			}
			b.WriteString(query[i:j])
			i = j
		case '-':
			if strings.HasPrefix(query[i:], "--") {
				j := skipLine(query, i)
				b.WriteString(query[i:j])
				i = j
				continue
			}
			b.WriteByte(c)
			i++
		case '/':
			if strings.HasPrefix(query[i:], "/*") {
				j, err := skipBlock(query, i)
				if err != nil {
					return "", nil, err
				}
				b.WriteString(query[i:j])
				i = j
				continue
			}
			b.WriteByte(c)
			i++
		case ':':
			if strings.HasPrefix(query[i:], "::") { // Postgres cast
				b.WriteString("::")
				i += 2
				continue
			}
			name, j := scanIdent(query, i+1)
			if name == "" {
				b.WriteByte(c)
				i++
				continue
			}
			val, ok := binds[query[i:j]]
			if !ok {
				return "", nil, fmt.Errorf("record: missing bind for %s", query[i:j])
			}
			n++
			if dialectName == dialect.Postgres {
				b.WriteByte('$')
				b.WriteString(strconv.Itoa(n))
			} else {
				b.WriteByte('?')
			}
			args = append(args, val)
			i = j
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String(), args, nil
}

func skipQuoted(s string, i int) (int, error) {
	quote := s[i]
	j := i + 1
	for j < len(s) {
		if s[j] == quote {
			// Doubled quote is an escape, not a terminator.
			if j+1 < len(s) && s[j+1] == quote {
				j += 2
				continue
			}
			return j + 1, nil
		}
		j++
	}
	return 0, fmt.Errorf("record: unterminated %c-quoted literal", quote)
}

func skipLine(s string, i int) int {
	for i < len(s) {
		if s[i] == '\n' {
			return i + 1
		}
		i++
	}
	return i
}

func skipBlock(s string, i int) (int, error) {
	for j := i + 2; j < len(s)-1; j++ {
		if s[j] == '*' && s[j+1] == '/' {
			return j + 2, nil
		}
	}
	return 0, fmt.Errorf("record: unterminated block comment")
}

func scanIdent(s string, i int) (string, int) {
	start := i
	for i < len(s) {
		c := s[i]
		if c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
			i++
			continue
		}
		break
	}
	if i == start {
		return "", i
	}
	return s[start:i], i
}
