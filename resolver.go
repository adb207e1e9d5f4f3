package record

import "strings"

// OpKind identifies the family of a resolved dynamic finder.
type OpKind int

const (
	// OpFindBy selects every row matching the column condition(s).
	OpFindBy OpKind = iota
	// OpFindFirstBy selects the first row matching the column condition(s).
	OpFindFirstBy
)

// String returns the canonical prefix of the operation kind.
func (k OpKind) String() string {
	if k == OpFindFirstBy {
		return "FindFirstBy"
	}
	return "FindBy"
}

// Op is the resolved form of a dynamic finder name: the operation kind plus
// one or two column references, already normalized to the storage convention.
// The columns are not yet validated against the table's column catalog; the
// dispatcher does that.
type Op struct {
	Kind    OpKind
	Columns []string
}

// Resolve parses a dynamic call name against the finder grammar
//
//	("FindBy" | "FindFirstBy") <ColumnExpr>
//	<ColumnExpr> = <Word> "And" <Word> | <Word>
//
// and reports whether it matched. Both exported ("FindByUserName") and
// lower-camel ("findByUserName") spellings are accepted. The two-column form
// is tried first: a single column whose camel-case name contains the literal
// "And" separator is parsed as two columns. This tie-break is deliberate and
// mirrors the split-on-first-separator behavior callers rely on; such a call
// fails later at catalog validation rather than silently changing meaning.
func Resolve(name string) (Op, bool) {
	rest, kind, ok := splitKind(name)
	if !ok || rest == "" {
		return Op{}, false
	}
	// Two-column form first: exactly one "And" separator with a non-empty
	// word on each side.
	if left, right, found := strings.Cut(rest, "And"); found && left != "" && right != "" {
		return Op{Kind: kind, Columns: []string{Underscore(left), Underscore(right)}}, true
	}
	return Op{Kind: kind, Columns: []string{Underscore(rest)}}, true
}

func splitKind(name string) (string, OpKind, bool) {
	for _, prefix := range []string{"FindFirstBy", "findFirstBy"} {
		if rest, ok := strings.CutPrefix(name, prefix); ok {
			return rest, OpFindFirstBy, true
		}
	}
	for _, prefix := range []string{"FindBy", "findBy"} {
		if rest, ok := strings.CutPrefix(name, prefix); ok {
			return rest, OpFindBy, true
		}
	}
	return "", 0, false
}
