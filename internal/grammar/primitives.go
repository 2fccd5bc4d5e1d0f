package grammar

import (
	"whittle/internal/decision"
	"whittle/internal/tree"
)

// maxArrayDepth bounds recursion across nested array expansions. Once the
// depth is reached the growth loop stops regardless of sampled continuation
// values, which guarantees termination on self-recursive grammars.
const maxArrayDepth = 10

// defaultStrings is the placeholder pool the string primitive samples from
// when the grammar does not declare its own.
var defaultStrings = []string{"a", "b", "c", "foo", "bar", "baz"}

// Run carries the per-generation state threaded through factories: the
// decision source and the current array expansion depth.
type Run struct {
	src   decision.Source
	depth int
}

func literalFactory(v tree.Value) Factory {
	return func(*Run) tree.Value { return v }
}

func booleanFactory(r *Run) tree.Value {
	return r.src.Choice(2) == 1
}

func numberFactory(r *Run) tree.Value {
	return r.src.Choice(10)
}

func stringFactory(pool []string) Factory {
	return func(r *Run) tree.Value {
		return pool[r.src.Choice(len(pool))]
	}
}

func regexpFactory(pool []string) Factory {
	str := stringFactory(pool)
	return func(r *Run) tree.Value {
		return tree.Regexp{Pattern: str(r).(string)}
	}
}

func choiceFactory(opts []Factory) Factory {
	return func(r *Run) tree.Value {
		return opts[r.src.Choice(len(opts))](r)
	}
}

// arrayFactory builds the array combinator. A nonEmpty array generates its
// first element unconditionally, consuming no presence decision. Each further
// element lives in its own decision group opened by Push: the group holds a
// continuation Choice(4) — nonzero proceeds — followed by the element's own
// decisions, so the minimizer can mask any one element without touching its
// siblings. An optional trailing element sits in one more group and is
// appended only when its gate samples exactly 3.
func arrayFactory(elem Factory, nonEmpty bool, trailing Factory) Factory {
	return func(r *Run) tree.Value {
		elems := []tree.Value{}
		if nonEmpty {
			r.depth++
			elems = append(elems, elem(r))
			r.depth--
		}
		for r.depth < maxArrayDepth {
			if !r.src.Push() {
				break
			}
			keep := r.src.Choice(4)
			if keep != 0 {
				r.depth++
				elems = append(elems, elem(r))
				r.depth--
			}
			r.src.Pop()
			if keep == 0 {
				break
			}
		}
		if trailing != nil && r.src.Push() {
			if r.src.Choice(4) == 3 {
				r.depth++
				elems = append(elems, trailing(r))
				r.depth--
			}
			r.src.Pop()
		}
		return elems
	}
}
