package interpreter

import (
	"strconv"
	"strings"

	"github.com/podhmo/respath/internal/model"
)

// Fold reduces a chain of known string operations applied to a string literal,
// such as strings.ToLower(strings.TrimSpace("  Plugin.XML  ")), to one literal
// without inlining anything. It reports false when the receiver chain does not
// bottom out in a literal, an argument is not constant, the operation is not
// known, or applying it would fail (e.g. a slice bound out of range).
// Calls with a Target are user code and never fold.
func Fold(call *model.Call) (string, bool) {
	if call == nil || call.Receiver == nil || call.Target != nil {
		return "", false
	}
	base, ok := foldString(call.Receiver)
	if !ok {
		return "", false
	}
	return apply(base, call.Method, call.Args)
}

func foldString(e model.Expr) (string, bool) {
	switch x := e.(type) {
	case *model.Literal:
		if x.Kind == model.StringLit {
			return x.Value, true
		}
	case *model.Call:
		return Fold(x)
	}
	return "", false
}

func foldInt(e model.Expr) (int, bool) {
	lit, ok := e.(*model.Literal)
	if !ok || lit.Kind != model.IntLit {
		return 0, false
	}
	n, err := strconv.Atoi(lit.Value)
	if err != nil {
		return 0, false
	}
	return n, true
}

// foldStrings folds every argument to a string constant.
func foldStrings(args []model.Expr) ([]string, bool) {
	out := make([]string, len(args))
	for i, arg := range args {
		s, ok := foldString(arg)
		if !ok {
			return nil, false
		}
		out[i] = s
	}
	return out, true
}

func apply(base string, method string, args []model.Expr) (string, bool) {
	switch method {
	case model.MethodToUpper, model.MethodToLower, model.MethodTrimSpace:
		if len(args) != 0 {
			return "", false
		}
		switch method {
		case model.MethodToUpper:
			return strings.ToUpper(base), true
		case model.MethodToLower:
			return strings.ToLower(base), true
		default:
			return strings.TrimSpace(base), true
		}
	case model.MethodTrimPrefix, model.MethodTrimSuffix:
		if len(args) != 1 {
			return "", false
		}
		affix, ok := foldString(args[0])
		if !ok {
			return "", false
		}
		if method == model.MethodTrimPrefix {
			return strings.TrimPrefix(base, affix), true
		}
		return strings.TrimSuffix(base, affix), true
	case model.MethodReplaceAll:
		if len(args) != 2 {
			return "", false
		}
		strs, ok := foldStrings(args)
		if !ok {
			return "", false
		}
		return strings.ReplaceAll(base, strs[0], strs[1]), true
	case model.MethodReplace:
		if len(args) != 3 {
			return "", false
		}
		strs, ok := foldStrings(args[:2])
		if !ok {
			return "", false
		}
		n, ok := foldInt(args[2])
		if !ok {
			return "", false
		}
		return strings.Replace(base, strs[0], strs[1], n), true
	case model.MethodSlice:
		return slice(base, args)
	default:
		return "", false
	}
}

// slice applies base[low:high] (or base[low:] with one argument), byte-wise.
func slice(base string, args []model.Expr) (string, bool) {
	if len(args) != 1 && len(args) != 2 {
		return "", false
	}
	low, ok := foldInt(args[0])
	if !ok {
		return "", false
	}
	high := len(base)
	if len(args) == 2 {
		if high, ok = foldInt(args[1]); !ok {
			return "", false
		}
	}
	if low < 0 || high < low || high > len(base) {
		return "", false
	}
	return base[low:high], true
}
