package allocation

import (
	"fmt"
	"strconv"
	"strings"

	launcherrors "github.com/ehsaniara/launchlet/pkg/errors"
)

// ExpandNodeList expands a Slurm compressed hostlist expression into the
// ordered hostname slice it denotes. The scheduler hands the allocation to
// every process in this form, e.g.
//
//	nid001                     -> [nid001]
//	nid[001-003]               -> [nid001 nid002 nid003]
//	nid[001-002,007],login1    -> [nid001 nid002 nid007 login1]
//
// Order is preserved exactly as written: the first expanded host is the
// rendezvous host, so reordering would move the coordination point.
func ExpandNodeList(list string) ([]string, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil, launcherrors.ErrEmptyHostList
	}

	var hosts []string
	for _, expr := range splitTopLevel(list) {
		expanded, err := expandExpression(expr)
		if err != nil {
			return nil, err
		}
		hosts = append(hosts, expanded...)
	}

	return hosts, nil
}

// splitTopLevel splits on commas that are not inside a bracket group
func splitTopLevel(list string) []string {
	var parts []string
	depth := 0
	start := 0

	for i, r := range list {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, list[start:i])
				start = i + 1
			}
		}
	}

	return append(parts, list[start:])
}

// expandExpression expands a single hostlist expression, recursing through
// the suffix so expressions with more than one bracket group still work.
func expandExpression(expr string) ([]string, error) {
	open := strings.IndexByte(expr, '[')
	if open < 0 {
		if strings.ContainsAny(expr, "[]") || expr == "" {
			return nil, malformed(expr, "unbalanced brackets or empty name")
		}
		return []string{expr}, nil
	}

	closing := strings.IndexByte(expr[open:], ']')
	if closing < 0 {
		return nil, malformed(expr, "missing closing bracket")
	}
	closing += open

	prefix := expr[:open]
	body := expr[open+1 : closing]
	suffix := expr[closing+1:]

	if body == "" {
		return nil, malformed(expr, "empty range")
	}

	suffixes, err := expandSuffix(suffix)
	if err != nil {
		return nil, err
	}

	var hosts []string
	for _, element := range strings.Split(body, ",") {
		numbers, err := expandRange(expr, element)
		if err != nil {
			return nil, err
		}
		for _, n := range numbers {
			for _, s := range suffixes {
				hosts = append(hosts, prefix+n+s)
			}
		}
	}

	return hosts, nil
}

// expandSuffix is expandExpression accepting the empty remainder
func expandSuffix(expr string) ([]string, error) {
	if expr == "" {
		return []string{""}, nil
	}
	return expandExpression(expr)
}

// expandRange expands a "7" or "001-003" range element, preserving the
// zero-padding width of the start token
func expandRange(expr, element string) ([]string, error) {
	bounds := strings.SplitN(element, "-", 2)

	lo, err := strconv.Atoi(bounds[0])
	if err != nil {
		return nil, malformed(expr, fmt.Sprintf("bad range element %q", element))
	}

	if len(bounds) == 1 {
		return []string{bounds[0]}, nil
	}

	hi, err := strconv.Atoi(bounds[1])
	if err != nil || hi < lo {
		return nil, malformed(expr, fmt.Sprintf("bad range element %q", element))
	}

	width := len(bounds[0])
	numbers := make([]string, 0, hi-lo+1)
	for n := lo; n <= hi; n++ {
		numbers = append(numbers, fmt.Sprintf("%0*d", width, n))
	}

	return numbers, nil
}

func malformed(expr, detail string) error {
	return fmt.Errorf("%w: %q: %s", launcherrors.ErrMalformedNodeList, expr, detail)
}
