package observations

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/diwise/iot-observations/internal/app/observations/filter"
)

type ConditionFunc func(map[string]any) map[string]any

type QueryResult struct {
	Data       [][]byte
	Count      int
	Limit      int
	Offset     int
	TotalCount int64
}

func WithID(id string) ConditionFunc {
	return func(m map[string]any) map[string]any {
		m["id"] = id
		return m
	}
}

func WithTenants(tenants []string) ConditionFunc {
	return func(m map[string]any) map[string]any {
		m["tenants"] = tenants
		return m
	}
}

func WithFilter(expr filter.Expr) ConditionFunc {
	return func(m map[string]any) map[string]any {
		m["filter"] = expr
		return m
	}
}

func WithOrderBy(property string, desc bool) ConditionFunc {
	return func(m map[string]any) map[string]any {
		m["orderby"] = property
		m["orderdesc"] = desc
		return m
	}
}

func WithOffset(offset int) ConditionFunc {
	return func(m map[string]any) map[string]any {
		m["offset"] = offset
		return m
	}
}

func WithLimit(limit int) ConditionFunc {
	return func(m map[string]any) map[string]any {
		m["limit"] = limit
		return m
	}
}

func WithCount() ConditionFunc {
	return func(m map[string]any) map[string]any {
		m["count"] = true
		return m
	}
}

func WithExpand(relations []string) ConditionFunc {
	return func(m map[string]any) map[string]any {
		m["expand"] = relations
		return m
	}
}

func WithSelect(properties []string) ConditionFunc {
	return func(m map[string]any) map[string]any {
		m["select"] = properties
		return m
	}
}

// WithParams converts the OData style query parameters of a collection
// request into conditions. Malformed $filter text and unsupported filter
// functions are both rejected here, never silently dropped.
func WithParams(query map[string][]string) ([]ConditionFunc, error) {
	conditions := make([]ConditionFunc, 0)

	if id, ok := query["id"]; ok && len(id) > 0 && id[0] != "" {
		conditions = append(conditions, WithID(id[0]))
	}

	if tenants, ok := query["tenants"]; ok && len(tenants) > 0 {
		conditions = append(conditions, WithTenants(tenants))
	}

	if f, ok := query["$filter"]; ok && len(f) > 0 && f[0] != "" {
		expr, err := filter.Parse(f[0])
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, WithFilter(expr))
	}

	if o, ok := query["$orderby"]; ok && len(o) > 0 && o[0] != "" {
		property, desc, err := parseOrderBy(o[0])
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, WithOrderBy(property, desc))
	}

	if top, ok := query["$top"]; ok {
		i, err := strconv.Atoi(top[0])
		if err != nil || i < 1 {
			return nil, fmt.Errorf("invalid $top parameter")
		}
		conditions = append(conditions, WithLimit(i))
	}

	if skip, ok := query["$skip"]; ok {
		i, err := strconv.Atoi(skip[0])
		if err != nil || i < 0 {
			return nil, fmt.Errorf("invalid $skip parameter")
		}
		conditions = append(conditions, WithOffset(i))
	}

	if count, ok := query["$count"]; ok && strings.EqualFold(count[0], "true") {
		conditions = append(conditions, WithCount())
	}

	if expand, ok := query["$expand"]; ok && expand[0] != "" {
		conditions = append(conditions, WithExpand(splitAndTrim(expand[0])))
	}

	if sel, ok := query["$select"]; ok && sel[0] != "" {
		conditions = append(conditions, WithSelect(splitAndTrim(sel[0])))
	}

	return conditions, nil
}

func parseOrderBy(s string) (string, bool, error) {
	parts := strings.Fields(s)
	switch len(parts) {
	case 1:
		return parts[0], false, nil
	case 2:
		switch strings.ToLower(parts[1]) {
		case "asc":
			return parts[0], false, nil
		case "desc":
			return parts[0], true, nil
		}
	}
	return "", false, fmt.Errorf("invalid $orderby parameter [%s]", s)
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
