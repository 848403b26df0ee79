package frame

import (
	"fmt"
	"strconv"
)

// Text renders a cell for text comparison or output. nil renders as the
// empty string; integers and reals use their shortest exact decimal form.
func Text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		if x {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(x)
	}
}
