package publish

import (
	"fmt"
	"strings"
)

var cqlEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `"`, `\"`)

// PageQuery builds the CQL expression matching a page by exact title within
// a space. Quotes and backslashes in either value are escaped.
func PageQuery(title, space string) string {
	return fmt.Sprintf(`(title="%s" and space='%s' and type=page)`,
		cqlEscaper.Replace(title),
		cqlEscaper.Replace(space),
	)
}
