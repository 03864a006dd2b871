package spawnable

import (
	"sort"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/chazu/expgen/pkg/defs"
)

var log = commonlog.GetLogger("expgen.spawnable")

// AliasList maps content-facing names to canonical class names. Chains
// are allowed: an alias may point at another alias.
type AliasList struct {
	aliases map[string]string
}

// NewAliasList returns an empty list.
func NewAliasList() *AliasList {
	return &AliasList{aliases: map[string]string{}}
}

// Load merges the scalar entries of an alias table into the list.
// Existing entries with the same name are replaced.
func (l *AliasList) Load(t *defs.Table) {
	for k, v := range t.StringMap() {
		l.aliases[k] = v
	}
}

// Clear removes all aliases.
func (l *AliasList) Clear() {
	l.aliases = map[string]string{}
}

// Resolve follows the alias chain from name and returns the final
// class name. Alias keys are matched case-insensitively, and a
// self-mapping like "heatcloud" -> "HeatCloud" terminates the chase.
// A chain longer than the list itself must contain a cycle; the chase
// stops there with a warning rather than spinning.
func (l *AliasList) Resolve(name string) string {
	n := name
	for hops := 0; hops <= len(l.aliases); hops++ {
		next, ok := l.aliases[strings.ToLower(n)]
		if !ok || next == n {
			return n
		}
		n = next
	}
	log.Warningf("alias chain for %q does not terminate", name)
	return n
}

// FindAlias returns the first alias (in sorted order) that maps to
// className, or className itself when none does. Used for reporting,
// so content authors see the name they would actually write.
func (l *AliasList) FindAlias(className string) string {
	keys := make([]string, 0, len(l.aliases))
	for k := range l.aliases {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if l.aliases[k] == className {
			return k
		}
	}
	return className
}

// Len returns the number of aliases.
func (l *AliasList) Len() int {
	return len(l.aliases)
}
