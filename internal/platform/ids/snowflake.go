// Package ids issues time-ordered identifiers for bills and purchases.
package ids

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// Generator hands out snowflake ids as decimal strings.
type Generator struct {
	node *snowflake.Node
}

// New returns a Generator for the given node number (0-1023).
func New(node int64) (*Generator, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, fmt.Errorf("ids: create node %d: %w", node, err)
	}
	return &Generator{node: n}, nil
}

// Next returns a new id. Later ids compare greater by Compare.
func (g *Generator) Next() string {
	return g.node.Generate().String()
}

// Compare orders ids by length and then lexically, which matches numeric
// order for snowflake ids. It returns -1, 0 or +1.
func Compare(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
