package gbr

import "github.com/cockroachdb/errors"

//ErrProtocolViolation marks errors caused by a node-visit stream that does not follow
//the breadth-first, tree-by-tree ordering the capture relies on.
var ErrProtocolViolation = errors.New("gbr: traversal protocol violation")

//ErrStructuralViolation marks errors caused by a tree that is not a complete binary tree
//or whose node count disagrees with its structure.
var ErrStructuralViolation = errors.New("gbr: structural violation")

func protocolErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrProtocolViolation)
}

func structuralErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrStructuralViolation)
}
