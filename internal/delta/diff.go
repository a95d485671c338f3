package delta

import (
	"encoding/json"
	"strings"

	difflib "github.com/pmezard/go-difflib/difflib"

	"github.com/dictcore/dictcore/internal/codec"
	"github.com/dictcore/dictcore/internal/coreerrors"
)

// ChangeKind categorizes one line of a human-readable diff, mirroring
// unified-diff semantics.
type ChangeKind string

const (
	ChangeAdded   ChangeKind = "added"
	ChangeRemoved ChangeKind = "removed"
	ChangeSame    ChangeKind = "unchanged"
)

// Change is one line of a field-level diff between two versions' content.
type Change struct {
	Kind ChangeKind
	Line string
}

// ComputeDiffBetween renders a categorized, human-readable diff between
// two versions' content for API responses; it plays no part in chain
// reconstruction. Built on github.com/pmezard/go-difflib's unified-diff
// line matcher over the two contents' canonical (pretty, key-sorted)
// JSON renderings.
func ComputeDiffBetween(fromVersion, toVersion string, fromContent, toContent any) ([]Change, error) {
	fromLines, err := prettyLines(fromContent)
	if err != nil {
		return nil, err
	}
	toLines, err := prettyLines(toContent)
	if err != nil {
		return nil, err
	}

	matcher := difflib.NewMatcher(fromLines, toLines)
	var changes []Change
	for _, op := range matcher.GetOpCodes() {
		switch op.Tag {
		case 'e':
			for _, line := range fromLines[op.I1:op.I2] {
				changes = append(changes, Change{Kind: ChangeSame, Line: line})
			}
		case 'd':
			for _, line := range fromLines[op.I1:op.I2] {
				changes = append(changes, Change{Kind: ChangeRemoved, Line: line})
			}
		case 'i':
			for _, line := range toLines[op.J1:op.J2] {
				changes = append(changes, Change{Kind: ChangeAdded, Line: line})
			}
		case 'r':
			for _, line := range fromLines[op.I1:op.I2] {
				changes = append(changes, Change{Kind: ChangeRemoved, Line: line})
			}
			for _, line := range toLines[op.J1:op.J2] {
				changes = append(changes, Change{Kind: ChangeAdded, Line: line})
			}
		}
	}
	return changes, nil
}

// prettyLines renders v as indented, key-sorted JSON split into lines, so
// the line-level diff lines up on semantic object boundaries rather than
// codec.Canonicalize's single-line compact form.
func prettyLines(v any) ([]string, error) {
	canonical, err := codec.Canonicalize(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(canonical, &generic); err != nil {
		return nil, coreerrors.New(coreerrors.ErrCodeDecode, "failed to re-decode canonical content for diffing", err)
	}
	pretty, err := json.MarshalIndent(generic, "", "  ")
	if err != nil {
		return nil, coreerrors.New(coreerrors.ErrCodeEncode, "failed to render content for diffing", err)
	}
	return strings.Split(string(pretty), "\n"), nil
}
