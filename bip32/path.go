package bip32

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// This file is the path algebra (C5): three derivation-path types tagged by
// which segment kinds they may hold, their widening/narrowing conversions,
// textual parse/print in "m/0'/1" form, and application of a parsed path to
// a key. A HardPath only ever folds with ChildHardened, a SoftPath only
// ever folds with Child; AnyPath mixes both and chooses per segment.

// PathSegment is one element of an AnyPath: a raw index below the hardened
// bit, plus whether this segment is hardened.
type PathSegment struct {
	Index uint32
	Hard  bool
}

// HardPath is a derivation path all of whose segments are hardened.
type HardPath struct {
	segs []uint32
}

// SoftPath is a derivation path all of whose segments are soft.
type SoftPath struct {
	segs []uint32
}

// AnyPath is a derivation path whose segments may freely mix hard and soft.
type AnyPath struct {
	segs []PathSegment
}

func checkRawIndex(i uint32) error {
	if IsHardened(i) {
		return errors.Wrapf(ErrInvalidPath, "raw segment index must be < 2^31, got %#x", i)
	}
	return nil
}

// NewHardPath builds a HardPath from raw (un-hardened-bit) indices.
func NewHardPath(indices ...uint32) (HardPath, error) {
	for _, i := range indices {
		if err := checkRawIndex(i); err != nil {
			return HardPath{}, err
		}
	}
	return HardPath{segs: append([]uint32(nil), indices...)}, nil
}

// NewSoftPath builds a SoftPath from raw indices.
func NewSoftPath(indices ...uint32) (SoftPath, error) {
	for _, i := range indices {
		if err := checkRawIndex(i); err != nil {
			return SoftPath{}, err
		}
	}
	return SoftPath{segs: append([]uint32(nil), indices...)}, nil
}

// NewAnyPath builds an AnyPath from explicitly tagged segments.
func NewAnyPath(segments ...PathSegment) (AnyPath, error) {
	for _, s := range segments {
		if err := checkRawIndex(s.Index); err != nil {
			return AnyPath{}, err
		}
	}
	return AnyPath{segs: append([]PathSegment(nil), segments...)}, nil
}

// ToAny widens h to the unconstrained path type.
func (h HardPath) ToAny() AnyPath {
	out := make([]PathSegment, len(h.segs))
	for i, idx := range h.segs {
		out[i] = PathSegment{Index: idx, Hard: true}
	}
	return AnyPath{segs: out}
}

// ToAny widens s to the unconstrained path type.
func (s SoftPath) ToAny() AnyPath {
	out := make([]PathSegment, len(s.segs))
	for i, idx := range s.segs {
		out[i] = PathSegment{Index: idx, Hard: false}
	}
	return AnyPath{segs: out}
}

// ToHard narrows a to a HardPath, failing if any segment is soft.
func (a AnyPath) ToHard() (HardPath, error) {
	out := make([]uint32, len(a.segs))
	for i, s := range a.segs {
		if !s.Hard {
			return HardPath{}, errors.Wrapf(ErrInvalidPath, "segment %d is soft, cannot narrow to a hard path", i)
		}
		out[i] = s.Index
	}
	return HardPath{segs: out}, nil
}

// ToSoft narrows a to a SoftPath, failing if any segment is hard.
func (a AnyPath) ToSoft() (SoftPath, error) {
	out := make([]uint32, len(a.segs))
	for i, s := range a.segs {
		if s.Hard {
			return SoftPath{}, errors.Wrapf(ErrInvalidPath, "segment %d is hard, cannot narrow to a soft path", i)
		}
		out[i] = s.Index
	}
	return SoftPath{segs: out}, nil
}

// Concat appends other's segments after h's.
func (h HardPath) Concat(other HardPath) HardPath {
	return HardPath{segs: append(append([]uint32(nil), h.segs...), other.segs...)}
}

// Concat appends other's segments after s's.
func (s SoftPath) Concat(other SoftPath) SoftPath {
	return SoftPath{segs: append(append([]uint32(nil), s.segs...), other.segs...)}
}

// Concat appends other's segments after a's; the result is Any regardless
// of whether the two operands happen to share a tag, since this is the
// general-purpose join used once mixing is already possible.
func (a AnyPath) Concat(other AnyPath) AnyPath {
	return AnyPath{segs: append(append([]PathSegment(nil), a.segs...), other.segs...)}
}

// Derive folds h over x using ChildHardened at every step.
func (h HardPath) Derive(x *XPrv) (*XPrv, error) {
	cur := x
	for _, idx := range h.segs {
		var err error
		cur, err = cur.ChildHardened(idx)
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}

// DerivePrivate folds s over x using Child at every step.
func (s SoftPath) DerivePrivate(x *XPrv) (*XPrv, error) {
	cur := x
	for _, idx := range s.segs {
		var err error
		cur, err = cur.Child(idx)
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}

// DerivePublic folds s over an XPub using XPub.Child at every step, per the
// soft-commutativity property: deriveXPub(prv_sub(x,i)) = pub_sub(deriveXPub(x),i).
func (s SoftPath) DerivePublic(x *XPub) (*XPub, error) {
	cur := x
	for _, idx := range s.segs {
		var err error
		cur, err = cur.Child(idx)
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}

// Derive folds a over x, calling ChildHardened for hard segments and Child
// for soft ones.
func (a AnyPath) Derive(x *XPrv) (*XPrv, error) {
	cur := x
	for _, s := range a.segs {
		var err error
		if s.Hard {
			cur, err = cur.ChildHardened(s.Index)
		} else {
			cur, err = cur.Child(s.Index)
		}
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}

// HasHard reports whether any segment of a is hardened.
func (a AnyPath) HasHard() bool {
	for _, s := range a.segs {
		if s.Hard {
			return true
		}
	}
	return false
}

// Len returns the number of segments in a.
func (a AnyPath) Len() int { return len(a.segs) }

// Compare orders two AnyPaths lexicographically by (logical index, then
// hardness) per segment, with soft sorting before hard at an equal index,
// so 5 < 5' < 6. This differs from ordering by the raw 32-bit index
// (index | 0x80000000 for a hardened segment), under which every hardened
// segment sorts after every soft one: 5 < 6 < 5'. A shorter path that is a
// prefix of a longer one sorts first.
func Compare(a, b AnyPath) int {
	n := len(a.segs)
	if len(b.segs) < n {
		n = len(b.segs)
	}
	for i := 0; i < n; i++ {
		sa, sb := a.segs[i], b.segs[i]
		if sa.Index != sb.Index {
			if sa.Index < sb.Index {
				return -1
			}
			return 1
		}
		if sa.Hard != sb.Hard {
			if !sa.Hard {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a.segs) < len(b.segs):
		return -1
	case len(a.segs) > len(b.segs):
		return 1
	default:
		return 0
	}
}

// Less reports whether a sorts before b under Compare.
func (a AnyPath) Less(b AnyPath) bool { return Compare(a, b) < 0 }

func segmentString(s PathSegment) string {
	if s.Hard {
		return strconv.FormatUint(uint64(s.Index), 10) + "'"
	}
	return strconv.FormatUint(uint64(s.Index), 10)
}

// String renders h in "i'/j'/..." form.
func (h HardPath) String() string {
	parts := make([]string, len(h.segs))
	for i, idx := range h.segs {
		parts[i] = segmentString(PathSegment{Index: idx, Hard: true})
	}
	return strings.Join(parts, "/")
}

// String renders s in "i/j/..." form.
func (s SoftPath) String() string {
	parts := make([]string, len(s.segs))
	for i, idx := range s.segs {
		parts[i] = segmentString(PathSegment{Index: idx, Hard: false})
	}
	return strings.Join(parts, "/")
}

// String renders a in mixed "i'/j/..." form.
func (a AnyPath) String() string {
	parts := make([]string, len(a.segs))
	for i, s := range a.segs {
		parts[i] = segmentString(s)
	}
	return strings.Join(parts, "/")
}

// PathMarker is the optional leading letter of a textual path: absent,
// "m" (derive privately), or "M" (derive publicly, or privately-then-project).
type PathMarker int

const (
	NoMarker PathMarker = iota
	PrivateMarker
	PublicMarker
)

// ParsedPath is the result of parsing a textual derivation path: an
// optional leading marker plus its sequence of tagged segments.
type ParsedPath struct {
	Marker PathMarker
	Path   AnyPath
}

// ParsePath parses the ABNF `["m" / "M"] *( "/" segment )`, where each
// segment is `1*DIGIT ["'" / "h" / "H"]`. The parser accepts 'h'/'H' as a
// hardness marker in addition to the canonical `'`, but String/ParsedPath's
// printer always emits `'`.
func ParsePath(s string) (*ParsedPath, error) {
	marker := NoMarker
	rest := s

	switch {
	case rest == "m" || strings.HasPrefix(rest, "m/"):
		marker = PrivateMarker
		rest = strings.TrimPrefix(rest, "m")
	case rest == "M" || strings.HasPrefix(rest, "M/"):
		marker = PublicMarker
		rest = strings.TrimPrefix(rest, "M")
	}
	rest = strings.TrimPrefix(rest, "/")

	if rest == "" {
		return &ParsedPath{Marker: marker, Path: AnyPath{}}, nil
	}

	rawSegments := strings.Split(rest, "/")
	segs := make([]PathSegment, len(rawSegments))
	for i, raw := range rawSegments {
		seg, err := parseSegment(raw)
		if err != nil {
			return nil, err
		}
		segs[i] = seg
	}

	path, err := NewAnyPath(segs...)
	if err != nil {
		return nil, err
	}
	return &ParsedPath{Marker: marker, Path: path}, nil
}

// MustParsePath is ParsePath, panicking on error; intended for literal
// paths known at compile time (tests, constants), not for untrusted input.
func MustParsePath(s string) *ParsedPath {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

func parseSegment(raw string) (PathSegment, error) {
	if raw == "" {
		return PathSegment{}, errors.Wrap(ErrInvalidPath, "empty path segment")
	}

	hard := false
	digits := raw
	switch raw[len(raw)-1] {
	case '\'', 'h', 'H':
		hard = true
		digits = raw[:len(raw)-1]
	}

	if digits == "" {
		return PathSegment{}, errors.Wrapf(ErrInvalidPath, "no digits in segment %q", raw)
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return PathSegment{}, errors.Wrapf(ErrInvalidPath, "non-decimal character in segment %q", raw)
		}
	}

	v, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		return PathSegment{}, errors.Wrapf(ErrInvalidPath, "segment %q does not fit in 32 bits", raw)
	}
	index := uint32(v)
	if IsHardened(index) {
		return PathSegment{}, errors.Wrapf(ErrInvalidPath, "segment %q is >= 2^31", raw)
	}

	return PathSegment{Index: index, Hard: hard}, nil
}

// String renders p back to its canonical textual form; hard segments are
// always printed with `'`, regardless of how they were spelled on parse.
func (p *ParsedPath) String() string {
	var prefix string
	switch p.Marker {
	case PrivateMarker:
		prefix = "m"
	case PublicMarker:
		prefix = "M"
	}

	body := p.Path.String()
	switch {
	case prefix == "" && body == "":
		return ""
	case prefix == "":
		return body
	case body == "":
		return prefix
	default:
		return prefix + "/" + body
	}
}

// ApplyToXPrv applies a parsed path to an extended private key, per the
// apply() table: "m/…" and unmarked paths derive privately; "M/…" derives
// privately then projects to the corresponding XPub. Exactly one of the
// two return values is non-nil.
func ApplyToXPrv(p *ParsedPath, x *XPrv) (prv *XPrv, pub *XPub, err error) {
	derived, err := p.Path.Derive(x)
	if err != nil {
		return nil, nil, err
	}
	if p.Marker == PublicMarker {
		pub, err := DeriveXPub(derived)
		if err != nil {
			return nil, nil, err
		}
		return nil, pub, nil
	}
	return derived, nil, nil
}

// ApplyToXPub applies a parsed path to an extended public key, per the
// apply() table: "m/…" fails with ErrNeedPrivateKey; "M/…" and unmarked
// paths derive publicly if the path has no hard segment, else fail with
// ErrPathHardnessMismatch.
func ApplyToXPub(p *ParsedPath, x *XPub) (*XPub, error) {
	if p.Marker == PrivateMarker {
		return nil, errors.Wrap(ErrNeedPrivateKey, "")
	}
	if p.Path.HasHard() {
		return nil, errors.Wrap(ErrPathHardnessMismatch, "")
	}
	soft, err := p.Path.ToSoft()
	if err != nil {
		return nil, err
	}
	return soft.DerivePublic(x)
}
