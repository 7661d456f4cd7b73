package dicom

import (
	"fmt"
	"io"
	"strings"
)

// Sequence models a DICOM Sequence of Items (VR SQ): an ordered list of
// nested data sets.
type Sequence struct {
	Items []*DataSet
}

func (seq *Sequence) String() string {
	lines := make([]string, 0, len(seq.Items))
	for _, item := range seq.Items {
		lines = append(lines, item.describe(1))
	}
	return "\n" + strings.Join(lines, "\n")
}

func (seq *Sequence) append(item *DataSet) {
	seq.Items = append(seq.Items, item)
}

// readSequence decodes a sequence value. A defined length covers exactly that
// many bytes of items; an undefined length runs until the sequence
// delimitation item (FFFE,E0DD).
func readSequence(dr *dcmReader, length uint32, syntax transferSyntax, ctx *parseContext) (*Sequence, error) {
	seq := &Sequence{Items: []*DataSet{}}

	if length == UndefinedLength {
		for {
			tag, err := dr.Tag(syntax.ByteOrder)
			if err != nil {
				return nil, fmt.Errorf("reading item tag: %v", err)
			}
			if tag == SequenceDelimitationItemTag {
				if _, err := dr.UInt32(syntax.ByteOrder); err != nil {
					return nil, fmt.Errorf("reading length of sequence delimitation item: %v", err)
				}
				return seq, nil
			}
			if tag != ItemTag {
				return nil, fmt.Errorf("got tag %v: %w", tag, ErrBadSequenceFraming)
			}
			item, err := readItem(dr, syntax, ctx)
			if err != nil {
				return nil, err
			}
			seq.append(item)
		}
	}

	lim := dr.Limit(int64(length))
	for {
		tag, err := lim.Tag(syntax.ByteOrder)
		if err == io.EOF {
			return seq, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading item tag: %v", err)
		}
		if tag != ItemTag {
			return nil, fmt.Errorf("got tag %v: %w", tag, ErrBadSequenceFraming)
		}
		item, err := readItem(lim, syntax, ctx)
		if err != nil {
			return nil, err
		}
		seq.append(item)
	}
}

// readItem decodes one sequence item: a 32-bit length (possibly undefined)
// followed by the item's elements. Elements are read until the declared
// length is exhausted or, for undefined length, until the item delimitation
// item (FFFE,E00D).
func readItem(dr *dcmReader, syntax transferSyntax, ctx *parseContext) (*DataSet, error) {
	length, err := dr.UInt32(syntax.ByteOrder)
	if err != nil {
		return nil, fmt.Errorf("reading item length: %v", err)
	}

	item := newItemDataSet(syntax)
	itemReader := dr
	if length != UndefinedLength {
		itemReader = dr.Limit(int64(length))
	}

	for {
		element, err := readDataElement(itemReader, syntax, item, ctx)
		if err == io.EOF {
			// declared length exhausted, or the item delimitation item for
			// undefined length
			return item, nil
		}
		if err != nil {
			return nil, err
		}
		item.Put(element)
	}
}

func newItemDataSet(syntax transferSyntax) *DataSet {
	item := NewDataSet()
	item.LittleEndian = !syntax.bigEndian()
	item.ExplicitVR = !syntax.Implicit
	return item
}
