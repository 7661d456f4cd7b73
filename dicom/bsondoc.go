package dicom

import (
	"fmt"

	"gopkg.in/mgo.v2/bson"
)

// BSONDocument flattens a data set into a BSON document suitable for
// indexing in a document store. Keys are the 8-digit hex form of each tag
// ("00080018"). Sequences become arrays of nested documents. Native pixel
// data is summarised by its shape, encapsulated pixel data by its fragment
// count and OB/UN byte runs by their byte length; all other values, OW and OF
// runs included, are embedded as decoded.
//
// When keywords are given, only those attributes (plus SOPInstanceUID, which
// identifies the document) are included.
func BSONDocument(ds *DataSet, keywords ...string) (bson.M, error) {
	var selected map[DataElementTag]bool
	if len(keywords) > 0 {
		selected = map[DataElementTag]bool{SOPInstanceUIDTag: true}
		for _, keyword := range keywords {
			tag, found := TagForKeyword(keyword)
			if !found {
				return nil, fmt.Errorf("selecting keyword %q: %w", keyword, ErrUnknownTag)
			}
			selected[tag] = true
		}
	}

	doc := bson.M{}
	for _, element := range ds.SortedElements() {
		if selected != nil && !selected[element.Tag] {
			continue
		}
		doc[fmt.Sprintf("%08X", uint32(element.Tag))] = bsonValue(element.ValueField)
	}
	return doc, nil
}

func bsonValue(value interface{}) interface{} {
	switch v := value.(type) {
	case *Sequence:
		items := make([]interface{}, 0, len(v.Items))
		for _, item := range v.Items {
			doc, _ := BSONDocument(item)
			items = append(items, doc)
		}
		return items
	case *NativePixelData:
		return bson.M{"shape": v.Shape}
	case *EncapsulatedPixelData:
		return bson.M{"fragments": len(v.Fragments)}
	case []byte:
		return bson.M{"bytes": len(v)}
	case DataElementTag:
		return v.String()
	case []DataElementTag:
		tags := make([]string, len(v))
		for i, t := range v {
			tags[i] = t.String()
		}
		return tags
	default:
		return v
	}
}
