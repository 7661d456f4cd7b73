// Package dicom provides functions and data structures for reading and
// writing the DICOM Part 10 file format.
//
// The Parse family of functions decodes a byte stream into a DataSet, a
// mapping from data element tags to typed values. Write re-encodes a DataSet
// such that a round trip of a well-formed file is byte-identical for the
// supported transfer syntaxes (Implicit VR Little Endian, Explicit VR Little
// and Big Endian, and Deflated Explicit VR Little Endian treated as its
// non-deflated form).
//
// Pixel data is decoded into a dense array for the native format and kept as
// opaque fragments for the encapsulated (compressed) format. No image codec
// is invoked; decompression is the responsibility of higher layers.
package dicom
