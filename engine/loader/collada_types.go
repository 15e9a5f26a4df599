package loader

import (
	"encoding/xml"
	"strconv"
	"strings"
)

// --- Collada 1.4 document (subset) ---
// Only the first geometry's triangle lists are read; scenes, controllers and effects are ignored.

// colladaDocument is the top-level COLLADA element.
type colladaDocument struct {
	Asset      colladaAsset      `xml:"asset"`
	Geometries []colladaGeometry `xml:"library_geometries>geometry"`
}

// colladaAsset holds document metadata.
type colladaAsset struct {
	UpAxis string `xml:"up_axis"`
}

// colladaGeometry is a named geometry.
type colladaGeometry struct {
	ID   string      `xml:"id,attr"`
	Name string      `xml:"name,attr"`
	Mesh colladaMesh `xml:"mesh"`
}

// colladaMesh contains the data sources and primitives of a geometry.
type colladaMesh struct {
	Sources   []colladaSource    `xml:"source"`
	Vertices  colladaVertices    `xml:"vertices"`
	Triangles []colladaTriangles `xml:"triangles"`
}

// colladaSource is a float array plus the accessor describing its layout.
type colladaSource struct {
	ID       string          `xml:"id,attr"`
	Floats   colladaFloats   `xml:"float_array"`
	Accessor colladaAccessor `xml:"technique_common>accessor"`
}

// colladaAccessor describes how a source is split into elements.
type colladaAccessor struct {
	Count  int `xml:"count,attr"`
	Stride int `xml:"stride,attr"`
}

// colladaFloats is a whitespace separated float list.
type colladaFloats struct {
	ID   string
	Data []float32
}

// UnmarshalXML parses the float list.
func (f *colladaFloats) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		if attr.Name.Local == "id" {
			f.ID = attr.Value
		}
	}
	var raw string
	if err := d.DecodeElement(&raw, &start); err != nil {
		return err
	}
	fields := strings.Fields(raw)
	f.Data = make([]float32, 0, len(fields))
	for _, r := range fields {
		num, err := strconv.ParseFloat(r, 32)
		if err != nil {
			return err
		}
		f.Data = append(f.Data, float32(num))
	}
	return nil
}

// colladaVertices maps the mesh's vertex id to its position source.
type colladaVertices struct {
	ID     string         `xml:"id,attr"`
	Inputs []colladaInput `xml:"input"`
}

// colladaTriangles is a triangle list with interleaved per-corner indices.
type colladaTriangles struct {
	Count    int            `xml:"count,attr"`
	Material string         `xml:"material,attr"`
	Inputs   []colladaInput `xml:"input"`
	Indices  colladaInts    `xml:"p"`
}

// colladaInts is a whitespace separated integer list.
type colladaInts []int

// UnmarshalXML parses the integer list.
func (p *colladaInts) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var raw string
	if err := d.DecodeElement(&raw, &start); err != nil {
		return err
	}
	fields := strings.Fields(raw)
	ints := make([]int, 0, len(fields))
	for _, r := range fields {
		num, err := strconv.Atoi(r)
		if err != nil {
			return err
		}
		ints = append(ints, num)
	}
	*p = ints
	return nil
}

// colladaInput binds a semantic to a source at an offset within each index tuple.
type colladaInput struct {
	Semantic string `xml:"semantic,attr"`
	Source   string `xml:"source,attr"`
	Offset   int    `xml:"offset,attr"`
	Set      int    `xml:"set,attr"`
}
