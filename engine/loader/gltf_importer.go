package loader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-assets/engine/model"
)

// gltfImportResult is a decoded glTF document: the flattened model plus what is needed to rebuild its node
// hierarchy.
type gltfImportResult struct {
	// Model holds every primitive and material of the document.
	Model *model.ImportedModel

	// MeshPrimitives maps a glTF mesh index to the indices of its primitives in Model.Meshes.
	MeshPrimitives [][]int

	// Document is the parsed document, used for nodes and scenes.
	Document *gltfDocument
}

// gltfImporterImpl is the implementation of the gltfImporter interface.
type gltfImporterImpl struct{}

// gltfImporter defines the interface for orchestrating a full glTF/GLB import.
// It combines the parser and extractors to produce an ImportedModel.
type gltfImporter interface {
	// Import loads a glTF/GLB file and extracts its meshes and materials.
	//
	// Parameters:
	//   - path: the resolved path to the glTF or GLB file
	//   - calculateTangents: whether tangents are generated for primitives that lack them
	//
	// Returns:
	//   - *gltfImportResult: the decoded document
	//   - error: error if import fails
	Import(path string, calculateTangents bool) (*gltfImportResult, error)

	// ImportReader loads a glTF document from a reader.
	// The reader should provide a complete glTF JSON or GLB binary stream.
	//
	// Parameters:
	//   - r: the reader providing glTF/GLB data
	//   - baseDir: the directory external buffers and images are resolved against
	//   - calculateTangents: whether tangents are generated for primitives that lack them
	//
	// Returns:
	//   - *gltfImportResult: the decoded document
	//   - error: error if import fails
	ImportReader(r io.Reader, baseDir string, calculateTangents bool) (*gltfImportResult, error)
}

var _ gltfImporter = &gltfImporterImpl{}

// newGLTFImporter creates a new glTF importer.
//
// Returns:
//   - gltfImporter: the importer
func newGLTFImporter() gltfImporter {
	return &gltfImporterImpl{}
}

func (imp *gltfImporterImpl) Import(path string, calculateTangents bool) (*gltfImportResult, error) {
	parser := newGLTFParser()
	if err := parser.Parse(path); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return imp.importFromParser(parser, path, calculateTangents)
}

func (imp *gltfImporterImpl) ImportReader(r io.Reader, baseDir string, calculateTangents bool) (*gltfImportResult, error) {
	parser := newGLTFParser()
	if err := parser.ParseReader(r, baseDir); err != nil {
		return nil, fmt.Errorf("failed to parse from reader: %w", err)
	}

	return imp.importFromParser(parser, "", calculateTangents)
}

// importFromParser extracts meshes and materials from a parser that has already loaded a document.
//
// Parameters:
//   - parser: the glTF parser that has already loaded a document
//   - source: the document path, used for naming (may be empty)
//   - calculateTangents: whether tangents are generated
func (imp *gltfImporterImpl) importFromParser(parser gltfParser, source string, calculateTangents bool) (*gltfImportResult, error) {
	doc := parser.Document()
	if doc == nil {
		return nil, errNoDocument
	}

	groups, err := newGLTFMeshExtractor(parser).ExtractAllMeshes(calculateTangents)
	if err != nil {
		return nil, fmt.Errorf("mesh extraction failed: %w", err)
	}

	materials, err := newGLTFMaterialExtractor(parser, source).ExtractAllMaterials()
	if err != nil {
		return nil, fmt.Errorf("material extraction failed: %w", err)
	}

	result := &gltfImportResult{
		Model: &model.ImportedModel{
			Name:      gltfExtractModelName(doc, source),
			Materials: materials,
		},
		MeshPrimitives: make([][]int, len(groups)),
		Document:       doc,
	}

	for meshIndex, prims := range groups {
		for _, prim := range prims {
			if prim.MaterialIndex >= len(materials) {
				return nil, fmt.Errorf("mesh %q references material %d of %d", prim.Name, prim.MaterialIndex, len(materials))
			}
			result.MeshPrimitives[meshIndex] = append(result.MeshPrimitives[meshIndex], len(result.Model.Meshes))
			result.Model.Meshes = append(result.Model.Meshes, prim)
		}
	}

	return result, nil
}

// --- Helper Functions ---

// gltfExtractModelName derives a model name from the default scene or the file name.
func gltfExtractModelName(doc *gltfDocument, source string) string {
	if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
		if name := doc.Scenes[*doc.Scene].Name; name != "" {
			return name
		}
	}

	if source != "" {
		base := filepath.Base(source)
		for ext := filepath.Ext(base); ext != ""; ext = filepath.Ext(base) {
			base = strings.TrimSuffix(base, ext)
		}
		return base
	}

	return "unnamed_model"
}
