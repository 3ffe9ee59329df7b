package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the mapping for history documents.
// Text fields use English stemming; ownership and labels are exact keywords.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	originalField := bleve.NewTextFieldMapping()
	originalField.Analyzer = en.AnalyzerName
	originalField.Store = true
	originalField.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt(fieldOriginal, originalField)

	rewrittenField := bleve.NewTextFieldMapping()
	rewrittenField.Analyzer = en.AnalyzerName
	rewrittenField.Store = true
	rewrittenField.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt(fieldRewritten, rewrittenField)

	for _, name := range []string{fieldUserID, fieldTone, fieldVoice, fieldStatus} {
		f := bleve.NewTextFieldMapping()
		f.Analyzer = keyword.Name
		f.Store = true
		docMapping.AddFieldMappingsAt(name, f)
	}

	created := bleve.NewDateTimeFieldMapping()
	created.Store = true
	docMapping.AddFieldMappingsAt(fieldCreatedAt, created)

	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}
