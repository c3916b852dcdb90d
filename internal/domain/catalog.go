package domain

import (
	"bytes"
	"encoding/json"
)

// Remote object type reported for files the catalog could not classify.
const RemoteObjectUnknownFile = "FILE.UNKNOWN"

// DescriptionShort is the description kind used for graph comments.
const DescriptionShort = "SHORT"

// CatalogItem is one entry of a container listing.
type CatalogItem struct {
	RemoteObjectReference RemoteObjectReference `json:"remoteObjectReference"`
}

// RemoteObjectReference identifies a dataset inside a catalog connection.
type RemoteObjectReference struct {
	QualifiedName    string `json:"qualifiedName"`
	RemoteObjectType string `json:"remoteObjectType"`
	Size             *int64 `json:"size,omitempty"`
}

// Importable reports whether the listed item should be fetched as a dataset.
// Unknown files and empty objects are not datasets.
func (r RemoteObjectReference) Importable() bool {
	if r.RemoteObjectType == RemoteObjectUnknownFile {
		return false
	}
	if r.Size != nil && *r.Size == 0 {
		return false
	}
	return true
}

// DatasetRecord is a harvested factsheet, optionally augmented with tags and lineage.
type DatasetRecord struct {
	Metadata DatasetMetadata `json:"metadata"`
	Columns  []ColumnRecord  `json:"columns"`
	Tags     *TagsPayload    `json:"tags,omitempty"`
	// Lineage is kept raw: only a JSON object is interpreted as lineage.
	Lineage  json.RawMessage `json:"lineage,omitempty"`
}

// DatasetMetadata holds the dataset-level part of a factsheet.
type DatasetMetadata struct {
	URI          string        `json:"uri"`
	Name         string        `json:"name"`
	Type         string        `json:"type"`
	Descriptions []Description `json:"descriptions,omitempty"`
	UniqueKeys   []UniqueKey   `json:"uniqueKeys,omitempty"`
}

// Description is a typed description entry ("SHORT", "LONG", ...).
type Description struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// ShortDescription returns the first SHORT description.
func ShortDescription(ds []Description) (string, bool) {
	for _, d := range ds {
		if d.Type == DescriptionShort {
			return d.Value, true
		}
	}
	return "", false
}

// UniqueKey lists the attributes forming a key of the dataset.
type UniqueKey struct {
	AttributeReferences []AttributeReference `json:"attributeReferences"`
}

// AttributeReference names a key attribute. The catalog sends either a bare
// attribute name or an object carrying it.
type AttributeReference struct {
	Name string
}

// UnmarshalJSON accepts "NAME", {"name": "NAME"}, {"attributeName": ...} and
// {"qualifiedName": ...}.
func (a *AttributeReference) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &a.Name)
	}
	var obj struct {
		Name          string `json:"name"`
		AttributeName string `json:"attributeName"`
		QualifiedName string `json:"qualifiedName"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	switch {
	case obj.Name != "":
		a.Name = obj.Name
	case obj.AttributeName != "":
		a.Name = obj.AttributeName
	default:
		a.Name = obj.QualifiedName
	}
	return nil
}

// MarshalJSON writes the reference as a bare name.
func (a AttributeReference) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Name)
}

// ColumnRecord is one column of a factsheet.
type ColumnRecord struct {
	Name         string        `json:"name"`
	Type         string        `json:"type"`
	TemplateType string        `json:"templateType"`
	Length       *int64        `json:"length,omitempty"`
	Precision    *int64        `json:"precision,omitempty"`
	Scale        *int64        `json:"scale,omitempty"`
	Descriptions []Description `json:"descriptions,omitempty"`
}

// TagsPayload is the tags response of a dataset.
type TagsPayload struct {
	TagsOnDataset   []HierarchyTags `json:"tagsOnDataset,omitempty"`
	TagsOnAttribute []AttributeTags `json:"tagsOnAttribute,omitempty"`
}

// HierarchyTags groups tags of one tag hierarchy.
type HierarchyTags struct {
	HierarchyName string   `json:"hierarchyName"`
	Tags          []TagRef `json:"tags"`
}

// AttributeTags attaches hierarchy tags to a single column.
type AttributeTags struct {
	AttributeQualifiedName string          `json:"attributeQualifiedName"`
	Tags                   []HierarchyTags `json:"tags"`
}

// TagRef wraps a tag of a hierarchy.
type TagRef struct {
	Tag TagInfo `json:"tag"`
}

// TagInfo is a single tag: its path inside the hierarchy and display name.
type TagInfo struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

// LineagePayload is the structured lineage export of a dataset.
type LineagePayload struct {
	PublicComputationNodes []ComputationNode `json:"publicComputationNodes"`
}

// ComputationNode is a published computation with its transforms.
type ComputationNode struct {
	Transforms []Transform `json:"transforms"`
}

// Transform groups dataset computations.
type Transform struct {
	DatasetComputation []DatasetComputation `json:"datasetComputation"`
}

// DatasetComputation links input datasets to output datasets.
type DatasetComputation struct {
	ComputationType string       `json:"computationType"`
	InputDatasets   []DatasetRef `json:"inputDatasets,omitempty"`
	OutputDatasets  []DatasetRef `json:"outputDatasets,omitempty"`
}

// DatasetRef references a dataset by its external path.
type DatasetRef struct {
	ExternalDatasetRef string `json:"externalDatasetRef"`
}

// ParseLineage interprets raw lineage. ok is false when the payload is absent
// or not a JSON object.
func ParseLineage(raw json.RawMessage) (*LineagePayload, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}
	var p LineagePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false
	}
	return &p, true
}
