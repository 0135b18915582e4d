package types

// Metadata is the open-ended payload stored alongside a dataset row as a
// JSON blob. Keys of the form __<field>__lock__ are control keys that pin
// the corresponding field against automated overwrites.
type Metadata = map[string]any

// DatasetRecord is a single validated dataset from an ingested collection.
// Core fields that the catalog schema knows about are declared explicitly;
// everything else the input carried lives in Extra and flows into the
// metadata blob unchanged.
type DatasetRecord struct {
	// ProcessName is the logical dataset name. When empty the importer
	// synthesizes a fallback name so the row is still addressable.
	ProcessName string

	NEvents     *int64
	Path        string
	Size        *int64
	Description string
	Comment     string
	Status      string

	// Navigation fields name the shared reference entities this dataset
	// belongs to. Blank values mean "no relation".
	Accelerator string
	Stage       string
	Campaign    string
	Detector    string
	FileType    string

	// Extra collects every input key not covered by the fields above.
	Extra map[string]any
}

// NavigationField returns the reference-entity name carried by this record
// for the given category key, or "" when the record has none.
func (r DatasetRecord) NavigationField(key string) string {
	switch key {
	case "accelerator":
		return r.Accelerator
	case "stage":
		return r.Stage
	case "campaign":
		return r.Campaign
	case "detector":
		return r.Detector
	case "file_type":
		return r.FileType
	}
	return ""
}

// AllMetadata builds the full metadata mapping for this record. The logical
// name and the navigation fields are excluded: the name is a first-class
// column and the navigation fields are stored as foreign keys.
func (r DatasetRecord) AllMetadata() Metadata {
	md := Metadata{}
	if r.NEvents != nil {
		md["n-events"] = *r.NEvents
	}
	if r.Path != "" {
		md["path"] = r.Path
	}
	if r.Size != nil {
		md["size"] = *r.Size
	}
	if r.Description != "" {
		md["description"] = r.Description
	}
	if r.Comment != "" {
		md["comment"] = r.Comment
	}
	if r.Status != "" {
		md["status"] = r.Status
	}
	for k, v := range r.Extra {
		md[k] = v
	}
	return md
}
