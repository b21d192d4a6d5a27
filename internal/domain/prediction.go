package domain

// Label is one of the two classes the system recognizes. There is no third
// state: anything that is not a crop is reported as a weed and vice versa.
type Label string

const (
	LabelWeed Label = "Weed"
	LabelCrop Label = "Crop"
)

func (l Label) Valid() bool { return l == LabelWeed || l == LabelCrop }

// LabelScore is one entry of the ranked list returned by the external
// classifier. Labels are free-text; no vocabulary is guaranteed.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// OutcomeSource records where a classification outcome came from.
type OutcomeSource string

const (
	// SourceExternal: a keyword matched a real classifier response.
	SourceExternal OutcomeSource = "external"
	// SourceExternalFallback: the external call failed or returned no usable
	// signal; the emitted values are synthetic.
	SourceExternalFallback OutcomeSource = "external_fallback"
	// SourceSynthetic: no external classifier is configured at all.
	SourceSynthetic OutcomeSource = "synthetic"
)

// Outcome is a resolved classification that has not been persisted yet.
type Outcome struct {
	Label      Label         `json:"prediction"`
	Confidence float64       `json:"confidence"`
	Source     OutcomeSource `json:"source"`
}

// Prediction is a persisted Outcome plus ownership and identity metadata.
// It is immutable once created.
type Prediction struct {
	ID         string  `json:"id"`
	UserID     string  `json:"userId"`
	Label      Label   `json:"prediction"`
	Confidence float64 `json:"confidence"`
	ImageName  string  `json:"imageName"`
	FilePath   string  `json:"filePath,omitempty"`
	Timestamp  int64   `json:"timestamp"`
}

// Statistics summarizes a set of predictions.
type Statistics struct {
	Total         int     `json:"totalPredictions"`
	WeedCount     int     `json:"weedCount"`
	CropCount     int     `json:"cropCount"`
	AvgConfidence float64 `json:"avgConfidence"`
}
