package api

// EncodeRequest asks for hypervector encodings of sequences. With Binary
// set, vectors are the 0/1 sign indicators instead of the continuous
// encoding.
type EncodeRequest struct {
	Sequences []string `json:"sequences"`
	Binary    bool     `json:"binary,omitempty"`
}

type EncodeResponse struct {
	Dimension int         `json:"dimension"`
	Vectors   [][]float32 `json:"vectors"`
}

type PredictRequest struct {
	Sequences []string `json:"sequences"`
}

type PredictResponse struct {
	Labels []int `json:"labels"`
}

type PredictProbaResponse struct {
	Classes       int         `json:"classes"`
	Probabilities [][]float32 `json:"probabilities"`
}

// ModelInfo describes the served model.
type ModelInfo struct {
	KmerLength int  `json:"kmer_length"`
	Dimension  int  `json:"dimension"`
	Classes    int  `json:"classes,omitempty"`
	Fitted     bool `json:"fitted"`
}

// ErrorBody is the error envelope all failing responses share.
type ErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}
