package models

type TextClassificationRequest struct {
	Inputs  string                    `json:"inputs"`
	Options TextClassificationOptions `json:"options"`
}

type TextClassificationOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

// ClassScore is one label/score pair as emitted by a classification model.
type ClassScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type InferenceError struct {
	Error string `json:"error"`
}
