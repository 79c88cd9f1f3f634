package types

// PredictRequest is the JSON body for POST /predict. All four measurements
// are required; pointers distinguish "absent" from a literal zero.
type PredictRequest struct {
	// Sepal length in centimeters.
	// example: 5.1
	SepalLength *float64 `json:"sepal_length" example:"5.1"`
	// Sepal width in centimeters.
	// example: 3.5
	SepalWidth *float64 `json:"sepal_width" example:"3.5"`
	// Petal length in centimeters.
	// example: 1.4
	PetalLength *float64 `json:"petal_length" example:"1.4"`
	// Petal width in centimeters.
	// example: 0.2
	PetalWidth *float64 `json:"petal_width" example:"0.2"`
}

// Features returns the measurements in the fixed model order.
// Callers must validate Complete() first.
func (r PredictRequest) Features() [NumFeatures]float64 {
	return [NumFeatures]float64{*r.SepalLength, *r.SepalWidth, *r.PetalLength, *r.PetalWidth}
}

// Complete reports whether every required field was present in the body.
// The name of the first missing field is returned for error messages.
func (r PredictRequest) Complete() (string, bool) {
	switch {
	case r.SepalLength == nil:
		return FeatureNames[0], false
	case r.SepalWidth == nil:
		return FeatureNames[1], false
	case r.PetalLength == nil:
		return FeatureNames[2], false
	case r.PetalWidth == nil:
		return FeatureNames[3], false
	}
	return "", true
}

// PredictResponse is returned by POST /predict.
type PredictResponse struct {
	// Predicted species name.
	// example: setosa
	Prediction string `json:"prediction" example:"setosa"`
	// Probability the model assigns to its own predicted class, in [0,1].
	// example: 0.97
	Confidence float64 `json:"confidence" example:"0.97"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	// Overall status string: "healthy" or "unhealthy".
	// example: healthy
	Status string `json:"status" example:"healthy"`
	// Whether a model is currently loaded and serving.
	// example: true
	ModelLoaded bool `json:"model_loaded" example:"true"`
}

// InfoResponse is the static capability listing returned by GET /.
type InfoResponse struct {
	// Service name.
	// example: irisd
	Name string `json:"name" example:"irisd"`
	// Service version.
	// example: 1.0.0
	Version string `json:"version" example:"1.0.0"`
	// Health endpoint path.
	Health string `json:"health"`
	// Predict endpoint path.
	Predict string `json:"predict"`
	// Metrics endpoint path.
	Metrics string `json:"metrics"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}
