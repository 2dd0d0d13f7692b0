package imagegen

// GenerateRequest is the body of POST /images/generations.
type GenerateRequest struct {
	Model          string `json:"model,omitempty"`
	Prompt         string `json:"prompt"`
	Size           string `json:"size"`
	N              int    `json:"n"`
	ResponseFormat string `json:"response_format,omitempty"`
}

// GenerateResponse holds one entry per requested image.
type GenerateResponse struct {
	Created int64       `json:"created"`
	Data    []ImageData `json:"data"`
}

// ImageData carries either a hosted URL or inline base64 PNG data.
type ImageData struct {
	URL           string `json:"url,omitempty"`
	B64JSON       string `json:"b64_json,omitempty"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
}

// Image is the decoded result of Generate. Exactly one of URL and Data is set.
type Image struct {
	URL         string
	Data        []byte
	ContentType string
}
