package export

// Envelope statuses used by the JSON response contract
const (
	StatusOK       = "ok"
	StatusError    = "error"
	StatusRedirect = "redirect"
)

// Envelope is the JSON body the service returns for programmatic export
// requests. Exactly one of DownloadURL or URL is meaningful depending on
// Status; Message accompanies errors.
type Envelope struct {
	Status      string `json:"status"`
	Message     string `json:"message,omitempty"`
	URL         string `json:"url,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`
}
