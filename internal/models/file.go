package models

// FileListing is the body of the file list endpoint: sorted names of the
// regular files directly inside one asset directory.
type FileListing []string

// Manifest maps each asset alias to its file listing
type Manifest map[string]FileListing

// ErrorResponse is returned when a request fails on the server side
type ErrorResponse struct {
	Error string `json:"error"`
}
