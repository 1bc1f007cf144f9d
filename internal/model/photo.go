package model

type Photo struct {
	ID               string `json:"id"`
	UserID           string `json:"user_id"`
	Name             string `json:"name"`
	FileKey          string `json:"file_key"`
	OriginalFilename string `json:"original_filename"`
	Path             string `json:"path"`
	Size             int64  `json:"size"`
	MimeType         string `json:"mime_type"`
	Ctime            int64  `json:"ctime"`
	Mtime            int64  `json:"mtime"`
}
