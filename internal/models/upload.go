package models

type PresignInput struct {
	Key         string `json:"key"`
	ContentType string `json:"contentType"`
	Folder      string `json:"folder"`
	FileName    string `json:"fileName"`
	WantViewURL bool   `json:"wantViewUrl"`
	ViewTTL     *int   `json:"viewTtl"`
}

type PresignResult struct {
	Mode        string  `json:"mode"`
	UploadURL   string  `json:"uploadUrl"`
	PublicURL   string  `json:"publicUrl"`
	ViewURL     *string `json:"viewUrl"`
	Key         string  `json:"key"`
	FileName    string  `json:"fileName,omitempty"`
	Bucket      string  `json:"bucket"`
	Region      string  `json:"region"`
	ContentType string  `json:"contentType"`
}

type ShortIntroInput struct {
	StageName     string   `json:"stageName" validate:"required"`
	Roles         []string `json:"roles"`
	Genres        []string `json:"genres"`
	PortfolioText string   `json:"portfolioText"`
}
