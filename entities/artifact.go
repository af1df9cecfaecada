package entities

type Artifact struct {
	FileName    string
	ContentType string
	Content     []byte
}

type Mail struct {
	To          string
	Subject     string
	HTML        string
	Attachments []Artifact
}
